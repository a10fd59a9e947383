// Package harness runs single ycsbcli invocations: it builds the
// client's argument list, executes it under a backend's environment,
// and parses the summary the client prints.
package harness

// Summary holds the two figures a successful client invocation prints:
// how many requests it finished and how long they took.
type Summary struct {
	Requests  int
	ElapsedUS float64
}

// Kops returns the invocation's throughput in thousands of operations
// per second.
func (s Summary) Kops() float64 {
	return float64(s.Requests) * 1000 / s.ElapsedUS
}
