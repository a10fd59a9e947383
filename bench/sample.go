package bench

// Sample is one timed run-phase measurement, kept raw for sample-file
// archives and significance comparison.
type Sample struct {
	Workload  string
	ValueSize int
	Requests  int
	ElapsedUS float64
}

// NsPerOp returns the mean request latency in nanoseconds, the unit
// the Go benchmark format reports.
func (s Sample) NsPerOp() float64 {
	return s.ElapsedUS * 1000 / float64(s.Requests)
}
