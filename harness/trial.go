package harness

import "strconv"

// A Trial describes one client invocation: which trace to replay, at
// what value size, against which directory.
type Trial struct {
	TraceFile string
	ValueSize int
	DBDir     string
}

// Args returns the client's argument list for the trial.
func (t Trial) Args() []string {
	return []string{
		"-f", t.TraceFile,
		"-v", strconv.Itoa(t.ValueSize),
		"-d", t.DBDir,
	}
}
