package harness

import (
	"fmt"
	"strings"
)

// ProcessError reports a client invocation that exited non-zero. It
// names the backend the trial ran under and carries both captured
// streams so a failed trial can be diagnosed without rerunning the
// benchmark.
type ProcessError struct {
	Backend  string
	Args     []string
	ExitCode int
	Stdout   string
	Stderr   string
}

func (e *ProcessError) Error() string {
	return fmt.Sprintf(
		"%s client %s exited with code %d\nstdout:\n%s\nstderr:\n%s",
		e.Backend, strings.Join(e.Args, " "), e.ExitCode, e.Stdout, e.Stderr,
	)
}

// ParseError reports client output that is missing an expected summary
// marker or holds a non-numeric value between the markers.
type ParseError struct {
	Reason string
	Output string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf(
		"malformed client output: %s\noutput:\n%s", e.Reason, e.Output,
	)
}
