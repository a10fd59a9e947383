package harness

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
)

// Runner executes client trials for one backend. Label names the
// backend in logs and error reports. Env is appended to the inherited
// environment; the baseline backend leaves it nil so the preload
// variable stays absent.
type Runner struct {
	Label  string
	Client string
	Env    []string
	Logger *slog.Logger
}

// NewRunner creates a Runner that invokes the client binary at
// clientPath for the named backend.
func NewRunner(label, clientPath string, env []string, logger *slog.Logger) *Runner {
	return &Runner{
		Label:  label,
		Client: clientPath,
		Env:    env,
		Logger: logger.With(slog.String("backend", label)),
	}
}

// Exec launches the client for one trial, blocks until it exits, and
// returns its captured standard output. A non-zero exit becomes a
// *ProcessError carrying the exit code and both streams. No timeout is
// applied, so a hung client hangs the run.
func (r *Runner) Exec(ctx context.Context, t Trial) (string, error) {
	cmd := exec.CommandContext(ctx, r.Client, t.Args()...)

	if len(r.Env) > 0 {
		cmd.Env = append(os.Environ(), r.Env...)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return "", &ProcessError{
				Backend:  r.Label,
				Args:     append([]string{r.Client}, t.Args()...),
				ExitCode: exitErr.ExitCode(),
				Stdout:   stdout.String(),
				Stderr:   stderr.String(),
			}
		}

		return "", fmt.Errorf("start %s client %s: %w", r.Label, r.Client, err)
	}

	return stdout.String(), nil
}

// Run executes one trial and parses the client's summary. The raw
// standard output is returned alongside for callers that archive
// trial logs.
func (r *Runner) Run(ctx context.Context, t Trial) (Summary, string, error) {
	out, err := r.Exec(ctx, t)
	if err != nil {
		return Summary{}, "", err
	}

	sum, err := ParseSummary(out)
	if err != nil {
		return Summary{}, "", fmt.Errorf("parse %s output: %w", r.Label, err)
	}

	r.Logger.Info("trial finished",
		slog.String("trace", t.TraceFile),
		slog.Int("value_size", t.ValueSize),
		slog.Int("requests", sum.Requests),
		slog.Float64("elapsed_us", sum.ElapsedUS),
	)

	return sum, out, nil
}
