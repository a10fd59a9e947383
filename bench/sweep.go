package bench

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/weiihann/fsbench/harness"
	"github.com/weiihann/fsbench/workload"
)

// Sweep runs the full workload by value-size matrix for one backend.
type Sweep struct {
	Suite  workload.Suite
	DBDir  string
	LogDir string // when set, run-phase client output is archived here
	Logger *slog.Logger

	// DropCaches is invoked before every timed trial. Nil means
	// harness.DropCaches. Failures are logged as warnings, never fatal.
	DropCaches func(context.Context) error
}

// Run executes the sweep for one backend, recording each cell's mean
// throughput into res and returning the raw per-iteration samples.
// The backend's run log directory is reset first so archived logs
// cover exactly one sweep. The first error aborts the sweep: a failed
// load or run invalidates every later measurement for the backend.
func (s *Sweep) Run(ctx context.Context, b Backend, res *Results) ([]Sample, error) {
	runner := harness.NewRunner(b.Label, s.Suite.Client, b.Env, s.Logger)

	if s.LogDir != "" {
		dir := filepath.Join(s.LogDir, b.Label)
		if err := os.RemoveAll(dir); err != nil {
			return nil, fmt.Errorf("reset run log dir %s: %w", dir, err)
		}
	}

	drop := s.DropCaches
	if drop == nil {
		drop = harness.DropCaches
	}

	logger := s.Logger.With(slog.String("backend", b.Label))
	samples := make([]Sample, 0, s.Suite.Cells()*s.Suite.Iterations)

	cell := 0
	for _, w := range s.Suite.Workloads {
		for _, size := range s.Suite.ValueSizes {
			cell++
			logger.Info("benchmarking cell",
				slog.Int("cell", cell),
				slog.Int("cells", s.Suite.Cells()),
				slog.String("workload", w),
				slog.String("mix", workload.Mix(w)),
				slog.Int("value_size", size),
			)

			cellStart := time.Now()

			// The load phase populates the directory. Its figures are
			// discarded, but exit and parse failures still abort.
			loadTrial := harness.Trial{
				TraceFile: s.Suite.TraceFile(w, workload.PhaseLoad),
				ValueSize: size,
				DBDir:     s.DBDir,
			}
			if _, _, err := runner.Run(ctx, loadTrial); err != nil {
				return nil, fmt.Errorf("load %s/%d: %w", w, size, err)
			}

			runTrial := harness.Trial{
				TraceFile: s.Suite.TraceFile(w, workload.PhaseRun),
				ValueSize: size,
				DBDir:     s.DBDir,
			}

			var sum float64

			for i := 0; i < s.Suite.Iterations; i++ {
				if err := drop(ctx); err != nil {
					logger.Warn("page cache drop failed",
						slog.String("error", err.Error()),
					)
				}

				trialSum, out, err := runner.Run(ctx, runTrial)
				if err != nil {
					return nil, fmt.Errorf("run %s/%d: %w", w, size, err)
				}

				sum += trialSum.Kops()
				samples = append(samples, Sample{
					Workload:  w,
					ValueSize: size,
					Requests:  trialSum.Requests,
					ElapsedUS: trialSum.ElapsedUS,
				})

				if s.LogDir != "" {
					if err := s.appendRunLog(b.Label, w, out); err != nil {
						return nil, err
					}
				}
			}

			mean := sum / float64(s.Suite.Iterations)
			res.Record(size, w, b.Label, mean)

			logger.Info("cell finished",
				slog.String("workload", w),
				slog.Int("value_size", size),
				slog.Float64("kops", mean),
				slog.Duration("wall_time", time.Since(cellStart)),
			)

			if err := cleanDir(s.DBDir); err != nil {
				return nil, err
			}
		}
	}

	return samples, nil
}

// appendRunLog archives one run trial's raw client output under
// <log-dir>/<backend>/<workload>-run.log. Iterations of one sweep
// append to the same file; Run clears leftovers from earlier sweeps.
func (s *Sweep) appendRunLog(label, w, out string) error {
	dir := filepath.Join(s.LogDir, label)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create log dir %s: %w", dir, err)
	}

	path := filepath.Join(dir, w+"-run.log")

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open run log %s: %w", path, err)
	}

	if _, err := f.WriteString(out); err != nil {
		f.Close()

		return fmt.Errorf("append run log %s: %w", path, err)
	}

	return f.Close()
}

// cleanDir removes every file directly inside dir so the next cell
// starts from an empty directory. Cleaning an empty directory is a
// no-op.
func cleanDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("read db dir %s: %w", dir, err)
	}

	for _, entry := range entries {
		if err := os.Remove(filepath.Join(dir, entry.Name())); err != nil {
			return fmt.Errorf("clean db dir: %w", err)
		}
	}

	return nil
}
