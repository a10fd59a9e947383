package bench

import (
	"context"
	"log/slog"
)

// Driver sequences the two backend passes over one shared result
// table: baseline first, then preload, never concurrently, since both
// passes mutate the same target directory.
type Driver struct {
	Sweep    *Sweep
	Baseline Backend
	Preload  Backend
}

// SampleSet holds one backend's raw per-iteration samples.
type SampleSet struct {
	Backend string
	Samples []Sample
}

// Run executes both passes and returns the merged result table plus
// each backend's samples in pass order.
func (d *Driver) Run(ctx context.Context) (*Results, []SampleSet, error) {
	res := NewResults()
	sets := make([]SampleSet, 0, 2)

	for _, b := range []Backend{d.Baseline, d.Preload} {
		d.Sweep.Logger.Info("starting backend pass",
			slog.String("backend", b.Label),
			slog.Int("cells", d.Sweep.Suite.Cells()),
			slog.Int("iterations", d.Sweep.Suite.Iterations),
		)

		samples, err := d.Sweep.Run(ctx, b, res)
		if err != nil {
			return nil, nil, err
		}

		sets = append(sets, SampleSet{Backend: b.Label, Samples: samples})
	}

	return res, sets, nil
}
