// Package bench drives the benchmark: it sweeps the workload matrix
// once per backend and aggregates per-cell mean throughput into a
// shared result table.
package bench

// Backend is one storage configuration under comparison. Env is
// appended to the inherited environment of every client invocation.
type Backend struct {
	Label string
	Env   []string
}

// Baseline returns the backend that runs the client against the plain
// filesystem, with the inherited environment unmodified.
func Baseline(label string) Backend {
	return Backend{Label: label}
}

// Preload returns the backend that interposes the storage library
// through the dynamic linker.
func Preload(label, library string) Backend {
	return Backend{
		Label: label,
		Env:   []string{"LD_PRELOAD=" + library},
	}
}
