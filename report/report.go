// Package report renders benchmark results as per-value-size
// comparison tables, JSON, and Go benchmark sample files.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/weiihann/fsbench/bench"
)

// Generate writes one throughput table per value size, with backend
// columns in the given order. A cell with no recorded result renders
// as "-" and is logged as a warning; a hole in the table never aborts
// the report.
func Generate(w io.Writer, res *bench.Results, backends []string, logger *slog.Logger) error {
	sizes := res.Sizes()
	if len(sizes) == 0 {
		return fmt.Errorf("no results to report")
	}

	// The speedup column only makes sense for a two-way comparison.
	speedup := len(backends) == 2

	for _, size := range sizes {
		fmt.Fprintf(w, "\n Throughput (kops/sec) - Value size %d\n", size)

		fmt.Fprintf(w, " %8s", "Workload")
		for _, backend := range backends {
			fmt.Fprintf(w, "  %10s", backend)
		}
		if speedup {
			fmt.Fprintf(w, "  %8s", "Speedup")
		}
		fmt.Fprintln(w)

		for _, workload := range res.Workloads(size) {
			fmt.Fprintf(w, " %8s", workload)

			vals := make([]float64, len(backends))
			found := make([]bool, len(backends))

			for i, backend := range backends {
				vals[i], found[i] = res.Lookup(size, workload, backend)
				if !found[i] {
					logger.Warn("missing result entry",
						slog.String("workload", workload),
						slog.Int("value_size", size),
						slog.String("backend", backend),
					)
					fmt.Fprintf(w, "  %10s", "-")

					continue
				}

				fmt.Fprintf(w, "  %10.3f", vals[i])
			}

			if speedup {
				if found[0] && found[1] && vals[1] != 0 {
					fmt.Fprintf(w, "  %7.2fx", vals[0]/vals[1])
				} else {
					fmt.Fprintf(w, "  %8s", "-")
				}
			}

			fmt.Fprintln(w)
		}
	}

	return nil
}

// GenerateJSON writes the flattened result rows as JSON to w.
func GenerateJSON(w io.Writer, res *bench.Results) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	return enc.Encode(res.Rows())
}
