package report

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/weiihann/fsbench/bench"
	"golang.org/x/perf/benchstat"
)

// WriteSamples writes raw per-iteration samples in the Go benchmark
// text format, one line per timed run, so standard tooling can digest
// them. Samples with zero requests carry no per-op latency and are
// skipped.
func WriteSamples(w io.Writer, samples []bench.Sample) error {
	for _, s := range samples {
		if s.Requests == 0 {
			continue
		}

		_, err := fmt.Fprintf(w, "Benchmark%s/vsize=%d\t%d\t%.3f ns/op\n",
			s.Workload, s.ValueSize, s.Requests, s.NsPerOp())
		if err != nil {
			return err
		}
	}

	return nil
}

func newCollection() *benchstat.Collection {
	return &benchstat.Collection{
		Alpha:     0.05,
		DeltaTest: benchstat.UTest,
	}
}

// Compare writes a benchstat significance table between two backends'
// samples, old columns first.
func Compare(w io.Writer, oldName string, oldSamples []bench.Sample, newName string, newSamples []bench.Sample) error {
	var oldBuf, newBuf bytes.Buffer
	if err := WriteSamples(&oldBuf, oldSamples); err != nil {
		return err
	}
	if err := WriteSamples(&newBuf, newSamples); err != nil {
		return err
	}

	c := newCollection()
	if err := c.AddFile(oldName, &oldBuf); err != nil {
		return fmt.Errorf("collect %s samples: %w", oldName, err)
	}
	if err := c.AddFile(newName, &newBuf); err != nil {
		return fmt.Errorf("collect %s samples: %w", newName, err)
	}

	// benchstat labels a two-way table "old" and "new"; swap in the
	// backend labels.
	var buf bytes.Buffer
	benchstat.FormatText(&buf, c.Tables())

	out := buf.Bytes()
	out = bytes.Replace(out, []byte("old time"), []byte(oldName+" time"), 1)
	out = bytes.Replace(out, []byte("new time"), []byte(newName+" time"), 1)

	_, err := w.Write(out)

	return err
}

// CompareFiles runs the same significance comparison over two sample
// files written by earlier benchmark runs.
func CompareFiles(w io.Writer, oldPath, newPath string) error {
	c := newCollection()

	for _, path := range []string{oldPath, newPath} {
		f, err := os.Open(path)
		if err != nil {
			return err
		}

		if err := c.AddFile(path, f); err != nil {
			f.Close()

			return fmt.Errorf("collect samples from %s: %w", path, err)
		}

		f.Close()
	}

	benchstat.FormatText(w, c.Tables())

	return nil
}
