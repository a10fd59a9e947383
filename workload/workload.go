// Package workload defines the YCSB parameter sweep: which workload
// mixes run, at which value sizes, how many timed iterations each cell
// gets, and where the client's trace files live.
package workload

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Phase selects which of a workload's trace files the client replays.
type Phase string

const (
	// PhaseLoad populates the target directory with initial data.
	PhaseLoad Phase = "load"
	// PhaseRun executes the workload's timed operation mix.
	PhaseRun Phase = "run"
)

// Standard YCSB core workload mixes, keyed by label.
var mixes = map[string]string{
	"a": "50/50 read/update",
	"b": "95/5 read/update",
	"c": "read only",
	"d": "read latest",
	"e": "short scans",
	"f": "read-modify-write",
}

// Mix describes the operation mix behind a workload label, or
// "custom" for labels outside the YCSB core set.
func Mix(label string) string {
	if m, ok := mixes[label]; ok {
		return m
	}

	return "custom"
}

// Suite describes one full parameter sweep.
type Suite struct {
	Workloads  []string `yaml:"workloads"`
	ValueSizes []int    `yaml:"value_sizes"`
	Iterations int      `yaml:"iterations"`
	TraceDir   string   `yaml:"trace_dir"`
	Client     string   `yaml:"client"`
}

// DefaultSuite returns the standard sweep: the six YCSB core workloads
// across five value sizes, five timed iterations per cell.
func DefaultSuite() Suite {
	return Suite{
		Workloads:  []string{"a", "b", "c", "d", "e", "f"},
		ValueSizes: []int{10, 100, 1000, 10000, 100000},
		Iterations: 5,
		TraceDir:   "ycsb-traces",
		Client:     "./ycsbcli",
	}
}

// LoadSuite reads a YAML suite file over the defaults, so a file only
// needs to name the fields it changes.
func LoadSuite(path string) (Suite, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Suite{}, fmt.Errorf("read suite file: %w", err)
	}

	s := DefaultSuite()
	if err := yaml.Unmarshal(data, &s); err != nil {
		return Suite{}, fmt.Errorf("parse suite file %s: %w", path, err)
	}

	return s, nil
}

// Validate checks that the suite can drive a run.
func (s Suite) Validate() error {
	if len(s.Workloads) == 0 {
		return fmt.Errorf("no workloads configured")
	}

	if len(s.ValueSizes) == 0 {
		return fmt.Errorf("no value sizes configured")
	}

	for _, v := range s.ValueSizes {
		if v <= 0 {
			return fmt.Errorf("value size must be positive, got %d", v)
		}
	}

	if s.Iterations <= 0 {
		return fmt.Errorf("iterations must be positive, got %d", s.Iterations)
	}

	if s.Client == "" {
		return fmt.Errorf("no client binary configured")
	}

	return nil
}

// TraceFile returns the trace the client replays for one workload
// phase, e.g. ycsb-traces/a-run.txt.
func (s Suite) TraceFile(workload string, phase Phase) string {
	return filepath.Join(s.TraceDir, fmt.Sprintf("%s-%s.txt", workload, phase))
}

// Cells returns the number of (workload, value size) cells in the sweep.
func (s Suite) Cells() int {
	return len(s.Workloads) * len(s.ValueSizes)
}
