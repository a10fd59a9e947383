// Package main provides the CLI entry point for fsbench, a filesystem
// benchmarking tool that replays YCSB traces with and without an
// LD_PRELOAD storage library and compares throughput.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/weiihann/fsbench/bench"
	"github.com/weiihann/fsbench/report"
	"github.com/weiihann/fsbench/workload"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	root := newRootCmd(logger)
	if err := root.Execute(); err != nil {
		logger.Error("fsbench failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func newRootCmd(logger *slog.Logger) *cobra.Command {
	root := &cobra.Command{
		Use:   "fsbench",
		Short: "Filesystem benchmarking tool for LD_PRELOAD storage libraries",
		Long: `Fsbench replays YCSB key-value traces through a workload client twice,
once against the plain filesystem and once with a storage library interposed
through LD_PRELOAD, and reports per-workload throughput side by side.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(newRunCmd(logger))
	root.AddCommand(newStatCmd())

	return root
}

func newRunCmd(logger *slog.Logger) *cobra.Command {
	var (
		configPath    string
		client        string
		traceDir      string
		workloads     []string
		valueSizes    []int
		iterations    int
		baselineLabel string
		preloadLabel  string
		logDir        string
		jsonPath      string
		showBenchstat bool
	)

	cmd := &cobra.Command{
		Use:   "run <db-dir> <preload-library>",
		Short: "Benchmark the filesystem with and without the preloaded library",
		Long: `Replay the suite's YCSB traces against files in <db-dir>, once on the
plain filesystem and once with <preload-library> interposed through
LD_PRELOAD, and print one throughput table per value size.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			suite := workload.DefaultSuite()

			if configPath != "" {
				var err error

				suite, err = workload.LoadSuite(configPath)
				if err != nil {
					return err
				}
			}

			// Explicit flags win over both defaults and the config file.
			flags := cmd.Flags()
			if flags.Changed("workloads") {
				suite.Workloads = workloads
			}
			if flags.Changed("value-sizes") {
				suite.ValueSizes = valueSizes
			}
			if flags.Changed("iterations") {
				suite.Iterations = iterations
			}
			if flags.Changed("trace-dir") {
				suite.TraceDir = traceDir
			}
			if flags.Changed("client") {
				suite.Client = client
			}

			if err := suite.Validate(); err != nil {
				return err
			}

			return runBenchmark(cmd.Context(), logger, runConfig{
				suite:         suite,
				dbDir:         args[0],
				library:       args[1],
				baselineLabel: baselineLabel,
				preloadLabel:  preloadLabel,
				logDir:        logDir,
				jsonPath:      jsonPath,
				benchstat:     showBenchstat,
			})
		},
	}

	def := workload.DefaultSuite()

	flags := cmd.Flags()
	flags.StringVar(&configPath, "config", "",
		"Path to a YAML suite file")
	flags.StringVar(&client, "client", def.Client,
		"Path to the workload client binary")
	flags.StringVar(&traceDir, "trace-dir", def.TraceDir,
		"Directory holding <workload>-<phase>.txt trace files")
	flags.StringSliceVar(&workloads, "workloads", def.Workloads,
		"Workloads to benchmark")
	flags.IntSliceVar(&valueSizes, "value-sizes", def.ValueSizes,
		"Value sizes in bytes")
	flags.IntVar(&iterations, "iterations", def.Iterations,
		"Timed runs per workload and value size")
	flags.StringVar(&baselineLabel, "baseline-label", "ext4",
		"Label for the baseline filesystem column")
	flags.StringVar(&preloadLabel, "preload-label", "",
		"Label for the preload column (default: derived from the library filename)")
	flags.StringVar(&logDir, "log-dir", "",
		"Directory for raw client output and sample files")
	flags.StringVar(&jsonPath, "json", "",
		"Write results as JSON to this file")
	flags.BoolVar(&showBenchstat, "benchstat", false,
		"Print a benchstat significance table after the report")

	return cmd
}

func newStatCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stat <old-samples> <new-samples>",
		Short: "Compare two sample files with benchstat",
		Long: `Compare the per-iteration sample files written by earlier runs and
report which throughput differences are statistically significant.`,
		Args: cobra.ExactArgs(2),
		RunE: func(_ *cobra.Command, args []string) error {
			return report.CompareFiles(os.Stdout, args[0], args[1])
		},
	}
}

type runConfig struct {
	suite         workload.Suite
	dbDir         string
	library       string
	baselineLabel string
	preloadLabel  string
	logDir        string
	jsonPath      string
	benchstat     bool
}

func runBenchmark(
	ctx context.Context,
	logger *slog.Logger,
	cfg runConfig,
) error {
	// Step 1: Check preconditions before running anything.
	info, err := os.Stat(cfg.dbDir)
	if err != nil {
		return fmt.Errorf("db dir: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("db dir %s is not a directory", cfg.dbDir)
	}

	if _, err := os.Stat(cfg.library); err != nil {
		return fmt.Errorf("preload library: %w", err)
	}

	if _, err := os.Stat(cfg.suite.Client); err != nil {
		return fmt.Errorf("workload client: %w", err)
	}

	preloadLabel := cfg.preloadLabel
	if preloadLabel == "" {
		preloadLabel = libraryLabel(cfg.library)
	}

	// Equal labels would make the preload pass overwrite the baseline
	// cells and collapse both report columns into one.
	if preloadLabel == cfg.baselineLabel {
		return fmt.Errorf(
			"preload label %q matches the baseline label, set --preload-label or --baseline-label to keep the passes apart",
			preloadLabel)
	}

	logger.InfoContext(ctx, "starting benchmark",
		slog.String("db_dir", cfg.dbDir),
		slog.String("library", cfg.library),
		slog.String("client", cfg.suite.Client),
		slog.Any("workloads", cfg.suite.Workloads),
		slog.Any("value_sizes", cfg.suite.ValueSizes),
		slog.Int("iterations", cfg.suite.Iterations),
	)

	// Step 2: Run the baseline pass, then the preload pass.
	driver := &bench.Driver{
		Sweep: &bench.Sweep{
			Suite:  cfg.suite,
			DBDir:  cfg.dbDir,
			LogDir: cfg.logDir,
			Logger: logger,
		},
		Baseline: bench.Baseline(cfg.baselineLabel),
		Preload:  bench.Preload(preloadLabel, cfg.library),
	}

	results, sets, err := driver.Run(ctx)
	if err != nil {
		return err
	}

	// Step 3: Archive raw samples next to the run logs.
	if cfg.logDir != "" {
		if err := writeSampleFiles(cfg.logDir, sets); err != nil {
			return err
		}
	}

	// Step 4: Render the comparison, preload column first.
	err = report.Generate(os.Stdout, results,
		[]string{preloadLabel, cfg.baselineLabel}, logger)
	if err != nil {
		return fmt.Errorf("generate report: %w", err)
	}

	if cfg.benchstat {
		fmt.Println()

		err := report.Compare(os.Stdout,
			sets[0].Backend, sets[0].Samples,
			sets[1].Backend, sets[1].Samples,
		)
		if err != nil {
			return fmt.Errorf("generate benchstat table: %w", err)
		}
	}

	if cfg.jsonPath != "" {
		if err := writeJSON(cfg.jsonPath, results); err != nil {
			return err
		}
	}

	logger.InfoContext(ctx, "benchmark complete")

	return nil
}

// libraryLabel derives a backend label from the preload library path,
// so /opt/libulayfs.so labels its column ulayfs.
func libraryLabel(path string) string {
	name := filepath.Base(path)
	name = strings.TrimSuffix(name, filepath.Ext(name))
	name = strings.TrimPrefix(name, "lib")

	if name == "" {
		return "preload"
	}

	return name
}

func writeSampleFiles(logDir string, sets []bench.SampleSet) error {
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		return fmt.Errorf("create log dir: %w", err)
	}

	for _, set := range sets {
		path := filepath.Join(logDir, set.Backend+".bench.txt")

		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("create sample file %s: %w", path, err)
		}

		if err := report.WriteSamples(f, set.Samples); err != nil {
			f.Close()

			return fmt.Errorf("write sample file %s: %w", path, err)
		}

		if err := f.Close(); err != nil {
			return fmt.Errorf("close sample file %s: %w", path, err)
		}
	}

	return nil
}

func writeJSON(path string, results *bench.Results) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create json file: %w", err)
	}

	if err := report.GenerateJSON(f, results); err != nil {
		f.Close()

		return fmt.Errorf("generate JSON report: %w", err)
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("close json file: %w", err)
	}

	return nil
}
