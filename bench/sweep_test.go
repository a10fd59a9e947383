package bench

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/weiihann/fsbench/harness"
	"github.com/weiihann/fsbench/workload"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func noDrop(context.Context) error { return nil }

// writeStubClient creates an executable shell script standing in for
// the real workload client.
func writeStubClient(t *testing.T, script string) string {
	t.Helper()

	if runtime.GOOS == "windows" {
		t.Skip("stub clients need /bin/sh")
	}

	path := filepath.Join(t.TempDir(), "ycsbcli")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+script), 0o755); err != nil {
		t.Fatalf("write stub client: %v", err)
	}

	return path
}

func testSuite(client string, workloads []string, sizes []int) workload.Suite {
	return workload.Suite{
		Workloads:  workloads,
		ValueSizes: sizes,
		Iterations: 5,
		TraceDir:   "ycsb-traces",
		Client:     client,
	}
}

func TestSweepMeanThroughput(t *testing.T) {
	// The stub drops a file into the db dir so cleanup has something to
	// remove, then reports 100 requests in 50000 us: 2.0 kops/sec.
	client := writeStubClient(t, `echo data > "$6/db.dat"
echo "Finished 100 requests"
echo "Time elapsed: 50000.0 us"
`)

	dbDir := t.TempDir()
	sweep := &Sweep{
		Suite:      testSuite(client, []string{"a"}, []int{10}),
		DBDir:      dbDir,
		Logger:     testLogger(),
		DropCaches: noDrop,
	}

	res := NewResults()
	samples, err := sweep.Run(context.Background(), Baseline("ext4"), res)
	if err != nil {
		t.Fatalf("sweep failed: %v", err)
	}

	got, ok := res.Lookup(10, "a", "ext4")
	if !ok {
		t.Fatal("cell not recorded")
	}
	if got != 2.0 {
		t.Errorf("mean throughput = %v, want exactly 2.0", got)
	}

	if len(samples) != 5 {
		t.Fatalf("samples = %d, want one per iteration", len(samples))
	}
	for _, s := range samples {
		if s.Workload != "a" || s.ValueSize != 10 {
			t.Errorf("sample labelled %s/%d, want a/10", s.Workload, s.ValueSize)
		}
		if s.Requests != 100 || s.ElapsedUS != 50000.0 {
			t.Errorf("sample = %+v, want 100 requests over 50000 us", s)
		}
	}

	entries, err := os.ReadDir(dbDir)
	if err != nil {
		t.Fatalf("read db dir: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("db dir not cleaned, %d entries left", len(entries))
	}
}

func TestSweepMeanAveragesIterations(t *testing.T) {
	// The first timed run reports 2.0 kops/sec, the second 4.0; the
	// recorded cell must hold the unweighted mean.
	counter := filepath.Join(t.TempDir(), "runs")
	client := writeStubClient(t, fmt.Sprintf(`case "$2" in
*-load.txt)
  echo "Finished 1 requests"
  echo "Time elapsed: 1.0 us"
  ;;
*)
  count=$(cat %[1]q 2>/dev/null || echo 0)
  count=$((count+1))
  echo "$count" > %[1]q
  if [ "$count" -eq 1 ]; then
    echo "Finished 100 requests"
    echo "Time elapsed: 50000.0 us"
  else
    echo "Finished 100 requests"
    echo "Time elapsed: 25000.0 us"
  fi
  ;;
esac
`, counter))

	suite := testSuite(client, []string{"a"}, []int{10})
	suite.Iterations = 2

	sweep := &Sweep{
		Suite:      suite,
		DBDir:      t.TempDir(),
		Logger:     testLogger(),
		DropCaches: noDrop,
	}

	res := NewResults()
	if _, err := sweep.Run(context.Background(), Baseline("ext4"), res); err != nil {
		t.Fatalf("sweep failed: %v", err)
	}

	got, ok := res.Lookup(10, "a", "ext4")
	if !ok {
		t.Fatal("cell not recorded")
	}
	if got != 3.0 {
		t.Errorf("mean throughput = %v, want exactly 3.0", got)
	}
}

func TestSweepVisitsCellsInOrder(t *testing.T) {
	callLog := filepath.Join(t.TempDir(), "calls.log")
	client := writeStubClient(t, fmt.Sprintf(`echo "$2 $4" >> %q
echo "Finished 1 requests"
echo "Time elapsed: 1.0 us"
`, callLog))

	suite := testSuite(client, []string{"a", "b"}, []int{10, 100})
	suite.Iterations = 1

	sweep := &Sweep{
		Suite:      suite,
		DBDir:      t.TempDir(),
		Logger:     testLogger(),
		DropCaches: noDrop,
	}

	if _, err := sweep.Run(context.Background(), Baseline("ext4"), NewResults()); err != nil {
		t.Fatalf("sweep failed: %v", err)
	}

	data, err := os.ReadFile(callLog)
	if err != nil {
		t.Fatalf("read call log: %v", err)
	}

	want := []string{
		"ycsb-traces/a-load.txt 10",
		"ycsb-traces/a-run.txt 10",
		"ycsb-traces/a-load.txt 100",
		"ycsb-traces/a-run.txt 100",
		"ycsb-traces/b-load.txt 10",
		"ycsb-traces/b-run.txt 10",
		"ycsb-traces/b-load.txt 100",
		"ycsb-traces/b-run.txt 100",
	}
	got := strings.Split(strings.TrimSpace(string(data)), "\n")

	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("trial order mismatch (-want +got):\n%s", diff)
	}
}

func TestSweepAbortsOnRunFailure(t *testing.T) {
	client := writeStubClient(t, `case "$2" in
*-load.txt)
  echo "Finished 10 requests"
  echo "Time elapsed: 100.0 us"
  ;;
*)
  echo "run blew up" >&2
  exit 1
  ;;
esac
`)

	sweep := &Sweep{
		Suite:      testSuite(client, []string{"a", "b"}, []int{10}),
		DBDir:      t.TempDir(),
		Logger:     testLogger(),
		DropCaches: noDrop,
	}

	res := NewResults()
	_, err := sweep.Run(context.Background(), Baseline("ext4"), res)
	if err == nil {
		t.Fatal("expected sweep to abort on run failure")
	}

	var procErr *harness.ProcessError
	if !errors.As(err, &procErr) {
		t.Fatalf("error = %v, want *harness.ProcessError in chain", err)
	}
	if procErr.ExitCode != 1 {
		t.Errorf("exit code = %d, want 1", procErr.ExitCode)
	}

	if got := len(res.Sizes()); got != 0 {
		t.Errorf("results recorded despite failure: %v", res.Sizes())
	}
}

func TestSweepAbortsOnLoadFailure(t *testing.T) {
	client := writeStubClient(t, `exit 7
`)

	sweep := &Sweep{
		Suite:      testSuite(client, []string{"a"}, []int{10}),
		DBDir:      t.TempDir(),
		Logger:     testLogger(),
		DropCaches: noDrop,
	}

	_, err := sweep.Run(context.Background(), Baseline("ext4"), NewResults())
	if err == nil {
		t.Fatal("expected sweep to abort on load failure")
	}

	var procErr *harness.ProcessError
	if !errors.As(err, &procErr) {
		t.Fatalf("error = %v, want *harness.ProcessError in chain", err)
	}
	if procErr.ExitCode != 7 {
		t.Errorf("exit code = %d, want 7", procErr.ExitCode)
	}
}

func TestSweepAbortsOnMalformedLoadOutput(t *testing.T) {
	// The load summary is discarded, but it still has to parse.
	client := writeStubClient(t, `echo "loaded ok"
`)

	sweep := &Sweep{
		Suite:      testSuite(client, []string{"a"}, []int{10}),
		DBDir:      t.TempDir(),
		Logger:     testLogger(),
		DropCaches: noDrop,
	}

	_, err := sweep.Run(context.Background(), Baseline("ext4"), NewResults())
	if err == nil {
		t.Fatal("expected sweep to abort on malformed load output")
	}

	var parseErr *harness.ParseError
	if !errors.As(err, &parseErr) {
		t.Errorf("error = %v, want *harness.ParseError in chain", err)
	}
}

func TestSweepCacheDropFailureIsAdvisory(t *testing.T) {
	client := writeStubClient(t, `echo "Finished 10 requests"
echo "Time elapsed: 1000.0 us"
`)

	var logBuf strings.Builder
	logger := slog.New(slog.NewTextHandler(&logBuf, nil))

	sweep := &Sweep{
		Suite:  testSuite(client, []string{"a"}, []int{10}),
		DBDir:  t.TempDir(),
		Logger: logger,
		DropCaches: func(context.Context) error {
			return fmt.Errorf("sudo: command not found")
		},
	}

	res := NewResults()
	if _, err := sweep.Run(context.Background(), Baseline("ext4"), res); err != nil {
		t.Fatalf("sweep failed: %v", err)
	}

	if _, ok := res.Lookup(10, "a", "ext4"); !ok {
		t.Error("cell not recorded despite advisory drop failure")
	}
	if !strings.Contains(logBuf.String(), "page cache drop failed") {
		t.Error("expected a warning for the failed cache drop")
	}
}

func TestSweepArchivesRunLogs(t *testing.T) {
	client := writeStubClient(t, `echo "Finished 20 requests"
echo "Time elapsed: 10.0 us"
`)

	logDir := t.TempDir()
	sweep := &Sweep{
		Suite:      testSuite(client, []string{"a"}, []int{10}),
		DBDir:      t.TempDir(),
		LogDir:     logDir,
		Logger:     testLogger(),
		DropCaches: noDrop,
	}

	if _, err := sweep.Run(context.Background(), Baseline("ext4"), NewResults()); err != nil {
		t.Fatalf("sweep failed: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(logDir, "ext4", "a-run.log"))
	if err != nil {
		t.Fatalf("run log not written: %v", err)
	}
	if got := strings.Count(string(data), "Finished 20 requests"); got != 5 {
		t.Errorf("run log holds %d summaries, want 5", got)
	}

	if _, err := os.Stat(filepath.Join(logDir, "ext4", "a-load.log")); !os.IsNotExist(err) {
		t.Error("load phase must not be archived")
	}
}

func TestSweepClearsStaleRunLogs(t *testing.T) {
	client := writeStubClient(t, `echo "Finished 20 requests"
echo "Time elapsed: 10.0 us"
`)

	// Leftovers from an earlier sweep into the same log dir: an old
	// a-run.log that a fresh sweep must not append to, and a log for a
	// workload no longer in the suite.
	logDir := t.TempDir()
	staleDir := filepath.Join(logDir, "ext4")
	if err := os.MkdirAll(staleDir, 0o755); err != nil {
		t.Fatalf("create stale log dir: %v", err)
	}
	for _, name := range []string{"a-run.log", "z-run.log"} {
		path := filepath.Join(staleDir, name)
		if err := os.WriteFile(path, []byte("Finished 999 requests\n"), 0o644); err != nil {
			t.Fatalf("write stale log: %v", err)
		}
	}

	suite := testSuite(client, []string{"a"}, []int{10})
	suite.Iterations = 2

	sweep := &Sweep{
		Suite:      suite,
		DBDir:      t.TempDir(),
		LogDir:     logDir,
		Logger:     testLogger(),
		DropCaches: noDrop,
	}

	if _, err := sweep.Run(context.Background(), Baseline("ext4"), NewResults()); err != nil {
		t.Fatalf("sweep failed: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(logDir, "ext4", "a-run.log"))
	if err != nil {
		t.Fatalf("run log not written: %v", err)
	}
	if strings.Contains(string(data), "Finished 999 requests") {
		t.Error("stale log content survived the sweep")
	}
	if got := strings.Count(string(data), "Finished 20 requests"); got != 2 {
		t.Errorf("run log holds %d summaries, want one per iteration", got)
	}

	if _, err := os.Stat(filepath.Join(logDir, "ext4", "z-run.log")); !os.IsNotExist(err) {
		t.Error("log for a workload outside the suite survived the sweep")
	}
}

func TestCleanDir(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"000001.ldb", "MANIFEST", "LOG"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
			t.Fatalf("write file: %v", err)
		}
	}

	if err := cleanDir(dir); err != nil {
		t.Fatalf("cleanDir failed: %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("%d entries left after cleanup", len(entries))
	}
}

func TestCleanDirEmptyIsNoOp(t *testing.T) {
	dir := t.TempDir()

	if err := cleanDir(dir); err != nil {
		t.Fatalf("cleanDir on empty dir failed: %v", err)
	}
	if err := cleanDir(dir); err != nil {
		t.Fatalf("second cleanDir failed: %v", err)
	}
}

func TestCleanDirMissing(t *testing.T) {
	if err := cleanDir(filepath.Join(t.TempDir(), "gone")); err == nil {
		t.Error("expected error for missing directory")
	}
}
