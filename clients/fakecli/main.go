// Fakecli is a stand-in workload client for developing the harness
// without the real trace replayer. It speaks the same command line and
// prints the same summary: each key maps to one file under the
// database directory, INSERT and UPDATE write a fixed-size value, READ
// and SCAN read it back.
package main

import (
	"bufio"
	"bytes"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

func main() {
	traceFile := flag.String("f", "", "trace file to replay")
	valueSize := flag.Int("v", 100, "value size in bytes")
	dbDir := flag.String("d", "", "database directory")
	flag.Parse()

	if *traceFile == "" {
		fatal("-f flag is required")
	}
	if *dbDir == "" {
		fatal("-d flag is required")
	}

	f, err := os.Open(*traceFile)
	if err != nil {
		fatal("open trace: %v", err)
	}
	defer f.Close()

	value := bytes.Repeat([]byte("x"), *valueSize)

	start := time.Now()
	requests := 0

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 1<<20), 1<<20)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		// YCSB dump lines: an operation, a key, and for SCAN a count
		// that a file-per-key store has no use for.
		fields := strings.Fields(line)
		if len(fields) < 2 {
			fatal("malformed trace line: %q", line)
		}

		op, key := fields[0], fields[1]
		path := filepath.Join(*dbDir, key)

		switch op {
		case "INSERT", "UPDATE":
			if err := os.WriteFile(path, value, 0o644); err != nil {
				fatal("write %s: %v", key, err)
			}

		case "READ", "SCAN":
			if _, err := os.ReadFile(path); err != nil {
				fatal("read %s: %v", key, err)
			}

		case "READMODIFYWRITE":
			if _, err := os.ReadFile(path); err != nil {
				fatal("read %s: %v", key, err)
			}
			if err := os.WriteFile(path, value, 0o644); err != nil {
				fatal("write %s: %v", key, err)
			}

		default:
			fatal("unknown operation: %s", op)
		}

		requests++
	}

	if err := scanner.Err(); err != nil {
		fatal("read trace: %v", err)
	}

	elapsed := float64(time.Since(start).Nanoseconds()) / 1000

	fmt.Printf("Finished %d requests\n", requests)
	fmt.Printf("Time elapsed: %.2f us\n", elapsed)
}

func fatal(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "fakecli: "+format+"\n", args...)
	os.Exit(1)
}
