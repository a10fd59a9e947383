package harness

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
)

const dropCachesPath = "/proc/sys/vm/drop_caches"

// DropCaches asks the kernel to drop the page cache so the next timed
// trial starts cold. Writing the sysctl needs root, hence sudo tee.
// Callers treat failure as advisory: the run continues on a warm cache.
func DropCaches(ctx context.Context) error {
	cmd := exec.CommandContext(ctx, "sudo", "tee", dropCachesPath)
	cmd.Stdin = strings.NewReader("3")

	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("drop caches: %w (output: %s)",
			err, strings.TrimSpace(string(out)))
	}

	return nil
}
