package build

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// IsMounted reports whether the block device or any of its partitions
// appears in the mount table.
func IsMounted(device string) (bool, error) {
	content, err := os.ReadFile("/proc/mounts")
	if os.IsNotExist(err) {
		// No mount table to consult (non-Linux); the partitioner's own
		// checks are the backstop.
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read mount table: %w", err)
	}

	for _, line := range strings.Split(string(content), "\n") {
		fields := strings.Fields(line)
		if len(fields) < 1 {
			continue
		}
		if fields[0] == device || strings.HasPrefix(fields[0], device) {
			return true, nil
		}
	}
	return false, nil
}

// DescribeDevice returns a human-readable identity and partition listing
// for the device, for display before the destructive confirmation.
func DescribeDevice(ctx context.Context, device string) (string, error) {
	cmd := exec.CommandContext(ctx, "lsblk", "--output", "NAME,SIZE,TYPE,FSTYPE,MOUNTPOINTS", device)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("failed to inspect %s: %s", device, strings.TrimSpace(string(out)))
	}
	return string(out), nil
}

// SecureErase issues a best-effort discard of the whole device. Failure
// is reported but non-fatal; not every device supports discard.
func SecureErase(ctx context.Context, device string) error {
	cmd := exec.CommandContext(ctx, "blkdiscard", "--force", device)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("discard of %s failed: %s", device, strings.TrimSpace(string(out)))
	}
	return nil
}

// WipeSignatures removes partition-table and filesystem signatures.
// Once this runs the device is mutated; the caller's partial-state
// tracking starts here.
func WipeSignatures(ctx context.Context, device string) error {
	cmd := exec.CommandContext(ctx, "wipefs", "--all", device)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("wipefs %s: %s", device, strings.TrimSpace(string(out)))
	}
	return nil
}
