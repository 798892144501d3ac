package deps

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// FreeSpace returns the bytes available to unprivileged users on the
// filesystem holding dir.
func FreeSpace(dir string) (uint64, error) {
	var st unix.Statfs_t
	if err := unix.Statfs(dir, &st); err != nil {
		return 0, fmt.Errorf("statfs %s: %w", dir, err)
	}
	return st.Bavail * uint64(st.Bsize), nil //nolint:gosec
}

// CheckFreeSpace reports whether dir has at least minBytes available.
func CheckFreeSpace(dir string, minBytes uint64) Status {
	status := Status{Requirement: Requirement{
		Name:        "Free space",
		Command:     dir,
		Description: "Scratch space for extracted and separated audio",
	}}
	free, err := FreeSpace(dir)
	if err != nil {
		status.Detail = err.Error()
		return status
	}
	status.Available = free >= minBytes
	status.Detail = fmt.Sprintf("%s available", FormatBytes(free))
	if !status.Available {
		status.Detail = fmt.Sprintf("%s available, %s required", FormatBytes(free), FormatBytes(minBytes))
	}
	return status
}

// FormatBytes renders a byte count with a binary unit.
func FormatBytes(n uint64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := uint64(unit), 0
	for v := n / unit; v >= unit; v /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
