//go:build unix

package fs

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// DiskUsage returns the space available at path, creating the directory first if needed.
func DiskUsage(path string) (*DiskStatus, error) {
	if err := os.MkdirAll(path, 0o755); err != nil {
		return nil, fmt.Errorf("creating directory %s: %w", path, err)
	}

	var stat unix.Statfs_t
	if err := unix.Statfs(path, &stat); err != nil {
		return nil, fmt.Errorf("checking disk space: %w", err)
	}

	return &DiskStatus{
		Path:           path,
		AvailableBytes: uint64(stat.Bavail) * uint64(stat.Bsize),
		TotalBytes:     uint64(stat.Blocks) * uint64(stat.Bsize),
	}, nil
}
