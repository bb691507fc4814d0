//go:build !unix

package fs

import (
	"errors"
	"os"
)

// DiskUsage is not implemented off unix. The directory is still created.
func DiskUsage(path string) (*DiskStatus, error) {
	if err := os.MkdirAll(path, 0o755); err != nil {
		return nil, err
	}
	return nil, errors.New("disk usage is not supported on this platform")
}
