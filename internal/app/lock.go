package app

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// LockFileName is the lock file created under the data dir.
const LockFileName = "phototidy.lock"

// ErrLocked is returned when another process holds the data-dir lock.
var ErrLocked = errors.New("another phototidy process holds the lock")

// DataLock is an exclusive advisory lock on the data dir. Mutating commands
// hold it for their whole run.
type DataLock struct {
	lock *flock.Flock
}

// AcquireLock takes the lock without waiting.
func AcquireLock(dataDir string) (*DataLock, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	l := flock.New(filepath.Join(dataDir, LockFileName))
	ok, err := l.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return nil, ErrLocked
	}
	return &DataLock{lock: l}, nil
}

// Path returns the lock file location.
func (d *DataLock) Path() string {
	return d.lock.Path()
}

// Release unlocks. The lock file itself stays in place.
func (d *DataLock) Release() error {
	if err := d.lock.Unlock(); err != nil {
		return fmt.Errorf("release lock: %w", err)
	}
	return nil
}
