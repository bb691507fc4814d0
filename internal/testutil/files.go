package testutil

import (
	"crypto/md5"
	"encoding/hex"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"phototidy/internal/tidy"
)

// WriteFile creates path (and its parents) with content and sets its mtime.
func WriteFile(t *testing.T, path, content string, mtime time.Time) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	if err := os.Chtimes(path, mtime, mtime); err != nil {
		t.Fatalf("chtimes %s: %v", path, err)
	}
}

// ReadFile returns the content of path, failing the test if it cannot be read.
func ReadFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return string(data)
}

// FileExists reports whether anything exists at path.
func FileExists(path string) bool {
	_, err := os.Lstat(path)
	return err == nil
}

// MD5Hex returns the hex md5 of s, the legacy digest stored in the inventory.
func MD5Hex(s string) string {
	sum := md5.Sum([]byte(s))
	return hex.EncodeToString(sum[:])
}

// SequentialRunner runs tasks one after another on the calling goroutine.
type SequentialRunner struct{}

func (SequentialRunner) Run(n int, task func(i int)) error {
	for i := 0; i < n; i++ {
		task(i)
	}
	return nil
}

// StubMetadata returns fixed metadata per file base name. Unknown files have none.
type StubMetadata map[string]tidy.Metadata

func (m StubMetadata) ReadMetadata(path string) tidy.Metadata {
	return m[filepath.Base(path)]
}

// CountingHasher wraps a Hasher and records how many files it hashed.
type CountingHasher struct {
	Hasher tidy.Hasher

	mu    sync.Mutex
	calls int
}

func (h *CountingHasher) HashFile(path string) (tidy.Digest, error) {
	h.mu.Lock()
	h.calls++
	h.mu.Unlock()
	return h.Hasher.HashFile(path)
}

// Calls returns the number of HashFile invocations.
func (h *CountingHasher) Calls() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.calls
}
