// Package hash computes the content digests used for duplicate detection.
package hash

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"io"
	"os"

	"github.com/zeebo/blake3"

	"phototidy/internal/tidy"
)

const chunkSize = 64 * 1024

// FileHasher reads a file once and feeds both md5 and blake3.
type FileHasher struct{}

func NewFileHasher() *FileHasher {
	return &FileHasher{}
}

// HashFile returns the lowercase hex md5 (Legacy) and blake3 (Strong) digests of path.
func (h *FileHasher) HashFile(path string) (tidy.Digest, error) {
	f, err := os.Open(path)
	if err != nil {
		return tidy.Digest{}, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	legacy := md5.New()
	strong := blake3.New()
	w := io.MultiWriter(legacy, strong)

	buf := make([]byte, chunkSize)
	if _, err := io.CopyBuffer(w, f, buf); err != nil {
		return tidy.Digest{}, fmt.Errorf("reading %s: %w", path, err)
	}

	return tidy.Digest{
		Legacy: hex.EncodeToString(legacy.Sum(nil)),
		Strong: hex.EncodeToString(strong.Sum(nil)),
	}, nil
}

// Compile-time check that FileHasher implements tidy.Hasher interface
var _ tidy.Hasher = (*FileHasher)(nil)
