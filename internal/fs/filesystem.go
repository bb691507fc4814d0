package fs

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"phototidy/internal/tidy"
)

// OSFileManager is the real filesystem implementation of tidy.FileManager.
type OSFileManager struct {
	ignore *IgnoreMatcher
}

// NewOSFileManager creates a file manager that skips paths matching ignorePatterns
// in addition to the default patterns.
func NewOSFileManager(ignorePatterns []string) *OSFileManager {
	patterns := append(append([]string(nil), defaultIgnorePatterns...), ignorePatterns...)
	return &OSFileManager{ignore: NewIgnoreMatcher(patterns)}
}

// FindFiles walks root and returns the sorted paths of regular files whose
// extension (lowercased) is in exts. Unreadable entries are skipped.
func (m *OSFileManager) FindFiles(root string, exts map[string]bool, found func(path string, count int)) ([]string, error) {
	if _, err := os.Lstat(root); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("stat scan root: %w", err)
	}

	var files []string
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		rel, relErr := filepath.Rel(root, p)
		if relErr != nil || rel == "." {
			return nil
		}
		if d.IsDir() {
			if m.ignore.Match(rel) {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() || m.ignore.Match(rel) {
			return nil
		}
		if !exts[strings.ToLower(filepath.Ext(p))] {
			return nil
		}
		files = append(files, p)
		if found != nil {
			found(p, len(files))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking directory: %w", err)
	}

	sort.Strings(files)
	return files, nil
}

// Stat returns file info without following a final symlink.
func (m *OSFileManager) Stat(path string) (fs.FileInfo, error) {
	return os.Lstat(path)
}

func (m *OSFileManager) Exists(path string) bool {
	_, err := os.Lstat(path)
	return err == nil
}

func (m *OSFileManager) MkdirAll(path string) error {
	if err := os.MkdirAll(path, 0o755); err != nil {
		return fmt.Errorf("creating directory %s: %w", path, err)
	}
	return nil
}

// Copy streams src into a new file at dst with the same permission bits.
// dst must not exist. A partially written dst is removed on failure.
func (m *OSFileManager) Copy(src, dst string) error {
	return copyFile(src, dst)
}

// Move renames src to dst. When the rename crosses filesystems it falls back
// to copy, sync and remove where the platform reports that condition.
func (m *OSFileManager) Move(src, dst string) error {
	err := os.Rename(src, dst)
	if err == nil {
		return nil
	}
	if !isCrossDevice(err) {
		return fmt.Errorf("renaming %s: %w", src, err)
	}

	if err := copyFile(src, dst); err != nil {
		return err
	}
	if err := os.Remove(src); err != nil {
		return fmt.Errorf("removing %s after copy: %w", src, err)
	}
	return nil
}

// WriteJSON writes v as indented JSON via a temp file in the destination
// directory followed by a rename.
func (m *OSFileManager) WriteJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding %s: %w", path, err)
	}
	data = append(data, '\n')

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating directory %s: %w", dir, err)
	}
	return writeFileAtomic(path, data)
}

func writeFileAtomic(path string, data []byte) error {
	return WriteFileAtomic(path, func(w io.Writer) error {
		_, err := w.Write(data)
		return err
	})
}

// WriteFileAtomic streams write into a temp file next to path, syncs it and
// renames it over path. On any failure path is left untouched.
func WriteFileAtomic(path string, write func(w io.Writer) error) error {
	tmpFile, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	success := false
	defer func() {
		if !success {
			os.Remove(tmpPath)
		}
	}()

	if err := write(tmpFile); err != nil {
		tmpFile.Close()
		return fmt.Errorf("failed to write data: %w", err)
	}
	if err := tmpFile.Sync(); err != nil {
		tmpFile.Close()
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	success = true
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("opening %s: %w", src, err)
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return fmt.Errorf("stat %s: %w", src, err)
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("not a regular file: %s", src)
	}

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, info.Mode().Perm())
	if err != nil {
		return fmt.Errorf("creating %s: %w", dst, err)
	}

	success := false
	defer func() {
		if !success {
			os.Remove(dst)
		}
	}()

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("copying %s: %w", src, err)
	}
	if err := out.Sync(); err != nil {
		out.Close()
		return fmt.Errorf("syncing %s: %w", dst, err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", dst, err)
	}

	success = true
	return nil
}

// Compile-time check that OSFileManager implements tidy.FileManager interface
var _ tidy.FileManager = (*OSFileManager)(nil)
