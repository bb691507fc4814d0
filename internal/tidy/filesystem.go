package tidy

import "io/fs"

// FileManager abstracts the filesystem operations the pipeline performs.
type FileManager interface {
	// FindFiles returns regular files under root whose lowercased extension is in exts.
	// Symlinks are not followed. A missing root yields no files and no error.
	// found is invoked after each discovered file, before sorting.
	FindFiles(root string, exts map[string]bool, found func(path string, count int)) ([]string, error)

	// Stat returns file info without following a final symlink.
	Stat(path string) (fs.FileInfo, error)

	// Exists reports whether anything exists at path.
	Exists(path string) bool

	// MkdirAll creates a directory and any missing parents.
	MkdirAll(path string) error

	// Copy copies src to dst. dst must not exist.
	Copy(src, dst string) error

	// Move renames src to dst, falling back to copy and delete across devices.
	Move(src, dst string) error

	// WriteJSON atomically writes v as indented JSON, creating parent directories.
	WriteJSON(path string, v any) error
}

// Digest holds both content hashes of a file.
type Digest struct {
	Legacy string
	Strong string
}

// Hasher computes file digests.
type Hasher interface {
	HashFile(path string) (Digest, error)
}

// Metadata is embedded capture information. Every field is optional.
type Metadata struct {
	CapturedAt string
	Make       string
	Model      string
	Artist     string
}

// MetadataReader extracts embedded metadata. Absence of metadata is not an error,
// so implementations return a zero Metadata rather than failing.
type MetadataReader interface {
	ReadMetadata(path string) Metadata
}

// TaskRunner runs independent tasks with bounded concurrency and waits for all of them.
type TaskRunner interface {
	Run(n int, task func(i int)) error
}
