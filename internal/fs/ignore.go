package fs

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// IgnoreFileName is the per-library ignore file read from the scan root.
const IgnoreFileName = ".tidyignore"

// defaultIgnorePatterns skip platform metadata that often carries image extensions.
var defaultIgnorePatterns = []string{
	IgnoreFileName,
	".DS_Store",
	"._*",
	"@eaDir",
	".thumbnails",
}

type ignorePattern struct {
	glob     string
	anchored bool // glob contains '/', so it is matched against the whole relative path
}

// IgnoreMatcher decides whether a path below the scan root is skipped.
// A pattern with '/' is matched against the slash-separated relative path,
// anything else against the last path element.
type IgnoreMatcher struct {
	patterns []ignorePattern
}

// NewIgnoreMatcher parses raw patterns. Blank lines and '#' comments are dropped,
// as are patterns that filepath.Match would reject.
func NewIgnoreMatcher(raw []string) *IgnoreMatcher {
	m := &IgnoreMatcher{}
	for _, line := range raw {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		line = strings.TrimSuffix(strings.TrimPrefix(line, "/"), "/")
		if _, err := path.Match(line, ""); err != nil {
			continue
		}
		m.patterns = append(m.patterns, ignorePattern{
			glob:     line,
			anchored: strings.Contains(line, "/"),
		})
	}
	return m
}

// Match reports whether relativePath (OS separators, relative to the scan root) is ignored.
func (m *IgnoreMatcher) Match(relativePath string) bool {
	if relativePath == "" {
		return false
	}
	slashed := filepath.ToSlash(relativePath)
	base := path.Base(slashed)

	for _, p := range m.patterns {
		subject := base
		if p.anchored {
			subject = slashed
		}
		if ok, _ := path.Match(p.glob, subject); ok {
			return true
		}
	}
	return false
}

// ParseIgnoreFile returns the lines of an ignore file, or nil when it does not exist.
func ParseIgnoreFile(name string) ([]string, error) {
	f, err := os.Open(name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening ignore file: %w", err)
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading ignore file: %w", err)
	}
	return lines, nil
}
