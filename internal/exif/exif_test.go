package exif

import (
	"os"
	"path/filepath"
	"testing"

	"phototidy/internal/tidy"
)

func TestNormalizeTimestamp(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"2021:07:04 18:30:05", "2021-07-04_18-30-05"},
		{"2021:07:04 18:30:05\x00", "2021-07-04_18-30-05"},
		{"  2021:07:04 18:30:05 ", "2021-07-04_18-30-05"},
		{"0000:00:00 00:00:00", ""},
		{"2021-07-04T18:30:05Z", ""},
		{"", ""},
	}
	for _, tt := range tests {
		if got := normalizeTimestamp(tt.raw); got != tt.want {
			t.Errorf("normalizeTimestamp(%q) = %q, want %q", tt.raw, got, tt.want)
		}
	}
}

func TestClean(t *testing.T) {
	if got := clean("\x00 Canon \x00\x00"); got != "Canon" {
		t.Errorf("clean() = %q, want %q", got, "Canon")
	}
}

func TestReader_NoExif(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "plain.jpg")
	if err := os.WriteFile(path, []byte("not really a jpeg"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	logger := &debugRecorder{}
	r := NewReader(logger)
	if md := r.ReadMetadata(path); md.CapturedAt != "" || md.Make != "" || md.Model != "" || md.Artist != "" {
		t.Errorf("ReadMetadata() = %+v, want zero value", md)
	}
	if md := r.ReadMetadata(filepath.Join(dir, "absent.jpg")); md.CapturedAt != "" {
		t.Errorf("ReadMetadata(missing) = %+v, want zero value", md)
	}

	if len(logger.messages) != 2 {
		t.Fatalf("debug messages = %v, want one per unreadable file", logger.messages)
	}
	for _, m := range logger.messages {
		if m != "no EXIF metadata" {
			t.Errorf("debug message = %q", m)
		}
	}
}

func TestReader_ReadsTags(t *testing.T) {
	logger := &debugRecorder{}
	md := NewReader(logger).ReadMetadata(filepath.Join("testdata", "exif.jpg"))

	want := tidy.Metadata{
		CapturedAt: "2021-07-04_18-30-05",
		Make:       "Canon",
		Model:      "EOS 5D",
		Artist:     "Jane Roe",
	}
	if md != want {
		t.Errorf("ReadMetadata() = %+v, want %+v", md, want)
	}
	if len(logger.messages) != 0 {
		t.Errorf("unexpected debug messages: %v", logger.messages)
	}
}

func TestNewReader_NilLogger(t *testing.T) {
	r := NewReader(nil)
	if md := r.ReadMetadata(filepath.Join(t.TempDir(), "absent.jpg")); md.Make != "" {
		t.Errorf("ReadMetadata() = %+v", md)
	}
}

type debugRecorder struct {
	tidy.NopLogger
	messages []string
}

func (l *debugRecorder) Debug(msg string, _ ...any) {
	l.messages = append(l.messages, msg)
}
