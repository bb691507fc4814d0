package app

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestTidyHandler_Handle(t *testing.T) {
	ts := time.Date(2024, 6, 15, 14, 30, 45, 0, time.UTC)

	tests := []struct {
		name    string
		runID   string
		level   slog.Level
		message string
		attrs   []slog.Attr
		want    string
	}{
		{
			name:    "basic info message",
			runID:   "3f2a9c1d",
			level:   slog.LevelInfo,
			message: "scan complete",
			want:    "2024-06-15T14:30:45Z\tINFO\t3f2a9c1d\tscan complete\n",
		},
		{
			name:    "warn level",
			runID:   "3f2a9c1d",
			level:   slog.LevelWarn,
			message: "hash failed",
			want:    "2024-06-15T14:30:45Z\tWARN\t3f2a9c1d\thash failed\n",
		},
		{
			name:    "with record attrs",
			runID:   "77aa0b12",
			level:   slog.LevelInfo,
			message: "moved",
			attrs:   []slog.Attr{slog.String("origin", "/pics/a.jpg"), slog.Int("entry", 4)},
			want:    "2024-06-15T14:30:45Z\tINFO\t77aa0b12\tmoved\torigin=/pics/a.jpg\tentry=4\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			h := newTidyHandler(&buf, tt.runID, nil)

			r := slog.NewRecord(ts, tt.level, tt.message, 0)
			for _, a := range tt.attrs {
				r.AddAttrs(a)
			}

			if err := h.Handle(context.Background(), r); err != nil {
				t.Fatalf("Handle() error = %v", err)
			}

			if got := buf.String(); got != tt.want {
				t.Errorf("Handle() output =\n%q\nwant:\n%q", got, tt.want)
			}
		})
	}
}

func TestTidyHandler_WithAttrs(t *testing.T) {
	var buf bytes.Buffer
	h := newTidyHandler(&buf, "run-1", nil)

	h2 := h.WithAttrs([]slog.Attr{slog.String("stage", "execute")}).(*tidyHandler)

	ts := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	r := slog.NewRecord(ts, slog.LevelInfo, "copied", 0)
	r.AddAttrs(slog.String("target", "abc"))

	if err := h2.Handle(context.Background(), r); err != nil {
		t.Fatalf("Handle() error = %v", err)
	}

	got := buf.String()
	if !strings.Contains(got, "stage=execute") {
		t.Errorf("expected pre-set attr stage=execute, got: %q", got)
	}
	if !strings.Contains(got, "target=abc") {
		t.Errorf("expected record attr target=abc, got: %q", got)
	}
	if strings.Index(got, "stage=") > strings.Index(got, "target=") {
		t.Errorf("pre-set attrs should precede record attrs: %q", got)
	}
}

func TestTidyHandler_WithAttrs_doesNotMutateOriginal(t *testing.T) {
	h := newTidyHandler(&bytes.Buffer{}, "run-1", nil)
	h.attrs = []slog.Attr{slog.String("a", "1")}

	h2 := h.WithAttrs([]slog.Attr{slog.String("b", "2")}).(*tidyHandler)

	if len(h.attrs) != 1 {
		t.Errorf("original handler attrs modified: got %d, want 1", len(h.attrs))
	}
	if len(h2.attrs) != 2 {
		t.Errorf("new handler attrs: got %d, want 2", len(h2.attrs))
	}
	if h.mu != h2.mu {
		t.Error("derived handler should share the write lock")
	}
}

func TestTidyHandler_Enabled(t *testing.T) {
	ctx := context.Background()

	all := newTidyHandler(nil, "", nil)
	for _, level := range []slog.Level{slog.LevelDebug, slog.LevelInfo, slog.LevelWarn, slog.LevelError} {
		if !all.Enabled(ctx, level) {
			t.Errorf("Enabled(%v) = false with no level set", level)
		}
	}

	info := newTidyHandler(nil, "", slog.LevelInfo)
	if info.Enabled(ctx, slog.LevelDebug) {
		t.Error("Enabled(DEBUG) = true at INFO level")
	}
	if !info.Enabled(ctx, slog.LevelWarn) {
		t.Error("Enabled(WARN) = false at INFO level")
	}
}

func TestNewLogger(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "log")

	logger, f, err := newLogger(dir, "test-run", false)
	if err != nil {
		t.Fatalf("newLogger() error = %v", err)
	}
	defer f.Close()

	logger.Info("hello", "n", 1)
	logger.Debug("hidden")

	data, err := os.ReadFile(filepath.Join(dir, LogFileName))
	if err != nil {
		t.Fatalf("reading log file: %v", err)
	}
	got := string(data)
	if !strings.Contains(got, "\ttest-run\thello\tn=1\n") {
		t.Errorf("log file missing record: %q", got)
	}
	if strings.Contains(got, "hidden") {
		t.Errorf("debug record written without verbose: %q", got)
	}
}
