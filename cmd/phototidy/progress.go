package main

import (
	"io"
	"os"
	"sync"
	"time"

	"github.com/schollz/progressbar/v3"
	"golang.org/x/term"

	"phototidy/internal/tidy"
)

// barReporter draws one progress bar per stage. The hash stage reports from
// several workers, so every call goes through mu.
type barReporter struct {
	mu    sync.Mutex
	w     io.Writer
	stage string
	bar   *progressbar.ProgressBar
}

// newProgress returns a bar reporter when stderr is a terminal and output is
// not JSON, and nil otherwise.
func newProgress() tidy.ProgressReporter {
	if jsonOutput || !term.IsTerminal(int(os.Stderr.Fd())) {
		return nil
	}
	return &barReporter{w: os.Stderr}
}

func (r *barReporter) Report(stage string, processed, total int, current string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if stage != r.stage || r.bar == nil {
		r.finish()
		r.stage = stage
		r.bar = r.newBar(stage, total)
	}

	if stage != tidy.StageScan && total != r.bar.GetMax() {
		r.bar.ChangeMax(total)
	}
	_ = r.bar.Set(processed)

	if current == "" && processed == total {
		r.finish()
	}
}

func (r *barReporter) newBar(stage string, total int) *progressbar.ProgressBar {
	limit := total
	if stage == tidy.StageScan {
		// enumeration has no known end
		limit = -1
	}
	return progressbar.NewOptions(limit,
		progressbar.OptionSetWriter(r.w),
		progressbar.OptionSetDescription(stage),
		progressbar.OptionShowCount(),
		progressbar.OptionSetPredictTime(stage != tidy.StageScan),
		progressbar.OptionThrottle(65*time.Millisecond),
		progressbar.OptionClearOnFinish(),
	)
}

func (r *barReporter) finish() {
	if r.bar == nil {
		return
	}
	_ = r.bar.Finish()
	r.bar = nil
}
