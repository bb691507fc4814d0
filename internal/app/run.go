package app

import (
	"strings"
	"time"

	"phototidy/internal/tidy"
)

// Run describes one CLI invocation. Its ID tags every log line the
// invocation writes.
type Run struct {
	ID        string
	Command   string
	Mutating  bool
	StartedAt time.Time
	Status    string // "success" or "error"
}

// NewRun creates a run for command with an 8-character ID taken from ids.
func NewRun(command string, mutating bool, ids tidy.IDGenerator, clock tidy.Clock) *Run {
	id := strings.ReplaceAll(ids.New(), "-", "")
	if len(id) > 8 {
		id = id[:8]
	}
	return &Run{
		ID:        id,
		Command:   command,
		Mutating:  mutating,
		StartedAt: clock.Now().UTC(),
		Status:    "success",
	}
}

// Fail marks the run as failed. Later successes do not clear it.
func (r *Run) Fail() {
	r.Status = "error"
}

// Elapsed returns the time since the run started.
func (r *Run) Elapsed(clock tidy.Clock) time.Duration {
	return clock.Now().UTC().Sub(r.StartedAt)
}
