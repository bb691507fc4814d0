package testutil

import (
	"sync"
)

// ProgressEvent is one recorded progress report.
type ProgressEvent struct {
	Stage     string
	Processed int
	Total     int
	Current   string
}

// RecordingProgress stores every report it receives. Safe for concurrent use.
type RecordingProgress struct {
	mu     sync.Mutex
	events []ProgressEvent
}

func (r *RecordingProgress) Report(stage string, processed, total int, current string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ProgressEvent{stage, processed, total, current})
}

// Events returns a copy of the recorded events in arrival order.
func (r *RecordingProgress) Events() []ProgressEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]ProgressEvent(nil), r.events...)
}

// Stage returns the events recorded for one stage.
func (r *RecordingProgress) Stage(stage string) []ProgressEvent {
	var out []ProgressEvent
	for _, e := range r.Events() {
		if e.Stage == stage {
			out = append(out, e)
		}
	}
	return out
}

// Last returns the final event of a stage and whether there was one.
func (r *RecordingProgress) Last(stage string) (ProgressEvent, bool) {
	events := r.Stage(stage)
	if len(events) == 0 {
		return ProgressEvent{}, false
	}
	return events[len(events)-1], true
}
