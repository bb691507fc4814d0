package tidy

// Stage names reported through ProgressReporter.
const (
	StageScan    = "scan"
	StageDiff    = "diff"
	StageHash    = "hash"
	StagePlan    = "plan"
	StageExecute = "execute"
	StageUndo    = "undo"
)

// ProgressReporter receives stage progress. current is empty when no item applies,
// which is always the case for the final call of a stage.
// Implementations must be safe for concurrent use: the hash stage reports from
// multiple workers at once.
type ProgressReporter interface {
	Report(stage string, processed, total int, current string)
}

// ProgressFunc adapts a function to ProgressReporter.
type ProgressFunc func(stage string, processed, total int, current string)

func (f ProgressFunc) Report(stage string, processed, total int, current string) {
	f(stage, processed, total, current)
}

// NopProgress discards progress reports.
type NopProgress struct{}

func (NopProgress) Report(string, int, int, string) {}
