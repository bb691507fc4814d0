package tidy

import (
	"fmt"
	"path/filepath"
	"strconv"
)

const (
	msgOriginMissing = "origin file missing"
	msgTargetExists  = "target file already exists"
	msgTargetMissing = "target missing during undo"

	opUndo = "undo"
)

// Execute applies every pending plan entry in the given mode. A dry run performs the
// pre-flight checks and tallies outcomes without touching the filesystem or the store.
// Per-entry failures are recorded on the entry and never abort the batch.
func (s *TidyService) Execute(mode ExecutionMode, dryRun bool, progress ProgressReporter) (*ExecutionSummary, error) {
	progress = reporterOrNop(progress)
	if _, err := ParseExecutionMode(string(mode)); err != nil {
		return nil, err
	}

	entries, err := s.store.PlanEntries(StatusPending)
	if err != nil {
		return nil, fmt.Errorf("reading pending plan entries: %w", err)
	}
	total := len(entries)
	progress.Report(StageExecute, 0, total, "")

	summary := &ExecutionSummary{Mode: mode, DryRun: dryRun}
	if total == 0 {
		return summary, nil
	}

	s.logger.Info("execute started", "mode", mode, "dry_run", dryRun, "entries", total)

	for i := range entries {
		entry := &entries[i]
		ok, err := s.executeEntry(entry, mode, dryRun)
		if err != nil {
			return nil, err
		}
		if ok {
			summary.Succeeded++
		} else {
			summary.Failed++
		}
		if entry.IsDuplicate {
			summary.DuplicateEntries++
		}
		progress.Report(StageExecute, i+1, total, entry.OriginFullPath)
	}

	if !dryRun {
		if err := s.store.SetMeta(MetaPlanSchemaVersion, strconv.Itoa(PlanSchemaVersion)); err != nil {
			return nil, fmt.Errorf("setting %s: %w", MetaPlanSchemaVersion, err)
		}
	}
	progress.Report(StageExecute, total, total, "")

	summary.TotalEntries = total
	summary.ProcessedEntries = total

	s.logger.Info("execute finished", "mode", mode, "dry_run", dryRun,
		"succeeded", summary.Succeeded, "failed", summary.Failed)
	return summary, nil
}

// executeEntry applies a single entry. The returned error is reserved for store
// failures; filesystem failures are recorded and reported as ok=false.
func (s *TidyService) executeEntry(entry *PlanEntry, mode ExecutionMode, dryRun bool) (bool, error) {
	origin := filepath.FromSlash(entry.OriginFullPath)
	target := filepath.FromSlash(entry.Target())

	originExists := s.fsmgr.Exists(origin)
	targetExists := s.fsmgr.Exists(target)

	if dryRun {
		return originExists && !targetExists, nil
	}

	if !originExists {
		return false, s.recordFailure(entry, StatusFailed, string(mode), msgOriginMissing)
	}
	if targetExists {
		return false, s.recordFailure(entry, StatusFailed, string(mode), msgTargetExists)
	}

	if err := s.fsmgr.MkdirAll(filepath.Dir(target)); err != nil {
		return false, s.recordFailure(entry, StatusFailed, string(mode), err.Error())
	}

	var opErr error
	if mode == ModeMove {
		opErr = s.fsmgr.Move(origin, target)
	} else {
		opErr = s.fsmgr.Copy(origin, target)
	}
	if opErr != nil {
		return false, s.recordFailure(entry, StatusFailed, string(mode), opErr.Error())
	}

	if err := s.store.UpdatePlanStatus(entry.ID, mode.successStatus()); err != nil {
		return false, fmt.Errorf("updating plan entry %d: %w", entry.ID, err)
	}
	if err := s.store.AppendOperationLog(OperationLog{
		PlanEntryID: entry.ID,
		Operation:   string(mode),
		Status:      LogSuccess,
	}); err != nil {
		return false, fmt.Errorf("logging operation for entry %d: %w", entry.ID, err)
	}
	return true, nil
}

// recordFailure logs a failed attempt and, when status is non-empty, updates the entry.
func (s *TidyService) recordFailure(entry *PlanEntry, status PlanStatus, operation, message string) error {
	s.logger.Warn("plan entry failed", "id", entry.ID, "operation", operation,
		"origin", entry.OriginFullPath, "error", message)

	if status != "" {
		if err := s.store.UpdatePlanStatus(entry.ID, status); err != nil {
			return fmt.Errorf("updating plan entry %d: %w", entry.ID, err)
		}
	}
	if err := s.store.AppendOperationLog(OperationLog{
		PlanEntryID: entry.ID,
		Operation:   operation,
		Status:      LogFailure,
		Error:       message,
	}); err != nil {
		return fmt.Errorf("logging operation for entry %d: %w", entry.ID, err)
	}
	return nil
}
