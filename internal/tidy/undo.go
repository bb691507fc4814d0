package tidy

import (
	"fmt"
	"path/filepath"
)

// Undo moves every moved entry back to its origin and resets it to pending.
// Entries whose target vanished are counted as missing and keep their status.
func (s *TidyService) Undo(progress ProgressReporter) (*UndoSummary, error) {
	progress = reporterOrNop(progress)

	entries, err := s.store.PlanEntries(StatusMoved)
	if err != nil {
		return nil, fmt.Errorf("reading moved plan entries: %w", err)
	}
	total := len(entries)
	progress.Report(StageUndo, 0, total, "")

	summary := &UndoSummary{}
	if total == 0 {
		return summary, nil
	}

	s.logger.Info("undo started", "entries", total)

	for i := range entries {
		entry := &entries[i]
		origin := filepath.FromSlash(entry.OriginFullPath)
		target := filepath.FromSlash(entry.Target())

		switch {
		case !s.fsmgr.Exists(target):
			summary.Missing++
			if err := s.recordFailure(entry, "", opUndo, msgTargetMissing); err != nil {
				return nil, err
			}
		default:
			if err := s.restore(entry, origin, target); err != nil {
				summary.Failed++
				if err := s.recordFailure(entry, "", opUndo, err.Error()); err != nil {
					return nil, err
				}
				break
			}
			summary.Restored++
			if err := s.store.UpdatePlanStatus(entry.ID, StatusPending); err != nil {
				return nil, fmt.Errorf("updating plan entry %d: %w", entry.ID, err)
			}
			if err := s.store.AppendOperationLog(OperationLog{
				PlanEntryID: entry.ID,
				Operation:   opUndo,
				Status:      LogSuccess,
			}); err != nil {
				return nil, fmt.Errorf("logging operation for entry %d: %w", entry.ID, err)
			}
		}

		progress.Report(StageUndo, i+1, total, entry.OriginFullPath)
	}
	progress.Report(StageUndo, total, total, "")

	summary.ProcessedEntries = total
	s.logger.Info("undo finished", "restored", summary.Restored,
		"missing", summary.Missing, "failed", summary.Failed)
	return summary, nil
}

func (s *TidyService) restore(entry *PlanEntry, origin, target string) error {
	if err := s.fsmgr.MkdirAll(filepath.Dir(origin)); err != nil {
		return err
	}
	return s.fsmgr.Move(target, origin)
}
