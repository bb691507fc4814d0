package tidy

import "fmt"

// Status returns persisted metadata together with plan entry counts per status.
func (s *TidyService) Status() (*StatusReport, error) {
	meta, err := s.store.Meta()
	if err != nil {
		return nil, fmt.Errorf("reading metadata: %w", err)
	}
	counts, err := s.store.PlanStatusCounts()
	if err != nil {
		return nil, fmt.Errorf("counting plan entries: %w", err)
	}
	inventory, err := s.store.Inventory()
	if err != nil {
		return nil, fmt.Errorf("reading inventory: %w", err)
	}
	return &StatusReport{
		Meta:         meta,
		PlanCounts:   counts,
		InventoryLen: len(inventory),
	}, nil
}

// OperationLogs returns the most recent operation log rows, newest first.
func (s *TidyService) OperationLogs(limit int) ([]OperationLog, error) {
	logs, err := s.store.OperationLogs(limit)
	if err != nil {
		return nil, fmt.Errorf("reading operation logs: %w", err)
	}
	return logs, nil
}

// ClearOperationLogs deletes the operation log. This is a maintenance action;
// no stage clears the log implicitly except plan generation.
func (s *TidyService) ClearOperationLogs() error {
	if err := s.store.ClearOperationLogs(); err != nil {
		return fmt.Errorf("clearing operation logs: %w", err)
	}
	s.logger.Info("operation logs cleared")
	return nil
}

// Inventory returns the stored inventory.
func (s *TidyService) Inventory() ([]InventoryRecord, error) {
	records, err := s.store.Inventory()
	if err != nil {
		return nil, fmt.Errorf("reading inventory: %w", err)
	}
	return records, nil
}

// ExportInventory writes the stored inventory as a JSON array to path.
// Returns the number of records written.
func (s *TidyService) ExportInventory(path string) (int, error) {
	records, err := s.Inventory()
	if err != nil {
		return 0, err
	}
	if records == nil {
		records = []InventoryRecord{}
	}
	if err := s.fsmgr.WriteJSON(path, records); err != nil {
		return 0, fmt.Errorf("writing inventory export: %w", err)
	}
	return len(records), nil
}
