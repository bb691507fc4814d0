package tidy

// Store provides durable storage for the inventory, the plan and the operation log.
// Implementations serialize all access; multi-row writes are transactional.
type Store interface {
	// Inventory returns every inventory record in persisted order.
	Inventory() ([]InventoryRecord, error)

	// ReplaceInventory deletes all inventory rows and inserts records in one transaction.
	ReplaceInventory(records []InventoryRecord) error

	// ReplacePlanEntries clears the operation log and the plan, then inserts entries
	// with status pending, all in one transaction. ID and Status of the input are ignored.
	ReplacePlanEntries(entries []PlanEntry) error

	// PlanEntries returns plan entries ordered by id, filtered to the given statuses.
	// An empty filter returns every entry.
	PlanEntries(statuses ...PlanStatus) ([]PlanEntry, error)

	// PlanStatusCounts returns the number of plan entries per status.
	PlanStatusCounts() (map[PlanStatus]int, error)

	// UpdatePlanStatus sets the status of a single entry.
	UpdatePlanStatus(id int64, status PlanStatus) error

	// AppendOperationLog records an execute or undo attempt.
	AppendOperationLog(log OperationLog) error

	// OperationLogs returns up to limit log rows, newest first. limit <= 0 means all.
	OperationLogs(limit int) ([]OperationLog, error)

	// ClearOperationLogs deletes every operation log row.
	ClearOperationLogs() error

	// SetMeta stores a metadata value, replacing any previous value.
	SetMeta(key, value string) error

	// GetMeta returns a metadata value. ok is false when the key is not set.
	GetMeta(key string) (value string, ok bool, err error)

	// Meta returns all metadata key/value pairs.
	Meta() (map[string]string, error)

	// Close closes the underlying connection.
	Close() error
}
