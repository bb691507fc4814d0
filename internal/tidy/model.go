package tidy

import (
	"errors"
	"fmt"
)

var (
	// ErrUnsupportedStatus is returned when a persisted status string is not a known PlanStatus.
	ErrUnsupportedStatus = errors.New("unsupported plan status")

	// ErrSizeOverflow is returned when a file size does not fit the store's integer column.
	ErrSizeOverflow = errors.New("file size exceeds sqlite limits")

	// ErrInvalidMode is returned for an execution mode other than copy or move.
	ErrInvalidMode = errors.New("invalid execution mode")
)

// Metadata keys persisted in app_meta.
const (
	MetaSchemaVersion     = "schema_version"
	MetaPlanGeneratedAt   = "plan_generated_at"
	MetaPlanEntryCount    = "plan_entry_count"
	MetaPlanTotalBytes    = "plan_total_bytes"
	MetaPlanSchemaVersion = "plan_schema_version"
	MetaLastScanAt        = "last_scan_at"
	MetaLastScanRoot      = "last_scan_root"
)

const (
	// SchemaVersion is the application-level schema version recorded after migration.
	SchemaVersion = 1

	// PlanSchemaVersion versions the layout of plan entries and the plan snapshot.
	PlanSchemaVersion = 1

	// HashAlgo names the legacy duplicate-detection digest stored with each record.
	HashAlgo = "md5"
)

// InventoryRecord is one file observed on disk during a scan.
type InventoryRecord struct {
	ID           int64  `json:"id,omitempty"`
	FileHash     string `json:"fileHash"`
	StrongHash   string `json:"strongHash,omitempty"`
	FileSize     uint64 `json:"fileSize"`
	FileName     string `json:"fileName"`
	RelativePath string `json:"relativePath"`
	CapturedAt   string `json:"capturedAt,omitempty"`
	ModifiedAt   string `json:"modifiedAt"`
	ExifModel    string `json:"exifModel,omitempty"`
	ExifMake     string `json:"exifMake,omitempty"`
	ExifArtist   string `json:"exifArtist,omitempty"`
	IsDuplicate  bool   `json:"isDuplicate"`
}

// Persisted returns true if this record has been saved to the store.
func (r *InventoryRecord) Persisted() bool {
	return r.ID != 0
}

// Timestamp returns the capture timestamp, falling back to the modification timestamp.
func (r *InventoryRecord) Timestamp() string {
	if r.CapturedAt != "" {
		return r.CapturedAt
	}
	return r.ModifiedAt
}

// PlanStatus is the lifecycle state of a plan entry.
type PlanStatus string

const (
	StatusPending PlanStatus = "pending"
	StatusCopied  PlanStatus = "copied"
	StatusMoved   PlanStatus = "moved"
	StatusFailed  PlanStatus = "failed"
)

// ParsePlanStatus decodes a persisted status. Unknown values are an error, never a default.
func ParsePlanStatus(s string) (PlanStatus, error) {
	switch PlanStatus(s) {
	case StatusPending, StatusCopied, StatusMoved, StatusFailed:
		return PlanStatus(s), nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedStatus, s)
	}
}

func (s PlanStatus) String() string { return string(s) }

// PlanEntry describes where one inventory record should end up.
// TargetPath is a directory with a trailing separator.
type PlanEntry struct {
	ID             int64
	FileHash       string
	FileSize       uint64
	OriginFileName string
	OriginFullPath string
	TargetPath     string
	TargetFileName string
	IsDuplicate    bool
	Status         PlanStatus
}

// Target returns the full destination path of the entry.
func (e *PlanEntry) Target() string {
	return e.TargetPath + e.TargetFileName
}

// Operation log outcomes.
const (
	LogSuccess = "success"
	LogFailure = "failure"
)

// OperationLog is one recorded execute or undo attempt.
type OperationLog struct {
	ID          int64  `json:"id"`
	PlanEntryID int64  `json:"planEntryId"`
	Operation   string `json:"operation"`
	Status      string `json:"status"`
	Error       string `json:"error,omitempty"`
	CreatedAt   string `json:"createdAt"`
}

// ExecutionMode selects how plan entries are applied.
type ExecutionMode string

const (
	ModeCopy ExecutionMode = "copy"
	ModeMove ExecutionMode = "move"
)

// ParseExecutionMode validates a user-supplied mode.
func ParseExecutionMode(s string) (ExecutionMode, error) {
	switch ExecutionMode(s) {
	case ModeCopy, ModeMove:
		return ExecutionMode(s), nil
	default:
		return "", fmt.Errorf("%w: %q (want copy or move)", ErrInvalidMode, s)
	}
}

func (m ExecutionMode) successStatus() PlanStatus {
	if m == ModeMove {
		return StatusMoved
	}
	return StatusCopied
}
