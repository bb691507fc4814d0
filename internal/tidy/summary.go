package tidy

// ScanSummary reports the outcome of a scan.
type ScanSummary struct {
	TotalFiles     int `json:"totalFiles"`
	HashedFiles    int `json:"hashedFiles"`
	SkippedFiles   int `json:"skippedFiles"`
	DuplicateFiles int `json:"duplicateFiles"`
}

// PlanItem is the in-memory view of a generated plan entry.
type PlanItem struct {
	FileHash       string `json:"fileHash"`
	FileSize       uint64 `json:"fileSize"`
	OriginFileName string `json:"originFileName"`
	OriginFullPath string `json:"originFullPath"`
	NewFileName    string `json:"newFileName"`
	NewPath        string `json:"newPath"`
	IsDuplicate    bool   `json:"isDuplicate"`
}

// PlanSummary reports the outcome of plan generation.
type PlanSummary struct {
	GeneratedAt        string     `json:"generatedAt"`
	TotalEntries       int        `json:"totalEntries"`
	DuplicateEntries   int        `json:"duplicateEntries"`
	UniqueEntries      int        `json:"uniqueEntries"`
	DestinationBuckets int        `json:"destinationBuckets"`
	TotalBytes         uint64     `json:"totalBytes"`
	PlanJSONPath       string     `json:"planJsonPath"`
	Entries            []PlanItem `json:"entries"`
}

// ExecutionSummary reports the outcome of an execute pass.
type ExecutionSummary struct {
	Mode             ExecutionMode `json:"mode"`
	DryRun           bool          `json:"dryRun"`
	TotalEntries     int           `json:"totalEntries"`
	ProcessedEntries int           `json:"processedEntries"`
	Succeeded        int           `json:"succeeded"`
	Failed           int           `json:"failed"`
	DuplicateEntries int           `json:"duplicateEntries"`
}

// UndoSummary reports the outcome of an undo pass.
type UndoSummary struct {
	ProcessedEntries int `json:"processedEntries"`
	Restored         int `json:"restored"`
	Missing          int `json:"missing"`
	Failed           int `json:"failed"`
}

// StatusReport combines persisted metadata with plan entry counts.
type StatusReport struct {
	Meta         map[string]string  `json:"meta"`
	PlanCounts   map[PlanStatus]int `json:"planCounts"`
	InventoryLen int                `json:"inventoryFiles"`
}
