package tidy

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
)

// snapshotItem is one element of the exported plan snapshot.
type snapshotItem struct {
	FileHash       string `json:"fileHash"`
	FileSize       uint64 `json:"fileSize"`
	OriginFileName string `json:"originFileName"`
	OriginFullPath string `json:"originFullPath"`
	NewFileName    string `json:"newFileName"`
	NewPath        string `json:"newPath"`
}

// Plan assigns every inventory record a unique target, replaces the stored plan
// (clearing the operation log) and exports the plan snapshot.
func (s *TidyService) Plan(progress ProgressReporter) (*PlanSummary, error) {
	progress = reporterOrNop(progress)

	inventory, err := s.store.Inventory()
	if err != nil {
		return nil, fmt.Errorf("reading inventory: %w", err)
	}
	total := len(inventory)
	progress.Report(StagePlan, 0, total, "")

	snapshotPath := filepath.ToSlash(s.opts.PlanSnapshotPath)

	if total == 0 {
		if err := s.store.ReplacePlanEntries(nil); err != nil {
			return nil, fmt.Errorf("replacing plan entries: %w", err)
		}
		if err := s.setMetas([]metaValue{
			{MetaPlanEntryCount, "0"},
			{MetaPlanSchemaVersion, strconv.Itoa(PlanSchemaVersion)},
			{MetaPlanTotalBytes, "0"},
		}); err != nil {
			return nil, err
		}
		if err := s.fsmgr.WriteJSON(s.opts.PlanSnapshotPath, []snapshotItem{}); err != nil {
			return nil, fmt.Errorf("writing plan snapshot: %w", err)
		}
		return &PlanSummary{
			GeneratedAt:  FormatTimestamp(s.clock.Now()),
			PlanJSONPath: snapshotPath,
			Entries:      []PlanItem{},
		}, nil
	}

	reserved := make(map[string]struct{}, total)
	buckets := make(map[string]struct{})
	items := make([]PlanItem, 0, total)
	entries := make([]PlanEntry, 0, total)
	duplicates := 0
	var totalBytes uint64

	for i, rec := range inventory {
		ts := rec.Timestamp()

		var targetDir string
		if rec.IsDuplicate {
			targetDir = s.opts.DuplicatesDir
			duplicates++
		} else {
			targetDir = filepath.Join(s.opts.OutputRoot, DateBucket(ts))
		}
		targetDir = withTrailingSlash(filepath.ToSlash(targetDir))
		buckets[targetDir] = struct{}{}

		name := reserveTargetName(reserved, targetDir, ts+"."+rec.FileName)
		origin := filepath.ToSlash(filepath.Join(s.opts.ScanRoot, filepath.FromSlash(rec.RelativePath)))

		items = append(items, PlanItem{
			FileHash:       rec.FileHash,
			FileSize:       rec.FileSize,
			OriginFileName: rec.FileName,
			OriginFullPath: origin,
			NewFileName:    name,
			NewPath:        targetDir,
			IsDuplicate:    rec.IsDuplicate,
		})
		entries = append(entries, PlanEntry{
			FileHash:       rec.FileHash,
			FileSize:       rec.FileSize,
			OriginFileName: rec.FileName,
			OriginFullPath: origin,
			TargetPath:     targetDir,
			TargetFileName: name,
			IsDuplicate:    rec.IsDuplicate,
		})
		totalBytes += rec.FileSize

		progress.Report(StagePlan, i+1, total, origin)
	}

	if err := s.store.ReplacePlanEntries(entries); err != nil {
		return nil, fmt.Errorf("replacing plan entries: %w", err)
	}

	generatedAt := FormatTimestamp(s.clock.Now())
	if err := s.setMetas([]metaValue{
		{MetaPlanGeneratedAt, generatedAt},
		{MetaPlanEntryCount, strconv.Itoa(len(entries))},
		{MetaPlanSchemaVersion, strconv.Itoa(PlanSchemaVersion)},
		{MetaPlanTotalBytes, strconv.FormatUint(totalBytes, 10)},
	}); err != nil {
		return nil, err
	}

	snapshot := make([]snapshotItem, len(items))
	for i, item := range items {
		snapshot[i] = snapshotItem{
			FileHash:       item.FileHash,
			FileSize:       item.FileSize,
			OriginFileName: item.OriginFileName,
			OriginFullPath: item.OriginFullPath,
			NewFileName:    item.NewFileName,
			NewPath:        item.NewPath,
		}
	}
	if err := s.fsmgr.WriteJSON(s.opts.PlanSnapshotPath, snapshot); err != nil {
		return nil, fmt.Errorf("writing plan snapshot: %w", err)
	}
	progress.Report(StagePlan, total, total, "")

	s.logger.Info("plan generated", "entries", len(entries), "duplicates", duplicates, "bytes", totalBytes)

	return &PlanSummary{
		GeneratedAt:        generatedAt,
		TotalEntries:       len(entries),
		DuplicateEntries:   duplicates,
		UniqueEntries:      len(entries) - duplicates,
		DestinationBuckets: len(buckets),
		TotalBytes:         totalBytes,
		PlanJSONPath:       snapshotPath,
		Entries:            items,
	}, nil
}

type metaValue struct {
	key   string
	value string
}

// setMetas writes values in order and stops at the first failure, so the
// keys before it are written and the rest keep their old values.
func (s *TidyService) setMetas(values []metaValue) error {
	for _, m := range values {
		if err := s.store.SetMeta(m.key, m.value); err != nil {
			return fmt.Errorf("setting %s: %w", m.key, err)
		}
	}
	return nil
}

// reserveTargetName returns base, or base with a _dupN suffix, such that dir+name
// has not been reserved before in this pass.
func reserveTargetName(reserved map[string]struct{}, dir, base string) string {
	for attempt := 0; ; attempt++ {
		candidate := base
		if attempt > 0 {
			candidate = addDuplicateSuffix(base, attempt)
		}
		key := dir + candidate
		if _, taken := reserved[key]; !taken {
			reserved[key] = struct{}{}
			return candidate
		}
	}
}

func addDuplicateSuffix(name string, n int) string {
	suffix := "_dup" + strconv.Itoa(n)
	if i := strings.LastIndex(name, "."); i >= 0 {
		return name[:i] + suffix + name[i:]
	}
	return name + suffix
}

func withTrailingSlash(p string) string {
	if p == "" || strings.HasSuffix(p, "/") {
		return p
	}
	return p + "/"
}
