package tidy

import (
	"fmt"
	"path/filepath"
	"sort"
	"sync/atomic"
)

type fileSnapshot struct {
	absolutePath string
	relativePath string
	fileName     string
	fileSize     uint64
	modifiedAt   string
}

// Scan walks the scan root, reuses unchanged inventory rows, hashes everything else,
// marks duplicates and replaces the stored inventory.
func (s *TidyService) Scan(progress ProgressReporter) (*ScanSummary, error) {
	progress = reporterOrNop(progress)
	root := s.opts.ScanRoot

	s.logger.Info("scan started", "root", root)

	files, err := s.fsmgr.FindFiles(root, s.opts.Extensions, func(path string, count int) {
		progress.Report(StageScan, count, count, filepath.ToSlash(path))
	})
	if err != nil {
		return nil, fmt.Errorf("enumerating files: %w", err)
	}
	sort.Strings(files)
	progress.Report(StageScan, len(files), len(files), "")

	if len(files) == 0 {
		if err := s.store.ReplaceInventory(nil); err != nil {
			return nil, fmt.Errorf("replacing inventory: %w", err)
		}
		progress.Report(StageDiff, 0, 0, "")
		progress.Report(StageHash, 0, 0, "")
		if err := s.recordScan(root); err != nil {
			return nil, err
		}
		s.logger.Info("scan finished", "files", 0)
		return &ScanSummary{}, nil
	}

	snapshots, err := s.buildSnapshots(root, files)
	if err != nil {
		return nil, err
	}
	total := len(snapshots)

	existing, err := s.store.Inventory()
	if err != nil {
		return nil, fmt.Errorf("reading inventory: %w", err)
	}
	byPath := make(map[string]InventoryRecord, len(existing))
	for _, rec := range existing {
		byPath[rec.RelativePath] = rec
	}

	var reused []InventoryRecord
	var pending []fileSnapshot
	for _, snap := range snapshots {
		prev, ok := byPath[snap.relativePath]
		if ok {
			delete(byPath, snap.relativePath)
		}
		if ok && prev.FileSize == snap.fileSize && prev.ModifiedAt == snap.modifiedAt && prev.StrongHash != "" {
			prev.ID = 0
			prev.FileName = snap.fileName
			prev.RelativePath = snap.relativePath
			prev.IsDuplicate = false
			reused = append(reused, prev)
			continue
		}
		pending = append(pending, snap)
	}
	progress.Report(StageDiff, len(reused), total, "")

	hashed, err := s.hashSnapshots(pending, progress)
	if err != nil {
		return nil, err
	}

	records := make([]InventoryRecord, 0, len(reused)+len(hashed))
	records = append(records, reused...)
	records = append(records, hashed...)

	duplicates := markDuplicates(records)
	sortInventory(records)

	if err := s.store.ReplaceInventory(records); err != nil {
		return nil, fmt.Errorf("replacing inventory: %w", err)
	}
	if err := s.recordScan(root); err != nil {
		return nil, err
	}

	summary := &ScanSummary{
		TotalFiles:     total,
		HashedFiles:    len(hashed),
		SkippedFiles:   len(reused),
		DuplicateFiles: duplicates,
	}
	s.logger.Info("scan finished",
		"files", summary.TotalFiles,
		"hashed", summary.HashedFiles,
		"skipped", summary.SkippedFiles,
		"duplicates", summary.DuplicateFiles)
	return summary, nil
}

func (s *TidyService) recordScan(root string) error {
	if err := s.store.SetMeta(MetaLastScanAt, FormatTimestamp(s.clock.Now())); err != nil {
		return fmt.Errorf("recording scan time: %w", err)
	}
	if err := s.store.SetMeta(MetaLastScanRoot, filepath.ToSlash(root)); err != nil {
		return fmt.Errorf("recording scan root: %w", err)
	}
	return nil
}

// buildSnapshots stats each file. Files that cannot be read are logged and skipped.
func (s *TidyService) buildSnapshots(root string, files []string) ([]fileSnapshot, error) {
	snapshots := make([]fileSnapshot, 0, len(files))
	for _, path := range files {
		info, err := s.fsmgr.Stat(path)
		if err != nil {
			s.logger.Warn("failed to read metadata", "path", path, "error", err)
			continue
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return nil, fmt.Errorf("computing relative path for %s: %w", path, err)
		}

		snapshots = append(snapshots, fileSnapshot{
			absolutePath: path,
			relativePath: filepath.ToSlash(rel),
			fileName:     filepath.Base(path),
			fileSize:     uint64(info.Size()),
			modifiedAt:   FormatTimestamp(info.ModTime()),
		})
	}
	return snapshots, nil
}

// hashSnapshots hashes files in parallel. Nothing is returned until every task finished.
// Any failed or panicking task fails the whole stage so no empty record is persisted.
func (s *TidyService) hashSnapshots(snapshots []fileSnapshot, progress ProgressReporter) ([]InventoryRecord, error) {
	total := len(snapshots)
	if total == 0 {
		progress.Report(StageHash, 0, 0, "")
		return nil, nil
	}

	records := make([]InventoryRecord, total)
	errs := make([]error, total)
	var done atomic.Int64

	err := s.runner.Run(total, func(i int) {
		snap := snapshots[i]
		defer func() {
			// decoders can panic on malformed files
			if r := recover(); r != nil {
				records[i] = InventoryRecord{}
				errs[i] = fmt.Errorf("hashing %s: panic: %v", snap.relativePath, r)
			}
		}()
		digest, err := s.hasher.HashFile(snap.absolutePath)
		if err != nil {
			errs[i] = fmt.Errorf("hashing %s: %w", snap.relativePath, err)
			return
		}

		md := s.meta.ReadMetadata(snap.absolutePath)
		captured := md.CapturedAt
		if captured == "" {
			captured = snap.modifiedAt
		}

		records[i] = InventoryRecord{
			FileHash:     digest.Legacy,
			StrongHash:   digest.Strong,
			FileSize:     snap.fileSize,
			FileName:     snap.fileName,
			RelativePath: snap.relativePath,
			CapturedAt:   captured,
			ModifiedAt:   snap.modifiedAt,
			ExifModel:    md.Model,
			ExifMake:     md.Make,
			ExifArtist:   md.Artist,
		}

		n := done.Add(1)
		progress.Report(StageHash, int(n), total, snap.relativePath)
	})
	if err != nil {
		return nil, fmt.Errorf("running hash workers: %w", err)
	}
	progress.Report(StageHash, total, total, "")

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return records, nil
}

// markDuplicates flags every record whose hash was already seen earlier in the slice.
func markDuplicates(records []InventoryRecord) int {
	seen := make(map[string]struct{}, len(records))
	duplicates := 0
	for i := range records {
		if _, ok := seen[records[i].FileHash]; ok {
			records[i].IsDuplicate = true
			duplicates++
			continue
		}
		seen[records[i].FileHash] = struct{}{}
		records[i].IsDuplicate = false
	}
	return duplicates
}

func sortInventory(records []InventoryRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		a, b := records[i].Timestamp(), records[j].Timestamp()
		if a != b {
			return a < b
		}
		return records[i].RelativePath < records[j].RelativePath
	})
}
