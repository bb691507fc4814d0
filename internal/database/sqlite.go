package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync"

	"phototidy/internal/database/migrations"
	"phototidy/internal/tidy"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// SQLiteStore implements tidy.Store on a single SQLite connection.
// Every method holds mu for its whole duration, so readers and writers
// serialize through the same lock.
type SQLiteStore struct {
	mu   sync.Mutex
	db   *sql.DB
	path string
}

// NewSQLiteStore opens (or creates) the database at path and applies migrations.
// path can be a file path or ":memory:" for an in-memory database.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := OpenConnection(path)
	if err != nil {
		return nil, err
	}

	if err := migrations.MigrateUp(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating database: %w", err)
	}

	s := &SQLiteStore{db: db, path: path}
	if err := s.SetMeta(tidy.MetaSchemaVersion, strconv.Itoa(tidy.SchemaVersion)); err != nil {
		db.Close()
		return nil, fmt.Errorf("recording schema version: %w", err)
	}
	return s, nil
}

// OpenConnection opens and configures a SQLite connection.
// The pool is capped at one connection so PRAGMAs and in-memory databases
// stay bound to the same handle.
func OpenConnection(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA busy_timeout = 5000",
		"PRAGMA journal_mode = WAL",
		"PRAGMA foreign_keys = ON",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to apply %q: %w", p, err)
		}
	}

	return db, nil
}

// Inventory operations

const inventoryColumns = `id, file_hash, strong_hash, file_size, file_name, relative_path,
	captured_at, modified_at, exif_model, exif_make, exif_artist, is_duplicate`

func (s *SQLiteStore) Inventory() ([]tidy.InventoryRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.QueryContext(context.Background(),
		"SELECT "+inventoryColumns+" FROM media_inventory ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("querying inventory: %w", err)
	}
	defer rows.Close()

	var records []tidy.InventoryRecord
	for rows.Next() {
		rec, err := scanInventoryRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating inventory: %w", err)
	}
	return records, nil
}

func (s *SQLiteStore) ReplaceInventory(records []tidy.InventoryRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ctx := context.Background()
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM media_inventory"); err != nil {
		return fmt.Errorf("clearing inventory: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO media_inventory (
		file_hash, strong_hash, file_size, file_name, relative_path, captured_at, modified_at,
		exif_model, exif_make, exif_artist, is_duplicate, hash_algo, created_at, updated_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)`)
	if err != nil {
		return fmt.Errorf("preparing inventory insert: %w", err)
	}
	defer stmt.Close()

	for _, rec := range records {
		size, err := encodeSize(rec.FileSize)
		if err != nil {
			return fmt.Errorf("inserting %s: %w", rec.RelativePath, err)
		}
		_, err = stmt.ExecContext(ctx,
			rec.FileHash,
			nullableString(rec.StrongHash),
			size,
			rec.FileName,
			rec.RelativePath,
			nullableString(rec.CapturedAt),
			rec.ModifiedAt,
			nullableString(rec.ExifModel),
			nullableString(rec.ExifMake),
			nullableString(rec.ExifArtist),
			boolToInt(rec.IsDuplicate),
			tidy.HashAlgo,
		)
		if err != nil {
			return fmt.Errorf("inserting %s: %w", rec.RelativePath, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// Plan operations

const planColumns = `id, file_hash, file_size, origin_file_name, origin_full_path,
	target_path, target_file_name, is_duplicate, status`

func (s *SQLiteStore) ReplacePlanEntries(entries []tidy.PlanEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ctx := context.Background()
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM operation_logs"); err != nil {
		return fmt.Errorf("clearing operation logs: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM plan_entries"); err != nil {
		return fmt.Errorf("clearing plan entries: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO plan_entries (
		file_hash, file_size, origin_file_name, origin_full_path, target_path,
		target_file_name, is_duplicate, status, created_at, updated_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)`)
	if err != nil {
		return fmt.Errorf("preparing plan insert: %w", err)
	}
	defer stmt.Close()

	for _, e := range entries {
		size, err := encodeSize(e.FileSize)
		if err != nil {
			return fmt.Errorf("inserting plan entry for %s: %w", e.OriginFullPath, err)
		}
		_, err = stmt.ExecContext(ctx,
			e.FileHash,
			size,
			e.OriginFileName,
			e.OriginFullPath,
			e.TargetPath,
			e.TargetFileName,
			boolToInt(e.IsDuplicate),
			tidy.StatusPending.String(),
		)
		if err != nil {
			return fmt.Errorf("inserting plan entry for %s: %w", e.OriginFullPath, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

func (s *SQLiteStore) PlanEntries(statuses ...tidy.PlanStatus) ([]tidy.PlanEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := "SELECT " + planColumns + " FROM plan_entries"
	args := make([]any, 0, len(statuses))
	if len(statuses) > 0 {
		query += " WHERE status IN (" + makePlaceholders(len(statuses)) + ")"
		for _, st := range statuses {
			args = append(args, st.String())
		}
	}
	query += " ORDER BY id"

	rows, err := s.db.QueryContext(context.Background(), query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying plan entries: %w", err)
	}
	defer rows.Close()

	var entries []tidy.PlanEntry
	for rows.Next() {
		e, err := scanPlanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating plan entries: %w", err)
	}
	return entries, nil
}

func (s *SQLiteStore) PlanStatusCounts() (map[tidy.PlanStatus]int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.QueryContext(context.Background(),
		"SELECT status, COUNT(*) FROM plan_entries GROUP BY status")
	if err != nil {
		return nil, fmt.Errorf("counting plan entries: %w", err)
	}
	defer rows.Close()

	counts := make(map[tidy.PlanStatus]int)
	for rows.Next() {
		var raw string
		var n int
		if err := rows.Scan(&raw, &n); err != nil {
			return nil, fmt.Errorf("scanning plan count: %w", err)
		}
		status, err := tidy.ParsePlanStatus(raw)
		if err != nil {
			return nil, fmt.Errorf("decoding plan count: %w", err)
		}
		counts[status] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating plan counts: %w", err)
	}
	return counts, nil
}

func (s *SQLiteStore) UpdatePlanStatus(id int64, status tidy.PlanStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(context.Background(),
		"UPDATE plan_entries SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?",
		status.String(), id)
	if err != nil {
		return fmt.Errorf("updating plan status: %w", err)
	}
	return nil
}

// Operation log

func (s *SQLiteStore) AppendOperationLog(log tidy.OperationLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(context.Background(),
		"INSERT INTO operation_logs (plan_entry_id, operation, status, error) VALUES (?, ?, ?, ?)",
		log.PlanEntryID, log.Operation, log.Status, nullableString(log.Error))
	if err != nil {
		return fmt.Errorf("appending operation log: %w", err)
	}
	return nil
}

func (s *SQLiteStore) OperationLogs(limit int) ([]tidy.OperationLog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := "SELECT id, plan_entry_id, operation, status, error, created_at FROM operation_logs ORDER BY id DESC"
	var args []any
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(context.Background(), query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying operation logs: %w", err)
	}
	defer rows.Close()

	var logs []tidy.OperationLog
	for rows.Next() {
		var l tidy.OperationLog
		var errText sql.NullString
		if err := rows.Scan(&l.ID, &l.PlanEntryID, &l.Operation, &l.Status, &errText, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning operation log: %w", err)
		}
		l.Error = errText.String
		logs = append(logs, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating operation logs: %w", err)
	}
	return logs, nil
}

func (s *SQLiteStore) ClearOperationLogs() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.ExecContext(context.Background(), "DELETE FROM operation_logs"); err != nil {
		return fmt.Errorf("clearing operation logs: %w", err)
	}
	return nil
}

// Metadata

func (s *SQLiteStore) SetMeta(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(context.Background(),
		"INSERT OR REPLACE INTO app_meta (key, value) VALUES (?, ?)", key, value)
	if err != nil {
		return fmt.Errorf("setting meta %s: %w", key, err)
	}
	return nil
}

func (s *SQLiteStore) GetMeta(key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var value string
	err := s.db.QueryRowContext(context.Background(),
		"SELECT value FROM app_meta WHERE key = ?", key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("getting meta %s: %w", key, err)
	}
	return value, true, nil
}

func (s *SQLiteStore) Meta() (map[string]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.QueryContext(context.Background(), "SELECT key, value FROM app_meta")
	if err != nil {
		return nil, fmt.Errorf("querying meta: %w", err)
	}
	defer rows.Close()

	meta := make(map[string]string)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, fmt.Errorf("scanning meta: %w", err)
		}
		meta[k] = v
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating meta: %w", err)
	}
	return meta, nil
}

// Maintenance

// Path returns the database file path (or ":memory:" for in-memory databases).
func (s *SQLiteStore) Path() string {
	return s.path
}

// CheckMigrations verifies the database schema is up-to-date.
func (s *SQLiteStore) CheckMigrations() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return migrations.CheckDBMigrationStatus(s.db)
}

// BackupTo creates a complete copy of the database at destPath using VACUUM INTO.
// destPath must not exist.
func (s *SQLiteStore) BackupTo(destPath string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.Exec("VACUUM INTO ?", destPath); err != nil {
		return fmt.Errorf("backing up database: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Row helpers

type rowScanner interface {
	Scan(dest ...any) error
}

func scanInventoryRecord(r rowScanner) (tidy.InventoryRecord, error) {
	var rec tidy.InventoryRecord
	var size int64
	var strong, captured, model, make_, artist sql.NullString
	var dup int

	err := r.Scan(&rec.ID, &rec.FileHash, &strong, &size, &rec.FileName, &rec.RelativePath,
		&captured, &rec.ModifiedAt, &model, &make_, &artist, &dup)
	if err != nil {
		return rec, fmt.Errorf("scanning inventory record: %w", err)
	}

	if size < 0 {
		return rec, fmt.Errorf("negative file size in inventory for %s", rec.RelativePath)
	}
	rec.FileSize = uint64(size)
	rec.StrongHash = strong.String
	rec.CapturedAt = captured.String
	rec.ExifModel = model.String
	rec.ExifMake = make_.String
	rec.ExifArtist = artist.String
	rec.IsDuplicate = dup != 0
	return rec, nil
}

func scanPlanEntry(r rowScanner) (tidy.PlanEntry, error) {
	var e tidy.PlanEntry
	var size int64
	var dup int
	var status string

	err := r.Scan(&e.ID, &e.FileHash, &size, &e.OriginFileName, &e.OriginFullPath,
		&e.TargetPath, &e.TargetFileName, &dup, &status)
	if err != nil {
		return e, fmt.Errorf("scanning plan entry: %w", err)
	}

	if size < 0 {
		return e, fmt.Errorf("negative file size in plan entry %d", e.ID)
	}
	e.FileSize = uint64(size)
	e.IsDuplicate = dup != 0

	e.Status, err = tidy.ParsePlanStatus(status)
	if err != nil {
		return e, fmt.Errorf("decoding plan entry %d: %w", e.ID, err)
	}
	return e, nil
}

func encodeSize(size uint64) (int64, error) {
	if size > math.MaxInt64 {
		return 0, fmt.Errorf("%w: %d", tidy.ErrSizeOverflow, size)
	}
	return int64(size), nil
}

func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func makePlaceholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

// Compile-time check that SQLiteStore implements tidy.Store interface
var _ tidy.Store = (*SQLiteStore)(nil)
