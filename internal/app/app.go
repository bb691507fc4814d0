package app

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"phototidy/internal/config"
	"phototidy/internal/database"
	"phototidy/internal/encryption"
	"phototidy/internal/exif"
	"phototidy/internal/fs"
	"phototidy/internal/hash"
	"phototidy/internal/tidy"
	"phototidy/internal/workers"
)

// Options controls how a TidyApp is opened.
type Options struct {
	// Mutating takes the data-dir lock for the lifetime of the app.
	Mutating bool
	// Verbose mirrors the log to stderr and enables debug records.
	Verbose bool
}

// TidyApp is the application layer between the CLI and TidyService.
// It constructs all dependencies from config, exposes high-level operations,
// and releases the database, worker pool and lock on Close.
type TidyApp struct {
	cfg       *config.Config
	paths     *config.Paths
	store     *database.SQLiteStore
	fsmgr     *fs.OSFileManager
	pool      *workers.Pool
	encryptor encryption.Encryptor
	service   *tidy.TidyService
	lock      *DataLock
	run       *Run
	clock     tidy.Clock
	logger    tidy.Logger
	logFile   *os.File
}

// NewTidyApp creates a fully wired TidyApp from the given config.
// command names the CLI command being run (e.g. "scan", "execute").
// The caller must call Close when done.
func NewTidyApp(cfg *config.Config, command string, opts Options) (*TidyApp, error) {
	paths, err := cfg.Derive()
	if err != nil {
		return nil, fmt.Errorf("resolving library paths: %w", err)
	}

	clock := tidy.Clock(tidy.RealClock{})
	a := &TidyApp{
		cfg:   cfg,
		paths: paths,
		clock: clock,
		run:   NewRun(command, opts.Mutating, tidy.UUIDGenerator{}, clock),
	}
	ok := false
	defer func() {
		if !ok {
			a.release()
		}
	}()

	if opts.Mutating {
		if cfg.DataDir == "" {
			return nil, fmt.Errorf("data_dir is required")
		}
		if a.lock, err = AcquireLock(cfg.DataDir); err != nil {
			return nil, err
		}
	}

	logDir := cfg.LogDir
	if logDir == "" {
		logDir = filepath.Join(cfg.DataDir, "log")
	}
	slogger, logFile, err := newLogger(logDir, a.run.ID, opts.Verbose)
	if err != nil {
		return nil, fmt.Errorf("creating logger: %w", err)
	}
	a.logFile = logFile
	a.logger = &slogAdapter{l: slogger.With(slog.String("cmd", command))}

	ignore := append([]string(nil), cfg.Scan.Ignore...)
	fromFile, err := fs.ParseIgnoreFile(filepath.Join(paths.ScanRoot, fs.IgnoreFileName))
	if err != nil {
		return nil, fmt.Errorf("reading ignore file: %w", err)
	}
	a.fsmgr = fs.NewOSFileManager(append(ignore, fromFile...))

	if a.pool, err = workers.New(cfg.Scan.Workers, a.logger); err != nil {
		return nil, fmt.Errorf("creating worker pool: %w", err)
	}

	if a.store, err = database.NewStoreFromConfig(cfg); err != nil {
		return nil, fmt.Errorf("creating database: %w", err)
	}
	if err = a.store.CheckMigrations(); err != nil {
		return nil, fmt.Errorf("database schema out of date: %w", err)
	}

	if a.encryptor, err = encryption.NewEncryptorFromConfig(cfg.Encryption); err != nil {
		return nil, fmt.Errorf("creating encryptor: %w", err)
	}

	a.service = a.newService()
	a.logger.Debug("run started", "scan_root", paths.ScanRoot, "output_root", paths.OutputRoot, "workers", a.pool.Size())
	ok = true
	return a, nil
}

func (a *TidyApp) newService() *tidy.TidyService {
	return tidy.NewTidyService(a.store, a.fsmgr, hash.NewFileHasher(), exif.NewReader(a.logger), a.pool, a.logger, a.clock, tidy.Options{
		ScanRoot:         a.paths.ScanRoot,
		Extensions:       a.paths.Extensions,
		OutputRoot:       a.paths.OutputRoot,
		DuplicatesDir:    a.paths.DuplicatesDir,
		PlanSnapshotPath: a.paths.PlanSnapshotPath,
	})
}

// Run returns the descriptor of the current invocation.
func (a *TidyApp) Run() *Run {
	return a.run
}

// Paths returns the resolved library layout.
func (a *TidyApp) Paths() *config.Paths {
	return a.paths
}

// track marks the run failed when err is non-nil and passes err through.
func (a *TidyApp) track(err error) error {
	if err != nil {
		a.run.Fail()
		a.logger.Error("command failed", "error", err)
	}
	return err
}

// Scan refreshes the inventory from the scan root.
func (a *TidyApp) Scan(progress tidy.ProgressReporter) (*tidy.ScanSummary, error) {
	s, err := a.service.Scan(progress)
	return s, a.track(err)
}

// Plan regenerates the plan from the inventory.
func (a *TidyApp) Plan(progress tidy.ProgressReporter) (*tidy.PlanSummary, error) {
	s, err := a.service.Plan(progress)
	return s, a.track(err)
}

// Execute applies the plan. mode is "move" or "copy".
func (a *TidyApp) Execute(mode string, dryRun bool, progress tidy.ProgressReporter) (*tidy.ExecutionSummary, error) {
	m, err := tidy.ParseExecutionMode(mode)
	if err != nil {
		return nil, a.track(err)
	}
	s, err := a.service.Execute(m, dryRun, progress)
	return s, a.track(err)
}

// Undo moves executed files back to their origins.
func (a *TidyApp) Undo(progress tidy.ProgressReporter) (*tidy.UndoSummary, error) {
	s, err := a.service.Undo(progress)
	return s, a.track(err)
}

// Status returns metadata and plan counts.
func (a *TidyApp) Status() (*tidy.StatusReport, error) {
	return a.service.Status()
}

// Logs returns up to limit operation log rows, newest first.
func (a *TidyApp) Logs(limit int) ([]tidy.OperationLog, error) {
	return a.service.OperationLogs(limit)
}

// ClearLogs deletes the operation log.
func (a *TidyApp) ClearLogs() error {
	return a.track(a.service.ClearOperationLogs())
}

// ExportInventory writes the inventory snapshot to the configured origin-info
// path, or to dest when it is non-empty. It returns the path written and the
// number of records.
func (a *TidyApp) ExportInventory(dest string) (string, int, error) {
	if dest == "" {
		dest = a.paths.OriginInfoPath
	}
	if dest == "" {
		return "", 0, fmt.Errorf("no export path: set library.origin_info_name or pass a destination")
	}
	n, err := a.service.ExportInventory(dest)
	return dest, n, a.track(err)
}

// DiskUsage reports free and total space on the output root's filesystem.
func (a *TidyApp) DiskUsage() (*fs.DiskStatus, error) {
	return fs.DiskUsage(a.paths.OutputRoot)
}

// DatabaseInfo describes the inventory database.
type DatabaseInfo struct {
	Path          string `json:"path"`
	SizeBytes     int64  `json:"sizeBytes"`
	SchemaVersion string `json:"schemaVersion"`
	Encryption    string `json:"encryption"`
	KeysPresent   bool   `json:"keysPresent"`
}

// DatabaseStatus returns the location, size and schema version of the database.
func (a *TidyApp) DatabaseStatus() (*DatabaseInfo, error) {
	version, _, err := a.store.GetMeta(tidy.MetaSchemaVersion)
	if err != nil {
		return nil, fmt.Errorf("reading schema version: %w", err)
	}
	info := &DatabaseInfo{
		Path:          a.store.Path(),
		SchemaVersion: version,
		Encryption:    a.encryptionType(),
		KeysPresent:   a.encryptor.IsConfigured(),
	}
	if st, err := os.Stat(info.Path); err == nil {
		info.SizeBytes = st.Size()
	}
	return info, nil
}

func (a *TidyApp) encryptionType() string {
	if a.cfg.Encryption.Type == "" {
		return "age"
	}
	return a.cfg.Encryption.Type
}

// BackupDatabase writes a consistent snapshot of the database to dest. The
// snapshot is sealed when encryption keys are present. It reports whether
// the written file is sealed.
func (a *TidyApp) BackupDatabase(dest string) (sealed bool, err error) {
	defer func() { a.track(err) }()

	tmpDir, err := os.MkdirTemp("", "phototidy-backup-*")
	if err != nil {
		return false, fmt.Errorf("creating temp dir for backup: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	snapshot := filepath.Join(tmpDir, config.DatabaseFileName)
	if err := a.store.BackupTo(snapshot); err != nil {
		return false, err
	}

	src, err := os.Open(snapshot)
	if err != nil {
		return false, fmt.Errorf("opening snapshot: %w", err)
	}
	defer src.Close()

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return false, fmt.Errorf("creating backup directory: %w", err)
	}

	var enc encryption.Encryptor = encryption.NewNoneEncryptor()
	if a.encryptionType() != "none" && a.encryptor.IsConfigured() {
		enc = a.encryptor
		sealed = true
	} else if a.encryptionType() != "none" {
		a.logger.Warn("encryption keys missing, writing plaintext backup", "dest", dest)
	}

	if err := fs.WriteFileAtomic(dest, func(w io.Writer) error {
		return enc.Encrypt(src, w)
	}); err != nil {
		return false, fmt.Errorf("writing backup: %w", err)
	}

	a.logger.Info("database backed up", "dest", dest, "sealed", sealed)
	return sealed, nil
}

// BackupSealed reports whether the backup at path needs a passphrase to restore.
func (a *TidyApp) BackupSealed(path string) (bool, error) {
	return encryption.IsSealed(path)
}

// RestoreDatabase replaces the database with the backup at src. A sealed
// backup is opened with passphrase. The app must have been opened as mutating.
func (a *TidyApp) RestoreDatabase(src, passphrase string) (err error) {
	defer func() { a.track(err) }()

	if a.lock == nil {
		return fmt.Errorf("restore requires the data-dir lock")
	}
	dbPath := a.store.Path()
	if a.cfg.Database.Type != "sqlite" {
		return fmt.Errorf("restore is only supported for sqlite databases")
	}

	sealed, err := encryption.IsSealed(src)
	if err != nil {
		return err
	}

	var dec encryption.DecryptionContext
	if sealed {
		if _, ok := a.encryptor.(*encryption.NoneEncryptor); ok {
			return fmt.Errorf("backup is encrypted but encryption.type is \"none\"")
		}
		if dec, err = a.encryptor.Unlock(passphrase); err != nil {
			return err
		}
	} else {
		dec, _ = encryption.NewNoneEncryptor().Unlock("")
	}

	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("opening backup: %w", err)
	}
	defer in.Close()

	staged := dbPath + ".restore"
	if err := fs.WriteFileAtomic(staged, func(w io.Writer) error {
		return dec.Decrypt(in, w)
	}); err != nil {
		return fmt.Errorf("staging restored database: %w", err)
	}
	defer os.Remove(staged)

	// Opening the staged copy proves it is a usable database and brings its
	// schema up to date before it replaces the live file.
	check, err := database.NewSQLiteStore(staged)
	if err != nil {
		return fmt.Errorf("validating backup: %w", err)
	}
	if err := check.Close(); err != nil {
		return fmt.Errorf("closing validated backup: %w", err)
	}

	err = a.store.Close()
	a.store = nil
	if err != nil {
		return fmt.Errorf("closing database: %w", err)
	}
	for _, suffix := range []string{"-wal", "-shm"} {
		if err := os.Remove(dbPath + suffix); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("removing %s: %w", dbPath+suffix, err)
		}
	}
	if renameErr := os.Rename(staged, dbPath); renameErr != nil {
		if a.store, err = database.NewSQLiteStore(dbPath); err == nil {
			a.service = a.newService()
		}
		return fmt.Errorf("replacing database: %w", renameErr)
	}

	if a.store, err = database.NewSQLiteStore(dbPath); err != nil {
		return fmt.Errorf("reopening database: %w", err)
	}
	a.service = a.newService()
	a.logger.Info("database restored", "src", src, "sealed", sealed)
	return nil
}

// InitKeys generates the backup key pair protected by passphrase.
func (a *TidyApp) InitKeys(passphrase string) error {
	if err := a.encryptor.Setup(passphrase); err != nil {
		return a.track(fmt.Errorf("setting up keys: %w", err))
	}
	a.logger.Info("encryption keys created", "public_key", a.cfg.Encryption.PublicKeyPath)
	return nil
}

// Close logs the run outcome and releases every resource.
func (a *TidyApp) Close() error {
	if a.logger != nil {
		a.logger.Info("run finished", "status", a.run.Status, "elapsed", a.run.Elapsed(a.clock).String())
	}
	return a.release()
}

func (a *TidyApp) release() error {
	var firstErr error

	if a.store != nil {
		if err := a.store.Close(); err != nil {
			firstErr = fmt.Errorf("closing database: %w", err)
		}
		a.store = nil
	}
	if a.pool != nil {
		a.pool.Release()
		a.pool = nil
	}
	if a.lock != nil {
		if err := a.lock.Release(); err != nil && firstErr == nil {
			firstErr = err
		}
		a.lock = nil
	}
	if a.logFile != nil {
		a.logFile.Close()
		a.logFile = nil
	}
	return firstErr
}
