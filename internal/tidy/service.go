package tidy

// Options carries the resolved library layout the stages operate on.
type Options struct {
	// ScanRoot is the absolute directory scanned for media.
	ScanRoot string
	// Extensions holds lowercased, dot-prefixed extensions to include, e.g. ".jpg".
	Extensions map[string]bool
	// OutputRoot is the parent of the date bucket directories.
	OutputRoot string
	// DuplicatesDir receives every record flagged as duplicate.
	DuplicatesDir string
	// PlanSnapshotPath is where the plan JSON export is written.
	PlanSnapshotPath string
}

// TidyService runs the scan, plan, execute and undo stages.
// It holds no state between calls: every stage starts from the store.
type TidyService struct {
	store  Store
	fsmgr  FileManager
	hasher Hasher
	meta   MetadataReader
	runner TaskRunner
	logger Logger
	clock  Clock
	opts   Options
}

// NewTidyService creates a new TidyService with the provided dependencies.
func NewTidyService(store Store, fsmgr FileManager, hasher Hasher, meta MetadataReader, runner TaskRunner, logger Logger, clock Clock, opts Options) *TidyService {
	if logger == nil {
		logger = NewNopLogger()
	}
	if clock == nil {
		clock = RealClock{}
	}
	return &TidyService{
		store:  store,
		fsmgr:  fsmgr,
		hasher: hasher,
		meta:   meta,
		runner: runner,
		logger: logger,
		clock:  clock,
		opts:   opts,
	}
}

func reporterOrNop(p ProgressReporter) ProgressReporter {
	if p == nil {
		return NopProgress{}
	}
	return p
}
