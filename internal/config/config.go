package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// DatabaseFileName is the SQLite file created under the database data dir.
const DatabaseFileName = "phototidy.sqlite3"

// Config represents the main configuration for phototidy.
type Config struct {
	HomeDir    string           `toml:"home_dir"`
	DataDir    string           `toml:"data_dir"`
	LogDir     string           `toml:"log_dir"`
	Library    LibraryConfig    `toml:"library"`
	Scan       ScanConfig       `toml:"scan"`
	Database   DatabaseConfig   `toml:"database"`
	Encryption EncryptionConfig `toml:"encryption"`
}

// LibraryConfig describes where media is read from and where it is organized to.
// Relative roots are resolved against HomeDir, except SampleImageRoot which is
// resolved against the working directory and, when set, replaces ImageRoot.
type LibraryConfig struct {
	ImageRoot        string   `toml:"image_root"`
	SampleImageRoot  string   `toml:"sample_image_root,omitempty"`
	OutputRoot       string   `toml:"output_root"`
	DuplicatesFolder string   `toml:"duplicates_folder"`
	PlanSnapshotName string   `toml:"plan_snapshot_name"`
	OriginInfoName   string   `toml:"origin_info_name"`
	ImageExts        []string `toml:"image_exts"`
}

// ScanConfig tunes the scanner.
type ScanConfig struct {
	Workers int      `toml:"workers"` // hashing concurrency; 0 means one per CPU
	Ignore  []string `toml:"ignore"`
}

// DatabaseConfig represents configuration for the inventory database.
// This uses a tagged union pattern - the Type field determines which other fields are relevant.
type DatabaseConfig struct {
	Type    string `toml:"type"`               // "sqlite" or "memory"
	DataDir string `toml:"data_dir,omitempty"` // only used for type=sqlite
}

// EncryptionConfig holds paths to the age key pair used for database backups.
type EncryptionConfig struct {
	Type           string `toml:"type"` // "age" or "none"
	PublicKeyPath  string `toml:"public_key_path,omitempty"`
	PrivateKeyPath string `toml:"private_key_path,omitempty"`
}

// DefaultImageExts are the extensions scanned when a new config is created.
var DefaultImageExts = []string{".jpg", ".jpeg", ".png", ".heic", ".gif", ".mov", ".mp4"}

// NewConfig creates a new Config rooted at homeDir and dataDir with default library settings.
func NewConfig(homeDir, dataDir string) *Config {
	return &Config{
		HomeDir: homeDir,
		DataDir: dataDir,
		LogDir:  filepath.Join(dataDir, "log"),
		Library: LibraryConfig{
			ImageRoot:        "Pictures",
			OutputRoot:       "PhotoTidy",
			DuplicatesFolder: "duplicates",
			PlanSnapshotName: "targetFileStructure.json",
			OriginInfoName:   "originInfo.json",
			ImageExts:        append([]string(nil), DefaultImageExts...),
		},
		Database: DatabaseConfig{Type: "sqlite", DataDir: dataDir},
		Encryption: EncryptionConfig{
			Type:           "age",
			PublicKeyPath:  filepath.Join(dataDir, "keys", "phototidy.pub"),
			PrivateKeyPath: filepath.Join(dataDir, "keys", "phototidy.key"),
		},
	}
}

// Paths holds the absolute locations derived from a Config.
type Paths struct {
	ScanRoot         string
	OutputRoot       string
	DuplicatesDir    string
	PlanSnapshotPath string
	OriginInfoPath   string
	Extensions       map[string]bool
}

// Derive resolves the library settings into absolute paths and a normalized
// extension set (lowercase, dot-prefixed).
func (c *Config) Derive() (*Paths, error) {
	lib := c.Library
	if lib.OutputRoot == "" {
		return nil, fmt.Errorf("library.output_root is required")
	}
	if lib.DuplicatesFolder == "" {
		return nil, fmt.Errorf("library.duplicates_folder is required")
	}

	var scanRoot string
	switch {
	case lib.SampleImageRoot != "":
		abs, err := filepath.Abs(lib.SampleImageRoot)
		if err != nil {
			return nil, fmt.Errorf("resolving sample_image_root: %w", err)
		}
		scanRoot = abs
	case lib.ImageRoot != "":
		scanRoot = c.resolve(lib.ImageRoot)
	default:
		return nil, fmt.Errorf("library.image_root is required")
	}

	exts := make(map[string]bool, len(lib.ImageExts))
	for _, ext := range lib.ImageExts {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		exts[ext] = true
	}
	if len(exts) == 0 {
		return nil, fmt.Errorf("library.image_exts must list at least one extension")
	}

	outputRoot := c.resolve(lib.OutputRoot)
	p := &Paths{
		ScanRoot:      scanRoot,
		OutputRoot:    outputRoot,
		DuplicatesDir: filepath.Join(outputRoot, lib.DuplicatesFolder),
		Extensions:    exts,
	}
	if lib.PlanSnapshotName != "" {
		p.PlanSnapshotPath = filepath.Join(outputRoot, lib.PlanSnapshotName)
	}
	if lib.OriginInfoName != "" {
		p.OriginInfoPath = filepath.Join(outputRoot, lib.OriginInfoName)
	}
	return p, nil
}

// DatabasePath returns the SQLite file location, or "" for non-file databases.
func (c *Config) DatabasePath() string {
	if c.Database.Type != "sqlite" {
		return ""
	}
	dir := c.Database.DataDir
	if dir == "" {
		dir = c.DataDir
	}
	return filepath.Join(dir, DatabaseFileName)
}

func (c *Config) resolve(p string) string {
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Join(c.HomeDir, p)
}

// Manager handles reading and writing configuration.
type Manager struct{}

// Read decodes a Config from the provided reader.
func (m *Manager) Read(r io.Reader) (*Config, error) {
	var cfg Config
	if _, err := toml.NewDecoder(r).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return &cfg, nil
}

// Write encodes a Config to the provided writer.
func (m *Manager) Write(w io.Writer, cfg *Config) error {
	if err := toml.NewEncoder(w).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}

// ReadFromFile reads a Config from the specified file path.
func ReadFromFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	cfg, err := m.Read(f)
	if err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}
	return cfg, nil
}

func writeToFile(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	if err := m.Write(f, cfg); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

// Init writes cfg to path. It refuses to overwrite an existing file.
func Init(path string, cfg *Config) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := writeToFile(path, cfg); err != nil {
		return fmt.Errorf("initializing config: %w", err)
	}
	return nil
}
