package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

func TestManager_ReadWrite_RoundTrip(t *testing.T) {
	original := &Config{
		HomeDir: "/home/user",
		DataDir: "/home/user/.local/share/phototidy",
		LogDir:  "/home/user/.local/share/phototidy/log",
		Library: LibraryConfig{
			ImageRoot:        "Pictures",
			OutputRoot:       "/mnt/photos",
			DuplicatesFolder: "dups",
			PlanSnapshotName: "plan.json",
			OriginInfoName:   "origin.json",
			ImageExts:        []string{".jpg", ".heic"},
		},
		Scan: ScanConfig{Workers: 3, Ignore: []string{".thumbnails", "*.tmp"}},
		Encryption: EncryptionConfig{
			Type:           "age",
			PublicKeyPath:  "/home/user/.local/share/phototidy/keys/phototidy.pub",
			PrivateKeyPath: "/home/user/.local/share/phototidy/keys/phototidy.key",
		},
		Database: DatabaseConfig{Type: "sqlite", DataDir: "/var/lib/phototidy"},
	}

	var buf bytes.Buffer
	m := &Manager{}

	if err := m.Write(&buf, original); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	got, err := m.Read(&buf)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}

	if got.HomeDir != original.HomeDir {
		t.Errorf("HomeDir = %q, want %q", got.HomeDir, original.HomeDir)
	}
	if got.LogDir != original.LogDir {
		t.Errorf("LogDir = %q, want %q", got.LogDir, original.LogDir)
	}
	if got.Library.OutputRoot != "/mnt/photos" {
		t.Errorf("Library.OutputRoot = %q, want %q", got.Library.OutputRoot, "/mnt/photos")
	}
	if len(got.Library.ImageExts) != 2 {
		t.Fatalf("len(Library.ImageExts) = %d, want 2", len(got.Library.ImageExts))
	}
	if got.Scan.Workers != 3 {
		t.Errorf("Scan.Workers = %d, want 3", got.Scan.Workers)
	}
	if len(got.Scan.Ignore) != 2 {
		t.Errorf("len(Scan.Ignore) = %d, want 2", len(got.Scan.Ignore))
	}
	if got.Database.DataDir != "/var/lib/phototidy" {
		t.Errorf("Database.DataDir = %q, want %q", got.Database.DataDir, "/var/lib/phototidy")
	}
	if got.Encryption.PrivateKeyPath != original.Encryption.PrivateKeyPath {
		t.Errorf("Encryption.PrivateKeyPath = %q, want %q", got.Encryption.PrivateKeyPath, original.Encryption.PrivateKeyPath)
	}
}

func TestNewConfig(t *testing.T) {
	cfg := NewConfig("/home/u", "/data/pt")

	if cfg.LogDir != "/data/pt/log" {
		t.Errorf("LogDir = %q, want %q", cfg.LogDir, "/data/pt/log")
	}
	if cfg.Database.Type != "sqlite" {
		t.Errorf("Database.Type = %q, want sqlite", cfg.Database.Type)
	}
	if cfg.Encryption.PublicKeyPath != "/data/pt/keys/phototidy.pub" {
		t.Errorf("Encryption.PublicKeyPath = %q, want %q", cfg.Encryption.PublicKeyPath, "/data/pt/keys/phototidy.pub")
	}
	if cfg.DatabasePath() != "/data/pt/phototidy.sqlite3" {
		t.Errorf("DatabasePath() = %q, want %q", cfg.DatabasePath(), "/data/pt/phototidy.sqlite3")
	}
}

func TestConfig_Derive(t *testing.T) {
	t.Run("resolves relative roots against home", func(t *testing.T) {
		cfg := NewConfig("/home/u", "/data/pt")
		cfg.Library.ImageExts = []string{"JPG", ".Png", " "}

		p, err := cfg.Derive()
		if err != nil {
			t.Fatalf("Derive() error = %v", err)
		}

		if p.ScanRoot != "/home/u/Pictures" {
			t.Errorf("ScanRoot = %q, want %q", p.ScanRoot, "/home/u/Pictures")
		}
		if p.OutputRoot != "/home/u/PhotoTidy" {
			t.Errorf("OutputRoot = %q, want %q", p.OutputRoot, "/home/u/PhotoTidy")
		}
		if p.DuplicatesDir != "/home/u/PhotoTidy/duplicates" {
			t.Errorf("DuplicatesDir = %q, want %q", p.DuplicatesDir, "/home/u/PhotoTidy/duplicates")
		}
		if p.PlanSnapshotPath != "/home/u/PhotoTidy/targetFileStructure.json" {
			t.Errorf("PlanSnapshotPath = %q", p.PlanSnapshotPath)
		}
		if p.OriginInfoPath != "/home/u/PhotoTidy/originInfo.json" {
			t.Errorf("OriginInfoPath = %q", p.OriginInfoPath)
		}
		if len(p.Extensions) != 2 || !p.Extensions[".jpg"] || !p.Extensions[".png"] {
			t.Errorf("Extensions = %v, want .jpg and .png", p.Extensions)
		}
	})

	t.Run("sample root overrides image root", func(t *testing.T) {
		sample := t.TempDir()
		cfg := NewConfig("/home/u", "/data/pt")
		cfg.Library.SampleImageRoot = sample

		p, err := cfg.Derive()
		if err != nil {
			t.Fatalf("Derive() error = %v", err)
		}
		if p.ScanRoot != sample {
			t.Errorf("ScanRoot = %q, want %q", p.ScanRoot, sample)
		}
	})

	t.Run("absolute output root is kept", func(t *testing.T) {
		cfg := NewConfig("/home/u", "/data/pt")
		cfg.Library.OutputRoot = "/mnt/out/"

		p, err := cfg.Derive()
		if err != nil {
			t.Fatalf("Derive() error = %v", err)
		}
		if p.OutputRoot != "/mnt/out" {
			t.Errorf("OutputRoot = %q, want %q", p.OutputRoot, "/mnt/out")
		}
	})

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing output root", func(c *Config) { c.Library.OutputRoot = "" }},
		{"missing duplicates folder", func(c *Config) { c.Library.DuplicatesFolder = "" }},
		{"missing image root", func(c *Config) { c.Library.ImageRoot = "" }},
		{"no extensions", func(c *Config) { c.Library.ImageExts = nil }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewConfig("/home/u", "/data/pt")
			tt.mutate(cfg)
			if _, err := cfg.Derive(); err == nil {
				t.Error("Derive() expected error, got nil")
			}
		})
	}
}

func TestConfig_DatabasePath(t *testing.T) {
	cfg := NewConfig("/home/u", "/data/pt")
	cfg.Database.DataDir = ""
	if got := cfg.DatabasePath(); got != "/data/pt/phototidy.sqlite3" {
		t.Errorf("DatabasePath() = %q, want fallback to data_dir", got)
	}

	cfg.Database.Type = "memory"
	if got := cfg.DatabasePath(); got != "" {
		t.Errorf("DatabasePath() = %q for memory database, want empty", got)
	}
}

func TestInit(t *testing.T) {
	t.Run("creates config file", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "phototidy.toml")

		if err := Init(path, NewConfig(dir, dir)); err != nil {
			t.Fatalf("Init() error = %v", err)
		}
		if _, err := os.Stat(path); err != nil {
			t.Fatalf("config file not created: %v", err)
		}
	})

	t.Run("fails if file already exists", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "phototidy.toml")
		cfg := NewConfig(dir, dir)

		if err := Init(path, cfg); err != nil {
			t.Fatalf("first Init() error = %v", err)
		}
		if err := Init(path, cfg); err == nil {
			t.Fatal("second Init() expected error")
		}
	})
}

func TestReadFromFile(t *testing.T) {
	t.Run("reads valid config", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "phototidy.toml")
		cfg := NewConfig(dir, dir)
		cfg.Database = DatabaseConfig{Type: "memory"}

		if err := Init(path, cfg); err != nil {
			t.Fatalf("Init() error = %v", err)
		}

		got, err := ReadFromFile(path)
		if err != nil {
			t.Fatalf("ReadFromFile() error = %v", err)
		}
		if got.Database.Type != "memory" {
			t.Errorf("Database.Type = %q, want %q", got.Database.Type, "memory")
		}
		if got.Library.DuplicatesFolder != "duplicates" {
			t.Errorf("Library.DuplicatesFolder = %q, want %q", got.Library.DuplicatesFolder, "duplicates")
		}
	})

	t.Run("returns error for missing file", func(t *testing.T) {
		if _, err := ReadFromFile("/nonexistent/path/phototidy.toml"); err == nil {
			t.Fatal("ReadFromFile() expected error for missing file")
		}
	})
}
