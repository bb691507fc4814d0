package database

import (
	"os"
	"path/filepath"
	"testing"

	"phototidy/internal/config"
)

func TestNewStoreFromConfig(t *testing.T) {
	t.Run("memory database", func(t *testing.T) {
		cfg := &config.Config{Database: config.DatabaseConfig{Type: "memory"}}
		got, err := NewStoreFromConfig(cfg)
		if err != nil {
			t.Fatalf("NewStoreFromConfig() unexpected error: %v", err)
		}
		defer got.Close()

		if got.Path() != ":memory:" {
			t.Errorf("Path() = %q, want :memory:", got.Path())
		}
	})

	t.Run("sqlite database", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "nested", "db")
		cfg := &config.Config{Database: config.DatabaseConfig{Type: "sqlite", DataDir: dir}}
		got, err := NewStoreFromConfig(cfg)
		if err != nil {
			t.Fatalf("NewStoreFromConfig() unexpected error: %v", err)
		}
		defer got.Close()

		want := filepath.Join(dir, config.DatabaseFileName)
		if got.Path() != want {
			t.Errorf("Path() = %q, want %q", got.Path(), want)
		}
		if _, err := os.Stat(want); err != nil {
			t.Errorf("database file not created: %v", err)
		}
	})

	t.Run("sqlite database without data_dir", func(t *testing.T) {
		cfg := &config.Config{Database: config.DatabaseConfig{Type: "sqlite"}}
		got, err := NewStoreFromConfig(cfg)
		if err == nil {
			got.Close()
			t.Fatal("NewStoreFromConfig() expected error for missing data_dir, got nil")
		}
	})

	t.Run("unknown database type", func(t *testing.T) {
		cfg := &config.Config{Database: config.DatabaseConfig{Type: "unknown"}}
		got, err := NewStoreFromConfig(cfg)
		if err == nil {
			got.Close()
			t.Fatal("NewStoreFromConfig() expected error for unknown type, got nil")
		}
	})
}
