package database

import (
	"fmt"
	"os"
	"path/filepath"

	"phototidy/internal/config"
)

// NewStoreFromConfig creates a Store implementation based on the database config type.
func NewStoreFromConfig(cfg *config.Config) (*SQLiteStore, error) {
	switch cfg.Database.Type {
	case "sqlite":
		if cfg.Database.DataDir == "" && cfg.DataDir == "" {
			return nil, fmt.Errorf("data_dir required for sqlite database")
		}
		path := cfg.DatabasePath()
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
		return NewSQLiteStore(path)
	case "memory":
		return NewSQLiteStore(":memory:")
	default:
		return nil, fmt.Errorf("unknown database type: %s", cfg.Database.Type)
	}
}
