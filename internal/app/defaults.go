package app

import (
	"fmt"
	"os"
	"path/filepath"
)

// GetDefaults returns application default paths, checking environment variables first.
// Environment variables:
//   - PHOTOTIDY_CONFIG_PATH: config file location (default: ~/.config/phototidy.toml)
//   - PHOTOTIDY_HOME: directory relative library roots resolve against (default: ~)
//   - PHOTOTIDY_DATA_DIR: database, keys and logs (default: ~/.local/share/phototidy)
func GetDefaults() (map[string]string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("cannot determine home directory: %w", err)
	}

	configPath := envOr("PHOTOTIDY_CONFIG_PATH", filepath.Join(homeDir, ".config", "phototidy.toml"))
	libraryHome := envOr("PHOTOTIDY_HOME", homeDir)
	dataDir := envOr("PHOTOTIDY_DATA_DIR", filepath.Join(homeDir, ".local", "share", "phototidy"))

	return map[string]string{
		"config_path": configPath,
		"home_dir":    libraryHome,
		"data_dir":    dataDir,
		"log_dir":     filepath.Join(dataDir, "log"),
	}, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
