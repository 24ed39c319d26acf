// Package config reads the persisted settings the core consumes but does
// not own: the selected account index and a couple of import preferences.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Settings is the on-disk configuration.
type Settings struct {
	// Account is the authuser index used for token acquisition and
	// notebook URL construction.
	Account int `yaml:"account"`
	// BatchSize overrides the per-batch url count for bulk imports.
	BatchSize int `yaml:"batch_size"`
	// AutoOpenNotebook prints the notebook URL after a successful import.
	AutoOpenNotebook bool `yaml:"auto_open_notebook"`
}

// Default returns the settings used when no file exists.
func Default() Settings {
	return Settings{BatchSize: 10}
}

// DefaultPath returns the standard settings location.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".nlmbulk", "config.yaml")
}

// Load reads settings from path. A missing file yields the defaults; a
// present but malformed file is an error so a typo never silently reverts
// the user to defaults.
func Load(path string) (Settings, error) {
	s := Default()
	if path == "" {
		return s, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return s, fmt.Errorf("read config: %w", err)
	}

	if err := yaml.Unmarshal(data, &s); err != nil {
		return Default(), fmt.Errorf("parse config: %w", err)
	}
	if s.BatchSize <= 0 {
		s.BatchSize = Default().BatchSize
	}
	if s.Account < 0 {
		s.Account = 0
	}
	return s, nil
}

// Save writes settings to path, creating the directory if needed.
func Save(path string, s Settings) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
