package config

import (
	"os"
	"path/filepath"
)

// Dir returns ~/.csrv.
func Dir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, ".csrv"), nil
}

// DefaultPath returns ~/.csrv/config.yaml, or a relative config.yaml when
// the home directory is unknown.
func DefaultPath() string {
	dir, err := Dir()
	if err != nil {
		return "config.yaml"
	}
	return filepath.Join(dir, "config.yaml")
}
