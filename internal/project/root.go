// Package project locates and parses the kite.toml workspace manifest.
package project

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ManifestName is the workspace manifest file name.
const ManifestName = "kite.toml"

// FindKiteToml walks up from startDir to locate kite.toml.
func FindKiteToml(startDir string) (path string, ok bool, err error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve start directory: %w", err)
	}
	for {
		candidate := filepath.Join(dir, ManifestName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", false, fmt.Errorf("failed to stat %q: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", false, nil
}
