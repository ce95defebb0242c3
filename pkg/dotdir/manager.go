// Package dotdir manages the .arbor/ and ~/.arbor directories.
//
// The directory holds the persistent configuration and the ingest
// session state carried between CLI invocations.
package dotdir

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	// dirName is the name of the arbor directory.
	dirName = ".arbor"
)

type Manager struct{}

func NewManager() *Manager {
	return &Manager{}
}

// Target returns the target absolute path to a .arbor/ directory.
// Order of precedence is as follows:
//  1. Provided override (created if missing)
//  2. Local ./.arbor/ dir
//  3. Home ~/.arbor/ dir
//
// When none resolve, the empty string is returned without error and
// callers fall back to defaults-only behavior.
func (m *Manager) Target(overrideDir string) (string, error) {
	if overrideDir != "" {
		if err := os.MkdirAll(overrideDir, 0o755); err != nil {
			return "", fmt.Errorf("creating arbor directory %s: %w", overrideDir, err)
		}
		return filepath.Abs(overrideDir)
	}

	if dir, ok := m.localDir(); ok {
		return filepath.Abs(dir)
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	dir := filepath.Join(home, dirName)
	if info, err := os.Stat(dir); err == nil && info.IsDir() {
		return filepath.Abs(dir)
	}

	return "", nil
}

// localDir reports a .arbor/ directory in the current working
// directory.
func (m *Manager) localDir() (string, bool) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", false
	}

	dir := filepath.Join(cwd, dirName)
	info, err := os.Stat(dir)
	return dir, err == nil && info.IsDir()
}
