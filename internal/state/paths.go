// Package state centralizes filesystem locations for testcache runtime artifacts.
package state

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	// StateDirEnv overrides the default runtime state root.
	StateDirEnv = "TESTCACHE_STATE_DIR"

	xdgStateHomeEnv = "XDG_STATE_HOME"
	appName         = "testcache"
)

// RootDir returns the runtime state root for the cache layer.
// Resolution order:
//  1. TESTCACHE_STATE_DIR (if set)
//  2. XDG_STATE_HOME/testcache (if XDG_STATE_HOME is set)
//  3. os.UserConfigDir()/testcache (cross-platform fallback)
func RootDir() (string, error) {
	if override := strings.TrimSpace(os.Getenv(StateDirEnv)); override != "" {
		return filepath.Abs(override)
	}

	if xdg := strings.TrimSpace(os.Getenv(xdgStateHomeEnv)); xdg != "" {
		root, err := filepath.Abs(xdg)
		if err != nil {
			return "", err
		}
		return filepath.Join(root, appName), nil
	}

	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine user config directory: %w", err)
	}
	return filepath.Join(configDir, appName), nil
}

// InRoot joins parts beneath RootDir.
func InRoot(parts ...string) (string, error) {
	root, err := RootDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(append([]string{root}, parts...)...), nil
}

// SnapshotFile returns the default persisted snapshot location.
func SnapshotFile() (string, error) {
	return InRoot("snapshot.json")
}

// SnapshotDatabase returns the default SQLite snapshot location.
func SnapshotDatabase() (string, error) {
	return InRoot("snapshot.sqlite3")
}
