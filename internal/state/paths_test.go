package state

import (
	"path/filepath"
	"strings"
	"testing"
)

func TestRootDirEnvOverride(t *testing.T) {
	t.Setenv(StateDirEnv, "/tmp/testcache-override")

	root, err := RootDir()
	if err != nil {
		t.Fatalf("RootDir: %v", err)
	}
	if root != "/tmp/testcache-override" {
		t.Errorf("root = %q, want the override", root)
	}
}

func TestRootDirXDGFallback(t *testing.T) {
	t.Setenv(StateDirEnv, "")
	t.Setenv("XDG_STATE_HOME", "/tmp/xdg-state")

	root, err := RootDir()
	if err != nil {
		t.Fatalf("RootDir: %v", err)
	}
	if root != filepath.Join("/tmp/xdg-state", "testcache") {
		t.Errorf("root = %q, want XDG_STATE_HOME/testcache", root)
	}
}

func TestSnapshotFileUnderRoot(t *testing.T) {
	t.Setenv(StateDirEnv, "/tmp/testcache-root")

	path, err := SnapshotFile()
	if err != nil {
		t.Fatalf("SnapshotFile: %v", err)
	}
	if !strings.HasPrefix(path, "/tmp/testcache-root") || filepath.Base(path) != "snapshot.json" {
		t.Errorf("path = %q, want snapshot.json under the state root", path)
	}
}
