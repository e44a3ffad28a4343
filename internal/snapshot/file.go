// file.go — JSON file snapshot backend (the default).
// Writes atomically via temp file + rename so a crash mid-flush never
// leaves a truncated snapshot behind.
package snapshot

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// FileStore persists the mapping as a single pretty-printed JSON file.
type FileStore struct {
	path string
}

var _ Store = (*FileStore)(nil)

// NewFileStore creates a FileStore writing to path. The parent
// directory is created on first Save, not here.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the snapshot file location.
func (f *FileStore) Path() string { return f.path }

// Load reads and decodes the snapshot file. A missing file is an empty
// snapshot; a malformed one is an error for the caller to downgrade.
func (f *FileStore) Load(_ context.Context) (map[string]Record, error) {
	// #nosec G304 -- path comes from trusted configuration, not request input
	data, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]Record{}, nil
		}
		return nil, fmt.Errorf("could not read snapshot %s: %w", f.path, err)
	}

	records := map[string]Record{}
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("could not parse snapshot %s: %w", f.path, err)
	}
	return records, nil
}

// Save writes the full mapping atomically.
func (f *FileStore) Save(_ context.Context, records map[string]Record) error {
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("could not encode snapshot: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(f.path), 0o755); err != nil {
		return fmt.Errorf("could not create snapshot directory: %w", err)
	}
	tmpPath := f.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o600); err != nil {
		return fmt.Errorf("could not write snapshot: %w", err)
	}
	if err := os.Rename(tmpPath, f.path); err != nil {
		return fmt.Errorf("could not move snapshot into place: %w", err)
	}
	return nil
}

// Clear deletes the snapshot file. Missing file is not an error.
func (f *FileStore) Clear(_ context.Context) error {
	if err := os.Remove(f.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("could not remove snapshot %s: %w", f.path, err)
	}
	return nil
}
