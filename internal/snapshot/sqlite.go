// sqlite.go — SQLite snapshot backend.
// Useful when snapshots grow large enough that rewriting one JSON blob
// per run becomes noticeable; rows replace the whole mapping in a
// single transaction so Load always sees a consistent snapshot.
package snapshot

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	// Registers the "sqlite3" driver.
	_ "github.com/mattn/go-sqlite3"
)

// SQLiteStore persists the mapping in one table keyed by request key.
type SQLiteStore struct {
	db *sql.DB
}

var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore opens (or creates) the database at path and ensures
// the schema exists.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("could not open snapshot database: %w", err)
	}

	const schema = `CREATE TABLE IF NOT EXISTS entries (
		key TEXT PRIMARY KEY,
		status INTEGER NOT NULL,
		headers TEXT NOT NULL,
		body BLOB,
		last_access INTEGER NOT NULL
	)`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("could not create snapshot schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Close releases the database handle.
func (s *SQLiteStore) Close() error { return s.db.Close() }

// Load reads every row into the mapping.
func (s *SQLiteStore) Load(ctx context.Context) (map[string]Record, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT key, status, headers, body, last_access FROM entries")
	if err != nil {
		return nil, fmt.Errorf("could not query snapshot rows: %w", err)
	}
	defer rows.Close()

	records := map[string]Record{}
	for rows.Next() {
		var (
			key        string
			status     int
			headersRaw string
			body       []byte
			lastAccess int64
		)
		if err := rows.Scan(&key, &status, &headersRaw, &body, &lastAccess); err != nil {
			return nil, fmt.Errorf("could not scan snapshot row: %w", err)
		}
		headers, err := decodeHeaders(headersRaw)
		if err != nil {
			return nil, fmt.Errorf("could not decode headers for %q: %w", key, err)
		}
		records[key] = Record{
			Status:     status,
			Headers:    headers,
			Body:       body,
			LastAccess: time.UnixMilli(lastAccess).UTC(),
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("could not iterate snapshot rows: %w", err)
	}
	return records, nil
}

// Save replaces all rows with records in one transaction.
func (s *SQLiteStore) Save(ctx context.Context, records map[string]Record) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("could not begin snapshot transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	if _, err := tx.ExecContext(ctx, "DELETE FROM entries"); err != nil {
		return fmt.Errorf("could not clear snapshot rows: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		"INSERT INTO entries (key, status, headers, body, last_access) VALUES (?, ?, ?, ?, ?)")
	if err != nil {
		return fmt.Errorf("could not prepare snapshot insert: %w", err)
	}
	defer stmt.Close()

	for key, rec := range records {
		headersRaw, err := encodeHeaders(rec.Headers)
		if err != nil {
			return fmt.Errorf("could not encode headers for %q: %w", key, err)
		}
		if _, err := stmt.ExecContext(ctx, key, rec.Status, headersRaw, rec.Body, rec.LastAccess.UnixMilli()); err != nil {
			return fmt.Errorf("could not insert snapshot row for %q: %w", key, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("could not commit snapshot: %w", err)
	}
	return nil
}

// Clear removes every row.
func (s *SQLiteStore) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM entries"); err != nil {
		return fmt.Errorf("could not clear snapshot: %w", err)
	}
	return nil
}
