// snapshot.go — Persistence contract for the interception cache.
// A snapshot is the full key → record mapping, read once at process
// start and written at most once at process end. Backends must treat
// an absent snapshot as empty and must never be load-bearing for
// correctness: the cache degrades to in-memory-only on any failure.
package snapshot

import (
	"context"
	"time"
)

// Record is the persisted form of one cached response. Body is raw
// bytes; the JSON backend stores it base64-encoded via encoding/json's
// []byte handling.
type Record struct {
	Status     int                 `json:"status"`
	Headers    map[string][]string `json:"headers,omitempty"`
	Body       []byte              `json:"body,omitempty"`
	LastAccess time.Time           `json:"last_access,omitempty"`
}

// Store persists the full cache mapping. Implementations: File (default),
// SQLite, Redis.
type Store interface {
	// Load reads the persisted mapping. A missing snapshot yields an
	// empty map and nil error; a corrupt one yields an error the caller
	// downgrades to a warning.
	Load(ctx context.Context) (map[string]Record, error)

	// Save replaces the persisted mapping with records.
	Save(ctx context.Context, records map[string]Record) error

	// Clear removes the persisted mapping entirely.
	Clear(ctx context.Context) error
}
