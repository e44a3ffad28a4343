// store.go — Bounded request/response cache keyed by normalized request key.
// Owns the entry map, the dirty flag and a running byte-size total;
// enforcement of the count and size ceilings lives in eviction.go.
// Thread-safe: all access guarded by one mutex. There is no suspension
// point between the pressure check and a removal, so eviction decisions
// are never interleaved with other writers.
package netcache

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/arun-kumar-codes/testcache/internal/snapshot"
)

const (
	// DefaultMaxEntries bounds the number of live cache entries.
	DefaultMaxEntries = 100
	// DefaultMaxSizeBytes bounds the estimated total cache size.
	DefaultMaxSizeBytes = 50 * 1024 * 1024

	// entryOverhead is the fixed per-entry memory estimate on top of
	// body and header bytes (map/struct bookkeeping).
	entryOverhead = 200
)

// Entry is one cached response. Immutable after insertion except for
// LastAccess, which the store bumps on every read hit.
type Entry struct {
	Key        string
	Status     int
	Headers    map[string][]string
	Body       []byte
	LastAccess time.Time
}

// entryMemory returns the byte-size estimate for one entry.
func entryMemory(e *Entry) int64 {
	total := int64(len(e.Key)) + entryOverhead
	total += int64(len(e.Body))
	for name, values := range e.Headers {
		total += int64(len(name))
		for _, v := range values {
			total += int64(len(v))
		}
	}
	return total
}

// Store is the process-wide cache for one test run. Create it via
// NewStore and pass it by handle; there is deliberately no package-level
// instance, so parallel test workers can each own an independent cache.
type Store struct {
	mu        sync.Mutex
	entries   map[string]*Entry
	sizeTotal int64 // running estimate, kept consistent by put/evict/load
	dirty     bool

	maxEntries   int
	maxSizeBytes int64

	stats *Stats
	now   func() time.Time
}

// NewStore creates an empty store enforcing the given ceilings.
// Non-positive ceilings fall back to the defaults.
func NewStore(maxEntries int, maxSizeBytes int64, stats *Stats) *Store {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	if maxSizeBytes <= 0 {
		maxSizeBytes = DefaultMaxSizeBytes
	}
	if stats == nil {
		stats = &Stats{}
	}
	return &Store{
		entries:      make(map[string]*Entry),
		maxEntries:   maxEntries,
		maxSizeBytes: maxSizeBytes,
		stats:        stats,
		now:          time.Now,
	}
}

// Stats returns the shared counters.
func (s *Store) Stats() *Stats { return s.stats }

// Get looks up key. On hit it bumps LastAccess and counts a hit; on
// miss it counts a miss. The returned entry shares its body and header
// storage with the store; callers must treat it as read-only.
func (s *Store) Get(key string) (Entry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[key]
	if !ok {
		s.stats.Misses.Add(1)
		return Entry{}, false
	}
	entry.LastAccess = s.now()
	s.stats.Hits.Add(1)
	return *entry, true
}

// Put inserts or overwrites the entry for key with LastAccess = now and
// marks the store dirty. The eviction check runs before insertion.
// Callers only pass responses with status in [200,400); the store does
// not re-check.
func (s *Store) Put(key string, status int, headers map[string][]string, body []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.evictLocked()

	if old, ok := s.entries[key]; ok {
		s.sizeTotal -= entryMemory(old)
	}
	entry := &Entry{
		Key:        key,
		Status:     status,
		Headers:    headers,
		Body:       body,
		LastAccess: s.now(),
	}
	s.entries[key] = entry
	s.sizeTotal += entryMemory(entry)
	s.dirty = true
}

// Len returns the live entry count.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// SizeBytes returns the running byte-size estimate. Kept incrementally
// consistent with content by put, eviction, expiry and load.
func (s *Store) SizeBytes() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sizeTotal
}

// Dirty reports whether in-memory state diverges from the last
// persisted snapshot.
func (s *Store) Dirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dirty
}

// Clear drops every entry and marks the store dirty when anything was
// removed.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.entries) == 0 {
		return
	}
	s.entries = make(map[string]*Entry)
	s.sizeTotal = 0
	s.dirty = true
}

// RemoveExpired drops entries whose last access is at least ttl ago and
// returns how many were removed. Removals count as evictions. A zero or
// negative ttl disables expiry.
func (s *Store) RemoveExpired(ttl time.Duration) int {
	if ttl <= 0 {
		return 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.now().Add(-ttl)
	removed := 0
	for key, entry := range s.entries {
		if !entry.LastAccess.After(cutoff) {
			s.removeLocked(key)
			removed++
		}
	}
	return removed
}

// LoadFrom populates the store from a persisted snapshot. Records
// missing a last-access time are assigned the current time. Any load
// failure degrades to an empty store with a warning; it is never fatal.
// Loading does not mark the store dirty.
func (s *Store) LoadFrom(ctx context.Context, snap snapshot.Store) {
	records, err := snap.Load(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "[testcache] Warning: could not load snapshot, starting empty: %v\n", err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	for key, rec := range records {
		lastAccess := rec.LastAccess
		if lastAccess.IsZero() {
			lastAccess = now
		}
		entry := &Entry{
			Key:        key,
			Status:     rec.Status,
			Headers:    rec.Headers,
			Body:       rec.Body,
			LastAccess: lastAccess,
		}
		s.entries[key] = entry
		s.sizeTotal += entryMemory(entry)
	}
}

// FlushTo persists the store. No-op unless dirty. On success the dirty
// flag clears and the flush counts as one write. Errors are returned
// for the caller to report as a warning; the store stays dirty so a
// later flush can retry.
func (s *Store) FlushTo(ctx context.Context, snap snapshot.Store) error {
	s.mu.Lock()
	if !s.dirty {
		s.mu.Unlock()
		return nil
	}
	records := make(map[string]snapshot.Record, len(s.entries))
	for key, entry := range s.entries {
		records[key] = snapshot.Record{
			Status:     entry.Status,
			Headers:    entry.Headers,
			Body:       entry.Body,
			LastAccess: entry.LastAccess,
		}
	}
	s.mu.Unlock()

	if err := snap.Save(ctx, records); err != nil {
		return fmt.Errorf("could not flush cache snapshot: %w", err)
	}

	s.mu.Lock()
	s.dirty = false
	s.mu.Unlock()
	s.stats.Writes.Add(1)
	return nil
}

// removeLocked deletes key, adjusts the size total, and records the
// eviction. Caller must hold mu and must pass a live key.
func (s *Store) removeLocked(key string) {
	entry := s.entries[key]
	s.sizeTotal -= entryMemory(entry)
	delete(s.entries, key)
	s.stats.Evictions.Add(1)
	s.dirty = true
}
