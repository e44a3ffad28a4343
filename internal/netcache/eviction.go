// eviction.go — LRU eviction under count and size pressure.
// Runs before every put. Two independent pressure signals; entries leave
// oldest-access-first until both signals clear. A single removal may not
// free enough size when bodies vary widely, so both signals re-evaluate
// after each removal.
package netcache

// underPressureLocked reports whether either ceiling is reached.
// Caller must hold mu.
func (s *Store) underPressureLocked() bool {
	return len(s.entries) >= s.maxEntries || s.sizeTotal >= s.maxSizeBytes
}

// evictLocked removes least-recently-accessed entries until both
// pressure signals clear or the store is empty. Ties on LastAccess
// break by ascending key so eviction order is deterministic.
// Caller must hold mu.
func (s *Store) evictLocked() {
	for s.underPressureLocked() && len(s.entries) > 0 {
		s.removeLocked(s.oldestKeyLocked())
	}
}

// oldestKeyLocked returns the key with the smallest LastAccess.
// Caller must hold mu and guarantee the store is non-empty.
func (s *Store) oldestKeyLocked() string {
	var oldestKey string
	var haveOldest bool
	for key, entry := range s.entries {
		if !haveOldest {
			oldestKey, haveOldest = key, true
			continue
		}
		oldest := s.entries[oldestKey]
		if entry.LastAccess.Before(oldest.LastAccess) ||
			(entry.LastAccess.Equal(oldest.LastAccess) && key < oldestKey) {
			oldestKey = key
		}
	}
	return oldestKey
}
