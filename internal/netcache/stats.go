// stats.go — Run counters for the interception cache layer.
// One Stats value is shared by the store, the dedup registry and the
// coordinator; the host reads a snapshot at run end for its report.
package netcache

import "sync/atomic"

// Stats holds the layer's counters. Counters are monotonic for the
// lifetime of a run and are never reset mid-run.
type Stats struct {
	Hits       atomic.Int64 // cache reads served from the store
	Misses     atomic.Int64 // cache reads that found nothing
	Writes     atomic.Int64 // snapshot flush events (not individual puts)
	Evictions  atomic.Int64 // entries removed by pressure or expiry
	Blocked    atomic.Int64 // requests aborted by the classification filter
	Unique     atomic.Int64 // upstream fetches actually scheduled
	Duplicates atomic.Int64 // requests coalesced onto an in-flight fetch
}

// StatsSnapshot is a point-in-time copy of all counters for reporting.
type StatsSnapshot struct {
	Hits       int64 `json:"hits"`
	Misses     int64 `json:"misses"`
	Writes     int64 `json:"writes"`
	Evictions  int64 `json:"evictions"`
	Blocked    int64 `json:"blocked"`
	Unique     int64 `json:"unique"`
	Duplicates int64 `json:"duplicates"`
}

// Snapshot returns a consistent-enough copy of the counters.
// Individual loads are atomic; cross-counter skew is acceptable for reporting.
func (s *Stats) Snapshot() StatsSnapshot {
	return StatsSnapshot{
		Hits:       s.Hits.Load(),
		Misses:     s.Misses.Load(),
		Writes:     s.Writes.Load(),
		Evictions:  s.Evictions.Load(),
		Blocked:    s.Blocked.Load(),
		Unique:     s.Unique.Load(),
		Duplicates: s.Duplicates.Load(),
	}
}
