// sweeper.go — Scheduled expiry of stale cache entries.
// Cached responses older than the configured TTL (default 30 days)
// leave the store mid-run so soak tests never serve content from a
// previous month's snapshot. Removals count as evictions and mark the
// store dirty, exactly like pressure eviction.
package sweep

import (
	"fmt"
	"os"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/arun-kumar-codes/testcache/internal/netcache"
)

// Sweeper periodically removes expired entries from one store.
type Sweeper struct {
	cron  *cron.Cron
	store *netcache.Store
	ttl   time.Duration
}

// New creates a sweeper for store with the given TTL. A zero TTL
// disables sweeping entirely.
func New(store *netcache.Store, ttl time.Duration) *Sweeper {
	return &Sweeper{
		cron:  cron.New(),
		store: store,
		ttl:   ttl,
	}
}

// Start schedules RunOnce on the given cron spec (e.g. "@every 5m")
// and starts the scheduler. No-op when the TTL is zero.
func (s *Sweeper) Start(schedule string) error {
	if s.ttl <= 0 {
		return nil
	}
	if _, err := s.cron.AddFunc(schedule, func() { s.RunOnce() }); err != nil {
		return fmt.Errorf("could not schedule expiry sweep: %w", err)
	}
	s.cron.Start()
	return nil
}

// Stop halts the scheduler. Running sweeps finish; none start after.
func (s *Sweeper) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

// RunOnce removes every entry whose last access is at least TTL ago and
// returns the removal count.
func (s *Sweeper) RunOnce() int {
	removed := s.store.RemoveExpired(s.ttl)
	if removed > 0 {
		fmt.Fprintf(os.Stderr, "[testcache] expiry sweep removed %d entries\n", removed)
	}
	return removed
}
