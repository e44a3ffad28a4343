// layer.go — Lifecycle owner for one test run's interception state.
// The Layer bundles the store, registry, classifier and coordinator
// behind a single handle owned by the test process, so parallel test
// workers can each run an independent cache instead of sharing ambient
// package state. Construction loads the snapshot; Close flushes it at
// most once.
package intercept

import (
	"context"
	"fmt"
	"os"

	"github.com/redis/go-redis/v9"

	"github.com/arun-kumar-codes/testcache/internal/classify"
	"github.com/arun-kumar-codes/testcache/internal/config"
	"github.com/arun-kumar-codes/testcache/internal/dedup"
	"github.com/arun-kumar-codes/testcache/internal/netcache"
	"github.com/arun-kumar-codes/testcache/internal/snapshot"
	"github.com/arun-kumar-codes/testcache/internal/state"
	"github.com/arun-kumar-codes/testcache/internal/sweep"
)

// Layer is the process-wide interception cache for one run.
type Layer struct {
	Coordinator *Coordinator

	store    *netcache.Store
	registry *dedup.Registry
	snap     snapshot.Store
	sweeper  *sweep.Sweeper
	watcher  *config.ScenarioWatcher
	closer   func() error // extra backend cleanup (sqlite/redis handles)
	closed   bool
}

// NewLayer assembles the interception cache from cfg and the host's
// fetch capability. Snapshot problems degrade to an empty in-memory
// cache with a warning; only unusable configuration (an unreachable
// state directory, a bad cron spec) returns an error.
func NewLayer(ctx context.Context, cfg config.Config, fetcher Fetcher) (*Layer, error) {
	stats := &netcache.Stats{}
	store := netcache.NewStore(cfg.MaxEntries, cfg.MaxSizeBytes, stats)
	registry := dedup.NewRegistry(stats)

	snap, closer, err := OpenSnapshotStore(cfg)
	if err != nil {
		return nil, err
	}

	if cfg.ClearOnStart {
		if err := snap.Clear(ctx); err != nil {
			warnf("could not clear snapshot: %v", err)
		}
	} else {
		store.LoadFrom(ctx, snap)
		if cfg.EntryTTL > 0 {
			// Entries from a stale snapshot expire immediately on load.
			store.RemoveExpired(cfg.EntryTTL)
		}
	}

	filterOpts := classify.Options{DomainBlocking: cfg.DomainBlocking}
	var scenario *config.Scenario
	if cfg.ScenarioFile != "" {
		scenario, err = config.LoadScenario(cfg.ScenarioFile)
		if err != nil {
			warnf("scenario profile unavailable, using defaults: %v", err)
		} else {
			filterOpts = scenarioOptions(cfg, scenario)
		}
	}

	coordinator := NewCoordinator(store, registry, classify.NewFilter(filterOpts), fetcher, cfg.Enabled, cfg.Dedup)

	layer := &Layer{
		Coordinator: coordinator,
		store:       store,
		registry:    registry,
		snap:        snap,
		closer:      closer,
	}

	if cfg.ScenarioFile != "" && scenario != nil {
		layer.watcher, err = config.WatchScenario(cfg.ScenarioFile, func(s *config.Scenario) {
			coordinator.SetFilter(classify.NewFilter(scenarioOptions(cfg, s)))
		})
		if err != nil {
			warnf("scenario hot reload disabled: %v", err)
		}
	}

	layer.sweeper = sweep.New(store, cfg.EntryTTL)
	if err := layer.sweeper.Start(cfg.SweepSchedule); err != nil {
		layer.shutdownBackground()
		if closer != nil {
			closer() //nolint:errcheck // already failing construction
		}
		return nil, err
	}

	return layer, nil
}

// Store exposes the cache store, mainly for host-side diagnostics.
func (l *Layer) Store() *netcache.Store { return l.store }

// Stats returns the run counters for the host's end-of-run report.
func (l *Layer) Stats() netcache.StatsSnapshot { return l.store.Stats().Snapshot() }

// Close stops background work and flushes the snapshot if the store is
// dirty. Flush failures are warnings — this layer never fails the run.
// Safe to call once per Layer.
func (l *Layer) Close(ctx context.Context) {
	if l.closed {
		return
	}
	l.closed = true

	l.shutdownBackground()

	if err := l.store.FlushTo(ctx, l.snap); err != nil {
		warnf("%v", err)
	}
	if l.closer != nil {
		if err := l.closer(); err != nil {
			warnf("could not close snapshot backend: %v", err)
		}
	}
}

func (l *Layer) shutdownBackground() {
	if l.watcher != nil {
		if err := l.watcher.Close(); err != nil {
			warnf("could not stop scenario watcher: %v", err)
		}
		l.watcher = nil
	}
	if l.sweeper != nil {
		l.sweeper.Stop()
	}
}

// OpenSnapshotStore builds the configured persistence backend. The
// returned closer releases backend handles and may be nil.
func OpenSnapshotStore(cfg config.Config) (snapshot.Store, func() error, error) {
	switch cfg.SnapshotBackend {
	case config.BackendSQLite:
		path := cfg.SnapshotPath
		if path == "" {
			var err error
			if path, err = state.SnapshotDatabase(); err != nil {
				return nil, nil, err
			}
		}
		store, err := snapshot.NewSQLiteStore(path)
		if err != nil {
			return nil, nil, err
		}
		return store, store.Close, nil

	case config.BackendRedis:
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		return snapshot.NewRedisStore(client, cfg.RedisPrefix), client.Close, nil

	default:
		path := cfg.SnapshotPath
		if path == "" {
			var err error
			if path, err = state.SnapshotFile(); err != nil {
				return nil, nil, err
			}
		}
		return snapshot.NewFileStore(path), nil, nil
	}
}

// scenarioOptions merges the static config with a scenario profile.
func scenarioOptions(cfg config.Config, s *config.Scenario) classify.Options {
	return classify.Options{
		DomainBlocking:       cfg.DomainBlocking,
		ExtraBlockedDomains:  s.BlockedDomains,
		ExtraVolatileMarkers: s.VolatileMarkers,
		ExtraAuthParams:      s.AuthParams,
	}
}

func warnf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "[testcache] Warning: "+format+"\n", args...)
}
