// coordinator.go — The per-request interception decision routine.
// Composes the classifier, the cache store and the dedup registry into
// one policy: block → serve-from-cache → dedup-wait → fetch-and-populate
// → pass-through. Every branch is terminal, and no branch is allowed to
// fail the hosting test run: this layer is best-effort acceleration,
// never a source of correctness failures.
package intercept

import (
	"context"
	"sync/atomic"

	"github.com/arun-kumar-codes/testcache/internal/classify"
	"github.com/arun-kumar-codes/testcache/internal/dedup"
	"github.com/arun-kumar-codes/testcache/internal/netcache"
)

// Fetcher performs the real upstream fetch. It is supplied by the host
// browser-automation layer and is the only channel this layer ever
// fetches through, keeping the harness's instrumentation intact.
type Fetcher interface {
	Fetch(ctx context.Context, req classify.Request) (*dedup.Result, error)
}

// FetcherFunc adapts a function to the Fetcher interface.
type FetcherFunc func(ctx context.Context, req classify.Request) (*dedup.Result, error)

// Fetch implements Fetcher.
func (f FetcherFunc) Fetch(ctx context.Context, req classify.Request) (*dedup.Result, error) {
	return f(ctx, req)
}

// Decision tells the host how to finish the intercepted request.
type Decision int

const (
	// Continue forwards the request upstream unmodified.
	Continue Decision = iota
	// Abort cancels the request without any upstream call.
	Abort
	// Fulfill answers the request from Resolution.Result.
	Fulfill
)

// Source records where a fulfilled response came from.
type Source string

const (
	SourceNone      Source = ""
	SourceCache     Source = "cache"     // served from the store, no network I/O
	SourceNetwork   Source = "network"   // owner's fresh upstream fetch
	SourceCoalesced Source = "coalesced" // another request's in-flight fetch
)

// Resolution is the terminal outcome for one intercepted request.
type Resolution struct {
	Decision Decision
	Result   *dedup.Result // set only when Decision == Fulfill
	Source   Source
}

func continueRes() Resolution { return Resolution{Decision: Continue} }

// Coordinator runs the interception state machine. One Coordinator
// serves a whole test run; it is safe for any number of concurrent
// intercepted requests.
type Coordinator struct {
	store    *netcache.Store
	registry *dedup.Registry
	filter   atomic.Pointer[classify.Filter]
	fetcher  Fetcher
	stats    *netcache.Stats

	cacheEnabled bool
	dedupEnabled bool
}

// NewCoordinator wires the decision routine. The filter can be swapped
// later via SetFilter (scenario hot reload).
func NewCoordinator(store *netcache.Store, registry *dedup.Registry, filter *classify.Filter, fetcher Fetcher, cacheEnabled, dedupEnabled bool) *Coordinator {
	c := &Coordinator{
		store:        store,
		registry:     registry,
		fetcher:      fetcher,
		stats:        store.Stats(),
		cacheEnabled: cacheEnabled,
		dedupEnabled: dedupEnabled,
	}
	c.filter.Store(filter)
	return c
}

// SetFilter replaces the classification rules for subsequent requests.
func (c *Coordinator) SetFilter(filter *classify.Filter) {
	c.filter.Store(filter)
}

// Key returns the normalized request key: method and URL.
func Key(req classify.Request) string {
	return req.Method + " " + req.URL
}

// Intercept decides how to handle one intercepted request. It may
// suspend while awaiting the upstream fetch or another request's
// pending fetch; cancellation of ctx degrades to Continue and the
// registry slot is still freed by the owner.
func (c *Coordinator) Intercept(ctx context.Context, req classify.Request) Resolution {
	switch c.filter.Load().Classify(req) {
	case classify.Block:
		c.stats.Blocked.Add(1)
		return Resolution{Decision: Abort}
	case classify.Cacheable:
		// fall through to the cache path
	default:
		return continueRes()
	}

	if !c.cacheEnabled {
		return continueRes()
	}

	key := Key(req)
	if entry, ok := c.store.Get(key); ok {
		return Resolution{
			Decision: Fulfill,
			Result: &dedup.Result{
				Status:  entry.Status,
				Headers: entry.Headers,
				Body:    entry.Body,
			},
			Source: SourceCache,
		}
	}

	if !c.dedupEnabled {
		result := c.fetchAndPopulate(ctx, key, req)
		if result == nil {
			return continueRes()
		}
		return Resolution{Decision: Fulfill, Result: result, Source: SourceNetwork}
	}

	owner, handle := c.registry.BeginOrJoin(key)
	if !owner {
		result, err := handle.Wait(ctx)
		if err != nil || result == nil {
			// Cancelled, or the owner's fetch failed: forward unmodified.
			return continueRes()
		}
		return Resolution{Decision: Fulfill, Result: result, Source: SourceCoalesced}
	}

	result := c.ownerFetch(ctx, key, req)
	if result == nil {
		return continueRes()
	}
	return Resolution{Decision: Fulfill, Result: result, Source: SourceNetwork}
}

// ownerFetch performs the real fetch as the registry owner. The slot is
// freed on every path, including a panicking fetcher, so a failed fetch
// never permanently blocks the key.
func (c *Coordinator) ownerFetch(ctx context.Context, key string, req classify.Request) (result *dedup.Result) {
	defer func() { c.registry.Resolve(key, result) }()
	result = c.fetchAndPopulate(ctx, key, req)
	return result
}

// fetchAndPopulate runs the injected fetch and stores a successful
// response. Fetch failures are never retried here; they surface to the
// pass-through fallback so the harness still sees real failures.
func (c *Coordinator) fetchAndPopulate(ctx context.Context, key string, req classify.Request) *dedup.Result {
	result, err := c.fetcher.Fetch(ctx, req)
	if err != nil || result == nil {
		return nil
	}
	if result.Status >= 200 && result.Status < 400 {
		c.store.Put(key, result.Status, result.Headers, result.Body)
	}
	return result
}
