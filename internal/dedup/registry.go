// registry.go — In-flight fetch registry for request coalescing.
// At most one PendingRequest exists per key at any instant: the first
// caller becomes the owner and performs the real fetch, later callers
// join and await the owner's result. Check-and-register is a single
// mutex-guarded step, so two concurrent callers can never both become
// owner for the same key.
package dedup

import (
	"context"
	"sync"

	"github.com/arun-kumar-codes/testcache/internal/netcache"
)

// Result is the outcome of one upstream fetch, shared verbatim between
// every coalesced caller.
type Result struct {
	Status  int
	Headers map[string][]string
	Body    []byte
}

// Handle is the awaitable side of one in-flight fetch. Waiters block on
// the done channel; the owner's Resolve closes it exactly once.
type Handle struct {
	done   chan struct{}
	result *Result // nil when the owner's fetch failed
}

// Wait blocks until the owner resolves or ctx is cancelled. A nil
// result with nil error means the owner's fetch failed and the caller
// should fall back to a plain pass-through request.
func (h *Handle) Wait(ctx context.Context) (*Result, error) {
	select {
	case <-h.done:
		return h.result, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Registry tracks pending upstream fetches by request key.
type Registry struct {
	mu       sync.Mutex
	inflight map[string]*Handle
	stats    *netcache.Stats
}

// NewRegistry creates an empty registry recording counters on stats.
func NewRegistry(stats *netcache.Stats) *Registry {
	if stats == nil {
		stats = &netcache.Stats{}
	}
	return &Registry{
		inflight: make(map[string]*Handle),
		stats:    stats,
	}
}

// BeginOrJoin atomically checks for a pending fetch on key. The first
// caller registers one and becomes the owner, obligated to call Resolve
// exactly once; every later caller joins the existing handle and counts
// as a duplicate.
func (r *Registry) BeginOrJoin(key string) (owner bool, handle *Handle) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.inflight[key]; ok {
		r.stats.Duplicates.Add(1)
		return false, existing
	}
	handle = &Handle{done: make(chan struct{})}
	r.inflight[key] = handle
	r.stats.Unique.Add(1)
	return true, handle
}

// Resolve delivers result to every waiter on key and frees the slot
// unconditionally. Pass nil for a failed fetch — the slot must still be
// freed so later attempts are not permanently blocked. Resolving an
// unknown key is a no-op.
func (r *Registry) Resolve(key string, result *Result) {
	r.mu.Lock()
	handle, ok := r.inflight[key]
	delete(r.inflight, key)
	r.mu.Unlock()

	if !ok {
		return
	}
	handle.result = result
	close(handle.done)
}

// InFlight returns the number of pending fetches.
func (r *Registry) InFlight() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.inflight)
}
