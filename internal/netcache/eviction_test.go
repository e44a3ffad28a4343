package netcache

import (
	"fmt"
	"testing"
	"time"
)

func TestEvictionCountCeiling(t *testing.T) {
	t.Parallel()
	store, clock := newTestStore(3, 1<<20)

	for i := 0; i < 5; i++ {
		*clock = baseTime.Add(time.Duration(i) * time.Second)
		store.Put(fmt.Sprintf("k%d", i), 200, nil, []byte("x"))
	}

	if store.Len() != 3 {
		t.Fatalf("len = %d, want 3 (count ceiling)", store.Len())
	}
	// Oldest two must be gone, newest three present.
	for _, key := range []string{"k0", "k1"} {
		if _, ok := store.Get(key); ok {
			t.Errorf("key %s should have been evicted", key)
		}
	}
	for _, key := range []string{"k2", "k3", "k4"} {
		if _, ok := store.Get(key); !ok {
			t.Errorf("key %s should have survived", key)
		}
	}
	if got := store.Stats().Evictions.Load(); got != 2 {
		t.Errorf("evictions = %d, want 2", got)
	}
}

func TestEvictionOldestAccessGoesFirst(t *testing.T) {
	t.Parallel()
	// Access times 10, 20, 30; one eviction must remove the entry at 10.
	store, clock := newTestStore(3, 1<<20)

	for i, key := range []string{"at10", "at20", "at30"} {
		*clock = baseTime.Add(time.Duration(10*(i+1)) * time.Second)
		store.Put(key, 200, nil, []byte("x"))
	}
	*clock = baseTime.Add(40 * time.Second)
	store.Put("at40", 200, nil, []byte("x"))

	if _, ok := store.Get("at10"); ok {
		t.Error("entry with the smallest lastAccess survived eviction")
	}
	for _, key := range []string{"at20", "at30", "at40"} {
		if _, ok := store.Get(key); !ok {
			t.Errorf("key %s should have survived", key)
		}
	}
}

func TestEvictionHitProtectsEntry(t *testing.T) {
	t.Parallel()
	store, clock := newTestStore(2, 1<<20)

	*clock = baseTime
	store.Put("a", 200, nil, []byte("x"))
	*clock = baseTime.Add(time.Second)
	store.Put("b", 200, nil, []byte("x"))

	// Touching a makes b the LRU entry.
	*clock = baseTime.Add(2 * time.Second)
	store.Get("a")

	*clock = baseTime.Add(3 * time.Second)
	store.Put("c", 200, nil, []byte("x"))

	if _, ok := store.Get("a"); !ok {
		t.Error("recently accessed entry was evicted")
	}
	if _, ok := store.Get("b"); ok {
		t.Error("least recently accessed entry survived")
	}
}

func TestEvictionSizeCeilingRechecksAfterEachRemoval(t *testing.T) {
	t.Parallel()
	// Bodies vary widely; one removal may not be enough. The store must
	// keep evicting until the size signal clears.
	const maxSize = 4096
	store, clock := newTestStore(100, maxSize)

	*clock = baseTime
	store.Put("small1", 200, nil, make([]byte, 100))
	*clock = baseTime.Add(time.Second)
	store.Put("small2", 200, nil, make([]byte, 100))
	*clock = baseTime.Add(2 * time.Second)
	store.Put("big", 200, nil, make([]byte, 4000))

	// The store is far above the size ceiling. Evicting small1 or even
	// both small entries is not enough; the loop must keep going until
	// big is gone too.
	*clock = baseTime.Add(3 * time.Second)
	store.Put("next", 200, nil, make([]byte, 100))

	for _, key := range []string{"small1", "small2", "big"} {
		if _, ok := store.Get(key); ok {
			t.Errorf("key %s should have been evicted", key)
		}
	}
	if _, ok := store.Get("next"); !ok {
		t.Error("newly put entry missing")
	}
	if store.SizeBytes() >= maxSize {
		t.Errorf("size = %d, want below ceiling %d", store.SizeBytes(), maxSize)
	}
	if got := store.Stats().Evictions.Load(); got != 3 {
		t.Errorf("evictions = %d, want 3", got)
	}
}

func TestEvictionTieBreaksByKey(t *testing.T) {
	t.Parallel()
	store, clock := newTestStore(3, 1<<20)

	// All three share one lastAccess; eviction must pick the smallest key.
	*clock = baseTime
	store.Put("b", 200, nil, []byte("x"))
	store.Put("a", 200, nil, []byte("x"))
	store.Put("c", 200, nil, []byte("x"))

	*clock = baseTime.Add(time.Second)
	store.Put("d", 200, nil, []byte("x"))

	if _, ok := store.Get("a"); ok {
		t.Error("tie-break should evict the smallest key first")
	}
	for _, key := range []string{"b", "c", "d"} {
		if _, ok := store.Get(key); !ok {
			t.Errorf("key %s should have survived", key)
		}
	}
}

func TestEvictionNeverLeavesBothCeilingsExceeded(t *testing.T) {
	t.Parallel()
	// Property from the contract: after any sequence of puts the store
	// is never above both ceilings simultaneously.
	const maxEntries = 5
	const maxSize = 2048
	store, clock := newTestStore(maxEntries, maxSize)

	for i := 0; i < 50; i++ {
		*clock = baseTime.Add(time.Duration(i) * time.Second)
		body := make([]byte, (i*37)%1500)
		store.Put(fmt.Sprintf("k%d", i), 200, nil, body)

		if store.Len() > maxEntries && store.SizeBytes() > maxSize {
			t.Fatalf("after put %d: len=%d size=%d, both ceilings exceeded", i, store.Len(), store.SizeBytes())
		}
	}
}

func TestEvictionMarksDirty(t *testing.T) {
	t.Parallel()
	store, clock := newTestStore(1, 1<<20)

	*clock = baseTime
	store.Put("a", 200, nil, []byte("x"))
	*clock = baseTime.Add(time.Second)
	store.Put("b", 200, nil, []byte("x")) // evicts a

	if !store.Dirty() {
		t.Error("eviction must mark the store dirty")
	}
	if got := store.Stats().Evictions.Load(); got != 1 {
		t.Errorf("evictions = %d, want 1", got)
	}
}
