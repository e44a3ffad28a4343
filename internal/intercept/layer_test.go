package intercept

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/arun-kumar-codes/testcache/internal/classify"
	"github.com/arun-kumar-codes/testcache/internal/config"
	"github.com/arun-kumar-codes/testcache/internal/dedup"
	"github.com/arun-kumar-codes/testcache/internal/snapshot"
)

func testLayerConfig(t *testing.T) config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.SnapshotPath = filepath.Join(t.TempDir(), "snapshot.json")
	cfg.EntryTTL = 0 // keep background sweeping out of lifecycle tests
	return cfg
}

func TestLayerLifecyclePersistsAcrossRuns(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	cfg := testLayerConfig(t)
	fetcher := &countingFetcher{respond: func(classify.Request) (*dedup.Result, error) {
		return okResult("persisted"), nil
	}}

	// First run: miss, fetch, populate, flush on close.
	layer, err := NewLayer(ctx, cfg, fetcher)
	if err != nil {
		t.Fatalf("new layer: %v", err)
	}
	req := classify.Request{Method: "GET", URL: "https://shop.example.com/products", ResourceType: "document"}
	if res := layer.Coordinator.Intercept(ctx, req); res.Decision != Fulfill {
		t.Fatalf("first run: %v, want Fulfill", res.Decision)
	}
	layer.Close(ctx)

	if _, err := os.Stat(cfg.SnapshotPath); err != nil {
		t.Fatalf("snapshot not written on close: %v", err)
	}

	// Second run: the same request is a warm hit without upstream I/O.
	layer2, err := NewLayer(ctx, cfg, fetcher)
	if err != nil {
		t.Fatalf("second layer: %v", err)
	}
	defer layer2.Close(ctx)

	res := layer2.Coordinator.Intercept(ctx, req)
	if res.Decision != Fulfill || res.Source != SourceCache {
		t.Fatalf("second run = %v/%v, want Fulfill/cache", res.Decision, res.Source)
	}
	if string(res.Result.Body) != "persisted" {
		t.Errorf("body = %q, want the persisted payload", res.Result.Body)
	}
	if fetcher.calls.Load() != 1 {
		t.Errorf("upstream calls = %d, want 1 across both runs", fetcher.calls.Load())
	}
}

func TestLayerCloseFlushesAtMostOnce(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	cfg := testLayerConfig(t)
	fetcher := &countingFetcher{respond: func(classify.Request) (*dedup.Result, error) {
		return okResult("x"), nil
	}}

	layer, err := NewLayer(ctx, cfg, fetcher)
	if err != nil {
		t.Fatal(err)
	}
	layer.Coordinator.Intercept(ctx, classify.Request{Method: "GET", URL: "https://shop.example.com/a", ResourceType: "document"})
	layer.Close(ctx)
	layer.Close(ctx) // second close is a no-op

	if got := layer.Stats().Writes; got != 1 {
		t.Errorf("writes = %d, want 1 flush", got)
	}
}

func TestLayerClearOnStart(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	cfg := testLayerConfig(t)

	stale := map[string]snapshot.Record{
		"GET https://shop.example.com/old": {Status: 200, Body: []byte("stale")},
	}
	if err := snapshot.NewFileStore(cfg.SnapshotPath).Save(ctx, stale); err != nil {
		t.Fatal(err)
	}

	cfg.ClearOnStart = true
	layer, err := NewLayer(ctx, cfg, &countingFetcher{respond: func(classify.Request) (*dedup.Result, error) {
		return okResult("x"), nil
	}})
	if err != nil {
		t.Fatal(err)
	}
	defer layer.Close(ctx)

	if layer.Store().Len() != 0 {
		t.Errorf("store len = %d, want 0 after clear-on-start", layer.Store().Len())
	}
	if _, err := os.Stat(cfg.SnapshotPath); !os.IsNotExist(err) {
		t.Error("clear-on-start must delete the persisted snapshot")
	}
}

func TestLayerCorruptSnapshotDegradesToEmpty(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	cfg := testLayerConfig(t)
	if err := os.WriteFile(cfg.SnapshotPath, []byte("][ not json"), 0o600); err != nil {
		t.Fatal(err)
	}

	layer, err := NewLayer(ctx, cfg, &countingFetcher{respond: func(classify.Request) (*dedup.Result, error) {
		return okResult("x"), nil
	}})
	if err != nil {
		t.Fatalf("corrupt snapshot must not fail layer construction: %v", err)
	}
	defer layer.Close(ctx)

	if layer.Store().Len() != 0 {
		t.Errorf("store len = %d, want 0", layer.Store().Len())
	}
}

func TestLayerScenarioProfileExtendsFilter(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	cfg := testLayerConfig(t)
	cfg.ScenarioFile = filepath.Join(t.TempDir(), "scenario.yaml")
	profile := "target: shop\nblocked_domains:\n  - beacons.partner.example\nvolatile_markers:\n  - livefeed\n"
	if err := os.WriteFile(cfg.ScenarioFile, []byte(profile), 0o600); err != nil {
		t.Fatal(err)
	}

	fetcher := &countingFetcher{respond: func(classify.Request) (*dedup.Result, error) {
		return okResult("x"), nil
	}}
	layer, err := NewLayer(ctx, cfg, fetcher)
	if err != nil {
		t.Fatal(err)
	}
	defer layer.Close(ctx)

	blocked := layer.Coordinator.Intercept(ctx, classify.Request{
		Method: "GET", URL: "https://beacons.partner.example/p.gif", ResourceType: "xhr",
	})
	if blocked.Decision != Abort {
		t.Errorf("scenario domain = %v, want Abort", blocked.Decision)
	}
	volatile := layer.Coordinator.Intercept(ctx, classify.Request{
		Method: "GET", URL: "https://shop.example.com/livefeed", ResourceType: "xhr",
	})
	if volatile.Decision != Continue {
		t.Errorf("scenario volatile marker = %v, want Continue", volatile.Decision)
	}
}

func TestLayerStatsReport(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	cfg := testLayerConfig(t)
	fetcher := &countingFetcher{respond: func(classify.Request) (*dedup.Result, error) {
		return okResult("x"), nil
	}}
	layer, err := NewLayer(ctx, cfg, fetcher)
	if err != nil {
		t.Fatal(err)
	}
	defer layer.Close(ctx)

	page := classify.Request{Method: "GET", URL: "https://shop.example.com/a", ResourceType: "document"}
	layer.Coordinator.Intercept(ctx, page) // miss + fetch
	layer.Coordinator.Intercept(ctx, page) // hit
	layer.Coordinator.Intercept(ctx, classify.Request{Method: "GET", URL: "https://shop.example.com/i.png", ResourceType: "image"})

	stats := layer.Stats()
	if stats.Hits != 1 || stats.Misses != 1 || stats.Blocked != 1 || stats.Unique != 1 {
		t.Errorf("stats = %+v, want hits/misses/blocked/unique all 1", stats)
	}
}
