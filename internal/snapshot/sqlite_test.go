package snapshot

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
	"time"
)

func TestSQLiteStoreRoundTrip(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "snapshot.sqlite3"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer store.Close()

	want := map[string]Record{
		"GET https://example.com/a": {
			Status:     200,
			Headers:    map[string][]string{"Content-Type": {"application/json"}},
			Body:       []byte(`{"ok":true}`),
			LastAccess: time.Date(2026, 2, 1, 10, 30, 0, 0, time.UTC),
		},
		"GET https://example.com/b": {
			Status: 302,
			Body:   []byte{0xde, 0xad, 0xbe, 0xef},
		},
	}
	if err := store.Save(ctx, want); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(got) != len(want) {
		t.Fatalf("records = %d, want %d", len(got), len(want))
	}
	for key, rec := range want {
		loaded, ok := got[key]
		if !ok {
			t.Fatalf("key %q missing", key)
		}
		if loaded.Status != rec.Status || !bytes.Equal(loaded.Body, rec.Body) {
			t.Errorf("key %q status/body mismatch", key)
		}
		if len(rec.Headers) > 0 && len(loaded.Headers) != len(rec.Headers) {
			t.Errorf("key %q headers = %v, want %v", key, loaded.Headers, rec.Headers)
		}
	}

	// Save replaces, never appends.
	if err := store.Save(ctx, map[string]Record{"only": {Status: 200}}); err != nil {
		t.Fatalf("second save: %v", err)
	}
	got, err = store.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(got) != 1 {
		t.Errorf("records = %d after replace, want 1", len(got))
	}
}

func TestSQLiteStoreClear(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "snapshot.sqlite3"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer store.Close()

	if err := store.Save(ctx, map[string]Record{"k": {Status: 200}}); err != nil {
		t.Fatal(err)
	}
	if err := store.Clear(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}
	records, err := store.Load(ctx)
	if err != nil || len(records) != 0 {
		t.Errorf("after clear: records=%d err=%v, want empty and nil", len(records), err)
	}
}
