package history_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/slidemote/slidemote/internal/history"
)

func openTestStore(t *testing.T) *history.Store {
	t.Helper()
	store, err := history.Open(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestRecordConnectionDeduplicatesByAddress(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	first := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	later := first.Add(48 * time.Hour)

	if err := store.RecordConnection(ctx, "192.168.1.5:8080", first); err != nil {
		t.Fatalf("record: %v", err)
	}
	if err := store.RecordConnection(ctx, "192.168.1.5:8080", later); err != nil {
		t.Fatalf("record again: %v", err)
	}

	entries, err := store.Recent(ctx, 0)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected one deduplicated entry, got %d", len(entries))
	}
	if !entries[0].LastConnectedAt.Equal(later) {
		t.Fatalf("expected updated timestamp %v, got %v", later, entries[0].LastConnectedAt)
	}
}

func TestRecentOrdersByLastConnected(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)

	addresses := []string{"10.0.0.1:8080", "10.0.0.2:8080", "10.0.0.3:8080"}
	for i, addr := range addresses {
		if err := store.RecordConnection(ctx, addr, base.Add(time.Duration(i)*time.Hour)); err != nil {
			t.Fatalf("record %s: %v", addr, err)
		}
	}

	entries, err := store.Recent(ctx, 2)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected limit respected, got %d entries", len(entries))
	}
	if entries[0].Address != "10.0.0.3:8080" || entries[1].Address != "10.0.0.2:8080" {
		t.Fatalf("expected most recent first, got %v", entries)
	}
}

func TestLastReturnsNotFoundWhenEmpty(t *testing.T) {
	store := openTestStore(t)

	_, err := store.Last(context.Background())
	if !history.IsNotFound(err) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
}

func TestForget(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	if err := store.RecordConnection(ctx, "10.0.0.9:8080", time.Now()); err != nil {
		t.Fatalf("record: %v", err)
	}
	if err := store.Forget(ctx, "10.0.0.9:8080"); err != nil {
		t.Fatalf("forget: %v", err)
	}
	if err := store.Forget(ctx, "10.0.0.9:8080"); !history.IsNotFound(err) {
		t.Fatalf("expected NotFoundError for second forget, got %v", err)
	}
}

func TestAutoReconnectDefaultsToOn(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	enabled, err := store.AutoReconnect(ctx)
	if err != nil {
		t.Fatalf("auto-reconnect: %v", err)
	}
	if !enabled {
		t.Fatal("expected auto-reconnect to default to on")
	}

	if err := store.SetAutoReconnect(ctx, false); err != nil {
		t.Fatalf("set auto-reconnect: %v", err)
	}
	enabled, err = store.AutoReconnect(ctx)
	if err != nil {
		t.Fatalf("auto-reconnect after set: %v", err)
	}
	if enabled {
		t.Fatal("expected auto-reconnect off after set")
	}
}
