package svc

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"pastebox/pkg/domain"
	"pastebox/svc/store"
)

type countingStore struct {
	*store.MemStore
	sweeps atomic.Int32
}

func (c *countingStore) ListAll(ctx context.Context) ([]*domain.Paste, error) {
	c.sweeps.Add(1)
	return c.MemStore.ListAll(ctx)
}

func TestJanitorEvictsExpired(t *testing.T) {
	cs := &countingStore{MemStore: store.NewMemStore()}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	past := time.Now().UnixMilli() - 1000
	stale := &domain.Paste{
		ID:        "stale-sweep",
		Title:     "t",
		Content:   "c",
		Language:  "plaintext",
		CreatedAt: past - 10000,
		ExpiresAt: &past,
	}
	if err := cs.Set(ctx, stale); err != nil {
		t.Fatal(err)
	}

	if err := StartJanitor(ctx, cs, 10*time.Millisecond); err != nil {
		t.Fatalf("StartJanitor failed: %v", err)
	}

	// wait for the second sweep so the first has fully completed
	deadline := time.Now().Add(5 * time.Second)
	for cs.sweeps.Load() < 2 {
		if time.Now().After(deadline) {
			t.Fatal("janitor never swept the backend")
		}
		time.Sleep(5 * time.Millisecond)
	}

	removed, err := cs.Delete(ctx, "stale-sweep")
	if err != nil {
		t.Fatal(err)
	}
	if removed {
		t.Error("expired record survived the background sweep")
	}
}
