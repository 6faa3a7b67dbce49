package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"tablebook/pkg/model"
)

func TestMemoryTableCache(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	c := NewMemoryTableCache(5 * time.Minute)
	c.now = func() time.Time { return now }

	if !c.IsStale(ctx) {
		t.Errorf("empty cache should be stale")
	}
	if _, err := c.Get(ctx); !errors.Is(err, ErrMiss) {
		t.Errorf("Get() error = %v, want ErrMiss", err)
	}

	tables := []model.Table{{ID: 101, TableNumber: "101", Zone: model.ZoneHall1, Seats: 4}}
	if err := c.Set(ctx, tables); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	tables[0].Seats = 99

	got, err := c.Get(ctx)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got[0].Seats != 4 {
		t.Errorf("cache shares memory with the caller")
	}
	if c.IsStale(ctx) {
		t.Errorf("fresh cache reported stale")
	}

	now = now.Add(5 * time.Minute)
	if !c.IsStale(ctx) {
		t.Errorf("cache should be stale after the TTL")
	}

	now = now.Add(-time.Minute)
	_ = c.Set(ctx, tables)
	if err := c.Invalidate(ctx); err != nil {
		t.Fatalf("Invalidate() error = %v", err)
	}
	if !c.IsStale(ctx) {
		t.Errorf("invalidated cache should be stale")
	}
}

func TestMemoryTableCache_EmptyListIsFresh(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryTableCache(time.Minute)

	_ = c.Set(ctx, []model.Table{})
	if c.IsStale(ctx) {
		t.Errorf("an empty hall is still a fresh result")
	}
}
