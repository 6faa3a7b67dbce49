package cache

import (
	"context"
	"slices"
	"sync"
	"time"

	"tablebook/pkg/model"
)

// MemoryTableCache serves a single process when no Redis is configured.
type MemoryTableCache struct {
	mu        sync.RWMutex
	ttl       time.Duration
	now       func() time.Time
	tables    []model.Table
	expiresAt time.Time
}

func NewMemoryTableCache(ttl time.Duration) *MemoryTableCache {
	return &MemoryTableCache{ttl: ttl, now: time.Now}
}

func (c *MemoryTableCache) Get(ctx context.Context) ([]model.Table, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.staleLocked() {
		return nil, ErrMiss
	}
	return slices.Clone(c.tables), nil
}

func (c *MemoryTableCache) Set(ctx context.Context, tables []model.Table) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.tables = slices.Clone(tables)
	c.expiresAt = c.now().Add(c.ttl)
	return nil
}

func (c *MemoryTableCache) IsStale(ctx context.Context) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.staleLocked()
}

func (c *MemoryTableCache) Invalidate(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.tables = nil
	c.expiresAt = time.Time{}
	return nil
}

func (c *MemoryTableCache) staleLocked() bool {
	return c.tables == nil || !c.now().Before(c.expiresAt)
}
