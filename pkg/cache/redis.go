package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"tablebook/pkg/model"
)

const DefaultTablesKey = "tablebook:tables"

type tablesEntry struct {
	Tables    []model.Table `json:"tables"`
	FetchedAt time.Time     `json:"fetched_at"`
}

// RedisTableCache shares the table list across service replicas. Staleness
// is the key's TTL.
type RedisTableCache struct {
	rdb *redis.Client
	key string
	ttl time.Duration
}

func NewRedisTableCache(rdb *redis.Client, ttl time.Duration) *RedisTableCache {
	return &RedisTableCache{rdb: rdb, key: DefaultTablesKey, ttl: ttl}
}

func (c *RedisTableCache) Get(ctx context.Context) ([]model.Table, error) {
	raw, err := c.rdb.Get(ctx, c.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrMiss
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %s: %w", c.key, err)
	}

	var entry tablesEntry
	if err := json.Unmarshal(raw, &entry); err != nil {
		// A corrupt entry is dropped and refetched.
		_ = c.rdb.Del(ctx, c.key).Err()
		return nil, ErrMiss
	}
	return entry.Tables, nil
}

func (c *RedisTableCache) Set(ctx context.Context, tables []model.Table) error {
	if tables == nil {
		tables = []model.Table{}
	}
	raw, err := json.Marshal(tablesEntry{Tables: tables, FetchedAt: time.Now().UTC()})
	if err != nil {
		return err
	}
	if err := c.rdb.Set(ctx, c.key, raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", c.key, err)
	}
	return nil
}

// IsStale treats an unreachable Redis as stale so callers go to the backend.
func (c *RedisTableCache) IsStale(ctx context.Context) bool {
	n, err := c.rdb.Exists(ctx, c.key).Result()
	return err != nil || n == 0
}

func (c *RedisTableCache) Invalidate(ctx context.Context) error {
	if err := c.rdb.Del(ctx, c.key).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", c.key, err)
	}
	return nil
}
