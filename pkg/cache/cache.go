// Package cache keeps the backend table list between requests. Entries go
// stale after a TTL or when an editor change invalidates them; callers
// refresh only when IsStale reports true.
package cache

import (
	"context"
	"errors"

	"tablebook/pkg/model"
)

var ErrMiss = errors.New("tables cache miss")

type TableCache interface {
	// Get returns the cached tables or ErrMiss when nothing fresh is stored.
	Get(ctx context.Context) ([]model.Table, error)
	Set(ctx context.Context, tables []model.Table) error
	IsStale(ctx context.Context) bool
	Invalidate(ctx context.Context) error
}
