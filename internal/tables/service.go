package tables

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"tablebook/pkg/cache"
	"tablebook/pkg/kafka"
	"tablebook/pkg/logger"
	"tablebook/pkg/model"
)

var ErrLoadFailed = errors.New("failed to load tables")

// Lister is the part of the backend client the service reads from.
type Lister interface {
	List(ctx context.Context) ([]model.Table, error)
}

type Service struct {
	lister Lister
	cache  cache.TableCache
	log    *logger.Logger

	// refresh serialises backend reloads so a burst of requests against a
	// stale cache issues one GET /tables.
	refresh sync.Mutex
}

func NewService(lister Lister, c cache.TableCache, log *logger.Logger) *Service {
	return &Service{lister: lister, cache: c, log: log}
}

// List returns every table, going to the backend only when the cache is stale.
func (s *Service) List(ctx context.Context) ([]model.Table, error) {
	if !s.cache.IsStale(ctx) {
		if tables, err := s.cache.Get(ctx); err == nil {
			return tables, nil
		}
	}

	s.refresh.Lock()
	defer s.refresh.Unlock()

	if !s.cache.IsStale(ctx) {
		if tables, err := s.cache.Get(ctx); err == nil {
			return tables, nil
		}
	}

	tables, err := s.lister.List(ctx)
	if err != nil {
		s.log.Error("Failed to load tables from backend", "error", err)
		return nil, fmt.Errorf("%w: %w", ErrLoadFailed, err)
	}
	if err := s.cache.Set(ctx, tables); err != nil {
		s.log.Warn("Failed to store tables in cache", "error", err)
	}
	s.log.Debug("Tables cache refreshed", "count", len(tables))
	return tables, nil
}

// ByZone returns the tables of one zone ordered by table number.
func (s *Service) ByZone(ctx context.Context, zone model.Zone) ([]model.Table, error) {
	tables, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	return model.FilterZone(tables, zone), nil
}

func (s *Service) Invalidate(ctx context.Context) {
	if err := s.cache.Invalidate(ctx); err != nil {
		s.log.Warn("Failed to invalidate tables cache", "error", err)
	}
}

// HandleLayoutEvent is the consumer handler for the layout topic. Any layout
// change makes the cached list stale; other event types are skipped.
func (s *Service) HandleLayoutEvent(ctx context.Context, msg kafka.Message) error {
	if msg.GetEventType() != kafka.EventTableLayoutChanged {
		return nil
	}

	var event model.LayoutEvent
	if err := msg.DecodeValue(&event); err != nil {
		return kafka.NewPermanentError("invalid layout event payload", err)
	}

	if err := s.cache.Invalidate(ctx); err != nil {
		return kafka.NewTransientError("failed to invalidate tables cache", err)
	}
	s.log.Info("Tables cache invalidated by layout event",
		"table_id", event.TableID,
		"action", event.Action,
		"actor", event.Actor,
	)
	return nil
}
