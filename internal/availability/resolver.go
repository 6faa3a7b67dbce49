// Package availability resolves bookable time slots and the occupied tables
// of each slot for a date and party size.
//
// Queries run in the background so the rest of the session stays usable.
// A newer query supersedes older ones: only the latest may apply its result
// or clear the loading flag, and a closed resolver ignores late results.
package availability

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"tablebook/pkg/logger"
	"tablebook/pkg/model"
)

var (
	ErrLoading         = errors.New("availability is loading")
	ErrNoAvailability  = errors.New("availability has not been loaded")
	ErrSlotNotFound    = errors.New("time slot not found")
	ErrSlotUnavailable = errors.New("time slot is not available")
)

// Fetcher is the backend availability query.
type Fetcher interface {
	Availability(ctx context.Context, date string, guests int) (*model.Availability, error)
}

type Query struct {
	Date   string `json:"date"`
	Guests int    `json:"guests"`
}

// Snapshot is a consistent view of the resolver. Seq identifies the query
// whose outcome is shown; it is 0 until the first query settles.
type Snapshot struct {
	Query        Query               `json:"query"`
	Seq          uint64              `json:"seq"`
	Loading      bool                `json:"loading"`
	Availability *model.Availability `json:"availability,omitempty"`
	Err          error               `json:"-"`
}

type Resolver struct {
	fetcher Fetcher
	timeout time.Duration
	log     *logger.Logger

	mu      sync.Mutex
	issued  uint64
	applied uint64
	closed  bool
	loading bool
	query   Query
	result  *model.Availability
	err     error
}

const DefaultTimeout = 10 * time.Second

func NewResolver(fetcher Fetcher, timeout time.Duration, log *logger.Logger) *Resolver {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Resolver{
		fetcher: fetcher,
		timeout: timeout,
		log:     log,
	}
}

// Query starts fetching availability and returns a channel that is closed
// once this query has settled, whether it was applied or discarded.
func (r *Resolver) Query(date string, guests int) <-chan struct{} {
	done := make(chan struct{})

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		close(done)
		return done
	}
	r.issued++
	seq := r.issued
	q := Query{Date: date, Guests: guests}
	r.query = q
	r.loading = true
	r.mu.Unlock()

	go func() {
		defer close(done)
		r.run(seq, q)
	}()
	return done
}

func (r *Resolver) run(seq uint64, q Query) {
	var (
		avail *model.Availability
		err   error
	)
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("availability fetch panicked: %v", p)
		}
		r.settle(seq, avail, err)
	}()

	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	avail, err = r.fetcher.Availability(ctx, q.Date, q.Guests)
}

func (r *Resolver) settle(seq uint64, avail *model.Availability, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed || seq != r.issued {
		r.log.Debug("discarding superseded availability result",
			"seq", seq,
			"latest", r.issued,
			"closed", r.closed,
		)
		return
	}

	r.loading = false
	r.applied = seq
	if err != nil {
		r.log.Warn("availability query failed",
			"date", r.query.Date,
			"guests", r.query.Guests,
			"error", err,
		)
		r.result = nil
		r.err = err
		return
	}
	r.result = avail
	r.err = nil
}

func (r *Resolver) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	return Snapshot{
		Query:        r.query,
		Seq:          r.applied,
		Loading:      r.loading,
		Availability: r.result,
		Err:          r.err,
	}
}

// Slot returns the available slot for a selected time. Time selection is
// refused while a query is in flight.
func (r *Resolver) Slot(selected string) (model.TimeSlot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.loading {
		return model.TimeSlot{}, ErrLoading
	}
	if r.result == nil {
		return model.TimeSlot{}, ErrNoAvailability
	}
	slot, ok := r.result.FindSlot(selected)
	if !ok {
		return model.TimeSlot{}, ErrSlotNotFound
	}
	if !slot.IsAvailable {
		return model.TimeSlot{}, ErrSlotUnavailable
	}
	return slot, nil
}

// Close stops the resolver from applying any further results.
func (r *Resolver) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.closed = true
	r.loading = false
}
