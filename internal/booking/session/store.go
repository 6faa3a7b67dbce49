// Package session keeps the booking wizards of connected guests. A session
// lives in memory and is found through a sealed cookie; idle sessions are
// swept and their availability resolvers closed.
package session

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"tablebook/internal/availability"
	"tablebook/internal/booking/validator"
	"tablebook/internal/hallmap"
	"tablebook/internal/wizard"
	"tablebook/pkg/logger"
	"tablebook/pkg/sealer"
)

const CookieName = "tb_session"

var ErrNotFound = errors.New("session not found")

type Config struct {
	TTL                 time.Duration
	Canvas              hallmap.Canvas
	AvailabilityTimeout time.Duration
	// Today returns the current date in the restaurant's timezone.
	Today func() string
	// Secure marks the cookie for HTTPS only.
	Secure bool
}

type Store struct {
	cfg       Config
	sealer    *sealer.Sealer
	fetcher   availability.Fetcher
	validator *validator.DraftValidator
	log       *logger.Logger
	now       func() time.Time

	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewStore(cfg Config, s *sealer.Sealer, fetcher availability.Fetcher, v *validator.DraftValidator, log *logger.Logger) *Store {
	return &Store{
		cfg:       cfg,
		sealer:    s,
		fetcher:   fetcher,
		validator: v,
		log:       log,
		now:       time.Now,
		sessions:  make(map[string]*Session),
	}
}

// Create starts a session with a fresh wizard and kicks off the first
// availability query for the default date and party size.
func (st *Store) Create() *Session {
	id := uuid.New().String()
	resolver := availability.NewResolver(st.fetcher, st.cfg.AvailabilityTimeout, st.log.With("session_id", id))
	s := newSession(id, wizard.New(st.validator, st.cfg.Today), st.cfg.Canvas, resolver, st.now())

	st.mu.Lock()
	st.sessions[id] = s
	st.mu.Unlock()

	_ = s.Do(func(s *Session) error {
		s.QueryAvailability()
		return nil
	})

	st.log.Debug("Session created", "session_id", id)
	return s
}

// Get returns a live session and marks it as used.
func (st *Store) Get(id string) (*Session, error) {
	st.mu.RLock()
	s, ok := st.sessions[id]
	st.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	s.touch(st.now())
	return s, nil
}

// FromRequest resolves the session cookie. A missing, tampered or expired
// cookie yields ErrNotFound.
func (st *Store) FromRequest(r *http.Request) (*Session, error) {
	cookie, err := r.Cookie(CookieName)
	if err != nil {
		return nil, ErrNotFound
	}
	id, err := st.sealer.Open(cookie.Value)
	if err != nil {
		st.log.Debug("Rejected session cookie", "error", err)
		return nil, ErrNotFound
	}
	return st.Get(id)
}

// SetCookie writes the sealed session cookie.
func (st *Store) SetCookie(w http.ResponseWriter, s *Session) error {
	value, err := st.sealer.Seal(s.ID)
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   int(st.cfg.TTL.Seconds()),
		HttpOnly: true,
		Secure:   st.cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

func (st *Store) Len() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.sessions)
}

// Sweep removes sessions idle for longer than the TTL and returns how many
// were removed.
func (st *Store) Sweep() int {
	now := st.now()

	st.mu.Lock()
	var expired []*Session
	for id, s := range st.sessions {
		if s.idleSince(now) > st.cfg.TTL {
			expired = append(expired, s)
			delete(st.sessions, id)
		}
	}
	st.mu.Unlock()

	for _, s := range expired {
		s.resolver.Close()
	}
	if len(expired) > 0 {
		st.log.Info("Expired sessions removed", "count", len(expired), "active", st.Len())
	}
	return len(expired)
}

// Run sweeps on an interval until ctx is cancelled, then closes every
// remaining session.
func (st *Store) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			st.closeAll()
			return
		case <-ticker.C:
			st.Sweep()
		}
	}
}

func (st *Store) closeAll() {
	st.mu.Lock()
	defer st.mu.Unlock()

	for id, s := range st.sessions {
		s.resolver.Close()
		delete(st.sessions, id)
	}
}
