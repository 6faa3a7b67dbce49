package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	apperrors "tablebook/pkg/errors"
	"tablebook/pkg/logger"
)

// PhoneExtractor finds the phone a request is made for. An empty result
// skips the limit.
type PhoneExtractor func(r *http.Request) string

type RateLimiter interface {
	Allow(ctx context.Context, phone string) (bool, error)
}

// PhoneRateLimiter is a sliding window kept in process memory.
type PhoneRateLimiter struct {
	mu       sync.Mutex
	requests map[string][]time.Time
	limit    int
	window   time.Duration
	now      func() time.Time
	stopCh   chan struct{}
}

func NewPhoneRateLimiter(limit int, window time.Duration) *PhoneRateLimiter {
	limiter := &PhoneRateLimiter{
		requests: make(map[string][]time.Time),
		limit:    limit,
		window:   window,
		now:      time.Now,
		stopCh:   make(chan struct{}),
	}

	go limiter.cleanup()

	return limiter
}

func (rl *PhoneRateLimiter) cleanup() {
	ticker := time.NewTicker(rl.window)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.mu.Lock()
			now := rl.now()
			for phone, timestamps := range rl.requests {
				if len(timestamps) == 0 || now.Sub(timestamps[len(timestamps)-1]) > rl.window {
					delete(rl.requests, phone)
				}
			}
			rl.mu.Unlock()
		case <-rl.stopCh:
			return
		}
	}
}

func (rl *PhoneRateLimiter) Stop() {
	close(rl.stopCh)
}

func (rl *PhoneRateLimiter) Allow(ctx context.Context, phone string) (bool, error) {
	if phone == "" {
		return true, nil
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	valid := make([]time.Time, 0, rl.limit)
	for _, ts := range rl.requests[phone] {
		if now.Sub(ts) < rl.window {
			valid = append(valid, ts)
		}
	}

	if len(valid) >= rl.limit {
		rl.requests[phone] = valid
		return false, nil
	}

	rl.requests[phone] = append(valid, now)
	return true, nil
}

var fixedWindowScript = redis.NewScript(`
	local count = redis.call('INCR', KEYS[1])
	if count == 1 then
		redis.call('PEXPIRE', KEYS[1], ARGV[1])
	end
	return count
`)

// RedisRateLimiter counts submissions per phone in a fixed window shared by
// every replica.
type RedisRateLimiter struct {
	rdb    *redis.Client
	limit  int
	window time.Duration
	prefix string
}

func NewRedisRateLimiter(rdb *redis.Client, limit int, window time.Duration) *RedisRateLimiter {
	return &RedisRateLimiter{rdb: rdb, limit: limit, window: window, prefix: "tablebook:ratelimit:"}
}

func (rl *RedisRateLimiter) Allow(ctx context.Context, phone string) (bool, error) {
	if phone == "" {
		return true, nil
	}
	count, err := fixedWindowScript.Run(ctx, rl.rdb, []string{rl.prefix + phone}, rl.window.Milliseconds()).Int64()
	if err != nil {
		return true, fmt.Errorf("rate limit script: %w", err)
	}
	return count <= int64(rl.limit), nil
}

// PhoneRateLimit rejects requests over the limit with 429. Limiter errors
// let the request through.
func PhoneRateLimit(limiter RateLimiter, extractor PhoneExtractor, window time.Duration, log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			phone := extractor(r)
			if phone == "" {
				next.ServeHTTP(w, r)
				return
			}

			allowed, err := limiter.Allow(r.Context(), phone)
			if err != nil {
				log.Warn("Rate limiter unavailable",
					"request_id", RequestID(r.Context()),
					"error", err,
				)
			}
			if !allowed {
				log.Warn("Rate limit exceeded",
					"request_id", RequestID(r.Context()),
					"phone", phone,
					"path", r.URL.Path,
				)
				w.Header().Set("Retry-After", strconv.Itoa(int(window.Seconds())))
				_ = apperrors.WriteError(w, apperrors.RateLimited("Слишком много попыток бронирования, попробуйте позже"))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
