package webhook

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/novantia/pressgate/internal/metrics"
	"github.com/novantia/pressgate/internal/store"
)

// RateLimiter enforces a sliding-window request limit per client
// identifier against the shared store.
//
// The window operations are logically one unit but not transactional: two
// concurrent requests can both observe a stale count and both be allowed.
// Limiting here is eventual, not strict; counters are advisory.
type RateLimiter struct {
	store   store.Store
	max     int
	window  time.Duration
	timeout time.Duration
	logger  *slog.Logger

	noStoreOnce sync.Once
}

func NewRateLimiter(s store.Store, max int, window, timeout time.Duration, logger *slog.Logger) *RateLimiter {
	return &RateLimiter{
		store:   s,
		max:     max,
		window:  window,
		timeout: timeout,
		logger:  logger,
	}
}

// Allow reports whether the client may proceed. Fails open (allow + warn)
// when the store is absent, slow, or erroring: availability over strict
// enforcement. Authentication is the gate that never gets this treatment.
func (l *RateLimiter) Allow(ctx context.Context, clientID string) bool {
	if l.store == nil {
		l.noStoreOnce.Do(func() {
			l.logger.Warn("rate limiting disabled: no shared store configured")
		})
		metrics.StoreFailOpenTotal.WithLabelValues("rate_limiter", "no_store").Inc()
		return true
	}

	key := "ratelimit:" + clientID
	now := time.Now()

	allowed, err, timedOut := race(ctx, l.timeout, func(ctx context.Context) (bool, error) {
		windowStart := now.Add(-l.window)
		if err := l.store.RemoveOlderThan(ctx, key, windowStart); err != nil {
			return false, err
		}
		count, err := l.store.CountWindow(ctx, key)
		if err != nil {
			return false, err
		}
		if count >= int64(l.max) {
			return false, nil
		}
		if err := l.store.AddToWindow(ctx, key, now); err != nil {
			return false, err
		}
		// Idle clients reset automatically once the key outlives 2x the window.
		if err := l.store.ExpireWindow(ctx, key, 2*l.window); err != nil {
			return false, err
		}
		return true, nil
	})

	if timedOut {
		l.logger.Warn("rate limit check timed out, failing open",
			"client_id", clientID, "timeout_ms", l.timeout.Milliseconds())
		metrics.StoreFailOpenTotal.WithLabelValues("rate_limiter", "timeout").Inc()
		return true
	}
	if err != nil {
		l.logger.Warn("rate limit check failed, failing open",
			"client_id", clientID, "error", err)
		metrics.StoreFailOpenTotal.WithLabelValues("rate_limiter", "error").Inc()
		return true
	}
	return allowed
}
