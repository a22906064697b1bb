package webhook

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/novantia/pressgate/internal/metrics"
	"github.com/novantia/pressgate/internal/store"
)

// ReplayGuard rejects stale timestamps and duplicate events.
//
// The timestamp tolerance check has no store dependency and always runs;
// fingerprint-based duplicate detection degrades to nothing when the
// store is slow or absent. Replay protection is therefore best-effort
// under infra failure, timestamp-bounded always.
type ReplayGuard struct {
	store     store.Store
	tolerance time.Duration
	ttl       time.Duration
	timeout   time.Duration
	logger    *slog.Logger

	noStoreOnce sync.Once
}

func NewReplayGuard(s store.Store, tolerance, ttl, timeout time.Duration, logger *slog.Logger) *ReplayGuard {
	return &ReplayGuard{
		store:     s,
		tolerance: tolerance,
		ttl:       ttl,
		timeout:   timeout,
		logger:    logger,
	}
}

// Check validates the envelope timestamp and claims the fingerprint.
// Returns nil if the event may proceed.
func (g *ReplayGuard) Check(ctx context.Context, timestamp, fingerprint string) *Error {
	ts, err := time.Parse(time.RFC3339, timestamp)
	if err != nil {
		// Operator log distinguishes the cases; the caller never does.
		g.logger.Debug("unparseable event timestamp")
		return reject(KindInvalidTimestamp)
	}
	drift := time.Since(ts)
	if drift < 0 {
		drift = -drift
	}
	if drift > g.tolerance {
		g.logger.Debug("event timestamp outside tolerance", "drift_s", int(drift.Seconds()))
		return reject(KindInvalidTimestamp)
	}

	if g.store == nil {
		g.noStoreOnce.Do(func() {
			g.logger.Warn("replay detection degraded to timestamp-only: no shared store configured")
		})
		metrics.StoreFailOpenTotal.WithLabelValues("replay_guard", "no_store").Inc()
		return nil
	}

	key := "replay:" + fingerprint

	fresh, err, timedOut := race(ctx, g.timeout, func(ctx context.Context) (bool, error) {
		seen, err := g.store.Exists(ctx, key)
		if err != nil {
			return false, err
		}
		if seen {
			return false, nil
		}
		// Set-if-absent closes the check-then-write race: a concurrent
		// duplicate loses here even after passing the Exists check.
		return g.store.SetIfAbsentTTL(ctx, key, "1", g.ttl)
	})

	if timedOut {
		g.logger.Warn("replay check timed out, failing open",
			"timeout_ms", g.timeout.Milliseconds())
		metrics.StoreFailOpenTotal.WithLabelValues("replay_guard", "timeout").Inc()
		return nil
	}
	if err != nil {
		g.logger.Warn("replay check failed, failing open", "error", err)
		metrics.StoreFailOpenTotal.WithLabelValues("replay_guard", "error").Inc()
		return nil
	}
	if !fresh {
		return reject(KindReplayDetected)
	}
	return nil
}
