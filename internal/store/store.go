// Package store abstracts the shared state backend used by the webhook
// rate limiter and replay guard.
//
// Two families of operations are exposed: sliding-window sets (an ordered
// set of timestamps per key, pruned by age) and TTL'd keys with
// set-if-absent semantics. Set-if-absent is deliberate: a write that lands
// late, after a timeout race has already been decided, is a no-op rather
// than a corruption.
package store

import (
	"context"
	"fmt"
	"time"
)

// Store is implemented by every backend. All methods must be safe for
// concurrent use; callers bound latency themselves by passing a context
// with a deadline.
type Store interface {
	// RemoveOlderThan prunes window entries recorded before cutoff.
	RemoveOlderThan(ctx context.Context, key string, cutoff time.Time) error

	// CountWindow returns the number of entries currently in the window.
	CountWindow(ctx context.Context, key string) (int64, error)

	// AddToWindow records an entry at the given instant.
	AddToWindow(ctx context.Context, key string, at time.Time) error

	// ExpireWindow refreshes the whole window key's time-to-live.
	ExpireWindow(ctx context.Context, key string, ttl time.Duration) error

	// Exists reports whether a TTL key is present and unexpired.
	Exists(ctx context.Context, key string) (bool, error)

	// SetIfAbsentTTL writes a TTL key only if it does not already exist.
	// Returns true if the write happened, false if the key was present.
	SetIfAbsentTTL(ctx context.Context, key, value string, ttl time.Duration) (bool, error)

	// Name identifies the backend in logs and introspection payloads.
	Name() string

	// Ping verifies the backend is reachable.
	Ping(ctx context.Context) error

	Close() error
}

// Options selects and configures a backend.
type Options struct {
	Backend    string // "redis", "sqlite", "memory" or "none"
	RedisAddr  string
	RedisPass  string
	RedisDB    int
	SQLitePath string
}

// Open constructs the configured backend. A "none" backend returns
// (nil, nil); callers treat a nil Store as "no shared state available"
// and degrade per their own policy.
func Open(ctx context.Context, opts Options) (Store, error) {
	switch opts.Backend {
	case "redis":
		return openRedis(ctx, opts)
	case "sqlite":
		return openSQLite(ctx, opts.SQLitePath)
	case "memory":
		return NewMemory(), nil
	case "", "none":
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", opts.Backend)
	}
}
