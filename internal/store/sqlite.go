package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// sqliteStore is a durable single-node backend. It keeps replay
// fingerprints across restarts without needing a redis deployment, but
// like Memory it is per-instance: do not run it behind a load balancer
// with more than one replica.
type sqliteStore struct {
	db *sql.DB
}

func openSQLite(ctx context.Context, path string) (Store, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create sqlite directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if _, err := db.ExecContext(pctx, "PRAGMA busy_timeout = 5000;"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set busy_timeout: %w", err)
	}
	if err := bootstrapSQLite(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &sqliteStore{db: db}, nil
}

func bootstrapSQLite(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS window_entries (
  key   TEXT NOT NULL,
  at_ns INTEGER NOT NULL,
  PRIMARY KEY (key, at_ns)
);`,
		`CREATE TABLE IF NOT EXISTS window_expiry (
  key           TEXT PRIMARY KEY,
  expires_at_ns INTEGER NOT NULL
);`,
		`CREATE TABLE IF NOT EXISTS ttl_keys (
  key           TEXT PRIMARY KEY,
  value         TEXT NOT NULL,
  expires_at_ns INTEGER NOT NULL
);`,
		`CREATE INDEX IF NOT EXISTS idx_window_entries_at ON window_entries(key, at_ns);`,
	}
	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("bootstrap sqlite store: %w", err)
		}
	}
	return nil
}

// dropIfWindowExpired deletes a whole window whose TTL lapsed.
func (s *sqliteStore) dropIfWindowExpired(ctx context.Context, key string) error {
	var expires int64
	err := s.db.QueryRowContext(ctx,
		"SELECT expires_at_ns FROM window_expiry WHERE key = ?;", key).Scan(&expires)
	if err == sql.ErrNoRows {
		return nil
	}
	if err != nil {
		return err
	}
	if time.Now().UnixNano() < expires {
		return nil
	}
	if _, err := s.db.ExecContext(ctx, "DELETE FROM window_entries WHERE key = ?;", key); err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, "DELETE FROM window_expiry WHERE key = ?;", key)
	return err
}

func (s *sqliteStore) RemoveOlderThan(ctx context.Context, key string, cutoff time.Time) error {
	if err := s.dropIfWindowExpired(ctx, key); err != nil {
		return fmt.Errorf("prune window: %w", err)
	}
	_, err := s.db.ExecContext(ctx,
		"DELETE FROM window_entries WHERE key = ? AND at_ns < ?;", key, cutoff.UnixNano())
	if err != nil {
		return fmt.Errorf("prune window: %w", err)
	}
	return nil
}

func (s *sqliteStore) CountWindow(ctx context.Context, key string) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM window_entries WHERE key = ?;", key).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count window: %w", err)
	}
	return n, nil
}

func (s *sqliteStore) AddToWindow(ctx context.Context, key string, at time.Time) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO window_entries(key, at_ns) VALUES(?, ?) ON CONFLICT DO NOTHING;",
		key, at.UnixNano())
	if err != nil {
		return fmt.Errorf("add window entry: %w", err)
	}
	return nil
}

func (s *sqliteStore) ExpireWindow(ctx context.Context, key string, ttl time.Duration) error {
	expires := time.Now().Add(ttl).UnixNano()
	_, err := s.db.ExecContext(ctx, `
INSERT INTO window_expiry(key, expires_at_ns) VALUES(?, ?)
ON CONFLICT(key) DO UPDATE SET expires_at_ns = excluded.expires_at_ns;
`, key, expires)
	if err != nil {
		return fmt.Errorf("expire window: %w", err)
	}
	return nil
}

func (s *sqliteStore) Exists(ctx context.Context, key string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM ttl_keys WHERE key = ? AND expires_at_ns > ?;",
		key, time.Now().UnixNano()).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("check key: %w", err)
	}
	return n > 0, nil
}

func (s *sqliteStore) SetIfAbsentTTL(ctx context.Context, key, value string, ttl time.Duration) (bool, error) {
	now := time.Now()

	// Clear an expired row first so the insert below can take its place.
	if _, err := s.db.ExecContext(ctx,
		"DELETE FROM ttl_keys WHERE key = ? AND expires_at_ns <= ?;",
		key, now.UnixNano()); err != nil {
		return false, fmt.Errorf("clear expired key: %w", err)
	}

	res, err := s.db.ExecContext(ctx,
		"INSERT INTO ttl_keys(key, value, expires_at_ns) VALUES(?, ?, ?) ON CONFLICT DO NOTHING;",
		key, value, now.Add(ttl).UnixNano())
	if err != nil {
		return false, fmt.Errorf("set key: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("set key: %w", err)
	}
	return n > 0, nil
}

func (s *sqliteStore) Name() string { return "sqlite" }

func (s *sqliteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *sqliteStore) Close() error {
	return s.db.Close()
}
