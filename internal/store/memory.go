package store

import (
	"context"
	"sync"
	"time"
)

// Memory is a single-process, in-memory backend.
//
// It exists for development and single-instance deployments. It is NOT
// safe across multiple service instances: each process sees only its own
// counters and fingerprints, so rate limits and replay protection are
// per-instance, not global.
type Memory struct {
	mu      sync.Mutex
	windows map[string]*windowSet
	keys    map[string]ttlEntry

	now func() time.Time // overridable in tests
}

type windowSet struct {
	entries   []int64 // unix nanos, ascending
	expiresAt time.Time
}

type ttlEntry struct {
	value     string
	expiresAt time.Time
}

func NewMemory() *Memory {
	return &Memory{
		windows: make(map[string]*windowSet),
		keys:    make(map[string]ttlEntry),
		now:     time.Now,
	}
}

// window returns the live window for key, dropping it if its TTL lapsed.
func (m *Memory) window(key string) *windowSet {
	w, ok := m.windows[key]
	if !ok {
		return nil
	}
	if !w.expiresAt.IsZero() && m.now().After(w.expiresAt) {
		delete(m.windows, key)
		return nil
	}
	return w
}

func (m *Memory) RemoveOlderThan(_ context.Context, key string, cutoff time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	w := m.window(key)
	if w == nil {
		return nil
	}
	cut := cutoff.UnixNano()
	i := 0
	for i < len(w.entries) && w.entries[i] < cut {
		i++
	}
	w.entries = w.entries[i:]
	return nil
}

func (m *Memory) CountWindow(_ context.Context, key string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	w := m.window(key)
	if w == nil {
		return 0, nil
	}
	return int64(len(w.entries)), nil
}

func (m *Memory) AddToWindow(_ context.Context, key string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	w := m.window(key)
	if w == nil {
		w = &windowSet{}
		m.windows[key] = w
	}
	w.entries = append(w.entries, at.UnixNano())
	return nil
}

func (m *Memory) ExpireWindow(_ context.Context, key string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if w := m.window(key); w != nil {
		w.expiresAt = m.now().Add(ttl)
	}
	return nil
}

func (m *Memory) Exists(_ context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.keys[key]
	if !ok {
		return false, nil
	}
	if m.now().After(e.expiresAt) {
		delete(m.keys, key)
		return false, nil
	}
	return true, nil
}

func (m *Memory) SetIfAbsentTTL(_ context.Context, key, value string, ttl time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if e, ok := m.keys[key]; ok && m.now().Before(e.expiresAt) {
		return false, nil
	}
	m.keys[key] = ttlEntry{value: value, expiresAt: m.now().Add(ttl)}
	return true, nil
}

func (m *Memory) Name() string { return "memory" }

func (m *Memory) Ping(context.Context) error { return nil }

func (m *Memory) Close() error { return nil }
