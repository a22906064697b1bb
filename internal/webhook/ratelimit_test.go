package webhook

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/novantia/pressgate/internal/store"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeStore is a hand-rolled store.Store for exercising failure modes the
// real backends can't produce on demand.
type fakeStore struct {
	mu     sync.Mutex
	count  int64
	exists bool
	setOK  bool
	err    error
	delay  time.Duration
	adds   int
}

func (f *fakeStore) stall() error {
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	return f.err
}

func (f *fakeStore) RemoveOlderThan(context.Context, string, time.Time) error {
	return f.stall()
}

func (f *fakeStore) CountWindow(context.Context, string) (int64, error) {
	if err := f.stall(); err != nil {
		return 0, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.count, nil
}

func (f *fakeStore) AddToWindow(context.Context, string, time.Time) error {
	if err := f.stall(); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.adds++
	return nil
}

func (f *fakeStore) ExpireWindow(context.Context, string, time.Duration) error {
	return f.stall()
}

func (f *fakeStore) Exists(context.Context, string) (bool, error) {
	if err := f.stall(); err != nil {
		return false, err
	}
	return f.exists, nil
}

func (f *fakeStore) SetIfAbsentTTL(context.Context, string, string, time.Duration) (bool, error) {
	if err := f.stall(); err != nil {
		return false, err
	}
	return f.setOK, nil
}

func (f *fakeStore) Name() string               { return "fake" }
func (f *fakeStore) Ping(context.Context) error { return nil }
func (f *fakeStore) Close() error               { return nil }

func TestRateLimiterSlidingWindow(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()
	l := NewRateLimiter(mem, 60, 60*time.Second, 500*time.Millisecond, testLogger())

	for i := 0; i < 60; i++ {
		if !l.Allow(ctx, "1.2.3.4") {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}
	if l.Allow(ctx, "1.2.3.4") {
		t.Fatal("61st request within the window should be rejected")
	}
}

func TestRateLimiterPerIdentifier(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()
	l := NewRateLimiter(mem, 1, 60*time.Second, 500*time.Millisecond, testLogger())

	if !l.Allow(ctx, "1.2.3.4") {
		t.Fatal("first client should be allowed")
	}
	if l.Allow(ctx, "1.2.3.4") {
		t.Fatal("first client should now be limited")
	}
	if !l.Allow(ctx, "5.6.7.8") {
		t.Fatal("second client has its own window")
	}
}

func TestRateLimiterWindowSlides(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()

	// Fill the window with entries that have already aged out.
	old := time.Now().Add(-2 * time.Minute)
	for i := 0; i < 60; i++ {
		if err := mem.AddToWindow(ctx, "ratelimit:1.2.3.4", old.Add(time.Duration(i)*time.Millisecond)); err != nil {
			t.Fatalf("AddToWindow: %v", err)
		}
	}

	l := NewRateLimiter(mem, 60, 60*time.Second, 500*time.Millisecond, testLogger())
	if !l.Allow(ctx, "1.2.3.4") {
		t.Fatal("stale entries must be pruned before counting")
	}
}

func TestRateLimiterFailOpenOnTimeout(t *testing.T) {
	f := &fakeStore{delay: 100 * time.Millisecond}
	l := NewRateLimiter(f, 60, 60*time.Second, 5*time.Millisecond, testLogger())

	if !l.Allow(context.Background(), "1.2.3.4") {
		t.Fatal("slow store must fail open")
	}
}

func TestRateLimiterFailOpenOnError(t *testing.T) {
	f := &fakeStore{err: context.DeadlineExceeded}
	l := NewRateLimiter(f, 60, 60*time.Second, 500*time.Millisecond, testLogger())

	if !l.Allow(context.Background(), "1.2.3.4") {
		t.Fatal("store errors must fail open")
	}
}

func TestRateLimiterFailOpenWithoutStore(t *testing.T) {
	l := NewRateLimiter(nil, 60, 60*time.Second, 500*time.Millisecond, testLogger())

	for i := 0; i < 100; i++ {
		if !l.Allow(context.Background(), "1.2.3.4") {
			t.Fatal("no store means no limiting")
		}
	}
}

func TestRateLimiterRejectsAtThreshold(t *testing.T) {
	// Count already at the max: no new entry is recorded.
	f := &fakeStore{count: 60}
	l := NewRateLimiter(f, 60, 60*time.Second, 500*time.Millisecond, testLogger())

	if l.Allow(context.Background(), "1.2.3.4") {
		t.Fatal("count at max should reject")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.adds != 0 {
		t.Errorf("rejected request must not record a window entry, adds = %d", f.adds)
	}
}
