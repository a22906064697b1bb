package webhook

import (
	"context"
	"time"
)

// race runs a store operation against a fixed timer; whichever settles
// first decides. Cancellation is soft: the operation gets a detached
// context, so a lost race leaves it running in the background and its
// write may still land after the response has been sent. Store writes
// use set-semantics so such late writes are idempotent.
func race[T any](ctx context.Context, timeout time.Duration, op func(context.Context) (T, error)) (val T, err error, timedOut bool) {
	type result struct {
		val T
		err error
	}
	done := make(chan result, 1)
	bg := context.WithoutCancel(ctx)

	go func() {
		v, e := op(bg)
		done <- result{v, e}
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case r := <-done:
		return r.val, r.err, false
	case <-timer.C:
		return val, nil, true
	}
}
