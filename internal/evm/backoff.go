package evm

import (
	"context"
	"time"
)

// backoff yields exponentially growing delays capped at max.
type backoff struct {
	initial time.Duration
	max     time.Duration
	factor  float64
	cur     time.Duration
}

func newBackoff(initial, max time.Duration, factor float64) *backoff {
	if factor < 1 {
		factor = 1
	}
	return &backoff{initial: initial, max: max, factor: factor, cur: initial}
}

// next returns the current delay and advances to the following one.
func (b *backoff) next() time.Duration {
	d := b.cur
	b.cur = time.Duration(float64(b.cur) * b.factor)
	if b.max > 0 && b.cur > b.max {
		b.cur = b.max
	}
	return d
}

func (b *backoff) reset() {
	b.cur = b.initial
}

// wait sleeps for the next delay or until ctx is done.
func (b *backoff) wait(ctx context.Context) error {
	t := time.NewTimer(b.next())
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
