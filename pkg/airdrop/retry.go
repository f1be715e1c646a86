package airdrop

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
)

const (
	DefaultRetryDelay   = 10 * time.Second
	DefaultPollInterval = 5 * time.Second
)

// RetryPolicy is a fixed-delay retry. MaxAttempts counts the first try;
// zero means retry until the context is cancelled.
type RetryPolicy struct {
	Delay       time.Duration
	MaxAttempts int
}

// DefaultRetryPolicy retries every 10 seconds without limit.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{Delay: DefaultRetryDelay}
}

func (p RetryPolicy) backOff(ctx context.Context) backoff.BackOff {
	var b backoff.BackOff = backoff.NewConstantBackOff(p.Delay)
	if p.MaxAttempts > 0 {
		b = backoff.WithMaxRetries(b, uint64(p.MaxAttempts-1))
	}
	return backoff.WithContext(b, ctx)
}

// wallTimer implements backoff.Timer on the system clock.
type wallTimer struct {
	timer *time.Timer
}

func (t *wallTimer) Start(d time.Duration) {
	if t.timer == nil {
		t.timer = time.NewTimer(d)
		return
	}
	t.timer.Reset(d)
}

func (t *wallTimer) Stop() {
	if t.timer != nil {
		t.timer.Stop()
	}
}

func (t *wallTimer) C() <-chan time.Time {
	return t.timer.C
}

func timerOrWall(t backoff.Timer) backoff.Timer {
	if t == nil {
		return &wallTimer{}
	}
	return t
}

// wait blocks for d on t, or until ctx is done.
func wait(ctx context.Context, t backoff.Timer, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	t.Start(d)
	select {
	case <-ctx.Done():
		t.Stop()
		return ctx.Err()
	case <-t.C():
		return nil
	}
}
