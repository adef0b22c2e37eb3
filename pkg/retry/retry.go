// Package retry implements a small fixed-delay retry policy for transport
// failures. The sleeper is injectable so callers test retry behavior without
// real timers.
package retry

import (
	"context"
	"time"
)

// Sleeper waits for d or until ctx is done. Tests inject a no-op.
type Sleeper func(ctx context.Context, d time.Duration) error

func defaultSleeper(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Policy retries an operation a bounded number of times with a fixed delay.
// The zero value performs exactly one attempt.
type Policy struct {
	MaxRetries int
	Delay      time.Duration
	Sleep      Sleeper
}

// Option configures a Policy.
type Option func(*Policy)

// WithSleeper overrides the sleeper, typically with a no-op in tests.
func WithSleeper(s Sleeper) Option {
	return func(p *Policy) {
		if s != nil {
			p.Sleep = s
		}
	}
}

// New builds a retry policy with maxRetries additional attempts separated by
// a fixed delay.
func New(maxRetries int, delay time.Duration, opts ...Option) Policy {
	p := Policy{MaxRetries: maxRetries, Delay: delay, Sleep: defaultSleeper}
	for _, opt := range opts {
		opt(&p)
	}
	return p
}

// Do runs op up to 1+MaxRetries times. A retry happens only when op reports
// the failure as retryable; the last error is returned once attempts are
// exhausted or the failure is terminal.
func (p Policy) Do(ctx context.Context, op func(ctx context.Context) error, retryable func(error) bool) error {
	sleep := p.Sleep
	if sleep == nil {
		sleep = defaultSleeper
	}

	var err error
	for attempt := 0; ; attempt++ {
		err = op(ctx)
		if err == nil || !retryable(err) || attempt >= p.MaxRetries {
			return err
		}
		if serr := sleep(ctx, p.Delay); serr != nil {
			return err
		}
	}
}
