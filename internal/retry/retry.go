// Package retry provides the backoff policy applied to remote-store calls.
// Transient failures (network hiccups against the hosted Postgres or the
// object store) are retried a small, fixed number of times; anything that
// survives the cap is a hard per-operation failure.
package retry

import (
	"context"
	"time"
)

// Backoff maps a 1-based attempt number to the delay before the next attempt.
type Backoff func(attempt int) time.Duration

// Exponential doubles the base delay per attempt: base, 2*base, 4*base, ...
func Exponential(base time.Duration) Backoff {
	return func(attempt int) time.Duration {
		d := base
		for i := 1; i < attempt; i++ {
			d *= 2
		}
		return d
	}
}

type Policy struct {
	MaxAttempts int
	Backoff     Backoff
}

// DefaultPolicy matches the importer's best-effort resilience: three attempts,
// 200ms exponential backoff.
func DefaultPolicy() Policy {
	return Policy{MaxAttempts: 3, Backoff: Exponential(200 * time.Millisecond)}
}

// Do runs fn until it succeeds, the attempt cap is reached, or ctx is done.
// The last error is returned unwrapped so callers can inspect it.
func (p Policy) Do(ctx context.Context, fn func() error) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err = fn(); err == nil {
			return nil
		}
		if attempt == attempts {
			break
		}
		var delay time.Duration
		if p.Backoff != nil {
			delay = p.Backoff(attempt)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}
	return err
}
