package retry

import (
	"context"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Schedule builds a fresh backoff schedule for one run. Schedules are
// stateful, so a policy must never share a BackOff instance between
// runs or call sites.
type Schedule func() backoff.BackOff

// Exponential returns a schedule growing from initial up to max with
// the given multiplier.
func Exponential(initial, max time.Duration, multiplier float64) Schedule {
	return func() backoff.BackOff {
		b := backoff.NewExponentialBackOff()
		b.InitialInterval = initial
		b.MaxInterval = max
		b.Multiplier = multiplier
		b.RandomizationFactor = 0
		b.MaxElapsedTime = 0
		b.Reset()
		return b
	}
}

// Constant returns a fixed-delay schedule.
func Constant(delay time.Duration) Schedule {
	return func() backoff.BackOff {
		return backoff.NewConstantBackOff(delay)
	}
}

// Policy wraps a fallible operation with bounded retries. Each call
// site carries its own Policy value so retry predicates never leak
// between operation types.
type Policy struct {
	Name        string
	MaxAttempts int
	Schedule    Schedule
	// RetryIf reports whether an error is worth another attempt.
	// A nil predicate retries on every error.
	RetryIf func(error) bool
	// Suppress converts exhaustion into a nil return, for best-effort
	// operations where giving up degrades to "no progress".
	Suppress bool
}

// Run invokes op until it succeeds, fails a non-retryable way, or the
// attempt ceiling is reached. It sleeps according to the schedule
// between attempts and honors context cancellation during sleeps.
func (p Policy) Run(ctx context.Context, op func() error) error {
	maxAttempts := p.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	var b backoff.BackOff
	if p.Schedule != nil {
		b = p.Schedule()
	} else {
		b = &backoff.ZeroBackOff{}
	}

	var lastErr error
	for attempt := 1; ; attempt++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}

		if p.RetryIf != nil && !p.RetryIf(lastErr) {
			return lastErr
		}

		if attempt >= maxAttempts {
			break
		}

		delay := b.NextBackOff()
		if delay == backoff.Stop {
			break
		}

		slog.Warn("Operation failed, retrying",
			"operation", p.Name,
			"attempt", attempt,
			"delay", delay.String(),
			"error", lastErr)

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	if p.Suppress {
		slog.Debug("Retries exhausted, suppressing error", "operation", p.Name, "error", lastErr)
		return nil
	}

	return lastErr
}
