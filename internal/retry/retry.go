// Package retry runs an operation with bounded exponential backoff,
// distinguishing retryable conditions (rate limits, timeouts) from fatal
// ones, which surface immediately.
package retry

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"time"
)

// Policy bounds a retried operation.
type Policy struct {
	MaxAttempts int           // total attempts, including the first (default 3)
	BaseDelay   time.Duration // doubled after each failed attempt (default 1s)
	Logger      *slog.Logger  // nil for silent retries
}

type retryableError struct{ err error }

func (e *retryableError) Error() string { return e.err.Error() }
func (e *retryableError) Unwrap() error { return e.err }

// Retryable marks an error as worth retrying (e.g. an HTTP 429).
func Retryable(err error) error {
	if err == nil {
		return nil
	}
	return &retryableError{err: err}
}

// IsRetryable reports whether err was marked Retryable or is a network
// timeout. Everything else is fatal.
func IsRetryable(err error) bool {
	var re *retryableError
	if errors.As(err, &re) {
		return true
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return true
	}
	return errors.Is(err, context.DeadlineExceeded)
}

// Do runs fn up to p.MaxAttempts times, sleeping BaseDelay<<attempt between
// attempts. Fatal errors and context cancellation end the loop immediately.
func Do(ctx context.Context, p Policy, op string, fn func(context.Context) error) error {
	attempts := p.MaxAttempts
	if attempts <= 0 {
		attempts = 3
	}
	delay := p.BaseDelay
	if delay <= 0 {
		delay = time.Second
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		err := fn(ctx)
		if err == nil {
			return nil
		}
		lastErr = err

		if !IsRetryable(err) || attempt == attempts-1 {
			return lastErr
		}
		if ctx.Err() != nil {
			return lastErr
		}

		wait := delay << uint(attempt)
		if p.Logger != nil {
			p.Logger.WarnContext(ctx, "retrying",
				"op", op,
				"attempt", attempt+1,
				"max_attempts", attempts,
				"backoff_ms", wait.Milliseconds(),
				"error", err)
		}
		select {
		case <-ctx.Done():
			return lastErr
		case <-time.After(wait):
		}
	}
	return lastErr
}
