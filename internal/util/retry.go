package util

import (
	"context"
	"time"
)

// BackoffPolicy produces the delay before attempt n (1-based).
type BackoffPolicy func(attempt int) time.Duration

// ExponentialBackoff doubles the base delay per attempt: base, 2*base, ...
func ExponentialBackoff(base time.Duration) BackoffPolicy {
	return func(attempt int) time.Duration {
		d := base
		for i := 1; i < attempt; i++ {
			d *= 2
		}
		return d
	}
}

// WithRetry runs fn up to maxAttempts times, sleeping per the backoff policy
// between attempts. retryable decides whether an error is worth another
// attempt; non-retryable errors return immediately. Context cancellation
// aborts the wait.
func WithRetry(ctx context.Context, maxAttempts int, backoff BackoffPolicy, retryable func(error) bool, fn func() error) error {
	if maxAttempts <= 0 {
		maxAttempts = 1
	}
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		if retryable != nil && !retryable(lastErr) {
			return lastErr
		}
		if attempt == maxAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff(attempt)):
		}
	}
	return lastErr
}
