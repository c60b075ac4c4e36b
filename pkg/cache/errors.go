package cache

import (
	"context"
	"errors"
	"time"
)

// ErrUnavailable is returned when a cache backend cannot be reached.
var ErrUnavailable = errors.New("cache unavailable")

// RetryableError marks an error as transient.
type RetryableError struct{ Err error }

// Retryable wraps err as a RetryableError. Retryable(nil) is nil.
func Retryable(err error) error {
	if err == nil {
		return nil
	}
	return &RetryableError{Err: err}
}

func (e *RetryableError) Error() string { return e.Err.Error() }
func (e *RetryableError) Unwrap() error { return e.Err }

// IsRetryable reports whether err was wrapped with Retryable.
func IsRetryable(err error) bool {
	var re *RetryableError
	return errors.As(err, &re)
}

// retryDelay is the first backoff interval. Tests shorten it.
var retryDelay = 200 * time.Millisecond

// RetryWithBackoff calls fn up to three times, doubling the delay between
// attempts. Only Retryable errors are retried.
func RetryWithBackoff(ctx context.Context, fn func() error) error {
	const attempts = 3
	delay := retryDelay
	var lastErr error

	for i := range attempts {
		if lastErr = fn(); lastErr == nil || !IsRetryable(lastErr) {
			return lastErr
		}
		if i == attempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
			delay *= 2
		}
	}
	return lastErr
}
