package gotlive

import (
	"context"
	"errors"
	"time"
)

// RetryPolicy controls how a rejected batch is retried.
type RetryPolicy struct {
	MaxRetries int           // retries after the first attempt
	Delay      time.Duration // wait before the first retry
	Multiplier float64       // growth factor between retries; values below 1 mean 1
	MaxDelay   time.Duration // upper bound on a single wait; zero means no bound

	// ShouldRetry decides whether an error is worth another attempt.
	// Defaults to IsRateLimited.
	ShouldRetry func(error) bool
}

// DefaultRetryPolicy retries a rate-limited batch exactly once after two seconds.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries: 1,
		Delay:      2 * time.Second,
		Multiplier: 1,
		MaxDelay:   2 * time.Second,
	}
}

// Backoff returns the wait before retry number attempt (zero-based).
func (p RetryPolicy) Backoff(attempt int) time.Duration {
	delay := float64(p.Delay)
	if p.Multiplier > 1 {
		for i := 0; i < attempt; i++ {
			delay *= p.Multiplier
		}
	}
	d := time.Duration(delay)
	if p.MaxDelay > 0 && d > p.MaxDelay {
		d = p.MaxDelay
	}
	return d
}

func (p RetryPolicy) shouldRetry(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if p.ShouldRetry != nil {
		return p.ShouldRetry(err)
	}
	return IsRateLimited(err)
}

// RetryFunc is a function that can be retried.
type RetryFunc[T any] func() (T, error)

// WithRetry runs fn and retries it according to policy.
func WithRetry[T any](ctx context.Context, policy RetryPolicy, fn RetryFunc[T]) (T, error) {
	var zero T

	for attempt := 0; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return zero, err
		}

		result, err := fn()
		if err == nil {
			return result, nil
		}
		if attempt >= policy.MaxRetries || !policy.shouldRetry(err) {
			return zero, err
		}

		timer := time.NewTimer(policy.Backoff(attempt))
		select {
		case <-ctx.Done():
			timer.Stop()
			return zero, ctx.Err()
		case <-timer.C:
		}
	}
}

// IsRetryable reports whether err is a transient provider failure.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var providerErr *ProviderError
	if errors.As(err, &providerErr) {
		return providerErr.Retryable || providerErr.RateLimited
	}
	return false
}
