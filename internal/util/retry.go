// ABOUTME: Retry utilities for backend calls with exponential backoff
// ABOUTME: Shared by the embedding provider and the generation path
package util

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"
)

// MaxBackoff caps any single delay
const MaxBackoff = 30 * time.Second

// RetryPolicy bounds how often and how patiently a call is retried
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	Jitter      bool

	// Sleep waits between attempts; nil uses a timer that honors ctx
	Sleep func(ctx context.Context, d time.Duration) error
	// OnRetry is called after a failed attempt that will be retried
	OnRetry func(attempt int, err error, delay time.Duration)
}

// DefaultRetryPolicy is 3 attempts, 1s then 2s between them
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 3,
		BaseDelay:   time.Second,
	}
}

// Backoff returns the delay before retry number n (1-based): base * 2^(n-1)
func Backoff(baseDelay time.Duration, retry int) time.Duration {
	if retry <= 0 {
		return 0
	}
	// Cap shift to avoid overflow
	if retry > 30 {
		retry = 30
	}
	backoff := baseDelay * time.Duration(1<<uint(retry-1))
	if backoff > MaxBackoff || backoff < 0 {
		backoff = MaxBackoff
	}
	return backoff
}

// CalculateBackoff returns Backoff with random jitter of up to 25% either way
func CalculateBackoff(baseDelay time.Duration, retry int) time.Duration {
	backoff := Backoff(baseDelay, retry)
	if backoff <= 0 {
		return 0
	}
	// Add jitter: -25% to +25% using auto-seeded math/rand/v2
	jitter := time.Duration(rand.Int64N(int64(backoff)/2+1)) - backoff/4
	return backoff + jitter
}

// Retry calls fn until it succeeds or MaxAttempts is spent.
// It returns the number of attempts made and the last error.
func Retry(ctx context.Context, p RetryPolicy, fn func(ctx context.Context, attempt int) error) (int, error) {
	attempts := p.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}
	sleep := p.Sleep
	if sleep == nil {
		sleep = sleepContext
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		lastErr = fn(ctx, attempt)
		if lastErr == nil {
			return attempt, nil
		}
		if attempt == attempts {
			break
		}

		delay := Backoff(p.BaseDelay, attempt)
		if p.Jitter {
			delay = CalculateBackoff(p.BaseDelay, attempt)
		}
		if p.OnRetry != nil {
			p.OnRetry(attempt, lastErr, delay)
		}
		if err := sleep(ctx, delay); err != nil {
			return attempt, fmt.Errorf("%w (last error: %v)", err, lastErr)
		}
	}
	return attempts, lastErr
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
