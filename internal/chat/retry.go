package chat

import (
	"context"
	"time"

	"github.com/facebookgo/clock"

	"github.com/hammamikhairi/foodify/internal/domain"
)

// RetryPolicy bounds how often a failed completion is attempted.
type RetryPolicy struct {
	// MaxAttempts counts the first try. Values below 1 mean 1.
	MaxAttempts int
	// BaseDelay is doubled after every failed attempt.
	BaseDelay time.Duration
}

// DefaultRetryPolicy allows 3 attempts, waiting 1s then 2s.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: 3, BaseDelay: time.Second}
}

// Delay returns the wait before the attempt following attempt (0-based).
func (p RetryPolicy) Delay(attempt int) time.Duration {
	return p.BaseDelay * time.Duration(1<<attempt)
}

// Do calls fn until it succeeds, returns a non-retryable error, the
// attempts run out or ctx is done. The last error is returned.
func (p RetryPolicy) Do(ctx context.Context, clk clock.Clock, fn func(ctx context.Context, attempt int) error) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var err error
	for attempt := 0; attempt < attempts; attempt++ {
		if err = fn(ctx, attempt); err == nil {
			return nil
		}
		if !domain.IsRetryable(err) || attempt == attempts-1 {
			return err
		}

		d := p.Delay(attempt)
		if d <= 0 {
			if ctx.Err() != nil {
				return err
			}
			continue
		}
		select {
		case <-ctx.Done():
			return err
		case <-clk.After(d):
		}
	}
	return err
}
