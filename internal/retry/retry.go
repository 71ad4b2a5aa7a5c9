// Package retry provides a bounded retry loop shared by the upload and
// message-fetch paths.
package retry

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrExhausted indicates retry attempts were exhausted.
var ErrExhausted = errors.New("retry attempts exhausted")

// Config holds configuration for a bounded retry loop.
type Config struct {
	// MaxAttempts is the total number of attempts, including the first.
	MaxAttempts int

	// Backoff returns the wait after the given failed attempt (1-based).
	// Nil means no wait between attempts.
	Backoff func(attempt int) time.Duration

	// Retryable reports whether an error is worth another attempt.
	// Nil treats every error as retryable.
	Retryable func(err error) bool

	// Sleep waits for the given duration, honoring context cancellation.
	// Nil selects the real clock; tests substitute a recorder.
	Sleep func(ctx context.Context, d time.Duration) error
}

// ExponentialBackoff returns 2^attempt seconds: 2s after the first failed
// attempt, 4s after the second, 8s after the third.
func ExponentialBackoff(attempt int) time.Duration {
	return time.Duration(1<<attempt) * time.Second
}

// Do runs op until it succeeds, exhausts cfg.MaxAttempts, hits a
// non-retryable error, or the context is cancelled. Non-retryable errors are
// returned as-is; exhaustion is reported wrapped in ErrExhausted.
func Do(ctx context.Context, cfg Config, op func(ctx context.Context) error) error {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 1
	}
	sleep := cfg.Sleep
	if sleep == nil {
		sleep = Wait
	}

	var lastErr error
	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		err := op(ctx)
		if err == nil {
			return nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return fmt.Errorf("retry abandoned: %w", ctx.Err())
		}

		if cfg.Retryable != nil && !cfg.Retryable(err) {
			return err
		}

		if attempt < cfg.MaxAttempts && cfg.Backoff != nil {
			if sleepErr := sleep(ctx, cfg.Backoff(attempt)); sleepErr != nil {
				return fmt.Errorf("retry abandoned: %w", sleepErr)
			}
		}
	}

	return fmt.Errorf("%w after %d attempts: %v", ErrExhausted, cfg.MaxAttempts, lastErr)
}

// Wait sleeps for d or until ctx is done, whichever comes first.
func Wait(ctx context.Context, d time.Duration) error {
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
