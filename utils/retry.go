package utils

import (
	"context"
	"fmt"
	"time"
)

// Retry runs fn up to attempts times with a multiplicative backoff between
// tries (delay, 2*delay, 4*delay, ...). It stops early when the context is
// done and returns the last error.
func Retry(ctx context.Context, attempts int, delay time.Duration, fn func() error) error {
	if attempts < 1 {
		attempts = 1
	}
	var lastErr error
	wait := delay
	for i := 0; i < attempts; i++ {
		if err := ctx.Err(); err != nil {
			if lastErr != nil {
				return fmt.Errorf("%w (after %d attempts: %v)", err, i, lastErr)
			}
			return err
		}
		if lastErr = fn(); lastErr == nil {
			return nil
		}
		if i == attempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("%w (after %d attempts: %v)", ctx.Err(), i+1, lastErr)
		case <-time.After(wait):
		}
		wait *= 2
	}
	return fmt.Errorf("all %d attempts failed: %w", attempts, lastErr)
}
