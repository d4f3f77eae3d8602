package session

import (
	"context"
	"time"
)

// withRetry runs op once plus up to retries more times, sleeping backoff,
// 2*backoff, 3*backoff... between attempts. It stops early when ctx is done.
func withRetry(ctx context.Context, retries int, backoff time.Duration, op func() error, onRetry func(attempt int, err error)) error {
	err := op()
	for attempt := 1; err != nil && attempt <= retries; attempt++ {
		if ctx.Err() != nil {
			return err
		}
		if onRetry != nil {
			onRetry(attempt, err)
		}
		timer := time.NewTimer(backoff * time.Duration(attempt))
		select {
		case <-ctx.Done():
			timer.Stop()
			return err
		case <-timer.C:
		}
		err = op()
	}
	return err
}
