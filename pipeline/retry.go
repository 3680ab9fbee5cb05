package pipeline

import (
	"context"
	"time"
)

// RetryDelays returns n backoff delays doubling from one second: 1s, 2s, 4s...
func RetryDelays(n int) []time.Duration {
	delays := make([]time.Duration, 0, n)
	d := time.Second
	for i := 0; i < n; i++ {
		delays = append(delays, d)
		d *= 2
	}
	return delays
}

// permanent marks an error that must not be retried.
type permanent struct {
	err error
}

func (p permanent) Error() string {
	return p.err.Error()
}

// withRetry calls fn until it succeeds, waiting delays[i] before attempt
// i+2. With no delays fn runs exactly once. Context errors are not retried.
func withRetry(ctx context.Context, delays []time.Duration, fn func(ctx context.Context) error) error {
	maxAttempts := len(delays) + 1 // 1 initial + N retries

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		err := fn(ctx)
		if err == nil {
			return nil
		}
		if p, ok := err.(permanent); ok {
			return p.err
		}
		lastErr = err

		if attempt >= maxAttempts-1 || ctx.Err() != nil {
			break
		}

		select {
		case <-ctx.Done():
			return lastErr
		case <-time.After(delays[attempt]):
		}
	}

	return lastErr
}
