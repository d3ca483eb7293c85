package bybit

import (
	"context"
	"math"
	"time"
)

// retryConfig bounds the client-side retry for transient API failures.
// Order placement is never retried here; the trading engine's polling
// cadence is the retry mechanism for everything it can tolerate losing.
type retryConfig struct {
	maxRetries    int
	initialDelay  time.Duration
	maxDelay      time.Duration
	backoffFactor float64
}

func defaultRetryConfig() retryConfig {
	return retryConfig{
		maxRetries:    3,
		initialDelay:  time.Second,
		maxDelay:      10 * time.Second,
		backoffFactor: 2.0,
	}
}

// withRetry executes fn, retrying retryable errors with exponential
// backoff. Used for read-only calls only. fn must validate the API
// envelope itself so a retryable retCode (rate limit, gateway failure)
// surfaces as an *APIError here and triggers the backoff.
func (c *Client) withRetry(ctx context.Context, fn func() error) error {
	cfg := c.retry

	var lastErr error
	for attempt := 0; attempt <= cfg.maxRetries; attempt++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		lastErr = fn()
		if lastErr == nil {
			return nil
		}

		if attempt == cfg.maxRetries || !IsRetryableError(lastErr) {
			break
		}

		delay := time.Duration(float64(cfg.initialDelay) * math.Pow(cfg.backoffFactor, float64(attempt)))
		if delay > cfg.maxDelay {
			delay = cfg.maxDelay
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}

	return lastErr
}
