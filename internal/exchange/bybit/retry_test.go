package bybit

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastRetryClient() *Client {
	return &Client{retry: retryConfig{
		maxRetries:    3,
		initialDelay:  time.Millisecond,
		maxDelay:      5 * time.Millisecond,
		backoffFactor: 2.0,
	}}
}

func TestWithRetry_RetryableAPICodeBacksOff(t *testing.T) {
	c := fastRetryClient()

	calls := 0
	err := c.withRetry(context.Background(), func() error {
		calls++
		if calls < 3 {
			return NewAPIError(ErrCodeRateLimitExceeded, "too many visits")
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestWithRetry_NonRetryableFailsFast(t *testing.T) {
	c := fastRetryClient()

	calls := 0
	err := c.withRetry(context.Background(), func() error {
		calls++
		return NewAPIError(ErrCodeInsufficientBalance, "ab not enough for new order")
	})

	require.Error(t, err)
	assert.Equal(t, 1, calls)
	assert.True(t, IsInsufficientBalanceError(err))
}

func TestWithRetry_TransportErrorsAreNotRetried(t *testing.T) {
	c := fastRetryClient()

	calls := 0
	err := c.withRetry(context.Background(), func() error {
		calls++
		return fmt.Errorf("connection reset by peer")
	})

	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestWithRetry_ExhaustsRetries(t *testing.T) {
	c := fastRetryClient()

	calls := 0
	err := c.withRetry(context.Background(), func() error {
		calls++
		return NewAPIError(ErrCodeRateLimitExceeded, "too many visits")
	})

	require.Error(t, err)
	assert.Equal(t, 4, calls)
	assert.True(t, IsRetryableError(err))
}

func TestWithRetry_ContextCancellationStopsBackoff(t *testing.T) {
	c := fastRetryClient()
	c.retry.initialDelay = time.Minute

	ctx, cancel := context.WithCancel(context.Background())

	calls := 0
	started := make(chan struct{}, 1)
	done := make(chan error, 1)
	go func() {
		done <- c.withRetry(ctx, func() error {
			calls++
			started <- struct{}{}
			return NewAPIError(ErrCodeRateLimitExceeded, "too many visits")
		})
	}()

	<-started
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("withRetry did not observe cancellation")
	}
	assert.Equal(t, 1, calls)
}
