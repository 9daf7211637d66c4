package rpc

import (
	"context"
	"errors"
	"fmt"
	"syscall"
	"testing"
	"time"

	"github.com/goran-ethernal/StakingIndexor/internal/common"
	"github.com/goran-ethernal/StakingIndexor/pkg/config"
	"github.com/stretchr/testify/require"
)

type netError struct {
	msg     string
	timeout bool
}

func (e *netError) Error() string   { return e.msg }
func (e *netError) Timeout() bool   { return e.timeout }
func (e *netError) Temporary() bool { return false }

func fastRetry(attempts int) *config.RetryConfig {
	return &config.RetryConfig{
		MaxAttempts:       attempts,
		InitialBackoff:    common.NewDuration(time.Millisecond),
		MaxBackoff:        common.NewDuration(5 * time.Millisecond),
		BackoffMultiplier: 2.0,
	}
}

func TestRetryableError(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		retryable bool
	}{
		{name: "nil", err: nil, retryable: false},
		{name: "net error", err: &netError{msg: "i/o timeout", timeout: true}, retryable: true},
		{name: "connection refused", err: syscall.ECONNREFUSED, retryable: true},
		{name: "wrapped reset", err: fmt.Errorf("dial: %w", syscall.ECONNRESET), retryable: true},
		{name: "rate limited", err: errors.New("429 Too Many Requests"), retryable: true},
		{name: "gateway", err: errors.New("502 Bad Gateway"), retryable: true},
		{name: "revert", err: errors.New("execution reverted"), retryable: false},
		{name: "too many results", err: &dataError{data: tooManyMsg}, retryable: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.retryable, retryableError(tt.err))
		})
	}
}

func TestErrorType(t *testing.T) {
	require.Equal(t, "context", errorType(fmt.Errorf("x: %w", context.DeadlineExceeded)))
	require.Equal(t, "too_many_results", errorType(&dataError{data: tooManyMsg}))
	require.Equal(t, "transient", errorType(errors.New("503 service unavailable")))
	require.Equal(t, "other", errorType(errors.New("execution reverted")))
}

func TestCalculateBackoff(t *testing.T) {
	cfg := &config.RetryConfig{
		InitialBackoff:    common.NewDuration(time.Second),
		MaxBackoff:        common.NewDuration(5 * time.Second),
		BackoffMultiplier: 2.0,
	}

	require.Zero(t, calculateBackoff(1, cfg))

	second := calculateBackoff(2, cfg)
	require.GreaterOrEqual(t, second, 750*time.Millisecond)
	require.LessOrEqual(t, second, 1250*time.Millisecond)

	capped := calculateBackoff(10, cfg)
	require.LessOrEqual(t, capped, 6250*time.Millisecond)
}

func TestRetryWithBackoff(t *testing.T) {
	t.Run("succeeds after transient failures", func(t *testing.T) {
		calls := 0
		err := retryWithBackoff(context.Background(), fastRetry(5), "op", func() error {
			calls++
			if calls < 3 {
				return &netError{msg: "timeout", timeout: true}
			}
			return nil
		})

		require.NoError(t, err)
		require.Equal(t, 3, calls)
	})

	t.Run("stops on non-retryable error", func(t *testing.T) {
		calls := 0
		sentinel := errors.New("execution reverted")
		err := retryWithBackoff(context.Background(), fastRetry(5), "op", func() error {
			calls++
			return sentinel
		})

		require.ErrorIs(t, err, sentinel)
		require.Equal(t, 1, calls)
	})

	t.Run("exhausts attempts", func(t *testing.T) {
		calls := 0
		err := retryWithBackoff(context.Background(), fastRetry(3), "op", func() error {
			calls++
			return syscall.ECONNREFUSED
		})

		require.ErrorContains(t, err, "all 3 attempts failed")
		require.ErrorIs(t, err, syscall.ECONNREFUSED)
		require.Equal(t, 3, calls)
	})

	t.Run("cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		err := retryWithBackoff(ctx, fastRetry(3), "op", func() error { return nil })
		require.ErrorIs(t, err, context.Canceled)
	})

	t.Run("nil config runs once", func(t *testing.T) {
		calls := 0
		err := retryWithBackoff(context.Background(), nil, "op", func() error {
			calls++
			return syscall.ECONNREFUSED
		})

		require.ErrorIs(t, err, syscall.ECONNREFUSED)
		require.Equal(t, 1, calls)
	})
}
