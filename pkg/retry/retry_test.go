package retry

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type declaredErr struct{ retry bool }

func (e declaredErr) Error() string     { return "declared" }
func (e declaredErr) IsRetryable() bool { return e.retry }

func fastConfig(maxRetries int) *Config {
	return &Config{
		MaxRetries:   maxRetries,
		InitialDelay: time.Millisecond,
		MaxDelay:     5 * time.Millisecond,
		Multiplier:   2.0,
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, 2, cfg.MaxRetries)
	assert.Equal(t, 500*time.Millisecond, cfg.InitialDelay)
	assert.Equal(t, 8*time.Second, cfg.MaxDelay)
}

func TestConfigDelay(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, 500*time.Millisecond, cfg.delay(0))
	assert.Equal(t, time.Second, cfg.delay(1))
	assert.Equal(t, 4*time.Second, cfg.delay(3))
	assert.Equal(t, 8*time.Second, cfg.delay(10), "capped at MaxDelay")
}

func TestDoIfRetryable(t *testing.T) {
	t.Run("first attempt succeeds", func(t *testing.T) {
		calls := 0
		got, err := DoIfRetryable(context.Background(), fastConfig(3), func(int) (string, error) {
			calls++
			return "ok", nil
		})
		require.NoError(t, err)
		assert.Equal(t, "ok", got)
		assert.Equal(t, 1, calls)
	})

	t.Run("recovers after transient errors", func(t *testing.T) {
		var attempts []int
		got, err := DoIfRetryable(context.Background(), fastConfig(3), func(attempt int) (int, error) {
			attempts = append(attempts, attempt)
			if attempt < 2 {
				return 0, errors.New("503 service unavailable")
			}
			return 42, nil
		})
		require.NoError(t, err)
		assert.Equal(t, 42, got)
		assert.Equal(t, []int{0, 1, 2}, attempts)
	})

	t.Run("permanent error is returned at once", func(t *testing.T) {
		calls := 0
		_, err := DoIfRetryable(context.Background(), fastConfig(3), func(int) (int, error) {
			calls++
			return 0, errors.New("401 invalid api key")
		})
		require.Error(t, err)
		assert.Equal(t, 1, calls)
	})

	t.Run("returns the last error when retries run out", func(t *testing.T) {
		calls := 0
		_, err := DoIfRetryable(context.Background(), fastConfig(2), func(int) (int, error) {
			calls++
			return 0, fmt.Errorf("attempt %d: connection reset", calls)
		})
		assert.EqualError(t, err, "attempt 3: connection reset")
		assert.Equal(t, 3, calls)
	})

	t.Run("zero retries is single-shot", func(t *testing.T) {
		calls := 0
		_, err := DoIfRetryable(context.Background(), fastConfig(0), func(int) (int, error) {
			calls++
			return 0, errors.New("503 service unavailable")
		})
		require.Error(t, err)
		assert.Equal(t, 1, calls)
	})

	t.Run("cancellation during the pause", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cfg := &Config{MaxRetries: 5, InitialDelay: time.Second, MaxDelay: time.Second, Multiplier: 1}

		calls := 0
		_, err := DoIfRetryable(ctx, cfg, func(int) (int, error) {
			calls++
			cancel()
			return 0, errors.New("429 too many requests")
		})
		assert.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, 1, calls)
	})

	t.Run("nil config", func(t *testing.T) {
		_, err := DoIfRetryable(context.Background(), nil, func(int) (int, error) {
			return 0, errors.New("bad request")
		})
		assert.Error(t, err)
	})
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"connection refused", errors.New("dial tcp: connection refused"), true},
		{"mixed case", errors.New("Connection Reset by peer"), true},
		{"i/o timeout", errors.New("read: i/o timeout"), true},
		{"rate limited", errors.New("status 429: rate limit reached"), true},
		{"overloaded", errors.New("anthropic: overloaded"), true},
		{"auth", errors.New("authentication failed"), false},
		{"bad request", errors.New("400 bad request"), false},
		{"declared retryable", declaredErr{retry: true}, true},
		{"declared permanent beats message", fmt.Errorf("503: %w", declaredErr{retry: false}), false},
		{"cancelled", fmt.Errorf("timed out: %w", context.Canceled), false},
		{"deadline", context.DeadlineExceeded, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsRetryable(tt.err))
		})
	}
}

func TestApplyJitter(t *testing.T) {
	assert.Equal(t, time.Second, applyJitter(time.Second, 0))
	for range 50 {
		got := applyJitter(time.Second, 0.1)
		assert.GreaterOrEqual(t, got, 900*time.Millisecond)
		assert.LessOrEqual(t, got, 1100*time.Millisecond)
	}
}
