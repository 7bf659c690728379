// Package retry repeats transient failures with jittered exponential backoff.
package retry

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"strings"
	"time"
)

// Config controls how many times an operation is repeated and how long to
// wait in between.
type Config struct {
	MaxRetries   int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
	JitterFactor float64 // fraction of the delay, 0 to 1
}

// DefaultConfig is tuned for hosted model endpoints.
func DefaultConfig() *Config {
	return &Config{
		MaxRetries:   2,
		InitialDelay: 500 * time.Millisecond,
		MaxDelay:     8 * time.Second,
		Multiplier:   2.0,
		JitterFactor: 0.1,
	}
}

// delay is the pause after the given zero-based attempt, before jitter.
func (c *Config) delay(attempt int) time.Duration {
	d := float64(c.InitialDelay) * math.Pow(c.Multiplier, float64(attempt))
	if c.MaxDelay > 0 && d > float64(c.MaxDelay) {
		return c.MaxDelay
	}
	return time.Duration(d)
}

func applyJitter(delay time.Duration, jitterFactor float64) time.Duration {
	if jitterFactor <= 0 {
		return delay
	}
	spread := float64(delay) * jitterFactor
	return delay + time.Duration(spread*(2*rand.Float64()-1))
}

// sleep waits for d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// DoIfRetryable runs fn, repeating it while the error is retryable and
// MaxRetries allows. It returns the last result and error, or ctx's error
// if ctx ends during a pause. A nil cfg means DefaultConfig.
func DoIfRetryable[T any](ctx context.Context, cfg *Config, fn func(attempt int) (T, error)) (T, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	var (
		result T
		err    error
	)
	for attempt := 0; attempt <= cfg.MaxRetries; attempt++ {
		if result, err = fn(attempt); err == nil || !IsRetryable(err) {
			break
		}
		if attempt == cfg.MaxRetries {
			break
		}
		if werr := sleep(ctx, applyJitter(cfg.delay(attempt), cfg.JitterFactor)); werr != nil {
			return result, werr
		}
	}
	return result, err
}

// IsRetryable reports whether err looks transient. An error in the chain
// with an IsRetryable method decides on its own; cancellation and deadlines
// never retry; anything else is matched against known transient messages.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	var declared interface{ IsRetryable() bool }
	switch {
	case errors.As(err, &declared):
		return declared.IsRetryable()
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return false
	}

	msg := strings.ToLower(err.Error())
	for _, marker := range transientMarkers {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}

var transientMarkers = []string{
	// network
	"connection refused", "connection reset", "broken pipe", "no such host",
	"i/o timeout", "timed out", "temporary failure", "network is unreachable",
	// provider pushback
	"429", "502", "503", "504",
	"rate limit", "too many requests", "service unavailable", "overloaded",
}
