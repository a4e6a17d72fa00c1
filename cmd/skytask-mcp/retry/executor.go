package retry

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/skytask-mcp/skytask/cmd/skytask-mcp/errors"
)

// Strategy defines how delays grow between attempts and which failures are
// worth retrying.
type Strategy interface {
	NextDelay(attempt int) time.Duration
	ShouldRetry(attempt int, err error) bool
}

// Config defines retry configuration for Do.
type Config struct {
	MaxAttempts int
	Strategy    Strategy
	OnRetry     func(attempt int, err error)
}

// ExponentialBackoff doubles the delay after every failed attempt:
// delay = BaseDelay * 2^(attempt-1).
type ExponentialBackoff struct {
	BaseDelay time.Duration
	MaxDelay  time.Duration
}

// NextDelay calculates the delay after the given 1-based attempt.
func (e *ExponentialBackoff) NextDelay(attempt int) time.Duration {
	delay := float64(e.BaseDelay) * math.Pow(2, float64(attempt-1))
	if e.MaxDelay > 0 && delay > float64(e.MaxDelay) {
		return e.MaxDelay
	}
	return time.Duration(delay)
}

// ShouldRetry consults the error classification: 4xx request defects never
// retry, everything else does.
func (e *ExponentialBackoff) ShouldRetry(attempt int, err error) bool {
	if apiErr, ok := errors.As(err); ok {
		return apiErr.Retryable()
	}
	return true
}

// FixedDelay waits the same interval between every attempt.
type FixedDelay struct {
	Delay time.Duration
}

// NextDelay returns the constant delay.
func (f *FixedDelay) NextDelay(attempt int) time.Duration {
	return f.Delay
}

// ShouldRetry consults the error classification.
func (f *FixedDelay) ShouldRetry(attempt int, err error) bool {
	if apiErr, ok := errors.As(err); ok {
		return apiErr.Retryable()
	}
	return true
}

// Do executes the operation up to MaxAttempts times, sleeping per the
// strategy between attempts. The final failure is returned unchanged so the
// caller sees the original classification. The backoff wait honors context
// cancellation.
func Do[T any](ctx context.Context, operation func() (T, error), config Config) (T, error) {
	var result T
	var err error

	for attempt := 1; ; attempt++ {
		result, err = operation()
		if err == nil {
			return result, nil
		}

		if attempt >= config.MaxAttempts || !config.Strategy.ShouldRetry(attempt, err) {
			return result, err
		}

		if config.OnRetry != nil {
			config.OnRetry(attempt, err)
		}

		select {
		case <-time.After(config.Strategy.NextDelay(attempt)):
		case <-ctx.Done():
			return result, fmt.Errorf("retry cancelled: %w", ctx.Err())
		}
	}
}
