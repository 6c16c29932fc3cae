// Package guard bounds calls to external services with an overall timeout and
// a sequential exponential-backoff retry policy.
package guard

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

var (
	// ErrTimeout is returned when the guarded call exceeds its overall budget.
	ErrTimeout = errors.New("request timed out")
	// ErrServiceUnavailable is returned when every retry attempt failed. The
	// last underlying error is wrapped alongside it.
	ErrServiceUnavailable = errors.New("service unavailable")
)

const (
	DefaultTimeout    = 30 * time.Second
	DefaultMaxRetries = 3
	DefaultBaseDelay  = time.Second
)

// SleepFunc waits for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Sleep is the production SleepFunc.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Policy configures Retry.
type Policy struct {
	MaxRetries int
	BaseDelay  time.Duration
	Sleep      SleepFunc
	Logger     *zap.Logger
}

func (p Policy) withDefaults() Policy {
	if p.MaxRetries <= 0 {
		p.MaxRetries = DefaultMaxRetries
	}
	if p.BaseDelay <= 0 {
		p.BaseDelay = DefaultBaseDelay
	}
	if p.Sleep == nil {
		p.Sleep = Sleep
	}
	if p.Logger == nil {
		p.Logger = zap.NewNop()
	}
	return p
}

// Backoff returns the wait after failed attempt k (0-indexed): base * 2^k.
func (p Policy) Backoff(attempt int) time.Duration {
	p = p.withDefaults()
	return p.BaseDelay << uint(attempt)
}

type result[T any] struct {
	val T
	err error
}

// Timeout runs op and gives up after d. On timeout op's context is cancelled
// and its eventual result discarded.
func Timeout[T any](ctx context.Context, d time.Duration, logger *zap.Logger, op func(context.Context) (T, error)) (T, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if d <= 0 {
		d = DefaultTimeout
	}

	ctx, cancel := context.WithTimeout(ctx, d)
	defer cancel()

	done := make(chan result[T], 1)
	go func() {
		v, err := op(ctx)
		done <- result[T]{val: v, err: err}
	}()

	var zero T
	select {
	case r := <-done:
		if r.err != nil && errors.Is(ctx.Err(), context.DeadlineExceeded) {
			logger.Error("guarded call timed out", zap.Duration("timeout", d), zap.Error(r.err))
			return zero, ErrTimeout
		}
		return r.val, r.err
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			logger.Error("guarded call timed out", zap.Duration("timeout", d))
			return zero, ErrTimeout
		}
		return zero, ctx.Err()
	}
}

// Retry invokes op up to MaxRetries times, sleeping BaseDelay*2^k after failed
// attempt k except the last one.
func Retry[T any](ctx context.Context, policy Policy, op func(context.Context) (T, error)) (T, error) {
	p := policy.withDefaults()

	var zero T
	var lastErr error
	for attempt := 0; attempt < p.MaxRetries; attempt++ {
		v, err := op(ctx)
		if err == nil {
			return v, nil
		}
		lastErr = err
		p.Logger.Warn("guarded call attempt failed",
			zap.Int("attempt", attempt+1),
			zap.Int("max_attempts", p.MaxRetries),
			zap.Error(err),
		)

		if attempt == p.MaxRetries-1 {
			break
		}
		if err := p.Sleep(ctx, p.Backoff(attempt)); err != nil {
			return zero, err
		}
	}

	p.Logger.Error("all retry attempts failed", zap.Int("attempts", p.MaxRetries), zap.Error(lastErr))
	return zero, fmt.Errorf("%w: %w", ErrServiceUnavailable, lastErr)
}

// Layer composes Timeout around Retry so the timeout bounds the total time
// spent across all attempts.
type Layer struct {
	Timeout time.Duration
	Policy  Policy
	Logger  *zap.Logger
}

// NewLayer returns a Layer with the given budget and attempt count.
func NewLayer(timeout time.Duration, maxRetries int, logger *zap.Logger) *Layer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Layer{
		Timeout: timeout,
		Policy:  Policy{MaxRetries: maxRetries, Logger: logger},
		Logger:  logger,
	}
}

// Do runs op under the layer's retry policy and overall timeout.
func Do[T any](ctx context.Context, l *Layer, op func(context.Context) (T, error)) (T, error) {
	return Timeout(ctx, l.Timeout, l.Logger, func(ctx context.Context) (T, error) {
		return Retry(ctx, l.Policy, op)
	})
}

// Outcome classifies err for metric labels.
func Outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrTimeout):
		return "timeout"
	case errors.Is(err, ErrServiceUnavailable):
		return "unavailable"
	default:
		return "error"
	}
}
