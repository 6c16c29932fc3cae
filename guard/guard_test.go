package guard

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type fakeSleeper struct {
	mu    sync.Mutex
	waits []time.Duration
}

func (f *fakeSleeper) Sleep(ctx context.Context, d time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.waits = append(f.waits, d)
	return ctx.Err()
}

func (f *fakeSleeper) total() time.Duration {
	f.mu.Lock()
	defer f.mu.Unlock()
	var sum time.Duration
	for _, w := range f.waits {
		sum += w
	}
	return sum
}

func TestRetryReturnsFirstSuccess(t *testing.T) {
	sleeper := &fakeSleeper{}
	calls := 0
	out, err := Retry(context.Background(), Policy{MaxRetries: 3, Sleep: sleeper.Sleep}, func(context.Context) (string, error) {
		calls++
		if calls < 2 {
			return "", errors.New("boom")
		}
		return "ok", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "ok", out)
	assert.Equal(t, 2, calls)
	assert.Equal(t, []time.Duration{time.Second}, sleeper.waits)
}

func TestRetryExhaustionWrapsLastError(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	sleeper := &fakeSleeper{}
	lastErr := errors.New("provider down #4")
	calls := 0

	_, err := Retry(context.Background(), Policy{MaxRetries: 4, Sleep: sleeper.Sleep, Logger: zap.New(core)}, func(context.Context) (int, error) {
		calls++
		if calls == 4 {
			return 0, lastErr
		}
		return 0, errors.New("provider down")
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrServiceUnavailable)
	assert.ErrorIs(t, err, lastErr)
	assert.Equal(t, 4, calls)

	// 1 + 2 + 4 seconds, nothing after the final attempt
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second, 4 * time.Second}, sleeper.waits)
	assert.Equal(t, 7*time.Second, sleeper.total())

	assert.Equal(t, 4, logs.FilterLevelExact(zapcore.WarnLevel).Len())
	assert.Equal(t, 1, logs.FilterLevelExact(zapcore.ErrorLevel).Len())
}

func TestRetryStopsWhenSleepIsCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	_, err := Retry(ctx, Policy{MaxRetries: 5, Sleep: func(ctx context.Context, _ time.Duration) error {
		cancel()
		return ctx.Err()
	}}, func(context.Context) (string, error) {
		calls++
		return "", errors.New("fail")
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestBackoff(t *testing.T) {
	p := Policy{}
	assert.Equal(t, time.Second, p.Backoff(0))
	assert.Equal(t, 2*time.Second, p.Backoff(1))
	assert.Equal(t, 8*time.Second, p.Backoff(3))

	p = Policy{BaseDelay: 10 * time.Millisecond}
	assert.Equal(t, 40*time.Millisecond, p.Backoff(2))
}

func TestTimeoutFiresForStuckOperation(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	release := make(chan struct{})
	t.Cleanup(func() { close(release) })

	start := time.Now()
	_, err := Timeout(context.Background(), 50*time.Millisecond, zap.New(core), func(context.Context) (string, error) {
		<-release
		return "late", nil
	})
	elapsed := time.Since(start)

	assert.ErrorIs(t, err, ErrTimeout)
	assert.Less(t, elapsed, time.Second)
	assert.Equal(t, 1, logs.Len())
}

func TestTimeoutPassesThroughResult(t *testing.T) {
	out, err := Timeout(context.Background(), time.Second, nil, func(context.Context) (string, error) {
		return "fast", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "fast", out)

	sentinel := errors.New("bad input")
	_, err = Timeout(context.Background(), time.Second, nil, func(context.Context) (string, error) {
		return "", sentinel
	})
	assert.ErrorIs(t, err, sentinel)
	assert.NotErrorIs(t, err, ErrTimeout)
}

func TestDoBoundsTotalTimeAcrossRetries(t *testing.T) {
	layer := &Layer{
		Timeout: 80 * time.Millisecond,
		Policy:  Policy{MaxRetries: 10, BaseDelay: 30 * time.Millisecond},
	}

	calls := 0
	start := time.Now()
	_, err := Do(context.Background(), layer, func(context.Context) (string, error) {
		calls++
		return "", errors.New("still failing")
	})

	assert.ErrorIs(t, err, ErrTimeout)
	assert.Less(t, time.Since(start), time.Second)
	assert.Less(t, calls, 10)
}

func TestDoExhaustsBeforeTimeout(t *testing.T) {
	sleeper := &fakeSleeper{}
	layer := &Layer{
		Timeout: time.Second,
		Policy:  Policy{MaxRetries: 3, Sleep: sleeper.Sleep},
	}

	_, err := Do(context.Background(), layer, func(context.Context) (string, error) {
		return "", errors.New("quota")
	})

	assert.ErrorIs(t, err, ErrServiceUnavailable)
	assert.NotErrorIs(t, err, ErrTimeout)
	assert.Equal(t, 3*time.Second, sleeper.total())
}
