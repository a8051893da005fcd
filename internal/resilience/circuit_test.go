package resilience

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time { return c.now }

func newTestBreaker(threshold int, reset time.Duration) (*CircuitBreaker, *fakeClock) {
	clock := &fakeClock{now: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)}
	cb := NewCircuitBreaker(BreakerConfig{FailureThreshold: threshold, ResetTimeout: reset})
	cb.nowFunc = clock.Now
	return cb, clock
}

func fail(ctx context.Context, cb *CircuitBreaker) error {
	_, err := ExecuteVal(ctx, cb, func(context.Context) (string, error) {
		return "", errors.New("upstream 500")
	})
	return err
}

func succeed(ctx context.Context, cb *CircuitBreaker) (string, error) {
	return ExecuteVal(ctx, cb, func(context.Context) (string, error) {
		return "ok", nil
	})
}

func TestCircuitBreaker_OpensAfterThreshold(t *testing.T) {
	ctx := context.Background()
	cb, _ := newTestBreaker(3, time.Minute)

	for range 3 {
		require.Error(t, fail(ctx, cb))
	}
	assert.Equal(t, CircuitOpen, cb.State())

	called := false
	_, err := ExecuteVal(ctx, cb, func(context.Context) (string, error) {
		called = true
		return "", nil
	})
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.False(t, called)
}

func TestCircuitBreaker_SuccessResetsCount(t *testing.T) {
	ctx := context.Background()
	cb, _ := newTestBreaker(3, time.Minute)

	require.Error(t, fail(ctx, cb))
	require.Error(t, fail(ctx, cb))
	assert.Equal(t, 2, cb.Failures())

	v, err := succeed(ctx, cb)
	require.NoError(t, err)
	assert.Equal(t, "ok", v)
	assert.Equal(t, 0, cb.Failures())

	require.Error(t, fail(ctx, cb))
	assert.Equal(t, CircuitClosed, cb.State())
}

func TestCircuitBreaker_HalfOpenProbe(t *testing.T) {
	ctx := context.Background()
	cb, clock := newTestBreaker(1, 30*time.Second)

	require.Error(t, fail(ctx, cb))
	assert.Equal(t, CircuitOpen, cb.State())

	clock.now = clock.now.Add(29 * time.Second)
	_, err := succeed(ctx, cb)
	assert.ErrorIs(t, err, ErrCircuitOpen)

	clock.now = clock.now.Add(time.Second)
	assert.Equal(t, CircuitHalfOpen, cb.State())
	_, err = succeed(ctx, cb)
	require.NoError(t, err)
	assert.Equal(t, CircuitClosed, cb.State())
}

func TestCircuitBreaker_HalfOpenFailureReopens(t *testing.T) {
	ctx := context.Background()
	cb, clock := newTestBreaker(2, 10*time.Second)

	require.Error(t, fail(ctx, cb))
	require.Error(t, fail(ctx, cb))
	clock.now = clock.now.Add(10 * time.Second)

	require.Error(t, fail(ctx, cb))
	assert.Equal(t, CircuitOpen, cb.State())
	_, err := succeed(ctx, cb)
	assert.ErrorIs(t, err, ErrCircuitOpen)
}

func TestCircuitBreaker_OnStateChange(t *testing.T) {
	ctx := context.Background()
	var got []string
	cb := NewCircuitBreaker(BreakerConfig{
		FailureThreshold: 1,
		ResetTimeout:     time.Second,
		OnStateChange: func(from, to CircuitState) {
			got = append(got, from.String()+"->"+to.String())
		},
	})
	clock := &fakeClock{now: time.Now()}
	cb.nowFunc = clock.Now

	require.Error(t, fail(ctx, cb))
	clock.now = clock.now.Add(time.Second)
	_, err := succeed(ctx, cb)
	require.NoError(t, err)

	assert.Equal(t, []string{"closed->open", "open->half-open", "half-open->closed"}, got)
}

func TestCircuitBreaker_ConcurrentCalls(t *testing.T) {
	ctx := context.Background()
	cb := NewCircuitBreaker(BreakerConfig{FailureThreshold: 1000})

	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if i%2 == 0 {
				_ = fail(ctx, cb)
				return
			}
			_, _ = succeed(ctx, cb)
		}()
	}
	wg.Wait()
	assert.Equal(t, CircuitClosed, cb.State())
}

func TestCircuitState_String(t *testing.T) {
	assert.Equal(t, "closed", CircuitClosed.String())
	assert.Equal(t, "open", CircuitOpen.String())
	assert.Equal(t, "half-open", CircuitHalfOpen.String())
	assert.Equal(t, "unknown", CircuitState(9).String())
}
