// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package httputil

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	// Use a tiny base delay so tests finish quickly.
	RetryBaseDelay = 1 * time.Millisecond
}

func TestDo_ImmediateSuccess(t *testing.T) {
	calls := 0
	v, err := Do(context.Background(), Policy{}, func(context.Context) Outcome[string] {
		calls++
		return Success("ok")
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", v)
	assert.Equal(t, 1, calls)
}

func TestDo_RetriesThenSuccess(t *testing.T) {
	calls := 0
	v, err := Do(context.Background(), Policy{MaxAttempts: 3}, func(context.Context) Outcome[int] {
		calls++
		if calls < 3 {
			return Retry[int](errors.New("boom"))
		}
		return Success(42)
	})
	require.NoError(t, err)
	assert.Equal(t, 42, v)
	assert.Equal(t, 3, calls)
}

func TestDo_ExhaustsAttempts(t *testing.T) {
	calls := 0
	_, err := Do(context.Background(), Policy{MaxAttempts: 3}, func(context.Context) Outcome[int] {
		calls++
		return Retry[int](errors.New("http 503"))
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrRetriesExhausted))
	assert.Contains(t, err.Error(), "http 503")
	assert.Equal(t, 3, calls)
}

func TestDo_ThrottleHasSeparateBudget(t *testing.T) {
	calls := 0
	v, err := Do(context.Background(), Policy{MaxAttempts: 1, MaxThrottleWaits: 3}, func(context.Context) Outcome[string] {
		calls++
		if calls <= 3 {
			return Throttle[string](time.Millisecond)
		}
		return Success("done")
	})
	require.NoError(t, err)
	assert.Equal(t, "done", v)
	assert.Equal(t, 4, calls)
}

func TestDo_ThrottleBudgetExhausted(t *testing.T) {
	calls := 0
	_, err := Do(context.Background(), Policy{MaxThrottleWaits: 2}, func(context.Context) Outcome[string] {
		calls++
		return Throttle[string](0)
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrRetriesExhausted))
	assert.Equal(t, 3, calls)
}

func TestDo_FatalStopsImmediately(t *testing.T) {
	fault := errors.New("bad request")
	calls := 0
	_, err := Do(context.Background(), Policy{MaxAttempts: 5}, func(context.Context) Outcome[int] {
		calls++
		return Fatal[int](fault)
	})
	assert.Same(t, fault, err)
	assert.Equal(t, 1, calls)
}

func TestDo_ContextCancelledDuringWait(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	_, err := Do(ctx, Policy{MaxAttempts: 5, Delay: time.Hour}, func(context.Context) Outcome[int] {
		cancel()
		return Retry[int](errors.New("timeout"))
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestParseRetryAfter(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, 7*time.Second, ParseRetryAfter("7", now))
	assert.Equal(t, time.Duration(0), ParseRetryAfter("", now))
	assert.Equal(t, time.Duration(0), ParseRetryAfter("-3", now))
	assert.Equal(t, time.Duration(0), ParseRetryAfter("soon", now))
	assert.Equal(t, 30*time.Second, ParseRetryAfter(now.Add(30*time.Second).Format(http.TimeFormat), now))
	assert.Equal(t, time.Duration(0), ParseRetryAfter(now.Add(-time.Minute).Format(http.TimeFormat), now))
}

func TestLimiter(t *testing.T) {
	l := NewLimiter(10)
	assert.Equal(t, 10.0, l.Limit())
	for i := 0; i < 10; i++ {
		require.NoError(t, l.Wait(context.Background()))
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Error(t, NewLimiter(1).Wait(ctx))

	unlimited := NewLimiter(0)
	for i := 0; i < 100; i++ {
		require.NoError(t, unlimited.Wait(context.Background()))
	}
}
