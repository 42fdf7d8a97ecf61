// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package httputil provides the bounded retry driver and rate limiter
// shared by the remote API clients.
package httputil

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// RetryBaseDelay is the wait between retried attempts when a Policy does
// not set one. Tests override this to avoid real sleeps.
var RetryBaseDelay = 10 * time.Second

// ErrRetriesExhausted is returned by Do when the attempt or throttle
// budget runs out without a success or a fatal fault.
var ErrRetriesExhausted = eris.New("retries exhausted")

const (
	defaultMaxAttempts      = 3
	defaultMaxThrottleWaits = 5
)

// Kind tags an Outcome.
type Kind int

const (
	// KindSuccess carries a value and ends the loop.
	KindSuccess Kind = iota
	// KindRetry consumes one unit of the attempt budget and waits Delay.
	KindRetry
	// KindThrottle consumes one unit of the throttle budget and waits
	// the server-provided duration, or twice Delay when none was given.
	KindThrottle
	// KindFatal ends the loop with Err.
	KindFatal
)

func (k Kind) String() string {
	switch k {
	case KindSuccess:
		return "success"
	case KindRetry:
		return "retry"
	case KindThrottle:
		return "throttle"
	case KindFatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// Outcome is the result of one attempt.
type Outcome[T any] struct {
	Kind  Kind
	Value T
	Err   error
	Wait  time.Duration
}

// Success wraps v.
func Success[T any](v T) Outcome[T] { return Outcome[T]{Kind: KindSuccess, Value: v} }

// Retry reports a retryable failure with its reason.
func Retry[T any](reason error) Outcome[T] { return Outcome[T]{Kind: KindRetry, Err: reason} }

// Throttle reports a rate-limited attempt. wait is the server's requested
// delay; zero selects the policy default.
func Throttle[T any](wait time.Duration) Outcome[T] {
	return Outcome[T]{Kind: KindThrottle, Wait: wait}
}

// Fatal ends the retry loop with err.
func Fatal[T any](err error) Outcome[T] { return Outcome[T]{Kind: KindFatal, Err: err} }

// Policy bounds a retry loop. Zero fields take defaults: 3 attempts,
// 5 throttle waits, RetryBaseDelay between attempts.
type Policy struct {
	MaxAttempts      int
	MaxThrottleWaits int
	Delay            time.Duration
}

func (p Policy) withDefaults() Policy {
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = defaultMaxAttempts
	}
	if p.MaxThrottleWaits <= 0 {
		p.MaxThrottleWaits = defaultMaxThrottleWaits
	}
	if p.Delay <= 0 {
		p.Delay = RetryBaseDelay
	}
	return p
}

// Do calls attempt until it returns Success or Fatal, or a budget is
// spent. Retry outcomes count against MaxAttempts; Throttle outcomes count
// against MaxThrottleWaits only. If ctx is cancelled while waiting, Do
// returns ctx.Err().
func Do[T any](ctx context.Context, p Policy, attempt func(ctx context.Context) Outcome[T]) (T, error) {
	p = p.withDefaults()
	var zero T
	var lastErr error

	attempts, throttles := 0, 0
	for {
		out := attempt(ctx)
		switch out.Kind {
		case KindSuccess:
			return out.Value, nil
		case KindFatal:
			return zero, out.Err
		case KindThrottle:
			throttles++
			if throttles > p.MaxThrottleWaits {
				return zero, eris.Wrapf(ErrRetriesExhausted, "still throttled after %d waits", p.MaxThrottleWaits)
			}
			wait := out.Wait
			if wait <= 0 {
				wait = 2 * p.Delay
			}
			zap.L().Warn("rate limited, waiting",
				zap.Duration("wait", wait),
				zap.Int("throttle_wait", throttles),
			)
			if err := Sleep(ctx, wait); err != nil {
				return zero, err
			}
		default:
			attempts++
			lastErr = out.Err
			if attempts >= p.MaxAttempts {
				if lastErr == nil {
					return zero, eris.Wrapf(ErrRetriesExhausted, "after %d attempts", attempts)
				}
				return zero, eris.Wrapf(ErrRetriesExhausted, "after %d attempts: %v", attempts, lastErr)
			}
			zap.L().Debug("retrying",
				zap.Int("attempt", attempts),
				zap.Int("max_attempts", p.MaxAttempts),
				zap.Duration("delay", p.Delay),
				zap.Error(lastErr),
			)
			if err := Sleep(ctx, p.Delay); err != nil {
				return zero, err
			}
		}
	}
}

// Sleep waits for d or until ctx is done.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
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

// ParseRetryAfter reads a Retry-After header value given in seconds or as
// an HTTP date. It returns zero when the value is absent or unusable.
func ParseRetryAfter(v string, now time.Time) time.Duration {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil {
		if secs <= 0 {
			return 0
		}
		return time.Duration(secs) * time.Second
	}
	if at, err := http.ParseTime(v); err == nil {
		if d := at.Sub(now); d > 0 {
			return d
		}
	}
	return 0
}
