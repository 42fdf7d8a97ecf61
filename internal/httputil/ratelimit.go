// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package httputil

import (
	"context"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"
)

// DefaultCallsPerSecond is the polite cap on outbound API calls.
const DefaultCallsPerSecond = 10

// Limiter is a token bucket shared by every call a client makes.
type Limiter struct {
	limiter *rate.Limiter
}

// NewLimiter allows perSecond calls per second with an equal burst. A
// non-positive rate disables limiting.
func NewLimiter(perSecond float64) *Limiter {
	if perSecond <= 0 {
		return &Limiter{limiter: rate.NewLimiter(rate.Inf, 0)}
	}
	burst := int(perSecond)
	if burst < 1 {
		burst = 1
	}
	return &Limiter{limiter: rate.NewLimiter(rate.Limit(perSecond), burst)}
}

// Wait blocks until a call may proceed.
func (l *Limiter) Wait(ctx context.Context) error {
	if err := l.limiter.Wait(ctx); err != nil {
		return eris.Wrap(err, "rate limiter wait")
	}
	return nil
}

// Limit returns the configured rate.
func (l *Limiter) Limit() float64 {
	return float64(l.limiter.Limit())
}
