// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package apihealth watches the outcomes of remote API calls over a
// sliding time window and raises typed faults when failures become
// consecutive or frequent enough that continuing would be harmful.
package apihealth

import (
	"fmt"
	"sync"
	"time"

	"github.com/rotisserie/eris"

	"github.com/pdiddy/award-matcher/pkg/types"
)

// ErrorClass classifies a failed attempt.
type ErrorClass int

const (
	ClassGeneric ErrorClass = iota
	ClassClient
	ClassServer
	ClassRateLimit
	numClasses
)

func (c ErrorClass) String() string {
	switch c {
	case ClassGeneric:
		return "generic"
	case ClassClient:
		return "client"
	case ClassServer:
		return "server"
	case ClassRateLimit:
		return "rate_limit"
	default:
		return "unknown"
	}
}

// Config holds the tracker ceilings.
type Config struct {
	MaxErrorRate       float64
	MaxClientErrorRate float64
	MaxServerErrorRate float64
	Window             time.Duration
	MinAttempts        int

	MaxConsecutiveFailures     int
	MaxConsecutiveClientErrors int
	MaxConsecutiveServerErrors int
	MaxConsecutiveRateLimits   int
}

// DefaultConfig returns the default ceilings.
func DefaultConfig() Config {
	return Config{
		MaxErrorRate:               0.8,
		MaxClientErrorRate:         0.5,
		MaxServerErrorRate:         0.3,
		Window:                     300 * time.Second,
		MinAttempts:                10,
		MaxConsecutiveFailures:     5,
		MaxConsecutiveClientErrors: 10,
		MaxConsecutiveServerErrors: 5,
		MaxConsecutiveRateLimits:   3,
	}
}

// ConfigFrom converts configured settings, keeping defaults for unset
// (zero) values.
func ConfigFrom(c types.ErrorTrackingConfig) Config {
	cfg := DefaultConfig()
	if c.MaxErrorRate > 0 {
		cfg.MaxErrorRate = c.MaxErrorRate
	}
	if c.MaxClientErrorRate > 0 {
		cfg.MaxClientErrorRate = c.MaxClientErrorRate
	}
	if c.MaxServerErrorRate > 0 {
		cfg.MaxServerErrorRate = c.MaxServerErrorRate
	}
	if c.WindowSeconds > 0 {
		cfg.Window = time.Duration(c.WindowSeconds) * time.Second
	}
	if c.MinAttempts > 0 {
		cfg.MinAttempts = c.MinAttempts
	}
	if c.MaxConsecutiveFailures > 0 {
		cfg.MaxConsecutiveFailures = c.MaxConsecutiveFailures
	}
	if c.MaxConsecutiveClientErrors > 0 {
		cfg.MaxConsecutiveClientErrors = c.MaxConsecutiveClientErrors
	}
	if c.MaxConsecutiveServerErrors > 0 {
		cfg.MaxConsecutiveServerErrors = c.MaxConsecutiveServerErrors
	}
	if c.MaxConsecutiveRateLimits > 0 {
		cfg.MaxConsecutiveRateLimits = c.MaxConsecutiveRateLimits
	}
	return cfg
}

type attempt struct {
	at      time.Time
	success bool
	class   ErrorClass
}

// Tracker records attempt outcomes. It is safe for concurrent use.
type Tracker struct {
	cfg Config

	mu          sync.Mutex
	history     []attempt
	consecutive [numClasses]int

	totalAttempts int
	totalFailures int

	// nowFunc allows test injection of time.
	nowFunc func() time.Time
}

// NewTracker returns a tracker with cfg.
func NewTracker(cfg Config) *Tracker {
	return &Tracker{cfg: cfg, nowFunc: time.Now}
}

// RecordAttempt records one remote call attempt. A success resets every
// consecutive counter; a failure increments its class counter and resets
// the others. class is ignored on success.
func (t *Tracker) RecordAttempt(success bool, class ErrorClass) {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.nowFunc()
	t.totalAttempts++
	if success {
		t.consecutive = [numClasses]int{}
	} else {
		t.totalFailures++
		n := t.consecutive[class] + 1
		t.consecutive = [numClasses]int{}
		t.consecutive[class] = n
	}
	t.history = append(t.history, attempt{at: now, success: success, class: class})
	t.prune(now)
}

func (t *Tracker) prune(now time.Time) {
	cutoff := now.Add(-t.cfg.Window)
	i := 0
	for i < len(t.history) && t.history[i].at.Before(cutoff) {
		i++
	}
	if i > 0 {
		t.history = append(t.history[:0], t.history[i:]...)
	}
}

// CheckHealth returns a fault when a consecutive-failure ceiling is met,
// or, once the window holds MinAttempts entries, when a failure rate
// ceiling is met.
func (t *Tracker) CheckHealth() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if n := t.consecutive[ClassRateLimit]; n >= t.cfg.MaxConsecutiveRateLimits && t.cfg.MaxConsecutiveRateLimits > 0 {
		return eris.Wrapf(ErrRateLimited, "%d consecutive rate-limited responses", n)
	}
	if n := t.consecutive[ClassServer]; n >= t.cfg.MaxConsecutiveServerErrors && t.cfg.MaxConsecutiveServerErrors > 0 {
		return eris.Wrapf(ErrServerError, "%d consecutive server errors", n)
	}
	if n := t.consecutive[ClassClient]; n >= t.cfg.MaxConsecutiveClientErrors && t.cfg.MaxConsecutiveClientErrors > 0 {
		return eris.Wrapf(ErrInvalidRequest, "%d consecutive client errors", n)
	}
	if n := t.consecutive[ClassGeneric]; n >= t.cfg.MaxConsecutiveFailures && t.cfg.MaxConsecutiveFailures > 0 {
		return eris.Wrapf(ErrAPIHealth, "API appears to be down: %d consecutive failures", n)
	}

	t.prune(t.nowFunc())
	total := len(t.history)
	if total == 0 || total < t.cfg.MinAttempts {
		return nil
	}

	s := t.windowStats()
	window := t.cfg.Window
	if rate := float64(s.ServerErrors) / float64(total); rate >= t.cfg.MaxServerErrorRate && t.cfg.MaxServerErrorRate > 0 {
		return eris.Wrapf(ErrServerError, "%d/%d server errors (%.1f%%) in last %s", s.ServerErrors, total, rate*100, window)
	}
	if rate := float64(s.Failures) / float64(total); rate >= t.cfg.MaxErrorRate && t.cfg.MaxErrorRate > 0 {
		return eris.Wrapf(ErrAPIHealth, "%d/%d failures (%.1f%%) in last %s", s.Failures, total, rate*100, window)
	}
	if rate := float64(s.ClientErrors) / float64(total); rate >= t.cfg.MaxClientErrorRate && t.cfg.MaxClientErrorRate > 0 {
		return eris.Wrapf(ErrInvalidRequest, "%d/%d client errors (%.1f%%) in last %s", s.ClientErrors, total, rate*100, window)
	}
	return nil
}

// Stats summarises the attempts currently in the window.
type Stats struct {
	Attempts     int
	Failures     int
	ClientErrors int
	ServerErrors int
	RateLimits   int

	// TotalAttempts and TotalFailures count every attempt since the
	// tracker was created.
	TotalAttempts int
	TotalFailures int
}

// SuccessRate is the windowed success percentage.
func (s Stats) SuccessRate() float64 {
	if s.Attempts == 0 {
		return 0
	}
	return float64(s.Attempts-s.Failures) / float64(s.Attempts) * 100
}

func (s Stats) String() string {
	if s.Attempts == 0 {
		return "No recent attempts"
	}
	return fmt.Sprintf("%d attempts, %.1f%% success rate", s.Attempts, s.SuccessRate())
}

// Stats returns the current window statistics.
func (t *Tracker) Stats() Stats {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.prune(t.nowFunc())
	return t.windowStats()
}

func (t *Tracker) windowStats() Stats {
	s := Stats{Attempts: len(t.history), TotalAttempts: t.totalAttempts, TotalFailures: t.totalFailures}
	for _, a := range t.history {
		if a.success {
			continue
		}
		s.Failures++
		switch a.class {
		case ClassClient:
			s.ClientErrors++
		case ClassServer:
			s.ServerErrors++
		case ClassRateLimit:
			s.RateLimits++
		}
	}
	return s
}

// String reports the window statistics, e.g. "12 attempts, 91.7% success rate".
func (t *Tracker) String() string {
	return t.Stats().String()
}
