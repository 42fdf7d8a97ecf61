// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package openalex is the client for the OpenAlex works API and the ROR
// affiliation API. Every request goes through a shared rate limiter, a
// bounded retry loop and the API health tracker.
package openalex

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/pdiddy/award-matcher/internal/apihealth"
	"github.com/pdiddy/award-matcher/internal/httputil"
	"github.com/pdiddy/award-matcher/internal/textnorm"
)

// Base URLs. Declared as vars so tests can substitute httptest servers.
var (
	defaultBaseURL    = "https://api.openalex.org"
	defaultRORBaseURL = "https://api.ror.org/v2"
)

const (
	defaultUserAgent           = "award-matcher/1.0"
	defaultSimilarityThreshold = 95
	defaultTimeout             = 30 * time.Second
)

// Cache stores successful GET response bodies by request key.
type Cache interface {
	Get(key string) ([]byte, bool)
	Put(key string, body []byte) error
}

// Options configures a Client. Zero values take defaults.
type Options struct {
	BaseURL    string
	RORBaseURL string
	Mailto     string
	UserAgent  string

	// SimilarityThreshold is the minimum title ratio (0-100).
	SimilarityThreshold int

	// RateLimit is calls per second; zero selects the default cap.
	RateLimit  float64
	MaxRetries int
	RetryDelay time.Duration
	Timeout    time.Duration

	Tracker    *apihealth.Tracker
	Cache      Cache
	HTTPClient *http.Client
	Normalizer *textnorm.Normalizer
}

// Client talks to OpenAlex. A Client is meant for one run; its limiter
// and tracker carry state across calls.
type Client struct {
	baseURL    string
	rorBaseURL string
	mailto     string
	userAgent  string
	threshold  int

	http    *http.Client
	limiter *httputil.Limiter
	tracker *apihealth.Tracker
	cache   Cache
	norm    *textnorm.Normalizer
	policy  httputil.Policy

	// now is used for Retry-After dates.
	now func() time.Time
}

// New creates a Client from opts.
func New(opts Options) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = defaultBaseURL
	}
	if opts.RORBaseURL == "" {
		opts.RORBaseURL = defaultRORBaseURL
	}
	if opts.UserAgent == "" {
		opts.UserAgent = defaultUserAgent
	}
	if opts.SimilarityThreshold <= 0 {
		opts.SimilarityThreshold = defaultSimilarityThreshold
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = httputil.DefaultCallsPerSecond
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.Tracker == nil {
		opts.Tracker = apihealth.NewTracker(apihealth.DefaultConfig())
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: opts.Timeout}
	}
	if opts.Normalizer == nil {
		opts.Normalizer = textnorm.New(textnorm.EnglishStopwords())
	}
	return &Client{
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		rorBaseURL: strings.TrimRight(opts.RORBaseURL, "/"),
		mailto:     opts.Mailto,
		userAgent:  opts.UserAgent,
		threshold:  opts.SimilarityThreshold,
		http:       opts.HTTPClient,
		limiter:    httputil.NewLimiter(opts.RateLimit),
		tracker:    opts.Tracker,
		cache:      opts.Cache,
		norm:       opts.Normalizer,
		policy:     httputil.Policy{MaxAttempts: opts.MaxRetries, Delay: opts.RetryDelay},
		now:        time.Now,
	}
}

// Tracker returns the health tracker shared by all requests.
func (c *Client) Tracker() *apihealth.Tracker { return c.tracker }

// Normalizer returns the text normalizer used for title comparison.
func (c *Client) Normalizer() *textnorm.Normalizer { return c.norm }

// getJSON requests an OpenAlex endpoint with the mailto parameter attached
// and decodes the body into out. found is false on 404.
func (c *Client) getJSON(ctx context.Context, endpoint string, params url.Values, out any) (bool, error) {
	if params == nil {
		params = url.Values{}
	}
	cacheKey := endpoint
	if len(params) > 0 {
		cacheKey += "?" + params.Encode()
	}
	if c.mailto != "" {
		params.Set("mailto", c.mailto)
	}
	reqURL := c.baseURL + endpoint + "?" + params.Encode()
	return c.fetch(ctx, reqURL, "openalex:"+cacheKey, out)
}

func (c *Client) fetch(ctx context.Context, reqURL, cacheKey string, out any) (bool, error) {
	if c.cache != nil {
		if body, ok := c.cache.Get(cacheKey); ok {
			zap.L().Debug("cache hit", zap.String("key", cacheKey))
			return true, decode(body, out)
		}
	}

	body, err := httputil.Do(ctx, c.policy, func(ctx context.Context) httputil.Outcome[[]byte] {
		return c.attempt(ctx, reqURL)
	})
	if err != nil {
		return false, err
	}
	if body == nil {
		return false, nil
	}
	if c.cache != nil {
		if err := c.cache.Put(cacheKey, body); err != nil {
			zap.L().Warn("cache write failed", zap.String("key", cacheKey), zap.Error(err))
		}
	}
	return true, decode(body, out)
}

func decode(body []byte, out any) error {
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return eris.Wrap(err, "openalex: decode response")
	}
	return nil
}

// attempt performs one GET and classifies the response. A 404 succeeds
// with a nil body.
func (c *Client) attempt(ctx context.Context, reqURL string) httputil.Outcome[[]byte] {
	if err := c.limiter.Wait(ctx); err != nil {
		return httputil.Fatal[[]byte](err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return httputil.Fatal[[]byte](eris.Wrap(err, "openalex: create request"))
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	zap.L().Debug("api request", zap.String("url", reqURL))
	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return httputil.Fatal[[]byte](ctx.Err())
		}
		zap.L().Warn("api request failed", zap.String("url", reqURL), zap.Error(err))
		return c.failure(apihealth.ClassGeneric, eris.Wrap(err, "openalex: request"))
	}
	defer resp.Body.Close()

	switch code := resp.StatusCode; {
	case code == http.StatusOK:
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return c.failure(apihealth.ClassGeneric, eris.Wrap(err, "openalex: read body"))
		}
		c.tracker.RecordAttempt(true, apihealth.ClassGeneric)
		return httputil.Success(body)

	case code == http.StatusNotFound:
		c.tracker.RecordAttempt(true, apihealth.ClassGeneric)
		return httputil.Success[[]byte](nil)

	case code == http.StatusBadRequest || code == http.StatusForbidden:
		_, _ = io.Copy(io.Discard, resp.Body)
		c.tracker.RecordAttempt(false, apihealth.ClassClient)
		if err := c.tracker.CheckHealth(); err != nil && !apihealth.IsInvalidRequest(err) {
			return httputil.Fatal[[]byte](err)
		}
		return httputil.Fatal[[]byte](eris.Wrapf(apihealth.ErrInvalidRequest, "HTTP %d from %s", code, redact(reqURL)))

	case code == http.StatusTooManyRequests:
		_, _ = io.Copy(io.Discard, resp.Body)
		c.tracker.RecordAttempt(false, apihealth.ClassRateLimit)
		if err := c.tracker.CheckHealth(); err != nil {
			return httputil.Fatal[[]byte](err)
		}
		return httputil.Throttle[[]byte](httputil.ParseRetryAfter(resp.Header.Get("Retry-After"), c.now()))

	case code >= 500:
		_, _ = io.Copy(io.Discard, resp.Body)
		zap.L().Warn("api server error", zap.Int("status", code), zap.String("url", redact(reqURL)))
		return c.failure(apihealth.ClassServer, eris.Errorf("openalex: HTTP %d", code))

	default:
		_, _ = io.Copy(io.Discard, resp.Body)
		zap.L().Warn("api error", zap.Int("status", code), zap.String("url", redact(reqURL)))
		return c.failure(apihealth.ClassGeneric, eris.Errorf("openalex: HTTP %d", code))
	}
}

// failure records a failed attempt and turns a tripped health check into
// a fatal outcome.
func (c *Client) failure(class apihealth.ErrorClass, reason error) httputil.Outcome[[]byte] {
	c.tracker.RecordAttempt(false, class)
	if err := c.tracker.CheckHealth(); err != nil {
		zap.L().Error("API health check failed", zap.Error(err), zap.String("stats", c.tracker.String()))
		return httputil.Fatal[[]byte](err)
	}
	return httputil.Retry[[]byte](reason)
}

// redact drops the query string, which carries the contact email.
func redact(reqURL string) string {
	if i := strings.IndexByte(reqURL, '?'); i >= 0 {
		return reqURL[:i]
	}
	return reqURL
}

// ErrNotFound is returned by lookups that must resolve to an entity.
var ErrNotFound = eris.New("not found")
