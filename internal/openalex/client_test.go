// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package openalex

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/award-matcher/internal/apihealth"
	"github.com/pdiddy/award-matcher/internal/httputil"
)

func init() {
	// Use a tiny base delay so tests finish quickly.
	httputil.RetryBaseDelay = time.Millisecond
}

func newTestClient(t *testing.T, h http.HandlerFunc, mutate ...func(*Options)) (*Client, *httptest.Server) {
	t.Helper()
	ts := httptest.NewServer(h)
	t.Cleanup(ts.Close)
	opts := Options{
		BaseURL:    ts.URL,
		RORBaseURL: ts.URL + "/ror",
		Mailto:     "test@example.org",
		RateLimit:  1000,
		RetryDelay: time.Millisecond,
		HTTPClient: ts.Client(),
	}
	for _, m := range mutate {
		m(&opts)
	}
	return New(opts), ts
}

const attentionPage = `{
  "meta": {"count": 2, "per_page": 10},
  "results": [
    {"id": "https://openalex.org/W3210812345", "title": "BERT: Pre-training of Deep Bidirectional Transformers", "publication_year": 2018},
    {"id": "https://openalex.org/W2741809807", "title": "Attention is all you need", "publication_year": 2017}
  ]
}`

func TestSearchForWork_CleanedTitle(t *testing.T) {
	var calls int32
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		assert.Equal(t, "/works", r.URL.Path)
		assert.Equal(t, "test@example.org", r.URL.Query().Get("mailto"))
		assert.Equal(t, "10", r.URL.Query().Get("per_page"))
		assert.Equal(t, "attention is all you need", r.URL.Query().Get("search"))
		fmt.Fprint(w, attentionPage)
	})

	m, err := c.SearchForWork(context.Background(), "Attention Is All You Need", 2017)
	require.NoError(t, err)
	require.NotNil(t, m)
	assert.Equal(t, "https://openalex.org/W2741809807", m.Work.ID)
	assert.Equal(t, 100, m.Ratio)
	assert.Equal(t, MethodCleanedTitle, m.Method)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestSearchForWork_YearDriftSkipsCandidates(t *testing.T) {
	var mu sync.Mutex
	var queries []string
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		queries = append(queries, r.URL.Query().Get("search"))
		mu.Unlock()
		fmt.Fprint(w, attentionPage)
	})

	m, err := c.SearchForWork(context.Background(), "Attention Is All You Need", 2023)
	require.NoError(t, err)
	assert.Nil(t, m)
	assert.Equal(t, []string{
		"attention is all you need",
		"attention need",
		"Attention Is All You Need",
	}, queries)
}

func TestSearchForWork_ExhaustedStrategyFallsThrough(t *testing.T) {
	var mu sync.Mutex
	var queries []string
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query().Get("search")
		mu.Lock()
		queries = append(queries, q)
		mu.Unlock()
		if q == "the study of things" {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		fmt.Fprint(w, `{"results": [{"id": "https://openalex.org/W7", "title": "The Study of Things", "publication_year": 2020}]}`)
	}, func(o *Options) { o.MaxRetries = 3 })

	m, err := c.SearchForWork(context.Background(), "The Study of Things", 2020)
	require.NoError(t, err)
	require.NotNil(t, m)
	assert.Equal(t, MethodAggressive, m.Method)
	assert.Equal(t, "https://openalex.org/W7", m.Work.ID)
	assert.Equal(t, []string{"the study of things", "the study of things", "the study of things", "study things"}, queries)
}

func TestSearchForWork_InvalidRequestStopsCascade(t *testing.T) {
	var calls int32
	c, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadRequest)
	})
	_, err := c.SearchForWork(context.Background(), "The Study of Things", 0)
	require.Error(t, err)
	assert.True(t, apihealth.IsInvalidRequest(err))
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestSearchForWork_EmptyTitle(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		t.Error("no request expected")
	})
	m, err := c.SearchForWork(context.Background(), "   ", 0)
	assert.NoError(t, err)
	assert.Nil(t, m)
}

func TestStrategies_LongTitleIsTruncated(t *testing.T) {
	c := New(Options{})
	title := "A Very Long Study of Many Distinct Things Including Rivers Lakes Oceans and Glaciers"
	var methods []string
	for _, s := range c.strategies(title) {
		methods = append(methods, s.method)
		if s.method == MethodTruncatedTitle {
			assert.Len(t, strings.Fields(s.query), 10)
		}
	}
	assert.Equal(t, []string{MethodCleanedTitle, MethodTruncatedTitle, MethodAggressive, MethodRawTitle}, methods)
}

func TestClient_NotFoundIsNotAnError(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		http.NotFound(w, nil)
	})
	w, err := c.FetchWorkByID(context.Background(), "https://openalex.org/W1")
	require.NoError(t, err)
	assert.Nil(t, w)
	s := c.Tracker().Stats()
	assert.Equal(t, 1, s.Attempts)
	assert.Equal(t, 0, s.Failures)
}

func TestClient_BadRequestIsNotRetried(t *testing.T) {
	var calls int32
	c, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadRequest)
	})
	_, err := c.FetchWorkByID(context.Background(), "W1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apihealth.ErrInvalidRequest))
	assert.False(t, apihealth.IsRunLevel(err))
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	assert.NotContains(t, err.Error(), "test@example.org")
}

func TestClient_ServerErrorsExhaustRetries(t *testing.T) {
	var calls int32
	c, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadGateway)
	}, func(o *Options) { o.MaxRetries = 3 })

	_, err := c.FetchWorkByID(context.Background(), "W1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, httputil.ErrRetriesExhausted))
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
	assert.Equal(t, 3, c.Tracker().Stats().ServerErrors)
}

func TestClient_HealthFaultStopsRetryLoop(t *testing.T) {
	var calls int32
	cfg := apihealth.DefaultConfig()
	cfg.MaxConsecutiveServerErrors = 2
	c, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}, func(o *Options) {
		o.MaxRetries = 5
		o.Tracker = apihealth.NewTracker(cfg)
	})

	_, err := c.FetchWorkByID(context.Background(), "W1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apihealth.ErrServerError))
	assert.True(t, apihealth.IsRunLevel(err))
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestClient_ThrottleThenSuccess(t *testing.T) {
	var calls int32
	c, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		fmt.Fprint(w, `{"id": "https://openalex.org/W1", "title": "A work"}`)
	}, func(o *Options) { o.MaxRetries = 1 })

	w, err := c.FetchWorkByID(context.Background(), "W1")
	require.NoError(t, err)
	require.NotNil(t, w)
	assert.Equal(t, "A work", w.Title)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
	assert.Equal(t, 1, c.Tracker().Stats().RateLimits)
}

func TestClient_PersistentThrottleIsRunLevel(t *testing.T) {
	var calls int32
	c, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusTooManyRequests)
	})

	_, err := c.FetchWorkByID(context.Background(), "W1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apihealth.ErrRateLimited))
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

type mapCache struct {
	mu   sync.Mutex
	data map[string][]byte
}

func (m *mapCache) Get(key string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.data[key]
	return b, ok
}

func (m *mapCache) Put(key string, body []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = body
	return nil
}

func TestClient_CacheShortCircuits(t *testing.T) {
	var calls int32
	cache := &mapCache{data: map[string][]byte{}}
	c, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&calls, 1)
		fmt.Fprint(w, `{"id": "https://openalex.org/W7", "title": "Cached"}`)
	}, func(o *Options) { o.Cache = cache })

	for i := 0; i < 3; i++ {
		w, err := c.FetchWorkByID(context.Background(), "W7")
		require.NoError(t, err)
		assert.Equal(t, "Cached", w.Title)
	}
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	for k := range cache.data {
		assert.NotContains(t, k, "mailto")
	}
}

func TestFetchWorkByDOI(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasPrefix(r.URL.Path, "/works/https:"), r.URL.Path)
		assert.True(t, strings.HasSuffix(r.URL.Path, "doi.org/10.1234/abc.5"), r.URL.Path)
		fmt.Fprint(w, `{"id": "https://openalex.org/W9", "doi": "https://doi.org/10.1234/abc.5"}`)
	})

	w, err := c.FetchWorkByDOI(context.Background(), "https://dx.doi.org/10.1234/abc.5")
	require.NoError(t, err)
	require.NotNil(t, w)
	assert.Equal(t, "https://openalex.org/W9", w.ID)

	w, err = c.FetchWorkByDOI(context.Background(), "not a doi")
	assert.NoError(t, err)
	assert.Nil(t, w)
}

func TestLookup(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"id": "https://openalex.org/W5", "title": %q}`, r.URL.Path)
	})
	w, err := c.Lookup(context.Background(), "https://openalex.org/W5")
	require.NoError(t, err)
	assert.Equal(t, "/works/W5", w.Title)

	w, err = c.Lookup(context.Background(), "hello")
	assert.NoError(t, err)
	assert.Nil(t, w)
}

func TestWorksPages_FollowsCursor(t *testing.T) {
	var cursors []string
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "author.id:A1", q.Get("filter"))
		assert.Equal(t, "200", q.Get("per_page"))
		cursors = append(cursors, q.Get("cursor"))
		switch q.Get("cursor") {
		case "*":
			fmt.Fprint(w, `{"meta": {"next_cursor": "page2"}, "results": [{"id": "W1"}, {"id": "W2"}]}`)
		default:
			fmt.Fprint(w, `{"meta": {"next_cursor": null}, "results": [{"id": "W3"}]}`)
		}
	})

	works, err := c.WorksPages(context.Background(), "author.id:A1", 0)
	require.NoError(t, err)
	assert.Len(t, works, 3)
	assert.Equal(t, []string{"*", "page2"}, cursors)

	cursors = nil
	works, err = c.WorksPages(context.Background(), "author.id:A1", 2)
	require.NoError(t, err)
	assert.Len(t, works, 2)
	assert.Equal(t, []string{"*"}, cursors)
}

func TestWorksPages_ExhaustedPageKeepsEarlierWorks(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("cursor") == "*" {
			fmt.Fprint(w, `{"meta": {"next_cursor": "page2"}, "results": [{"id": "W1"}, {"id": "W2"}]}`)
			return
		}
		w.WriteHeader(http.StatusBadGateway)
	}, func(o *Options) { o.MaxRetries = 2 })

	works, err := c.WorksPages(context.Background(), "author.id:A1", 0)
	require.NoError(t, err)
	assert.Len(t, works, 2)
}

func TestLookupROR(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/ror/organizations", r.URL.Path)
		assert.Empty(t, r.URL.Query().Get("mailto"))
		switch r.URL.Query().Get("affiliation") {
		case "Dept of Physics, Univ of Oxford":
			fmt.Fprint(w, `{"items": [
				{"chosen": false, "score": 0.7, "organization": {"id": "https://ror.org/000", "names": [{"value": "Oxford Brookes", "types": ["ror_display"]}]}},
				{"chosen": true, "score": 0.95, "organization": {"id": "https://ror.org/052gg0110", "names": [{"value": "Oxford", "types": ["acronym"]}, {"value": "University of Oxford", "types": ["ror_display", "label"]}]}}
			]}`)
		default:
			fmt.Fprint(w, `{"items": [{"chosen": false, "score": 0.5, "organization": {"id": "https://ror.org/111"}}]}`)
		}
	})

	m, err := c.LookupROR(context.Background(), "Dept of Physics, Univ of Oxford")
	require.NoError(t, err)
	require.NotNil(t, m)
	assert.Equal(t, "https://ror.org/052gg0110", m.ID)
	assert.Equal(t, "University of Oxford", m.DisplayName)
	assert.Equal(t, 0.95, m.Score)

	m, err = c.LookupROR(context.Background(), "Somewhere")
	assert.NoError(t, err)
	assert.Nil(t, m)
}

func TestShortID(t *testing.T) {
	assert.Equal(t, "A123", ShortID("https://openalex.org/A123"))
	assert.Equal(t, "A123", ShortID("A123"))
}
