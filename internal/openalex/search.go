// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package openalex

import (
	"context"
	"errors"
	"net/url"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/pdiddy/award-matcher/internal/httputil"
	"github.com/pdiddy/award-matcher/internal/similarity"
	"github.com/pdiddy/award-matcher/internal/textnorm"
	"github.com/pdiddy/award-matcher/pkg/types"
)

// Title search strategies, in the order they are tried.
const (
	MethodCleanedTitle   = "cleaned_title"
	MethodTruncatedTitle = "truncated_title"
	MethodAggressive     = "aggressive_normalization"
	MethodRawTitle       = "raw_title"
)

const (
	titleSearchPerPage = 10
	truncateWords      = 10

	// maxYearDrift is how far a candidate's publication year may be from
	// the input year before it is skipped.
	maxYearDrift = 2
)

// TitleMatch is a work found by title search.
type TitleMatch struct {
	Work   types.Work
	Ratio  int
	Method string
	Query  string
}

type titleStrategy struct {
	method string
	query  string
}

// strategies returns the title queries to try, skipping duplicates of
// the cleaned title.
func (c *Client) strategies(title string) []titleStrategy {
	cleaned := c.norm.CleanTitleForSearch(title, false)
	out := []titleStrategy{{MethodCleanedTitle, cleaned}}

	if words := strings.Fields(cleaned); len(words) > truncateWords {
		out = append(out, titleStrategy{MethodTruncatedTitle, strings.Join(words[:truncateWords], " ")})
	}
	if aggressive := c.norm.CleanTitleForSearch(title, true); aggressive != cleaned {
		out = append(out, titleStrategy{MethodAggressive, aggressive})
	}
	return append(out, titleStrategy{MethodRawTitle, textnorm.SanitizeForSearch(title)})
}

// SearchForWork runs the title search cascade and returns the first match
// whose title ratio against the input clears the threshold. year, when
// positive, skips candidates published more than two years away. A nil
// match with a nil error means no strategy succeeded.
func (c *Client) SearchForWork(ctx context.Context, title string, year int) (*TitleMatch, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, nil
	}
	target := c.norm.Normalize(title, false)

	for _, s := range c.strategies(title) {
		if s.query == "" {
			continue
		}
		zap.L().Info("title search",
			zap.String("method", s.method),
			zap.String("query", truncate(s.query, 100)),
		)
		m, err := c.searchAndMatch(ctx, s, target, year)
		if err != nil {
			return nil, err
		}
		if m != nil {
			zap.L().Info("title match found",
				zap.Int("ratio", m.Ratio),
				zap.String("method", m.Method),
				zap.String("work_id", m.Work.ID),
			)
			return m, nil
		}
	}
	zap.L().Info("no title match", zap.String("title", truncate(title, 100)))
	return nil, nil
}

func (c *Client) searchAndMatch(ctx context.Context, s titleStrategy, target string, year int) (*TitleMatch, error) {
	var page types.WorksPage
	found, err := c.getJSON(ctx, "/works", url.Values{
		"search":   {s.query},
		"per_page": {strconv.Itoa(titleSearchPerPage)},
	}, &page)
	if errors.Is(err, httputil.ErrRetriesExhausted) {
		zap.L().Warn("title search gave up, trying next strategy",
			zap.String("method", s.method), zap.Error(err))
		return nil, nil
	}
	if err != nil || !found {
		return nil, err
	}

	var best *types.Work
	bestRatio := 0
	for i := range page.Results {
		w := &page.Results[i]
		wt := w.TitleText()
		if wt == "" {
			continue
		}
		if year > 0 && w.PublicationYear > 0 && abs(w.PublicationYear-year) > maxYearDrift {
			continue
		}
		if r := similarity.Ratio(target, c.norm.Normalize(wt, false)); r > bestRatio {
			bestRatio = r
			best = w
		}
	}
	if best == nil || bestRatio < c.threshold {
		return nil, nil
	}
	return &TitleMatch{Work: *best, Ratio: bestRatio, Method: s.method, Query: s.query}, nil
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
