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
	"github.com/pdiddy/award-matcher/internal/identifier"
	"github.com/pdiddy/award-matcher/pkg/types"
)

const (
	maxPerPage       = 200
	authorsPerPage   = 25
	institutionsPage = 5
)

// FetchWorkByID returns the work with the given OpenAlex id or URL, or
// nil when it does not exist.
func (c *Client) FetchWorkByID(ctx context.Context, id string) (*types.Work, error) {
	id = strings.TrimSpace(id)
	if norm, ok := identifier.NormalizeWorkID(id); ok {
		id = norm
	}
	if id == "" {
		return nil, nil
	}
	var w types.Work
	found, err := c.getJSON(ctx, "/works/"+url.PathEscape(id), nil, &w)
	if err != nil || !found {
		return nil, err
	}
	return &w, nil
}

// FetchWorkByDOI extracts a DOI from s (a DOI, resolver URL or publisher
// URL) and returns the matching work. It returns nil when s holds no DOI
// or OpenAlex has no such work.
func (c *Client) FetchWorkByDOI(ctx context.Context, s string) (*types.Work, error) {
	doi := identifier.ExtractDOI(s)
	if doi == "" {
		zap.L().Debug("no DOI found", zap.String("input", truncate(s, 100)))
		return nil, nil
	}
	var w types.Work
	found, err := c.getJSON(ctx, "/works/"+identifier.DOIURL(doi), nil, &w)
	if err != nil || !found {
		return nil, err
	}
	return &w, nil
}

// Lookup resolves any supported identifier (work id, DOI or URL holding a
// DOI) to a work.
func (c *Client) Lookup(ctx context.Context, s string) (*types.Work, error) {
	switch kind, norm := identifier.Classify(s); kind {
	case identifier.TypeWorkID:
		return c.FetchWorkByID(ctx, norm)
	case identifier.TypeDOI:
		return c.FetchWorkByDOI(ctx, norm)
	default:
		return nil, nil
	}
}

// SearchInstitutions runs a free-text institution search.
func (c *Client) SearchInstitutions(ctx context.Context, query string) ([]types.Institution, error) {
	var resp struct {
		Results []types.Institution `json:"results"`
	}
	found, err := c.getJSON(ctx, "/institutions", url.Values{
		"search":   {query},
		"per_page": {strconv.Itoa(institutionsPage)},
	}, &resp)
	if err != nil || !found {
		return nil, err
	}
	return resp.Results, nil
}

// InstitutionByROR returns the OpenAlex institution with the given ROR
// id or URL, or nil.
func (c *Client) InstitutionByROR(ctx context.Context, ror string) (*types.Institution, error) {
	var resp struct {
		Results []types.Institution `json:"results"`
	}
	found, err := c.getJSON(ctx, "/institutions", url.Values{
		"filter":   {"ror:" + ror},
		"per_page": {"1"},
	}, &resp)
	if err != nil || !found || len(resp.Results) == 0 {
		return nil, err
	}
	return &resp.Results[0], nil
}

// SearchAuthors runs an author search. filter, when non-empty, is passed
// as the OpenAlex filter expression.
func (c *Client) SearchAuthors(ctx context.Context, query, filter string) ([]types.Author, error) {
	params := url.Values{
		"search":   {query},
		"per_page": {strconv.Itoa(authorsPerPage)},
	}
	if filter != "" {
		params.Set("filter", filter)
	}
	var resp struct {
		Results []types.Author `json:"results"`
	}
	found, err := c.getJSON(ctx, "/authors", params, &resp)
	if errors.Is(err, httputil.ErrRetriesExhausted) {
		zap.L().Warn("author search gave up", zap.String("query", query), zap.Error(err))
		return nil, nil
	}
	if err != nil || !found {
		return nil, err
	}
	return resp.Results, nil
}

// WorksPages follows cursor pagination over /works with filter, 200 per
// page, until the cursor runs out or at least limit works were collected
// (limit <= 0 fetches everything). A page that exhausts its retries ends
// paging with the works collected so far.
func (c *Client) WorksPages(ctx context.Context, filter string, limit int) ([]types.Work, error) {
	var works []types.Work
	cursor := "*"
	pages := 0
	for cursor != "" {
		var page types.WorksPage
		found, err := c.getJSON(ctx, "/works", url.Values{
			"filter":   {filter},
			"per_page": {strconv.Itoa(maxPerPage)},
			"cursor":   {cursor},
		}, &page)
		if errors.Is(err, httputil.ErrRetriesExhausted) {
			zap.L().Warn("paging stopped early", zap.String("filter", filter), zap.Int("works", len(works)), zap.Error(err))
			break
		}
		if err != nil {
			return works, err
		}
		if !found {
			break
		}
		works = append(works, page.Results...)
		pages++
		if pages%5 == 0 {
			zap.L().Debug("paging works", zap.String("filter", filter), zap.Int("works", len(works)), zap.Int("pages", pages))
		}
		if limit > 0 && len(works) >= limit {
			break
		}
		if len(page.Results) == 0 {
			break
		}
		cursor = page.Meta.NextCursor
	}
	return works, nil
}

// ShortID returns the last path segment of an OpenAlex URL id.
func ShortID(id string) string {
	if i := strings.LastIndexByte(id, '/'); i >= 0 {
		return id[i+1:]
	}
	return id
}
