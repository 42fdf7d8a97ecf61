// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package openalex

import (
	"context"
	"net/url"
	"slices"
	"strings"
)

// RORMatch is the organization the ROR affiliation service chose for a
// free-text affiliation.
type RORMatch struct {
	ID          string
	DisplayName string
	Score       float64
}

type rorResponse struct {
	Items []struct {
		Chosen       bool    `json:"chosen"`
		Score        float64 `json:"score"`
		MatchingType string  `json:"matching_type"`
		Organization struct {
			ID    string `json:"id"`
			Names []struct {
				Value string   `json:"value"`
				Types []string `json:"types"`
			} `json:"names"`
		} `json:"organization"`
	} `json:"items"`
}

// LookupROR asks the ROR affiliation API to resolve affiliation. Only an
// item flagged as chosen is returned; nil means ROR made no choice.
func (c *Client) LookupROR(ctx context.Context, affiliation string) (*RORMatch, error) {
	affiliation = strings.TrimSpace(affiliation)
	if affiliation == "" {
		return nil, nil
	}
	reqURL := c.rorBaseURL + "/organizations?" + url.Values{"affiliation": {affiliation}}.Encode()

	var resp rorResponse
	found, err := c.fetch(ctx, reqURL, "ror:"+affiliation, &resp)
	if err != nil || !found {
		return nil, err
	}
	for _, item := range resp.Items {
		if !item.Chosen {
			continue
		}
		m := &RORMatch{ID: item.Organization.ID, Score: item.Score}
		for _, n := range item.Organization.Names {
			if slices.Contains(n.Types, "ror_display") || m.DisplayName == "" {
				m.DisplayName = n.Value
			}
		}
		return m, nil
	}
	return nil, nil
}
