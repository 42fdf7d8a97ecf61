// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package matching

import (
	"context"
	"sort"

	"go.uber.org/zap"

	"github.com/pdiddy/award-matcher/internal/names"
	"github.com/pdiddy/award-matcher/internal/openalex"
	"github.com/pdiddy/award-matcher/pkg/types"
)

// AuthorEngine matches a record by searching for each of its authors at
// the record's affiliation. One grant can fund several works by several
// co-authors, so a record yields one output record per candidate work.
type AuthorEngine struct {
	search    AuthorSearcher
	funders   []string
	style     names.Style
	separator string

	validateYear bool
	yearWindow   *int
}

// Mode implements Engine.
func (e *AuthorEngine) Mode() types.MatchingMode { return types.ModeAuthorAffiliation }

// Process implements Engine.
func (e *AuthorEngine) Process(ctx context.Context, rec types.Record) ([]types.Record, error) {
	authors := rec.String(types.FieldAuthors)
	affiliation := rec.String(types.FieldAffiliation)
	if authors == "" || affiliation == "" {
		zap.L().Warn("record lacks authors or affiliation", zap.String("award_id", rec.String(types.FieldAwardID)))
		out := rec.Clone()
		out[types.FieldMetadataSource] = sourceMissingAuthor
		out[types.FieldMatchStatus] = string(types.StatusFailed)
		return []types.Record{out}, nil
	}

	year := rec.Year(types.FieldYear)
	parsed := names.ParseList(authors, e.separator, e.style)

	best := map[string]types.MatchCandidate{}
	for _, p := range parsed {
		found, err := e.search.Search(ctx, openalex.AuthorQuery{
			Name:        p.Original,
			Style:       e.style,
			Affiliation: affiliation,
			Year:        year,
		})
		if err != nil {
			return nil, err
		}
		for _, c := range found {
			if prev, ok := best[c.Work.ID]; !ok || c.CombinedScore > prev.CombinedScore {
				best[c.Work.ID] = c
			}
		}
	}

	if len(best) == 0 {
		zap.L().Info("no author-affiliation match", zap.String("authors", authors), zap.String("affiliation", affiliation))
		out := rec.Clone()
		out[types.FieldMetadataSource] = sourceNotFound
		out[types.FieldMatchStatus] = string(types.StatusNoMatch)
		return []types.Record{out}, nil
	}

	candidates := make([]types.MatchCandidate, 0, len(best))
	for _, c := range best {
		candidates = append(candidates, c)
	}
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].CombinedScore != candidates[j].CombinedScore {
			return candidates[i].CombinedScore > candidates[j].CombinedScore
		}
		return candidates[i].Work.ID < candidates[j].Work.ID
	})

	awardID := rec.String(types.FieldAwardID)
	out := make([]types.Record, 0, len(candidates))
	for _, c := range candidates {
		r := rec.Clone()
		r[types.FieldMatchStatus] = string(types.StatusMatched)
		r.Merge(openalex.ExtractMetadata(c.Work, e.funders, awardID))
		r.Merge(c.Fields())
		if e.validateYear && year > 0 && c.Work.PublicationYear > 0 {
			r.Merge(AuthorYearCheck(year, c.Work.PublicationYear, e.yearWindow))
		}
		out = append(out, r)
	}
	zap.L().Info("author-affiliation matches",
		zap.String("award_id", awardID),
		zap.Int("authors", len(parsed)),
		zap.Int("works", len(out)),
	)
	return out, nil
}
