// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package matching turns one input record into one or more enriched
// records by searching OpenAlex for the work it describes. Two engines
// exist: title matching and author-affiliation matching.
package matching

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/pdiddy/award-matcher/internal/names"
	"github.com/pdiddy/award-matcher/internal/openalex"
	"github.com/pdiddy/award-matcher/internal/similarity"
	"github.com/pdiddy/award-matcher/internal/textnorm"
	"github.com/pdiddy/award-matcher/pkg/types"
)

// metadata_source values for records that did not reach OpenAlex metadata.
const (
	sourceNoTitle       = "no_title"
	sourceMissingAuthor = "missing_author_or_affiliation"
	sourceNotFound      = "not_found"
)

// Engine enriches one input record. Remote faults are returned unchanged
// so the caller can decide whether to skip the record or stop the run.
type Engine interface {
	Process(ctx context.Context, rec types.Record) ([]types.Record, error)
	Mode() types.MatchingMode
}

// TitleSearcher finds a work by title.
type TitleSearcher interface {
	SearchForWork(ctx context.Context, title string, year int) (*openalex.TitleMatch, error)
}

// AuthorSearcher finds candidate works by an author at an affiliation.
type AuthorSearcher interface {
	Search(ctx context.Context, q openalex.AuthorQuery) ([]types.MatchCandidate, error)
}

// Deps are the collaborators an engine calls.
type Deps struct {
	Titles     TitleSearcher
	Authors    AuthorSearcher
	Normalizer *textnorm.Normalizer
}

// New returns the engine for cfg.Matching.Mode.
func New(cfg types.Config, deps Deps) (Engine, error) {
	if deps.Normalizer == nil {
		deps.Normalizer = textnorm.New(textnorm.EnglishStopwords())
	}
	funders := cfg.API.FunderIDs()

	switch cfg.Matching.Mode {
	case types.ModeTitle, "":
		if deps.Titles == nil {
			return nil, eris.New("title matching needs a title searcher")
		}
		return &TitleEngine{
			search:          deps.Titles,
			norm:            deps.Normalizer,
			funders:         funders,
			validateAuthors: cfg.Matching.ValidateAuthors,
			validateYear:    cfg.Matching.ValidateYear,
			yearFilter:      cfg.Matching.TitleYearFilter,
		}, nil
	case types.ModeAuthorAffiliation:
		if deps.Authors == nil {
			return nil, eris.New("author-affiliation matching needs an author searcher")
		}
		style, err := names.ParseStyle(cfg.Matching.AuthorNameStyle)
		if err != nil {
			return nil, err
		}
		return &AuthorEngine{
			search:       deps.Authors,
			funders:      funders,
			style:        style,
			separator:    cfg.Matching.AuthorSeparator,
			validateYear: cfg.Matching.ValidateYear,
			yearWindow:   cfg.Matching.YearSearchWindow,
		}, nil
	default:
		return nil, eris.Errorf("unknown matching mode %q", cfg.Matching.Mode)
	}
}

// SearcherOptions maps the matching configuration onto author search
// options. With embeddings enabled the embedding threshold replaces the
// affiliation threshold.
func SearcherOptions(cfg types.MatchingConfig, aff similarity.AffiliationSimilarity) openalex.AuthorSearchOptions {
	threshold := cfg.AffiliationMatchingThreshold
	if cfg.UseEmbeddingModel && cfg.EmbeddingSimilarityThreshold > 0 {
		threshold = cfg.EmbeddingSimilarityThreshold
	}
	return openalex.AuthorSearchOptions{
		Names:                   similarity.NewNameMatcher(cfg.NameMatchingThreshold),
		Affiliation:             aff,
		AffiliationThreshold:    threshold,
		MaxResultsPerAuthor:     cfg.MaxResultsPerAuthor,
		YearWindow:              cfg.YearSearchWindow,
		AuthorWeight:            cfg.AuthorWeight,
		AffiliationWeight:       cfg.AffiliationWeight,
		MinimumAffiliationScore: cfg.MinimumAffiliationScore,
		InstitutionFirst:        cfg.InstitutionFirst,
	}
}
