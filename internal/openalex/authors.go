// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package openalex

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/pdiddy/award-matcher/internal/apihealth"
	"github.com/pdiddy/award-matcher/internal/names"
	"github.com/pdiddy/award-matcher/internal/similarity"
	"github.com/pdiddy/award-matcher/pkg/types"
)

// Author search strategies recorded on candidates.
const (
	MethodInstitutionFirst = "institution_first"
	MethodAuthorSearch     = "author_search"
)

const (
	defaultMaxResultsPerAuthor = 50
	authorCandidatesChecked    = 10
	openYearHorizon            = 2
)

// AuthorQuery is one author of an input record with the record's
// affiliation and year.
type AuthorQuery struct {
	Name        string
	Style       names.Style
	Affiliation string
	Year        int
}

// AuthorSearchOptions configures an AuthorSearcher. Zero values take
// defaults.
type AuthorSearchOptions struct {
	Names                *similarity.NameMatcher
	Affiliation          similarity.AffiliationSimilarity
	AffiliationThreshold float64

	// MaxResultsPerAuthor stops paging an author's works once this many
	// have been fetched.
	MaxResultsPerAuthor int

	// YearWindow bounds the publication years searched to
	// [year, year+window]. Nil searches [year, current year + 2].
	YearWindow *int

	AuthorWeight      float64
	AffiliationWeight float64

	// MinimumAffiliationScore drops free-text search candidates whose
	// affiliation score is below it.
	MinimumAffiliationScore float64

	// InstitutionFirst tries the institution-scoped search before the
	// free-text author search.
	InstitutionFirst bool
}

// AuthorSearcher finds works by an author at an affiliation.
type AuthorSearcher struct {
	client *Client
	opts   AuthorSearchOptions

	// now supplies the current year for open-ended year ranges.
	now func() time.Time
}

// NewAuthorSearcher returns a searcher using c for API calls.
func NewAuthorSearcher(c *Client, opts AuthorSearchOptions) *AuthorSearcher {
	if opts.Names == nil {
		opts.Names = similarity.NewNameMatcher(0)
	}
	if opts.Affiliation == nil {
		opts.Affiliation = similarity.StringAffiliation{}
	}
	if opts.AffiliationThreshold <= 0 {
		opts.AffiliationThreshold = 0.8
	}
	if opts.MaxResultsPerAuthor <= 0 {
		opts.MaxResultsPerAuthor = defaultMaxResultsPerAuthor
	}
	if opts.AuthorWeight <= 0 && opts.AffiliationWeight <= 0 {
		opts.AuthorWeight, opts.AffiliationWeight = 0.5, 0.5
	}
	return &AuthorSearcher{client: c, opts: opts, now: time.Now}
}

// YearRange returns the publication-year bounds searched for year. ok is
// false when year is unknown.
func YearRange(year int, window *int, now time.Time) (from, to int, ok bool) {
	if year <= 0 {
		return 0, 0, false
	}
	if window != nil {
		return year, year + *window, true
	}
	return year, now.Year() + openYearHorizon, true
}

func (s *AuthorSearcher) yearFilter(year int) string {
	from, to, ok := YearRange(year, s.opts.YearWindow, s.now())
	if !ok {
		return ""
	}
	return fmt.Sprintf(",publication_year:%d-%d", from, to)
}

func (s *AuthorSearcher) combined(authorScore, affScore float64) float64 {
	return authorScore*s.opts.AuthorWeight + affScore*s.opts.AffiliationWeight
}

// Search returns candidate works for q ranked by combined score. With
// InstitutionFirst set, the institution-scoped search runs first and the
// free-text author search only runs when it finds nothing.
func (s *AuthorSearcher) Search(ctx context.Context, q AuthorQuery) ([]types.MatchCandidate, error) {
	if strings.TrimSpace(q.Name) == "" {
		return nil, nil
	}
	if s.opts.InstitutionFirst && strings.TrimSpace(q.Affiliation) != "" {
		found, err := s.searchInstitutionFirst(ctx, q)
		if err != nil {
			return nil, err
		}
		if len(found) > 0 {
			return found, nil
		}
		zap.L().Debug("institution-first search found nothing, using author search", zap.String("author", q.Name))
	}
	return s.searchByAuthor(ctx, q)
}

// resolveInstitution finds the OpenAlex institution for affiliation,
// falling back to the ROR affiliation service when the institution search
// fails or returns nothing similar.
func (s *AuthorSearcher) resolveInstitution(ctx context.Context, affiliation string) (*types.Institution, float64, error) {
	insts, err := s.client.SearchInstitutions(ctx, affiliation)
	if err != nil {
		if apihealth.IsRunLevel(err) || ctx.Err() != nil {
			return nil, 0, err
		}
		zap.L().Warn("institution search failed, trying ROR", zap.String("affiliation", affiliation), zap.Error(err))
	}
	for i := range insts {
		if ok, score := s.opts.Affiliation.Match(ctx, affiliation, insts[i].DisplayName, s.opts.AffiliationThreshold); ok {
			return &insts[i], score, nil
		}
	}

	ror, err := s.client.LookupROR(ctx, affiliation)
	if err != nil {
		if apihealth.IsRunLevel(err) || ctx.Err() != nil {
			return nil, 0, err
		}
		zap.L().Warn("ROR lookup failed", zap.String("affiliation", affiliation), zap.Error(err))
		return nil, 0, nil
	}
	if ror == nil {
		return nil, 0, nil
	}
	inst, err := s.client.InstitutionByROR(ctx, ror.ID)
	if err != nil {
		if apihealth.IsRunLevel(err) || ctx.Err() != nil {
			return nil, 0, err
		}
		zap.L().Warn("institution lookup by ROR id failed", zap.String("ror", ror.ID), zap.Error(err))
		return nil, 0, nil
	}
	if inst == nil {
		return nil, 0, nil
	}
	_, score := s.opts.Affiliation.Match(ctx, affiliation, inst.DisplayName, s.opts.AffiliationThreshold)
	return inst, max(score, ror.Score), nil
}

type scoredAuthor struct {
	id    string
	name  string
	score float64
}

// matchAuthors keeps the first ten search results whose display name
// matches q.
func (s *AuthorSearcher) matchAuthors(q AuthorQuery, results []types.Author) []scoredAuthor {
	if len(results) > authorCandidatesChecked {
		results = results[:authorCandidatesChecked]
	}
	var out []scoredAuthor
	for _, a := range results {
		ok, score := s.opts.Names.Similarity(q.Name, a.DisplayName, q.Style, names.StyleFirstLast)
		if !ok || a.ID == "" {
			continue
		}
		zap.L().Debug("matching author", zap.String("name", a.DisplayName), zap.String("id", ShortID(a.ID)), zap.Float64("score", score))
		out = append(out, scoredAuthor{id: ShortID(a.ID), name: a.DisplayName, score: score})
	}
	return out
}

func (s *AuthorSearcher) searchInstitutionFirst(ctx context.Context, q AuthorQuery) ([]types.MatchCandidate, error) {
	inst, affScore, err := s.resolveInstitution(ctx, q.Affiliation)
	if err != nil || inst == nil {
		return nil, err
	}
	instID := ShortID(inst.ID)
	zap.L().Info("resolved institution", zap.String("affiliation", q.Affiliation), zap.String("institution", inst.DisplayName), zap.String("id", instID))

	surname := names.ExtractSurname(q.Name, q.Style)
	results, err := s.client.SearchAuthors(ctx, surname, "affiliations.institution.id:"+instID)
	if err != nil {
		return nil, err
	}
	authors := s.matchAuthors(q, results)
	if len(authors) == 0 {
		return nil, nil
	}

	yf := s.yearFilter(q.Year)
	seen := map[string]bool{}
	var out []types.MatchCandidate
	for _, a := range authors {
		filter := "authorships.institutions.id:" + instID + ",author.id:" + a.id + yf
		works, err := s.client.WorksPages(ctx, filter, s.opts.MaxResultsPerAuthor)
		if err != nil {
			return nil, err
		}
		for _, w := range works {
			if w.ID == "" || seen[w.ID] {
				continue
			}
			seen[w.ID] = true
			out = append(out, types.MatchCandidate{
				Work:                  w,
				Method:                MethodInstitutionFirst,
				MatchedAuthor:         a.name,
				MatchedAuthorID:       a.id,
				MatchedAffiliation:    inst.DisplayName,
				MatchedAffiliationID:  inst.ID,
				MatchedAffiliationROR: inst.ROR,
				AuthorScore:           a.score,
				AffiliationScore:      affScore,
				CombinedScore:         s.combined(a.score, affScore),
			})
		}
	}
	sortCandidates(out)
	return out, nil
}

func (s *AuthorSearcher) searchByAuthor(ctx context.Context, q AuthorQuery) ([]types.MatchCandidate, error) {
	query := names.SearchQuery(q.Name, q.Style)
	zap.L().Info("searching for author", zap.String("query", query))
	results, err := s.client.SearchAuthors(ctx, query, "")
	if err != nil {
		return nil, err
	}
	authors := s.matchAuthors(q, results)
	if len(authors) == 0 {
		zap.L().Info("no sufficiently similar authors", zap.String("author", q.Name))
		return nil, nil
	}

	yf := s.yearFilter(q.Year)
	seen := map[string]bool{}
	var works []types.Work
	for _, a := range authors {
		page, err := s.client.WorksPages(ctx, "author.id:"+a.id+yf, s.opts.MaxResultsPerAuthor)
		if err != nil {
			return nil, err
		}
		for _, w := range page {
			if w.ID != "" && !seen[w.ID] {
				seen[w.ID] = true
				works = append(works, w)
			}
		}
	}

	var out []types.MatchCandidate
	for _, w := range works {
		c, ok := s.bestAuthorship(ctx, q, w)
		if !ok {
			continue
		}
		if c.AffiliationScore < s.opts.MinimumAffiliationScore {
			continue
		}
		out = append(out, c)
	}
	sortCandidates(out)
	zap.L().Info("author search complete",
		zap.String("author", q.Name),
		zap.String("affiliation", q.Affiliation),
		zap.Int("works", len(works)),
		zap.Int("matches", len(out)),
	)
	return out, nil
}

type affiliationRef struct {
	name, id, ror string
}

func authorshipAffiliations(a types.Authorship) []affiliationRef {
	var out []affiliationRef
	for _, inst := range a.Institutions {
		if inst.DisplayName != "" {
			out = append(out, affiliationRef{inst.DisplayName, inst.ID, inst.ROR})
		}
	}
	if len(out) == 0 {
		for _, raw := range a.RawAffiliationStrings {
			if raw = strings.TrimSpace(raw); raw != "" {
				out = append(out, affiliationRef{name: raw})
			}
		}
	}
	return out
}

// bestAuthorship picks the authorship on w whose name matches q and whose
// affiliation best matches q's affiliation.
func (s *AuthorSearcher) bestAuthorship(ctx context.Context, q AuthorQuery, w types.Work) (types.MatchCandidate, bool) {
	best := types.MatchCandidate{Work: w, Method: MethodAuthorSearch}
	found := false
	for _, a := range w.Authorships {
		if a.Author.DisplayName == "" {
			continue
		}
		ok, nameScore := s.opts.Names.Similarity(q.Name, a.Author.DisplayName, q.Style, names.StyleFirstLast)
		if !ok || nameScore <= best.AuthorScore {
			continue
		}
		for _, aff := range authorshipAffiliations(a) {
			match, affScore := s.opts.Affiliation.Match(ctx, q.Affiliation, aff.name, s.opts.AffiliationThreshold)
			if !match || affScore <= best.AffiliationScore {
				continue
			}
			found = true
			best.MatchedAuthor = a.Author.DisplayName
			best.MatchedAuthorID = a.Author.ID
			best.AuthorScore = nameScore
			best.MatchedAffiliation = aff.name
			best.MatchedAffiliationID = aff.id
			best.MatchedAffiliationROR = aff.ror
			best.AffiliationScore = affScore
		}
	}
	if !found {
		return types.MatchCandidate{}, false
	}
	best.CombinedScore = s.combined(best.AuthorScore, best.AffiliationScore)
	return best, true
}

func sortCandidates(cs []types.MatchCandidate) {
	sort.SliceStable(cs, func(i, j int) bool {
		return cs[i].CombinedScore > cs[j].CombinedScore
	})
}
