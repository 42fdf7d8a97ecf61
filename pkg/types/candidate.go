// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// MatchCandidate is a work found through an author and affiliation search,
// with the scores that justify it.
type MatchCandidate struct {
	Work Work

	// Method is the strategy that produced the candidate
	// ("institution_first" or "author_search").
	Method string

	MatchedAuthor         string
	MatchedAuthorID       string
	MatchedAffiliation    string
	MatchedAffiliationID  string
	MatchedAffiliationROR string

	AuthorScore      float64
	AffiliationScore float64
	CombinedScore    float64
}

// Fields returns the candidate's match fields for an enriched record.
func (c MatchCandidate) Fields() Record {
	return Record{
		"match_method":            c.Method,
		"matched_author":          c.MatchedAuthor,
		"matched_author_id":       c.MatchedAuthorID,
		"matched_affiliation":     c.MatchedAffiliation,
		"matched_affiliation_id":  c.MatchedAffiliationID,
		"matched_affiliation_ror": c.MatchedAffiliationROR,
		"author_match_score":      c.AuthorScore,
		"affiliation_match_score": c.AffiliationScore,
		"combined_match_score":    c.CombinedScore,
	}
}
