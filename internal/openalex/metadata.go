// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package openalex

import (
	"regexp"
	"sort"
	"strings"

	"github.com/pdiddy/award-matcher/internal/similarity"
	"github.com/pdiddy/award-matcher/pkg/types"
)

// Award match tiers.
const (
	AwardMatchExact      = "exact"
	AwardMatchNormalized = "normalized"
	AwardMatchContains   = "contains"
	AwardMatchFuzzy      = "fuzzy"
)

const (
	awardScoreExact      = 100
	awardScoreNormalized = 95
	awardScoreContains   = 85
	awardFuzzyFloor      = 70

	maxTopics = 5
)

// ExtractMetadata flattens w into output fields. Funder fields are added
// when funderIDs is non-empty; award fields when awardID is non-empty.
func ExtractMetadata(w types.Work, funderIDs []string, awardID string) types.Record {
	m := types.Record{
		"openalex_work_id":  w.ID,
		"publication_title": w.TitleText(),
		"publication_year":  w.PublicationYear,
		"publication_date":  w.PublicationDate,
		"doi":               w.DOI,
		"type":              w.Type,
		"language":          w.Language,
		"cited_by_count":    w.CitedByCount,
		"is_retracted":      w.IsRetracted,
	}
	m[types.FieldMetadataSource] = "openalex"

	var authors []string
	for _, a := range w.Authorships {
		if a.Author.DisplayName != "" {
			authors = append(authors, a.Author.DisplayName)
		}
	}
	m["work_authors"] = strings.Join(authors, "; ")
	m["authors_count"] = len(authors)

	var journal, issn, publisher string
	if w.PrimaryLocation != nil && w.PrimaryLocation.Source != nil {
		journal = w.PrimaryLocation.Source.DisplayName
		issn = w.PrimaryLocation.Source.ISSNL
		publisher = w.PrimaryLocation.Source.HostOrganizationName
	}
	m["journal"] = journal
	m["issn"] = issn
	m["publisher"] = publisher
	m["volume"] = w.Biblio.Volume
	m["issue"] = w.Biblio.Issue
	m["pages"] = pages(w.Biblio)

	m["oa_status"] = w.OpenAccess.OAStatus
	m["is_oa"] = w.OpenAccess.IsOA
	m["oa_url"] = w.OpenAccess.OAURL

	var best types.Location
	if w.BestOALocation != nil {
		best = *w.BestOALocation
	}
	m["best_oa_landing_page_url"] = best.LandingPageURL
	m["best_oa_pdf_url"] = best.PDFURL
	m["best_oa_license"] = best.License
	m["best_oa_version"] = best.Version

	if len(funderIDs) > 0 {
		m.Merge(CheckFunders(w, funderIDs).Fields())
	}

	var grants []string
	for _, g := range w.Grants {
		switch {
		case g.AwardID != "":
			grants = append(grants, g.FunderDisplayName+": "+g.AwardID)
		case g.FunderDisplayName != "":
			grants = append(grants, g.FunderDisplayName)
		}
	}
	m["funding_info"] = strings.Join(grants, "; ")
	m["funding_count"] = len(w.Grants)

	if awardID != "" {
		m.Merge(MatchAwardID(w, awardID).Fields())
	}

	var topics []string
	for _, t := range w.Topics {
		if t.DisplayName != "" {
			topics = append(topics, t.DisplayName)
		}
	}
	if len(topics) > maxTopics {
		topics = topics[:maxTopics]
	}
	m["topics"] = strings.Join(topics, "; ")

	if abstract := ReconstructAbstract(w.AbstractInvertedIndex); abstract != "" {
		m["abstract"] = abstract
	}
	return m
}

func pages(b types.Biblio) string {
	switch {
	case b.FirstPage != "" && b.LastPage != "" && b.FirstPage != b.LastPage:
		return b.FirstPage + "-" + b.LastPage
	case b.FirstPage != "":
		return b.FirstPage
	default:
		return b.LastPage
	}
}

// ReconstructAbstract converts OpenAlex's abstract_inverted_index back to
// plain text. Each word is placed at every listed position in an array
// sized to the largest position plus one.
func ReconstructAbstract(index map[string][]int) string {
	maxPos := -1
	for _, positions := range index {
		for _, p := range positions {
			maxPos = max(maxPos, p)
		}
	}
	if maxPos < 0 {
		return ""
	}
	words := make([]string, maxPos+1)
	for word, positions := range index {
		for _, p := range positions {
			if p >= 0 {
				words[p] = word
			}
		}
	}
	return strings.TrimSpace(strings.Join(words, " "))
}

// AwardMatch is the result of matching an input award id against a
// work's grants.
type AwardMatch struct {
	Matched bool
	Type    string
	Score   int
	AwardID string
	Funder  string
}

// Fields returns the award match output fields.
func (a AwardMatch) Fields() types.Record {
	return types.Record{
		"award_id_match":         a.Matched,
		"award_id_match_type":    a.Type,
		"award_id_match_score":   a.Score,
		"matched_grant_award_id": a.AwardID,
		"matched_grant_funder":   a.Funder,
	}
}

var (
	awardSeparatorRe = regexp.MustCompile(`[\s._-]`)
	awardWordRe      = regexp.MustCompile(`grant|award|#`)

	// agencyPrefixRe matches a leading agency code such as "NSF-" or
	// "NIH " that precedes a numeric award id.
	agencyPrefixRe = regexp.MustCompile(`^[A-Za-z]{2,6}[\s._:#-]+(\d)`)
)

// NormalizeAwardID lowercases id, drops separators and the words
// "grant" and "award" and "#", and strips a leading agency code before a
// numeric id ("NSF-12345" becomes "12345").
func NormalizeAwardID(id string) string {
	id = strings.TrimSpace(id)
	if id == "" {
		return ""
	}
	id = agencyPrefixRe.ReplaceAllString(id, "$1")
	id = strings.ToLower(id)
	id = awardSeparatorRe.ReplaceAllString(id, "")
	return awardWordRe.ReplaceAllString(id, "")
}

// MatchAwardID compares awardID with each grant on w. An exact string
// match wins immediately; otherwise the best tier wins, ties going to the
// first grant found.
func MatchAwardID(w types.Work, awardID string) AwardMatch {
	if awardID == "" {
		return AwardMatch{}
	}
	input := NormalizeAwardID(awardID)

	var best AwardMatch
	for _, g := range w.Grants {
		if g.AwardID == "" {
			continue
		}
		if g.AwardID == awardID {
			return AwardMatch{Matched: true, Type: AwardMatchExact, Score: awardScoreExact, AwardID: g.AwardID, Funder: g.FunderDisplayName}
		}

		grant := NormalizeAwardID(g.AwardID)
		var tier string
		var score int
		switch {
		case input == "" || grant == "":
			continue
		case input == grant:
			tier, score = AwardMatchNormalized, awardScoreNormalized
		case strings.Contains(grant, input) || strings.Contains(input, grant):
			tier, score = AwardMatchContains, awardScoreContains
		default:
			score = similarity.Ratio(input, grant)
			if score < awardFuzzyFloor {
				continue
			}
			tier = AwardMatchFuzzy
		}
		if score > best.Score {
			best = AwardMatch{Matched: true, Type: tier, Score: score, AwardID: g.AwardID, Funder: g.FunderDisplayName}
		}
	}
	return best
}

// FunderMatch reports which target funders appear on a work's grants.
type FunderMatch struct {
	IDs   []string
	Names []string
}

// Fields returns the funder output fields.
func (f FunderMatch) Fields() types.Record {
	has := len(f.IDs) > 0
	return types.Record{
		"has_any_target_funder":       has,
		"has_target_funder":           has,
		"matched_target_funders":      strings.Join(f.IDs, "; "),
		"matched_target_funder_names": strings.Join(f.Names, "; "),
		"target_funder_match_count":   len(f.IDs),
	}
}

// CheckFunders finds the grants on w whose funder is one of funderIDs.
// Ids compare in short form, so "F4320306076" and
// "https://openalex.org/F4320306076" are the same funder.
func CheckFunders(w types.Work, funderIDs []string) FunderMatch {
	targets := make(map[string]bool, len(funderIDs))
	for _, id := range funderIDs {
		if id = strings.TrimSpace(id); id != "" {
			targets[strings.ToUpper(ShortID(id))] = true
		}
	}
	ids := map[string]bool{}
	names := map[string]bool{}
	for _, g := range w.Grants {
		if g.Funder == "" || !targets[strings.ToUpper(ShortID(g.Funder))] {
			continue
		}
		ids[g.Funder] = true
		if g.FunderDisplayName != "" {
			names[g.FunderDisplayName] = true
		}
	}
	return FunderMatch{IDs: sortedKeys(ids), Names: sortedKeys(names)}
}

func sortedKeys(m map[string]bool) []string {
	if len(m) == 0 {
		return nil
	}
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
