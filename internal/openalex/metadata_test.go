// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package openalex

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/award-matcher/pkg/types"
)

const sampleWorkJSON = `{
  "id": "https://openalex.org/W2741809807",
  "title": "Attention Is All You Need",
  "doi": "https://doi.org/10.5555/3295222.3295349",
  "publication_date": "2017-06-12",
  "publication_year": 2017,
  "type": "article",
  "language": "en",
  "cited_by_count": 90000,
  "authorships": [
    {"author": {"id": "https://openalex.org/A1", "display_name": "Ashish Vaswani"}},
    {"author": {"id": "https://openalex.org/A2", "display_name": "Noam Shazeer"}},
    {"author": {"id": "https://openalex.org/A3", "display_name": ""}}
  ],
  "primary_location": {
    "source": {"display_name": "Neural Information Processing Systems", "issn_l": "1049-5258", "host_organization_name": "NeurIPS"}
  },
  "best_oa_location": {"landing_page_url": "https://arxiv.org/abs/1706.03762", "pdf_url": "https://arxiv.org/pdf/1706.03762", "license": "cc-by", "version": "submittedVersion"},
  "open_access": {"is_oa": true, "oa_status": "green", "oa_url": "https://arxiv.org/pdf/1706.03762"},
  "biblio": {"volume": "30", "issue": null, "first_page": "5998", "last_page": "6008"},
  "grants": [
    {"funder": "https://openalex.org/F4320306076", "funder_display_name": "National Science Foundation", "award_id": "NSF-12345"},
    {"funder": "https://openalex.org/F4320332161", "funder_display_name": "National Institutes of Health", "award_id": null},
    {"funder": "https://openalex.org/F999", "funder_display_name": "", "award_id": ""}
  ],
  "topics": [
    {"display_name": "T1"}, {"display_name": "T2"}, {"display_name": "T3"},
    {"display_name": "T4"}, {"display_name": "T5"}, {"display_name": "T6"}
  ],
  "abstract_inverted_index": {"We": [0], "propose": [1], "a": [2, 5], "new": [3], "architecture": [4], "based": [6]}
}`

func sampleWork(t *testing.T) types.Work {
	t.Helper()
	var w types.Work
	require.NoError(t, json.Unmarshal([]byte(sampleWorkJSON), &w))
	return w
}

func TestExtractMetadata(t *testing.T) {
	m := ExtractMetadata(sampleWork(t), nil, "")

	assert.Equal(t, "https://openalex.org/W2741809807", m["openalex_work_id"])
	assert.Equal(t, "Attention Is All You Need", m["publication_title"])
	assert.Equal(t, 2017, m["publication_year"])
	assert.Equal(t, "openalex", m[types.FieldMetadataSource])
	assert.Equal(t, "Ashish Vaswani; Noam Shazeer", m["work_authors"])
	assert.Equal(t, 2, m["authors_count"])
	assert.Equal(t, "Neural Information Processing Systems", m["journal"])
	assert.Equal(t, "1049-5258", m["issn"])
	assert.Equal(t, "NeurIPS", m["publisher"])
	assert.Equal(t, "30", m["volume"])
	assert.Equal(t, "", m["issue"])
	assert.Equal(t, "5998-6008", m["pages"])
	assert.Equal(t, "green", m["oa_status"])
	assert.Equal(t, true, m["is_oa"])
	assert.Equal(t, "cc-by", m["best_oa_license"])
	assert.Equal(t, "National Science Foundation: NSF-12345; National Institutes of Health", m["funding_info"])
	assert.Equal(t, 3, m["funding_count"])
	assert.Equal(t, "T1; T2; T3; T4; T5", m["topics"])
	assert.Equal(t, "We propose a new architecture a based", m["abstract"])

	_, hasFunder := m["has_target_funder"]
	assert.False(t, hasFunder, "funder fields only with target funders")
	_, hasAward := m["award_id_match"]
	assert.False(t, hasAward, "award fields only with an award id")
}

func TestExtractMetadata_MissingLocations(t *testing.T) {
	m := ExtractMetadata(types.Work{ID: "W1", DisplayName: "Fallback title"}, nil, "")
	assert.Equal(t, "Fallback title", m["publication_title"])
	assert.Equal(t, "", m["journal"])
	assert.Equal(t, "", m["best_oa_pdf_url"])
	assert.Equal(t, "", m["work_authors"])
	assert.Equal(t, 0, m["authors_count"])
	_, hasAbstract := m["abstract"]
	assert.False(t, hasAbstract)
}

func TestExtractMetadata_FundersAndAward(t *testing.T) {
	m := ExtractMetadata(sampleWork(t), []string{"F4320306076"}, "12345")
	assert.Equal(t, true, m["has_target_funder"])
	assert.Equal(t, true, m["has_any_target_funder"])
	assert.Equal(t, "https://openalex.org/F4320306076", m["matched_target_funders"])
	assert.Equal(t, "National Science Foundation", m["matched_target_funder_names"])
	assert.Equal(t, 1, m["target_funder_match_count"])

	assert.Equal(t, true, m["award_id_match"])
	assert.Equal(t, AwardMatchNormalized, m["award_id_match_type"])
	assert.Equal(t, 95, m["award_id_match_score"])
	assert.Equal(t, "NSF-12345", m["matched_grant_award_id"])
}

func TestCheckFunders_NoMatch(t *testing.T) {
	f := CheckFunders(sampleWork(t), []string{"https://openalex.org/F1"})
	assert.Empty(t, f.IDs)
	assert.Equal(t, false, f.Fields()["has_target_funder"])
	assert.Equal(t, 0, f.Fields()["target_funder_match_count"])
}

func TestNormalizeAwardID(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"NSF-12345", "12345"},
		{"12345", "12345"},
		{"Grant #AB.12_3", "ab123"},
		{"R01 GM-123456", "r01gm123456"},
		{"DE-AC02-05CH11231", "deac0205ch11231"},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeAwardID(tt.in))
		})
	}
}

func TestMatchAwardID(t *testing.T) {
	work := func(ids ...string) types.Work {
		var w types.Work
		for _, id := range ids {
			w.Grants = append(w.Grants, types.Grant{AwardID: id, FunderDisplayName: "F-" + id})
		}
		return w
	}

	tests := []struct {
		name      string
		work      types.Work
		award     string
		wantOK    bool
		wantType  string
		wantScore int
		wantGrant string
	}{
		{"exact wins over earlier normalized", work("nsf 12345", "NSF-12345"), "NSF-12345", true, AwardMatchExact, 100, "NSF-12345"},
		{"agency prefix normalized", work("NSF-12345"), "12345", true, AwardMatchNormalized, 95, "NSF-12345"},
		{"contains", work("1234567"), "12345", true, AwardMatchContains, 85, "1234567"},
		{"normalized beats contains", work("1234567", "12 345"), "12345", true, AwardMatchNormalized, 95, "12 345"},
		{"tie goes to first", work("123456", "012345"), "12345", true, AwardMatchContains, 85, "123456"},
		{"fuzzy", work("ABC1234"), "ABD1234", true, AwardMatchFuzzy, 86, "ABC1234"},
		{"no match", work("XYZ"), "12345", false, "", 0, ""},
		{"no grants", work(), "12345", false, "", 0, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MatchAwardID(tt.work, tt.award)
			assert.Equal(t, tt.wantOK, got.Matched)
			assert.Equal(t, tt.wantType, got.Type)
			assert.Equal(t, tt.wantScore, got.Score)
			assert.Equal(t, tt.wantGrant, got.AwardID)
		})
	}
}

func TestReconstructAbstract(t *testing.T) {
	tests := []struct {
		name  string
		index map[string][]int
		want  string
	}{
		{"nil map", nil, ""},
		{"empty map", map[string][]int{}, ""},
		{"single word", map[string][]int{"hello": {0}}, "hello"},
		{"repeated word", map[string][]int{"the": {0, 4}, "cat": {1}, "sat": {2}, "on": {3}, "mat": {5}}, "the cat sat on the mat"},
		{"gap keeps position", map[string][]int{"a": {0}, "c": {2}}, "a  c"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ReconstructAbstract(tt.index))
		})
	}
}
