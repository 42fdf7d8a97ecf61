// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package recordio

import "github.com/pdiddy/award-matcher/pkg/types"

var (
	inputFields = []string{"award_id", "authors", "affiliation", "year", "title"}

	matchingFields = []string{
		"match_status",
		"match_method",
		"error",
		"match_ratio",
		"search_method",
		"cleaned_title",
		"extracted_date",
		"date_format",
		"matched_title",
		"matched_author",
		"matched_author_id",
		"matched_affiliation",
		"matched_affiliation_id",
		"matched_affiliation_ror",
		"author_match_score",
		"affiliation_match_score",
		"combined_match_score",
	}

	openAlexFields = []string{
		"openalex_work_id",
		"metadata_source",
		"publication_year",
		"publication_date",
		"doi",
		"type",
		"language",
		"cited_by_count",
		"is_retracted",
		"work_authors",
		"authors_count",
		"journal",
		"issn",
		"publisher",
		"volume",
		"issue",
		"pages",
		"oa_status",
		"is_oa",
		"oa_url",
		"best_oa_landing_page_url",
		"best_oa_pdf_url",
		"best_oa_license",
		"best_oa_version",
		"topics",
		"abstract",
	}

	fundingFields = []string{
		"has_any_target_funder",
		"has_target_funder",
		"matched_target_funders",
		"matched_target_funder_names",
		"target_funder_match_count",
		"funding_info",
		"funding_count",
		"award_id_match",
		"award_id_match_type",
		"award_id_match_score",
		"matched_grant_award_id",
		"matched_grant_funder",
	}

	validationFields = []string{
		"matched_authors",
		"matched_authors_count",
		"matched_authors_list",
		"year_match",
		"year_difference",
	}

	titleOnly = map[string]bool{
		"title": true, "cleaned_title": true, "extracted_date": true, "date_format": true,
		"matched_title": true, "match_ratio": true, "search_method": true,
		"matched_authors": true, "matched_authors_count": true, "matched_authors_list": true,
	}

	authorOnly = map[string]bool{
		"affiliation": true, "matched_author": true, "matched_author_id": true,
		"matched_affiliation": true, "matched_affiliation_id": true, "matched_affiliation_ror": true,
		"author_match_score": true, "affiliation_match_score": true, "combined_match_score": true,
		"work_authors": true,
	}
)

// AllFields returns every output field in column order.
func AllFields() []string {
	var out []string
	for _, group := range [][]string{inputFields, matchingFields, openAlexFields, fundingFields, validationFields} {
		out = append(out, group...)
	}
	return out
}

// FieldsForMode returns the output columns for a matching mode.
func FieldsForMode(mode types.MatchingMode) []string {
	exclude := authorOnly
	if mode == types.ModeAuthorAffiliation {
		exclude = titleOnly
	}
	var out []string
	for _, f := range AllFields() {
		if !exclude[f] {
			out = append(out, f)
		}
	}
	return out
}
