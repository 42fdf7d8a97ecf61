// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package matching

import (
	"strings"

	"github.com/pdiddy/award-matcher/internal/similarity"
	"github.com/pdiddy/award-matcher/pkg/types"
)

// lastNameRatio is the minimum ratio (0-100) for two last names to count
// as the same author.
const lastNameRatio = 85

// LastNames pulls the last name from each ";"-separated author. "Smith,
// John" yields "Smith"; "John Smith" yields "Smith".
func LastNames(authors string) []string {
	var out []string
	for _, a := range strings.Split(authors, ";") {
		a = strings.TrimSpace(a)
		if a == "" {
			continue
		}
		if last, _, ok := strings.Cut(a, ","); ok {
			if last = strings.TrimSpace(last); last != "" {
				out = append(out, last)
			}
			continue
		}
		parts := strings.Fields(a)
		out = append(out, parts[len(parts)-1])
	}
	return out
}

// MatchAuthorLastNames reports which input last names appear among the
// work's authors.
func MatchAuthorLastNames(input, work string) types.Record {
	res := types.Record{
		"matched_authors":       false,
		"matched_authors_count": 0,
		"matched_authors_list":  "",
	}
	inputs, found := LastNames(input), LastNames(work)
	if len(inputs) == 0 || len(found) == 0 {
		return res
	}

	var matched []string
	for _, in := range inputs {
		for _, f := range found {
			if similarity.Ratio(strings.ToLower(in), strings.ToLower(f)) >= lastNameRatio {
				matched = append(matched, in)
				break
			}
		}
	}
	if len(matched) > 0 {
		res["matched_authors"] = true
		res["matched_authors_count"] = len(matched)
		res["matched_authors_list"] = strings.Join(matched, "; ")
	}
	return res
}

// TitleYearCheck accepts a publication within one year of the input year
// in either direction. year_difference is absolute.
func TitleYearCheck(input, published int) types.Record {
	diff := input - published
	if diff < 0 {
		diff = -diff
	}
	return types.Record{"year_match": diff <= 1, "year_difference": diff}
}

// AuthorYearCheck accepts a publication in or after the input year and,
// when window is set, no more than window years after it.
// year_difference is published minus input.
func AuthorYearCheck(input, published int, window *int) types.Record {
	diff := published - input
	ok := diff >= 0
	if ok && window != nil {
		ok = diff <= *window
	}
	return types.Record{"year_match": ok, "year_difference": diff}
}
