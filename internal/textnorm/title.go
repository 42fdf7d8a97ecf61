// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package textnorm

import (
	"regexp"
	"strings"
)

// Trailing noise removed from titles, applied in order. Each pattern is
// anchored at the end of the title.
var titleSuffixPatterns = compileAll(
	`\s*\[.*?\]\s*$`,           // bracketed note
	`\s*\(.*?\)\s*$`,           // parenthetical
	`\s+[-–—]\s+.*$`,           // dash subtitle
	`\s*[:]\s+.*$`,             // colon subtitle
	`\s+[A-Z]{2,}[-\d]+$`,      // report number, "NASA-TM-12345"
	`\s+\d{4}[-/]\d+$`,         // year/number identifier
	`\s+v\d+$`,                 // version
	`\s+vol[\s.]+\d+.*$`,       // volume
	`\s+part[\s.]+[IVX\d]+.*$`, // part
	`\s+chapter[\s.]+\d+.*$`,   // chapter
)

// Trailing genre words. These never reduce a title below
// minGenreStripWords words, so "The Final Draft" keeps "The Final".
var genreSuffixPatterns = compileAll(
	suffixWord("abstract"),
	suffixWord("summary"),
	suffixWord("preprint"),
	suffixWord("poster"),
	suffixWord("presentation"),
	suffixWord("paper"),
	suffixWord("thesis"),
	suffixWord("dissertation"),
	suffixWord("conference"),
	suffixWord("proceedings?"),
	suffixWord("workshop"),
	suffixWord("symposium"),
	suffixWord("extended"),
	suffixWord("revised"),
	suffixWord("updated"),
	suffixWord("final"),
	suffixWord("draft"),
)

const minGenreStripWords = 2

var trailingPunctRe = regexp.MustCompile(`\s*[.?!]+$`)

func suffixWord(w string) string {
	return `\s+\(?` + w + `\)?$`
}

func compileAll(exprs ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(exprs))
	for i, e := range exprs {
		out[i] = regexp.MustCompile(`(?i)` + e)
	}
	return out
}

// ExtractMainTitle reduces a title to its main part: a date is extracted,
// then bracketed notes, subtitles, report and version numbers, and
// trailing genre words ("abstract", "poster", ...) are removed, and only
// the text before the first ';' is kept. If nothing is left the original
// title is returned.
func ExtractMainTitle(title string) string {
	if title == "" {
		return ""
	}
	original := title

	title, _, _ = ExtractDateFromTitle(title)
	for _, re := range titleSuffixPatterns {
		title = re.ReplaceAllString(title, "")
	}
	for _, re := range genreSuffixPatterns {
		if stripped := re.ReplaceAllString(title, ""); len(strings.Fields(stripped)) >= minGenreStripWords {
			title = stripped
		}
	}
	title = trailingPunctRe.ReplaceAllString(title, "")
	if i := strings.Index(title, ";"); i >= 0 {
		title = title[:i]
	}
	title = strings.Join(strings.Fields(title), " ")
	if title == "" {
		return original
	}
	return title
}

var searchSyntaxReplacer = strings.NewReplacer(
	"|", " ", "+", " ",
	"*", "", "?", "", "~", "", "^", "", `\`, "", "{", "", "}", "", "[", "", "]", "",
)

// SanitizeForSearch removes characters the works search treats as query
// syntax and collapses whitespace.
func SanitizeForSearch(title string) string {
	if title == "" {
		return ""
	}
	return strings.Join(strings.Fields(searchSyntaxReplacer.Replace(title)), " ")
}
