// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package textnorm canonicalizes titles for search and comparison: accent
// folding, punctuation stripping, date prefix extraction, subtitle and
// suffix removal, and search-syntax sanitizing.
package textnorm

import (
	"regexp"
	"strings"

	"github.com/mozillazg/go-unidecode"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	htmlEntityRe = regexp.MustCompile(`&[a-z]+;`)
	dashUnderRe  = regexp.MustCompile(`[-_]`)
	nonWordRe    = regexp.MustCompile(`[^\p{L}\p{N}_\s]`)
)

// FoldASCII transliterates s to its closest ASCII spelling ("Münster" ->
// "Munster", "Москва" -> "Moskva"). Input is composed to NFC first so
// decomposed accents transliterate like precomposed ones.
func FoldASCII(s string) string {
	composed, _, err := transform.String(norm.NFC, s)
	if err != nil {
		composed = s
	}
	return unidecode.Unidecode(composed)
}

// Normalizer applies title normalization with an injected stopword set.
type Normalizer struct {
	stopwords StopwordSet
}

// New returns a Normalizer that drops words in stop when normalizing
// aggressively.
func New(stop StopwordSet) *Normalizer {
	return &Normalizer{stopwords: stop}
}

// Normalize transliterates text to lowercase ASCII, replaces HTML entities, dashes,
// underscores and punctuation with spaces, and collapses whitespace.
// Aggressive mode also removes stopwords.
func (n *Normalizer) Normalize(text string, aggressive bool) string {
	if text == "" {
		return ""
	}
	text = strings.ToLower(FoldASCII(text))
	text = htmlEntityRe.ReplaceAllString(text, " ")
	text = dashUnderRe.ReplaceAllString(text, " ")
	text = nonWordRe.ReplaceAllString(text, " ")
	words := strings.Fields(text)

	if aggressive && n.stopwords.Len() > 0 {
		kept := words[:0]
		for _, w := range words {
			if !n.stopwords.Contains(w) {
				kept = append(kept, w)
			}
		}
		words = kept
	}
	return strings.Join(words, " ")
}

// CleanTitleForSearch strips a leading or trailing date, reduces the title
// to its main part and normalizes it. The result is a fixed point: cleaning
// it again returns it unchanged.
func (n *Normalizer) CleanTitleForSearch(title string, aggressive bool) string {
	if title == "" {
		return ""
	}
	out := n.cleanOnce(title, aggressive)
	for i := 0; i < 4; i++ {
		next := n.cleanOnce(out, aggressive)
		if next == out {
			break
		}
		out = next
	}
	return out
}

func (n *Normalizer) cleanOnce(title string, aggressive bool) string {
	title, _, _ = ExtractDateFromTitle(title)
	title = ExtractMainTitle(title)
	return n.Normalize(title, aggressive)
}

var plain = New(StopwordSet{})

// Normalize is the non-aggressive normalization; it needs no stopwords.
func Normalize(text string) string {
	return plain.Normalize(text, false)
}
