// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package identifier extracts and classifies work identifiers: DOIs
// embedded in arbitrary URLs or strings, and OpenAlex work ids.
package identifier

import (
	"net/url"
	"regexp"
	"strings"

	"go.uber.org/zap"
)

// Type classifies an input identifier.
type Type int

const (
	TypeUnknown Type = iota
	TypeWorkID
	TypeDOI
	TypeURL
)

func (t Type) String() string {
	switch t {
	case TypeWorkID:
		return "openalex"
	case TypeDOI:
		return "doi"
	case TypeURL:
		return "url"
	default:
		return "unknown"
	}
}

const doiExpr = `10\.\d{4,}(?:\.\d+)*/[-._;()/:A-Za-z0-9]+`

var (
	// percentRunRe matches a run of well-formed percent escapes.
	percentRunRe = regexp.MustCompile(`(?:%[0-9A-Fa-f]{2})+`)

	doiSearchRe = regexp.MustCompile(doiExpr)
	doiPrefixRe = regexp.MustCompile(`^` + doiExpr)
	doiExactRe  = regexp.MustCompile(`^` + doiExpr + `$`)

	// workIDRe matches "W2741809807" alone or at the end of an OpenAlex URL.
	workIDRe = regexp.MustCompile(`^(?:https?://(?:api\.)?openalex\.org/(?:works/)?)?([Ww]\d+)$`)
)

// publisherPrefixes are URL and label prefixes that usually precede a DOI.
var publisherPrefixes = []string{
	"https://doi.org/",
	"http://doi.org/",
	"https://dx.doi.org/",
	"http://dx.doi.org/",
	"doi.org/",
	"dx.doi.org/",
	"doi:",
	"DOI:",
	"https://link.springer.com/article/",
	"https://link.springer.com/chapter/",
	"https://www.nature.com/articles/",
	"https://science.sciencemag.org/content/",
	"https://pubs.acs.org/doi/",
	"https://onlinelibrary.wiley.com/doi/",
	"https://journals.plos.org/plosone/article?id=",
}

// unquote decodes the well-formed percent escapes in s and leaves '+' and
// stray '%' characters as they are.
func unquote(s string) string {
	return percentRunRe.ReplaceAllStringFunc(s, func(run string) string {
		dec, err := url.PathUnescape(run)
		if err != nil {
			return run
		}
		return dec
	})
}

// ExtractDOI finds a DOI in s: first anywhere in the (percent-decoded)
// string, then directly after a known publisher prefix, then in the URL
// path and query. It returns "" when none is found.
func ExtractDOI(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	s = unquote(s)

	if m := doiSearchRe.FindString(s); m != "" {
		return m
	}

	lower := strings.ToLower(s)
	for _, prefix := range publisherPrefixes {
		idx := strings.Index(lower, strings.ToLower(prefix))
		if idx < 0 {
			continue
		}
		rest := s[idx+len(prefix):]
		if i := strings.IndexAny(rest, "?#"); i >= 0 {
			rest = rest[:i]
		}
		if m := doiPrefixRe.FindString(rest); m != "" {
			zap.L().Debug("extracted DOI after prefix", zap.String("prefix", prefix), zap.String("doi", m))
			return m
		}
	}

	if u, err := url.Parse(s); err == nil {
		if m := doiSearchRe.FindString(strings.TrimPrefix(u.Path, "/")); m != "" {
			return m
		}
		if m := doiSearchRe.FindString(u.RawQuery); m != "" {
			return m
		}
	}
	return ""
}

// IsValidDOI reports whether s is exactly one DOI.
func IsValidDOI(s string) bool {
	return s != "" && doiExactRe.MatchString(s)
}

// NormalizeWorkID returns the bare "W…" id for an OpenAlex work id or
// URL, uppercasing the prefix. ok is false when s is not a work id.
func NormalizeWorkID(s string) (string, bool) {
	m := workIDRe.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return "", false
	}
	return "W" + m[1][1:], true
}

// Classify determines the identifier type and returns the normalized
// form: the bare work id, the extracted DOI, or the URL as given.
func Classify(s string) (Type, string) {
	s = strings.TrimSpace(s)

	if id, ok := NormalizeWorkID(s); ok {
		return TypeWorkID, id
	}
	if doi := ExtractDOI(s); doi != "" {
		return TypeDOI, doi
	}
	if u, err := url.Parse(s); err == nil && (u.Scheme == "http" || u.Scheme == "https") {
		return TypeURL, s
	}
	return TypeUnknown, s
}

// DOIURL returns the resolver URL OpenAlex uses as the canonical DOI form.
func DOIURL(doi string) string {
	return "https://doi.org/" + doi
}
