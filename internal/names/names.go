// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package names parses personal names written in a declared convention
// ("Smith J", "Smith, John", "J. Smith", "John Smith") into first, middle
// and last parts with a canonical normalized form for comparison.
package names

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/rotisserie/eris"

	"github.com/pdiddy/award-matcher/internal/textnorm"
)

// Style is the token layout a name is written in.
type Style string

const (
	StyleAuto             Style = "auto"
	StyleLastInitial      Style = "last_initial"
	StyleLastCommaFirst   Style = "last_comma_first"
	StyleLastFirst        Style = "last_first"
	StyleFirstInitialLast Style = "first_initial_last"
	StyleFirstLast        Style = "first_last"
)

var validStyles = map[Style]bool{
	StyleAuto: true, StyleLastInitial: true, StyleLastCommaFirst: true,
	StyleLastFirst: true, StyleFirstInitialLast: true, StyleFirstLast: true,
}

// ParseStyle validates a configured style name. Empty means auto.
func ParseStyle(s string) (Style, error) {
	if s == "" {
		return StyleAuto, nil
	}
	st := Style(strings.ToLower(strings.TrimSpace(s)))
	if !validStyles[st] {
		return "", eris.Errorf("names: unknown name style %q", s)
	}
	return st, nil
}

// ParsedName is a name split into parts. First, Middle and Last are
// lowercase; Normalized is never empty when Original is not.
type ParsedName struct {
	First      string
	Middle     string
	Last       string
	Normalized string
	Original   string
	Style      Style
}

// surnamePrefixes are particles kept together with the following surname.
var surnamePrefixes = map[string]bool{
	"de": true, "del": true, "della": true, "di": true, "da": true,
	"van": true, "von": true, "der": true, "den": true, "ter": true,
	"le": true, "la": true, "les": true, "du": true, "des": true,
	"mac": true, "mc": true, "o'": true, "d'": true,
	"al": true, "el": true, "ibn": true, "bin": true, "abu": true,
	"dos": true, "das": true, "do": true,
	"san": true, "santa": true, "santo": true,
	"st": true, "saint": true,
}

// IsSurnamePrefix reports whether token is a surname particle such as
// "van" or "de".
func IsSurnamePrefix(token string) bool {
	return surnamePrefixes[strings.ToLower(token)]
}

// IsLikelyInitial reports whether token looks like an initial: one
// character, or up to three uppercase characters, ignoring periods.
func IsLikelyInitial(token string) bool {
	clean := strings.TrimSpace(strings.ReplaceAll(token, ".", ""))
	if clean == "" {
		return false
	}
	n := len([]rune(clean))
	return n == 1 || (n <= 3 && isUpper(clean))
}

func isUpper(s string) bool {
	cased := false
	for _, r := range s {
		if unicode.IsLower(r) {
			return false
		}
		if unicode.IsUpper(r) {
			cased = true
		}
	}
	return cased
}

func isShortInitial(token string) bool {
	n := len([]rune(token))
	return n <= 2 && (strings.HasSuffix(token, ".") || n == 1)
}

// Parse splits name according to style. Names that do not fit the
// declared layout (no comma for last_comma_first, a single token for
// last_first, ...) fall back to the general parser and are tagged
// first_last.
func Parse(name string, style Style) ParsedName {
	name = strings.TrimSpace(name)

	switch style {
	case StyleLastInitial:
		return parseLastInitial(name)

	case StyleLastCommaFirst:
		if last, rest, ok := strings.Cut(name, ","); ok {
			last = strings.TrimSpace(last)
			restParts := strings.Fields(rest)
			first, middle := "", ""
			if len(restParts) > 0 {
				first = strings.ToLower(restParts[0])
			}
			if len(restParts) > 1 {
				middle = strings.ToLower(strings.Join(restParts[1:], " "))
			}
			return assemble(first, middle, strings.ToLower(last), name, style)
		}

	case StyleLastFirst:
		parts := strings.Fields(name)
		if len(parts) >= 2 {
			return assemble(
				strings.ToLower(parts[1]),
				strings.ToLower(strings.Join(parts[2:], " ")),
				strings.ToLower(parts[0]),
				name, style)
		}

	case StyleFirstInitialLast:
		parts := strings.Fields(name)
		var initials []string
		for i, part := range parts {
			if isShortInitial(part) {
				initials = append(initials, strings.ToLower(strings.ReplaceAll(part, ".", "")))
				continue
			}
			first, middle := "", ""
			if len(initials) > 0 {
				first = initials[0]
			}
			if len(initials) > 1 {
				middle = strings.Join(initials[1:], " ")
			}
			return assemble(first, middle, strings.ToLower(strings.Join(parts[i:], " ")), name, style)
		}
	}

	return parseGeneral(name)
}

func parseLastInitial(name string) ParsedName {
	parts := strings.Fields(name)
	if len(parts) < 2 {
		lower := strings.ToLower(name)
		return ParsedName{Last: lower, Normalized: lower, Original: name, Style: StyleLastInitial}
	}

	surname, initial := splitSurnameInitial(parts)
	last := strings.ToLower(strings.TrimRight(surname, ","))
	first := ""
	if initial != "" {
		first = strings.ToLower(string([]rune(initial)[0]))
	}
	return ParsedName{
		First:      first,
		Last:       last,
		Normalized: strings.TrimSpace(last + " " + first),
		Original:   name,
		Style:      StyleLastInitial,
	}
}

// splitSurnameInitial treats a trailing initial token as the given-name
// initial and joins everything before it into one compound surname
// ("De La Cruz Pech-Canul Á" -> "De La Cruz Pech-Canul", "Á").
func splitSurnameInitial(parts []string) (string, string) {
	if len(parts) == 0 {
		return "", ""
	}
	last := parts[len(parts)-1]
	if IsLikelyInitial(last) {
		return strings.Join(parts[:len(parts)-1], " "), last
	}
	return strings.Join(parts, " "), ""
}

func assemble(first, middle, last, original string, style Style) ParsedName {
	normalized := strings.Join(strings.Fields(first+" "+middle+" "+last), " ")
	if normalized == "" {
		normalized = strings.ToLower(original)
	}
	return ParsedName{
		First:      first,
		Middle:     middle,
		Last:       last,
		Normalized: normalized,
		Original:   original,
		Style:      style,
	}
}

var punctSpaceRe = regexp.MustCompile(`[-.,]`)

func parseGeneral(name string) ParsedName {
	h := parseHuman(name)
	first := strings.TrimSpace(h.first)
	middle := strings.TrimSpace(h.middle)
	last := strings.TrimSpace(h.last)

	clean := textnorm.FoldASCII(strings.ToLower(first + " " + middle + " " + last))
	normalized := strings.Join(strings.Fields(punctSpaceRe.ReplaceAllString(clean, " ")), " ")
	if normalized == "" {
		normalized = strings.ToLower(name)
	}
	return ParsedName{
		First:      strings.ToLower(first),
		Middle:     strings.ToLower(middle),
		Last:       strings.ToLower(last),
		Normalized: normalized,
		Original:   name,
		Style:      StyleFirstLast,
	}
}

// ExtractSurname returns only the last-name portion of name.
func ExtractSurname(name string, style Style) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}
	parts := strings.Fields(name)

	switch style {
	case StyleLastInitial:
		if len(parts) >= 2 {
			surname, _ := splitSurnameInitial(parts)
			if surname != "" {
				return strings.TrimRight(surname, ",")
			}
			return parts[0]
		}
		return name
	case StyleLastCommaFirst:
		if last, _, ok := strings.Cut(name, ","); ok {
			return strings.TrimSpace(last)
		}
		return name
	case StyleLastFirst:
		return strings.TrimRight(parts[0], ",")
	case StyleFirstInitialLast:
		for i, part := range parts {
			if !isShortInitial(part) {
				return strings.Join(parts[i:], " ")
			}
		}
		return parts[len(parts)-1]
	}

	if h := parseHuman(name); h.last != "" {
		return h.last
	}
	return parts[len(parts)-1]
}

// ParseList splits a multi-author string on sep and parses each entry.
// Empty entries are skipped.
func ParseList(authors, sep string, style Style) []ParsedName {
	if strings.TrimSpace(authors) == "" {
		return nil
	}
	if sep == "" {
		sep = ";"
	}
	var out []ParsedName
	for _, a := range strings.Split(authors, sep) {
		if a = strings.TrimSpace(a); a != "" {
			out = append(out, Parse(a, style))
		}
	}
	return out
}

var caseBoundaryRe = regexp.MustCompile(`(\p{Ll})(\p{Lu})`)

// splitCaseBoundary re-inserts spaces into names merged on case,
// "SchroderAdams" -> "Schroder Adams".
func splitCaseBoundary(s string) string {
	return caseBoundaryRe.ReplaceAllString(s, "$1 $2")
}

// SearchQuery rewrites name into "given-name surname" order for an author
// search, according to style.
func SearchQuery(name string, style Style) string {
	name = strings.TrimSpace(name)
	query := name

	switch {
	case style == StyleLastCommaFirst || strings.Contains(query, ","):
		if last, first, ok := strings.Cut(query, ","); ok {
			query = splitCaseBoundary(strings.TrimSpace(first)) + " " + strings.TrimSpace(last)
		}
	case style == StyleLastFirst:
		parts := strings.SplitN(query, " ", 2)
		if len(parts) == 2 {
			query = splitCaseBoundary(strings.TrimSpace(parts[1])) + " " + strings.TrimSpace(parts[0])
		}
	case style == StyleLastInitial:
		parts := strings.Fields(query)
		if len(parts) >= 2 {
			query = parts[len(parts)-1] + " " + strings.Join(parts[:len(parts)-1], " ")
		}
	default:
		query = splitCaseBoundary(query)
	}

	if strings.Contains(name, ",") {
		query = splitCaseBoundary(query)
	}
	return strings.Join(strings.Fields(query), " ")
}
