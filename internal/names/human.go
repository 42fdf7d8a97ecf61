// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package names

import (
	"strings"

	"github.com/polera/gonameparts"
)

type humanName struct {
	first, middle, last string
}

// parseHuman splits a personal name with gonameparts, which drops
// salutations and generational or degree suffixes and keeps surname
// particles ("van", "de la") with the last name. "Last, First Middle"
// is inverted first. A single remaining token is taken as the first name.
func parseHuman(name string) humanName {
	name = strings.TrimSpace(name)
	if name == "" {
		return humanName{}
	}

	// "Smith, John A" but not "John Smith, Jr."
	if before, after, ok := strings.Cut(name, ","); ok {
		given, _, _ := strings.Cut(after, ",")
		given = strings.TrimSpace(given)
		if last := strings.TrimSpace(before); last != "" && given != "" && !isGeneration(given) {
			tokens := strings.Fields(given)
			if p := gonameparts.Parse(given + " " + last); p.Salutation != "" && len(tokens) > 1 {
				tokens = tokens[1:]
			}
			return humanName{first: tokens[0], middle: strings.Join(tokens[1:], " "), last: last}
		}
		name = before
	}

	if len(strings.Fields(name)) == 1 {
		return humanName{first: trimToken(name)}
	}
	return fromParts(gonameparts.Parse(name))
}

func fromParts(p gonameparts.NameParts) humanName {
	h := humanName{
		first:  trimToken(p.FirstName),
		middle: strings.TrimSpace(p.MiddleName),
		last:   trimToken(p.LastName),
	}
	// Lowercase particles that ended up in the middle name belong to the
	// surname.
	middle := strings.Fields(h.middle)
	start := len(middle)
	for start > 0 && IsSurnamePrefix(middle[start-1]) && isLowerToken(middle[start-1]) {
		start--
	}
	if start < len(middle) && h.last != "" {
		h.last = strings.Join(append(middle[start:], h.last), " ")
		h.middle = strings.Join(middle[:start], " ")
	}
	if h.last == "" && h.middle != "" {
		h.last = middle[len(middle)-1]
		h.middle = strings.Join(middle[:len(middle)-1], " ")
	}
	return h
}

func isGeneration(s string) bool {
	p := gonameparts.Parse("John Smith " + s)
	return strings.TrimSpace(p.Generation) != "" || strings.TrimSpace(p.Suffix) != ""
}

func isLowerToken(tok string) bool {
	return tok == strings.ToLower(tok)
}

func trimToken(s string) string {
	return strings.Trim(strings.TrimSpace(s), ",")
}
