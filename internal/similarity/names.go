// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package similarity

import "github.com/pdiddy/award-matcher/internal/names"

// DefaultNameThreshold is the last-name and first-name similarity floor.
const DefaultNameThreshold = 0.85

// NameMatcher decides whether two personal names, each written in its own
// style, refer to the same person.
type NameMatcher struct {
	Threshold float64
}

// NewNameMatcher returns a matcher with threshold, or the default when
// threshold is not positive.
func NewNameMatcher(threshold float64) *NameMatcher {
	if threshold <= 0 {
		threshold = DefaultNameThreshold
	}
	return &NameMatcher{Threshold: threshold}
}

// Similarity parses both names and compares surnames, then given names.
// A single-letter given name only needs to agree on its first letter.
// When one side has no given name the surnames must agree at 0.95 or
// better. Names without a surname fall back to exact normalized equality.
func (m *NameMatcher) Similarity(name1, name2 string, style1, style2 names.Style) (bool, float64) {
	n1 := names.Parse(name1, style1)
	n2 := names.Parse(name2, style2)
	return m.Compare(n1, n2)
}

// Compare scores two already-parsed names.
func (m *NameMatcher) Compare(n1, n2 names.ParsedName) (bool, float64) {
	if n1.Last == "" || n2.Last == "" {
		if n1.Normalized == n2.Normalized {
			return true, 1
		}
		return false, 0
	}

	lastSim := JaroWinkler(n1.Last, n2.Last)
	if lastSim < m.Threshold {
		return false, lastSim
	}

	if n1.First != "" && n2.First != "" {
		f1, f2 := []rune(n1.First), []rune(n2.First)
		if len(f1) == 1 || len(f2) == 1 {
			if f1[0] == f2[0] {
				return true, (lastSim + 0.9) / 2
			}
			return false, lastSim * 0.5
		}
		firstSim := JaroWinkler(n1.First, n2.First)
		if firstSim >= m.Threshold {
			return true, (lastSim + firstSim) / 2
		}
		return false, lastSim * 0.5
	}

	if lastSim >= 0.95 {
		return true, lastSim
	}
	return false, lastSim
}
