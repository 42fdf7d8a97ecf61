// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package similarity scores names and affiliations. Every scorer returns
// an (isMatch, score) pair with score in [0,1], except Ratio which uses
// the 0-100 scale of title and award-id comparisons.
package similarity

import (
	"math"

	"github.com/xrash/smetrics"
)

// Ratio returns the indel similarity of a and b on a 0-100 scale:
// 200*LCS/(len(a)+len(b)), rounded half to even. Two empty strings score
// 100; one empty string scores 0.
func Ratio(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	total := len(ra) + len(rb)
	if total == 0 {
		return 100
	}
	if len(ra) == 0 || len(rb) == 0 {
		return 0
	}
	lcs := lcsLength(ra, rb)
	return int(math.RoundToEven(200 * float64(lcs) / float64(total)))
}

// lcsLength is the longest common subsequence length, two-row DP.
func lcsLength(a, b []rune) int {
	if len(a) < len(b) {
		a, b = b, a
	}
	prev := make([]int, len(b)+1)
	cur := make([]int, len(b)+1)
	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			switch {
			case a[i-1] == b[j-1]:
				cur[j] = prev[j-1] + 1
			case prev[j] >= cur[j-1]:
				cur[j] = prev[j]
			default:
				cur[j] = cur[j-1]
			}
		}
		prev, cur = cur, prev
	}
	return prev[len(b)]
}

// JaroWinkler is the Jaro similarity boosted for a common prefix of up to
// four characters (scale 0.1, boost applied above 0.7).
func JaroWinkler(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}
	if a == b {
		return 1
	}
	return smetrics.JaroWinkler(a, b, 0.7, 4)
}
