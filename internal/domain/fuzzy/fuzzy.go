// Package fuzzy resolves a user-supplied title fragment to the closest known
// task title, tolerating partial phrasing and typos.
package fuzzy

import (
	"strings"
	"unicode"
)

// DefaultThreshold is the minimum similarity accepted by Match.
const DefaultThreshold = 0.60

// Matcher matches fragments against candidate titles. The zero value uses
// DefaultThreshold.
type Matcher struct {
	// Threshold is the minimum similarity in (0, 1]. Zero means DefaultThreshold.
	Threshold float64
}

// Match resolves fragment against candidates with DefaultThreshold.
func Match(fragment string, candidates []string) (string, bool) {
	return Matcher{}.Match(fragment, candidates)
}

// Match returns the best candidate for fragment, or false.
//
// Tie-break order:
//   - case-insensitive equality
//   - fragment contained in candidates: the shortest one
//   - candidates contained in fragment: the longest one
//   - highest Similarity at or above the threshold
//
// Remaining ties go to the earliest candidate.
func (m Matcher) Match(fragment string, candidates []string) (string, bool) {
	frag := strings.ToLower(strings.TrimSpace(fragment))
	if frag == "" || len(candidates) == 0 {
		return "", false
	}

	lowered := make([]string, len(candidates))
	for i, c := range candidates {
		lowered[i] = strings.ToLower(strings.TrimSpace(c))
	}

	for i, c := range lowered {
		if c == frag {
			return candidates[i], true
		}
	}

	best := -1
	for i, c := range lowered {
		if c != "" && strings.Contains(c, frag) {
			if best < 0 || len(c) < len(lowered[best]) {
				best = i
			}
		}
	}
	if best >= 0 {
		return candidates[best], true
	}

	for i, c := range lowered {
		if c != "" && strings.Contains(frag, c) {
			if best < 0 || len(c) > len(lowered[best]) {
				best = i
			}
		}
	}
	if best >= 0 {
		return candidates[best], true
	}

	threshold := m.Threshold
	if threshold <= 0 {
		threshold = DefaultThreshold
	}

	bestScore := 0.0
	for i, c := range candidates {
		if score := Similarity(fragment, c); score >= threshold && score > bestScore {
			best, bestScore = i, score
		}
	}
	if best >= 0 {
		return candidates[best], true
	}
	return "", false
}

// Similarity scores a against b in [0, 1]. Both strings are reduced to their
// lower-cased letters and digits; every character of a that can be paired
// with an unused character of b counts once, and the count is divided by the
// length of the longer reduced string.
func Similarity(a, b string) float64 {
	ra, rb := normalize(a), normalize(b)
	longer := max(len(ra), len(rb))
	if longer == 0 {
		return 0
	}

	pool := make(map[rune]int, len(rb))
	for _, r := range rb {
		pool[r]++
	}

	matched := 0
	for _, r := range ra {
		if pool[r] > 0 {
			pool[r]--
			matched++
		}
	}
	return float64(matched) / float64(longer)
}

func normalize(s string) []rune {
	out := make([]rune, 0, len(s))
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			out = append(out, r)
		}
	}
	return out
}
