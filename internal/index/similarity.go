// Package index finds near-duplicate fingerprints without comparing every
// pair.
package index

import (
	"github.com/pmezard/go-difflib/difflib"
)

// Ratio is the longest-matching-blocks similarity 2*M/(len(a)+len(b)),
// computed over runes.
func Ratio(a, b string) float64 {
	if a == b {
		return 1
	}
	return difflib.NewMatcher(runes(a), runes(b)).Ratio()
}

// lengthBound is the best ratio two strings of these lengths could reach.
func lengthBound(la, lb int) float64 {
	if la+lb == 0 {
		return 1
	}
	short := la
	if lb < short {
		short = lb
	}
	return 2 * float64(short) / float64(la+lb)
}

// ratioAtLeast runs the cheap upper bounds before the full ratio.
func ratioAtLeast(query, candidate []string, threshold float64) (float64, bool) {
	m := difflib.NewMatcher(query, candidate)
	if m.RealQuickRatio() < threshold || m.QuickRatio() < threshold {
		return 0, false
	}
	r := m.Ratio()
	return r, r >= threshold
}

func runes(s string) []string {
	out := make([]string, 0, len(s))
	for _, r := range s {
		out = append(out, string(r))
	}
	return out
}
