package forensics

import (
	"github.com/abner20953/bidding-data/internal/index"
	"github.com/abner20953/bidding-data/internal/paragraph"
)

// commonGaps pairs gaps with the same missing/found numbers whose context
// similarity exceeds minSimilarity. Each B gap pairs at most once.
func commonGaps(a, b []paragraph.SequenceGap, minSimilarity float64) []CommonSequenceError {
	out := []CommonSequenceError{}
	used := make([]bool, len(b))
	for _, ga := range a {
		for j, gb := range b {
			if used[j] || ga.Missing != gb.Missing || ga.Found != gb.Found {
				continue
			}
			sim := index.Ratio(ga.Context, gb.Context)
			if sim <= minSimilarity {
				continue
			}
			used[j] = true
			out = append(out, CommonSequenceError{
				Missing:    ga.Missing,
				Found:      ga.Found,
				TextA:      ga.Text,
				TextB:      gb.Text,
				PageA:      ga.Page,
				PageB:      gb.Page,
				Similarity: sim,
			})
			break
		}
	}
	return out
}
