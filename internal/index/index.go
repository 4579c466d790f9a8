package index

import (
	"fmt"
	"sort"
	"unicode/utf8"
)

const (
	StrategyBigram = "bigram"
	StrategyScan   = "scan"
)

// Match is the best candidate for a query: its position in the indexed
// slice and its similarity ratio.
type Match struct {
	Index int
	Ratio float64
}

// Matcher returns the most similar indexed fingerprint whose ratio reaches
// threshold. Ties go to the earlier entry.
type Matcher interface {
	Best(query string, threshold float64) (Match, bool)
}

type Options struct {
	Strategy      string
	MinOverlap    float64
	MaxCandidates int
	MinJaccard    float64
}

func DefaultOptions() Options {
	return Options{
		Strategy:      StrategyBigram,
		MinOverlap:    0.3,
		MaxCandidates: 64,
		MinJaccard:    0.5,
	}
}

// New builds the matcher selected by opts.Strategy.
func New(fps []string, opts Options) (Matcher, error) {
	switch opts.Strategy {
	case "", StrategyBigram:
		return NewBigram(fps, opts.MinOverlap, opts.MaxCandidates), nil
	case StrategyScan:
		return NewScan(fps, opts.MinJaccard), nil
	default:
		return nil, fmt.Errorf("unknown match strategy %q (want %s or %s)", opts.Strategy, StrategyBigram, StrategyScan)
	}
}

// Bigram is an inverted index from character bigrams to fingerprint
// positions. Candidates must share MinOverlap of the query's bigrams.
type Bigram struct {
	fps           [][]string
	lengths       []int
	postings      map[string][]int
	minOverlap    float64
	maxCandidates int
}

func NewBigram(fps []string, minOverlap float64, maxCandidates int) *Bigram {
	ix := &Bigram{
		fps:           make([][]string, len(fps)),
		lengths:       make([]int, len(fps)),
		postings:      map[string][]int{},
		minOverlap:    minOverlap,
		maxCandidates: maxCandidates,
	}
	for i, fp := range fps {
		ix.fps[i] = runes(fp)
		ix.lengths[i] = len(ix.fps[i])
		for _, g := range bigrams(fp) {
			ix.postings[g] = append(ix.postings[g], i)
		}
	}
	return ix
}

type candidate struct {
	index int
	votes int
}

// Candidates ranks indexed entries by shared bigrams, most first.
func (ix *Bigram) Candidates(query string) []int {
	grams := bigrams(query)
	if len(grams) == 0 {
		return nil
	}
	votes := map[int]int{}
	for _, g := range grams {
		for _, i := range ix.postings[g] {
			votes[i]++
		}
	}

	need := ix.minOverlap * float64(len(grams))
	ranked := make([]candidate, 0, len(votes))
	for i, v := range votes {
		if float64(v) >= need {
			ranked = append(ranked, candidate{index: i, votes: v})
		}
	}
	sort.Slice(ranked, func(a, b int) bool {
		if ranked[a].votes != ranked[b].votes {
			return ranked[a].votes > ranked[b].votes
		}
		return ranked[a].index < ranked[b].index
	})
	if ix.maxCandidates > 0 && len(ranked) > ix.maxCandidates {
		ranked = ranked[:ix.maxCandidates]
	}

	out := make([]int, len(ranked))
	for i, c := range ranked {
		out[i] = c.index
	}
	return out
}

func (ix *Bigram) Best(query string, threshold float64) (Match, bool) {
	q := runes(query)
	best := Match{Index: -1}
	for _, i := range ix.Candidates(query) {
		if lengthBound(len(q), ix.lengths[i]) < threshold {
			continue
		}
		r, ok := ratioAtLeast(q, ix.fps[i], threshold)
		if !ok {
			continue
		}
		if r > best.Ratio || (r == best.Ratio && i < best.Index) {
			best = Match{Index: i, Ratio: r}
		}
	}
	return best, best.Index >= 0
}

// bigrams returns the distinct rune pairs of s. A one-rune string is its
// own gram.
func bigrams(s string) []string {
	rs := []rune(s)
	if len(rs) == 0 {
		return nil
	}
	if len(rs) == 1 {
		return []string{s}
	}
	seen := make(map[string]struct{}, len(rs))
	out := make([]string, 0, len(rs)-1)
	for i := 0; i+1 < len(rs); i++ {
		g := string(rs[i : i+2])
		if _, ok := seen[g]; ok {
			continue
		}
		seen[g] = struct{}{}
		out = append(out, g)
	}
	return out
}

// Scan compares the query against every entry, pruned by length and by
// Jaccard overlap of character sets.
type Scan struct {
	fps        [][]string
	sets       []map[rune]struct{}
	minJaccard float64
}

func NewScan(fps []string, minJaccard float64) *Scan {
	s := &Scan{
		fps:        make([][]string, len(fps)),
		sets:       make([]map[rune]struct{}, len(fps)),
		minJaccard: minJaccard,
	}
	for i, fp := range fps {
		s.fps[i] = runes(fp)
		s.sets[i] = charSet(fp)
	}
	return s
}

func (s *Scan) Best(query string, threshold float64) (Match, bool) {
	q := runes(query)
	qs := charSet(query)
	best := Match{Index: -1}
	for i, fp := range s.fps {
		if lengthBound(len(q), len(fp)) < threshold {
			continue
		}
		if jaccard(qs, s.sets[i]) < s.minJaccard {
			continue
		}
		r, ok := ratioAtLeast(q, fp, threshold)
		if ok && r > best.Ratio {
			best = Match{Index: i, Ratio: r}
		}
	}
	return best, best.Index >= 0
}

func charSet(s string) map[rune]struct{} {
	set := make(map[rune]struct{}, utf8.RuneCountInString(s))
	for _, r := range s {
		set[r] = struct{}{}
	}
	return set
}

func jaccard(a, b map[rune]struct{}) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1
	}
	inter := 0
	for r := range a {
		if _, ok := b[r]; ok {
			inter++
		}
	}
	return float64(inter) / float64(len(a)+len(b)-inter)
}
