package paragraph

import (
	"regexp"
	"strconv"
	"unicode"
	"unicode/utf8"

	"github.com/abner20953/bidding-data/internal/fingerprint"
)

const (
	// MaxSkipped is the widest hole still read as a numbering slip. Larger
	// jumps start a new list.
	MaxSkipped = 2

	contextLength = 50
)

type numberStyle int

const (
	styleDot numberStyle = iota
	styleParen
)

var (
	dotNumber   = regexp.MustCompile(`^(\d+)[.、．]`)
	parenNumber = regexp.MustCompile(`^[（(](\d+)[)）]`)
)

// SequenceGap is one break in a numbered list: Missing was expected but
// Found came next, so Missing through Found-1 were skipped.
type SequenceGap struct {
	Missing int    `json:"missing"`
	Found   int    `json:"found"`
	Text    string `json:"text"`
	Page    int    `json:"page"`
	Context string `json:"context_fingerprint"`
}

// SequenceGaps walks numbered paragraphs per numbering style. Unnumbered
// paragraphs between items do not break a list.
func SequenceGaps(paras []Paragraph) []SequenceGap {
	var gaps []SequenceGap
	last := map[numberStyle]int{}

	for _, p := range paras {
		style, n, ok := leadingNumber(p.Text)
		if !ok {
			continue
		}
		prev, seen := last[style]
		last[style] = n
		if !seen {
			continue
		}

		expected := prev + 1
		if n <= expected || n-expected > MaxSkipped {
			continue
		}
		gaps = append(gaps, SequenceGap{
			Missing: expected,
			Found:   n,
			Text:    p.Text,
			Page:    p.Page,
			Context: contextOf(p.Text),
		})
	}

	return gaps
}

func leadingNumber(text string) (numberStyle, int, bool) {
	if m := parenNumber.FindStringSubmatch(text); m != nil {
		n, err := strconv.Atoi(m[1])
		return styleParen, n, err == nil
	}
	if loc := dotNumber.FindStringSubmatchIndex(text); loc != nil {
		// "2.3" is a sub-clause, not item 2.
		if next, _ := utf8.DecodeRuneInString(text[loc[1]:]); unicode.IsDigit(next) {
			return 0, 0, false
		}
		n, err := strconv.Atoi(text[loc[2]:loc[3]])
		return styleDot, n, err == nil
	}
	return 0, 0, false
}

func contextOf(text string) string {
	fp := []rune(fingerprint.Fingerprint(fingerprint.StripNumbering(text)))
	if len(fp) > contextLength {
		fp = fp[:contextLength]
	}
	return string(fp)
}
