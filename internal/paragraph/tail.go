package paragraph

import (
	"strings"
	"unicode/utf8"
)

const DefaultBrokenTailLength = 15

const (
	closingMarks  = "\"'”’）)】」』》]"
	terminalMarks = "。！？!?.;；：:…"
)

// BrokenTail reports whether a long paragraph stops without terminal
// punctuation. Closing quotes and brackets are looked through.
func BrokenTail(text string, minLength int) bool {
	if minLength <= 0 {
		minLength = DefaultBrokenTailLength
	}
	text = strings.TrimSpace(text)
	if utf8.RuneCountInString(text) < minLength {
		return false
	}
	trimmed := strings.TrimRight(text, closingMarks)
	if trimmed == "" {
		return false
	}
	last, _ := utf8.DecodeLastRuneInString(trimmed)
	return !strings.ContainsRune(terminalMarks, last)
}
