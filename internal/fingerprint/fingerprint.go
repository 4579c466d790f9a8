// Package fingerprint canonicalises paragraph text into comparison keys.
package fingerprint

import (
	"regexp"
	"unicode"
	"unicode/utf8"
)

var (
	whitespace = regexp.MustCompile(`\s+`)
	nonWord    = regexp.MustCompile(`[^\p{L}\p{N}_\p{Han}]+`)
	nonHan     = regexp.MustCompile(`[^\p{Han}]+`)
	numbering  = regexp.MustCompile(`^\s*(?:[（(]\s*\d+\s*[)）]|\d+(?:\.\d+)*[.、．]?|[一二三四五六七八九十]+[、.．])\s*`)
)

// Fingerprint drops whitespace and every rune that is neither a word
// character nor a CJK ideograph. It is idempotent.
func Fingerprint(text string) string {
	if text == "" {
		return ""
	}
	return nonWord.ReplaceAllString(whitespace.ReplaceAllString(text, ""), "")
}

// Skeleton keeps only the CJK ideographs of text. Two lines with the same
// skeleton differ only in digits, Latin letters or symbols.
func Skeleton(text string) string {
	return nonHan.ReplaceAllString(text, "")
}

// StripNumbering removes a leading list marker such as "2.3", "12.", "(4)"
// or "三、".
func StripNumbering(text string) string {
	return numbering.ReplaceAllString(text, "")
}

// Length counts runes, which is what every length threshold is measured in.
func Length(s string) int {
	return utf8.RuneCountInString(s)
}

func numericOnly(fp string) bool {
	if fp == "" {
		return false
	}
	for _, r := range fp {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}
