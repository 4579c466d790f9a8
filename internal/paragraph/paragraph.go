// Package paragraph rebuilds logical paragraphs from page-split text and
// runs the per-paragraph structural checks.
package paragraph

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/abner20953/bidding-data/internal/ingest"
)

// DefaultShortLine is the buffer length below which a line always stands alone.
const DefaultShortLine = 40

type Paragraph struct {
	Index int    `json:"index"`
	Page  int    `json:"page"`
	Text  string `json:"text"`
}

var (
	sentenceEnd = regexp.MustCompile(`[。！？!?;；：:]$`)
	listStart   = regexp.MustCompile(`^(?:\d+[.、]|[（(]\d+[)）])`)
)

// Segment flattens pages into lines and merges wrapped lines back into
// paragraphs. A paragraph's page is the page of its first line.
func Segment(pages []ingest.Page, shortLine int) []Paragraph {
	if shortLine <= 0 {
		shortLine = DefaultShortLine
	}

	var (
		out     []Paragraph
		buf     strings.Builder
		bufPage int
	)
	commit := func() {
		if buf.Len() == 0 {
			return
		}
		out = append(out, Paragraph{Index: len(out), Page: bufPage, Text: buf.String()})
		buf.Reset()
	}

	for _, page := range pages {
		for _, raw := range strings.Split(page.Text, "\n") {
			line := strings.TrimSpace(raw)
			if line == "" {
				continue
			}
			if buf.Len() > 0 && standsAlone(buf.String(), line, shortLine) {
				commit()
			}
			if buf.Len() == 0 {
				bufPage = page.Number
				buf.WriteString(line)
				continue
			}
			if needsSpace(buf.String(), line) {
				buf.WriteByte(' ')
			}
			buf.WriteString(line)
		}
	}
	commit()

	return out
}

func standsAlone(buffered, next string, shortLine int) bool {
	if sentenceEnd.MatchString(buffered) {
		return true
	}
	if utf8.RuneCountInString(buffered) < shortLine {
		return true
	}
	return listStart.MatchString(next)
}

// Wrapped Latin words would otherwise fuse across the line break.
func needsSpace(left, right string) bool {
	l, _ := utf8.DecodeLastRuneInString(left)
	r, _ := utf8.DecodeRuneInString(right)
	return isASCIIAlnum(l) && isASCIIAlnum(r)
}

func isASCIIAlnum(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
}
