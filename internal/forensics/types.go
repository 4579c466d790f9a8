package forensics

import (
	"github.com/abner20953/bidding-data/internal/guard"
	"github.com/abner20953/bidding-data/internal/ingest"
)

// Errors surfaced by Compare. Extraction errors are wrapped with the role
// of the file that failed.
var (
	ErrUnsupportedFormat     = ingest.ErrUnsupportedFormat
	ErrFileNotFound          = ingest.ErrFileNotFound
	ErrExtractionFailure     = ingest.ErrExtractionFailure
	ErrComparisonTimeout     = guard.ErrTimeout
	ErrComparisonOutOfMemory = guard.ErrOutOfMemory
)

type Kind string

const (
	KindEntity Kind = "entity"
	KindExact  Kind = "exact"
	KindFuzzy  Kind = "fuzzy"
)

const (
	BadgeSensitive       = "敏感数据"
	BadgeSharedDeviation = "疑似共同修改"
	BadgeBrokenTail      = "共同断尾"
)

type SuspiciousItem struct {
	Type   Kind     `json:"type"`
	TextA  string   `json:"text_a"`
	TextB  string   `json:"text_b"`
	PageA  int      `json:"page_a"`
	PageB  int      `json:"page_b"`
	Score  int      `json:"score"`
	Desc   string   `json:"desc"`
	Badges []string `json:"badges"`
}

// HasBadge reports whether the item carries badge.
func (s SuspiciousItem) HasBadge(badge string) bool {
	for _, b := range s.Badges {
		if b == badge {
			return true
		}
	}
	return false
}

// CommonSequenceError is a numbering hole both bidders share.
type CommonSequenceError struct {
	Missing    int     `json:"missing"`
	Found      int     `json:"found"`
	TextA      string  `json:"text_a"`
	TextB      string  `json:"text_b"`
	PageA      int     `json:"page_a"`
	PageB      int     `json:"page_b"`
	Similarity float64 `json:"similarity"`
}

type CommonErrors struct {
	Sequence []CommonSequenceError `json:"sequence"`
}

// MetaMatch is a provenance field with the same value in both bids.
type MetaMatch struct {
	Field string `json:"field"`
	Value string `json:"value"`
}

type Metadata struct {
	FileA   ingest.Meta  `json:"file_a"`
	FileB   ingest.Meta  `json:"file_b"`
	Tender  *ingest.Meta `json:"tender"`
	Matches []MetaMatch  `json:"matches"`
}

type SpanTrace struct {
	Name       string `json:"name"`
	DurationMs int64  `json:"duration_ms"`
	Status     string `json:"status"`
}

type Stats struct {
	ParagraphsA         int         `json:"paragraphs_a"`
	ParagraphsB         int         `json:"paragraphs_b"`
	ParagraphsTender    int         `json:"paragraphs_tender"`
	Compared            int         `json:"compared"`
	ExcludedBoilerplate int         `json:"excluded_boilerplate"`
	ExcludedParameter   int         `json:"excluded_parameter"`
	ExcludedNearTender  int         `json:"excluded_near_tender"`
	Renumbered          int         `json:"renumbered"`
	DurationMs          int64       `json:"duration_ms"`
	Traces              []SpanTrace `json:"traces"`
}

type Result struct {
	Paragraphs   []SuspiciousItem `json:"paragraphs"`
	CommonErrors CommonErrors     `json:"common_errors"`
	Metadata     Metadata         `json:"metadata"`
	Stats        Stats            `json:"stats"`
}

// MaxScore is the highest item score, or 0 for a clean result.
func (r *Result) MaxScore() int {
	if r == nil || len(r.Paragraphs) == 0 {
		return 0
	}
	return r.Paragraphs[0].Score
}
