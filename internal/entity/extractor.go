// Package entity pulls contact identifiers out of raw page text.
package entity

import (
	"regexp"
	"sort"
	"strings"

	"github.com/abner20953/bidding-data/internal/ingest"
)

type Kind string

const (
	KindPhone  Kind = "phone"
	KindIDCard Kind = "id_card"
	KindEmail  Kind = "email"
)

// Label is the reviewer-facing name of the kind.
func (k Kind) Label() string {
	switch k {
	case KindPhone:
		return "手机号码"
	case KindIDCard:
		return "身份证号"
	case KindEmail:
		return "电子邮箱"
	}
	return string(k)
}

type Entity struct {
	Kind Kind   `json:"kind"`
	Text string `json:"text"`
	Key  string `json:"key"`
	Page int    `json:"page"`
	// Order is the position of the first occurrence in the document.
	Order int `json:"-"`
}

// Set maps canonical keys to their first occurrence.
type Set map[string]Entity

var (
	phoneRegex = regexp.MustCompile(`1[3-9]\d{9}`)
	idRegex    = regexp.MustCompile(`\d{17}[\dXx]`)
	emailRegex = regexp.MustCompile(`[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}`)
)

// Extract scans pages in order and keeps the first occurrence per key.
func Extract(pages []ingest.Page) Set {
	set := Set{}
	add := func(kind Kind, text, canonical string, page int) {
		key := string(kind) + ":" + canonical
		if _, ok := set[key]; ok {
			return
		}
		set[key] = Entity{Kind: kind, Text: text, Key: key, Page: page, Order: len(set)}
	}

	for _, page := range pages {
		text := page.Text
		for _, m := range phoneRegex.FindAllStringIndex(text, -1) {
			if isDigit(byteBefore(text, m[0])) || isDigit(byteAt(text, m[1])) {
				continue
			}
			add(KindPhone, text[m[0]:m[1]], text[m[0]:m[1]], page.Number)
		}
		for _, m := range idRegex.FindAllStringIndex(text, -1) {
			if isDigit(byteBefore(text, m[0])) || isIDTail(byteAt(text, m[1])) {
				continue
			}
			add(KindIDCard, text[m[0]:m[1]], strings.ToUpper(text[m[0]:m[1]]), page.Number)
		}
		for _, m := range emailRegex.FindAllStringIndex(text, -1) {
			add(KindEmail, text[m[0]:m[1]], strings.ToLower(text[m[0]:m[1]]), page.Number)
		}
	}
	return set
}

// Sorted returns the set in order of first appearance.
func (s Set) Sorted() []Entity {
	out := make([]Entity, 0, len(s))
	for _, e := range s {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out
}

func byteBefore(s string, i int) byte {
	if i <= 0 {
		return 0
	}
	return s[i-1]
}

func byteAt(s string, i int) byte {
	if i >= len(s) {
		return 0
	}
	return s[i]
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}

func isIDTail(b byte) bool {
	return isDigit(b) || b == 'X' || b == 'x'
}
