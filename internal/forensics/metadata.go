package forensics

import (
	"strings"

	"github.com/abner20953/bidding-data/internal/ingest"
)

// Default account names office suites stamp on fresh installs.
var genericAuthors = map[string]struct{}{
	"administrator": {},
	"admin":         {},
	"user":          {},
	"owner":         {},
	"微软用户":          {},
	"微软中国":          {},
	"microsoft":     {},
	"lenovo":        {},
	"dell":          {},
	"hp":            {},
}

func buildMetadata(a, b, tender *ingest.Document) Metadata {
	md := Metadata{FileA: a.Meta, FileB: b.Meta, Matches: []MetaMatch{}}
	if tender != nil {
		t := tender.Meta
		md.Tender = &t
	}

	for _, f := range []struct {
		name string
		a, b string
	}{
		{"author", a.Meta.Author, b.Meta.Author},
		{"last_modified_by", a.Meta.LastModifiedBy, b.Meta.LastModifiedBy},
	} {
		va, vb := strings.TrimSpace(f.a), strings.TrimSpace(f.b)
		if va == "" || !strings.EqualFold(va, vb) {
			continue
		}
		if _, generic := genericAuthors[strings.ToLower(va)]; generic {
			continue
		}
		md.Matches = append(md.Matches, MetaMatch{Field: f.name, Value: va})
	}
	return md
}
