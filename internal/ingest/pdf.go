package ingest

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"
)

func extractPDF(path string) (doc *Document, err error) {
	// The reader panics on some malformed xref tables.
	defer func() {
		if r := recover(); r != nil {
			doc, err = nil, fmt.Errorf("%w: pdf reader panic: %v", ErrExtractionFailure, r)
		}
	}()

	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: open pdf: %w", ErrExtractionFailure, err)
	}
	defer f.Close()

	total := r.NumPage()
	pages := make([]Page, 0, total)
	for i := 1; i <= total; i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			continue
		}
		content, pageErr := pageText(p)
		if pageErr != nil {
			continue
		}
		pages = append(pages, Page{Number: i, Text: content})
	}

	meta := pdfMeta(r)
	meta.Pages = total
	meta.Paginated = true
	return &Document{Pages: pages, Meta: meta}, nil
}

// rowTolerance is how far apart, in points, two glyph baselines may sit and
// still belong to the same visual row.
const rowTolerance = 2.0

// pageText rebuilds visual rows from glyph positions so paragraph
// segmentation can see the wraps. Rows run top to bottom, glyphs left to
// right. GetPlainText is the fallback for pages without positioned text.
func pageText(p pdf.Page) (string, error) {
	rows := groupRows(p.Content().Text)
	if len(rows) == 0 {
		return p.GetPlainText(nil)
	}
	var b strings.Builder
	for _, row := range rows {
		for _, t := range row.texts {
			b.WriteString(t.S)
		}
		b.WriteByte('\n')
	}
	return b.String(), nil
}

type textRow struct {
	yMin, yMax float64
	texts      []pdf.Text
}

func groupRows(texts []pdf.Text) []textRow {
	var rows []textRow
	for _, t := range texts {
		if t.S == "" || t.S == "\n" {
			continue
		}
		found := false
		for i := range rows {
			if t.Y >= rows[i].yMin-rowTolerance && t.Y <= rows[i].yMax+rowTolerance {
				rows[i].texts = append(rows[i].texts, t)
				rows[i].yMin = math.Min(rows[i].yMin, t.Y)
				rows[i].yMax = math.Max(rows[i].yMax, t.Y)
				found = true
				break
			}
		}
		if !found {
			rows = append(rows, textRow{yMin: t.Y, yMax: t.Y, texts: []pdf.Text{t}})
		}
	}
	// PDF space grows upwards, so the top row has the largest Y.
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].yMax > rows[j].yMax })
	for _, row := range rows {
		sort.SliceStable(row.texts, func(i, j int) bool { return row.texts[i].X < row.texts[j].X })
	}
	return rows
}

func pdfMeta(r *pdf.Reader) Meta {
	meta := Meta{Format: "pdf"}
	info := r.Trailer().Key("Info")
	if info.IsNull() {
		return meta
	}
	meta.Title = strings.TrimSpace(info.Key("Title").Text())
	meta.Author = strings.TrimSpace(info.Key("Author").Text())
	meta.Creator = strings.TrimSpace(info.Key("Creator").Text())
	meta.Producer = strings.TrimSpace(info.Key("Producer").Text())
	meta.Created = strings.TrimSpace(info.Key("CreationDate").Text())
	meta.Modified = strings.TrimSpace(info.Key("ModDate").Text())
	return meta
}
