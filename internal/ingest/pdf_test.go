package ingest_test

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/abner20953/bidding-data/internal/ingest"
	"github.com/abner20953/bidding-data/internal/paragraph"
)

var wrappedPages = [][]string{
	{
		"Bid Response",
		"The supplier shall deliver all equipment within",
		"thirty days of contract signature.",
		"1. Delivery schedule follows the project plan.",
	},
	{
		"2. Installation and commissioning on site.",
	},
}

func TestExtractPDFKeepsVisualRows(t *testing.T) {
	path := writePDF(t, "bid.pdf", wrappedPages)

	doc, err := ingest.Extract(context.Background(), path, ingest.Options{})
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if len(doc.Pages) != 2 {
		t.Fatalf("expected 2 pages, got %+v", doc.Pages)
	}
	for i, want := range wrappedPages {
		page := doc.Pages[i]
		if page.Number != i+1 {
			t.Fatalf("page %d numbered %d", i+1, page.Number)
		}
		if page.Text != strings.Join(want, "\n") {
			t.Fatalf("page %d rows not preserved: %q", i+1, page.Text)
		}
	}
	if !doc.Meta.Paginated || doc.Meta.Format != "pdf" || doc.Meta.Pages != 2 {
		t.Fatalf("unexpected meta %+v", doc.Meta)
	}
	if doc.Meta.Author != "Zhang San" {
		t.Fatalf("author not read from Info: %q", doc.Meta.Author)
	}
}

func TestSegmentExtractedPDF(t *testing.T) {
	path := writePDF(t, "bid.pdf", wrappedPages)
	doc, err := ingest.Extract(context.Background(), path, ingest.Options{})
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}

	paras := paragraph.Segment(doc.Pages, paragraph.DefaultShortLine)
	want := []paragraph.Paragraph{
		{Index: 0, Page: 1, Text: "Bid Response"},
		{Index: 1, Page: 1, Text: "The supplier shall deliver all equipment within thirty days of contract signature."},
		{Index: 2, Page: 1, Text: "1. Delivery schedule follows the project plan."},
		{Index: 3, Page: 2, Text: "2. Installation and commissioning on site."},
	}
	if len(paras) != len(want) {
		t.Fatalf("expected %d paragraphs, got %d: %+v", len(want), len(paras), paras)
	}
	for i := range want {
		if paras[i] != want[i] {
			t.Fatalf("paragraph %d: want %+v, got %+v", i, want[i], paras[i])
		}
	}
}

func writePDF(t *testing.T, name string, pages [][]string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, buildPDF(t, pages), 0o644); err != nil {
		t.Fatalf("write pdf: %v", err)
	}
	return path
}

// buildPDF writes one Helvetica text object per page. Every line after the
// first is placed with a relative Td move, the way office converters lay
// out wrapped text.
func buildPDF(t *testing.T, pages [][]string) []byte {
	t.Helper()
	const fixed = 4 // catalog, page tree, font, info
	objects := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		"", // page tree, filled once the kids are known
		"<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>",
		"<< /Title (Technical Bid) /Author (Zhang San) /Producer (LibreOffice) >>",
	}
	var kids []string
	for i, lines := range pages {
		var content strings.Builder
		content.WriteString("BT\n/F1 12 Tf\n72 740 Td\n")
		for j, line := range lines {
			if j > 0 {
				content.WriteString("0 -14 Td\n")
			}
			fmt.Fprintf(&content, "(%s) Tj\n", line)
		}
		content.WriteString("ET")

		pageNum := fixed + 2*i + 1
		contentNum := pageNum + 1
		kids = append(kids, fmt.Sprintf("%d 0 R", pageNum))
		objects = append(objects,
			fmt.Sprintf("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << /Font << /F1 3 0 R >> >> /Contents %d 0 R >>", contentNum),
			fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", content.Len(), content.String()),
		)
	}
	objects[1] = fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), len(pages))

	var b bytes.Buffer
	b.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = b.Len()
		fmt.Fprintf(&b, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}
	xref := b.Len()
	fmt.Fprintf(&b, "xref\n0 %d\n0000000000 65535 f \n", len(objects)+1)
	for _, off := range offsets {
		fmt.Fprintf(&b, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&b, "trailer\n<< /Size %d /Root 1 0 R /Info 4 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xref)
	return b.Bytes()
}
