package ingest

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// extractDOC shells out to the first available legacy Word text tool.
// Form feeds in the output, when present, mark page breaks.
func extractDOC(ctx context.Context, path string, opts Options) (*Document, error) {
	var tried []string
	for _, tool := range opts.DocTools {
		bin, err := exec.LookPath(tool)
		if err != nil {
			tried = append(tried, tool)
			continue
		}
		cmd := exec.CommandContext(ctx, bin, docToolArgs(tool, path)...)
		out, err := cmd.Output()
		if err != nil {
			opts.log("RISK", "EXTRACT", "doc extractor failed", fmt.Sprintf("%s: %v", tool, err))
			tried = append(tried, tool)
			continue
		}
		return docFromText(string(out)), nil
	}
	return nil, fmt.Errorf("%w: no .doc text extractor available (tried: %s)", ErrExtractionFailure, strings.Join(tried, ", "))
}

func docToolArgs(tool, path string) []string {
	switch tool {
	case "antiword":
		return []string{"-w", "0", "-m", "UTF-8.txt", path}
	case "catdoc":
		return []string{"-w", "-d", "utf-8", path}
	default:
		return []string{path}
	}
}

func docFromText(text string) *Document {
	chunks := strings.Split(text, "\f")
	pages := make([]Page, 0, len(chunks))
	for i, chunk := range chunks {
		if strings.TrimSpace(chunk) == "" && i == len(chunks)-1 && i > 0 {
			break
		}
		pages = append(pages, Page{Number: i + 1, Text: chunk})
	}
	return &Document{
		Pages: pages,
		Meta: Meta{
			Format:    "doc",
			Paginated: len(chunks) > 1,
		},
	}
}
