// Package ingest turns bid documents on disk into paged plain text plus
// provenance metadata.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported format")
	ErrFileNotFound      = errors.New("file not found")
	ErrExtractionFailure = errors.New("extraction failed")
)

// AllowedExtensions lists the formats Extract understands.
var AllowedExtensions = []string{".pdf", ".docx", ".doc"}

// Page is one page of extracted text. Number is 1-based.
type Page struct {
	Number int    `json:"page"`
	Text   string `json:"text"`
}

// Meta is the provenance block reported alongside every comparison.
type Meta struct {
	Format         string `json:"format"`
	Pages          int    `json:"pages"`
	Paginated      bool   `json:"paginated"`
	Converted      bool   `json:"converted,omitempty"`
	Title          string `json:"title,omitempty"`
	Author         string `json:"author,omitempty"`
	Creator        string `json:"creator,omitempty"`
	Producer       string `json:"producer,omitempty"`
	LastModifiedBy string `json:"last_modified_by,omitempty"`
	Created        string `json:"created,omitempty"`
	Modified       string `json:"modified,omitempty"`
}

type Document struct {
	Name  string `json:"name"`
	Pages []Page `json:"pages"`
	Meta  Meta   `json:"meta"`
}

type Logger interface {
	Log(level, stage, message, detail string)
}

// Options controls the host tools Extract may shell out to. The zero value
// disables DOCX conversion and legacy DOC support.
type Options struct {
	// Converter is the office binary used to turn DOCX into PDF, e.g. "soffice".
	Converter        string
	ConverterTimeout time.Duration
	// DocTools are tried in order for legacy .doc files.
	DocTools []string
	Cache    Cache
	Logger   Logger
}

func DefaultOptions() Options {
	return Options{
		Converter:        "soffice",
		ConverterTimeout: 60 * time.Second,
		DocTools:         []string{"antiword", "catdoc"},
	}
}

// Extract reads path and returns its pages. Failed DOCX conversion falls
// back to unpaginated text rather than failing.
func Extract(ctx context.Context, path string, opts Options) (*Document, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrFileNotFound, path)
		}
		return nil, fmt.Errorf("%w: stat %s: %w", ErrExtractionFailure, path, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", ErrFileNotFound, path)
	}

	ext := strings.ToLower(filepath.Ext(path))
	if !Supported(ext) {
		return nil, fmt.Errorf("%w: %q (allowed: %s)", ErrUnsupportedFormat, ext, strings.Join(AllowedExtensions, ", "))
	}

	if opts.Cache != nil {
		return cachedExtract(ctx, path, ext, opts)
	}
	return extract(ctx, path, ext, opts)
}

func extract(ctx context.Context, path, ext string, opts Options) (*Document, error) {
	var (
		doc *Document
		err error
	)
	switch ext {
	case ".pdf":
		doc, err = extractPDF(path)
	case ".docx":
		doc, err = extractDOCX(ctx, path, opts)
	case ".doc":
		doc, err = extractDOC(ctx, path, opts)
	}
	if err != nil {
		return nil, err
	}

	doc.Name = filepath.Base(path)
	for i := range doc.Pages {
		doc.Pages[i].Text = normalizeWhitespace(doc.Pages[i].Text)
	}
	if doc.Meta.Pages == 0 {
		doc.Meta.Pages = len(doc.Pages)
	}
	return doc, nil
}

// Supported reports whether ext (with dot, any case) is an allowed format.
func Supported(ext string) bool {
	ext = strings.ToLower(ext)
	for _, a := range AllowedExtensions {
		if a == ext {
			return true
		}
	}
	return false
}

func normalizeWhitespace(text string) string {
	text = norm.NFC.String(strings.ReplaceAll(text, "\r\n", "\n"))
	lines := strings.Split(text, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		line = strings.Join(strings.Fields(line), " ")
		out = append(out, line)
	}
	return strings.Join(out, "\n")
}

func (o Options) log(level, stage, message, detail string) {
	if o.Logger != nil {
		o.Logger.Log(level, stage, message, detail)
	}
}
