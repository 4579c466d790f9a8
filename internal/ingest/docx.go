package ingest

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

func extractDOCX(ctx context.Context, path string, opts Options) (*Document, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: read file: %w", ErrExtractionFailure, err)
	}
	meta := docxMeta(raw)

	conv, convErr := ConvertToPDF(ctx, path, opts.Converter, opts.ConverterTimeout)
	if convErr == nil {
		defer conv.Close()
		doc, pdfErr := extractPDF(conv.Path)
		if pdfErr == nil {
			meta.Pages = doc.Meta.Pages
			meta.Paginated = true
			meta.Converted = true
			if meta.Producer == "" {
				meta.Producer = doc.Meta.Producer
			}
			doc.Meta = meta
			return doc, nil
		}
		convErr = pdfErr
	}
	if !errors.Is(convErr, ErrConverterDisabled) {
		opts.log("RISK", "EXTRACT", "docx conversion failed, pagination lost", convErr.Error())
	}

	text, err := parseDOCX(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrExtractionFailure, err)
	}
	meta.Paginated = false
	return &Document{Pages: []Page{{Number: 1, Text: text}}, Meta: meta}, nil
}

func readZipEntry(zr *zip.Reader, name string) ([]byte, error) {
	for _, f := range zr.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", name, err)
		}
		defer rc.Close()
		data, err := io.ReadAll(rc)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", name, err)
		}
		return data, nil
	}
	return nil, fmt.Errorf("%s not found", name)
}

func parseDOCX(raw []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		return "", fmt.Errorf("open docx zip: %w", err)
	}
	xmlData, err := readZipEntry(zr, "word/document.xml")
	if err != nil {
		return "", err
	}
	if len(xmlData) == 0 {
		return "", fmt.Errorf("word/document.xml is empty")
	}

	decoder := xml.NewDecoder(bytes.NewReader(xmlData))
	var b strings.Builder
	inText := false
	for {
		tok, tokenErr := decoder.Token()
		if tokenErr == io.EOF {
			break
		}
		if tokenErr != nil {
			return "", fmt.Errorf("decode document.xml: %w", tokenErr)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "t":
				inText = true
			case "p", "br", "cr":
				if b.Len() > 0 {
					b.WriteString("\n")
				}
			case "tab":
				b.WriteString(" ")
			}
		case xml.EndElement:
			if t.Name.Local == "t" {
				inText = false
			}
		case xml.CharData:
			if inText {
				b.Write(t)
			}
		}
	}
	return b.String(), nil
}

type coreProps struct {
	Title          string `xml:"title"`
	Creator        string `xml:"creator"`
	LastModifiedBy string `xml:"lastModifiedBy"`
	Created        string `xml:"created"`
	Modified       string `xml:"modified"`
}

type appProps struct {
	Application string `xml:"Application"`
}

// docxMeta reads docProps. Missing or broken parts leave fields empty.
func docxMeta(raw []byte) Meta {
	meta := Meta{Format: "docx"}
	zr, err := zip.NewReader(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		return meta
	}
	if data, err := readZipEntry(zr, "docProps/core.xml"); err == nil {
		var core coreProps
		if xml.Unmarshal(data, &core) == nil {
			meta.Title = strings.TrimSpace(core.Title)
			meta.Author = strings.TrimSpace(core.Creator)
			meta.LastModifiedBy = strings.TrimSpace(core.LastModifiedBy)
			meta.Created = strings.TrimSpace(core.Created)
			meta.Modified = strings.TrimSpace(core.Modified)
		}
	}
	if data, err := readZipEntry(zr, "docProps/app.xml"); err == nil {
		var app appProps
		if xml.Unmarshal(data, &app) == nil {
			meta.Creator = strings.TrimSpace(app.Application)
		}
	}
	return meta
}
