package ingest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Cache stores extracted documents keyed by content hash. Re-uploads of the
// same file skip extraction, which matters most for converted DOCX input.
type Cache interface {
	Get(ctx context.Context, key string) (*Document, bool, error)
	Put(ctx context.Context, key string, doc *Document) error
}

// ContentKey hashes the file bytes together with the extension.
func ContentKey(path, ext string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return ext[1:] + ":" + hex.EncodeToString(h.Sum(nil)), nil
}

func cachedExtract(ctx context.Context, path, ext string, opts Options) (*Document, error) {
	key, err := ContentKey(path, ext)
	if err != nil {
		return nil, fmt.Errorf("%w: hash %s: %w", ErrExtractionFailure, path, err)
	}

	doc, ok, err := opts.Cache.Get(ctx, key)
	if err != nil {
		opts.log("RISK", "CACHE", "cache read failed", err.Error())
	}
	if ok && doc != nil {
		opts.log("INFO", "CACHE", "extraction cache hit", key)
		hit := *doc
		hit.Name = filepath.Base(path)
		return &hit, nil
	}

	doc, err = extract(ctx, path, ext, opts)
	if err != nil {
		return nil, err
	}
	if degraded(doc, opts) {
		opts.log("INFO", "CACHE", "unpaginated fallback not cached", key)
		return doc, nil
	}
	if putErr := opts.Cache.Put(ctx, key, doc); putErr != nil {
		opts.log("RISK", "CACHE", "cache write failed", putErr.Error())
	}
	return doc, nil
}

// degraded reports a DOCX that should have been converted but fell back to
// the unpaginated reader. Its page numbers would outlive the outage.
func degraded(doc *Document, opts Options) bool {
	return doc.Meta.Format == "docx" && !doc.Meta.Paginated && opts.Converter != ""
}
