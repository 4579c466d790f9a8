package workspace

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

const remarkSuffix = ".remark.txt"

var (
	ErrNotArchived   = errors.New("document not archived")
	ErrMirrorFailure = errors.New("archive mirror failed")
)

// Mirror receives a copy of every archived original.
type Mirror interface {
	Upload(ctx context.Context, key, path string) error
}

type Entry struct {
	Name   string `json:"name"`
	Path   string `json:"path"`
	SHA256 string `json:"sha256"`
	Size   int64  `json:"size"`
}

// Archive keeps uploaded originals by their sanitized file name. Storing a
// name twice replaces the earlier copy; its remark is kept.
type Archive struct {
	dir    string
	mirror Mirror
}

func NewArchive(dir string, mirror Mirror) *Archive {
	return &Archive{dir: dir, mirror: mirror}
}

func (a *Archive) Dir() string { return a.dir }

// Store copies tmpPath into the archive under originalName. When a mirror
// is configured and the upload fails, the local entry is still returned
// together with an ErrMirrorFailure error.
func (a *Archive) Store(ctx context.Context, tmpPath, originalName string) (Entry, error) {
	name := sanitizeName(originalName)
	if name == "" {
		return Entry{}, fmt.Errorf("archive: empty file name")
	}
	if err := os.MkdirAll(a.dir, 0o755); err != nil {
		return Entry{}, fmt.Errorf("create archive dir: %w", err)
	}

	src, err := os.Open(tmpPath)
	if err != nil {
		return Entry{}, fmt.Errorf("open upload: %w", err)
	}
	defer src.Close()

	dest := filepath.Join(a.dir, name)
	part := dest + ".part"
	out, err := os.Create(part)
	if err != nil {
		return Entry{}, fmt.Errorf("create archive file: %w", err)
	}
	h := sha256.New()
	size, err := io.Copy(io.MultiWriter(out, h), src)
	if closeErr := out.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(part)
		return Entry{}, fmt.Errorf("copy into archive: %w", err)
	}
	if err := os.Rename(part, dest); err != nil {
		_ = os.Remove(part)
		return Entry{}, fmt.Errorf("finalize archive file: %w", err)
	}

	entry := Entry{Name: name, Path: dest, SHA256: hex.EncodeToString(h.Sum(nil)), Size: size}
	if a.mirror != nil {
		if err := a.mirror.Upload(ctx, name, dest); err != nil {
			return entry, fmt.Errorf("%w: %s: %w", ErrMirrorFailure, name, err)
		}
	}
	return entry, nil
}

// Resolve returns the archived path of name.
func (a *Archive) Resolve(name string) (string, error) {
	clean := sanitizeName(name)
	if clean == "" || clean != strings.TrimSpace(name) {
		return "", fmt.Errorf("%w: %s", ErrNotArchived, name)
	}
	p := filepath.Join(a.dir, clean)
	if _, err := os.Stat(p); err != nil {
		return "", fmt.Errorf("%w: %s", ErrNotArchived, name)
	}
	return p, nil
}

// SetRemark replaces the remark sidecar of an archived document. An empty
// text removes it.
func (a *Archive) SetRemark(name, text string) error {
	p, err := a.Resolve(name)
	if err != nil {
		return err
	}
	if strings.TrimSpace(text) == "" {
		if err := os.Remove(p + remarkSuffix); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("remove remark: %w", err)
		}
		return nil
	}
	if err := os.WriteFile(p+remarkSuffix, []byte(text), 0o644); err != nil {
		return fmt.Errorf("write remark: %w", err)
	}
	return nil
}

// Remark returns the remark of an archived document, or "" when none is set.
func (a *Archive) Remark(name string) (string, error) {
	p, err := a.Resolve(name)
	if err != nil {
		return "", err
	}
	raw, err := os.ReadFile(p + remarkSuffix)
	if os.IsNotExist(err) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read remark: %w", err)
	}
	return string(raw), nil
}

func sanitizeName(name string) string {
	base := filepath.Base(strings.TrimSpace(strings.ReplaceAll(name, "\\", "/")))
	if base == "." || base == string(filepath.Separator) || base == ".." {
		return ""
	}
	base = strings.ReplaceAll(base, "..", "")
	if strings.HasSuffix(base, remarkSuffix) || strings.HasSuffix(base, ".part") {
		return ""
	}
	return base
}
