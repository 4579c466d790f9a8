package ingest

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

var (
	ErrConverterDisabled    = errors.New("document converter disabled")
	ErrConverterUnavailable = errors.New("document converter not installed")
)

// Converted is a PDF rendition of an office document living in a private
// temp directory. Close removes it.
type Converted struct {
	Path string
	dir  string
}

func (c *Converted) Close() error {
	if c == nil || c.dir == "" {
		return nil
	}
	return os.RemoveAll(c.dir)
}

// ConvertToPDF runs a headless office converter over src. On error nothing
// is left on disk and the caller chooses its own fallback.
func ConvertToPDF(ctx context.Context, src, binary string, timeout time.Duration) (*Converted, error) {
	if binary == "" {
		return nil, ErrConverterDisabled
	}
	bin, err := exec.LookPath(binary)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrConverterUnavailable, binary)
	}

	dir, err := os.MkdirTemp("", "bidcheck-convert-*")
	if err != nil {
		return nil, fmt.Errorf("create convert dir: %w", err)
	}
	conv := &Converted{dir: dir}

	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	// A private profile lets concurrent conversions run side by side.
	profile := "-env:UserInstallation=file://" + filepath.ToSlash(filepath.Join(dir, "profile"))
	cmd := exec.CommandContext(ctx, bin, profile, "--headless", "--convert-to", "pdf", "--outdir", dir, src)
	output, err := cmd.CombinedOutput()
	if err != nil {
		conv.Close()
		if ctx.Err() != nil {
			return nil, fmt.Errorf("convert %s: %w", filepath.Base(src), ctx.Err())
		}
		return nil, fmt.Errorf("convert %s: %w: %s", filepath.Base(src), err, strings.TrimSpace(string(output)))
	}

	base := strings.TrimSuffix(filepath.Base(src), filepath.Ext(src))
	conv.Path = filepath.Join(dir, base+".pdf")
	if _, err := os.Stat(conv.Path); err != nil {
		conv.Close()
		return nil, fmt.Errorf("convert %s: no pdf produced: %s", filepath.Base(src), strings.TrimSpace(string(output)))
	}
	return conv, nil
}
