package workspace

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// ExportLogs zips the logs directory, and the run database when withDB is
// set, into dest for attaching to a support request.
func (l *Layout) ExportLogs(dest string, withDB bool) error {
	if strings.TrimSpace(dest) == "" {
		return fmt.Errorf("destination path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("create destination dir: %w", err)
	}
	out, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("create zip: %w", err)
	}
	defer out.Close()

	zw := zip.NewWriter(out)
	err = filepath.Walk(l.Logs, func(path string, info os.FileInfo, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if info.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(l.Logs, path)
		if err != nil {
			return err
		}
		return addFile(zw, "logs/"+filepath.ToSlash(rel), path)
	})
	if err != nil {
		_ = zw.Close()
		return fmt.Errorf("collect log files: %w", err)
	}
	if withDB {
		if _, statErr := os.Stat(l.Database); statErr == nil {
			if err := addFile(zw, filepath.Base(l.Database), l.Database); err != nil {
				_ = zw.Close()
				return fmt.Errorf("add database: %w", err)
			}
		}
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("finalize zip: %w", err)
	}
	return nil
}

func addFile(zw *zip.Writer, name, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	w, err := zw.Create(name)
	if err != nil {
		return err
	}
	_, err = io.Copy(w, f)
	return err
}
