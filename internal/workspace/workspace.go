// Package workspace owns the on-disk layout: archived originals with their
// remark sidecars, the run database, scratch space for uploads and logs.
package workspace

import (
	"fmt"
	"os"
	"path/filepath"
)

const BaseDirName = "BidCheck"

type Layout struct {
	Root     string
	Archive  string
	Tmp      string
	Configs  string
	Logs     string
	Database string
}

func EnsureDefault() (*Layout, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("resolve home: %w", err)
	}
	return EnsureAt(filepath.Join(home, BaseDirName))
}

func EnsureAt(base string) (*Layout, error) {
	l := &Layout{
		Root:     base,
		Archive:  filepath.Join(base, "archive"),
		Tmp:      filepath.Join(base, "tmp"),
		Configs:  filepath.Join(base, "configs"),
		Logs:     filepath.Join(base, "logs"),
		Database: filepath.Join(base, "runs.db"),
	}

	for _, p := range []string{l.Archive, l.Tmp, l.Configs, l.Logs} {
		if err := os.MkdirAll(p, 0o755); err != nil {
			return nil, fmt.Errorf("mkdir %s: %w", p, err)
		}
	}
	return l, nil
}

// ConfigFile is the default config path inside the workspace.
func (l *Layout) ConfigFile() string {
	return filepath.Join(l.Configs, "bidcheck.toml")
}
