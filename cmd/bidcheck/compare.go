package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abner20953/bidding-data/internal/db"
	"github.com/abner20953/bidding-data/internal/diag"
	"github.com/abner20953/bidding-data/internal/forensics"
	"github.com/abner20953/bidding-data/internal/ingest"
	"github.com/abner20953/bidding-data/internal/pipeline"
	"github.com/abner20953/bidding-data/internal/report"
)

func newCompareCmd(flags *globalFlags) *cobra.Command {
	var (
		tender  string
		asJSON  bool
		save    bool
		archive bool
	)
	cmd := &cobra.Command{
		Use:   "compare <bid-a> <bid-b>",
		Short: "Compare two bids, optionally against their tender",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := setup(ctx, flags)
			if err != nil {
				return err
			}
			defer a.Close()

			res, err := a.detector.Compare(ctx, args[0], args[1], tender)
			if err != nil {
				return err
			}

			if save {
				id, err := db.SaveRun(a.layout.Database, db.Run{
					FileA:  filepath.Base(args[0]),
					FileB:  filepath.Base(args[1]),
					Tender: baseOrEmpty(tender),
					Result: res,
				})
				if err != nil {
					return err
				}
				a.log.Log(diag.LevelInfo, "HISTORY", "run saved", id)
			}
			if archive {
				arc := a.archive(ctx)
				for _, p := range []string{args[0], args[1], tender} {
					if p == "" {
						continue
					}
					if _, err := arc.Store(ctx, p, filepath.Base(p)); err != nil {
						a.log.Log(diag.LevelRisk, "ARCHIVE", "archive failed", err.Error())
					}
				}
			}

			out := cmd.OutOrStdout()
			if asJSON {
				return writeJSON(out, res)
			}
			title := filepath.Base(args[0]) + " ⇄ " + filepath.Base(args[1])
			return report.Render(out, title, res)
		},
	}
	cmd.Flags().StringVarP(&tender, "tender", "t", "", "tender document to exclude template text")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the raw result as JSON")
	cmd.Flags().BoolVar(&save, "save", false, "store the run in the history database")
	cmd.Flags().BoolVar(&archive, "archive", false, "copy the inputs into the workspace archive")
	return cmd
}

func newBatchCmd(flags *globalFlags) *cobra.Command {
	var (
		tender  string
		workers int
		asJSON  bool
		save    bool
	)
	cmd := &cobra.Command{
		Use:   "batch <dir|file>...",
		Short: "Compare every pair of bids in a directory or file list",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := setup(ctx, flags)
			if err != nil {
				return err
			}
			defer a.Close()

			paths, err := collectBids(args)
			if err != nil {
				return err
			}
			jobs := pipeline.Pairs(paths, tender)
			if len(jobs) == 0 {
				return fmt.Errorf("need at least two bids, found %d", len(paths))
			}
			if workers <= 0 {
				workers = a.cfg.Batch.Workers
			}
			a.log.Log(diag.LevelInfo, "BATCH", "batch started", fmt.Sprintf("pairs=%d workers=%d", len(jobs), workers))

			outcomes := pipeline.CompareAll(ctx, jobs, workers, func(ctx context.Context, job pipeline.Job) (*forensics.Result, error) {
				return a.detector.Compare(ctx, job.A, job.B, job.Tender)
			})

			if save {
				for _, o := range outcomes {
					if o.Err != nil {
						continue
					}
					if _, err := db.SaveRun(a.layout.Database, db.Run{
						FileA:  filepath.Base(o.Job.A),
						FileB:  filepath.Base(o.Job.B),
						Tender: baseOrEmpty(o.Job.Tender),
						Result: o.Result,
					}); err != nil {
						return err
					}
				}
			}

			out := cmd.OutOrStdout()
			if asJSON {
				type row struct {
					pipeline.Outcome
					Error string `json:"error,omitempty"`
				}
				rows := make([]row, len(outcomes))
				for i, o := range outcomes {
					rows[i] = row{Outcome: o}
					if o.Err != nil {
						rows[i].Error = o.Err.Error()
					}
				}
				if err := writeJSON(out, rows); err != nil {
					return err
				}
			} else if err := report.RenderBatch(out, outcomes); err != nil {
				return err
			}

			if n := pipeline.Failed(outcomes); n > 0 {
				return fmt.Errorf("%d of %d comparisons failed", n, len(outcomes))
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&tender, "tender", "t", "", "tender document shared by every pair")
	cmd.Flags().IntVarP(&workers, "workers", "w", 0, "parallel comparisons (default from config)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print results as JSON")
	cmd.Flags().BoolVar(&save, "save", false, "store every successful run in the history database")
	return cmd
}

// collectBids expands directories into their supported documents.
func collectBids(args []string) ([]string, error) {
	var paths []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			paths = append(paths, arg)
			continue
		}
		entries, err := os.ReadDir(arg)
		if err != nil {
			return nil, err
		}
		for _, e := range entries {
			if e.IsDir() || strings.HasPrefix(e.Name(), "~$") {
				continue
			}
			if ingest.Supported(filepath.Ext(e.Name())) {
				paths = append(paths, filepath.Join(arg, e.Name()))
			}
		}
	}
	sort.Strings(paths)
	return paths, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

func baseOrEmpty(p string) string {
	if p == "" {
		return ""
	}
	return filepath.Base(p)
}
