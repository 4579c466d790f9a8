package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/abner20953/bidding-data/internal/config"
	"github.com/abner20953/bidding-data/internal/db"
	"github.com/abner20953/bidding-data/internal/report"
)

func newHistoryCmd(flags *globalFlags) *cobra.Command {
	var (
		limit  int
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "history [run-id]",
		Short: "List stored runs, or show one",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			layout, _, err := loadLayout(flags)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			if len(args) == 1 {
				run, err := db.LoadRun(layout.Database, args[0])
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(out, run)
				}
				title := fmt.Sprintf("%s ⇄ %s  (%s)", run.FileA, run.FileB, run.CreatedAt.Local().Format("2006-01-02 15:04"))
				return report.Render(out, title, run.Result)
			}

			runs, err := db.ListRuns(layout.Database, limit)
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(out, runs)
			}
			for _, r := range runs {
				fmt.Fprintf(out, "%s  %s  %3d  %s ⇄ %s\n", r.ID, r.CreatedAt.Local().Format("2006-01-02 15:04"), r.MaxScore, r.FileA, r.FileB)
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of runs to list")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print as JSON")
	return cmd
}

func newInitCmd(flags *globalFlags) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create the workspace and a default config file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			// The target config may not exist yet, so it is not loaded here.
			layout, _, err := loadLayout(&globalFlags{workspace: flags.workspace})
			if err != nil {
				return err
			}
			path := flags.configPath
			if path == "" {
				path = layout.ConfigFile()
			}
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			}
			if err := config.Write(path, config.Default()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "BidCheck workspace ready at: %s\nConfig: %s\n", layout.Root, path)
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing config file")
	return cmd
}

func newLogsCmd(flags *globalFlags) *cobra.Command {
	var withDB bool
	logs := &cobra.Command{
		Use:   "logs",
		Short: "Manage workspace logs",
	}
	export := &cobra.Command{
		Use:   "export <dest.zip>",
		Short: "Zip the session logs for a support request",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			layout, _, err := loadLayout(flags)
			if err != nil {
				return err
			}
			if err := layout.ExportLogs(args[0], withDB); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Logs exported to %s\n", args[0])
			return nil
		},
	}
	export.Flags().BoolVar(&withDB, "with-db", false, "include the run history database")
	logs.AddCommand(export)
	return logs
}
