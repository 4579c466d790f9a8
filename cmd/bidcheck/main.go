package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/abner20953/bidding-data/internal/cache"
	"github.com/abner20953/bidding-data/internal/config"
	"github.com/abner20953/bidding-data/internal/diag"
	"github.com/abner20953/bidding-data/internal/forensics"
	"github.com/abner20953/bidding-data/internal/ingest"
	"github.com/abner20953/bidding-data/internal/workspace"
)

type globalFlags struct {
	configPath string
	logLevel   string
	workspace  string
}

// app bundles what every subcommand needs.
type app struct {
	cfg      *config.Config
	log      *diag.Logger
	layout   *workspace.Layout
	detector *forensics.Detector
	closers  []func() error
}

func main() {
	if err := godotenv.Load(); err == nil {
		fmt.Fprintln(os.Stderr, "loaded .env")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}
	root := &cobra.Command{
		Use:           "bidcheck",
		Short:         "Detect signs of collusion between two bid documents",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&flags.configPath, "config", "c", "", "config file (.toml or .yaml)")
	root.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "log level: debug, info, warn, error")
	root.PersistentFlags().StringVar(&flags.workspace, "workspace", "", "workspace root (default ~/"+workspace.BaseDirName+")")

	root.AddCommand(
		newCompareCmd(flags),
		newBatchCmd(flags),
		newServeCmd(flags),
		newHistoryCmd(flags),
		newInitCmd(flags),
		newLogsCmd(flags),
	)
	return root
}

func setup(ctx context.Context, flags *globalFlags) (*app, error) {
	layout, cfg, err := loadLayout(flags)
	if err != nil {
		return nil, err
	}

	level := cfg.Logging.Level
	if flags.logLevel != "" {
		level = flags.logLevel
	}
	logOpts := diag.Options{Level: level, Format: cfg.Logging.Format}
	if cfg.Logging.Session {
		logOpts.SessionDir = layout.Logs
	}
	logger, err := diag.New(logOpts)
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, log: logger, layout: layout}
	a.closers = append(a.closers, logger.Close)

	extract := cfg.ExtractOptions()
	extract.Cache = a.openCache(ctx)
	a.detector = forensics.NewDetector(cfg.Detector(),
		forensics.WithLogger(logger),
		forensics.WithExtractOptions(extract),
	)
	logger.Log(diag.LevelInfo, "BOOT", "bidcheck ready", "workspace="+layout.Root)
	return a, nil
}

// loadLayout resolves the config file and workspace. A config file inside
// the workspace is used when --config is not given.
func loadLayout(flags *globalFlags) (*workspace.Layout, *config.Config, error) {
	path := flags.configPath
	root := flags.workspace
	if root == "" {
		root = config.Default().Storage.Workspace
	}

	var (
		layout *workspace.Layout
		err    error
	)
	if root != "" {
		layout, err = workspace.EnsureAt(root)
	} else {
		layout, err = workspace.EnsureDefault()
	}
	if err != nil {
		return nil, nil, fmt.Errorf("workspace initialization failed: %w", err)
	}

	if path == "" {
		if _, statErr := os.Stat(layout.ConfigFile()); statErr == nil {
			path = layout.ConfigFile()
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, nil, err
	}
	if cfg.Storage.Database != "" {
		layout.Database = cfg.Storage.Database
	}
	return layout, cfg, nil
}

func (a *app) openCache(ctx context.Context) ingest.Cache {
	s := a.cfg.Storage
	if s.RedisAddr == "" {
		return cache.NewMemory()
	}
	r, err := cache.NewRedis(ctx, cache.RedisOptions{
		Addr:     s.RedisAddr,
		Password: s.RedisPassword,
		DB:       s.RedisDB,
		TTL:      a.cfg.CacheTTL(),
	})
	if err != nil {
		a.log.Log(diag.LevelRisk, "CACHE", "redis unavailable, using in-process cache", err.Error())
		return cache.NewMemory()
	}
	a.closers = append(a.closers, r.Close)
	return r
}

func (a *app) archive(ctx context.Context) *workspace.Archive {
	s := a.cfg.Storage
	if s.S3Bucket == "" {
		return workspace.NewArchive(a.layout.Archive, nil)
	}
	mirror, err := workspace.NewS3Mirror(ctx, workspace.S3Options{
		Bucket:   s.S3Bucket,
		Prefix:   s.S3Prefix,
		Region:   s.S3Region,
		Endpoint: s.S3Endpoint,
	})
	if err != nil {
		a.log.Log(diag.LevelRisk, "ARCHIVE", "s3 mirror disabled", err.Error())
		return workspace.NewArchive(a.layout.Archive, nil)
	}
	return workspace.NewArchive(a.layout.Archive, mirror)
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		_ = a.closers[i]()
	}
}
