package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/mention-monitor/mention-bot/internal/aggregator"
	"github.com/mention-monitor/mention-bot/internal/config"
	"github.com/mention-monitor/mention-bot/internal/logging"
	"github.com/mention-monitor/mention-bot/internal/models"
	"github.com/mention-monitor/mention-bot/internal/monitoring"
	"github.com/mention-monitor/mention-bot/internal/notifications"
	"github.com/mention-monitor/mention-bot/internal/report"
	"github.com/mention-monitor/mention-bot/internal/sentiment"
	"github.com/mention-monitor/mention-bot/internal/sources"
	"github.com/mention-monitor/mention-bot/internal/storage"
)

// Exit codes
const (
	exitOK            = 0
	exitExportFailed  = 1
	exitConfigError   = 2
	exitAllFailed     = 3
	exitNegativeTrend = 4
)

type cliOptions struct {
	hours     int
	noSave    bool
	envFile   string
	topN      int
	rankBy    string
	outputDir string
	watch     bool
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout))
}

func parseFlags(args []string) (*cliOptions, error) {
	opts := &cliOptions{}

	fs := flag.NewFlagSet("mention-bot", flag.ContinueOnError)
	fs.IntVar(&opts.hours, "hours", 0, "lookback window in hours (default CHECK_INTERVAL_HOURS, 24)")
	fs.BoolVar(&opts.noSave, "no-save", false, "skip writing JSON/CSV exports")
	fs.StringVar(&opts.envFile, "config", "", "path to a .env file to load")
	fs.IntVar(&opts.topN, "top", 0, "number of top mentions to show (default TOP_N, 5)")
	fs.StringVar(&opts.rankBy, "rank-by", "", "rank top mentions by engagement or comments")
	fs.StringVar(&opts.outputDir, "output-dir", "", "directory for export files (default OUTPUT_DIR)")
	fs.BoolVar(&opts.watch, "watch", false, "keep running and poll on CHECK_SCHEDULE")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 {
		return nil, fmt.Errorf("unexpected arguments: %v", fs.Args())
	}
	if opts.hours < 0 {
		return nil, fmt.Errorf("--hours must be positive, got %d", opts.hours)
	}
	if opts.rankBy != "" {
		if _, ok := aggregator.ParseRankKey(opts.rankBy); !ok {
			return nil, fmt.Errorf("--rank-by must be 'engagement' or 'comments', got %q", opts.rankBy)
		}
	}

	return opts, nil
}

// applyOverrides lets command line flags win over the environment
func applyOverrides(cfg *config.Config, opts *cliOptions) {
	if opts.hours > 0 {
		cfg.SetWindow(opts.hours)
	}
	if opts.topN > 0 {
		cfg.TopN = opts.topN
	}
	if opts.rankBy != "" {
		cfg.RankBy = aggregator.RankKey(opts.rankBy)
	}
	if opts.outputDir != "" {
		cfg.OutputDir = opts.outputDir
	}
}

func run(args []string, stdout io.Writer) int {
	opts, err := parseFlags(args)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		fmt.Fprintln(os.Stderr, err)
		return exitConfigError
	}

	// Load environment variables from .env file if it exists
	if opts.envFile != "" {
		if err := godotenv.Load(opts.envFile); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to load %s: %v\n", opts.envFile, err)
			return exitConfigError
		}
	} else if err := godotenv.Load(); err != nil {
		logrus.Debug("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		return exitConfigError
	}
	applyOverrides(cfg, opts)

	closeLog, err := logging.Setup(logging.Options{Level: cfg.LogLevel, Format: cfg.LogFormat, File: cfg.LogFile})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to set up logging: %v\n", err)
		return exitConfigError
	}
	defer closeLog()

	logrus.Infof("Starting %s mention bot", cfg.ProductName)

	service, err := buildService(cfg)
	if err != nil {
		logrus.Errorf("Failed to initialize: %v", err)
		return exitConfigError
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if opts.watch {
		if err := watch(ctx, cfg, service, !opts.noSave); err != nil {
			logrus.Errorf("Watch mode failed: %v", err)
			return exitConfigError
		}
		return exitOK
	}

	result, err := service.RunOnce(ctx, monitoring.RunOptions{Hours: cfg.CheckInterval, Save: !opts.noSave})
	if result != nil {
		fmt.Fprint(stdout, result.Rendered)
		for _, file := range result.Files {
			fmt.Fprintf(stdout, "Saved %s\n", file)
		}
	}

	return exitCode(cfg, result, err)
}

// exitCode maps a run outcome to the process exit status
func exitCode(cfg *config.Config, result *monitoring.RunResult, err error) int {
	switch {
	case errors.Is(err, models.ErrAllCollectorsFailed):
		if !cfg.TolerateCollectorFailure {
			logrus.Error("All collectors failed")
			return exitAllFailed
		}
		logrus.Warn("All collectors failed, tolerated by configuration")
	case err != nil:
		logrus.Errorf("Run failed: %v", err)
		return exitConfigError
	}

	if result.ExportErr != nil {
		return exitExportFailed
	}

	if cfg.FailOnNegative && result.NegativeDominates() {
		logrus.Warn("Negative mentions outnumber positive ones")
		return exitNegativeTrend
	}

	return exitOK
}

func buildService(cfg *config.Config) (*monitoring.Service, error) {
	store, err := buildStorage(cfg)
	if err != nil {
		return nil, err
	}

	srcs := []sources.Source{
		sources.NewRedditSource(cfg.RedditConfig()),
		sources.NewTwitterSource(cfg.TwitterConfig()),
		sources.NewBlueskySource(cfg.BlueskyConfig()),
	}

	var notifier notifications.NotificationInterface
	if n := notifications.NewService(cfg.NotificationConfig()); n.Enabled() {
		notifier = n
	}

	return monitoring.NewService(
		monitoring.Options{
			ProductName:     cfg.ProductName,
			Keywords:        cfg.Keywords,
			TopN:            cfg.TopN,
			RankBy:          cfg.RankBy,
			AlertOnNegative: cfg.AlertOnNegative,
			KeepExports:     cfg.KeepExports,
		},
		srcs,
		sentiment.NewLexiconScorer(),
		report.NewExporter(store),
		notifier,
		nil,
	), nil
}

// buildStorage writes exports to the output directory and, when an Azure
// account is configured, to blob storage as well
func buildStorage(cfg *config.Config) (storage.StorageInterface, error) {
	backends := []storage.StorageInterface{storage.NewFileStorage(cfg.OutputDir)}

	if cfg.StorageAccount != "" {
		azureStorage, err := storage.NewAzureStorage(cfg.StorageAccount, cfg.StorageContainer, cfg.StoragePrefix)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize storage: %w", err)
		}
		backends = append(backends, azureStorage)
	}

	return storage.NewMultiStorage(backends...), nil
}
