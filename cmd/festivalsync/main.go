// Command festivalsync runs one program sync cycle and exits. It uses the
// same fetch and reconciliation path as the server's scheduler.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"festivalrisk/internal/config"
	"festivalrisk/internal/feed"
	"festivalrisk/internal/logging"
	"festivalrisk/internal/reconcile"
	"festivalrisk/internal/store"
)

type flagConfig struct {
	configPath string
	feedURL    string
	timeout    time.Duration
	jsonReport bool
}

func main() {
	flags := parseFlags(os.Args[1:])

	if flags.configPath != "" {
		_ = os.Setenv("FESTIVAL_CONFIG", flags.configPath)
	}
	if flags.feedURL != "" {
		_ = os.Setenv("FEED_URL", flags.feedURL)
	}

	cfg, err := config.LoadSync()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	logger := logging.New(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: os.Stderr,
	})
	logging.SetGlobalLogger(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, flags.timeout)
	defer cancel()

	rep, err := run(ctx, cfg, logger)
	if flags.jsonReport {
		_ = writeReport(os.Stdout, rep)
	}
	if err != nil {
		logger.Error(err, "sync failed")
		os.Exit(1)
	}
}

func parseFlags(args []string) flagConfig {
	var f flagConfig
	fs := flag.NewFlagSet("festivalsync", flag.ExitOnError)
	fs.StringVar(&f.configPath, "config", "", "YAML file overriding the feed, sync and festival settings")
	fs.StringVar(&f.feedURL, "feed", "", "program feed URL (overrides FEED_URL)")
	fs.DurationVar(&f.timeout, "timeout", 5*time.Minute, "upper bound for the whole run")
	fs.BoolVar(&f.jsonReport, "json", false, "print the cycle report as JSON on stdout")
	_ = fs.Parse(args)
	return f
}

func run(ctx context.Context, cfg *config.Config, logger *logging.Logger) (reconcile.Report, error) {
	db, err := store.Open(ctx, cfg.Database.URL, 30*time.Second)
	if err != nil {
		return reconcile.Report{}, err
	}
	defer db.Close()

	engine := reconcile.NewEngine(store.New(db), reconcile.Options{
		SentinelStage: cfg.Festival.SentinelStage,
		Location:      cfg.Festival.Location,
		Logger:        logger.Component("reconcile"),
	})
	syncer := reconcile.NewSyncer(feed.NewClient(cfg.Feed.URL, cfg.Feed.Timeout), engine, nil, logger.Component("sync"))
	return syncer.RunOnce(ctx)
}

func writeReport(w io.Writer, rep reconcile.Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(rep)
}
