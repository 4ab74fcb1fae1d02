package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"festivalrisk/internal/config"
	"festivalrisk/internal/logging"
	"festivalrisk/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	logger := logging.New(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})
	logging.SetGlobalLogger(logger)

	if err := run(cfg, logger); err != nil {
		logger.Fatal(err, "server stopped")
	}
}

func run(cfg *config.Config, logger *logging.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := store.Open(ctx, cfg.Database.URL, 30*time.Second)
	if err != nil {
		return err
	}
	defer db.Close()

	dataStore := store.New(db)

	app, err := newApp(cfg, dataStore, logger)
	if err != nil {
		return err
	}

	if err := bootstrap(ctx, cfg.Bootstrap, app); err != nil {
		return err
	}

	if app.scheduler != nil {
		app.scheduler.Start()
		if cfg.Sync.OnStart {
			go func() {
				_, _ = app.scheduler.TriggerNow(ctx)
			}()
		}
	} else {
		logger.Warn("FEED_URL not set, program sync disabled")
	}

	server := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           app.handler,
		ReadTimeout:       10 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.WithContext(ctx).Info().Str("addr", server.Addr).Msg("http server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error(err, "http shutdown")
	}
	if app.scheduler != nil {
		if err := app.scheduler.Stop(shutdownCtx); err != nil {
			logger.Error(err, "scheduler shutdown")
		}
	}
	return nil
}
