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

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"aprScope/internal/api"
	"aprScope/internal/dashboard"
	"aprScope/internal/health"
	"aprScope/internal/logging"
	"aprScope/internal/observability"
	"aprScope/internal/web"
)

const shutdownTimeout = 10 * time.Second

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		return err
	}
	defer logger.Sync()

	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	metrics := observability.NewMetrics("")
	client := api.NewClient(cfg.BackendURL,
		api.WithTimeout(cfg.Timeout),
		api.WithLogger(logger),
		api.WithObserver(metrics),
	)

	monitor := health.NewMonitor(client,
		health.WithInterval(cfg.HealthInterval),
		health.WithLogger(logger),
		health.WithReporter(metrics),
	)
	monitor.Start(ctx)
	defer monitor.Stop()

	view, err := dashboard.NewView(ctx, client,
		dashboard.WithPairs(pairOptions(cfg.Pairs)),
		dashboard.WithWindow(cfg.Window),
		dashboard.WithLocation(loc),
		dashboard.WithLogger(logger),
	)
	if err != nil {
		return fmt.Errorf("create dashboard: %w", err)
	}
	defer view.Close()

	srv := &http.Server{
		Addr: cfg.Listen,
		Handler: web.NewServer(web.Options{
			View:     view,
			Health:   monitor,
			Metrics:  metrics.Handler(),
			Location: loc,
			Logger:   logger,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("dashboard start",
		zap.String("listen", cfg.Listen),
		zap.String("backend", cfg.BackendURL),
		zap.Int("pairs", len(view.Pairs())),
		zap.Int("window", int(cfg.Window)),
		zap.Duration("health_interval", cfg.HealthInterval),
	)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
	}

	logger.Info("dashboard shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
