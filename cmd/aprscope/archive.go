package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"aprScope/internal/api"
	"aprScope/internal/archive"
	"aprScope/internal/config"
	"aprScope/internal/logging"
	"aprScope/internal/observability"
	"aprScope/internal/storage"
	"aprScope/internal/storage/postgres"
)

func runArchive(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadArchive(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if cfg.Out == "" && cfg.PGDSN == "" {
		return fmt.Errorf("at least one of --out or --pg-dsn is required")
	}

	since, err := config.ParseTimestamp(cfg.Since)
	if err != nil {
		return fmt.Errorf("parse since: %w", err)
	}

	ctx, stop := commandContext()
	defer stop()

	var sinks []storage.Storage
	if cfg.Out != "" {
		sinks = append(sinks, storage.NewJsonlStorage(cfg.Out))
	}

	var store *postgres.Store
	if cfg.PGDSN != "" {
		store, err = postgres.NewStore(ctx, cfg.PGDSN)
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		defer store.Close()

		if err := store.EnsureSchema(ctx); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
		sinks = append(sinks, store)
	}

	var stateStore archive.StateStore
	switch {
	case cfg.StateFile != "":
		stateStore = &archive.FileStateStore{Path: cfg.StateFile}
	case store != nil:
		stateStore = &archive.DBStateStore{Store: store}
	}

	addresses := make([]string, 0, len(cfg.Pairs))
	for _, p := range pairOptions(cfg.Pairs) {
		addresses = append(addresses, p.Address)
	}

	metrics := observability.NewMetrics("")
	client := api.NewClient(cfg.BackendURL,
		api.WithTimeout(cfg.Timeout),
		api.WithLogger(logger),
		api.WithObserver(metrics),
	)

	runner := archive.NewRunner(archive.RunConfig{
		Pairs:        addresses,
		Windows:      cfg.Windows,
		Since:        since,
		BatchSize:    cfg.BatchSize,
		MaxRetries:   cfg.MaxRetries,
		RetryBackoff: cfg.RetryBackoff,
	}, client, sinks, stateStore, metrics, logger)

	logger.Info("archive start",
		zap.String("backend", cfg.BackendURL),
		zap.Int("pairs", len(addresses)),
		zap.Int("windows", len(cfg.Windows)),
		zap.Int("sinks", len(sinks)),
		zap.Time("since", since),
		zap.Bool("state_enabled", stateStore != nil),
	)

	res, err := runner.Run(ctx)
	logger.Info("archive done",
		zap.Int("fetched", res.Fetched),
		zap.Int("stored", res.Stored),
		zap.Int("skipped", res.Skipped),
	)

	if cfg.MetricsFile != "" {
		if werr := metrics.WriteTextfile(cfg.MetricsFile); werr != nil {
			logger.Warn("write metrics file failed", zap.String("path", cfg.MetricsFile), zap.Error(werr))
		}
	}
	return err
}
