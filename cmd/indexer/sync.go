package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"optionScope/internal/config"
	"optionScope/internal/fetcher"
	"optionScope/internal/indexer"
	"optionScope/internal/metrics"
	"optionScope/internal/oracle"
)

func runSync(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadSync(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	syncer, cleanup, err := buildSyncer(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	logger.Info("sync start",
		zap.String("network", cfg.Network.String()),
		zap.String("rpc", cfg.RPCURL),
		zap.String("pg_dsn", redactDSN(cfg.PGDSN)),
		zap.Uint64("from", cfg.FromBlock),
		zap.Uint64("step", cfg.Step),
		zap.Duration("retry_backoff", cfg.RetryBackoff),
		zap.Duration("interval", cfg.Interval),
		zap.Bool("once", cfg.Once),
	)

	if cfg.Once {
		if err := syncer.Sync(ctx); err != nil && !indexer.IsCancelled(err) {
			return err
		}
		return nil
	}
	return syncer.Run(ctx)
}

func runGapfill(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadSync(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	blocks, err := indexer.ParseBlockList(cfg.Blocks)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	syncer, cleanup, err := buildSyncer(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	logger.Info("gapfill start",
		zap.String("network", cfg.Network.String()),
		zap.Int("blocks", len(blocks)),
		zap.String("gap_state", cfg.GapState),
	)

	if err := syncer.FillGaps(ctx, blocks); err != nil {
		if indexer.IsCancelled(err) {
			logger.Info("gapfill interrupted, progress kept", zap.String("gap_state", cfg.GapState))
			return nil
		}
		return err
	}
	return nil
}

func buildSyncer(ctx context.Context, cfg config.SyncConfig, logger *zap.Logger) (*indexer.Syncer, func(), error) {
	metrics.Serve(ctx, cfg.MetricsAddr, logger)

	chainClient, err := dialChain(ctx, cfg.Common)
	if err != nil {
		return nil, nil, err
	}
	store, closeStore, err := openStore(ctx, cfg.Common, logger)
	if err != nil {
		chainClient.Close()
		return nil, nil, err
	}
	cleanup := func() {
		closeStore()
		chainClient.Close()
	}

	f, err := fetcher.New(fetcher.Config{
		Network:   cfg.Network,
		Addresses: cfg.Addresses,
	}, chainClient, store, logger)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	if err := seedPools(ctx, cfg.Common, f, store, logger); err != nil {
		cleanup()
		return nil, nil, err
	}

	pragma, err := oracle.NewPragma(cfg.Addresses.Oracle, cfg.OraclePair, chainClient, logger)
	if err != nil {
		cleanup()
		return nil, nil, err
	}

	syncer, err := indexer.NewSyncer(indexer.SyncConfig{
		Network:      cfg.Network,
		FromBlock:    cfg.FromBlock,
		Step:         cfg.Step,
		RetryBackoff: cfg.RetryBackoff,
		Interval:     cfg.Interval,
		GapStatePath: cfg.GapState,
	}, chainClient, f, pragma, store, logger)
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("build syncer: %w", err)
	}
	return syncer, cleanup, nil
}
