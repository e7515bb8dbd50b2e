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
	"optionScope/internal/model"
	"optionScope/internal/storage"
)

func runDiscover(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadDiscover(cfgFile, cmd.Flags())
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

	chainClient, err := dialChain(ctx, cfg.Common)
	if err != nil {
		return err
	}
	defer chainClient.Close()

	store, closeStore, err := openStore(ctx, cfg.Common, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	f, err := fetcher.New(fetcher.Config{
		Network:       cfg.Network,
		Addresses:     cfg.Addresses,
		DiscoverDelay: cfg.DiscoverDelay,
	}, chainClient, store, logger)
	if err != nil {
		return err
	}
	if err := seedPools(ctx, cfg.Common, f, store, logger); err != nil {
		return err
	}

	logger.Info("discover start",
		zap.String("network", cfg.Network.String()),
		zap.Duration("discover_delay", cfg.DiscoverDelay),
		zap.Strings("pools", cfg.Pools),
	)

	if len(cfg.Options) > 0 {
		return resolveOptions(ctx, cfg, f, store, logger)
	}

	var found []model.Option
	if len(cfg.Pools) == 0 {
		found, err = f.DiscoverAll(ctx)
	} else {
		for _, pool := range cfg.Pools {
			var options []model.Option
			options, err = f.DiscoverRoster(ctx, pool)
			found = append(found, options...)
			if err != nil {
				break
			}
		}
	}
	logger.Info("discover done", zap.Int("new_options", len(found)))
	return err
}

// resolveOptions looks up options by token address, for options seen in
// events that discovery never produced.
func resolveOptions(ctx context.Context, cfg config.DiscoverConfig, f *fetcher.Fetcher, store storage.Store, logger *zap.Logger) error {
	resolved := make([]model.Option, 0, len(cfg.Options))
	for _, address := range cfg.Options {
		opt, err := f.OptionInfo(ctx, address)
		if err != nil {
			logger.Warn("option not resolved", zap.String("option", address), zap.Error(err))
			continue
		}
		resolved = append(resolved, opt)
	}
	if err := store.CreateBatchOfOptions(ctx, cfg.Network, resolved); err != nil {
		return fmt.Errorf("store options: %w", err)
	}
	logger.Info("options resolved", zap.Int("requested", len(cfg.Options)), zap.Int("resolved", len(resolved)))
	return nil
}
