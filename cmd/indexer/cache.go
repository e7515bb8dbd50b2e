package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"optionScope/internal/cache"
	"optionScope/internal/config"
	"optionScope/internal/cronrunner"
	"optionScope/internal/fetcher"
	"optionScope/internal/metrics"
	"optionScope/internal/model"
	"optionScope/internal/publish"
	"optionScope/internal/storage"
)

type cacheService struct {
	cfg       config.CacheConfig
	cache     *cache.Cache
	fetcher   *fetcher.Fetcher
	publisher *publish.Publisher
	writer    *storage.JsonlWriter
	logger    *zap.Logger
	cleanup   []func()
}

func (s *cacheService) Close() {
	for i := len(s.cleanup) - 1; i >= 0; i-- {
		s.cleanup[i]()
	}
}

func newCacheService(ctx context.Context, cfg config.CacheConfig, logger *zap.Logger) (*cacheService, error) {
	s := &cacheService{cfg: cfg, logger: logger}

	chainClient, err := dialChain(ctx, cfg.Common)
	if err != nil {
		return nil, err
	}
	s.cleanup = append(s.cleanup, chainClient.Close)

	store, closeStore, err := openStore(ctx, cfg.Common, logger)
	if err != nil {
		s.Close()
		return nil, err
	}
	s.cleanup = append(s.cleanup, closeStore)

	s.fetcher, err = fetcher.New(fetcher.Config{
		Network:       cfg.Network,
		Addresses:     cfg.Addresses,
		DiscoverDelay: cfg.DiscoverDelay,
	}, chainClient, store, logger)
	if err != nil {
		s.Close()
		return nil, err
	}

	puller, err := newPuller(cfg.EventsConfig, store, logger)
	if err != nil {
		s.Close()
		return nil, err
	}

	s.cache, err = cache.New(cache.Config{
		Network:  cfg.Network,
		CallPool: cfg.Addresses.CallPool,
		PutPool:  cfg.Addresses.PutPool,
	}, store, s.fetcher, puller, logger)
	if err != nil {
		s.Close()
		return nil, err
	}

	if cfg.RedisURL != "" {
		kv, err := publish.NewRedisStoreFromURL(cfg.RedisURL)
		if err != nil {
			s.Close()
			return nil, err
		}
		s.cleanup = append(s.cleanup, func() { _ = kv.Close() })
		if err := kv.Ping(ctx); err != nil {
			s.Close()
			return nil, fmt.Errorf("ping redis: %w", err)
		}
		s.publisher = publish.NewPublisher(kv, cfg.Network, cfg.SnapshotTTL, logger)
	}
	if cfg.Out != "" {
		s.writer = storage.NewJsonlWriter(cfg.Out)
	}
	return s, nil
}

// refresh runs a full cache refresh and hands the snapshot on. A failed
// refresh step still publishes, since the cache keeps its last good state.
func (s *cacheService) refresh(ctx context.Context) error {
	refreshErr := s.cache.RefreshAll(ctx)
	if refreshErr != nil {
		s.logger.Warn("cache refresh incomplete", zap.Error(refreshErr))
	}

	snapshot := s.cache.Snapshot()
	if s.publisher != nil {
		if err := s.publisher.Publish(ctx, snapshot); err != nil {
			return err
		}
	}
	if s.writer != nil {
		if err := s.writer.WriteTradeHistory(snapshot.TradeHistory); err != nil {
			return err
		}
	}

	s.logger.Info("cache refreshed",
		zap.String("network", s.cfg.Network.String()),
		zap.Int("non_expired", len(snapshot.AllNonExpired)/model.RosterWidth),
		zap.Int("trade_history", len(snapshot.TradeHistory)),
	)
	return refreshErr
}

func runCache(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadCache(cfgFile, cmd.Flags())
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

	metrics.Serve(ctx, cfg.MetricsAddr, logger)

	svc, err := newCacheService(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer svc.Close()

	logger.Info("cache start",
		zap.String("network", cfg.Network.String()),
		zap.String("pg_dsn", redactDSN(cfg.PGDSN)),
		zap.String("schedule", cfg.Schedule),
		zap.String("discover_schedule", cfg.DiscoverSchedule),
		zap.Bool("redis", cfg.RedisURL != ""),
		zap.String("out", cfg.Out),
	)

	if err := svc.refresh(ctx); err != nil {
		logger.Warn("initial refresh failed", zap.Error(err))
	}

	runner := cronrunner.New(ctx, logger)
	if _, err := runner.Add("cache-refresh", cfg.Schedule, func(ctx context.Context) {
		if err := svc.refresh(ctx); err != nil {
			logger.Warn("scheduled refresh failed", zap.Error(err))
		}
	}); err != nil {
		return fmt.Errorf("schedule refresh: %w", err)
	}
	if cfg.DiscoverSchedule != "" {
		if _, err := runner.Add("roster-discovery", cfg.DiscoverSchedule, func(ctx context.Context) {
			found, err := svc.fetcher.DiscoverAll(ctx)
			if err != nil {
				logger.Warn("roster discovery failed", zap.Error(err))
			}
			logger.Info("roster discovery done", zap.Int("new_options", len(found)))
		}); err != nil {
			return fmt.Errorf("schedule discovery: %w", err)
		}
	}

	runner.Start()
	<-ctx.Done()
	runner.Stop()
	return nil
}

func runExport(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadCache(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}
	if cfg.Out == "" && cfg.RedisURL == "" {
		return fmt.Errorf("out or redis-url is required")
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc, err := newCacheService(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer svc.Close()

	return svc.refresh(ctx)
}
