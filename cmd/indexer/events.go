package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"optionScope/internal/config"
	"optionScope/internal/starkscan"
	"optionScope/internal/storage"
)

func runEvents(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadEvents(cfgFile, cmd.Flags())
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

	store, closeStore, err := openStore(ctx, cfg.Common, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	puller, err := newPuller(cfg, store, logger)
	if err != nil {
		return err
	}

	n, err := puller.Pull(ctx)
	logger.Info("events pulled", zap.String("network", cfg.Network.String()), zap.Int("new", n))
	return err
}

func newPuller(cfg config.EventsConfig, store storage.Store, logger *zap.Logger) (*starkscan.Puller, error) {
	baseURL := cfg.StarkscanURL
	if baseURL == "" {
		baseURL = starkscan.BaseURL(cfg.Network)
	}

	protocols := make([]starkscan.Protocol, 0, len(cfg.Protocols))
	for _, p := range cfg.Protocols {
		protocols = append(protocols, starkscan.Protocol{Name: p.Name, Address: p.Address})
	}

	logger.Info("starkscan",
		zap.String("url", baseURL),
		zap.Bool("api_key", cfg.StarkscanAPIKey != ""),
		zap.Int("protocols", len(protocols)),
		zap.Duration("protocol_delay", cfg.ProtocolDelay),
		zap.Int("max_pages", cfg.MaxPages),
		zap.String("events_state", cfg.CursorState),
	)
	return starkscan.NewPuller(starkscan.PullerConfig{
		Network:       cfg.Network,
		Protocols:     protocols,
		ProtocolDelay: cfg.ProtocolDelay,
		MaxPages:      cfg.MaxPages,
		CursorPath:    cfg.CursorState,
	}, starkscan.NewClient(baseURL, cfg.StarkscanAPIKey), store, logger)
}
