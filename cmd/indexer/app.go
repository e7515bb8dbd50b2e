package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"optionScope/internal/chain"
	"optionScope/internal/config"
	"optionScope/internal/fetcher"
	"optionScope/internal/model"
	"optionScope/internal/storage"
	"optionScope/internal/storage/memory"
	"optionScope/internal/storage/postgres"
)

// openStore connects the configured store. Dry runs use process memory.
func openStore(ctx context.Context, c config.Common, logger *zap.Logger) (storage.Store, func(), error) {
	if c.DryRun {
		logger.Warn("dry run: nothing is persisted")
		return memory.NewStore(), func() {}, nil
	}

	store, err := postgres.NewStore(ctx, c.PGDSN)
	if err != nil {
		return nil, nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := store.EnsureSchema(ctx); err != nil {
		store.Close()
		return nil, nil, fmt.Errorf("ensure schema: %w", err)
	}
	return store, store.Close, nil
}

func dialChain(ctx context.Context, c config.Common) (*chain.Client, error) {
	client, err := chain.NewClient(ctx, c.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("connect rpc: %w", err)
	}
	return client, nil
}

// seedPools stores the AMM's liquidity pools. When the AMM cannot be asked
// the configured call and put pools are used.
func seedPools(ctx context.Context, c config.Common, f *fetcher.Fetcher, store storage.Store, logger *zap.Logger) error {
	addresses, err := f.PoolAddresses(ctx)
	if err != nil {
		logger.Warn("pool lookup failed, using configured pools", zap.Error(err))
		addresses = []string{c.Addresses.CallPool, c.Addresses.PutPool}
	}

	pools := make([]model.Pool, 0, len(addresses))
	for _, address := range addresses {
		hex, err := chain.NormalizeHex(address)
		if err != nil {
			return fmt.Errorf("pool address %q: %w", address, err)
		}
		pools = append(pools, model.Pool{Address: hex})
	}
	if err := store.CreatePools(ctx, c.Network, pools); err != nil {
		return fmt.Errorf("store pools: %w", err)
	}
	logger.Info("pools ready", zap.Int("pools", len(pools)))
	return nil
}
