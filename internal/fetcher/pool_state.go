package fetcher

import (
	"context"
	"fmt"

	"optionScope/internal/chain"
	"optionScope/internal/model"
)

var poolStateEntrypoints = []string{
	entryPoolLockedCapital,
	entryUnlockedCapital,
	entryLPoolBalance,
	entryValueOfPoolPosition,
}

// FetchPoolStates reads locked capital, unlocked capital, balance and
// position value of every known pool at block. All calls run concurrently
// and all of them must succeed.
func (f *Fetcher) FetchPoolStates(ctx context.Context, block model.Block) ([]model.PoolState, error) {
	pools, err := f.registry.Pools(ctx, f.cfg.Network)
	if err != nil {
		return nil, fmt.Errorf("load pools: %w", err)
	}

	at := chain.AtBlock(block.Number)
	return fanOut(pools, func(pool *model.Pool) (model.PoolState, error) {
		address, err := chain.ParseFelt(pool.Address)
		if err != nil {
			return model.PoolState{}, fmt.Errorf("pool address: %w", err)
		}

		values, err := fanOut(poolStateEntrypoints, func(entrypoint *string) (string, error) {
			result, err := f.call(ctx, *entrypoint, at, address)
			if err != nil {
				return "", err
			}
			v, err := chain.Single(result)
			if err != nil {
				return "", fmt.Errorf("%s: %w", *entrypoint, err)
			}
			return chain.Hex(&v), nil
		})
		if err != nil {
			return model.PoolState{}, err
		}

		return model.PoolState{
			PoolAddress:  chain.Hex(&address),
			LockedCap:    values[0],
			UnlockedCap:  values[1],
			LPBalance:    values[2],
			PoolPosition: values[3],
			LPTokenValue: model.ZeroFelt,
			BlockNumber:  block.Number,
		}, nil
	})
}
