package fetcher

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"optionScope/internal/chain"
	"optionScope/internal/model"
)

// PoolAddresses lists the liquidity pools registered on the AMM.
func (f *Fetcher) PoolAddresses(ctx context.Context) ([]string, error) {
	values, err := f.call(ctx, entryLPTokenAddresses, chain.LatestBlock)
	if err != nil {
		return nil, err
	}
	if len(values) < 2 {
		return nil, fmt.Errorf("%w: no lp token addresses", chain.ErrMalformedResponse)
	}
	values, _ = chain.DropLengthPrefix(values)

	out := make([]string, 0, len(values))
	for i := range values {
		out = append(out, chain.Hex(&values[i]))
	}
	return out, nil
}

// DiscoverAll runs roster discovery for the call pool and then the put pool.
func (f *Fetcher) DiscoverAll(ctx context.Context) ([]model.Option, error) {
	var all []model.Option
	for _, pool := range []chain.Felt{f.callPool, f.putPool} {
		found, err := f.DiscoverRoster(ctx, chain.Hex(&pool))
		all = append(all, found...)
		if err != nil {
			return all, err
		}
	}
	return all, nil
}

// DiscoverRoster enumerates every option of a pool and resolves the token
// address of each one with a separate call, waiting the configured delay
// before every call. Options are persisted as they resolve. Options already
// in the registry are skipped.
func (f *Fetcher) DiscoverRoster(ctx context.Context, poolAddress string) ([]model.Option, error) {
	pool, err := chain.ParseFelt(poolAddress)
	if err != nil {
		return nil, fmt.Errorf("pool address: %w", err)
	}
	poolHex := chain.Hex(&pool)

	lock := f.poolLock(poolHex)
	lock.Lock()
	defer lock.Unlock()

	known, err := f.knownOptions(ctx)
	if err != nil {
		return nil, err
	}

	values, err := f.call(ctx, entryAllOptions, chain.LatestBlock, pool)
	if err != nil {
		return nil, fmt.Errorf("get all options: %w", err)
	}
	values, err = chain.DropLengthPrefix(values)
	if err != nil {
		return nil, err
	}

	chunks, rest := chain.SplitRecords(values, optionWidth)
	if len(rest) > 0 {
		f.logger.Warn("skip option chunk with wrong size",
			zap.String("pool", poolHex),
			zap.Int("size", len(rest)),
			zap.Int("expected", optionWidth),
		)
	}

	var discovered []model.Option
	for _, chunk := range chunks {
		opt, err := decodeOption(chunk, poolHex)
		if err != nil {
			f.logger.Warn("skip undecodable option", zap.String("pool", poolHex), zap.Error(err))
			continue
		}
		if _, ok := known[optionKey(opt)]; ok {
			continue
		}

		if err := f.sleep(ctx, f.cfg.DiscoverDelay); err != nil {
			return discovered, err
		}

		address, err := f.optionTokenAddress(ctx, pool, chunk)
		if err != nil {
			if ctx.Err() != nil {
				return discovered, ctx.Err()
			}
			f.logger.Warn("option address lookup failed",
				zap.String("pool", poolHex),
				zap.Int64("maturity", opt.Maturity),
				zap.String("strike", opt.StrikePrice),
				zap.Error(err),
			)
			continue
		}
		opt.Address = address

		if err := f.registry.CreateBatchOfOptions(ctx, f.cfg.Network, []model.Option{opt}); err != nil {
			return discovered, fmt.Errorf("store option %s: %w", address, err)
		}
		known[optionKey(opt)] = struct{}{}
		discovered = append(discovered, opt)

		f.logger.Info("option discovered",
			zap.String("option", address),
			zap.String("pool", poolHex),
			zap.Int64("maturity", opt.Maturity),
		)
	}

	return discovered, nil
}

func (f *Fetcher) optionTokenAddress(ctx context.Context, pool chain.Felt, chunk []chain.Felt) (string, error) {
	values, err := f.call(ctx, entryOptionTokenAddress, chain.LatestBlock, pool, chunk[0], chunk[1], chunk[2])
	if err != nil {
		return "", err
	}
	address, err := chain.Single(values)
	if err != nil {
		return "", err
	}
	return chain.Hex(&address), nil
}

// OptionInfo resolves an option by token address against the call pool and
// the put pool. The first pool that knows the option wins.
func (f *Fetcher) OptionInfo(ctx context.Context, optionAddress string) (model.Option, error) {
	option, err := chain.ParseFelt(optionAddress)
	if err != nil {
		return model.Option{}, fmt.Errorf("option address: %w", err)
	}

	pools := []chain.Felt{f.callPool, f.putPool}
	type lookup struct {
		option model.Option
		err    error
	}
	// Lookups never fail the fan-out: a pool that does not know the option
	// is expected.
	results, _ := fanOut(pools, func(pool *chain.Felt) (lookup, error) {
		values, err := f.call(ctx, entryOptionInfo, chain.LatestBlock, *pool, option)
		if err != nil {
			return lookup{err: err}, nil
		}
		if len(values) != optionWidth {
			return lookup{err: fmt.Errorf("%w: option info has %d fields", chain.ErrMalformedResponse, len(values))}, nil
		}
		opt, err := decodeOption(values, chain.Hex(pool))
		return lookup{option: opt, err: err}, nil
	})

	var errs []error
	for _, res := range results {
		if res.err == nil {
			res.option.Address = chain.Hex(&option)
			return res.option, nil
		}
		errs = append(errs, res.err)
	}
	return model.Option{}, fmt.Errorf("option %s: %w", chain.Hex(&option), errors.Join(append([]error{chain.ErrNotFound}, errs...)...))
}

func (f *Fetcher) knownOptions(ctx context.Context) (map[string]struct{}, error) {
	options, err := f.registry.Options(ctx, f.cfg.Network)
	if err != nil {
		return nil, fmt.Errorf("load options: %w", err)
	}
	known := make(map[string]struct{}, len(options))
	for _, opt := range options {
		known[optionKey(opt)] = struct{}{}
	}
	return known, nil
}

func (f *Fetcher) poolLock(pool string) *sync.Mutex {
	f.mu.Lock()
	defer f.mu.Unlock()
	lock, ok := f.discoverMu[pool]
	if !ok {
		lock = &sync.Mutex{}
		f.discoverMu[pool] = lock
	}
	return lock
}

// decodeOption reads an option struct: side, maturity, strike, quote, base, type.
func decodeOption(fields []chain.Felt, pool string) (model.Option, error) {
	if len(fields) != optionWidth {
		return model.Option{}, fmt.Errorf("%w: option has %d fields", chain.ErrMalformedResponse, len(fields))
	}
	side, err := chain.ParseSmallInt(&fields[0], 16)
	if err != nil {
		return model.Option{}, fmt.Errorf("side: %w", err)
	}
	maturity, err := chain.ParseSmallInt(&fields[1], 64)
	if err != nil {
		return model.Option{}, fmt.Errorf("maturity: %w", err)
	}
	optionType, err := chain.ParseSmallInt(&fields[5], 16)
	if err != nil {
		return model.Option{}, fmt.Errorf("type: %w", err)
	}
	return model.Option{
		Side:        int16(side),
		Type:        int16(optionType),
		Maturity:    maturity,
		StrikePrice: chain.Hex(&fields[2]),
		QuoteToken:  chain.Hex(&fields[3]),
		BaseToken:   chain.Hex(&fields[4]),
		PoolAddress: pool,
	}, nil
}

func optionKey(opt model.Option) string {
	return fmt.Sprintf("%s:%d:%d:%s", opt.PoolAddress, opt.Side, opt.Maturity, opt.StrikePrice)
}
