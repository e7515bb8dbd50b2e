package fetcher

import (
	"context"
	"fmt"

	"optionScope/internal/chain"
	"optionScope/internal/model"
)

// FetchOptionVolatilities reads the pool volatility of every option live at
// block. Expired options get zero volatility without a call. One failed call
// fails the whole fetch.
func (f *Fetcher) FetchOptionVolatilities(ctx context.Context, block model.Block) ([]model.OptionVolatility, error) {
	options, err := f.registry.Options(ctx, f.cfg.Network)
	if err != nil {
		return nil, fmt.Errorf("load options: %w", err)
	}

	at := chain.AtBlock(block.Number)
	return fanOut(options, func(opt *model.Option) (model.OptionVolatility, error) {
		vol := model.OptionVolatility{
			OptionAddress: opt.Address,
			Volatility:    model.ZeroFelt,
			BlockNumber:   block.Number,
		}
		if opt.ExpiredAt(block.Timestamp) {
			return vol, nil
		}

		pool, err := chain.ParseFelt(opt.PoolAddress)
		if err != nil {
			return vol, fmt.Errorf("option %s pool: %w", opt.Address, err)
		}
		strike, err := chain.ParseFelt(opt.StrikePrice)
		if err != nil {
			return vol, fmt.Errorf("option %s strike: %w", opt.Address, err)
		}
		maturity := chain.FeltFromUint64(uint64(opt.Maturity))

		result, err := f.call(ctx, entryPoolVolatility, at, pool, maturity, strike)
		if err != nil {
			return vol, err
		}
		v, err := chain.Single(result)
		if err != nil {
			return vol, fmt.Errorf("option %s: %w", opt.Address, err)
		}
		vol.Volatility = chain.Hex(&v)
		return vol, nil
	})
}
