package oracle

import (
	"context"
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"optionScope/internal/chain"
	"optionScope/internal/model"
)

const (
	// SourcePragma labels prices read from the Pragma oracle.
	SourcePragma = "Pragma"
	// DefaultPair is the pair tracked at every synced block.
	DefaultPair = "ETH/USD"

	entrySpotMedian = "get_spot_median"
	spotMedianWidth = 4
)

// Caller issues read-only contract calls.
type Caller interface {
	Call(ctx context.Context, call chain.FunctionCall, block chain.BlockID) ([]chain.Felt, error)
}

// Pragma reads spot median prices from the Pragma oracle contract.
type Pragma struct {
	address chain.Felt
	pair    string
	caller  Caller
	logger  *zap.Logger
}

// NewPragma builds an oracle client for the contract at address tracking pair.
func NewPragma(address, pair string, caller Caller, logger *zap.Logger) (*Pragma, error) {
	if caller == nil {
		return nil, fmt.Errorf("chain caller is nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if pair == "" {
		pair = DefaultPair
	}
	if _, err := chain.ShortString(pair); err != nil {
		return nil, fmt.Errorf("pair %q: %w", pair, err)
	}
	addr, err := chain.ParseFelt(address)
	if err != nil {
		return nil, fmt.Errorf("oracle address: %w", err)
	}
	return &Pragma{address: addr, pair: pair, caller: caller, logger: logger}, nil
}

// Pair returns the tracked pair.
func (p *Pragma) Pair() string {
	return p.pair
}

// FetchPrice returns the spot median of the tracked pair at block.
func (p *Pragma) FetchPrice(ctx context.Context, block model.Block) (model.OraclePrice, error) {
	return p.SpotMedian(ctx, p.pair, block)
}

// SpotMedian returns the spot median of pair as of block.
func (p *Pragma) SpotMedian(ctx context.Context, pair string, block model.Block) (model.OraclePrice, error) {
	pairID, err := chain.ShortString(pair)
	if err != nil {
		return model.OraclePrice{}, fmt.Errorf("pair %q: %w", pair, err)
	}

	values, err := p.caller.Call(ctx, chain.FunctionCall{
		ContractAddress: p.address,
		Entrypoint:      entrySpotMedian,
		Calldata:        []chain.Felt{pairID},
	}, chain.AtBlock(block.Number))
	if err != nil {
		return model.OraclePrice{}, err
	}
	if len(values) < spotMedianWidth {
		return model.OraclePrice{}, fmt.Errorf("%w: spot median has %d fields", chain.ErrMalformedResponse, len(values))
	}

	decimals, err := chain.ParseSmallInt(&values[1], 32)
	if err != nil {
		return model.OraclePrice{}, fmt.Errorf("decimals: %w", err)
	}
	lastUpdated, err := chain.ParseSmallInt(&values[2], 64)
	if err != nil {
		return model.OraclePrice{}, fmt.Errorf("last updated: %w", err)
	}
	sources, err := chain.ParseSmallInt(&values[3], 32)
	if err != nil {
		return model.OraclePrice{}, fmt.Errorf("num sources: %w", err)
	}

	price := model.OraclePrice{
		Pair:        pair,
		Source:      SourcePragma,
		Price:       chain.Hex(&values[0]),
		Decimals:    uint32(decimals),
		LastUpdated: lastUpdated,
		NumSources:  uint32(sources),
		BlockNumber: block.Number,
	}

	p.logger.Debug("oracle price",
		zap.String("pair", pair),
		zap.Uint64("block", block.Number),
		zap.String("price", HumanPrice(&values[0], price.Decimals).String()),
	)
	return price, nil
}

// HumanPrice scales a raw oracle price by its decimals.
func HumanPrice(raw *chain.Felt, decimals uint32) decimal.Decimal {
	return decimal.NewFromBigInt(raw.BigInt(new(big.Int)), -int32(decimals))
}
