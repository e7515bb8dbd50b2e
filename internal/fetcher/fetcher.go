package fetcher

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sourcegraph/conc/iter"
	"go.uber.org/zap"

	"optionScope/internal/chain"
	"optionScope/internal/clock"
	"optionScope/internal/model"
	"optionScope/internal/network"
)

// AMM entrypoints.
const (
	entryNonExpiredOptions   = "get_all_non_expired_options_with_premia"
	entryAllOptions          = "get_all_options"
	entryOptionTokenAddress  = "get_option_token_address"
	entryOptionInfo          = "get_option_info_from_addresses"
	entryLPTokenAddresses    = "get_all_lptoken_addresses"
	entryPoolLockedCapital   = "get_pool_locked_capital"
	entryUnlockedCapital     = "get_unlocked_capital"
	entryLPoolBalance        = "get_lpool_balance"
	entryValueOfPoolPosition = "get_value_of_pool_position"
	entryPoolVolatility      = "get_pool_volatility_auto"
)

// optionWidth is the number of fields of an option struct returned by the AMM.
const optionWidth = 6

// Caller issues read-only contract calls.
type Caller interface {
	Call(ctx context.Context, call chain.FunctionCall, block chain.BlockID) ([]chain.Felt, error)
}

// Registry is the part of the store the fetcher reads from and writes to.
type Registry interface {
	Pools(ctx context.Context, net network.Network) ([]model.Pool, error)
	Options(ctx context.Context, net network.Network) ([]model.Option, error)
	CreateBatchOfOptions(ctx context.Context, net network.Network, options []model.Option) error
}

// SleepFunc waits for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Config controls fetcher behavior.
type Config struct {
	Network       network.Network
	Addresses     network.Addresses
	DiscoverDelay time.Duration
}

// Fetcher composes contract calls into per-block domain fetches.
type Fetcher struct {
	cfg      Config
	amm      chain.Felt
	callPool chain.Felt
	putPool  chain.Felt
	caller   Caller
	registry Registry
	logger   *zap.Logger
	sleep    SleepFunc

	mu         sync.Mutex
	discoverMu map[string]*sync.Mutex
}

// New builds a Fetcher for one network.
func New(cfg Config, caller Caller, registry Registry, logger *zap.Logger) (*Fetcher, error) {
	if caller == nil {
		return nil, fmt.Errorf("chain caller is nil")
	}
	if registry == nil {
		return nil, fmt.Errorf("registry is nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	amm, err := chain.ParseFelt(cfg.Addresses.AMM)
	if err != nil {
		return nil, fmt.Errorf("amm address: %w", err)
	}
	callPool, err := chain.ParseFelt(cfg.Addresses.CallPool)
	if err != nil {
		return nil, fmt.Errorf("call pool address: %w", err)
	}
	putPool, err := chain.ParseFelt(cfg.Addresses.PutPool)
	if err != nil {
		return nil, fmt.Errorf("put pool address: %w", err)
	}

	return &Fetcher{
		cfg:        cfg,
		amm:        amm,
		callPool:   callPool,
		putPool:    putPool,
		caller:     caller,
		registry:   registry,
		logger:     logger,
		sleep:      clock.System.Sleep,
		discoverMu: make(map[string]*sync.Mutex),
	}, nil
}

// WithSleep replaces the delay function used between discovery calls.
func (f *Fetcher) WithSleep(sleep SleepFunc) *Fetcher {
	f.sleep = sleep
	return f
}

func (f *Fetcher) call(ctx context.Context, entrypoint string, block chain.BlockID, calldata ...chain.Felt) ([]chain.Felt, error) {
	return f.caller.Call(ctx, chain.FunctionCall{
		ContractAddress: f.amm,
		Entrypoint:      entrypoint,
		Calldata:        calldata,
	}, block)
}

// fanOut runs fn for every item concurrently and waits for all of them.
// Any failure discards every result.
func fanOut[T, R any](items []T, fn func(*T) (R, error)) ([]R, error) {
	if len(items) == 0 {
		return nil, nil
	}
	mapper := iter.Mapper[T, R]{MaxGoroutines: len(items)}
	results, err := mapper.MapErr(items, fn)
	if err != nil {
		return nil, err
	}
	return results, nil
}
