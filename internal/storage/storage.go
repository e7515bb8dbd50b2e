package storage

import (
	"context"

	"optionScope/internal/model"
	"optionScope/internal/network"
)

// BlockCommit is everything persisted for one block. It is written as a unit.
type BlockCommit struct {
	Block        model.Block
	PoolStates   []model.PoolState
	Volatilities []model.OptionVolatility
	Price        model.OraclePrice
}

// Store is the persistence layer, scoped by network.
type Store interface {
	LastBlock(ctx context.Context, net network.Network) (model.Block, bool, error)
	Pools(ctx context.Context, net network.Network) ([]model.Pool, error)
	Options(ctx context.Context, net network.Network) ([]model.Option, error)
	Events(ctx context.Context, net network.Network) ([]model.Event, error)

	CreatePools(ctx context.Context, net network.Network, pools []model.Pool) error
	CreateBatchOfOptions(ctx context.Context, net network.Network, options []model.Option) error
	CreateBatchOfEvents(ctx context.Context, net network.Network, events []model.Event) error
	CommitBlock(ctx context.Context, net network.Network, commit BlockCommit) error
}
