package postgres

import (
	"context"
	_ "embed"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"optionScope/internal/model"
	"optionScope/internal/network"
	"optionScope/internal/storage"
)

//go:embed schema.sql
var schema string

var _ storage.Store = (*Store)(nil)

// execer is satisfied by both the pool and a transaction.
type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

// Store provides Postgres persistence for chain state and events.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// EnsureSchema creates missing tables.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// LastBlock returns the highest persisted block.
func (s *Store) LastBlock(ctx context.Context, net network.Network) (model.Block, bool, error) {
	var number, ts int64
	row := s.pool.QueryRow(ctx, `
		SELECT block_number, timestamp FROM blocks
		WHERE network = $1
		ORDER BY block_number DESC
		LIMIT 1
	`, net.String())
	if err := row.Scan(&number, &ts); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Block{}, false, nil
		}
		return model.Block{}, false, err
	}
	return model.Block{Number: uint64(number), Timestamp: ts}, true, nil
}

func (s *Store) Pools(ctx context.Context, net network.Network) ([]model.Pool, error) {
	rows, err := s.pool.Query(ctx, `SELECT lp_address FROM pools WHERE network = $1 ORDER BY lp_address`, net.String())
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.Pool, error) {
		var p model.Pool
		err := row.Scan(&p.Address)
		return p, err
	})
}

func (s *Store) Options(ctx context.Context, net network.Network) ([]model.Option, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT option_address, option_side, option_type, maturity, strike_price,
			quote_token_address, base_token_address, lp_address
		FROM options
		WHERE network = $1
		ORDER BY maturity, option_address
	`, net.String())
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.Option, error) {
		var o model.Option
		err := row.Scan(&o.Address, &o.Side, &o.Type, &o.Maturity, &o.StrikePrice, &o.QuoteToken, &o.BaseToken, &o.PoolAddress)
		return o, err
	})
}

func (s *Store) Events(ctx context.Context, net network.Network) ([]model.Event, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT block_hash, block_number, transaction_hash, event_index, from_address, timestamp,
			action, caller, token_address, capital_transfered, tokens_minted
		FROM events
		WHERE network = $1
		ORDER BY timestamp, block_number, event_index
	`, net.String())
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.Event, error) {
		var e model.Event
		var blockNumber, eventIndex int64
		err := row.Scan(&e.BlockHash, &blockNumber, &e.TransactionHash, &eventIndex, &e.FromAddress, &e.Timestamp,
			&e.Action, &e.Caller, &e.TokenAddress, &e.CapitalTransfered, &e.TokensMinted)
		e.BlockNumber = uint64(blockNumber)
		e.EventIndex = uint64(eventIndex)
		return e, err
	})
}

func (s *Store) CreatePools(ctx context.Context, net network.Network, pools []model.Pool) error {
	if len(pools) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, p := range pools {
		batch.Queue(`INSERT INTO pools (network, lp_address) VALUES ($1, $2) ON CONFLICT DO NOTHING`, net.String(), p.Address)
	}
	return sendBatch(ctx, s.pool, batch)
}

func (s *Store) CreateBatchOfOptions(ctx context.Context, net network.Network, options []model.Option) error {
	if len(options) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, o := range options {
		batch.Queue(`
			INSERT INTO options (
				network, option_address, option_side, option_type, maturity, strike_price,
				quote_token_address, base_token_address, lp_address
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			ON CONFLICT (network, option_address) DO NOTHING
		`,
			net.String(),
			o.Address,
			o.Side,
			o.Type,
			o.Maturity,
			o.StrikePrice,
			o.QuoteToken,
			o.BaseToken,
			o.PoolAddress,
		)
	}
	return sendBatch(ctx, s.pool, batch)
}

func (s *Store) CreateBatchOfEvents(ctx context.Context, net network.Network, events []model.Event) error {
	if len(events) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, e := range events {
		batch.Queue(`
			INSERT INTO events (
				network, transaction_hash, event_index, block_hash, block_number, from_address,
				timestamp, action, caller, token_address, capital_transfered, tokens_minted
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
			ON CONFLICT (network, transaction_hash, event_index) DO NOTHING
		`,
			net.String(),
			e.TransactionHash,
			int64(e.EventIndex),
			e.BlockHash,
			int64(e.BlockNumber),
			e.FromAddress,
			e.Timestamp,
			e.Action,
			e.Caller,
			e.TokenAddress,
			e.CapitalTransfered,
			e.TokensMinted,
		)
	}
	return sendBatch(ctx, s.pool, batch)
}

// CommitBlock writes the block, its pool states, volatilities and oracle
// price in a single transaction.
func (s *Store) CommitBlock(ctx context.Context, net network.Network, commit storage.BlockCommit) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := createBlock(ctx, tx, net, commit.Block); err != nil {
		return fmt.Errorf("create block: %w", err)
	}
	if err := createBatchOfPoolStates(ctx, tx, net, commit.PoolStates); err != nil {
		return fmt.Errorf("create pool states: %w", err)
	}
	if err := createBatchOfVolatilities(ctx, tx, net, commit.Volatilities); err != nil {
		return fmt.Errorf("create volatilities: %w", err)
	}
	if err := createOraclePrice(ctx, tx, net, commit.Price); err != nil {
		return fmt.Errorf("create oracle price: %w", err)
	}
	return tx.Commit(ctx)
}

func (s *Store) CreateBlock(ctx context.Context, net network.Network, block model.Block) error {
	return createBlock(ctx, s.pool, net, block)
}

func (s *Store) CreateBatchOfPoolStates(ctx context.Context, net network.Network, states []model.PoolState) error {
	return createBatchOfPoolStates(ctx, s.pool, net, states)
}

func (s *Store) CreateBatchOfVolatilities(ctx context.Context, net network.Network, vols []model.OptionVolatility) error {
	return createBatchOfVolatilities(ctx, s.pool, net, vols)
}

func (s *Store) CreateOraclePrice(ctx context.Context, net network.Network, price model.OraclePrice) error {
	return createOraclePrice(ctx, s.pool, net, price)
}

func createBlock(ctx context.Context, db execer, net network.Network, block model.Block) error {
	_, err := db.Exec(ctx, `
		INSERT INTO blocks (network, block_number, timestamp) VALUES ($1, $2, $3)
		ON CONFLICT (network, block_number) DO UPDATE SET timestamp = EXCLUDED.timestamp
	`, net.String(), int64(block.Number), block.Timestamp)
	return err
}

func createBatchOfPoolStates(ctx context.Context, db execer, net network.Network, states []model.PoolState) error {
	if len(states) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, st := range states {
		batch.Queue(`
			INSERT INTO pool_state (
				network, lp_address, block_number, locked_cap, unlocked_cap, lp_balance, pool_position, lp_token_value
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			ON CONFLICT (network, lp_address, block_number) DO NOTHING
		`,
			net.String(),
			st.PoolAddress,
			int64(st.BlockNumber),
			st.LockedCap,
			st.UnlockedCap,
			st.LPBalance,
			st.PoolPosition,
			st.LPTokenValue,
		)
	}
	return sendBatch(ctx, db, batch)
}

func createBatchOfVolatilities(ctx context.Context, db execer, net network.Network, vols []model.OptionVolatility) error {
	if len(vols) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, v := range vols {
		batch.Queue(`
			INSERT INTO options_volatility (network, option_address, block_number, volatility)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (network, option_address, block_number) DO NOTHING
		`, net.String(), v.OptionAddress, int64(v.BlockNumber), v.Volatility)
	}
	return sendBatch(ctx, db, batch)
}

func createOraclePrice(ctx context.Context, db execer, net network.Network, price model.OraclePrice) error {
	_, err := db.Exec(ctx, `
		INSERT INTO oracle_prices (
			network, pair, source, block_number, price, decimals, last_updated_timestamp, num_sources_aggregated
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (network, pair, source, block_number) DO NOTHING
	`,
		net.String(),
		price.Pair,
		price.Source,
		int64(price.BlockNumber),
		price.Price,
		int32(price.Decimals),
		price.LastUpdated,
		int32(price.NumSources),
	)
	return err
}

func sendBatch(ctx context.Context, db execer, batch *pgx.Batch) error {
	br := db.SendBatch(ctx, batch)
	defer br.Close()

	for i := 0; i < batch.Len(); i++ {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}
