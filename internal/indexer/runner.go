package indexer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sourcegraph/conc/pool"
	"go.uber.org/zap"

	"optionScope/internal/chain"
	"optionScope/internal/metrics"
	"optionScope/internal/model"
	"optionScope/internal/network"
	"optionScope/internal/storage"
)

const (
	modeRange = "range"
	modeGap   = "gap"
)

// Chain is the block lookup side of the node.
type Chain interface {
	BlockHeader(ctx context.Context, block chain.BlockID) (model.Block, error)
	BlockNumber(ctx context.Context) (uint64, error)
}

// StateFetcher reads the per-block protocol state.
type StateFetcher interface {
	FetchPoolStates(ctx context.Context, block model.Block) ([]model.PoolState, error)
	FetchOptionVolatilities(ctx context.Context, block model.Block) ([]model.OptionVolatility, error)
}

// PriceSource reads the oracle price at a block.
type PriceSource interface {
	FetchPrice(ctx context.Context, block model.Block) (model.OraclePrice, error)
}

// Store is the persistence the syncer needs.
type Store interface {
	LastBlock(ctx context.Context, net network.Network) (model.Block, bool, error)
	CommitBlock(ctx context.Context, net network.Network, commit storage.BlockCommit) error
}

// SyncConfig holds runtime settings for the syncer.
type SyncConfig struct {
	Network      network.Network
	FromBlock    uint64
	Step         uint64
	RetryBackoff time.Duration
	Interval     time.Duration
	GapStatePath string
}

// Syncer walks blocks in order and commits the protocol state of each one.
type Syncer struct {
	cfg     SyncConfig
	chain   Chain
	fetcher StateFetcher
	prices  PriceSource
	store   Store
	clock   Clock
	logger  *zap.Logger
	gaps    *GapStore

	mu    sync.Mutex
	block uint64
	state State
}

// NewSyncer builds a Syncer with its dependencies.
func NewSyncer(cfg SyncConfig, chainClient Chain, fetcher StateFetcher, prices PriceSource, store Store, logger *zap.Logger) (*Syncer, error) {
	if chainClient == nil {
		return nil, fmt.Errorf("chain client is nil")
	}
	if fetcher == nil {
		return nil, fmt.Errorf("state fetcher is nil")
	}
	if prices == nil {
		return nil, fmt.Errorf("price source is nil")
	}
	if store == nil {
		return nil, fmt.Errorf("store is nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Step == 0 {
		cfg.Step = 1
	}
	if cfg.RetryBackoff <= 0 {
		cfg.RetryBackoff = 10 * time.Second
	}
	return &Syncer{
		cfg:     cfg,
		chain:   chainClient,
		fetcher: fetcher,
		prices:  prices,
		store:   store,
		clock:   SystemClock,
		logger:  logger.With(zap.String("network", cfg.Network.String())),
		gaps:    NewGapStore(cfg.GapStatePath, SystemClock),
	}, nil
}

// WithClock replaces the clock used for backoff and timing.
func (s *Syncer) WithClock(clock Clock) *Syncer {
	s.clock = clock
	s.gaps.clock = clock
	return s
}

// Status returns the block being worked on and its state.
func (s *Syncer) Status() (uint64, State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.block, s.state
}

// Run repeats sync passes every Interval until ctx is done.
func (s *Syncer) Run(ctx context.Context) error {
	for {
		if err := s.Sync(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			s.logger.Warn("sync pass failed", zap.Error(err))
		}
		if s.cfg.Interval <= 0 {
			return nil
		}
		if err := s.clock.Sleep(ctx, s.cfg.Interval); err != nil {
			return nil
		}
	}
}

// Sync walks from the block after the last persisted one to the chain head.
// A pass where start >= head has nothing to do.
func (s *Syncer) Sync(ctx context.Context) error {
	start := s.cfg.FromBlock
	last, ok, err := s.store.LastBlock(ctx, s.cfg.Network)
	if err != nil {
		return fmt.Errorf("last block: %w", err)
	}
	if ok {
		start = last.Number + 1
	}

	head, err := s.chain.BlockNumber(ctx)
	if err != nil {
		return fmt.Errorf("chain head: %w", err)
	}
	metrics.ChainHead.WithLabelValues(s.cfg.Network.String()).Set(float64(head))

	if start >= head {
		s.logger.Info("nothing to sync", zap.Uint64("start", start), zap.Uint64("head", head))
		return nil
	}
	return s.SyncRange(ctx, start, head, s.cfg.Step)
}

// SyncRange commits every step-th block from start to finish inclusive.
// A failing block is retried until it commits; later blocks wait for it.
func (s *Syncer) SyncRange(ctx context.Context, start, finish, step uint64) error {
	r, err := NewBlockRange(start, finish, step)
	if err != nil {
		return err
	}

	s.logger.Info("sync range", zap.Uint64("from", r.From), zap.Uint64("to", r.To), zap.Uint64("step", r.Step))
	began := s.clock.Now()
	for n, ok := r.From, true; ok; n, ok = r.Next(n) {
		if err := s.syncBlock(ctx, n, modeRange); err != nil {
			return err
		}
	}
	s.logger.Info("range synced", zap.Uint64("blocks", r.Count()), zap.Duration("elapsed", s.clock.Now().Sub(began)))
	return nil
}

// FillGaps commits each listed block, independent of the sync cursor.
// Blocks left over from an interrupted run are picked up as well. Only
// blocks at or below the last persisted block are filled.
func (s *Syncer) FillGaps(ctx context.Context, blocks []uint64) error {
	remaining, err := s.pendingGaps(blocks)
	if err != nil {
		return err
	}
	remaining, err = s.behindCursor(ctx, remaining)
	if err != nil {
		return err
	}
	if len(remaining) == 0 {
		s.logger.Info("no gaps to fill")
		return s.gaps.Clear()
	}
	if err := s.gaps.Save(remaining); err != nil {
		return err
	}

	s.logger.Info("fill gaps", zap.Int("blocks", len(remaining)))
	for len(remaining) > 0 {
		if err := s.syncBlock(ctx, remaining[0], modeGap); err != nil {
			return err
		}
		remaining = remaining[1:]
		if err := s.gaps.Save(remaining); err != nil {
			return err
		}
	}
	return s.gaps.Clear()
}

func (s *Syncer) pendingGaps(blocks []uint64) ([]uint64, error) {
	st, ok, err := s.gaps.Load()
	if err != nil {
		return nil, err
	}
	if !ok || len(st.Remaining) == 0 {
		return dedupSorted(blocks), nil
	}
	s.logger.Info("resume gap fill", zap.Int("remaining", len(st.Remaining)), zap.String("updated_at", st.UpdatedAt))
	return dedupSorted(append(append([]uint64{}, st.Remaining...), blocks...)), nil
}

// behindCursor drops blocks the range sync has not reached yet. Committing
// one of them would move the cursor past every block in between.
func (s *Syncer) behindCursor(ctx context.Context, blocks []uint64) ([]uint64, error) {
	last, ok, err := s.store.LastBlock(ctx, s.cfg.Network)
	if err != nil {
		return nil, fmt.Errorf("last block: %w", err)
	}

	kept := make([]uint64, 0, len(blocks))
	var ahead []uint64
	for _, n := range blocks {
		if ok && n <= last.Number {
			kept = append(kept, n)
			continue
		}
		ahead = append(ahead, n)
	}
	if len(ahead) > 0 {
		s.logger.Warn("skip gap blocks ahead of sync cursor",
			zap.Uint64s("blocks", ahead),
			zap.Bool("synced", ok),
			zap.Uint64("last_block", last.Number),
		)
	}
	return kept, nil
}

func (s *Syncer) syncBlock(ctx context.Context, n uint64, mode string) error {
	net := s.cfg.Network.String()
	began := s.clock.Now()

	err := untilCommitted(ctx, s.clock, s.cfg.RetryBackoff,
		func(ctx context.Context) error {
			return s.commitBlock(ctx, n)
		},
		func(err error, failures int) {
			metrics.BlockRetries.WithLabelValues(net, mode).Inc()
			s.logger.Warn("block failed, retrying",
				zap.Uint64("block", n),
				zap.Int("failures", failures),
				zap.Bool("transient", chain.IsTransient(err)),
				zap.Duration("backoff", s.cfg.RetryBackoff),
				zap.Error(err),
			)
		},
		func(state State) {
			s.mu.Lock()
			s.block, s.state = n, state
			s.mu.Unlock()
		},
	)
	if err != nil {
		return err
	}

	elapsed := s.clock.Now().Sub(began)
	metrics.BlocksCommitted.WithLabelValues(net, mode).Inc()
	metrics.BlockDuration.WithLabelValues(net).Observe(elapsed.Seconds())
	if mode == modeRange {
		metrics.CurrentBlock.WithLabelValues(net).Set(float64(n))
	}
	s.logger.Info("block committed", zap.Uint64("block", n), zap.String("mode", mode), zap.Duration("elapsed", elapsed))
	return nil
}

// commitBlock fetches everything for block n and persists it as one unit.
// Nothing is written unless every fetch succeeded.
func (s *Syncer) commitBlock(ctx context.Context, n uint64) error {
	block, err := s.chain.BlockHeader(ctx, chain.AtBlock(n))
	if err != nil {
		return fmt.Errorf("block header: %w", err)
	}

	var (
		states []model.PoolState
		vols   []model.OptionVolatility
		price  model.OraclePrice
	)
	p := pool.New().WithErrors()
	p.Go(func() error {
		var err error
		states, err = s.fetcher.FetchPoolStates(ctx, block)
		if err != nil {
			return fmt.Errorf("pool states: %w", err)
		}
		return nil
	})
	p.Go(func() error {
		var err error
		vols, err = s.fetcher.FetchOptionVolatilities(ctx, block)
		if err != nil {
			return fmt.Errorf("volatilities: %w", err)
		}
		return nil
	})
	p.Go(func() error {
		var err error
		price, err = s.prices.FetchPrice(ctx, block)
		if err != nil {
			return fmt.Errorf("oracle price: %w", err)
		}
		return nil
	})
	if err := p.Wait(); err != nil {
		return err
	}

	if err := s.store.CommitBlock(ctx, s.cfg.Network, buildBlockCommit(block, states, vols, price)); err != nil {
		return fmt.Errorf("commit block: %w", err)
	}
	return nil
}

func dedupSorted(blocks []uint64) []uint64 {
	if len(blocks) == 0 {
		return nil
	}
	seen := make(map[uint64]struct{}, len(blocks))
	out := make([]uint64, 0, len(blocks))
	for _, b := range blocks {
		if _, ok := seen[b]; ok {
			continue
		}
		seen[b] = struct{}{}
		out = append(out, b)
	}
	sortBlocks(out)
	return out
}

// IsCancelled reports whether err only means the pass was interrupted.
func IsCancelled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
