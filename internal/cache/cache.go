package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"optionScope/internal/chain"
	"optionScope/internal/metrics"
	"optionScope/internal/model"
	"optionScope/internal/network"
)

// Refresh operation names used in logs and metrics.
const (
	OpOptions      = "options"
	OpEvents       = "events"
	OpRoster       = "roster"
	OpTradeHistory = "trade_history"
)

// Store is the persisted side of the cache.
type Store interface {
	Options(ctx context.Context, net network.Network) ([]model.Option, error)
	Events(ctx context.Context, net network.Network) ([]model.Event, error)
}

// RosterSource fetches the live non-expired roster as a flat sequence.
type RosterSource interface {
	FetchNonExpiredRoster(ctx context.Context) ([]string, error)
}

// EventSource pulls new events into the store.
type EventSource interface {
	Pull(ctx context.Context) (int, error)
}

// Config scopes a cache to one network.
type Config struct {
	Network  network.Network
	CallPool string
	PutPool  string
}

// Cache holds the last good view of events, options, the non-expired
// roster and the trade history derived from them.
type Cache struct {
	cfg     Config
	store   Store
	roster  RosterSource
	events  EventSource
	logger  *zap.Logger
	now     func() time.Time
	refresh sync.Mutex

	mu           sync.RWMutex
	eventList    []model.Event
	options      map[string]model.Option
	nonExpired   []model.RosterRecord
	tradeHistory []model.TradeHistory
}

// New builds an empty cache. events may be nil when no external indexer is
// configured; event refreshes then only re-read the store.
func New(cfg Config, store Store, roster RosterSource, events EventSource, logger *zap.Logger) (*Cache, error) {
	if store == nil {
		return nil, fmt.Errorf("store is nil")
	}
	if roster == nil {
		return nil, fmt.Errorf("roster source is nil")
	}
	if cfg.CallPool == "" || cfg.PutPool == "" {
		return nil, fmt.Errorf("call and put pool addresses are required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Cache{
		cfg:     cfg,
		store:   store,
		roster:  roster,
		events:  events,
		logger:  logger.With(zap.String("network", cfg.Network.String())),
		now:     time.Now,
		options: make(map[string]model.Option),
	}, nil
}

// WithClock replaces the wall clock used to prune expired records.
func (c *Cache) WithClock(now func() time.Time) *Cache {
	c.now = now
	return c
}

// RefreshOptions replaces the option map with the persisted roster.
func (c *Cache) RefreshOptions(ctx context.Context) (err error) {
	defer c.observe(OpOptions, &err)

	list, err := c.store.Options(ctx, c.cfg.Network)
	if err != nil {
		return fmt.Errorf("load options: %w", err)
	}
	options := make(map[string]model.Option, len(list))
	for _, opt := range list {
		options[canonical(opt.Address)] = opt
	}

	c.mu.Lock()
	c.options = options
	c.mu.Unlock()
	return nil
}

// RefreshEvents pulls new events into the store and then replaces the event
// list with the persisted one.
func (c *Cache) RefreshEvents(ctx context.Context) (err error) {
	defer c.observe(OpEvents, &err)

	if c.events != nil {
		n, err := c.events.Pull(ctx)
		if err != nil {
			return fmt.Errorf("pull events: %w", err)
		}
		c.logger.Debug("events pulled", zap.Int("new", n))
	}

	list, err := c.store.Events(ctx, c.cfg.Network)
	if err != nil {
		return fmt.Errorf("load events: %w", err)
	}

	c.mu.Lock()
	c.eventList = list
	c.mu.Unlock()
	return nil
}

// RefreshNonExpiredRoster merges the live roster into the cached one and
// drops expired records. A fetched roster whose length is not a non-zero
// multiple of the record width is rejected and the cache is left as is.
func (c *Cache) RefreshNonExpiredRoster(ctx context.Context) (err error) {
	defer c.observe(OpRoster, &err)

	flat, err := c.roster.FetchNonExpiredRoster(ctx)
	if err != nil {
		return err
	}
	if err := chain.CheckWidth(len(flat), model.RosterWidth); err != nil {
		return fmt.Errorf("non-expired roster: %w", err)
	}
	fetched := model.RosterRecords(flat)

	c.mu.Lock()
	defer c.mu.Unlock()
	merged := MergeRoster(c.nonExpired, fetched)
	c.nonExpired = PruneExpired(merged, c.now().Unix(), c.logger)
	metrics.RosterSize.WithLabelValues(c.cfg.Network.String()).Set(float64(len(c.nonExpired)))
	return nil
}

// RefreshTradeHistory recomputes the trade history from cached events and options.
func (c *Cache) RefreshTradeHistory() {
	var err error
	defer c.observe(OpTradeHistory, &err)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.tradeHistory = BuildTradeHistory(c.eventList, c.options, c.cfg.CallPool, c.cfg.PutPool)
	metrics.TradeHistorySize.WithLabelValues(c.cfg.Network.String()).Set(float64(len(c.tradeHistory)))
}

// RefreshAll runs options, events, roster and trade history in that order.
// A failed step keeps its previous state and does not stop later steps.
// Calls are serialized.
func (c *Cache) RefreshAll(ctx context.Context) error {
	c.refresh.Lock()
	defer c.refresh.Unlock()

	var errs []error
	if err := c.RefreshOptions(ctx); err != nil {
		errs = append(errs, err)
	}
	if err := c.RefreshEvents(ctx); err != nil {
		errs = append(errs, err)
	}
	if err := c.RefreshNonExpiredRoster(ctx); err != nil {
		errs = append(errs, err)
	}
	c.RefreshTradeHistory()
	return errors.Join(errs...)
}

// Snapshot returns a deep copy of the data handed to the serving layer.
func (c *Cache) Snapshot() model.AppData {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return model.AppData{
		AllNonExpired: model.FlattenRoster(c.nonExpired),
		TradeHistory:  cloneTradeHistory(c.tradeHistory),
	}
}

// NonExpired returns the cached roster as a flat sequence.
func (c *Cache) NonExpired() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return model.FlattenRoster(c.nonExpired)
}

// TradeHistory returns a copy of the cached trade history.
func (c *Cache) TradeHistory() []model.TradeHistory {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return cloneTradeHistory(c.tradeHistory)
}

// Options returns a copy of the cached options keyed by address.
func (c *Cache) Options() map[string]model.Option {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[string]model.Option, len(c.options))
	for k, v := range c.options {
		out[k] = v
	}
	return out
}

// Events returns a copy of the cached events.
func (c *Cache) Events() []model.Event {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]model.Event(nil), c.eventList...)
}

func (c *Cache) observe(op string, err *error) {
	outcome := metrics.Outcome(*err)
	if errors.Is(*err, chain.ErrInvariantViolation) {
		outcome = metrics.OutcomeRejected
	}
	metrics.CacheRefreshes.WithLabelValues(c.cfg.Network.String(), op, outcome).Inc()
	if *err != nil {
		c.logger.Warn("cache refresh failed, keeping previous state", zap.String("operation", op), zap.Error(*err))
		return
	}
	c.logger.Debug("cache refreshed", zap.String("operation", op))
}
