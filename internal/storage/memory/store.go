package memory

import (
	"context"
	"sort"
	"sync"

	"optionScope/internal/model"
	"optionScope/internal/network"
	"optionScope/internal/storage"
)

var _ storage.Store = (*Store)(nil)

type netData struct {
	blocks       map[uint64]model.Block
	pools        []model.Pool
	options      map[string]model.Option
	events       map[string]model.Event
	poolStates   []model.PoolState
	volatilities []model.OptionVolatility
	prices       []model.OraclePrice
}

// Store keeps everything in process memory. Used by tests and dry runs.
type Store struct {
	mu   sync.RWMutex
	data map[network.Network]*netData
}

func NewStore() *Store {
	return &Store{data: make(map[network.Network]*netData)}
}

func (s *Store) net(n network.Network) *netData {
	d, ok := s.data[n]
	if !ok {
		d = &netData{
			blocks:  make(map[uint64]model.Block),
			options: make(map[string]model.Option),
			events:  make(map[string]model.Event),
		}
		s.data[n] = d
	}
	return d
}

func (s *Store) LastBlock(_ context.Context, n network.Network) (model.Block, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var last model.Block
	found := false
	for _, b := range s.net(n).blocks {
		if !found || b.Number > last.Number {
			last = b
			found = true
		}
	}
	return last, found, nil
}

func (s *Store) Pools(_ context.Context, n network.Network) ([]model.Pool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.Pool(nil), s.net(n).pools...), nil
}

func (s *Store) Options(_ context.Context, n network.Network) ([]model.Option, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]model.Option, 0, len(s.net(n).options))
	for _, o := range s.net(n).options {
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Maturity != out[j].Maturity {
			return out[i].Maturity < out[j].Maturity
		}
		return out[i].Address < out[j].Address
	})
	return out, nil
}

func (s *Store) Events(_ context.Context, n network.Network) ([]model.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]model.Event, 0, len(s.net(n).events))
	for _, e := range s.net(n).events {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Timestamp != out[j].Timestamp {
			return out[i].Timestamp < out[j].Timestamp
		}
		if out[i].BlockNumber != out[j].BlockNumber {
			return out[i].BlockNumber < out[j].BlockNumber
		}
		return out[i].EventIndex < out[j].EventIndex
	})
	return out, nil
}

func (s *Store) CreatePools(_ context.Context, n network.Network, pools []model.Pool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	d := s.net(n)
	for _, p := range pools {
		exists := false
		for _, known := range d.pools {
			if known.Address == p.Address {
				exists = true
				break
			}
		}
		if !exists {
			d.pools = append(d.pools, p)
		}
	}
	return nil
}

func (s *Store) CreateBatchOfOptions(_ context.Context, n network.Network, options []model.Option) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	d := s.net(n)
	for _, o := range options {
		if _, ok := d.options[o.Address]; !ok {
			d.options[o.Address] = o
		}
	}
	return nil
}

func (s *Store) CreateBatchOfEvents(_ context.Context, n network.Network, events []model.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	d := s.net(n)
	for _, e := range events {
		if _, ok := d.events[e.ID()]; !ok {
			d.events[e.ID()] = e
		}
	}
	return nil
}

func (s *Store) CommitBlock(_ context.Context, n network.Network, commit storage.BlockCommit) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	d := s.net(n)
	d.blocks[commit.Block.Number] = commit.Block
	d.poolStates = append(d.poolStates, commit.PoolStates...)
	d.volatilities = append(d.volatilities, commit.Volatilities...)
	d.prices = append(d.prices, commit.Price)
	return nil
}

// Blocks returns the committed block numbers in ascending order.
func (s *Store) Blocks(n network.Network) []uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]uint64, 0, len(s.net(n).blocks))
	for number := range s.net(n).blocks {
		out = append(out, number)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (s *Store) PoolStates(n network.Network) []model.PoolState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.PoolState(nil), s.net(n).poolStates...)
}

func (s *Store) Volatilities(n network.Network) []model.OptionVolatility {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.OptionVolatility(nil), s.net(n).volatilities...)
}

func (s *Store) Prices(n network.Network) []model.OraclePrice {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.OraclePrice(nil), s.net(n).prices...)
}
