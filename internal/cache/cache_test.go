package cache

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"optionScope/internal/chain"
	"optionScope/internal/model"
	"optionScope/internal/network"
	"optionScope/internal/storage/memory"
)

const (
	callPool = "0xc"
	putPool  = "0xd"
)

type stubRoster struct {
	flat []string
	err  error
}

func (s *stubRoster) FetchNonExpiredRoster(context.Context) ([]string, error) {
	return s.flat, s.err
}

type stubEvents struct {
	store  *memory.Store
	events []model.Event
	err    error
	pulls  int
}

func (s *stubEvents) Pull(ctx context.Context) (int, error) {
	s.pulls++
	if s.err != nil {
		return 0, s.err
	}
	return len(s.events), s.store.CreateBatchOfEvents(ctx, network.Testnet, s.events)
}

func record(expiry string, tag string) []string {
	return []string{"0", expiry, tag, "1", "2", "0", "100"}
}

func flat(records ...[]string) []string {
	var out []string
	for _, r := range records {
		out = append(out, r...)
	}
	return out
}

func newTestCache(t *testing.T, store *memory.Store, roster *stubRoster, events EventSource, now int64) *Cache {
	t.Helper()
	c, err := New(Config{Network: network.Testnet, CallPool: callPool, PutPool: putPool}, store, roster, events, nil)
	require.NoError(t, err)
	return c.WithClock(func() time.Time { return time.Unix(now, 0) })
}

func TestRosterMergeAndPrune(t *testing.T) {
	a := record("2000", "1")
	b := record("3000", "2")
	cRec := record("4000", "3")

	roster := &stubRoster{flat: flat(a, b)}
	c := newTestCache(t, memory.NewStore(), roster, nil, 1000)
	ctx := context.Background()

	require.NoError(t, c.RefreshNonExpiredRoster(ctx))
	assert.Equal(t, flat(a, b), c.NonExpired())

	roster.flat = flat(a, b, cRec)
	require.NoError(t, c.RefreshNonExpiredRoster(ctx))
	assert.Equal(t, flat(a, b, cRec), c.NonExpired())

	// A has expired; it is gone even though the chain still returns it
	c.WithClock(func() time.Time { return time.Unix(2000, 0) })
	require.NoError(t, c.RefreshNonExpiredRoster(ctx))
	assert.Equal(t, flat(b, cRec), c.NonExpired())
}

func TestRosterMergeIsIdempotent(t *testing.T) {
	roster := &stubRoster{flat: flat(record("2000", "1"), record("3000", "2"))}
	c := newTestCache(t, memory.NewStore(), roster, nil, 1000)
	ctx := context.Background()

	require.NoError(t, c.RefreshNonExpiredRoster(ctx))
	first := c.NonExpired()
	require.NoError(t, c.RefreshNonExpiredRoster(ctx))
	assert.Equal(t, first, c.NonExpired())
}

func TestRosterMergeKeepsPreviousRecords(t *testing.T) {
	a := record("2000", "1")
	b := record("3000", "2")
	roster := &stubRoster{flat: flat(a, b)}
	c := newTestCache(t, memory.NewStore(), roster, nil, 1000)
	ctx := context.Background()
	require.NoError(t, c.RefreshNonExpiredRoster(ctx))

	// B no longer reported but not expired: still cached
	roster.flat = flat(a)
	require.NoError(t, c.RefreshNonExpiredRoster(ctx))
	assert.Equal(t, flat(a, b), c.NonExpired())
}

func TestRosterRejectsMalformedLength(t *testing.T) {
	a := record("2000", "1")
	roster := &stubRoster{flat: a}
	c := newTestCache(t, memory.NewStore(), roster, nil, 1000)
	ctx := context.Background()
	require.NoError(t, c.RefreshNonExpiredRoster(ctx))

	roster.flat = make([]string, 10)
	err := c.RefreshNonExpiredRoster(ctx)
	require.ErrorIs(t, err, chain.ErrInvariantViolation)
	assert.Equal(t, a, c.NonExpired())

	roster.flat = nil
	require.ErrorIs(t, c.RefreshNonExpiredRoster(ctx), chain.ErrInvariantViolation)
	assert.Equal(t, a, c.NonExpired())
}

func TestRosterFetchFailureKeepsCache(t *testing.T) {
	a := record("2000", "1")
	roster := &stubRoster{flat: a}
	c := newTestCache(t, memory.NewStore(), roster, nil, 1000)
	require.NoError(t, c.RefreshNonExpiredRoster(context.Background()))

	roster.err = errors.New("node down")
	require.Error(t, c.RefreshNonExpiredRoster(context.Background()))
	assert.Equal(t, a, c.NonExpired())
}

func TestTradeHistoryExample(t *testing.T) {
	events := []model.Event{
		{Timestamp: 1, Action: "TradeOpen", TransactionHash: "0x1"},
		{Timestamp: 3, Action: "Upgrade", TransactionHash: "0x3"},
		{Timestamp: 2, Action: "TradeClose", TransactionHash: "0x2"},
	}
	out := BuildTradeHistory(events, nil, callPool, putPool)
	require.Len(t, out, 2)
	assert.Equal(t, int64(1), out[0].Timestamp)
	assert.Equal(t, int64(2), out[1].Timestamp)
}

func TestTradeHistoryIsDeterministic(t *testing.T) {
	options := map[string]model.Option{
		"0x111": {Address: "0x111", Maturity: 5000, PoolAddress: callPool},
	}
	events := []model.Event{
		{Timestamp: 5, Action: "TradeSettle", TokenAddress: "0x111", Caller: "0xa"},
		{Timestamp: 5, Action: "TradeOpen", TokenAddress: "0x111", Caller: "0xb"},
		{Timestamp: 4, Action: "DepositLiquidity", TokenAddress: "0xc"},
		{Timestamp: 9, Action: "ExpireOptionTokenForPool", TokenAddress: "0x111"},
	}

	first, err := json.Marshal(BuildTradeHistory(events, options, callPool, putPool))
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := json.Marshal(BuildTradeHistory(events, options, callPool, putPool))
		require.NoError(t, err)
		assert.Equal(t, string(first), string(again))
	}

	out := BuildTradeHistory(events, options, callPool, putPool)
	require.Len(t, out, 3)
	assert.Equal(t, []string{"DepositLiquidity", "TradeSettle", "TradeOpen"}, []string{out[0].Action, out[1].Action, out[2].Action})
	require.NotNil(t, out[1].Option)
	assert.Equal(t, "0x111", out[1].Option.Address)
}

func TestTradeHistoryPoolLabels(t *testing.T) {
	events := []model.Event{
		{Timestamp: 1, Action: "DepositLiquidity", TokenAddress: "0x00c"},
		{Timestamp: 2, Action: "WithdrawLiquidity", TokenAddress: "0xd"},
		{Timestamp: 3, Action: "DepositLiquidity", TokenAddress: "0xe"},
		{Timestamp: 4, Action: "TradeOpen", TokenAddress: "0xc"},
	}
	out := BuildTradeHistory(events, nil, callPool, putPool)
	require.Len(t, out, 4)

	require.NotNil(t, out[0].LiquidityPool)
	assert.Equal(t, "Call", *out[0].LiquidityPool)
	require.NotNil(t, out[1].LiquidityPool)
	assert.Equal(t, "Put", *out[1].LiquidityPool)
	assert.Nil(t, out[2].LiquidityPool)
	assert.Nil(t, out[3].LiquidityPool, "only liquidity actions are labelled")
	assert.Nil(t, out[2].Option, "unknown option is tolerated")
}

func TestRefreshAll(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	require.NoError(t, store.CreateBatchOfOptions(ctx, network.Testnet, []model.Option{
		{Address: "0x111", Maturity: 5000, PoolAddress: callPool},
	}))
	events := &stubEvents{store: store, events: []model.Event{
		{TransactionHash: "0xaa", EventIndex: 0, Timestamp: 10, Action: "TradeOpen", TokenAddress: "0x111"},
		{TransactionHash: "0xbb", EventIndex: 1, Timestamp: 20, Action: "WithdrawLiquidity", TokenAddress: putPool},
	}}
	roster := &stubRoster{flat: record("9000", "1")}
	c := newTestCache(t, store, roster, events, 1000)

	require.NoError(t, c.RefreshAll(ctx))
	assert.Equal(t, 1, events.pulls)
	assert.Len(t, c.Events(), 2)
	assert.Contains(t, c.Options(), "0x111")

	snap := c.Snapshot()
	assert.Equal(t, record("9000", "1"), snap.AllNonExpired)
	require.Len(t, snap.TradeHistory, 2)
	require.NotNil(t, snap.TradeHistory[0].Option)
	assert.Equal(t, "Put", *snap.TradeHistory[1].LiquidityPool)

	// snapshot is a deep copy
	snap.TradeHistory[0].Option.Address = "0xdead"
	*snap.TradeHistory[1].LiquidityPool = "Call"
	snap.AllNonExpired[0] = "9"
	again := c.Snapshot()
	assert.Equal(t, "0x111", again.TradeHistory[0].Option.Address)
	assert.Equal(t, "Put", *again.TradeHistory[1].LiquidityPool)
	assert.Equal(t, "0", again.AllNonExpired[0])
}

func TestRefreshAllKeepsGoingAfterFailures(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	events := &stubEvents{store: store, err: errors.New("indexer down")}
	roster := &stubRoster{flat: make([]string, 10)}
	c := newTestCache(t, store, roster, events, 1000)

	err := c.RefreshAll(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, chain.ErrInvariantViolation)
	assert.Empty(t, c.NonExpired())
	assert.Empty(t, c.TradeHistory())
}

func TestNewValidates(t *testing.T) {
	_, err := New(Config{CallPool: callPool}, memory.NewStore(), &stubRoster{}, nil, nil)
	require.Error(t, err)
	_, err = New(Config{CallPool: callPool, PutPool: putPool}, nil, &stubRoster{}, nil, nil)
	require.Error(t, err)
}
