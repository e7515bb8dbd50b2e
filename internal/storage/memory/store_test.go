package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"optionScope/internal/model"
	"optionScope/internal/network"
	"optionScope/internal/storage"
)

func TestLastBlockPerNetwork(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	_, ok, err := store.LastBlock(ctx, network.Mainnet)
	require.NoError(t, err)
	assert.False(t, ok)

	for _, n := range []uint64{5, 9, 7} {
		require.NoError(t, store.CommitBlock(ctx, network.Mainnet, storage.BlockCommit{Block: model.Block{Number: n}}))
	}
	require.NoError(t, store.CommitBlock(ctx, network.Testnet, storage.BlockCommit{Block: model.Block{Number: 100}}))

	last, ok, err := store.LastBlock(ctx, network.Mainnet)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, uint64(9), last.Number)
	assert.Equal(t, []uint64{5, 7, 9}, store.Blocks(network.Mainnet))
}

func TestEventsDeduplicatedAndOrdered(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	events := []model.Event{
		{TransactionHash: "0xb", Timestamp: 20},
		{TransactionHash: "0xa", Timestamp: 10},
		{TransactionHash: "0xa", Timestamp: 10},
	}
	require.NoError(t, store.CreateBatchOfEvents(ctx, network.Mainnet, events))

	got, err := store.Events(ctx, network.Mainnet)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "0xa", got[0].TransactionHash)
	assert.Equal(t, "0xb", got[1].TransactionHash)
}

func TestCreatePoolsIgnoresDuplicates(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	require.NoError(t, store.CreatePools(ctx, network.Mainnet, []model.Pool{{Address: "0x1"}, {Address: "0x2"}}))
	require.NoError(t, store.CreatePools(ctx, network.Mainnet, []model.Pool{{Address: "0x1"}}))

	pools, err := store.Pools(ctx, network.Mainnet)
	require.NoError(t, err)
	assert.Len(t, pools, 2)
}
