package publish

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"optionScope/internal/model"
	"optionScope/internal/network"
)

type memKV struct {
	values map[string][]byte
	ttls   map[string]time.Duration
	err    error
}

func (m *memKV) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if m.err != nil {
		return m.err
	}
	m.values[key] = value
	m.ttls[key] = ttl
	return nil
}

func TestPublish(t *testing.T) {
	kv := &memKV{values: map[string][]byte{}, ttls: map[string]time.Duration{}}
	p := NewPublisher(kv, network.Mainnet, time.Hour, nil)

	call := model.PoolLabelCall
	data := model.AppData{
		AllNonExpired: []string{"0", "1700000000", "1", "2", "3", "0", "5"},
		TradeHistory: []model.TradeHistory{{
			Timestamp:     10,
			Action:        model.ActionDepositLiquidity,
			LiquidityPool: &call,
		}},
	}
	require.NoError(t, p.Publish(context.Background(), data))

	raw, ok := kv.values["optionscope:mainnet:app_data"]
	require.True(t, ok)
	assert.Equal(t, time.Hour, kv.ttls["optionscope:mainnet:app_data"])

	var got model.AppData
	require.NoError(t, json.Unmarshal(raw, &got))
	assert.Equal(t, data, got)
}

func TestPublishError(t *testing.T) {
	kv := &memKV{err: errors.New("connection refused")}
	err := NewPublisher(kv, network.Testnet, 0, nil).Publish(context.Background(), model.AppData{})
	require.Error(t, err)
}

func TestRedisURL(t *testing.T) {
	_, err := NewRedisStoreFromURL("not a url")
	require.Error(t, err)

	s, err := NewRedisStoreFromURL("redis://localhost:6379/2")
	require.NoError(t, err)
	assert.Equal(t, 2, s.Client.Options().DB)
	require.NoError(t, s.Close())
}
