package publish

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"optionScope/internal/metrics"
	"optionScope/internal/model"
	"optionScope/internal/network"
)

// KV is the key-value store the snapshot is written to.
type KV interface {
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// RedisStore is a KV backed by redis.
type RedisStore struct {
	Client *redis.Client
}

func NewRedisStore(opt *redis.Options) *RedisStore {
	return &RedisStore{Client: redis.NewClient(opt)}
}

// NewRedisStoreFromURL parses a redis:// URL.
func NewRedisStoreFromURL(url string) (*RedisStore, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return NewRedisStore(opt), nil
}

func (s *RedisStore) Ping(ctx context.Context) error {
	return s.Client.Ping(ctx).Err()
}

func (s *RedisStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return s.Client.Set(ctx, key, value, ttl).Err()
}

func (s *RedisStore) Close() error {
	return s.Client.Close()
}

// SnapshotKey is the key the serving layer reads app data from.
func SnapshotKey(n network.Network) string {
	return "optionscope:" + n.String() + ":app_data"
}

// Publisher writes cache snapshots for the serving layer.
type Publisher struct {
	kv      KV
	network network.Network
	ttl     time.Duration
	logger  *zap.Logger
}

func NewPublisher(kv KV, n network.Network, ttl time.Duration, logger *zap.Logger) *Publisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Publisher{kv: kv, network: n, ttl: ttl, logger: logger}
}

// Publish stores data as JSON under the network's snapshot key.
func (p *Publisher) Publish(ctx context.Context, data model.AppData) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	err = p.kv.Set(ctx, SnapshotKey(p.network), payload, p.ttl)
	metrics.SnapshotsPublished.WithLabelValues(p.network.String(), metrics.Outcome(err)).Inc()
	if err != nil {
		return fmt.Errorf("publish snapshot: %w", err)
	}
	p.logger.Debug("snapshot published",
		zap.String("key", SnapshotKey(p.network)),
		zap.Int("bytes", len(payload)),
		zap.Int("trade_history", len(data.TradeHistory)),
	)
	return nil
}
