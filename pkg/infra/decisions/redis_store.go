package decisions

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/NeuralTrust/TrustShield/pkg/domain"
	"github.com/NeuralTrust/TrustShield/pkg/domain/decision"
	"github.com/go-redis/redis/v8"
)

const (
	StoreRedis = "redis"

	DefaultRecentKey      = "decisions:recent"
	DefaultTotalKey       = "decisions:total"
	DefaultRecentCapacity = 1000
)

type RedisConfig struct {
	RecentKey string
	TotalKey  string
	// Capacity bounds the recent list. The total counter is not bounded.
	Capacity int64
}

// RedisStore keeps the newest records in a capped list and a running total in
// a separate counter, both updated in one MULTI/EXEC.
type RedisStore struct {
	client    *redis.Client
	recentKey string
	totalKey  string
	capacity  int64
}

func NewRedisStore(client *redis.Client, cfg RedisConfig) (*RedisStore, error) {
	if client == nil {
		return nil, domain.NewConfigurationError("redis store requires a client")
	}
	if cfg.RecentKey == "" {
		cfg.RecentKey = DefaultRecentKey
	}
	if cfg.TotalKey == "" {
		cfg.TotalKey = DefaultTotalKey
	}
	if cfg.Capacity <= 0 {
		cfg.Capacity = DefaultRecentCapacity
	}
	return &RedisStore{
		client:    client,
		recentKey: cfg.RecentKey,
		totalKey:  cfg.TotalKey,
		capacity:  cfg.Capacity,
	}, nil
}

func (s *RedisStore) Append(ctx context.Context, record *decision.Record) error {
	data, err := json.Marshal(record)
	if err != nil {
		return domain.NewPersistenceError("encode redis record", err)
	}
	pipe := s.client.TxPipeline()
	pipe.LPush(ctx, s.recentKey, string(data))
	pipe.LTrim(ctx, s.recentKey, 0, s.capacity-1)
	pipe.Incr(ctx, s.totalKey)
	if _, err := pipe.Exec(ctx); err != nil {
		return domain.NewPersistenceError("append redis record", err)
	}
	return nil
}

func (s *RedisStore) Recent(ctx context.Context, limit int) ([]decision.Record, error) {
	stop := int64(-1)
	if limit > 0 {
		stop = int64(limit) - 1
	}
	values, err := s.client.LRange(ctx, s.recentKey, 0, stop).Result()
	if err != nil {
		return nil, domain.NewPersistenceError("read redis records", err)
	}
	out := make([]decision.Record, 0, len(values))
	for _, v := range values {
		var rec decision.Record
		if err := json.Unmarshal([]byte(v), &rec); err != nil {
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}

func (s *RedisStore) Count(ctx context.Context) (int64, error) {
	n, err := s.client.Get(ctx, s.totalKey).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, domain.NewPersistenceError("read redis total", err)
	}
	return n, nil
}

// Close is a no-op; the client belongs to the cache layer.
func (s *RedisStore) Close() error {
	return nil
}
