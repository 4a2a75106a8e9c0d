package fairvalue

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisCache shares resolved prices between processes.
// Redis failures are logged and read as misses.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
	log    *zap.Logger
}

// NewRedisCache wraps a connected client. Entries expire after ttl.
func NewRedisCache(client *redis.Client, ttl time.Duration, log *zap.Logger) *RedisCache {
	return &RedisCache{client: client, ttl: ttl, log: log}
}

// ConnectRedis opens a client and checks it with PING.
func ConnectRedis(ctx context.Context, addr string) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, err
	}
	return rdb, nil
}

func redisKey(key string) string { return "fairvalue:" + key }

func (r *RedisCache) Get(ctx context.Context, key string) (Price, bool) {
	b, err := r.client.Get(ctx, redisKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Price{}, false
	}
	if err != nil {
		r.log.Warn("fair value cache read failed", zap.String("key", key), zap.Error(err))
		return Price{}, false
	}

	var p Price
	if err := json.Unmarshal(b, &p); err != nil {
		r.log.Warn("fair value cache entry corrupt", zap.String("key", key), zap.Error(err))
		return Price{}, false
	}
	return p, true
}

func (r *RedisCache) Set(ctx context.Context, key string, p Price) {
	b, err := json.Marshal(p)
	if err != nil {
		return
	}
	if err := r.client.Set(ctx, redisKey(key), b, r.ttl).Err(); err != nil {
		r.log.Warn("fair value cache write failed", zap.String("key", key), zap.Error(err))
	}
}
