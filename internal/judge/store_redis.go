package judge

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"docaudit/internal/verdict"
)

const cacheKeyPrefix = "judge:verdict:"

// RedisCache is a Redis-backed verdict cache for deployments where judged
// verdicts should survive a restart. Wired only when a Redis URL is
// configured; otherwise the in-process MemoryCache serves.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, ttl: ttl}
}

var _ CacheStore = (*RedisCache)(nil)

func (r *RedisCache) Get(ctx context.Context, key string) (*verdict.Result, bool, error) {
	raw, err := r.client.Get(ctx, cacheKeyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var result verdict.Result
	if err := json.Unmarshal(raw, &result); err != nil {
		// A corrupt entry behaves like a miss; the next Set overwrites it.
		return nil, false, nil
	}
	return &result, true, nil
}

func (r *RedisCache) Set(ctx context.Context, key string, result *verdict.Result) error {
	raw, err := json.Marshal(result)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, cacheKeyPrefix+key, raw, r.ttl).Err()
}
