package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"telecom-erp-backend/internal/scope"

	"github.com/redis/go-redis/v9"
)

const storeIndexKey = "telecom-erp:store-index:v1"

// redisClient is the part of *redis.Client the cache uses.
type redisClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

type RedisStoreIndexCache struct {
	client redisClient
	conn   *redis.Client // nil when built around a test client
}

func NewRedisStoreIndexCache(addr, password string, db int) *RedisStoreIndexCache {
	conn := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return &RedisStoreIndexCache{client: conn, conn: conn}
}

func (c *RedisStoreIndexCache) Ping(ctx context.Context) error {
	if c.conn == nil {
		return nil
	}
	return c.conn.Ping(ctx).Err()
}

func (c *RedisStoreIndexCache) Close() error {
	if c.conn == nil {
		return nil
	}
	return c.conn.Close()
}

func (c *RedisStoreIndexCache) Get(ctx context.Context) (*scope.StoreIndex, bool, error) {
	val, err := c.client.Get(ctx, storeIndexKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var index scope.StoreIndex
	if err := json.Unmarshal(val, &index); err != nil {
		return nil, false, err
	}
	return &index, true, nil
}

func (c *RedisStoreIndexCache) Set(ctx context.Context, index *scope.StoreIndex, ttl time.Duration) error {
	if index == nil {
		return nil
	}
	payload, err := json.Marshal(index)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, storeIndexKey, payload, ttl).Err()
}

func (c *RedisStoreIndexCache) Invalidate(ctx context.Context) error {
	return c.client.Del(ctx, storeIndexKey).Err()
}
