package kv

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/coursefinder/internal/shared"
	"github.com/redis/go-redis/v9"
)

// RedisStore implements [Store] on Redis strings under a key prefix. Keys never expire.
type RedisStore struct {
	client  *redis.Client
	prefix  string
	timeout time.Duration
}

// NewRedisStore wraps an existing client.
func NewRedisStore(client *redis.Client, prefix string, timeout time.Duration) *RedisStore {
	return &RedisStore{client: client, prefix: prefix, timeout: timeout}
}

// OpenRedis connects using cfg.Redis and verifies the connection with PING.
func OpenRedis(ctx context.Context, cfg shared.StorageConfig) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	store := NewRedisStore(client, cfg.Redis.Prefix, cfg.Timeout.Duration)

	pingCtx, cancel := withTimeout(ctx, store.timeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("%w: redis ping %s: %v", shared.ErrServiceUnavailable, cfg.Redis.Addr, err)
	}

	return store, nil
}

func (r *RedisStore) key(k string) string { return r.prefix + k }

func (r *RedisStore) Get(ctx context.Context, key string) (string, error) {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	v, err := r.client.Get(ctx, r.key(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("%w: get %s: %v", shared.ErrStorageFailure, key, err)
	}
	return v, nil
}

func (r *RedisStore) Set(ctx context.Context, key, value string) error {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	if err := r.client.Set(ctx, r.key(key), value, 0).Err(); err != nil {
		return fmt.Errorf("%w: set %s: %v", shared.ErrStorageFailure, key, err)
	}
	return nil
}

func (r *RedisStore) Delete(ctx context.Context, key string) error {
	return r.MultiDelete(ctx, key)
}

func (r *RedisStore) MultiDelete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}

	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	prefixed := make([]string, len(keys))
	for i, k := range keys {
		prefixed[i] = r.key(k)
	}
	if err := r.client.Del(ctx, prefixed...).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("%w: delete %v: %v", shared.ErrStorageFailure, keys, err)
	}
	return nil
}

func (r *RedisStore) Close() error {
	return r.client.Close()
}
