package studycache

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisStore shares cache entries between server replicas.
type RedisStore struct {
	client    redis.Cmdable
	keyPrefix string
}

func NewRedisStore(client redis.Cmdable, keyPrefix string) *RedisStore {
	return &RedisStore{
		client:    client,
		keyPrefix: keyPrefix,
	}
}

func (store *RedisStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	value, err := store.client.Get(ctx, store.keyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis.Get > %w", err)
	}
	return value, true, nil
}

func (store *RedisStore) Put(ctx context.Context, key string, value []byte) error {
	if err := store.client.Set(ctx, store.keyPrefix+key, value, 0).Err(); err != nil {
		return fmt.Errorf("redis.Set > %w", err)
	}
	return nil
}
