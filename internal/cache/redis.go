package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisBacking shares entries through redis as JSON documents without expiry.
type RedisBacking[V any] struct {
	client *redis.Client
	prefix string
}

func NewRedisBacking[V any](client *redis.Client, prefix string) *RedisBacking[V] {
	return &RedisBacking[V]{client: client, prefix: prefix}
}

func (b *RedisBacking[V]) key(k Key) string {
	return fmt.Sprintf("%s:%s:%s", b.prefix, k.Env, k.Survey)
}

func (b *RedisBacking[V]) Get(ctx context.Context, k Key) (V, bool, error) {
	var v V
	data, err := b.client.Get(ctx, b.key(k)).Bytes()
	if errors.Is(err, redis.Nil) {
		return v, false, nil
	}
	if err != nil {
		return v, false, err
	}
	if err := json.Unmarshal(data, &v); err != nil {
		return v, false, fmt.Errorf("decode %s: %w", b.key(k), err)
	}
	return v, true, nil
}

func (b *RedisBacking[V]) SetIfAbsent(ctx context.Context, k Key, v V) (bool, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return false, err
	}
	return b.client.SetNX(ctx, b.key(k), data, 0).Result()
}

func (b *RedisBacking[V]) Set(ctx context.Context, k Key, v V) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return b.client.Set(ctx, b.key(k), data, 0).Err()
}
