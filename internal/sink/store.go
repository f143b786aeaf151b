package sink

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"

	"wisefido-wearable/pkg/redisx"
)

// Store 抽象的输出存储（用于在单元测试中替换 Redis）
type Store interface {
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
	XAdd(ctx context.Context, stream string, values map[string]interface{}) (string, error)
}

// RedisStore 基于 go-redis 的 Store 实现
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (r *RedisStore) Set(ctx context.Context, key string, value string, ttl time.Duration) error {
	return r.client.Set(ctx, key, value, ttl).Err()
}

func (r *RedisStore) XAdd(ctx context.Context, stream string, values map[string]interface{}) (string, error) {
	return redisx.PublishToStream(ctx, r.client, stream, values)
}
