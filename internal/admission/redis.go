package admission

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "docvalidator:active:"

// RedisIndex is a shared Index for multi-instance deployments. Claims carry a
// TTL so a crashed worker cannot wedge a document forever.
type RedisIndex struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisIndex(client *redis.Client, ttl time.Duration) *RedisIndex {
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &RedisIndex{client: client, ttl: ttl}
}

func (r *RedisIndex) Register(ctx context.Context, documentID string) error {
	ok, err := r.client.SetNX(ctx, keyPrefix+documentID, "1", r.ttl).Result()
	if err != nil {
		return fmt.Errorf("admission register: %w", err)
	}
	if !ok {
		return duplicateErr(documentID)
	}
	return nil
}

func (r *RedisIndex) Release(ctx context.Context, documentID string) error {
	if err := r.client.Del(ctx, keyPrefix+documentID).Err(); err != nil {
		return fmt.Errorf("admission release: %w", err)
	}
	return nil
}
