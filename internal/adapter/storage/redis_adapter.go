package storage

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	volumeKeyPrefix   = "volume:"
	idempotencyKeyTTL = 24 * time.Hour
)

type RedisAdapter struct {
	client *redis.Client
}

func NewRedisAdapter(client *redis.Client) *RedisAdapter {
	return &RedisAdapter{client: client}
}

func (r *RedisAdapter) SetIdempotency(ctx context.Context, key string) (bool, error) {
	ok, err := r.client.SetNX(ctx, key, 1, idempotencyKeyTTL).Result()
	if err != nil {
		return false, err
	}
	return ok, nil
}

func (r *RedisAdapter) GetVolumeJSON(ctx context.Context, externalID string) ([]byte, error) {
	payload, err := r.client.Get(ctx, volumeKeyPrefix+externalID).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return payload, nil
}

func (r *RedisAdapter) SetVolumeJSON(ctx context.Context, externalID string, payload []byte, ttl time.Duration) error {
	return r.client.Set(ctx, volumeKeyPrefix+externalID, payload, ttl).Err()
}
