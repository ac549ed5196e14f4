package port

import (
	"context"
	"time"
)

type CacheRepository interface {
	// SetIdempotency sets a key for idempotency check, returns false if already exists
	SetIdempotency(ctx context.Context, key string) (bool, error)

	// GetVolumeJSON returns a cached provider payload, nil on miss
	GetVolumeJSON(ctx context.Context, externalID string) ([]byte, error)

	// SetVolumeJSON caches a provider payload with a TTL
	SetVolumeJSON(ctx context.Context, externalID string, payload []byte, ttl time.Duration) error
}
