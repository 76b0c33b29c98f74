package cache

import (
	"context"
	"time"
)

const revokedKeyPrefix = "jti:"

// TokenRevocations remembers logged-out token ids until they expire.
type TokenRevocations struct {
	cache *Cache
}

func NewTokenRevocations(c *Cache) *TokenRevocations {
	return &TokenRevocations{cache: c}
}

func (r *TokenRevocations) Revoke(ctx context.Context, jti string, expiresAt time.Time) error {
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return nil
	}
	_, err := r.cache.SetNX(ctx, revokedKeyPrefix+jti, "1", ttl)
	return err
}

func (r *TokenRevocations) IsRevoked(ctx context.Context, jti string) (bool, error) {
	return r.cache.Exists(ctx, revokedKeyPrefix+jti)
}
