package cache

import (
	"context"
	"time"
)

const placeholderKeyPrefix = "placeholder:"

// PlaceholderReservations claims drawn placeholder ids for a short window so
// two concurrent allocations cannot hand out the same id.
type PlaceholderReservations struct {
	cache *Cache
	ttl   time.Duration
}

func NewPlaceholderReservations(c *Cache, ttl time.Duration) *PlaceholderReservations {
	return &PlaceholderReservations{cache: c, ttl: ttl}
}

func (r *PlaceholderReservations) Reserve(ctx context.Context, placeholderID string) (bool, error) {
	return r.cache.SetNX(ctx, placeholderKeyPrefix+placeholderID, "1", r.ttl)
}
