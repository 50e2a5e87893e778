package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/leahpeker/vedgyproject/internal/domain/entity"
	"github.com/redis/go-redis/v9"
)

const listingKeyPrefix = "listing:"

// ListingCache caches public listing reads. Every lifecycle mutation
// invalidates the entry, so a cached listing is never more stale than the
// accepted sweep race.
type ListingCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewListingCache(client *redis.Client, ttl time.Duration) *ListingCache {
	return &ListingCache{client: client, ttl: ttl}
}

func (c *ListingCache) Get(ctx context.Context, listingID string) (*entity.Listing, error) {
	data, err := c.client.Get(ctx, listingKeyPrefix+listingID).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get listing %s from cache: %w", listingID, err)
	}

	var listing entity.Listing
	if err := json.Unmarshal(data, &listing); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cached listing %s: %w", listingID, err)
	}
	return &listing, nil
}

func (c *ListingCache) Set(ctx context.Context, listing *entity.Listing) error {
	data, err := json.Marshal(listing)
	if err != nil {
		return fmt.Errorf("failed to marshal listing %s for cache: %w", listing.ID, err)
	}
	return c.client.Set(ctx, listingKeyPrefix+listing.ID, data, c.ttl).Err()
}

func (c *ListingCache) Invalidate(ctx context.Context, listingID string) error {
	return c.client.Del(ctx, listingKeyPrefix+listingID).Err()
}
