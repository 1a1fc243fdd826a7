package pricing

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const cacheKeyPrefix = "pricing:active-deals:"

// DealCache keeps the day's active deals in redis so order entry does not
// hit the database for every line. Entries are short-lived and invalidated
// on any deal write.
type DealCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewDealCache builds a cache with the given TTL.
func NewDealCache(client *redis.Client, ttl time.Duration) *DealCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &DealCache{client: client, ttl: ttl}
}

func cacheKey(on time.Time) string {
	return cacheKeyPrefix + on.UTC().Format("2006-01-02")
}

// GetActive returns the cached active deals for the day, if present. Cache
// failures read as misses; resolution falls back to the repository.
func (c *DealCache) GetActive(ctx context.Context, on time.Time) ([]*SpecialDeal, bool) {
	raw, err := c.client.Get(ctx, cacheKey(on)).Bytes()
	if err != nil {
		return nil, false
	}
	var records []dealRecord
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, false
	}
	deals := make([]*SpecialDeal, 0, len(records))
	for _, rec := range records {
		deal, err := rec.toDeal()
		if err != nil {
			return nil, false
		}
		deals = append(deals, deal)
	}
	return deals, true
}

// SetActive stores the day's active deals. Failures are ignored; the cache
// is an optimisation, not a source of truth.
func (c *DealCache) SetActive(ctx context.Context, on time.Time, deals []*SpecialDeal) {
	records := make([]dealRecord, 0, len(deals))
	for _, d := range deals {
		records = append(records, recordFromDeal(d))
	}
	raw, err := json.Marshal(records)
	if err != nil {
		return
	}
	_ = c.client.Set(ctx, cacheKey(on), raw, c.ttl).Err()
}

// Invalidate drops every cached day after a deal write.
func (c *DealCache) Invalidate(ctx context.Context) error {
	iter := c.client.Scan(ctx, 0, cacheKeyPrefix+"*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("pricing cache scan: %w", err)
	}
	if len(keys) == 0 {
		return nil
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("pricing cache del: %w", err)
	}
	return nil
}
