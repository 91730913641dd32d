package cache

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"ride-dispatch-service/internal/domain"
)

const (
	DefaultCapacity = 8192
	DefaultTTL      = 30 * time.Minute
)

// MemoryTravelCostCache is a bounded in-process cache for travel cost
// lookups. Entries are evicted least-recently-used once capacity is
// reached and expire after the configured TTL. The underlying store is
// safe for concurrent use across dispatch runs.
type MemoryTravelCostCache struct {
	lru *expirable.LRU[domain.PairKey, domain.TravelCost]
}

func NewMemoryTravelCostCache(capacity int, ttl time.Duration) *MemoryTravelCostCache {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &MemoryTravelCostCache{
		lru: expirable.NewLRU[domain.PairKey, domain.TravelCost](capacity, nil, ttl),
	}
}

func (c *MemoryTravelCostCache) GetMany(
	_ context.Context,
	pairs []domain.PairKey,
) (map[domain.PairKey]domain.TravelCost, error) {
	out := make(map[domain.PairKey]domain.TravelCost, len(pairs))
	for _, p := range pairs {
		if tc, ok := c.lru.Get(p); ok {
			out[p] = tc
		}
	}
	return out, nil
}

func (c *MemoryTravelCostCache) PutMany(
	_ context.Context,
	costs map[domain.PairKey]domain.TravelCost,
) error {
	for p, tc := range costs {
		c.lru.Add(p, tc)
	}
	return nil
}

// Len reports the current number of live entries.
func (c *MemoryTravelCostCache) Len() int { return c.lru.Len() }
