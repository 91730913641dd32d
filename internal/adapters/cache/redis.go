package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"ride-dispatch-service/internal/domain"
)

const redisKeyPrefix = "travelcost:"

// RedisTravelCostCache is a Redis-backed cache for travel cost lookups,
// shared between service instances. Entries carry a per-key TTL; Redis
// handles eviction and concurrent access.
type RedisTravelCostCache struct {
	Client *redis.Client
	TTL    time.Duration
}

func NewRedisTravelCostCache(client *redis.Client, ttl time.Duration) *RedisTravelCostCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisTravelCostCache{Client: client, TTL: ttl}
}

type redisCost struct {
	DurationSeconds int `json:"duration_seconds"`
	DistanceMeters  int `json:"distance_meters"`
}

func redisKey(p domain.PairKey) string { return redisKeyPrefix + p.String() }

func (c *RedisTravelCostCache) GetMany(
	ctx context.Context,
	pairs []domain.PairKey,
) (map[domain.PairKey]domain.TravelCost, error) {
	if c.Client == nil {
		return nil, errors.New("redis travel cost cache: client is nil")
	}

	if len(pairs) == 0 {
		return map[domain.PairKey]domain.TravelCost{}, nil
	}

	keys := make([]string, 0, len(pairs))
	for _, p := range pairs {
		keys = append(keys, redisKey(p))
	}

	vals, err := c.Client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("get travel cost cache: mget: %w", err)
	}

	out := make(map[domain.PairKey]domain.TravelCost, len(pairs))
	for i, v := range vals {
		if v == nil {
			continue
		}

		s, ok := v.(string)
		if !ok {
			continue
		}

		var rc redisCost
		if err := json.Unmarshal([]byte(s), &rc); err != nil {
			// A corrupt entry is treated as a miss; the oracle refills it.
			continue
		}
		out[pairs[i]] = domain.TravelCost{
			DurationSeconds: rc.DurationSeconds,
			DistanceMeters:  rc.DistanceMeters,
		}
	}

	return out, nil
}

func (c *RedisTravelCostCache) PutMany(
	ctx context.Context,
	costs map[domain.PairKey]domain.TravelCost,
) error {
	if c.Client == nil {
		return errors.New("redis travel cost cache: client is nil")
	}

	if len(costs) == 0 {
		return nil
	}

	pipe := c.Client.Pipeline()
	for p, tc := range costs {
		payload, err := json.Marshal(redisCost{
			DurationSeconds: tc.DurationSeconds,
			DistanceMeters:  tc.DistanceMeters,
		})
		if err != nil {
			return fmt.Errorf("insert travel cost cache: marshal %s: %w", p, err)
		}
		pipe.Set(ctx, redisKey(p), payload, c.TTL)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("insert travel cost cache: pipeline exec: %w", err)
	}

	return nil
}
