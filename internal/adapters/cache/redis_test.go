package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"ride-dispatch-service/internal/domain"
)

func newTestRedisCache(t *testing.T) (*RedisTravelCostCache, *miniredis.Miniredis) {
	t.Helper()

	srv, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	t.Cleanup(srv.Close)

	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return NewRedisTravelCostCache(client, time.Minute), srv
}

func TestRedisCacheRoundTrip(t *testing.T) {
	c, _ := newTestRedisCache(t)
	ctx := context.Background()

	ab := pair("38.04296,-84.50481", "38.05042,-84.48930")
	err := c.PutMany(ctx, map[domain.PairKey]domain.TravelCost{
		ab: {DurationSeconds: 420, DistanceMeters: 3200},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := c.GetMany(ctx, []domain.PairKey{ab, pair("A", "B")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(got) != 1 {
		t.Fatalf("expected 1 hit, got %d", len(got))
	}
	if got[ab].DurationSeconds != 420 || got[ab].DistanceMeters != 3200 {
		t.Fatalf("wrong cached value: %+v", got[ab])
	}
}

func TestRedisCacheEntriesExpire(t *testing.T) {
	c, srv := newTestRedisCache(t)
	ctx := context.Background()

	ab := pair("A", "B")
	if err := c.PutMany(ctx, map[domain.PairKey]domain.TravelCost{ab: {DurationSeconds: 60}}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	srv.FastForward(2 * time.Minute)

	got, err := c.GetMany(ctx, []domain.PairKey{ab})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected entry to expire, got %+v", got)
	}
}

func TestRedisCacheCorruptEntryIsAMiss(t *testing.T) {
	c, srv := newTestRedisCache(t)
	ctx := context.Background()

	ab := pair("A", "B")
	srv.Set(redisKey(ab), "not-json")

	got, err := c.GetMany(ctx, []domain.PairKey{ab})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("corrupt entry must read as a miss, got %+v", got)
	}
}
