package cache

import (
	"context"
	"fmt"
	"testing"
	"time"

	"ride-dispatch-service/internal/domain"
)

func pair(from, to string) domain.PairKey {
	return domain.PairKey{From: domain.LocationKey(from), To: domain.LocationKey(to)}
}

func TestMemoryCacheRoundTrip(t *testing.T) {
	c := NewMemoryTravelCostCache(16, time.Minute)
	ctx := context.Background()

	ab := pair("A", "B")
	ba := pair("B", "A")

	err := c.PutMany(ctx, map[domain.PairKey]domain.TravelCost{
		ab: {DurationSeconds: 300, DistanceMeters: 1000},
		ba: {DurationSeconds: 360, DistanceMeters: 1100},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := c.GetMany(ctx, []domain.PairKey{ab, ba, pair("A", "C")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(got) != 2 {
		t.Fatalf("expected 2 hits, got %d", len(got))
	}

	// Directional: A->B must not be served for B->A.
	if got[ab].DurationSeconds != 300 || got[ba].DurationSeconds != 360 {
		t.Fatalf("wrong cached values: %+v", got)
	}
}

func TestMemoryCacheEvictsOldestAtCapacity(t *testing.T) {
	c := NewMemoryTravelCostCache(4, time.Minute)
	ctx := context.Background()

	for i := 0; i < 8; i++ {
		p := pair(fmt.Sprintf("P%d", i), "X")
		if err := c.PutMany(ctx, map[domain.PairKey]domain.TravelCost{p: {DurationSeconds: i}}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	if c.Len() > 4 {
		t.Fatalf("cache exceeded capacity: len=%d", c.Len())
	}

	got, err := c.GetMany(ctx, []domain.PairKey{pair("P0", "X"), pair("P7", "X")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := got[pair("P0", "X")]; ok {
		t.Fatalf("oldest entry should have been evicted")
	}
	if _, ok := got[pair("P7", "X")]; !ok {
		t.Fatalf("newest entry should be retained")
	}
}

func TestMemoryCacheLastWriteWins(t *testing.T) {
	c := NewMemoryTravelCostCache(16, time.Minute)
	ctx := context.Background()
	ab := pair("A", "B")

	_ = c.PutMany(ctx, map[domain.PairKey]domain.TravelCost{ab: {DurationSeconds: 100}})
	_ = c.PutMany(ctx, map[domain.PairKey]domain.TravelCost{ab: {DurationSeconds: 200}})

	got, _ := c.GetMany(ctx, []domain.PairKey{ab})
	if got[ab].DurationSeconds != 200 {
		t.Fatalf("expected last write to win, got %d", got[ab].DurationSeconds)
	}
}
