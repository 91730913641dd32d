package ports

import (
	"context"

	"ride-dispatch-service/internal/domain"
)

// Port: a bounded memoization store for directional travel cost lookups.
//
// Implementations must be safe for concurrent use; the cache is the only
// state shared between dispatch runs. A write race on the same key is
// resolved last-write-wins, which is acceptable because all writes for a
// key carry equivalent oracle responses within their freshness window.
// Correctness never depends on cache contents: a cold cache is always
// valid, only slower.
type TravelCostCache interface {
	// GetMany returns the cached costs for the requested pairs; absent
	// pairs are simply missing from the result map.
	GetMany(ctx context.Context, pairs []domain.PairKey) (map[domain.PairKey]domain.TravelCost, error)
	// PutMany stores costs for the given pairs.
	PutMany(ctx context.Context, costs map[domain.PairKey]domain.TravelCost) error
}
