package routing

import (
	"context"
	"fmt"

	"ride-dispatch-service/internal/domain"
)

type MockPair struct {
	From, To domain.Location
	Seconds  int
	Meters   int
}

// MockMatrixProvider serves matrices from a fixed pair table. Missing
// pairs fail the build, mirroring the real provider's all-or-nothing
// contract. When Err is set, every build fails with it.
type MockMatrixProvider struct {
	m   map[domain.PairKey]domain.TravelCost
	Err error
}

func NewMockMatrixProvider(pairs []MockPair) *MockMatrixProvider {
	m := make(map[domain.PairKey]domain.TravelCost, len(pairs))
	for _, p := range pairs {
		m[domain.PairKey{From: p.From.Key(), To: p.To.Key()}] = domain.TravelCost{
			DurationSeconds: p.Seconds,
			DistanceMeters:  p.Meters,
		}
	}
	return &MockMatrixProvider{m: m}
}

func (p *MockMatrixProvider) BuildMatrix(_ context.Context, locations []domain.Location) (*domain.Matrix, error) {
	if p.Err != nil {
		return nil, p.Err
	}

	seen := make(map[domain.LocationKey]struct{}, len(locations))
	uniq := make([]domain.Location, 0, len(locations))
	for _, loc := range locations {
		k := loc.Key()
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		uniq = append(uniq, loc)
	}

	cells := make([][]domain.TravelCost, len(uniq))
	for i := range uniq {
		cells[i] = make([]domain.TravelCost, len(uniq))
		for j := range uniq {
			if i == j {
				continue
			}
			key := domain.PairKey{From: uniq[i].Key(), To: uniq[j].Key()}
			tc, ok := p.m[key]
			if !ok {
				return nil, fmt.Errorf("missing pair %s", key)
			}
			cells[i][j] = tc
		}
	}

	return domain.NewMatrix(uniq, cells)
}
