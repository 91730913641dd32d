package dispatch

import (
	"fmt"
	"sort"
	"time"

	"ride-dispatch-service/internal/domain"
)

// ProblemEncodingError marks input that cannot be turned into a solvable
// instance at all. Per-rider problems are not encoding errors: those riders
// are excluded and recorded as pre-unassigned instead.
type ProblemEncodingError struct {
	Detail string
}

func (e *ProblemEncodingError) Error() string {
	return fmt.Sprintf("problem encoding: %s", e.Detail)
}

// Encode builds a solver instance from vehicle and rider records and a
// complete travel matrix.
//
// Vehicles are sorted by (capacity asc, cost weight asc, id asc) so that,
// all else equal, smaller and cheaper vehicles come first; the decoder and
// ranker rely on this ordering. Riders keep input order. Riders whose
// demand exceeds every vehicle's capacity, or whose window already closed
// at the reference time, are excluded and recorded with their reason.
func Encode(
	vehicles []domain.Vehicle,
	riders []domain.Rider,
	matrix *domain.Matrix,
	now time.Time,
) (*domain.ProblemInstance, error) {
	if len(vehicles) == 0 {
		return nil, &ProblemEncodingError{Detail: "no vehicles"}
	}
	if matrix == nil {
		return nil, &ProblemEncodingError{Detail: "no travel matrix"}
	}

	sorted := make([]domain.Vehicle, len(vehicles))
	copy(sorted, vehicles)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.Capacity != b.Capacity {
			return a.Capacity < b.Capacity
		}
		if a.CostWeight != b.CostWeight {
			return a.CostWeight < b.CostWeight
		}
		return a.ID < b.ID
	})

	maxCapacity := 0
	resources := make([]domain.VehicleResource, 0, len(sorted))
	for _, v := range sorted {
		start, ok := matrix.Index(v.Location)
		if !ok {
			return nil, &ProblemEncodingError{
				Detail: fmt.Sprintf("vehicle %s location missing from matrix", v.ID),
			}
		}
		if v.Capacity > maxCapacity {
			maxCapacity = v.Capacity
		}
		resources = append(resources, domain.VehicleResource{
			VehicleID:   v.ID,
			Capacity:    v.Capacity,
			CostWeight:  v.CostWeight,
			StartIndex:  start,
			WindowStart: v.WindowStart,
			WindowEnd:   v.WindowEnd,
		})
	}

	shipments := make([]domain.Shipment, 0, len(riders))
	pre := make([]domain.UnassignedRider, 0)
	for _, r := range riders {
		if r.Passengers > maxCapacity {
			pre = append(pre, domain.UnassignedRider{
				RiderID: r.ID, Reason: domain.ReasonInfeasibleDemand,
			})
			continue
		}
		if r.WindowEnd.Before(now) {
			pre = append(pre, domain.UnassignedRider{
				RiderID: r.ID, Reason: domain.ReasonWindowExpired,
			})
			continue
		}

		pickup, ok := matrix.Index(r.Pickup)
		if !ok {
			return nil, &ProblemEncodingError{
				Detail: fmt.Sprintf("rider %s pickup missing from matrix", r.ID),
			}
		}
		delivery, ok := matrix.Index(r.Dropoff)
		if !ok {
			return nil, &ProblemEncodingError{
				Detail: fmt.Sprintf("rider %s dropoff missing from matrix", r.ID),
			}
		}

		shipments = append(shipments, domain.Shipment{
			RiderID:        r.ID,
			Demand:         r.Passengers,
			ServiceSeconds: int(r.ServiceTime / time.Second),
			PickupIndex:    pickup,
			DeliveryIndex:  delivery,
			WindowStart:    r.WindowStart,
			WindowEnd:      r.WindowEnd,
		})
	}

	n := matrix.Size()
	weight := durationWeight(matrix, len(shipments), len(resources))
	costs := make([][]int, n)
	for i := 0; i < n; i++ {
		costs[i] = make([]int, n)
		for j := 0; j < n; j++ {
			c := matrix.At(i, j)
			costs[i][j] = c.DurationSeconds*weight + c.DistanceMeters
		}
	}

	return &domain.ProblemInstance{
		Vehicles:      resources,
		Shipments:     shipments,
		Matrix:        matrix,
		CostMatrix:    costs,
		ReferenceTime: now,
		PreUnassigned: pre,
	}, nil
}

// durationWeight is the factor duration is scaled by in the scalarized
// cost matrix. It exceeds the distance a whole solution can accumulate
// (every shipment adds at most two legs, every vehicle one), so one extra
// second always outweighs any distance saving and distance only breaks
// ties between equal-duration routings.
func durationWeight(m *domain.Matrix, shipments, vehicles int) int {
	maxDist := 0
	for i := 0; i < m.Size(); i++ {
		for j := 0; j < m.Size(); j++ {
			if d := m.At(i, j).DistanceMeters; d > maxDist {
				maxDist = d
			}
		}
	}
	return maxDist*(2*shipments+vehicles) + 1
}
