package solver

import (
	"context"
	"time"

	"ride-dispatch-service/internal/domain"
)

// GreedySolver is an in-process insertion engine behind the RouteSolver
// contract, used when no external optimization engine is configured and
// as a deterministic engine for tests.
//
// Shipments are taken in instance order and appended to the first vehicle
// that can feasibly serve them; vehicles are tried in instance order,
// which the encoder sorts by (capacity asc, cost weight asc, id asc), so
// smaller and cheaper vehicles absorb work first. The engine never
// interleaves shipments on one vehicle: each pickup is followed by its
// delivery, matching the no-pooling simplification of the problem.
// It does not attempt global optimization.
type GreedySolver struct{}

func NewGreedySolver() *GreedySolver { return &GreedySolver{} }

type vehicleState struct {
	at   int // current matrix index
	time int64
}

func (s *GreedySolver) Solve(
	ctx context.Context,
	instance *domain.ProblemInstance,
	_ time.Duration,
) (*domain.SolverResult, error) {
	states := make([]vehicleState, len(instance.Vehicles))
	routes := make([]domain.SolverRoute, len(instance.Vehicles))
	for i, v := range instance.Vehicles {
		states[i] = vehicleState{at: v.StartIndex, time: v.WindowStart.Unix()}
		routes[i] = domain.SolverRoute{
			Vehicle: i,
			Steps: []domain.SolverStep{
				{Kind: domain.StepStart, ArrivalSeconds: v.WindowStart.Unix()},
			},
		}
	}

	m := instance.Matrix
	unrouted := make([]int, 0)

	for si, sh := range instance.Shipments {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		placed := false
		for vi, v := range instance.Vehicles {
			if sh.Demand > v.Capacity {
				continue
			}

			st := states[vi]
			pickupArrival := st.time + int64(m.At(st.at, sh.PickupIndex).DurationSeconds)
			if pickupArrival < sh.WindowStart.Unix() {
				pickupArrival = sh.WindowStart.Unix()
			}
			if pickupArrival > sh.WindowEnd.Unix() || pickupArrival > v.WindowEnd.Unix() {
				continue
			}

			depart := pickupArrival + int64(sh.ServiceSeconds)
			deliveryArrival := depart + int64(m.At(sh.PickupIndex, sh.DeliveryIndex).DurationSeconds)
			if deliveryArrival > v.WindowEnd.Unix() {
				continue
			}

			routes[vi].Steps = append(routes[vi].Steps,
				domain.SolverStep{Kind: domain.StepPickup, Shipment: si, ArrivalSeconds: pickupArrival},
				domain.SolverStep{Kind: domain.StepDelivery, Shipment: si, ArrivalSeconds: deliveryArrival},
			)
			states[vi] = vehicleState{at: sh.DeliveryIndex, time: deliveryArrival}
			placed = true
			break
		}

		if !placed {
			unrouted = append(unrouted, si)
		}
	}

	status := domain.SolverOptimal
	switch {
	case len(instance.Shipments) > 0 && len(unrouted) == len(instance.Shipments):
		status = domain.SolverInfeasible
	case len(unrouted) > 0:
		status = domain.SolverPartial
	}

	return &domain.SolverResult{Status: status, Routes: routes, Unrouted: unrouted}, nil
}
