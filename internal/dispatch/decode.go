package dispatch

import (
	"context"
	"time"

	"ride-dispatch-service/internal/domain"
	"ride-dispatch-service/internal/platform/obs"
)

// Decode translates solver routes back to vehicle and rider identities via
// the instance's stable orderings and assembles the dispatch plan.
//
// Arrival estimates are recomputed from the travel matrix rather than
// trusted from the solver, and every placement is re-checked against the
// capacity, window, and pickup-before-delivery constraints. A correct
// solver never violates these; when one does, the affected rider is
// downgraded to unassigned instead of shipping an invalid plan, and the
// violation is logged for investigation.
func Decode(
	ctx context.Context,
	instance *domain.ProblemInstance,
	result *domain.SolverResult,
) *domain.DispatchPlan {
	unassigned := make([]domain.UnassignedRider, 0, len(instance.PreUnassigned))
	unassigned = append(unassigned, instance.PreUnassigned...)

	unroutedReason := domain.ReasonSolverUnrouted
	if result.Status == domain.SolverInfeasible {
		unroutedReason = domain.ReasonSolverInfeasible
	}
	accounted := make(map[int]struct{}, len(instance.Shipments))
	for _, si := range result.Unrouted {
		if si < 0 || si >= len(instance.Shipments) {
			obs.WithRun(ctx).WithField("shipment", si).
				Warn("solver reported unknown shipment as unrouted")
			continue
		}
		if _, dup := accounted[si]; dup {
			continue
		}
		accounted[si] = struct{}{}
		unassigned = append(unassigned, domain.UnassignedRider{
			RiderID: instance.Shipments[si].RiderID,
			Reason:  unroutedReason,
		})
	}

	routes := make([]domain.VehicleRoute, 0, len(result.Routes))
	for _, sr := range result.Routes {
		if sr.Vehicle < 0 || sr.Vehicle >= len(instance.Vehicles) {
			obs.WithRun(ctx).WithField("vehicle", sr.Vehicle).
				Warn("solver reported route for unknown vehicle")
			continue
		}
		vehicle := instance.Vehicles[sr.Vehicle]

		steps := stopSteps(ctx, instance, sr, accounted)
		skip := map[int]struct{}{}
		var route domain.VehicleRoute
		for {
			var violated int
			route, violated = replay(instance, vehicle, steps, skip)
			if violated < 0 {
				break
			}
			obs.WithRun(ctx).WithFields(map[string]interface{}{
				"vehicle": vehicle.VehicleID,
				"rider":   instance.Shipments[violated].RiderID,
			}).Warn("solver placement violates constraints, downgrading rider")
			skip[violated] = struct{}{}
		}
		if len(route.Stops) > 0 {
			routes = append(routes, route)
		}

		for _, st := range steps {
			if _, bad := skip[st.Shipment]; !bad {
				accounted[st.Shipment] = struct{}{}
				continue
			}
			if _, dup := accounted[st.Shipment]; dup {
				continue
			}
			accounted[st.Shipment] = struct{}{}
			unassigned = append(unassigned, domain.UnassignedRider{
				RiderID: instance.Shipments[st.Shipment].RiderID,
				Reason:  domain.ReasonPostHocInfeasible,
			})
		}
	}

	// A shipment the solver neither routed nor reported unroutable would
	// otherwise vanish from the plan silently.
	for si, sh := range instance.Shipments {
		if _, ok := accounted[si]; ok {
			continue
		}
		obs.WithRun(ctx).WithField("rider", sh.RiderID).
			Warn("solver dropped shipment without reporting it")
		unassigned = append(unassigned, domain.UnassignedRider{
			RiderID: sh.RiderID,
			Reason:  unroutedReason,
		})
	}

	return &domain.DispatchPlan{Routes: routes, Unassigned: unassigned}
}

// stopSteps filters a solver route down to its pickup and delivery steps,
// dropping start/end markers and steps pointing at unknown shipments.
// Steps for shipments already claimed by an earlier route or by the
// unrouted list are dropped too: a rider sits in at most one stop
// sequence or the unassigned list, never both, and the first claim wins.
func stopSteps(
	ctx context.Context,
	instance *domain.ProblemInstance,
	sr domain.SolverRoute,
	accounted map[int]struct{},
) []domain.SolverStep {
	steps := make([]domain.SolverStep, 0, len(sr.Steps))
	dropped := map[int]struct{}{}
	for _, st := range sr.Steps {
		if st.Kind != domain.StepPickup && st.Kind != domain.StepDelivery {
			continue
		}
		if st.Shipment < 0 || st.Shipment >= len(instance.Shipments) {
			continue
		}
		if _, claimed := accounted[st.Shipment]; claimed {
			if _, warned := dropped[st.Shipment]; !warned {
				dropped[st.Shipment] = struct{}{}
				obs.WithRun(ctx).WithField("rider", instance.Shipments[st.Shipment].RiderID).
					Warn("solver placed shipment twice, keeping first placement")
			}
			continue
		}
		steps = append(steps, st)
	}
	return steps
}

// replay walks a vehicle's step sequence, recomputing arrival times from
// the matrix and tracking concurrent load, and returns the materialized
// route. The second return is the shipment index of the first constraint
// violation, or -1 when the route is clean.
func replay(
	instance *domain.ProblemInstance,
	vehicle domain.VehicleResource,
	steps []domain.SolverStep,
	skip map[int]struct{},
) (domain.VehicleRoute, int) {
	m := instance.Matrix
	route := domain.VehicleRoute{
		VehicleID:  vehicle.VehicleID,
		Capacity:   vehicle.Capacity,
		CostWeight: vehicle.CostWeight,
	}

	at := vehicle.StartIndex
	clock := vehicle.WindowStart.Unix()
	load := 0
	aboard := map[int]struct{}{}

	for _, st := range steps {
		si := st.Shipment
		if _, bad := skip[si]; bad {
			continue
		}
		sh := instance.Shipments[si]

		var dest int
		switch st.Kind {
		case domain.StepPickup:
			if _, dup := aboard[si]; dup {
				return route, si
			}
			dest = sh.PickupIndex
		case domain.StepDelivery:
			// Delivery before its pickup.
			if _, ok := aboard[si]; !ok {
				return route, si
			}
			dest = sh.DeliveryIndex
		}

		leg := m.At(at, dest)
		arrival := clock + int64(leg.DurationSeconds)

		stop := domain.Stop{
			RiderID:  sh.RiderID,
			Kind:     domain.StopPickup,
			Location: m.Locations[dest],
		}
		if st.Kind == domain.StepPickup {
			if ws := sh.WindowStart.Unix(); arrival < ws {
				arrival = ws
			}
			if arrival > sh.WindowEnd.Unix() {
				return route, si
			}
			load += sh.Demand
			if load > vehicle.Capacity {
				return route, si
			}
			aboard[si] = struct{}{}
			clock = arrival + int64(sh.ServiceSeconds)
		} else {
			stop.Kind = domain.StopDelivery
			delete(aboard, si)
			load -= sh.Demand
			clock = arrival
		}
		if arrival > vehicle.WindowEnd.Unix() {
			return route, si
		}

		stop.ETA = time.Unix(arrival, 0).UTC()
		stop.Load = load
		route.TotalDurationSeconds += leg.DurationSeconds
		route.TotalDistanceMeters += leg.DistanceMeters
		route.Stops = append(route.Stops, stop)
		at = dest
	}

	// A pickup with no matching delivery leaves a rider stranded aboard.
	stranded := -1
	for si := range aboard {
		if stranded < 0 || si < stranded {
			stranded = si
		}
	}
	return route, stranded
}
