package dispatch

import (
	"sort"

	"ride-dispatch-service/internal/domain"
)

// Rank finalizes a decoded plan deterministically. It is idempotent:
// ranking an already-ranked plan changes nothing.
//
// Two things happen here. First, when a route could sit on an idle vehicle
// of strictly lower rank at identical traffic-weighted cost, the route
// moves there; rank order is (capacity asc, cost weight asc, id asc), so
// ties between equally-costed feasible assignments always resolve to the
// smaller, cheaper, lexicographically first vehicle. Second, routes and
// unassigned riders are sorted by an explicit total order so the output
// never depends on solver response ordering or map iteration.
func Rank(plan *domain.DispatchPlan, instance *domain.ProblemInstance) *domain.DispatchPlan {
	rank := make(map[string]int, len(instance.Vehicles))
	for i, v := range instance.Vehicles {
		rank[v.VehicleID] = i
	}

	busy := make(map[string]struct{}, len(plan.Routes))
	for _, r := range plan.Routes {
		busy[r.VehicleID] = struct{}{}
	}

	// Lowest-ranked routes claim idle vehicles first, keeping the result
	// independent of the order the solver emitted routes in.
	order := make([]int, len(plan.Routes))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool {
		return rank[plan.Routes[order[i]].VehicleID] < rank[plan.Routes[order[j]].VehicleID]
	})

	for _, ri := range order {
		route := &plan.Routes[ri]
		current := rank[route.VehicleID]
		for vi := 0; vi < current; vi++ {
			candidate := instance.Vehicles[vi]
			if _, taken := busy[candidate.VehicleID]; taken {
				continue
			}
			if !sameCostFeasible(instance, candidate, route) {
				continue
			}
			delete(busy, route.VehicleID)
			busy[candidate.VehicleID] = struct{}{}
			route.VehicleID = candidate.VehicleID
			route.Capacity = candidate.Capacity
			route.CostWeight = candidate.CostWeight
			break
		}
	}

	sort.SliceStable(plan.Routes, func(i, j int) bool {
		return rank[plan.Routes[i].VehicleID] < rank[plan.Routes[j].VehicleID]
	})
	sort.SliceStable(plan.Unassigned, func(i, j int) bool {
		return plan.Unassigned[i].RiderID < plan.Unassigned[j].RiderID
	})

	return plan
}

// sameCostFeasible reports whether a route can move to candidate without
// changing a single stop time or the total traffic-weighted cost. That
// requires the candidate's first leg to match the incumbent's in both
// duration and distance, an identical availability start, room for the
// route's peak load, and a window covering the last stop.
func sameCostFeasible(
	instance *domain.ProblemInstance,
	candidate domain.VehicleResource,
	route *domain.VehicleRoute,
) bool {
	if len(route.Stops) == 0 {
		return false
	}

	incumbent, ok := vehicleByID(instance, route.VehicleID)
	if !ok {
		return false
	}
	if !candidate.WindowStart.Equal(incumbent.WindowStart) {
		return false
	}

	peak := 0
	for _, s := range route.Stops {
		if s.Load > peak {
			peak = s.Load
		}
	}
	if peak > candidate.Capacity {
		return false
	}

	last := route.Stops[len(route.Stops)-1].ETA
	if last.After(candidate.WindowEnd) {
		return false
	}

	first, ok := instance.Matrix.Index(route.Stops[0].Location)
	if !ok {
		return false
	}
	return instance.Matrix.At(candidate.StartIndex, first) ==
		instance.Matrix.At(incumbent.StartIndex, first)
}

func vehicleByID(instance *domain.ProblemInstance, id string) (domain.VehicleResource, bool) {
	for _, v := range instance.Vehicles {
		if v.VehicleID == id {
			return v, true
		}
	}
	return domain.VehicleResource{}, false
}
