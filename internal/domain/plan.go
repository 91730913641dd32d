package domain

import "time"

// UnassignReason is the reason code attached to an unassigned rider.
type UnassignReason string

const (
	// Rider demand exceeds every vehicle's capacity.
	ReasonInfeasibleDemand UnassignReason = "infeasible_demand"
	// Rider's requested window was already closed at the run's reference time.
	ReasonWindowExpired UnassignReason = "window_expired"
	// The solver explicitly reported the rider's shipment unroutable.
	ReasonSolverUnrouted UnassignReason = "solver_unrouted"
	// The solver reported no feasible routing exists at all.
	ReasonSolverInfeasible UnassignReason = "solver_infeasible"
	// The decoder found the solver's placement inconsistent with the
	// original constraints and downgraded the rider.
	ReasonPostHocInfeasible UnassignReason = "posthoc_infeasible"
)

type UnassignedRider struct {
	RiderID string
	Reason  UnassignReason
}

// StopKind tags a dispatch stop as a pickup or a delivery.
type StopKind string

const (
	StopPickup   StopKind = "pickup"
	StopDelivery StopKind = "delivery"
)

// Stop is one stop of a vehicle's dispatch sequence. Load is the concurrent
// passenger count after the stop is serviced.
type Stop struct {
	RiderID  string
	Kind     StopKind
	Location Location
	ETA      time.Time
	Load     int
}

// VehicleRoute is the ordered stop sequence planned for one vehicle,
// with aggregate travel metrics. Vehicles with no assigned riders are
// omitted from the plan.
type VehicleRoute struct {
	VehicleID            string
	Capacity             int
	CostWeight           float64
	Stops                []Stop
	TotalDurationSeconds int
	TotalDistanceMeters  int
}

// DispatchPlan is the system's output artifact: per-vehicle stop sequences
// plus the unassigned riders with reason codes. It is immutable planning
// data and contains no side effects.
type DispatchPlan struct {
	RunID       string
	GeneratedAt time.Time
	Routes      []VehicleRoute
	Unassigned  []UnassignedRider
}

// AssignedRiders returns the ids of all riders present in a stop sequence.
func (p *DispatchPlan) AssignedRiders() []string {
	seen := map[string]struct{}{}
	out := make([]string, 0)
	for _, r := range p.Routes {
		for _, s := range r.Stops {
			if _, ok := seen[s.RiderID]; ok {
				continue
			}
			seen[s.RiderID] = struct{}{}
			out = append(out, s.RiderID)
		}
	}
	return out
}
