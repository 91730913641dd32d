package domain

import "time"

// Shipment is one rider encoded as a paired pickup/delivery job.
// PickupIndex and DeliveryIndex point into the instance matrix.
type Shipment struct {
	RiderID        string
	Demand         int
	ServiceSeconds int
	PickupIndex    int
	DeliveryIndex  int
	WindowStart    time.Time
	WindowEnd      time.Time
}

// VehicleResource is a vehicle encoded for the solver, with its start
// location resolved to a matrix index.
type VehicleResource struct {
	VehicleID   string
	Capacity    int
	CostWeight  float64
	StartIndex  int
	WindowStart time.Time
	WindowEnd   time.Time
}

// ProblemInstance is the full CPDPTW encoding handed to the solver.
// Built fresh per dispatch run and never mutated after submission.
//
// Vehicle ordering is stable and sorted by (capacity asc, cost weight asc,
// id asc) so that, all else equal, smaller and cheaper vehicles are offered
// first to the solver's cost function. Shipments keep rider input order.
// The decoder relies on both orderings to translate solver indices back to
// vehicle and rider identities.
type ProblemInstance struct {
	Vehicles      []VehicleResource
	Shipments     []Shipment
	Matrix        *Matrix
	ReferenceTime time.Time

	// Scalarized edge costs. Duration carries a matrix-derived weight
	// larger than any solution's total distance, so distance only breaks
	// ties between equal-duration routings.
	CostMatrix [][]int

	// Riders excluded before encoding, with their reasons.
	PreUnassigned []UnassignedRider
}
