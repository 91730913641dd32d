package domain

// SolverStatus classifies the outcome of one solver invocation.
type SolverStatus string

const (
	// All shipments routed.
	SolverOptimal SolverStatus = "optimal"
	// Some shipments routed, some explicitly reported unroutable.
	SolverPartial SolverStatus = "partial"
	// The solver reports no feasible routing exists.
	SolverInfeasible SolverStatus = "infeasible"
	// Malformed or unexpected solver response.
	SolverError SolverStatus = "error"
)

// StepKind tags one step of a solver route.
type StepKind string

const (
	StepStart    StepKind = "start"
	StepPickup   StepKind = "pickup"
	StepDelivery StepKind = "delivery"
	StepEnd      StepKind = "end"
)

// SolverStep is one stop of a solver route. Shipment is an index into
// ProblemInstance.Shipments; it is meaningless for start/end steps.
// ArrivalSeconds is the solver's arrival estimate as a Unix timestamp.
type SolverStep struct {
	Kind           StepKind
	Shipment       int
	ArrivalSeconds int64
}

// SolverRoute is an ordered stop list for one vehicle, referenced by its
// index into ProblemInstance.Vehicles.
type SolverRoute struct {
	Vehicle int
	Steps   []SolverStep
}

// SolverResult is the classified outcome of a solve call. Routes and
// Unrouted are only meaningful when Status is Optimal or Partial.
type SolverResult struct {
	Status   SolverStatus
	Routes   []SolverRoute
	Unrouted []int
}
