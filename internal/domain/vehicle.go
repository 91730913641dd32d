package domain

import "time"

// Vehicle is a fleet resource available for one dispatch run.
// It is immutable for the duration of the run: records are created from
// input data and discarded after the plan is produced.
//
// CostWeight is the vehicle's relative operating cost; smaller is cheaper
// and preferred when routings are otherwise tied.
type Vehicle struct {
	ID          string
	Capacity    int
	Location    Location
	WindowStart time.Time
	WindowEnd   time.Time
	CostWeight  float64
}

// Rider is a single transport request: a pickup and a dropoff with a
// passenger count, a service duration at the pickup stop, and a requested
// pickup window. Immutable per run.
type Rider struct {
	ID          string
	Passengers  int
	Pickup      Location
	Dropoff     Location
	ServiceTime time.Duration
	WindowStart time.Time
	WindowEnd   time.Time
}
