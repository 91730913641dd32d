package dto

import "time"

type LocationDTO struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

type VehicleRequest struct {
	ID          string      `json:"id"`
	Capacity    int         `json:"capacity"`
	Location    LocationDTO `json:"location"`
	WindowStart *time.Time  `json:"window_start"`
	WindowEnd   *time.Time  `json:"window_end"`
	CostWeight  float64     `json:"cost_weight"`
}

type RiderRequest struct {
	ID             string      `json:"id"`
	Passengers     int         `json:"passengers"`
	Pickup         LocationDTO `json:"pickup"`
	Dropoff        LocationDTO `json:"dropoff"`
	ServiceSeconds int         `json:"service_seconds"`
	// Either an explicit window or a requested pickup time, from which
	// the window is derived.
	WindowStart *time.Time `json:"window_start"`
	WindowEnd   *time.Time `json:"window_end"`
	PickupAt    *time.Time `json:"pickup_at"`
}

type DispatchRequest struct {
	Now      *time.Time       `json:"now"`
	Vehicles []VehicleRequest `json:"vehicles"`
	Riders   []RiderRequest   `json:"riders"`
}

type StopResponse struct {
	RiderID  string      `json:"rider_id"`
	Kind     string      `json:"kind"`
	Location LocationDTO `json:"location"`
	ETA      time.Time   `json:"eta"`
	Load     int         `json:"load"`
}

type RouteResponse struct {
	VehicleID            string         `json:"vehicle_id"`
	Capacity             int            `json:"capacity"`
	TotalDurationSeconds int            `json:"total_duration_seconds"`
	TotalDistanceMeters  int            `json:"total_distance_meters"`
	Stops                []StopResponse `json:"stops"`
}

type UnassignedResponse struct {
	RiderID string `json:"rider_id"`
	Reason  string `json:"reason"`
}

type DispatchResponse struct {
	RunID       string               `json:"run_id"`
	GeneratedAt time.Time            `json:"generated_at"`
	Routes      []RouteResponse      `json:"routes"`
	Unassigned  []UnassignedResponse `json:"unassigned"`
}
