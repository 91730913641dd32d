package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"ride-dispatch-service/internal/api/dto"
	"ride-dispatch-service/internal/dispatch"
	"ride-dispatch-service/internal/domain"
	"ride-dispatch-service/internal/platform/obs"
	"ride-dispatch-service/internal/ports"
)

// Defaults applied to sparse records. A vehicle without a window works the
// whole service day; a rider giving only a requested pickup time may be
// picked up at most maxWait early.
const (
	defaultVehicleCapacity = 4
	dayStartHour           = 8
	dayEndHour             = 17
	defaultServiceTime     = 5 * time.Minute
	maxWait                = 5 * time.Minute
)

// DispatchPlanner is the planning pipeline as the handler sees it.
type DispatchPlanner interface {
	Plan(ctx context.Context, req dispatch.Request) (*domain.DispatchPlan, error)
}

type DispatchHandler struct {
	Planner DispatchPlanner
}

// Dispatch runs one planning request end-to-end. Oracle or solver
// unavailability maps to 502: the failure is upstream, not here.
func (h *DispatchHandler) Dispatch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req dto.DispatchRequest

	dec := json.NewDecoder(r.Body)
	defer r.Body.Close()
	dec.DisallowUnknownFields()

	if err := dec.Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid json body")
		return
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		writeError(w, r, http.StatusBadRequest, "body must contain only one JSON object")
		return
	}

	now := time.Now().UTC()
	if req.Now != nil {
		now = req.Now.UTC()
	}

	planReq, err := toPlanRequest(req, now)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	plan, err := h.Planner.Plan(r.Context(), planReq)
	if err != nil {
		var encErr *dispatch.ProblemEncodingError
		switch {
		case errors.Is(err, ports.ErrOracleUnavailable):
			writeError(w, r, http.StatusBadGateway, "routing oracle unavailable")
		case errors.Is(err, ports.ErrSolverUnavailable):
			writeError(w, r, http.StatusBadGateway, "optimization engine unavailable")
		case errors.As(err, &encErr):
			writeError(w, r, http.StatusBadRequest, encErr.Error())
		default:
			obs.Logger.WithError(err).Error("dispatch run failed")
			writeError(w, r, http.StatusInternalServerError, "internal server error")
		}
		return
	}

	writeJSON(w, r, http.StatusOK, toResponse(plan))
}

func toPlanRequest(req dto.DispatchRequest, now time.Time) (dispatch.Request, error) {
	if len(req.Vehicles) == 0 {
		return dispatch.Request{}, fmt.Errorf("at least one vehicle is required")
	}

	dayStart := time.Date(now.Year(), now.Month(), now.Day(), dayStartHour, 0, 0, 0, time.UTC)
	dayEnd := time.Date(now.Year(), now.Month(), now.Day(), dayEndHour, 0, 0, 0, time.UTC)

	vehicles := make([]domain.Vehicle, 0, len(req.Vehicles))
	ids := map[string]struct{}{}
	for _, v := range req.Vehicles {
		if v.ID == "" {
			return dispatch.Request{}, fmt.Errorf("vehicle id is required")
		}
		if _, dup := ids[v.ID]; dup {
			return dispatch.Request{}, fmt.Errorf("duplicate vehicle id %q", v.ID)
		}
		ids[v.ID] = struct{}{}

		capacity := v.Capacity
		if capacity == 0 {
			capacity = defaultVehicleCapacity
		}
		if capacity < 1 {
			return dispatch.Request{}, fmt.Errorf("vehicle %s: capacity must be positive", v.ID)
		}

		ws, we := dayStart, dayEnd
		if v.WindowStart != nil {
			ws = v.WindowStart.UTC()
		}
		if v.WindowEnd != nil {
			we = v.WindowEnd.UTC()
		}
		if !ws.Before(we) {
			return dispatch.Request{}, fmt.Errorf("vehicle %s: window start must precede window end", v.ID)
		}

		vehicles = append(vehicles, domain.Vehicle{
			ID:          v.ID,
			Capacity:    capacity,
			Location:    domain.Location{Lat: v.Location.Lat, Lon: v.Location.Lon},
			WindowStart: ws,
			WindowEnd:   we,
			CostWeight:  v.CostWeight,
		})
	}

	riders := make([]domain.Rider, 0, len(req.Riders))
	riderIDs := map[string]struct{}{}
	for _, rr := range req.Riders {
		if rr.ID == "" {
			return dispatch.Request{}, fmt.Errorf("rider id is required")
		}
		if _, dup := riderIDs[rr.ID]; dup {
			return dispatch.Request{}, fmt.Errorf("duplicate rider id %q", rr.ID)
		}
		riderIDs[rr.ID] = struct{}{}

		passengers := rr.Passengers
		if passengers == 0 {
			passengers = 1
		}
		if passengers < 1 {
			return dispatch.Request{}, fmt.Errorf("rider %s: passengers must be positive", rr.ID)
		}

		service := defaultServiceTime
		if rr.ServiceSeconds > 0 {
			service = time.Duration(rr.ServiceSeconds) * time.Second
		}

		var ws, we time.Time
		switch {
		case rr.WindowStart != nil && rr.WindowEnd != nil:
			ws, we = rr.WindowStart.UTC(), rr.WindowEnd.UTC()
		case rr.PickupAt != nil:
			we = rr.PickupAt.UTC()
			ws = we.Add(-maxWait)
		default:
			return dispatch.Request{}, fmt.Errorf("rider %s: a time window or pickup_at is required", rr.ID)
		}
		if !ws.Before(we) {
			return dispatch.Request{}, fmt.Errorf("rider %s: window start must precede window end", rr.ID)
		}

		riders = append(riders, domain.Rider{
			ID:          rr.ID,
			Passengers:  passengers,
			Pickup:      domain.Location{Lat: rr.Pickup.Lat, Lon: rr.Pickup.Lon},
			Dropoff:     domain.Location{Lat: rr.Dropoff.Lat, Lon: rr.Dropoff.Lon},
			ServiceTime: service,
			WindowStart: ws,
			WindowEnd:   we,
		})
	}

	return dispatch.Request{Vehicles: vehicles, Riders: riders, Now: now}, nil
}

func toResponse(plan *domain.DispatchPlan) dto.DispatchResponse {
	res := dto.DispatchResponse{
		RunID:       plan.RunID,
		GeneratedAt: plan.GeneratedAt,
		Routes:      make([]dto.RouteResponse, 0, len(plan.Routes)),
		Unassigned:  make([]dto.UnassignedResponse, 0, len(plan.Unassigned)),
	}

	for _, route := range plan.Routes {
		stops := make([]dto.StopResponse, 0, len(route.Stops))
		for _, s := range route.Stops {
			stops = append(stops, dto.StopResponse{
				RiderID:  s.RiderID,
				Kind:     string(s.Kind),
				Location: dto.LocationDTO{Lat: s.Location.Lat, Lon: s.Location.Lon},
				ETA:      s.ETA,
				Load:     s.Load,
			})
		}
		res.Routes = append(res.Routes, dto.RouteResponse{
			VehicleID:            route.VehicleID,
			Capacity:             route.Capacity,
			TotalDurationSeconds: route.TotalDurationSeconds,
			TotalDistanceMeters:  route.TotalDistanceMeters,
			Stops:                stops,
		})
	}

	for _, u := range plan.Unassigned {
		res.Unassigned = append(res.Unassigned, dto.UnassignedResponse{
			RiderID: u.RiderID,
			Reason:  string(u.Reason),
		})
	}

	return res
}
