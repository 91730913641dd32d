package solver

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"ride-dispatch-service/internal/domain"
	"ride-dispatch-service/internal/platform/obs"
	"ride-dispatch-service/internal/ports"
)

// VROOMSolver implements RouteSolver against a VROOM-compatible HTTP
// optimization engine. The encoded instance travels as one request; the
// response is classified into the SolverResult statuses. A transport
// failure triggers exactly one retry with a fresh timeout before
// surfacing ErrSolverUnavailable.
type VROOMSolver struct {
	session *http.Client
	baseURL string
	profile string
}

func NewVROOMSolver(baseURL string) (*VROOMSolver, error) {
	if baseURL == "" {
		return nil, errors.New("VROOM base url is empty")
	}

	return &VROOMSolver{
		session: &http.Client{},
		baseURL: baseURL,
		profile: "driving-car",
	}, nil
}

type vroomTimeWindow [2]int64

type vroomVehicle struct {
	ID         int             `json:"id"`
	Profile    string          `json:"profile"`
	StartIndex int             `json:"start_index"`
	Capacity   []int           `json:"capacity"`
	Skills     []int           `json:"skills"`
	TimeWindow vroomTimeWindow `json:"time_window"`
}

type vroomStop struct {
	ID            int               `json:"id"`
	Service       int               `json:"service,omitempty"`
	LocationIndex int               `json:"location_index"`
	TimeWindows   []vroomTimeWindow `json:"time_windows,omitempty"`
}

type vroomShipment struct {
	Amount   []int     `json:"amount"`
	Skills   []int     `json:"skills"`
	Pickup   vroomStop `json:"pickup"`
	Delivery vroomStop `json:"delivery"`
}

type vroomMatrix struct {
	Durations [][]int `json:"durations"`
	Distances [][]int `json:"distances"`
	Costs     [][]int `json:"costs"`
}

type vroomRequest struct {
	Vehicles  []vroomVehicle         `json:"vehicles"`
	Shipments []vroomShipment        `json:"shipments"`
	Matrices  map[string]vroomMatrix `json:"matrices"`
}

type vroomStep struct {
	Type    string `json:"type"`
	ID      int    `json:"id"`
	Arrival int64  `json:"arrival"`
}

type vroomRoute struct {
	Vehicle int         `json:"vehicle"`
	Steps   []vroomStep `json:"steps"`
}

type vroomUnassigned struct {
	ID int `json:"id"`
}

type vroomResponse struct {
	Code       int               `json:"code"`
	Error      string            `json:"error"`
	Routes     []vroomRoute      `json:"routes"`
	Unassigned []vroomUnassigned `json:"unassigned"`
}

// encode translates the instance into the engine's wire format. Seat
// eligibility rides on skills: a vehicle advertises one skill per seat
// and a shipment demands the skill matching its passenger count, so a
// job can never be offered to a vehicle too small for it.
func (s *VROOMSolver) encode(instance *domain.ProblemInstance) vroomRequest {
	vehicles := make([]vroomVehicle, 0, len(instance.Vehicles))
	for i, v := range instance.Vehicles {
		skills := make([]int, 0, v.Capacity)
		for seat := 1; seat <= v.Capacity; seat++ {
			skills = append(skills, seat)
		}
		vehicles = append(vehicles, vroomVehicle{
			ID:         i,
			Profile:    s.profile,
			StartIndex: v.StartIndex,
			Capacity:   []int{v.Capacity},
			Skills:     skills,
			TimeWindow: vroomTimeWindow{v.WindowStart.Unix(), v.WindowEnd.Unix()},
		})
	}

	shipments := make([]vroomShipment, 0, len(instance.Shipments))
	for i, sh := range instance.Shipments {
		shipments = append(shipments, vroomShipment{
			Amount: []int{sh.Demand},
			Skills: []int{sh.Demand},
			Pickup: vroomStop{
				ID:            i,
				Service:       sh.ServiceSeconds,
				LocationIndex: sh.PickupIndex,
				TimeWindows: []vroomTimeWindow{
					{sh.WindowStart.Unix(), sh.WindowEnd.Unix()},
				},
			},
			Delivery: vroomStop{
				ID:            i,
				LocationIndex: sh.DeliveryIndex,
			},
		})
	}

	return vroomRequest{
		Vehicles:  vehicles,
		Shipments: shipments,
		Matrices: map[string]vroomMatrix{
			s.profile: {
				Durations: instance.Matrix.Durations(),
				Distances: instance.Matrix.Distances(),
				Costs:     instance.CostMatrix,
			},
		},
	}
}

func (s *VROOMSolver) Solve(
	ctx context.Context,
	instance *domain.ProblemInstance,
	timeout time.Duration,
) (_ *domain.SolverResult, err error) {
	defer obs.Time(ctx, "solver.Solve")(&err)

	payload, err := json.Marshal(s.encode(instance))
	if err != nil {
		return nil, fmt.Errorf("solve: marshal instance: %w", err)
	}

	resp, err := s.attempt(ctx, payload, timeout)
	if err != nil && isTransport(err) && ctx.Err() == nil {
		obs.WithRun(ctx).WithError(err).Warn("solver transport failure, retrying once")
		resp, err = s.attempt(ctx, payload, timeout)
	}
	if err != nil {
		if isTransport(err) {
			obs.SolverRuns.WithLabelValues("unavailable").Inc()
			return nil, fmt.Errorf("solve: %v: %w", err, ports.ErrSolverUnavailable)
		}
		obs.SolverRuns.WithLabelValues("error").Inc()
		return &domain.SolverResult{Status: domain.SolverError}, fmt.Errorf("solve: %w", err)
	}

	result := classify(resp, len(instance.Shipments))
	obs.SolverRuns.WithLabelValues(string(result.Status)).Inc()
	return result, nil
}

// attempt submits the instance once under a fresh timeout.
func (s *VROOMSolver) attempt(ctx context.Context, payload []byte, timeout time.Duration) (*vroomResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := s.session.Do(req)
	if err != nil {
		return nil, &transportError{cause: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return nil, &transportError{cause: fmt.Errorf("status %d", resp.StatusCode)}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var vr vroomResponse
	if err := json.NewDecoder(resp.Body).Decode(&vr); err != nil {
		return nil, fmt.Errorf("decode solver response: %w", err)
	}

	if vr.Code != 0 {
		return nil, fmt.Errorf("solver code %d: %s", vr.Code, vr.Error)
	}

	return &vr, nil
}

// classify maps the raw engine response onto the solver status space.
// An engine answer is never an error by itself: unrouted shipments are a
// normal outcome the caller must report, not drop.
func classify(vr *vroomResponse, shipments int) *domain.SolverResult {
	unrouted := make([]int, 0, len(vr.Unassigned))
	seen := map[int]struct{}{}
	for _, u := range vr.Unassigned {
		// Pickup and delivery are reported separately under one id.
		if _, ok := seen[u.ID]; ok {
			continue
		}
		seen[u.ID] = struct{}{}
		unrouted = append(unrouted, u.ID)
	}

	routes := make([]domain.SolverRoute, 0, len(vr.Routes))
	routed := 0
	for _, r := range vr.Routes {
		steps := make([]domain.SolverStep, 0, len(r.Steps))
		for _, st := range r.Steps {
			var kind domain.StepKind
			switch st.Type {
			case "start":
				kind = domain.StepStart
			case "end":
				kind = domain.StepEnd
			case "pickup":
				kind = domain.StepPickup
				routed++
			case "delivery":
				kind = domain.StepDelivery
			default:
				continue
			}
			steps = append(steps, domain.SolverStep{
				Kind:           kind,
				Shipment:       st.ID,
				ArrivalSeconds: st.Arrival,
			})
		}
		routes = append(routes, domain.SolverRoute{Vehicle: r.Vehicle, Steps: steps})
	}

	status := domain.SolverOptimal
	switch {
	case shipments > 0 && routed == 0 && len(unrouted) > 0:
		status = domain.SolverInfeasible
	case len(unrouted) > 0:
		status = domain.SolverPartial
	}

	return &domain.SolverResult{Status: status, Routes: routes, Unrouted: unrouted}
}

type transportError struct {
	cause error
}

func (e *transportError) Error() string { return fmt.Sprintf("transport: %v", e.cause) }
func (e *transportError) Unwrap() error { return e.cause }

func isTransport(err error) bool {
	var te *transportError
	if errors.As(err, &te) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}
