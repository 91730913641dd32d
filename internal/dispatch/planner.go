package dispatch

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"ride-dispatch-service/internal/domain"
	"ride-dispatch-service/internal/platform/obs"
	"ride-dispatch-service/internal/ports"
)

const DefaultSolveTimeout = 30 * time.Second

// Request is one dispatch run's input: the fleet, the transport requests,
// and the reference time feasibility is judged against.
type Request struct {
	Vehicles []domain.Vehicle
	Riders   []domain.Rider
	Now      time.Time
}

// Planner runs the full dispatch pipeline: travel matrix, instance
// encoding, solve, decode, rank. Runs are independent end-to-end; the
// only state shared between them is whatever cache sits behind the
// matrix provider.
type Planner struct {
	matrices ports.MatrixProvider
	solver   ports.RouteSolver
	timeout  time.Duration
}

func NewPlanner(matrices ports.MatrixProvider, solver ports.RouteSolver, solveTimeout time.Duration) *Planner {
	if solveTimeout <= 0 {
		solveTimeout = DefaultSolveTimeout
	}
	return &Planner{matrices: matrices, solver: solver, timeout: solveTimeout}
}

// Plan produces a dispatch plan or a run-level failure, never a silently
// incomplete plan. Oracle and solver unavailability abort the run; every
// other irregularity lands in the plan's unassigned list with a reason.
func (p *Planner) Plan(ctx context.Context, req Request) (_ *domain.DispatchPlan, err error) {
	runID := uuid.NewString()
	ctx = context.WithValue(ctx, obs.RunIDKey, runID)
	defer obs.Time(ctx, "dispatch.Plan")(&err)

	now := req.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}

	matrix, err := p.matrices.BuildMatrix(ctx, collectLocations(req))
	if err != nil {
		return nil, fmt.Errorf("plan: %w", err)
	}

	instance, err := Encode(req.Vehicles, req.Riders, matrix, now)
	if err != nil {
		return nil, fmt.Errorf("plan: %w", err)
	}

	var plan *domain.DispatchPlan
	if len(instance.Shipments) == 0 {
		// Nothing to solve; the plan is just the pre-encoding exclusions.
		plan = &domain.DispatchPlan{
			Unassigned: append([]domain.UnassignedRider{}, instance.PreUnassigned...),
		}
	} else {
		result, serr := p.solver.Solve(ctx, instance, p.timeout)
		if serr != nil {
			return nil, fmt.Errorf("plan: %w", serr)
		}
		plan = Decode(ctx, instance, result)
	}

	plan = Rank(plan, instance)
	plan.RunID = runID
	plan.GeneratedAt = now

	for _, u := range plan.Unassigned {
		obs.UnassignedRiders.WithLabelValues(string(u.Reason)).Inc()
	}
	obs.WithRun(ctx).WithFields(logrus.Fields{
		"vehicles":   len(req.Vehicles),
		"riders":     len(req.Riders),
		"routes":     len(plan.Routes),
		"unassigned": len(plan.Unassigned),
	}).Info("dispatch plan produced")

	return plan, nil
}

// collectLocations gathers every coordinate the run touches, deduplicated
// by quantized key in first-seen order.
func collectLocations(req Request) []domain.Location {
	seen := map[domain.LocationKey]struct{}{}
	out := make([]domain.Location, 0, len(req.Vehicles)+2*len(req.Riders))
	add := func(loc domain.Location) {
		k := loc.Key()
		if _, ok := seen[k]; ok {
			return
		}
		seen[k] = struct{}{}
		out = append(out, loc)
	}
	for _, v := range req.Vehicles {
		add(v.Location)
	}
	for _, r := range req.Riders {
		add(r.Pickup)
		add(r.Dropoff)
	}
	return out
}
