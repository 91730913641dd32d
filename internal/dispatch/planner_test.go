package dispatch

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"testing"
	"time"

	"ride-dispatch-service/internal/adapters/solver"
	"ride-dispatch-service/internal/domain"
	"ride-dispatch-service/internal/ports"
)

// gridProvider serves synthetic matrices with the same uniform grid costs
// as gridMatrix, without touching the network.
type gridProvider struct {
	err   error
	calls int
}

func (p *gridProvider) BuildMatrix(_ context.Context, locations []domain.Location) (*domain.Matrix, error) {
	p.calls++
	if p.err != nil {
		return nil, p.err
	}

	seen := map[domain.LocationKey]struct{}{}
	uniq := make([]domain.Location, 0, len(locations))
	for _, loc := range locations {
		if _, ok := seen[loc.Key()]; ok {
			continue
		}
		seen[loc.Key()] = struct{}{}
		uniq = append(uniq, loc)
	}

	cells := make([][]domain.TravelCost, len(uniq))
	for i := range uniq {
		cells[i] = make([]domain.TravelCost, len(uniq))
		for j := range uniq {
			if i == j {
				continue
			}
			dLat := uniq[i].Lat - uniq[j].Lat
			if dLat < 0 {
				dLat = -dLat
			}
			dLon := uniq[i].Lon - uniq[j].Lon
			if dLon < 0 {
				dLon = -dLon
			}
			steps := int((dLat+dLon)*100 + 0.5)
			cells[i][j] = domain.TravelCost{DurationSeconds: steps * 100, DistanceMeters: steps * 1000}
		}
	}
	return domain.NewMatrix(uniq, cells)
}

func checkPlanInvariants(t *testing.T, plan *domain.DispatchPlan, riders []domain.Rider) {
	t.Helper()

	windows := map[string][2]time.Time{}
	for _, r := range riders {
		windows[r.ID] = [2]time.Time{r.WindowStart, r.WindowEnd}
	}

	seen := map[string]string{}
	for _, route := range plan.Routes {
		picked := map[string]bool{}
		for _, s := range route.Stops {
			if s.Load > route.Capacity {
				t.Fatalf("vehicle %s load %d exceeds capacity %d", route.VehicleID, s.Load, route.Capacity)
			}
			switch s.Kind {
			case domain.StopPickup:
				if where, dup := seen[s.RiderID]; dup {
					t.Fatalf("rider %s on both %s and %s", s.RiderID, where, route.VehicleID)
				}
				seen[s.RiderID] = route.VehicleID
				picked[s.RiderID] = true
				w := windows[s.RiderID]
				if s.ETA.Before(w[0]) || s.ETA.After(w[1]) {
					t.Fatalf("rider %s pickup ETA %v outside window %v", s.RiderID, s.ETA, w)
				}
			case domain.StopDelivery:
				if !picked[s.RiderID] {
					t.Fatalf("rider %s delivered before pickup on %s", s.RiderID, route.VehicleID)
				}
			}
		}
	}
	for _, u := range plan.Unassigned {
		if where, dup := seen[u.RiderID]; dup {
			t.Fatalf("rider %s both assigned to %s and unassigned", u.RiderID, where)
		}
		seen[u.RiderID] = "unassigned"
	}
	for _, r := range riders {
		if _, ok := seen[r.ID]; !ok {
			t.Fatalf("rider %s missing from the plan entirely", r.ID)
		}
	}
}

func TestPlanAssignsToSmallestSufficientVehicle(t *testing.T) {
	vehicles := []domain.Vehicle{
		testVehicle("veh-big", 4, depotA),
		testVehicle("veh-tiny", 1, depotA),
	}
	riders := []domain.Rider{testRider("ride-1", 2, dayStart.Add(time.Hour))}

	p := NewPlanner(&gridProvider{}, solver.NewGreedySolver(), 0)
	plan, err := p.Plan(context.Background(), Request{Vehicles: vehicles, Riders: riders, Now: dayStart})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	checkPlanInvariants(t, plan, riders)
	if len(plan.Unassigned) != 0 {
		t.Fatalf("unassigned = %+v, want none", plan.Unassigned)
	}
	if len(plan.Routes) != 1 || plan.Routes[0].VehicleID != "veh-big" {
		t.Fatalf("routes = %+v, want the two-passenger ride on veh-big", plan.Routes)
	}
	if plan.RunID == "" {
		t.Fatalf("plan has no run id")
	}
}

func TestPlanIsDeterministic(t *testing.T) {
	vehicles := []domain.Vehicle{
		testVehicle("veh-1", 4, depotA),
		testVehicle("veh-2", 4, depotB),
	}
	riders := []domain.Rider{
		testRider("ride-1", 1, dayStart.Add(time.Hour)),
		testRider("ride-2", 2, dayStart.Add(2*time.Hour)),
	}
	req := Request{Vehicles: vehicles, Riders: riders, Now: dayStart}

	p := NewPlanner(&gridProvider{}, solver.NewGreedySolver(), 0)
	first, err := p.Plan(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := p.Plan(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	first.RunID, second.RunID = "", ""
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("identical input produced different plans:\n%+v\n%+v", first, second)
	}
}

func TestPlanAbortsWhenOracleUnavailable(t *testing.T) {
	provider := &gridProvider{err: fmt.Errorf("build matrix: %w", ports.ErrOracleUnavailable)}
	engine := &solver.ScriptedSolver{}

	p := NewPlanner(provider, engine, 0)
	plan, err := p.Plan(context.Background(), Request{
		Vehicles: []domain.Vehicle{testVehicle("veh-1", 4, depotA)},
		Riders:   []domain.Rider{testRider("ride-1", 1, dayStart.Add(time.Hour))},
		Now:      dayStart,
	})

	if !errors.Is(err, ports.ErrOracleUnavailable) {
		t.Fatalf("expected ErrOracleUnavailable, got: %v", err)
	}
	if plan != nil {
		t.Fatalf("no plan may be produced on oracle failure, got %+v", plan)
	}
	if engine.Calls != 0 {
		t.Fatalf("solver must not run without a matrix")
	}
}

func TestPlanAbortsWhenSolverUnavailable(t *testing.T) {
	engine := &solver.ScriptedSolver{Err: fmt.Errorf("solve: %w", ports.ErrSolverUnavailable)}

	p := NewPlanner(&gridProvider{}, engine, 0)
	plan, err := p.Plan(context.Background(), Request{
		Vehicles: []domain.Vehicle{testVehicle("veh-1", 4, depotA)},
		Riders:   []domain.Rider{testRider("ride-1", 1, dayStart.Add(time.Hour))},
		Now:      dayStart,
	})

	if !errors.Is(err, ports.ErrSolverUnavailable) {
		t.Fatalf("expected ErrSolverUnavailable, got: %v", err)
	}
	if plan != nil {
		t.Fatalf("no plan may be produced on solver failure, got %+v", plan)
	}
}

func TestPlanReportsUnroutableRiderFromPartialResult(t *testing.T) {
	vehicles := []domain.Vehicle{testVehicle("veh-1", 4, depotA)}
	riders := []domain.Rider{
		testRider("ride-ok", 1, dayStart.Add(time.Hour)),
		// Window closes 60s in; the trip alone takes 100s.
		testRider("ride-rush", 1, dayStart.Add(time.Minute)),
	}

	p := NewPlanner(&gridProvider{}, solver.NewGreedySolver(), 0)
	plan, err := p.Plan(context.Background(), Request{Vehicles: vehicles, Riders: riders, Now: dayStart})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	checkPlanInvariants(t, plan, riders)
	if len(plan.Unassigned) != 1 {
		t.Fatalf("unassigned = %+v", plan.Unassigned)
	}
	if u := plan.Unassigned[0]; u.RiderID != "ride-rush" || u.Reason != domain.ReasonSolverUnrouted {
		t.Fatalf("got %+v, want ride-rush/solver_unrouted", u)
	}
	if got := plan.AssignedRiders(); len(got) != 1 || got[0] != "ride-ok" {
		t.Fatalf("assigned = %v, want [ride-ok]", got)
	}
}

func TestPlanAlwaysReportsInfeasibleDemand(t *testing.T) {
	vehicles := []domain.Vehicle{
		testVehicle("veh-1", 4, depotA),
		testVehicle("veh-2", 2, depotB),
	}
	riders := []domain.Rider{
		testRider("ride-1", 1, dayStart.Add(time.Hour)),
		testRider("ride-crowd", 9, dayStart.Add(time.Hour)),
		testRider("ride-2", 2, dayStart.Add(2*time.Hour)),
	}

	p := NewPlanner(&gridProvider{}, solver.NewGreedySolver(), 0)
	plan, err := p.Plan(context.Background(), Request{Vehicles: vehicles, Riders: riders, Now: dayStart})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	checkPlanInvariants(t, plan, riders)
	found := false
	for _, u := range plan.Unassigned {
		if u.RiderID == "ride-crowd" {
			found = true
			if u.Reason != domain.ReasonInfeasibleDemand {
				t.Fatalf("reason = %s, want infeasible_demand", u.Reason)
			}
		}
	}
	if !found {
		t.Fatalf("ride-crowd missing from unassigned: %+v", plan.Unassigned)
	}
}

func TestPlanSkipsSolverWhenNothingToRoute(t *testing.T) {
	engine := &solver.ScriptedSolver{}

	p := NewPlanner(&gridProvider{}, engine, 0)
	plan, err := p.Plan(context.Background(), Request{
		Vehicles: []domain.Vehicle{testVehicle("veh-1", 4, depotA)},
		Riders:   []domain.Rider{testRider("ride-late", 1, dayStart.Add(-time.Hour))},
		Now:      dayStart,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if engine.Calls != 0 {
		t.Fatalf("solver ran with nothing to route")
	}
	if len(plan.Routes) != 0 {
		t.Fatalf("routes = %+v, want none", plan.Routes)
	}
	if len(plan.Unassigned) != 1 || plan.Unassigned[0].Reason != domain.ReasonWindowExpired {
		t.Fatalf("unassigned = %+v, want window_expired", plan.Unassigned)
	}
	if !plan.GeneratedAt.Equal(dayStart) {
		t.Fatalf("generated at %v, want the reference time", plan.GeneratedAt)
	}
}
