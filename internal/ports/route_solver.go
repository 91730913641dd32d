package ports

import (
	"context"
	"errors"
	"time"

	"ride-dispatch-service/internal/domain"
)

// ErrSolverUnavailable marks a run-fatal solver transport failure after the
// retry budget is spent. Infeasible or partial routings are NOT errors;
// they come back as a normal SolverResult.
var ErrSolverUnavailable = errors.New("optimization engine unavailable")

// Contract for the external combinatorial optimization engine. The solver
// is an opaque capability: submit an instance, receive classified routes.
// Any engine may sit behind this interface as long as it distinguishes
// transport failures (error return) from algorithmic outcomes (the
// SolverResult status).
type RouteSolver interface {
	// Solve submits the instance and blocks until a classified result or
	// timeout. Transport failures wrap ErrSolverUnavailable.
	Solve(ctx context.Context, instance *domain.ProblemInstance, timeout time.Duration) (*domain.SolverResult, error)
}
