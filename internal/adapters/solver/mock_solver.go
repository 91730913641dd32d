package solver

import (
	"context"
	"time"

	"ride-dispatch-service/internal/domain"
)

// ScriptedSolver returns a fixed result (or error) and records the last
// submitted instance, for tests exercising the decoder and planner.
type ScriptedSolver struct {
	Result *domain.SolverResult
	Err    error

	Calls        int
	LastInstance *domain.ProblemInstance
}

func (s *ScriptedSolver) Solve(
	_ context.Context,
	instance *domain.ProblemInstance,
	_ time.Duration,
) (*domain.SolverResult, error) {
	s.Calls++
	s.LastInstance = instance
	if s.Err != nil {
		return nil, s.Err
	}
	return s.Result, nil
}
