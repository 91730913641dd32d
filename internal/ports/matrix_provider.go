package ports

import (
	"context"
	"errors"

	"ride-dispatch-service/internal/domain"
)

// ErrOracleUnavailable marks a run-fatal routing oracle failure: the
// service was unreachable or retries were exhausted. A partial matrix is
// never returned in its place.
var ErrOracleUnavailable = errors.New("routing oracle unavailable")

// Contract for building a complete pairwise travel cost matrix over an
// ordered location sequence, consulting the travel cost cache and the
// external routing oracle for misses.
type MatrixProvider interface {
	// BuildMatrix returns a complete matrix or fails with an error
	// wrapping ErrOracleUnavailable. It never returns a partial matrix.
	BuildMatrix(ctx context.Context, locations []domain.Location) (*domain.Matrix, error)
}
