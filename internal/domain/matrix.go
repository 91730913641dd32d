package domain

import "fmt"

// Travel duration and distance between an ordered pair of locations.
// Directional: A->B may differ from B->A.
type TravelCost struct {
	DurationSeconds int
	DistanceMeters  int
}

// Matrix is a complete pairwise travel cost matrix over an ordered set of
// unique locations. A matrix is either complete or it does not exist; a
// missing cell would silently corrupt feasibility checks downstream, so
// construction fails rather than producing a partial matrix.
type Matrix struct {
	Locations []Location
	index     map[LocationKey]int
	cells     [][]TravelCost
}

// NewMatrix builds a matrix over the given unique locations with all cells
// populated. Rows and columns follow the order of locations.
func NewMatrix(locations []Location, cells [][]TravelCost) (*Matrix, error) {
	if len(cells) != len(locations) {
		return nil, fmt.Errorf("matrix: %d rows for %d locations", len(cells), len(locations))
	}

	index := make(map[LocationKey]int, len(locations))
	for i, loc := range locations {
		k := loc.Key()
		if _, dup := index[k]; dup {
			return nil, fmt.Errorf("matrix: duplicate location %s", k)
		}
		index[k] = i
	}

	for i, row := range cells {
		if len(row) != len(locations) {
			return nil, fmt.Errorf("matrix: row %d has %d cells, want %d", i, len(row), len(locations))
		}
	}

	return &Matrix{Locations: locations, index: index, cells: cells}, nil
}

// Index returns the matrix position of a location.
func (m *Matrix) Index(loc Location) (int, bool) {
	i, ok := m.index[loc.Key()]
	return i, ok
}

// At returns the travel cost from location index i to index j.
func (m *Matrix) At(i, j int) TravelCost { return m.cells[i][j] }

func (m *Matrix) Size() int { return len(m.Locations) }

// Durations returns the duration cells as a dense [][]int, the primary
// (traffic-aware) edge cost for the solver.
func (m *Matrix) Durations() [][]int {
	out := make([][]int, len(m.cells))
	for i, row := range m.cells {
		out[i] = make([]int, len(row))
		for j, c := range row {
			out[i][j] = c.DurationSeconds
		}
	}
	return out
}

// Distances returns the distance cells as a dense [][]int, the secondary
// tie-break cost.
func (m *Matrix) Distances() [][]int {
	out := make([][]int, len(m.cells))
	for i, row := range m.cells {
		out[i] = make([]int, len(row))
		for j, c := range row {
			out[i][j] = c.DistanceMeters
		}
	}
	return out
}
