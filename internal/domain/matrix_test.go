package domain

import (
	"testing"
)

func TestLocationKeyQuantizesCoordinates(t *testing.T) {
	a := Location{Lat: 38.000001, Lon: -84.500002}
	b := Location{Lat: 38.000004, Lon: -84.499998}

	if a.Key() != b.Key() {
		t.Fatalf("near-identical coordinates got distinct keys: %s vs %s", a.Key(), b.Key())
	}

	c := Location{Lat: 38.0001, Lon: -84.5}
	if a.Key() == c.Key() {
		t.Fatalf("distinct coordinates share a key: %s", a.Key())
	}
}

func TestPairKeyIsDirectional(t *testing.T) {
	a := Location{Lat: 38.0, Lon: -84.5}
	b := Location{Lat: 38.1, Lon: -84.5}

	ab := PairKey{From: a.Key(), To: b.Key()}
	ba := PairKey{From: b.Key(), To: a.Key()}
	if ab == ba {
		t.Fatalf("A->B and B->A must be distinct keys")
	}
}

func TestNewMatrixRejectsIncompleteCells(t *testing.T) {
	locs := []Location{
		{Lat: 38.0, Lon: -84.5},
		{Lat: 38.1, Lon: -84.5},
	}

	// Missing a row.
	if _, err := NewMatrix(locs, [][]TravelCost{make([]TravelCost, 2)}); err == nil {
		t.Fatalf("expected error for missing row")
	}

	// Short row.
	cells := [][]TravelCost{
		make([]TravelCost, 2),
		make([]TravelCost, 1),
	}
	if _, err := NewMatrix(locs, cells); err == nil {
		t.Fatalf("expected error for short row")
	}
}

func TestNewMatrixRejectsDuplicateLocations(t *testing.T) {
	locs := []Location{
		{Lat: 38.0, Lon: -84.5},
		{Lat: 38.0, Lon: -84.5},
	}
	cells := [][]TravelCost{
		make([]TravelCost, 2),
		make([]TravelCost, 2),
	}

	if _, err := NewMatrix(locs, cells); err == nil {
		t.Fatalf("expected error for duplicate locations")
	}
}

func TestMatrixIndexAndAt(t *testing.T) {
	locs := []Location{
		{Lat: 38.0, Lon: -84.5},
		{Lat: 38.1, Lon: -84.5},
	}
	cells := [][]TravelCost{
		{{}, {DurationSeconds: 60, DistanceMeters: 500}},
		{{DurationSeconds: 90, DistanceMeters: 600}, {}},
	}

	m, err := NewMatrix(locs, cells)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	i, ok := m.Index(Location{Lat: 38.1, Lon: -84.5})
	if !ok || i != 1 {
		t.Fatalf("Index = %d/%v, want 1/true", i, ok)
	}
	if _, ok := m.Index(Location{Lat: 40.0, Lon: -84.5}); ok {
		t.Fatalf("unknown location must not resolve")
	}

	if got := m.At(0, 1); got.DurationSeconds != 60 || got.DistanceMeters != 500 {
		t.Fatalf("At(0,1) = %+v", got)
	}
	if got := m.Durations()[1][0]; got != 90 {
		t.Fatalf("Durations[1][0] = %d, want 90", got)
	}
	if got := m.Distances()[0][1]; got != 500 {
		t.Fatalf("Distances[0][1] = %d, want 500", got)
	}
}
