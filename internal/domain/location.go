package domain

import "fmt"

// Immutable geographic coordinates (latitude, longitude).
type Location struct {
	Lat float64
	Lon float64
}

// LocationKey is the stable matrix identity of a coordinate pair.
// Coordinates are quantized to 5 decimal places (~1m) so that two
// requests at the same place resolve to the same matrix row/column.
type LocationKey string

func (l Location) Key() LocationKey {
	return LocationKey(fmt.Sprintf("%.5f,%.5f", l.Lat, l.Lon))
}

// Return coordinates as [lon, lat] for external API compatibility.
func (l Location) CoordsToList() []float64 { return []float64{l.Lon, l.Lat} }

// PairKey identifies an ordered origin->destination pair for cache lookups.
// Travel cost is directional: (A, B) and (B, A) are distinct keys.
type PairKey struct {
	From LocationKey
	To   LocationKey
}

func (p PairKey) String() string { return string(p.From) + "|" + string(p.To) }
