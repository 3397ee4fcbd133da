// README: Shared identifiers and geographic value objects.
package types

import "time"

type ID string

// Point is a WGS84 coordinate in decimal degrees.
type Point struct {
	Lat float64
	Lng float64
}

// Valid reports whether the point lies within latitude/longitude bounds.
func (p Point) Valid() bool {
	return p.Lat >= -90 && p.Lat <= 90 && p.Lng >= -180 && p.Lng <= 180
}

// Place is a point with the human label the client showed for it.
type Place struct {
	Point Point
	Label string
}

// Position is the last known location of a moving party.
type Position struct {
	Point      Point
	RecordedAt time.Time
}
