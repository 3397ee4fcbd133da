// README: Matching query, tuning and result shapes.
package matching

import (
	"fmt"

	"routecab/internal/modules/driver"
	"routecab/internal/modules/route"
	"routecab/internal/types"
)

var ErrBadQuery = fmt.Errorf("matching: %w", types.ErrBadRequest)

const (
	defaultMaxOriginKm      = 1.0
	defaultMaxDestinationKm = 1.0
	defaultMaxDriverKm      = 2.0
	defaultMaxResults       = 10
)

// Tuning bounds a match. Zero fields fall back to the service defaults.
type Tuning struct {
	MaxOriginKm      float64
	MaxDestinationKm float64
	MaxDriverKm      float64
	MaxResults       int
}

func DefaultTuning() Tuning {
	return Tuning{
		MaxOriginKm:      defaultMaxOriginKm,
		MaxDestinationKm: defaultMaxDestinationKm,
		MaxDriverKm:      defaultMaxDriverKm,
		MaxResults:       defaultMaxResults,
	}
}

func (t Tuning) orDefaults(def Tuning) Tuning {
	if t.MaxOriginKm == 0 {
		t.MaxOriginKm = def.MaxOriginKm
	}
	if t.MaxDestinationKm == 0 {
		t.MaxDestinationKm = def.MaxDestinationKm
	}
	if t.MaxDriverKm == 0 {
		t.MaxDriverKm = def.MaxDriverKm
	}
	if t.MaxResults == 0 {
		t.MaxResults = def.MaxResults
	}
	return t
}

func (t Tuning) validate() error {
	if t.MaxOriginKm < 0 || t.MaxDestinationKm < 0 || t.MaxDriverKm < 0 || t.MaxResults < 0 {
		return fmt.Errorf("%w: tuning values must not be negative", ErrBadQuery)
	}
	return nil
}

type Query struct {
	Origin      types.Point
	Destination types.Point
	Tuning      Tuning
}

type RouteSummary struct {
	ID          types.ID
	Name        string
	Start       string
	Destination string
	Fare        *types.Money
}

func summarize(r *route.Route) RouteSummary {
	start, dest := r.Labels()
	return RouteSummary{ID: r.ID, Name: r.Name, Start: start, Destination: dest, Fare: r.Fare}
}

// RouteMatch is a valid route for the query. AvailableDrivers may be zero:
// the route serves the trip but nobody on it is close enough right now.
type RouteMatch struct {
	Route            RouteSummary
	StartStop        route.Stop
	EndStop          route.Stop
	StartDistanceKm  float64
	EndDistanceKm    float64
	AvailableDrivers int
}

type Taxi struct {
	DriverID   types.ID
	UserID     types.ID
	Vehicle    driver.Vehicle
	Route      RouteSummary
	Position   types.Position
	DistanceKm float64
}

type Result struct {
	AvailableTaxis   []Taxi
	MatchingRoutes   []RouteMatch
	TotalTaxisFound  int
	ValidRoutesFound int
}
