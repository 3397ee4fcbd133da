// README: Route and stop definitions plus pure route-topology queries.
package route

import (
	"fmt"
	"strings"

	"routecab/internal/geo"
	"routecab/internal/types"
)

var (
	ErrNotFound     = fmt.Errorf("route %w", types.ErrNotFound)
	ErrStopNotFound = fmt.Errorf("stop %w", types.ErrNotFound)
	ErrInvalidRoute = fmt.Errorf("%w: invalid route", types.ErrBadRequest)
)

// Stop is a point on a route. Order is strictly increasing along Route.Stops.
type Stop struct {
	ID    types.ID
	Name  string
	Point types.Point
	Order int
}

type Route struct {
	ID            types.ID
	Name          string
	Stops         []Stop
	AssociationID types.ID
	Active        bool
	Fare          *types.Money
}

// Validate checks the stop sequence. A route without stops is valid but unmatchable.
func (r *Route) Validate() error {
	if r.ID == "" || strings.TrimSpace(r.Name) == "" {
		return fmt.Errorf("%w: id and name are required", ErrInvalidRoute)
	}
	seen := make(map[types.ID]struct{}, len(r.Stops))
	for i, s := range r.Stops {
		if s.ID == "" {
			return fmt.Errorf("%w: stop %d has no id", ErrInvalidRoute, i)
		}
		if _, dup := seen[s.ID]; dup {
			return fmt.Errorf("%w: duplicate stop %s", ErrInvalidRoute, s.ID)
		}
		seen[s.ID] = struct{}{}
		if !s.Point.Valid() {
			return fmt.Errorf("%w: stop %s has invalid coordinates", ErrInvalidRoute, s.ID)
		}
		if i > 0 && s.Order <= r.Stops[i-1].Order {
			return fmt.Errorf("%w: stop order must be strictly increasing (stop %s)", ErrInvalidRoute, s.ID)
		}
	}
	return nil
}

// Labels returns the start and destination labels, taken from the first and
// last stop. Routes without stops fall back to parsing the display name.
func (r *Route) Labels() (start, destination string) {
	if len(r.Stops) > 0 {
		return r.Stops[0].Name, r.Stops[len(r.Stops)-1].Name
	}
	return SplitDisplayName(r.Name)
}

// SplitDisplayName splits a "start - destination" name on the first '-'.
// A name without '-' yields the whole name as start and an empty destination.
func SplitDisplayName(name string) (start, destination string) {
	before, after, found := strings.Cut(name, "-")
	if !found {
		return strings.TrimSpace(name), ""
	}
	return strings.TrimSpace(before), strings.TrimSpace(after)
}

// NearestStop returns the stop closest to p within maxKm, skipping except.
func (r *Route) NearestStop(p types.Point, maxKm float64, except types.ID) (Stop, float64, bool) {
	var (
		best     Stop
		bestDist float64
		found    bool
	)
	for _, s := range r.Stops {
		if except != "" && s.ID == except {
			continue
		}
		d := geo.DistanceKm(p, s.Point)
		if d > maxKm {
			continue
		}
		if !found || d < bestDist {
			best, bestDist, found = s, d, true
		}
	}
	return best, bestDist, found
}

// IsBefore reports whether stop a is traversed before stop b.
func (r *Route) IsBefore(a, b types.ID) (bool, error) {
	sa, ok := r.stop(a)
	if !ok {
		return false, ErrStopNotFound
	}
	sb, ok := r.stop(b)
	if !ok {
		return false, ErrStopNotFound
	}
	return sa.Order < sb.Order, nil
}

func (r *Route) stop(id types.ID) (Stop, bool) {
	for _, s := range r.Stops {
		if s.ID == id {
			return s, true
		}
	}
	return Stop{}, false
}

func (r *Route) clone() *Route {
	cp := *r
	cp.Stops = append([]Stop(nil), r.Stops...)
	if r.Fare != nil {
		f := *r.Fare
		cp.Fare = &f
	}
	return &cp
}
