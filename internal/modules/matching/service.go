// README: Matching service turns an origin/destination pair into ranked drivers on valid routes.
package matching

import (
	"context"
	"fmt"
	"time"

	"routecab/internal/config"
	"routecab/internal/geo"
	"routecab/internal/modules/driver"
	"routecab/internal/modules/route"
	"routecab/internal/observability"
	"routecab/internal/types"
)

type RouteSource interface {
	ActiveRoutes(ctx context.Context) ([]*route.Route, error)
}

type DriverSource interface {
	ListByRoute(ctx context.Context, routeID types.ID) ([]*driver.Driver, error)
}

// Service holds no state of its own; every call reads a fresh snapshot.
type Service struct {
	routes   RouteSource
	drivers  DriverSource
	defaults Tuning
}

func NewService(routes RouteSource, drivers DriverSource, cfg config.MatchingConfig) *Service {
	def := Tuning{
		MaxOriginKm:      cfg.MaxOriginKm,
		MaxDestinationKm: cfg.MaxDestinationKm,
		MaxDriverKm:      cfg.MaxDriverKm,
		MaxResults:       cfg.MaxResults,
	}.orDefaults(DefaultTuning())
	return &Service{routes: routes, drivers: drivers, defaults: def}
}

func (s *Service) Match(ctx context.Context, q Query) (*Result, error) {
	start := time.Now()
	observability.MatchRequestsTotal.Inc()
	defer func() { observability.MatchLatency.Observe(time.Since(start).Seconds()) }()

	if !q.Origin.Valid() || !q.Destination.Valid() {
		return nil, fmt.Errorf("%w: invalid coordinates", ErrBadQuery)
	}
	if err := q.Tuning.validate(); err != nil {
		return nil, err
	}
	t := q.Tuning.orDefaults(s.defaults)

	routes, err := s.routes.ActiveRoutes(ctx)
	if err != nil {
		return nil, fmt.Errorf("load active routes: %w", err)
	}

	res := &Result{AvailableTaxis: []Taxi{}, MatchingRoutes: []RouteMatch{}}
	for _, r := range routes {
		if !r.Active {
			continue
		}
		m, ok := ValidRoute(r, q.Origin, q.Destination, t)
		if !ok {
			continue
		}
		drivers, err := s.drivers.ListByRoute(ctx, r.ID)
		if err != nil {
			return nil, fmt.Errorf("load drivers for route %s: %w", r.ID, err)
		}
		for _, d := range drivers {
			if !d.Available || d.Position == nil {
				continue
			}
			dist := geo.DistanceKm(d.Position.Point, q.Origin)
			if dist > t.MaxDriverKm {
				continue
			}
			res.AvailableTaxis = append(res.AvailableTaxis, Taxi{
				DriverID:   d.ID,
				UserID:     d.UserID,
				Vehicle:    d.Vehicle,
				Route:      m.Route,
				Position:   *d.Position,
				DistanceKm: dist,
			})
			m.AvailableDrivers++
		}
		res.MatchingRoutes = append(res.MatchingRoutes, m)
	}

	geo.SortByDistance(res.AvailableTaxis, func(x Taxi) float64 { return x.DistanceKm })
	res.TotalTaxisFound = len(res.AvailableTaxis)
	res.ValidRoutesFound = len(res.MatchingRoutes)
	if len(res.AvailableTaxis) > t.MaxResults {
		res.AvailableTaxis = res.AvailableTaxis[:t.MaxResults]
	}
	observability.MatchValidRoutes.Observe(float64(res.ValidRoutesFound))
	return res, nil
}

// ValidRoute reports whether r can carry a passenger from near origin to near
// destination in its direction of travel.
func ValidRoute(r *route.Route, origin, destination types.Point, t Tuning) (RouteMatch, bool) {
	startStop, startDist, ok := r.NearestStop(origin, t.MaxOriginKm, "")
	if !ok {
		return RouteMatch{}, false
	}
	endStop, endDist, ok := r.NearestStop(destination, t.MaxDestinationKm, startStop.ID)
	if !ok {
		return RouteMatch{}, false
	}
	if startStop.Order >= endStop.Order {
		return RouteMatch{}, false
	}
	return RouteMatch{
		Route:           summarize(r),
		StartStop:       startStop,
		EndStop:         endStop,
		StartDistanceKm: startDist,
		EndDistanceKm:   endDist,
	}, true
}
