// README: Driver profile, vehicle summary and registry errors.
package driver

import (
	"fmt"
	"time"

	"routecab/internal/types"
)

var (
	ErrNotFound      = fmt.Errorf("driver %w", types.ErrNotFound)
	ErrRouteAssigned = fmt.Errorf("%w: driver already has a route", types.ErrInvalidTransition)
	ErrBadRequest    = fmt.Errorf("driver: %w", types.ErrBadRequest)
)

type Vehicle struct {
	Plate    string
	Capacity int
	Model    string
}

type Driver struct {
	ID        types.ID
	UserID    types.ID
	RouteID   *types.ID
	Available bool
	Vehicle   Vehicle
	// Position is nil until the driver's client has reported a location.
	Position  *types.Position
	CreatedAt time.Time
}

func (d *Driver) OnRoute(routeID types.ID) bool {
	return d.RouteID != nil && *d.RouteID == routeID
}

func (d *Driver) clone() *Driver {
	cp := *d
	if d.RouteID != nil {
		r := *d.RouteID
		cp.RouteID = &r
	}
	if d.Position != nil {
		p := *d.Position
		cp.Position = &p
	}
	return &cp
}
