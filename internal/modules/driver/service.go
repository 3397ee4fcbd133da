// README: Driver registry; profiles from the repository, live positions from the location store.
package driver

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"routecab/internal/modules/route"
	"routecab/internal/types"
)

// PositionReader resolves last known positions; missing ids are simply absent.
type PositionReader interface {
	Positions(ctx context.Context, ids []types.ID) (map[types.ID]types.Position, error)
}

type RouteLookup interface {
	Get(ctx context.Context, id types.ID) (*route.Route, error)
}

type Registry struct {
	repo      Repository
	positions PositionReader
	routes    RouteLookup
}

func NewRegistry(repo Repository, positions PositionReader, routes RouteLookup) *Registry {
	return &Registry{repo: repo, positions: positions, routes: routes}
}

func (r *Registry) Get(ctx context.Context, id types.ID) (*Driver, error) {
	d, err := r.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := r.overlay(ctx, []*Driver{d}); err != nil {
		return nil, err
	}
	return d, nil
}

func (r *Registry) GetByUser(ctx context.Context, userID types.ID) (*Driver, error) {
	d, err := r.repo.GetByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := r.overlay(ctx, []*Driver{d}); err != nil {
		return nil, err
	}
	return d, nil
}

// ListByRoute returns every driver assigned to routeID with positions attached.
func (r *Registry) ListByRoute(ctx context.Context, routeID types.ID) ([]*Driver, error) {
	drivers, err := r.repo.ListByRoute(ctx, routeID)
	if err != nil {
		return nil, err
	}
	if err := r.overlay(ctx, drivers); err != nil {
		return nil, err
	}
	return drivers, nil
}

func (r *Registry) SetAvailability(ctx context.Context, id types.ID, available bool) error {
	return r.repo.SetAvailability(ctx, id, available)
}

// AssignRoute performs the one-time route assignment.
func (r *Registry) AssignRoute(ctx context.Context, driverID, routeID types.ID) error {
	return r.setRoute(ctx, driverID, routeID, true)
}

// ReassignRoute is the administrative override of an existing assignment.
func (r *Registry) ReassignRoute(ctx context.Context, driverID, routeID types.ID) error {
	return r.setRoute(ctx, driverID, routeID, false)
}

func (r *Registry) setRoute(ctx context.Context, driverID, routeID types.ID, onlyIfUnassigned bool) error {
	if r.routes != nil {
		if _, err := r.routes.Get(ctx, routeID); err != nil {
			return err
		}
	}
	ok, err := r.repo.SetRoute(ctx, driverID, routeID, onlyIfUnassigned)
	if err != nil {
		return err
	}
	if ok {
		return nil
	}
	if _, err := r.repo.Get(ctx, driverID); err != nil {
		return err
	}
	return ErrRouteAssigned
}

// Provision returns the driver profile for userID, creating an unassigned,
// unavailable one if the user has none.
func (r *Registry) Provision(ctx context.Context, userID types.ID, v Vehicle) (*Driver, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: missing user id", ErrBadRequest)
	}
	existing, err := r.repo.GetByUser(ctx, userID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	d := &Driver{
		ID:        types.ID(uuid.NewString()),
		UserID:    userID,
		Vehicle:   v,
		CreatedAt: time.Now().UTC(),
	}
	if err := r.repo.Create(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

func (r *Registry) overlay(ctx context.Context, drivers []*Driver) error {
	if r.positions == nil || len(drivers) == 0 {
		return nil
	}
	ids := make([]types.ID, len(drivers))
	for i, d := range drivers {
		ids[i] = d.ID
	}
	pos, err := r.positions.Positions(ctx, ids)
	if err != nil {
		return fmt.Errorf("load driver positions: %w", err)
	}
	for _, d := range drivers {
		if p, ok := pos[d.ID]; ok {
			p := p
			d.Position = &p
		}
	}
	return nil
}
