package driver

import (
	"context"
	"errors"
	"testing"
	"time"

	"routecab/internal/modules/route"
	"routecab/internal/types"
)

type fakePositions map[types.ID]types.Position

func (f fakePositions) Positions(_ context.Context, ids []types.ID) (map[types.ID]types.Position, error) {
	out := make(map[types.ID]types.Position)
	for _, id := range ids {
		if p, ok := f[id]; ok {
			out[id] = p
		}
	}
	return out, nil
}

func newTestRegistry(t *testing.T, pos fakePositions) (*Registry, *MemoryStore) {
	t.Helper()
	routes := route.NewMemoryStore()
	for _, id := range []types.ID{"r1", "r2"} {
		if err := routes.Save(context.Background(), &route.Route{ID: id, Name: "X - Y", Active: true}); err != nil {
			t.Fatalf("save route: %v", err)
		}
	}
	repo := NewMemoryStore()
	return NewRegistry(repo, pos, routes), repo
}

func TestProvisionIsIdempotent(t *testing.T) {
	ctx := context.Background()
	reg, _ := newTestRegistry(t, nil)

	d1, err := reg.Provision(ctx, "u1", Vehicle{Plate: "KAA 123A", Capacity: 14, Model: "Nissan Caravan"})
	if err != nil {
		t.Fatalf("provision: %v", err)
	}
	if d1.Available || d1.RouteID != nil {
		t.Fatalf("new driver should be unassigned and unavailable: %+v", d1)
	}
	d2, err := reg.Provision(ctx, "u1", Vehicle{})
	if err != nil {
		t.Fatalf("second provision: %v", err)
	}
	if d1.ID != d2.ID {
		t.Fatalf("expected the same driver, got %s and %s", d1.ID, d2.ID)
	}
	if _, err := reg.Provision(ctx, "", Vehicle{}); !errors.Is(err, types.ErrBadRequest) {
		t.Fatalf("empty user: expected bad request, got %v", err)
	}
}

func TestAssignRouteOnce(t *testing.T) {
	ctx := context.Background()
	reg, _ := newTestRegistry(t, nil)
	d, _ := reg.Provision(ctx, "u1", Vehicle{})

	if err := reg.AssignRoute(ctx, d.ID, "r1"); err != nil {
		t.Fatalf("assign: %v", err)
	}
	if err := reg.AssignRoute(ctx, d.ID, "r2"); !errors.Is(err, ErrRouteAssigned) {
		t.Fatalf("second assign: expected ErrRouteAssigned, got %v", err)
	}
	if err := reg.ReassignRoute(ctx, d.ID, "r2"); err != nil {
		t.Fatalf("reassign: %v", err)
	}
	got, _ := reg.Get(ctx, d.ID)
	if !got.OnRoute("r2") {
		t.Fatalf("expected route r2, got %v", got.RouteID)
	}

	if err := reg.AssignRoute(ctx, d.ID, "missing"); !errors.Is(err, route.ErrNotFound) {
		t.Fatalf("unknown route: expected route.ErrNotFound, got %v", err)
	}
	if err := reg.AssignRoute(ctx, "ghost", "r1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("unknown driver: expected ErrNotFound, got %v", err)
	}
}

func TestListByRouteAttachesPositions(t *testing.T) {
	ctx := context.Background()
	pos := fakePositions{}
	reg, repo := newTestRegistry(t, pos)

	a, _ := reg.Provision(ctx, "ua", Vehicle{})
	b, _ := reg.Provision(ctx, "ub", Vehicle{})
	c, _ := reg.Provision(ctx, "uc", Vehicle{})
	_ = reg.AssignRoute(ctx, a.ID, "r1")
	_ = reg.AssignRoute(ctx, b.ID, "r1")
	_ = reg.AssignRoute(ctx, c.ID, "r2")
	pos[a.ID] = types.Position{Point: types.Point{Lat: 1, Lng: 2}, RecordedAt: time.Now()}

	drivers, err := reg.ListByRoute(ctx, "r1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(drivers) != 2 {
		t.Fatalf("expected 2 drivers on r1, got %d", len(drivers))
	}
	for _, d := range drivers {
		switch d.ID {
		case a.ID:
			if d.Position == nil || d.Position.Point.Lat != 1 {
				t.Fatalf("expected position for %s", d.ID)
			}
		case b.ID:
			if d.Position != nil {
				t.Fatalf("driver %s never reported, position should be nil", d.ID)
			}
		default:
			t.Fatalf("unexpected driver %s", d.ID)
		}
	}

	stored, _ := repo.Get(ctx, a.ID)
	if stored.Position != nil {
		t.Fatal("overlay must not leak into the repository")
	}
}

func TestSetAvailability(t *testing.T) {
	ctx := context.Background()
	reg, _ := newTestRegistry(t, nil)
	d, _ := reg.Provision(ctx, "u1", Vehicle{})

	if err := reg.SetAvailability(ctx, d.ID, true); err != nil {
		t.Fatalf("set availability: %v", err)
	}
	got, _ := reg.GetByUser(ctx, "u1")
	if !got.Available {
		t.Fatal("expected available")
	}
	if err := reg.SetAvailability(ctx, "ghost", true); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
