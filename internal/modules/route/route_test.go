package route

import (
	"context"
	"errors"
	"testing"
	"time"

	"routecab/internal/types"
)

func sampleRoute() *Route {
	return &Route{
		ID:     "r1",
		Name:   "Town - Westlands",
		Active: true,
		Stops: []Stop{
			{ID: "a", Name: "Town", Point: types.Point{Lat: -1.2833, Lng: 36.8167}, Order: 1},
			{ID: "m", Name: "Museum Hill", Point: types.Point{Lat: -1.2740, Lng: 36.8120}, Order: 2},
			{ID: "b", Name: "Westlands", Point: types.Point{Lat: -1.2650, Lng: 36.8030}, Order: 3},
		},
	}
}

func TestValidate(t *testing.T) {
	r := sampleRoute()
	if err := r.Validate(); err != nil {
		t.Fatalf("valid route rejected: %v", err)
	}

	r.Stops[2].Order = 2
	if err := r.Validate(); !errors.Is(err, ErrInvalidRoute) {
		t.Fatalf("non-increasing order: expected ErrInvalidRoute, got %v", err)
	}
	if err := r.Validate(); !errors.Is(err, types.ErrBadRequest) {
		t.Fatalf("expected error to carry ErrBadRequest kind, got %v", err)
	}

	r = sampleRoute()
	r.Stops[1].ID = "a"
	if err := r.Validate(); !errors.Is(err, ErrInvalidRoute) {
		t.Fatalf("duplicate stop: expected ErrInvalidRoute, got %v", err)
	}

	empty := &Route{ID: "r0", Name: "Empty"}
	if err := empty.Validate(); err != nil {
		t.Fatalf("route without stops should be valid: %v", err)
	}
}

func TestSplitDisplayName(t *testing.T) {
	cases := []struct {
		name, start, dest string
	}{
		{"Town - Westlands", "Town", "Westlands"},
		{"Town-Kikuyu-Limuru", "Town", "Kikuyu-Limuru"},
		{"Loop", "Loop", ""},
		{"", "", ""},
	}
	for _, tc := range cases {
		s, d := SplitDisplayName(tc.name)
		if s != tc.start || d != tc.dest {
			t.Errorf("SplitDisplayName(%q) = %q, %q; want %q, %q", tc.name, s, d, tc.start, tc.dest)
		}
	}
}

func TestLabelsPreferStops(t *testing.T) {
	r := sampleRoute()
	r.Name = "garbled"
	start, dest := r.Labels()
	if start != "Town" || dest != "Westlands" {
		t.Fatalf("labels = %q, %q", start, dest)
	}
}

func TestNearestStop(t *testing.T) {
	r := sampleRoute()
	near := types.Point{Lat: -1.2835, Lng: 36.8165}

	s, _, ok := r.NearestStop(near, 1.0, "")
	if !ok || s.ID != "a" {
		t.Fatalf("expected stop a, got %+v ok=%v", s, ok)
	}

	s, _, ok = r.NearestStop(near, 1.5, "a")
	if !ok || s.ID != "m" {
		t.Fatalf("expected stop m when a excluded, got %+v ok=%v", s, ok)
	}

	if _, _, ok := r.NearestStop(types.Point{Lat: 10, Lng: 10}, 1.0, ""); ok {
		t.Fatal("expected no stop within threshold")
	}
}

func TestIsBefore(t *testing.T) {
	r := sampleRoute()
	ok, err := r.IsBefore("a", "b")
	if err != nil || !ok {
		t.Fatalf("a before b: got %v, %v", ok, err)
	}
	ok, err = r.IsBefore("b", "a")
	if err != nil || ok {
		t.Fatalf("b before a: got %v, %v", ok, err)
	}
	if _, err := r.IsBefore("a", "zz"); !errors.Is(err, ErrStopNotFound) {
		t.Fatalf("unknown stop: expected ErrStopNotFound, got %v", err)
	}
}

func TestCatalogCachesActiveRoutes(t *testing.T) {
	ctx := context.Background()
	repo := &countingRepo{MemoryStore: NewMemoryStore()}
	cat := NewCatalog(repo, time.Minute)

	if err := cat.Save(ctx, sampleRoute()); err != nil {
		t.Fatalf("save: %v", err)
	}
	for i := 0; i < 3; i++ {
		routes, err := cat.ActiveRoutes(ctx)
		if err != nil {
			t.Fatalf("active routes: %v", err)
		}
		if len(routes) != 1 {
			t.Fatalf("expected 1 route, got %d", len(routes))
		}
	}
	if repo.lists != 1 {
		t.Fatalf("expected one repository read, got %d", repo.lists)
	}

	inactive := sampleRoute()
	inactive.ID = "r2"
	inactive.Active = false
	if err := cat.Save(ctx, inactive); err != nil {
		t.Fatalf("save inactive: %v", err)
	}
	routes, _ := cat.ActiveRoutes(ctx)
	if len(routes) != 1 || repo.lists != 2 {
		t.Fatalf("expected cache refresh after save; routes=%d lists=%d", len(routes), repo.lists)
	}
}

func TestCatalogSaveRejectsInvalid(t *testing.T) {
	cat := NewCatalog(NewMemoryStore(), 0)
	bad := sampleRoute()
	bad.Stops[0].Order = 9
	if err := cat.Save(context.Background(), bad); !errors.Is(err, ErrInvalidRoute) {
		t.Fatalf("expected ErrInvalidRoute, got %v", err)
	}
	if _, err := cat.Get(context.Background(), bad.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("invalid route must not be stored, got %v", err)
	}
}

func TestCatalogNearbyRoutes(t *testing.T) {
	ctx := context.Background()
	cat := NewCatalog(NewMemoryStore(), 0)
	_ = cat.Save(ctx, sampleRoute())

	got, err := cat.NearbyRoutes(ctx, types.Point{Lat: -1.2652, Lng: 36.8031}, 0.5)
	if err != nil || len(got) != 1 {
		t.Fatalf("expected 1 nearby route, got %d (%v)", len(got), err)
	}
	got, _ = cat.NearbyRoutes(ctx, types.Point{Lat: 5, Lng: 5}, 0.5)
	if len(got) != 0 {
		t.Fatalf("expected none, got %d", len(got))
	}
}

func TestCatalogIsBefore(t *testing.T) {
	ctx := context.Background()
	cat := NewCatalog(NewMemoryStore(), 0)
	_ = cat.Save(ctx, sampleRoute())
	ok, err := cat.IsBefore(ctx, "r1", "m", "b")
	if err != nil || !ok {
		t.Fatalf("m before b: %v %v", ok, err)
	}
	if _, err := cat.IsBefore(ctx, "nope", "a", "b"); !errors.Is(err, types.ErrNotFound) {
		t.Fatalf("unknown route: expected not found kind, got %v", err)
	}
}

type countingRepo struct {
	*MemoryStore
	lists int
}

func (c *countingRepo) ListActive(ctx context.Context) ([]*Route, error) {
	c.lists++
	return c.MemoryStore.ListActive(ctx)
}
