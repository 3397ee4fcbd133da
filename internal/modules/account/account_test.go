// README: Role guard tests against the in-memory ride ledger and driver registry.
package account

import (
	"context"
	"errors"
	"testing"

	"routecab/internal/modules/driver"
	"routecab/internal/modules/ride"
	"routecab/internal/types"
)

type fixture struct {
	svc      *Service
	store    *MemoryStore
	rides    *ride.Service
	drivers  *driver.Registry
	driverDB *driver.MemoryStore
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	driverDB := driver.NewMemoryStore()
	registry := driver.NewRegistry(driverDB, nil, nil)
	rides := ride.NewService(ride.NewMemoryStore(), registry, nil, nil)
	store := NewMemoryStore()
	return &fixture{
		svc:      NewService(store, rides, registry, nil),
		store:    store,
		rides:    rides,
		drivers:  registry,
		driverDB: driverDB,
	}
}

func (f *fixture) mustCreate(t *testing.T, id types.ID, typ Type, active Role) *Account {
	t.Helper()
	a, err := f.svc.Create(context.Background(), CreateCommand{UserID: id, Type: typ, ActiveRole: active})
	if err != nil {
		t.Fatalf("create account %s: %v", id, err)
	}
	return a
}

// mustRequest gives driverUser a driver profile if needed and requests a ride from it.
func (f *fixture) mustRequest(t *testing.T, passenger, driverUser types.ID) *ride.Ride {
	t.Helper()
	if _, err := f.drivers.Provision(context.Background(), driverUser, driver.Vehicle{}); err != nil {
		t.Fatalf("provision driver %s: %v", driverUser, err)
	}
	p := types.Place{Point: types.Point{Lat: -1.2921, Lng: 36.8219}}
	r, err := f.rides.Request(context.Background(), ride.RequestCommand{
		PassengerID: passenger,
		DriverID:    driverUser,
		Origin:      p,
		Destination: types.Place{Point: types.Point{Lat: -1.3, Lng: 36.83}},
	})
	if err != nil {
		t.Fatalf("request ride: %v", err)
	}
	return r
}

func TestRolesFrom(t *testing.T) {
	driverRole, bogus := RoleDriver, Role("admin")
	cases := []struct {
		name    string
		typ     Type
		active  *Role
		want    Roles
		wantErr bool
	}{
		{"passenger", TypePassenger, nil, PassengerOnly(), false},
		{"driver", TypeDriver, nil, DriverOnly(), false},
		{"both", TypeBoth, &driverRole, Both(RoleDriver), false},
		{"single with active", TypePassenger, &driverRole, Roles{}, true},
		{"both without active", TypeBoth, nil, Roles{}, true},
		{"both with unknown active", TypeBoth, &bogus, Roles{}, true},
		{"unknown type", Type("admin"), nil, Roles{}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := RolesFrom(tc.typ, tc.active)
			if tc.wantErr {
				if !errors.Is(err, types.ErrInvalidAccountState) {
					t.Fatalf("expected invalid account state, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Fatalf("got %s, want %s", got, tc.want)
			}
		})
	}
}

func TestSingleRoleActiveEqualsType(t *testing.T) {
	if PassengerOnly().Active() != RolePassenger || DriverOnly().Active() != RoleDriver {
		t.Fatalf("single-role accounts must be active as their type")
	}
	if PassengerOnly().StoredActive() != nil {
		t.Fatalf("single-role accounts store no active role")
	}
	if DriverOnly().Has(RolePassenger) || !Both(RoleDriver).Has(RolePassenger) {
		t.Fatalf("Has reports wrong capability")
	}
}

func TestCreateProvisionsProfiles(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.mustCreate(t, "u_pass", TypePassenger, "")
	if !f.store.HasPassengerProfile("u_pass") {
		t.Fatalf("expected passenger profile")
	}
	if _, err := f.driverDB.GetByUser(ctx, "u_pass"); !errors.Is(err, driver.ErrNotFound) {
		t.Fatalf("passenger account should have no driver profile, got %v", err)
	}

	a := f.mustCreate(t, "u_both", TypeBoth, "")
	if a.Roles != Both(RolePassenger) {
		t.Fatalf("dual account should default to passenger, got %s", a.Roles)
	}
	if _, err := f.driverDB.GetByUser(ctx, "u_both"); err != nil {
		t.Fatalf("expected driver profile: %v", err)
	}

	if _, err := f.svc.Create(ctx, CreateCommand{UserID: "u_pass", Type: TypePassenger}); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected duplicate, got %v", err)
	}
	if _, err := f.svc.Create(ctx, CreateCommand{UserID: "u_x", Type: "admin"}); !errors.Is(err, types.ErrBadRequest) {
		t.Fatalf("expected bad request, got %v", err)
	}
}

func TestSwitchActiveRole(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.mustCreate(t, "u_both", TypeBoth, RolePassenger)

	a, err := f.svc.SwitchActiveRole(ctx, "u_both", RoleDriver)
	if err != nil {
		t.Fatalf("switch: %v", err)
	}
	if a.Roles.Active() != RoleDriver || a.RoleChangedAt == nil {
		t.Fatalf("unexpected account after switch: %+v", a)
	}
	stored, _ := f.svc.Get(ctx, "u_both")
	if stored.Roles != Both(RoleDriver) {
		t.Fatalf("switch not persisted: %s", stored.Roles)
	}

	if _, err := f.svc.SwitchActiveRole(ctx, "u_both", RoleDriver); !errors.Is(err, types.ErrInvalidAccountState) {
		t.Fatalf("switch to current role: expected invalid account state, got %v", err)
	}
}

func TestSwitchRejectsSingleRoleAndUnknown(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.mustCreate(t, "u_pass", TypePassenger, "")

	if _, err := f.svc.SwitchActiveRole(ctx, "u_pass", RoleDriver); !errors.Is(err, types.ErrInvalidAccountState) {
		t.Fatalf("expected invalid account state, got %v", err)
	}
	if _, err := f.svc.SwitchActiveRole(ctx, "missing", RoleDriver); !errors.Is(err, types.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if _, err := f.svc.SwitchActiveRole(ctx, "u_pass", Role("admin")); !errors.Is(err, types.ErrBadRequest) {
		t.Fatalf("expected bad request, got %v", err)
	}
}

func TestSwitchToDriverBlockedByPassengerRide(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.mustCreate(t, "u_both", TypeBoth, RolePassenger)
	r := f.mustRequest(t, "u_both", "u_other_driver")

	if _, err := f.svc.SwitchActiveRole(ctx, "u_both", RoleDriver); !errors.Is(err, types.ErrRoleConflict) {
		t.Fatalf("expected role conflict, got %v", err)
	}

	if _, err := f.rides.Cancel(ctx, ride.CancelCommand{RideID: r.ID, CallerID: "u_both"}); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if _, err := f.svc.SwitchActiveRole(ctx, "u_both", RoleDriver); err != nil {
		t.Fatalf("switch after cancel: %v", err)
	}
}

func TestSwitchToPassengerBlockedByAcceptedDriverRide(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.mustCreate(t, "u_both", TypeBoth, RoleDriver)
	r := f.mustRequest(t, "u_rider", "u_both")

	// a merely requested ride does not block the driver side
	if _, err := f.svc.SwitchActiveRole(ctx, "u_both", RolePassenger); err != nil {
		t.Fatalf("switch with requested ride: %v", err)
	}
	if _, err := f.svc.SwitchActiveRole(ctx, "u_both", RoleDriver); err != nil {
		t.Fatalf("switch back: %v", err)
	}

	if _, err := f.rides.Accept(ctx, ride.AcceptCommand{RideID: r.ID, DriverID: "u_both"}); err != nil {
		t.Fatalf("accept: %v", err)
	}
	if _, err := f.svc.SwitchActiveRole(ctx, "u_both", RolePassenger); !errors.Is(err, ErrRoleConflict) {
		t.Fatalf("expected role conflict, got %v", err)
	}

	if _, err := f.rides.Complete(ctx, ride.CompleteCommand{RideID: r.ID, DriverID: "u_both"}); err != nil {
		t.Fatalf("complete: %v", err)
	}
	if _, err := f.svc.SwitchActiveRole(ctx, "u_both", RolePassenger); err != nil {
		t.Fatalf("switch after complete: %v", err)
	}
}

func TestUpgrade(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.mustCreate(t, "u_pass", TypePassenger, "")
	f.mustCreate(t, "u_drv", TypeDriver, "")

	a, err := f.svc.Upgrade(ctx, UpgradeCommand{UserID: "u_pass", Vehicle: driver.Vehicle{Plate: "KCB 001", Capacity: 14}})
	if err != nil {
		t.Fatalf("upgrade passenger: %v", err)
	}
	if a.Roles != Both(RolePassenger) {
		t.Fatalf("expected both(passenger), got %s", a.Roles)
	}
	d, err := f.driverDB.GetByUser(ctx, "u_pass")
	if err != nil || d.Vehicle.Plate != "KCB 001" {
		t.Fatalf("expected provisioned driver profile, got %+v, %v", d, err)
	}

	a, err = f.svc.Upgrade(ctx, UpgradeCommand{UserID: "u_drv"})
	if err != nil {
		t.Fatalf("upgrade driver: %v", err)
	}
	if a.Roles != Both(RoleDriver) || !f.store.HasPassengerProfile("u_drv") {
		t.Fatalf("expected both(driver) with passenger profile, got %s", a.Roles)
	}

	if _, err := f.svc.Upgrade(ctx, UpgradeCommand{UserID: "u_drv"}); !errors.Is(err, types.ErrInvalidAccountState) {
		t.Fatalf("second upgrade: expected invalid account state, got %v", err)
	}
}

func TestUpgradeIgnoresRides(t *testing.T) {
	f := newFixture(t)
	f.mustCreate(t, "u_pass", TypePassenger, "")
	f.mustRequest(t, "u_pass", "u_driver")

	if _, err := f.svc.Upgrade(context.Background(), UpgradeCommand{UserID: "u_pass"}); err != nil {
		t.Fatalf("upgrade with active ride: %v", err)
	}
}

func TestDowngrade(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.mustCreate(t, "u_both", TypeBoth, RoleDriver)
	r := f.mustRequest(t, "u_both", "u_driver")

	if _, err := f.svc.Downgrade(ctx, "u_both", RoleDriver); !errors.Is(err, types.ErrRoleConflict) {
		t.Fatalf("dropping passenger with requested ride: expected role conflict, got %v", err)
	}
	if _, err := f.rides.Cancel(ctx, ride.CancelCommand{RideID: r.ID, CallerID: "u_driver"}); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	a, err := f.svc.Downgrade(ctx, "u_both", RoleDriver)
	if err != nil {
		t.Fatalf("downgrade: %v", err)
	}
	if a.Roles != DriverOnly() || a.Roles.StoredActive() != nil {
		t.Fatalf("expected driver-only account, got %s", a.Roles)
	}
	if _, err := f.svc.Downgrade(ctx, "u_both", RoleDriver); !errors.Is(err, types.ErrInvalidAccountState) {
		t.Fatalf("downgrade of single-role account: expected invalid account state, got %v", err)
	}
}

func TestConcurrentPatchLosesCleanly(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.mustCreate(t, "u_both", TypeBoth, RolePassenger)

	if _, err := f.svc.SwitchActiveRole(ctx, "u_both", RoleDriver); err != nil {
		t.Fatalf("switch: %v", err)
	}
	// a stale read of the roles must not overwrite the newer value
	if _, err := f.svc.patch(ctx, a, Single(RolePassenger)); !errors.Is(err, ErrConcurrentUpdate) {
		t.Fatalf("expected concurrent update, got %v", err)
	}
	stored, _ := f.svc.Get(ctx, "u_both")
	if stored.Roles != Both(RoleDriver) {
		t.Fatalf("stale patch applied: %s", stored.Roles)
	}
}

type flakyProvisioner struct {
	err   error
	inner DriverProvisioner
	calls int
}

func (f *flakyProvisioner) Provision(ctx context.Context, userID types.ID, v driver.Vehicle) (*driver.Driver, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.inner.Provision(ctx, userID, v)
}

func TestCreateRetriesAfterProvisionFailure(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	prov := &flakyProvisioner{err: errors.New("driver store down"), inner: f.drivers}
	svc := NewService(f.store, f.rides, prov, nil)
	cmd := CreateCommand{UserID: "u_drv", Type: TypeDriver, Vehicle: driver.Vehicle{Plate: "KDA 1"}}

	if _, err := svc.Create(ctx, cmd); err == nil {
		t.Fatalf("expected provisioning error")
	}
	if _, err := svc.Get(ctx, "u_drv"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("account must not exist after failed provisioning, got %v", err)
	}

	prov.err = nil
	a, err := svc.Create(ctx, cmd)
	if err != nil {
		t.Fatalf("retry create: %v", err)
	}
	if a.Roles != DriverOnly() {
		t.Fatalf("unexpected roles %s", a.Roles)
	}
	if _, err := f.driverDB.GetByUser(ctx, "u_drv"); err != nil {
		t.Fatalf("expected driver profile after retry: %v", err)
	}

	if _, err := svc.Create(ctx, cmd); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected duplicate, got %v", err)
	}
	if prov.calls != 2 {
		t.Fatalf("duplicate create should not provision, calls = %d", prov.calls)
	}
}

// lateRide reports no blocking ride on the first check and one on every later check.
type lateRide struct {
	checks int
}

func (l *lateRide) HasRideInStatus(context.Context, ride.Party, types.ID, ...ride.Status) (bool, error) {
	l.checks++
	return l.checks > 1, nil
}

func TestSwitchRevertsWhenRideAppearsDuringPatch(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.mustCreate(t, "u_both", TypeBoth, RolePassenger)

	svc := NewService(f.store, &lateRide{}, f.drivers, nil)
	if _, err := svc.SwitchActiveRole(ctx, "u_both", RoleDriver); !errors.Is(err, ErrRoleConflict) {
		t.Fatalf("expected role conflict, got %v", err)
	}
	stored, err := svc.Get(ctx, "u_both")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if stored.Roles != Both(RolePassenger) {
		t.Fatalf("role change should be reverted, got %s", stored.Roles)
	}
}
