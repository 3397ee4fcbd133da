// README: Role guard; role changes are blocked while a ride implicates the role being left.
package account

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"routecab/internal/logging"
	"routecab/internal/modules/driver"
	"routecab/internal/modules/ride"
	"routecab/internal/observability"
	"routecab/internal/types"
)

// Leaving the driver role is blocked by these statuses on rides the user drives.
var driverBlockingStatuses = []ride.Status{ride.StatusAccepted, ride.StatusInProgress}

// Leaving the passenger role is blocked by these statuses on rides the user takes.
var passengerBlockingStatuses = []ride.Status{ride.StatusRequested, ride.StatusAccepted, ride.StatusInProgress}

type RideLookup interface {
	HasRideInStatus(ctx context.Context, party ride.Party, userID types.ID, statuses ...ride.Status) (bool, error)
}

type DriverProvisioner interface {
	Provision(ctx context.Context, userID types.ID, v driver.Vehicle) (*driver.Driver, error)
}

type Service struct {
	store   Repository
	rides   RideLookup
	drivers DriverProvisioner
	log     *slog.Logger
	now     func() time.Time
}

func NewService(store Repository, rides RideLookup, drivers DriverProvisioner, log *slog.Logger) *Service {
	return &Service{store: store, rides: rides, drivers: drivers, log: logging.OrDefault(log), now: time.Now}
}

type CreateCommand struct {
	UserID types.ID
	Type   Type
	// ActiveRole applies to dual accounts only; empty means passenger.
	ActiveRole Role
	// Vehicle is used when the account includes the driver role.
	Vehicle driver.Vehicle
}

type UpgradeCommand struct {
	UserID  types.ID
	Vehicle driver.Vehicle
}

// Create registers an account and provisions a profile for each role it holds.
func (s *Service) Create(ctx context.Context, cmd CreateCommand) (*Account, error) {
	if cmd.UserID == "" {
		return nil, fmt.Errorf("%w: missing user id", ErrBadRequest)
	}
	var roles Roles
	switch cmd.Type {
	case TypePassenger:
		roles = PassengerOnly()
	case TypeDriver:
		roles = DriverOnly()
	case TypeBoth:
		active := cmd.ActiveRole
		if active == "" {
			active = RolePassenger
		}
		if !active.Valid() {
			return nil, fmt.Errorf("%w: unknown role %q", ErrBadRequest, active)
		}
		roles = Both(active)
	default:
		return nil, fmt.Errorf("%w: unknown account type %q", ErrBadRequest, cmd.Type)
	}

	if _, err := s.store.Get(ctx, cmd.UserID); err == nil {
		return nil, ErrDuplicate
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	// Profiles before the account row; both provisioners are idempotent.
	for _, role := range []Role{RolePassenger, RoleDriver} {
		if roles.Has(role) {
			if err := s.provision(ctx, cmd.UserID, role, cmd.Vehicle); err != nil {
				return nil, fmt.Errorf("provision %s profile: %w", role, err)
			}
		}
	}
	a := &Account{ID: cmd.UserID, Roles: roles, CreatedAt: s.now().UTC()}
	if err := s.store.Create(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

func (s *Service) Get(ctx context.Context, userID types.ID) (*Account, error) {
	return s.store.Get(ctx, userID)
}

// SwitchActiveRole changes the active role of a dual account.
func (s *Service) SwitchActiveRole(ctx context.Context, userID types.ID, to Role) (*Account, error) {
	a, err := s.switchActiveRole(ctx, userID, to)
	s.record("switch", err)
	return a, err
}

func (s *Service) switchActiveRole(ctx context.Context, userID types.ID, to Role) (*Account, error) {
	if !to.Valid() {
		return nil, fmt.Errorf("%w: unknown role %q", ErrBadRequest, to)
	}
	a, err := s.store.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !a.Roles.Dual() {
		return nil, fmt.Errorf("%w: %s account has a single role", ErrAccountState, a.Roles.Type())
	}
	if a.Roles.Active() == to {
		return nil, fmt.Errorf("%w: already active as %s", ErrAccountState, to)
	}
	return s.guardedPatch(ctx, a, a.Roles.Active(), Both(to))
}

// Upgrade turns a single-role account into a dual one, keeping its current role active.
func (s *Service) Upgrade(ctx context.Context, cmd UpgradeCommand) (*Account, error) {
	a, err := s.upgrade(ctx, cmd)
	s.record("upgrade", err)
	return a, err
}

func (s *Service) upgrade(ctx context.Context, cmd UpgradeCommand) (*Account, error) {
	a, err := s.store.Get(ctx, cmd.UserID)
	if err != nil {
		return nil, err
	}
	if a.Roles.Dual() {
		return nil, fmt.Errorf("%w: account already holds both roles", ErrAccountState)
	}
	current := a.Roles.Active()
	if err := s.provision(ctx, a.ID, current.Other(), cmd.Vehicle); err != nil {
		return nil, err
	}
	return s.patch(ctx, a, Both(current))
}

// Downgrade drops the role not kept. It is guarded like switching to keep.
func (s *Service) Downgrade(ctx context.Context, userID types.ID, keep Role) (*Account, error) {
	a, err := s.downgrade(ctx, userID, keep)
	s.record("downgrade", err)
	return a, err
}

func (s *Service) downgrade(ctx context.Context, userID types.ID, keep Role) (*Account, error) {
	if !keep.Valid() {
		return nil, fmt.Errorf("%w: unknown role %q", ErrBadRequest, keep)
	}
	a, err := s.store.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !a.Roles.Dual() {
		return nil, fmt.Errorf("%w: %s account has a single role", ErrAccountState, a.Roles.Type())
	}
	return s.guardedPatch(ctx, a, keep.Other(), Single(keep))
}

func (s *Service) guardLeaving(ctx context.Context, userID types.ID, leaving Role) error {
	party, statuses := ride.PartyPassenger, passengerBlockingStatuses
	if leaving == RoleDriver {
		party, statuses = ride.PartyDriver, driverBlockingStatuses
	}
	busy, err := s.rides.HasRideInStatus(ctx, party, userID, statuses...)
	if err != nil {
		return fmt.Errorf("check rides: %w", err)
	}
	if busy {
		return fmt.Errorf("%w: ride as %s", ErrRoleConflict, leaving)
	}
	return nil
}

// guardedPatch checks the ride guard on both sides of the patch. A blocking ride
// committed between the first check and the patch reverts the change.
func (s *Service) guardedPatch(ctx context.Context, a *Account, leaving Role, to Roles) (*Account, error) {
	if err := s.guardLeaving(ctx, a.ID, leaving); err != nil {
		return nil, err
	}
	from := a.Roles
	a, err := s.patch(ctx, a, to)
	if err != nil {
		return nil, err
	}
	if err := s.guardLeaving(ctx, a.ID, leaving); err != nil {
		if _, rerr := s.patch(ctx, a, from); rerr != nil {
			s.log.ErrorContext(ctx, "revert role change", "user_id", a.ID, "to", from.String(), "err", rerr)
		}
		return nil, err
	}
	return a, nil
}

func (s *Service) patch(ctx context.Context, a *Account, to Roles) (*Account, error) {
	at := s.now().UTC()
	ok, err := s.store.UpdateRoles(ctx, a.ID, a.Roles, to, at)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrConcurrentUpdate
	}
	s.log.InfoContext(ctx, "account roles changed", "user_id", a.ID, "from", a.Roles.String(), "to", to.String())
	a.Roles = to
	a.RoleChangedAt = &at
	return a, nil
}

func (s *Service) provision(ctx context.Context, userID types.ID, role Role, v driver.Vehicle) error {
	if role == RolePassenger {
		return s.store.EnsurePassengerProfile(ctx, userID)
	}
	if s.drivers == nil {
		return fmt.Errorf("%w: driver provisioning unavailable", ErrAccountState)
	}
	_, err := s.drivers.Provision(ctx, userID, v)
	return err
}

func (s *Service) record(op string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "rejected"
	}
	observability.RoleSwitchesTotal.WithLabelValues(op, outcome).Inc()
}
