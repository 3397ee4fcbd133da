// README: Account roles as a closed set of shapes, plus account errors.
package account

import (
	"fmt"
	"time"

	"routecab/internal/types"
)

var (
	ErrNotFound     = fmt.Errorf("account %w", types.ErrNotFound)
	ErrBadRequest   = fmt.Errorf("account: %w", types.ErrBadRequest)
	ErrRoleConflict = fmt.Errorf("account has an active ride in the current role: %w", types.ErrRoleConflict)
	ErrAccountState = fmt.Errorf("account: %w", types.ErrInvalidAccountState)
	// ErrConcurrentUpdate is returned when the roles changed between read and patch.
	ErrConcurrentUpdate = fmt.Errorf("account roles changed concurrently: %w", types.ErrInvalidAccountState)
	ErrDuplicate        = fmt.Errorf("account already exists: %w", types.ErrInvalidAccountState)
)

type Role string

const (
	RolePassenger Role = "passenger"
	RoleDriver    Role = "driver"
)

func (r Role) Valid() bool {
	return r == RolePassenger || r == RoleDriver
}

// Other returns the opposite role.
func (r Role) Other() Role {
	if r == RolePassenger {
		return RoleDriver
	}
	return RolePassenger
}

type Type string

const (
	TypePassenger Type = "passenger"
	TypeDriver    Type = "driver"
	TypeBoth      Type = "both"
)

// Roles is one of PassengerOnly, DriverOnly or Both(active). The zero value is invalid.
type Roles struct {
	typ    Type
	active Role
}

func PassengerOnly() Roles { return Roles{typ: TypePassenger, active: RolePassenger} }

func DriverOnly() Roles { return Roles{typ: TypeDriver, active: RoleDriver} }

func Both(active Role) Roles { return Roles{typ: TypeBoth, active: active} }

// Single returns the single-role shape for r.
func Single(r Role) Roles {
	if r == RoleDriver {
		return DriverOnly()
	}
	return PassengerOnly()
}

// RolesFrom rebuilds Roles from the stored (account_type, current_active_role) pair.
// Single-role accounts carry no active role.
func RolesFrom(typ Type, active *Role) (Roles, error) {
	switch typ {
	case TypePassenger, TypeDriver:
		if active != nil {
			return Roles{}, fmt.Errorf("%w: %s account cannot carry an active role", ErrAccountState, typ)
		}
		return Single(Role(typ)), nil
	case TypeBoth:
		if active == nil || !active.Valid() {
			return Roles{}, fmt.Errorf("%w: dual account needs an active role", ErrAccountState)
		}
		return Both(*active), nil
	}
	return Roles{}, fmt.Errorf("%w: unknown account type %q", ErrAccountState, typ)
}

func (r Roles) Type() Type { return r.typ }

// Active is the role the account currently operates as.
func (r Roles) Active() Role { return r.active }

func (r Roles) Dual() bool { return r.typ == TypeBoth }

func (r Roles) Has(role Role) bool {
	return r.typ == TypeBoth || Role(r.typ) == role
}

// StoredActive is the value persisted as current_active_role; nil for single-role accounts.
func (r Roles) StoredActive() *Role {
	if r.typ != TypeBoth {
		return nil
	}
	a := r.active
	return &a
}

func (r Roles) String() string {
	if r.typ == TypeBoth {
		return fmt.Sprintf("both(%s)", r.active)
	}
	return string(r.typ)
}

type Account struct {
	ID            types.ID
	Roles         Roles
	CreatedAt     time.Time
	RoleChangedAt *time.Time
}
