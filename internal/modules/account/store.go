// README: Account store backed by PostgreSQL; role patches are conditional on the previous roles.
package account

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"routecab/internal/types"
)

type Repository interface {
	Create(ctx context.Context, a *Account) error
	Get(ctx context.Context, id types.ID) (*Account, error)
	// UpdateRoles sets to only if the stored roles still equal from, and reports whether it did.
	UpdateRoles(ctx context.Context, id types.ID, from, to Roles, at time.Time) (bool, error)
	// EnsurePassengerProfile creates the passenger statistics row if it is missing.
	EnsurePassengerProfile(ctx context.Context, userID types.ID) error
}

type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

func (s *Store) Create(ctx context.Context, a *Account) error {
	_, err := s.db.Exec(ctx, `
        INSERT INTO accounts (id, account_type, current_active_role, created_at)
        VALUES ($1, $2, $3, $4)`,
		string(a.ID),
		string(a.Roles.Type()),
		roleString(a.Roles.StoredActive()),
		a.CreatedAt,
	)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrDuplicate
	}
	return err
}

func (s *Store) Get(ctx context.Context, id types.ID) (*Account, error) {
	row := s.db.QueryRow(ctx, `
        SELECT id, account_type, current_active_role, created_at, role_changed_at
        FROM accounts
        WHERE id = $1`, string(id),
	)
	var (
		a      Account
		typ    string
		active *string
	)
	err := row.Scan(&a.ID, &typ, &active, &a.CreatedAt, &a.RoleChangedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var role *Role
	if active != nil {
		r := Role(*active)
		role = &r
	}
	roles, err := RolesFrom(Type(typ), role)
	if err != nil {
		return nil, err
	}
	a.Roles = roles
	return &a, nil
}

func (s *Store) UpdateRoles(ctx context.Context, id types.ID, from, to Roles, at time.Time) (bool, error) {
	tag, err := s.db.Exec(ctx, `
        UPDATE accounts
        SET account_type = $1,
            current_active_role = $2,
            role_changed_at = $3
        WHERE id = $4
          AND account_type = $5
          AND current_active_role IS NOT DISTINCT FROM $6`,
		string(to.Type()),
		roleString(to.StoredActive()),
		at,
		string(id),
		string(from.Type()),
		roleString(from.StoredActive()),
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (s *Store) EnsurePassengerProfile(ctx context.Context, userID types.ID) error {
	_, err := s.db.Exec(ctx, `
        INSERT INTO passenger_profiles (user_id, created_at)
        VALUES ($1, $2)
        ON CONFLICT (user_id) DO NOTHING`,
		string(userID), time.Now().UTC(),
	)
	return err
}

func roleString(r *Role) *string {
	if r == nil {
		return nil
	}
	s := string(*r)
	return &s
}
