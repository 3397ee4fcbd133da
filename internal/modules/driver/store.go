// README: Driver profile store backed by PostgreSQL.
package driver

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"routecab/internal/types"
)

type Repository interface {
	Create(ctx context.Context, d *Driver) error
	Get(ctx context.Context, id types.ID) (*Driver, error)
	GetByUser(ctx context.Context, userID types.ID) (*Driver, error)
	ListByRoute(ctx context.Context, routeID types.ID) ([]*Driver, error)
	SetAvailability(ctx context.Context, id types.ID, available bool) error
	// SetRoute assigns routeID. When onlyIfUnassigned is set, the update only
	// lands if the driver has no route yet and reports false otherwise.
	SetRoute(ctx context.Context, id, routeID types.ID, onlyIfUnassigned bool) (bool, error)
}

type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

const driverColumns = `id, user_id, route_id, available, vehicle_plate, vehicle_capacity, vehicle_model, created_at`

func (s *Store) Create(ctx context.Context, d *Driver) error {
	_, err := s.db.Exec(ctx, `
        INSERT INTO drivers (`+driverColumns+`)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		string(d.ID),
		string(d.UserID),
		toStringPtr(d.RouteID),
		d.Available,
		d.Vehicle.Plate,
		d.Vehicle.Capacity,
		d.Vehicle.Model,
		d.CreatedAt,
	)
	return err
}

func (s *Store) Get(ctx context.Context, id types.ID) (*Driver, error) {
	return s.queryOne(ctx, `SELECT `+driverColumns+` FROM drivers WHERE id = $1`, string(id))
}

func (s *Store) GetByUser(ctx context.Context, userID types.ID) (*Driver, error) {
	return s.queryOne(ctx, `SELECT `+driverColumns+` FROM drivers WHERE user_id = $1`, string(userID))
}

func (s *Store) ListByRoute(ctx context.Context, routeID types.ID) ([]*Driver, error) {
	rows, err := s.db.Query(ctx, `SELECT `+driverColumns+` FROM drivers WHERE route_id = $1 ORDER BY id`, string(routeID))
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, scanDriver)
}

func (s *Store) SetAvailability(ctx context.Context, id types.ID, available bool) error {
	tag, err := s.db.Exec(ctx, `UPDATE drivers SET available = $1 WHERE id = $2`, available, string(id))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) SetRoute(ctx context.Context, id, routeID types.ID, onlyIfUnassigned bool) (bool, error) {
	tag, err := s.db.Exec(ctx, `
        UPDATE drivers
        SET route_id = $1
        WHERE id = $2 AND (NOT $3 OR route_id IS NULL)`,
		string(routeID), string(id), onlyIfUnassigned,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (s *Store) queryOne(ctx context.Context, sql string, arg any) (*Driver, error) {
	rows, err := s.db.Query(ctx, sql, arg)
	if err != nil {
		return nil, err
	}
	d, err := pgx.CollectOneRow(rows, scanDriver)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return d, err
}

func scanDriver(row pgx.CollectableRow) (*Driver, error) {
	var d Driver
	var routeID *string
	err := row.Scan(&d.ID, &d.UserID, &routeID, &d.Available,
		&d.Vehicle.Plate, &d.Vehicle.Capacity, &d.Vehicle.Model, &d.CreatedAt)
	if err != nil {
		return nil, err
	}
	if routeID != nil {
		r := types.ID(*routeID)
		d.RouteID = &r
	}
	return &d, nil
}

func toStringPtr(v *types.ID) *string {
	if v == nil {
		return nil
	}
	s := string(*v)
	return &s
}
