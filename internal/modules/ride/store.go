// README: Ride store backed by PostgreSQL; transitions are conditional on (status, status_version).
package ride

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"routecab/internal/types"
)

type Repository interface {
	Create(ctx context.Context, r *Ride) error
	Get(ctx context.Context, id types.ID) (*Ride, error)
	// UpdateStatus applies u only if the ride is still at u.From / u.Version
	// and reports whether it did.
	UpdateStatus(ctx context.Context, u Update) (bool, error)
	AppendEvent(ctx context.Context, e *Event) error
	ExistsWithStatus(ctx context.Context, party Party, userID types.ID, statuses []Status) (bool, error)
}

type Update struct {
	ID          types.ID
	From        Status
	To          Status
	Version     int
	DriverID    *types.ID
	CancelledBy *types.ID
	At          time.Time
}

type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

func (s *Store) Create(ctx context.Context, r *Ride) error {
	var fareAmount *int64
	var fareCurrency *string
	if r.EstimatedFare != nil {
		fareAmount = &r.EstimatedFare.Amount
		fareCurrency = &r.EstimatedFare.Currency
	}
	_, err := s.db.Exec(ctx, `
        INSERT INTO rides (
            id, passenger_id, driver_id, status, status_version,
            origin_lat, origin_lng, origin_label,
            destination_lat, destination_lng, destination_label,
            estimated_fare, fare_currency, estimated_distance_km, requested_at
        ) VALUES (
            $1, $2, $3, $4, $5,
            $6, $7, $8,
            $9, $10, $11,
            $12, $13, $14, $15
        )`,
		string(r.ID),
		string(r.PassengerID),
		string(r.DriverID),
		string(r.Status),
		r.StatusVersion,
		r.Origin.Point.Lat, r.Origin.Point.Lng, r.Origin.Label,
		r.Destination.Point.Lat, r.Destination.Point.Lng, r.Destination.Label,
		fareAmount,
		fareCurrency,
		r.EstimatedDistanceKm,
		r.RequestedAt,
	)
	return err
}

func (s *Store) Get(ctx context.Context, id types.ID) (*Ride, error) {
	row := s.db.QueryRow(ctx, `
        SELECT id, passenger_id, driver_id, status, status_version,
               origin_lat, origin_lng, origin_label,
               destination_lat, destination_lng, destination_label,
               estimated_fare, fare_currency, estimated_distance_km,
               requested_at, accepted_at, started_at, completed_at, cancelled_at, cancelled_by
        FROM rides
        WHERE id = $1`, string(id),
	)

	var r Ride
	var fareAmount *int64
	var fareCurrency *string
	var cancelledBy *string
	err := row.Scan(
		&r.ID, &r.PassengerID, &r.DriverID, &r.Status, &r.StatusVersion,
		&r.Origin.Point.Lat, &r.Origin.Point.Lng, &r.Origin.Label,
		&r.Destination.Point.Lat, &r.Destination.Point.Lng, &r.Destination.Label,
		&fareAmount, &fareCurrency, &r.EstimatedDistanceKm,
		&r.RequestedAt, &r.AcceptedAt, &r.StartedAt, &r.CompletedAt, &r.CancelledAt, &cancelledBy,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if fareAmount != nil {
		m := types.Money{Amount: *fareAmount}
		if fareCurrency != nil {
			m.Currency = *fareCurrency
		}
		r.EstimatedFare = &m
	}
	if cancelledBy != nil {
		c := types.ID(*cancelledBy)
		r.CancelledBy = &c
	}
	return &r, nil
}

func (s *Store) UpdateStatus(ctx context.Context, u Update) (bool, error) {
	tag, err := s.db.Exec(ctx, `
        UPDATE rides
        SET status = $1,
            status_version = status_version + 1,
            driver_id = COALESCE($2, driver_id),
            cancelled_by = COALESCE($3, cancelled_by),
            accepted_at = CASE WHEN $1 = 'accepted' THEN $4 ELSE accepted_at END,
            started_at = CASE WHEN $1 = 'in_progress' THEN $4 ELSE started_at END,
            completed_at = CASE WHEN $1 = 'completed' THEN $4 ELSE completed_at END,
            cancelled_at = CASE WHEN $1 = 'cancelled' THEN $4 ELSE cancelled_at END
        WHERE id = $5 AND status = $6 AND status_version = $7`,
		string(u.To),
		toStringPtr(u.DriverID),
		toStringPtr(u.CancelledBy),
		u.At,
		string(u.ID),
		string(u.From),
		u.Version,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (s *Store) AppendEvent(ctx context.Context, e *Event) error {
	_, err := s.db.Exec(ctx, `
        INSERT INTO ride_state_events (
            ride_id, from_status, to_status, actor_type, actor_id, created_at
        ) VALUES ($1, $2, $3, $4, $5, $6)`,
		string(e.RideID),
		string(e.FromStatus),
		string(e.ToStatus),
		string(e.ActorType),
		toStringPtr(e.ActorID),
		e.CreatedAt,
	)
	return err
}

func (s *Store) ExistsWithStatus(ctx context.Context, party Party, userID types.ID, statuses []Status) (bool, error) {
	column, err := partyColumn(party)
	if err != nil {
		return false, err
	}
	names := make([]string, len(statuses))
	for i, st := range statuses {
		names[i] = string(st)
	}
	row := s.db.QueryRow(ctx, `
        SELECT EXISTS (
            SELECT 1 FROM rides
            WHERE `+column+` = $1
              AND status = ANY($2)
        )`, string(userID), names,
	)
	var exists bool
	if err := row.Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

func partyColumn(p Party) (string, error) {
	switch p {
	case PartyPassenger:
		return "passenger_id", nil
	case PartyDriver:
		return "driver_id", nil
	}
	return "", fmt.Errorf("%w: unknown party %q", ErrBadRequest, p)
}

func toStringPtr(v *types.ID) *string {
	if v == nil {
		return nil
	}
	s := string(*v)
	return &s
}
