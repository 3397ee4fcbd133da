// README: Route store backed by PostgreSQL (routes + route_stops).
package route

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"routecab/internal/types"
)

// Repository is the persistence boundary of the catalog.
type Repository interface {
	ListActive(ctx context.Context) ([]*Route, error)
	Get(ctx context.Context, id types.ID) (*Route, error)
	Save(ctx context.Context, r *Route) error
}

type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

func (s *Store) ListActive(ctx context.Context) ([]*Route, error) {
	rows, err := s.db.Query(ctx, `
        SELECT id, name, association_id, active, fare_amount, fare_currency
        FROM routes
        WHERE active = TRUE
        ORDER BY id`)
	if err != nil {
		return nil, err
	}
	routes, err := pgx.CollectRows(rows, scanRoute)
	if err != nil {
		return nil, err
	}
	if len(routes) == 0 {
		return routes, nil
	}

	byID := make(map[types.ID]*Route, len(routes))
	ids := make([]string, len(routes))
	for i, r := range routes {
		byID[r.ID] = r
		ids[i] = string(r.ID)
	}
	stops, err := s.db.Query(ctx, `
        SELECT route_id, id, name, lat, lng, stop_order
        FROM route_stops
        WHERE route_id = ANY($1)
        ORDER BY route_id, stop_order`, ids)
	if err != nil {
		return nil, err
	}
	defer stops.Close()
	for stops.Next() {
		var routeID types.ID
		var st Stop
		if err := stops.Scan(&routeID, &st.ID, &st.Name, &st.Point.Lat, &st.Point.Lng, &st.Order); err != nil {
			return nil, err
		}
		if r, ok := byID[routeID]; ok {
			r.Stops = append(r.Stops, st)
		}
	}
	return routes, stops.Err()
}

func (s *Store) Get(ctx context.Context, id types.ID) (*Route, error) {
	rows, err := s.db.Query(ctx, `
        SELECT id, name, association_id, active, fare_amount, fare_currency
        FROM routes
        WHERE id = $1`, string(id))
	if err != nil {
		return nil, err
	}
	r, err := pgx.CollectOneRow(rows, scanRoute)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	stops, err := s.db.Query(ctx, `
        SELECT id, name, lat, lng, stop_order
        FROM route_stops
        WHERE route_id = $1
        ORDER BY stop_order`, string(id))
	if err != nil {
		return nil, err
	}
	r.Stops, err = pgx.CollectRows(stops, func(row pgx.CollectableRow) (Stop, error) {
		var st Stop
		err := row.Scan(&st.ID, &st.Name, &st.Point.Lat, &st.Point.Lng, &st.Order)
		return st, err
	})
	if err != nil {
		return nil, err
	}
	return r, nil
}

// Save upserts the route and replaces its stop sequence in one transaction.
func (s *Store) Save(ctx context.Context, r *Route) error {
	var fareAmount *int64
	var fareCurrency *string
	if r.Fare != nil {
		fareAmount = &r.Fare.Amount
		fareCurrency = &r.Fare.Currency
	}
	return pgx.BeginFunc(ctx, s.db, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
            INSERT INTO routes (id, name, association_id, active, fare_amount, fare_currency)
            VALUES ($1, $2, $3, $4, $5, $6)
            ON CONFLICT (id) DO UPDATE
            SET name = EXCLUDED.name,
                association_id = EXCLUDED.association_id,
                active = EXCLUDED.active,
                fare_amount = EXCLUDED.fare_amount,
                fare_currency = EXCLUDED.fare_currency`,
			string(r.ID), r.Name, string(r.AssociationID), r.Active, fareAmount, fareCurrency,
		)
		if err != nil {
			return fmt.Errorf("upsert route: %w", err)
		}
		if _, err := tx.Exec(ctx, `DELETE FROM route_stops WHERE route_id = $1`, string(r.ID)); err != nil {
			return fmt.Errorf("clear stops: %w", err)
		}
		batch := &pgx.Batch{}
		for _, st := range r.Stops {
			batch.Queue(`
                INSERT INTO route_stops (route_id, id, name, lat, lng, stop_order)
                VALUES ($1, $2, $3, $4, $5, $6)`,
				string(r.ID), string(st.ID), st.Name, st.Point.Lat, st.Point.Lng, st.Order,
			)
		}
		return tx.SendBatch(ctx, batch).Close()
	})
}

func scanRoute(row pgx.CollectableRow) (*Route, error) {
	var r Route
	var fareAmount *int64
	var fareCurrency *string
	if err := row.Scan(&r.ID, &r.Name, &r.AssociationID, &r.Active, &fareAmount, &fareCurrency); err != nil {
		return nil, err
	}
	if fareAmount != nil {
		m := types.Money{Amount: *fareAmount}
		if fareCurrency != nil {
			m.Currency = *fareCurrency
		}
		r.Fare = &m
	}
	return &r, nil
}
