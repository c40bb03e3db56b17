package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"github.com/iliyamo/airline-reservation/internal/model"
)

// RouteRepo provides access to the routes reference table.
type RouteRepo struct {
	db *sql.DB
}

func NewRouteRepo(db *sql.DB) *RouteRepo { return &RouteRepo{db: db} }

// Create inserts a route; an airline flies each airport pair at most once.
func (r *RouteRepo) Create(ctx context.Context, rt *model.Route) error {
	rt.ID = uuid.NewString()
	rt.CreatedAt = now()
	const q = `INSERT INTO routes (id, airline_id, source_airport_id, destination_airport_id, created_at)
	           VALUES (?, ?, ?, ?, ?)`
	if _, err := r.db.ExecContext(ctx, q, rt.ID, rt.AirlineID, rt.SourceAirportID, rt.DestinationAirportID, rt.CreatedAt); err != nil {
		if isDuplicateKey(err) {
			return ErrDuplicate
		}
		return err
	}
	return nil
}

const selectRoute = `SELECT rt.id, rt.airline_id, rt.source_airport_id, rt.destination_airport_id,
                            al.code, src.iata_code, dst.iata_code, rt.created_at
                     FROM routes rt
                     JOIN airlines al ON al.id = rt.airline_id
                     JOIN airports src ON src.id = rt.source_airport_id
                     JOIN airports dst ON dst.id = rt.destination_airport_id`

func scanRoute(row rowScanner) (model.Route, error) {
	var rt model.Route
	err := row.Scan(&rt.ID, &rt.AirlineID, &rt.SourceAirportID, &rt.DestinationAirportID,
		&rt.AirlineCode, &rt.SourceAirportCode, &rt.DestinationAirportCode, &rt.CreatedAt)
	return rt, err
}

// List returns routes ordered by airline and airport codes.  An empty
// airlineID lists every airline's routes.
func (r *RouteRepo) List(ctx context.Context, airlineID string) ([]model.Route, error) {
	q := selectRoute
	var args []any
	if airlineID != "" {
		q += ` WHERE rt.airline_id = ?`
		args = append(args, airlineID)
	}
	q += ` ORDER BY al.code, src.iata_code, dst.iata_code`
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Route, 0)
	for rows.Next() {
		rt, err := scanRoute(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rt)
	}
	return out, rows.Err()
}

// GetByIDTx loads one route inside a transaction.
func (r *RouteRepo) GetByIDTx(ctx context.Context, tx *sql.Tx, id string) (*model.Route, error) {
	return getRoute(ctx, tx, id)
}

// GetByID loads one route or returns ErrNotFound.
func (r *RouteRepo) GetByID(ctx context.Context, id string) (*model.Route, error) {
	return getRoute(ctx, r.db, id)
}

func getRoute(ctx context.Context, q Querier, id string) (*model.Route, error) {
	rt, err := scanRoute(q.QueryRowContext(ctx, selectRoute+` WHERE rt.id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rt, nil
}

// Delete removes a route.  Flights already scheduled on it keep their
// airports.
func (r *RouteRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM routes WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return expectOne(res)
}
