package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/iliyamo/airline-reservation/internal/model"
)

// AircraftRepo covers both aircraft_types and aircraft.
type AircraftRepo struct {
	db *sql.DB
}

func NewAircraftRepo(db *sql.DB) *AircraftRepo { return &AircraftRepo{db: db} }

// AircraftRecord is an aircraft together with its operator's designator,
// which flight creation needs to derive a flight number.
type AircraftRecord struct {
	model.Aircraft
	AirlineCode string
}

// CreateType inserts an aircraft type.
func (r *AircraftRepo) CreateType(ctx context.Context, t *model.AircraftType) error {
	t.ID = uuid.NewString()
	t.CreatedAt = now()
	const q = `INSERT INTO aircraft_types (id, model, manufacturer, created_at) VALUES (?, ?, ?, ?)`
	if _, err := r.db.ExecContext(ctx, q, t.ID, t.Model, t.Manufacturer, t.CreatedAt); err != nil {
		if isDuplicateKey(err) {
			return ErrDuplicate
		}
		return err
	}
	return nil
}

// ListTypes returns all aircraft types ordered by manufacturer and model.
func (r *AircraftRepo) ListTypes(ctx context.Context) ([]model.AircraftType, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, model, manufacturer, created_at FROM aircraft_types ORDER BY manufacturer, model`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.AircraftType, 0)
	for rows.Next() {
		var t model.AircraftType
		if err := rows.Scan(&t.ID, &t.Model, &t.Manufacturer, &t.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// TypeExists reports whether an aircraft type with the id exists.
func (r *AircraftRepo) TypeExists(ctx context.Context, id string) (bool, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM aircraft_types WHERE id = ?`, id).Scan(&n)
	return n > 0, err
}

// Create inserts an aircraft.  The registration is upper-cased and unique.
func (r *AircraftRepo) Create(ctx context.Context, a *model.Aircraft) error {
	a.ID = uuid.NewString()
	a.Registration = strings.ToUpper(strings.TrimSpace(a.Registration))
	a.CreatedAt = now()
	const q = `INSERT INTO aircraft (id, airline_id, aircraft_type_id, registration, total_seats, created_at)
	           VALUES (?, ?, ?, ?, ?, ?)`
	if _, err := r.db.ExecContext(ctx, q, a.ID, a.AirlineID, a.AircraftTypeID, a.Registration, a.TotalSeats, a.CreatedAt); err != nil {
		if isDuplicateKey(err) {
			return ErrDuplicate
		}
		return err
	}
	return nil
}

// List returns every aircraft, optionally restricted to one airline.
func (r *AircraftRepo) List(ctx context.Context, airlineID string) ([]model.Aircraft, error) {
	q := `SELECT id, airline_id, aircraft_type_id, registration, total_seats, created_at FROM aircraft`
	var args []any
	if airlineID != "" {
		q += ` WHERE airline_id = ?`
		args = append(args, airlineID)
	}
	q += ` ORDER BY registration`
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Aircraft, 0)
	for rows.Next() {
		var a model.Aircraft
		if err := rows.Scan(&a.ID, &a.AirlineID, &a.AircraftTypeID, &a.Registration, &a.TotalSeats, &a.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// GetByIDTx loads an aircraft and its airline code inside a transaction.
func (r *AircraftRepo) GetByIDTx(ctx context.Context, tx *sql.Tx, id string) (*AircraftRecord, error) {
	const q = `SELECT ac.id, ac.airline_id, ac.aircraft_type_id, ac.registration, ac.total_seats, ac.created_at, al.code
	           FROM aircraft ac
	           JOIN airlines al ON al.id = ac.airline_id
	           WHERE ac.id = ?`
	var a AircraftRecord
	err := tx.QueryRowContext(ctx, q, id).Scan(
		&a.ID, &a.AirlineID, &a.AircraftTypeID, &a.Registration, &a.TotalSeats, &a.CreatedAt, &a.AirlineCode)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}
