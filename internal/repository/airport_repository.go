package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/iliyamo/airline-reservation/internal/model"
)

// AirportRepo provides access to the airports reference table.
type AirportRepo struct {
	db *sql.DB
}

func NewAirportRepo(db *sql.DB) *AirportRepo { return &AirportRepo{db: db} }

// Create inserts an airport.  The IATA code is upper-cased and must be
// unique; a clash yields ErrDuplicate.
func (r *AirportRepo) Create(ctx context.Context, a *model.Airport) error {
	a.ID = uuid.NewString()
	a.IATACode = strings.ToUpper(strings.TrimSpace(a.IATACode))
	a.CreatedAt = now()
	const q = `INSERT INTO airports (id, iata_code, name, city, country, created_at) VALUES (?, ?, ?, ?, ?, ?)`
	if _, err := r.db.ExecContext(ctx, q, a.ID, a.IATACode, a.Name, a.City, a.Country, a.CreatedAt); err != nil {
		if isDuplicateKey(err) {
			return ErrDuplicate
		}
		return err
	}
	return nil
}

const selectAirport = `SELECT id, iata_code, name, city, country, created_at FROM airports`

// List returns every airport ordered by IATA code.
func (r *AirportRepo) List(ctx context.Context) ([]model.Airport, error) {
	rows, err := r.db.QueryContext(ctx, selectAirport+` ORDER BY iata_code`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Airport, 0)
	for rows.Next() {
		var a model.Airport
		if err := rows.Scan(&a.ID, &a.IATACode, &a.Name, &a.City, &a.Country, &a.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// GetByIDTx loads one airport inside a transaction.  It returns
// ErrNotFound when the id is unknown.
func (r *AirportRepo) GetByIDTx(ctx context.Context, tx *sql.Tx, id string) (*model.Airport, error) {
	return getAirport(ctx, tx, id)
}

// GetByID loads one airport.
func (r *AirportRepo) GetByID(ctx context.Context, id string) (*model.Airport, error) {
	return getAirport(ctx, r.db, id)
}

func getAirport(ctx context.Context, q Querier, id string) (*model.Airport, error) {
	var a model.Airport
	err := q.QueryRowContext(ctx, selectAirport+` WHERE id = ?`, id).
		Scan(&a.ID, &a.IATACode, &a.Name, &a.City, &a.Country, &a.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}
