package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/iliyamo/airline-reservation/internal/model"
)

// AirlineRepo provides access to the airlines reference table.
type AirlineRepo struct {
	db *sql.DB
}

func NewAirlineRepo(db *sql.DB) *AirlineRepo { return &AirlineRepo{db: db} }

// Create inserts an airline; the designator code must be unique.
func (r *AirlineRepo) Create(ctx context.Context, a *model.Airline) error {
	a.ID = uuid.NewString()
	a.Code = strings.ToUpper(strings.TrimSpace(a.Code))
	a.CreatedAt = now()
	const q = `INSERT INTO airlines (id, code, name, created_at) VALUES (?, ?, ?, ?)`
	if _, err := r.db.ExecContext(ctx, q, a.ID, a.Code, a.Name, a.CreatedAt); err != nil {
		if isDuplicateKey(err) {
			return ErrDuplicate
		}
		return err
	}
	return nil
}

// List returns every airline ordered by code.
func (r *AirlineRepo) List(ctx context.Context) ([]model.Airline, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, code, name, created_at FROM airlines ORDER BY code`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Airline, 0)
	for rows.Next() {
		var a model.Airline
		if err := rows.Scan(&a.ID, &a.Code, &a.Name, &a.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// GetByID loads one airline or returns ErrNotFound.
func (r *AirlineRepo) GetByID(ctx context.Context, id string) (*model.Airline, error) {
	var a model.Airline
	err := r.db.QueryRowContext(ctx, `SELECT id, code, name, created_at FROM airlines WHERE id = ?`, id).
		Scan(&a.ID, &a.Code, &a.Name, &a.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}
