package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"github.com/iliyamo/airline-reservation/internal/model"
)

// TravelClassRepo reads travel classes and maintains seat layout rules.
type TravelClassRepo struct {
	db *sql.DB
}

func NewTravelClassRepo(db *sql.DB) *TravelClassRepo { return &TravelClassRepo{db: db} }

// List returns travel classes from the front cabin backwards.
func (r *TravelClassRepo) List(ctx context.Context) ([]model.TravelClass, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name, rank_order FROM travel_classes ORDER BY rank_order`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.TravelClass, 0)
	for rows.Next() {
		var c model.TravelClass
		if err := rows.Scan(&c.ID, &c.Name, &c.Rank); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// GetByID loads one travel class or returns ErrNotFound.
func (r *TravelClassRepo) GetByID(ctx context.Context, id string) (*model.TravelClass, error) {
	var c model.TravelClass
	err := r.db.QueryRowContext(ctx, `SELECT id, name, rank_order FROM travel_classes WHERE id = ?`, id).
		Scan(&c.ID, &c.Name, &c.Rank)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// CreateLayout inserts a seat layout rule.  A second rule for the same
// aircraft type and class yields ErrDuplicate.
func (r *TravelClassRepo) CreateLayout(ctx context.Context, l *model.SeatLayoutRule) error {
	l.ID = uuid.NewString()
	const q = `INSERT INTO seat_layouts (id, aircraft_type_id, travel_class_id, capacity) VALUES (?, ?, ?, ?)`
	if _, err := r.db.ExecContext(ctx, q, l.ID, l.AircraftTypeID, l.TravelClassID, l.Capacity); err != nil {
		if isDuplicateKey(err) {
			return ErrDuplicate
		}
		return err
	}
	return nil
}

// ListLayouts returns the layout rules of an aircraft type.
func (r *TravelClassRepo) ListLayouts(ctx context.Context, aircraftTypeID string) ([]model.SeatLayoutRule, error) {
	return listLayouts(ctx, r.db, aircraftTypeID)
}

// ListLayoutsTx is ListLayouts inside a transaction.  Rules come back in
// travel-class rank order so seat generation is deterministic.
func (r *TravelClassRepo) ListLayoutsTx(ctx context.Context, tx *sql.Tx, aircraftTypeID string) ([]model.SeatLayoutRule, error) {
	return listLayouts(ctx, tx, aircraftTypeID)
}

func listLayouts(ctx context.Context, q Querier, aircraftTypeID string) ([]model.SeatLayoutRule, error) {
	const sel = `SELECT sl.id, sl.aircraft_type_id, sl.travel_class_id, tc.name, sl.capacity
	             FROM seat_layouts sl
	             JOIN travel_classes tc ON tc.id = sl.travel_class_id
	             WHERE sl.aircraft_type_id = ?
	             ORDER BY tc.rank_order`
	rows, err := q.QueryContext(ctx, sel, aircraftTypeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.SeatLayoutRule, 0)
	for rows.Next() {
		var l model.SeatLayoutRule
		if err := rows.Scan(&l.ID, &l.AircraftTypeID, &l.TravelClassID, &l.TravelClass, &l.Capacity); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}
