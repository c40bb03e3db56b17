package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/iliyamo/airline-reservation/internal/model"
)

// insertBatchSize bounds the number of rows per multi-row INSERT so a
// wide-body seat map stays well under placeholder limits.
const insertBatchSize = 200

// SeatRepo manages flight-scoped seats and their cost records.
type SeatRepo struct {
	db      *sql.DB
	dialect Dialect
}

func NewSeatRepo(db *sql.DB, d Dialect) *SeatRepo { return &SeatRepo{db: db, dialect: d} }

// CreateBulkTx inserts generated seats in batches.
func (r *SeatRepo) CreateBulkTx(ctx context.Context, tx *sql.Tx, seats []model.Seat) error {
	for start := 0; start < len(seats); start += insertBatchSize {
		end := min(start+insertBatchSize, len(seats))
		chunk := seats[start:end]
		q := `INSERT INTO seats (id, flight_id, travel_class_id, seat_no, position, status, created_at, updated_at) VALUES `
		args := make([]any, 0, len(chunk)*8)
		for i, s := range chunk {
			if i > 0 {
				q += ","
			}
			q += "(" + placeholders(8) + ")"
			args = append(args, s.ID, s.FlightID, s.TravelClassID, s.SeatNo, s.Position, string(s.Status), s.CreatedAt, s.UpdatedAt)
		}
		if _, err := tx.ExecContext(ctx, q, args...); err != nil {
			return err
		}
	}
	return nil
}

// CreateCostsBulkTx inserts seat cost rows in batches.
func (r *SeatRepo) CreateCostsBulkTx(ctx context.Context, tx *sql.Tx, costs []model.SeatCost) error {
	for start := 0; start < len(costs); start += insertBatchSize {
		end := min(start+insertBatchSize, len(costs))
		chunk := costs[start:end]
		q := `INSERT INTO seat_costs (id, seat_id, valid_from, valid_to, price_cents) VALUES `
		args := make([]any, 0, len(chunk)*5)
		for i, c := range chunk {
			if i > 0 {
				q += ","
			}
			q += "(" + placeholders(5) + ")"
			args = append(args, c.ID, c.SeatID, c.ValidFrom.UTC(), c.ValidTo.UTC(), c.PriceCents)
		}
		if _, err := tx.ExecContext(ctx, q, args...); err != nil {
			return err
		}
	}
	return nil
}

// CountByFlightTx returns how many seats a flight has.
func (r *SeatRepo) CountByFlightTx(ctx context.Context, tx *sql.Tx, flightID string) (int, error) {
	var n int
	err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM seats WHERE flight_id = ?`, flightID).Scan(&n)
	return n, err
}

const selectSeat = `SELECT id, flight_id, travel_class_id, seat_no, position, status, created_at, updated_at FROM seats`

func scanSeats(rows *sql.Rows) ([]model.Seat, error) {
	defer rows.Close()
	out := make([]model.Seat, 0)
	for rows.Next() {
		var (
			s      model.Seat
			status string
		)
		if err := rows.Scan(&s.ID, &s.FlightID, &s.TravelClassID, &s.SeatNo, &s.Position, &status, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, err
		}
		s.Status = model.SeatStatus(status)
		out = append(out, s)
	}
	return out, rows.Err()
}

// ListAvailableTx picks up to limit Available seats of a class on a flight
// in seat-map order and locks them.
func (r *SeatRepo) ListAvailableTx(ctx context.Context, tx *sql.Tx, flightID, travelClassID string, limit int) ([]model.Seat, error) {
	q := selectSeat + ` WHERE flight_id = ? AND travel_class_id = ? AND status = 'Available'
	      ORDER BY position LIMIT ?` + r.dialect.LockClause
	rows, err := tx.QueryContext(ctx, q, flightID, travelClassID, limit)
	if err != nil {
		return nil, err
	}
	return scanSeats(rows)
}

// GetByIDsTx loads and locks the given seats.  Unknown ids are simply
// absent from the result.
func (r *SeatRepo) GetByIDsTx(ctx context.Context, tx *sql.Tx, ids []string) ([]model.Seat, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	q := selectSeat + ` WHERE id IN (` + placeholders(len(ids)) + `) ORDER BY position` + r.dialect.LockClause
	rows, err := tx.QueryContext(ctx, q, stringArgs(ids)...)
	if err != nil {
		return nil, err
	}
	return scanSeats(rows)
}

// MarkStatusTx moves seats from one status to another.  The update is
// guarded on the current status; if any seat was not in status from it
// returns ErrStaleSeat and the caller must roll back.
func (r *SeatRepo) MarkStatusTx(ctx context.Context, tx *sql.Tx, ids []string, from, to model.SeatStatus) error {
	if len(ids) == 0 {
		return nil
	}
	q := `UPDATE seats SET status = ?, updated_at = ? WHERE status = ? AND id IN (` + placeholders(len(ids)) + `)`
	args := append([]any{string(to), now(), string(from)}, stringArgs(ids)...)
	res, err := tx.ExecContext(ctx, q, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if int(n) != len(ids) {
		return ErrStaleSeat
	}
	return nil
}

// ReleaseTx returns a Booked seat to Available.  A seat in any other state
// is left untouched.
func (r *SeatRepo) ReleaseTx(ctx context.Context, tx *sql.Tx, id string) (bool, error) {
	res, err := tx.ExecContext(ctx,
		`UPDATE seats SET status = 'Available', updated_at = ? WHERE id = ? AND status = 'Booked'`, now(), id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// SeatMap lists every seat of a flight with its class and price,
// optionally restricted to one class.
func (r *SeatRepo) SeatMap(ctx context.Context, flightID, travelClassID string) ([]model.SeatMapEntry, error) {
	q := `SELECT s.id, s.seat_no, s.travel_class_id, tc.name, s.status,
	             COALESCE((SELECT MIN(sc.price_cents) FROM seat_costs sc WHERE sc.seat_id = s.id), 0)
	      FROM seats s
	      JOIN travel_classes tc ON tc.id = s.travel_class_id
	      WHERE s.flight_id = ?`
	args := []any{flightID}
	if travelClassID != "" {
		q += ` AND s.travel_class_id = ?`
		args = append(args, travelClassID)
	}
	q += ` ORDER BY s.position`
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.SeatMapEntry, 0)
	for rows.Next() {
		var (
			e      model.SeatMapEntry
			status string
		)
		if err := rows.Scan(&e.SeatID, &e.SeatNo, &e.TravelClassID, &e.TravelClass, &status, &e.PriceCents); err != nil {
			return nil, err
		}
		e.Status = model.SeatStatus(status)
		out = append(out, e)
	}
	return out, rows.Err()
}

// ShiftCostWindowTx realigns every seat cost of a flight with a new
// schedule.
func (r *SeatRepo) ShiftCostWindowTx(ctx context.Context, tx *sql.Tx, flightID string, from, to time.Time) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE seat_costs SET valid_from = ?, valid_to = ?
		 WHERE seat_id IN (SELECT id FROM seats WHERE flight_id = ?)`,
		from.UTC(), to.UTC(), flightID)
	return err
}
