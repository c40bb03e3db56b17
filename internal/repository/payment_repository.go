package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/iliyamo/airline-reservation/internal/model"
)

// PaymentRepo records payments against reservations.
type PaymentRepo struct {
	db *sql.DB
}

func NewPaymentRepo(db *sql.DB) *PaymentRepo { return &PaymentRepo{db: db} }

// CreateTx inserts a payment row.
func (r *PaymentRepo) CreateTx(ctx context.Context, tx *sql.Tx, p *model.Payment) error {
	var paidAt sql.NullTime
	if p.PaidAt != nil {
		paidAt = sql.NullTime{Time: p.PaidAt.UTC(), Valid: true}
	}
	const q = `INSERT INTO payments (id, reservation_id, amount_cents, method, reference, status, paid_at, created_at)
	           VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := tx.ExecContext(ctx, q, p.ID, p.ReservationID, p.AmountCents, p.Method,
		nullString(p.Reference), string(p.Status), paidAt, p.CreatedAt)
	return err
}

// MarkPaidTx settles any pending payment rows of a reservation.  It
// returns how many rows were settled.
func (r *PaymentRepo) MarkPaidTx(ctx context.Context, tx *sql.Tx, reservationID string, paidAt time.Time) (int64, error) {
	res, err := tx.ExecContext(ctx,
		`UPDATE payments SET status = 'Paid', paid_at = ? WHERE reservation_id = ? AND status = 'Pending'`,
		paidAt.UTC(), reservationID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// ListByReservation returns the payments of a reservation, oldest first.
func (r *PaymentRepo) ListByReservation(ctx context.Context, reservationID string) ([]model.Payment, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, reservation_id, amount_cents, method, reference, status, paid_at, created_at
		 FROM payments WHERE reservation_id = ? ORDER BY created_at, id`, reservationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Payment, 0)
	for rows.Next() {
		var (
			p         model.Payment
			reference sql.NullString
			status    string
			paidAt    sql.NullTime
		)
		if err := rows.Scan(&p.ID, &p.ReservationID, &p.AmountCents, &p.Method, &reference, &status, &paidAt, &p.CreatedAt); err != nil {
			return nil, err
		}
		p.Reference = stringPtr(reference)
		p.Status = model.PaymentStatus(status)
		p.PaidAt = timePtr(paidAt)
		out = append(out, p)
	}
	return out, rows.Err()
}
