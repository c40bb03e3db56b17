package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/airline-reservation/internal/model"
)

// ReservationRepo persists reservations and their seat links
// (reservation_seats).
type ReservationRepo struct {
	db      *sql.DB
	dialect Dialect
}

func NewReservationRepo(db *sql.DB, d Dialect) *ReservationRepo {
	return &ReservationRepo{db: db, dialect: d}
}

// CreateTx inserts the reservation header.  A code collision yields
// ErrDuplicate so the caller can retry with a fresh code.
func (r *ReservationRepo) CreateTx(ctx context.Context, tx *sql.Tx, res *model.Reservation) error {
	const q = `INSERT INTO reservations
	           (id, code, flight_id, travel_class_id, user_id, status, payment_status, total_amount_cents, created_at, updated_at)
	           VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := tx.ExecContext(ctx, q, res.ID, res.Code, res.FlightID, res.TravelClassID, nullString(res.UserID),
		string(res.Status), string(res.PaymentStatus), res.TotalAmountCents, res.CreatedAt, res.UpdatedAt)
	if err != nil && isDuplicateKey(err) {
		return ErrDuplicate
	}
	return err
}

// CreateLinksTx inserts one reservation_seats row per passenger.
func (r *ReservationRepo) CreateLinksTx(ctx context.Context, tx *sql.Tx, links []model.ReservationSeatLink) error {
	if len(links) == 0 {
		return nil
	}
	q := `INSERT INTO reservation_seats (id, reservation_id, passenger_id, seat_id, status, created_at, updated_at) VALUES `
	args := make([]any, 0, len(links)*7)
	for i, l := range links {
		if i > 0 {
			q += ","
		}
		q += "(" + placeholders(7) + ")"
		args = append(args, l.ID, l.ReservationID, l.PassengerID, l.SeatID, string(l.Status), l.CreatedAt, l.UpdatedAt)
	}
	_, err := tx.ExecContext(ctx, q, args...)
	return err
}

const selectReservation = `SELECT id, code, flight_id, travel_class_id, user_id, status, payment_status,
       total_amount_cents, created_at, updated_at FROM reservations`

func scanReservation(s rowScanner) (*model.Reservation, error) {
	var (
		res             model.Reservation
		userID          sql.NullString
		status, payment string
	)
	if err := s.Scan(&res.ID, &res.Code, &res.FlightID, &res.TravelClassID, &userID, &status, &payment,
		&res.TotalAmountCents, &res.CreatedAt, &res.UpdatedAt); err != nil {
		return nil, err
	}
	res.UserID = stringPtr(userID)
	res.Status = model.ReservationStatus(status)
	res.PaymentStatus = model.PaymentStatus(payment)
	return &res, nil
}

// GetForUpdateTx loads and locks a reservation header.
func (r *ReservationRepo) GetForUpdateTx(ctx context.Context, tx *sql.Tx, id string) (*model.Reservation, error) {
	res, err := scanReservation(tx.QueryRowContext(ctx, selectReservation+` WHERE id = ?`+r.dialect.LockClause, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return res, err
}

// UpdateStatusTx sets both the booking and payment status.
func (r *ReservationRepo) UpdateStatusTx(ctx context.Context, tx *sql.Tx, id string, status model.ReservationStatus, payment model.PaymentStatus) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE reservations SET status = ?, payment_status = ?, updated_at = ? WHERE id = ?`,
		string(status), string(payment), now(), id)
	if err != nil {
		return err
	}
	return expectOne(res)
}

// CancelLinksTx cancels every link of the reservation that is not already
// Cancelled and returns the seat ids those links referenced.
func (r *ReservationRepo) CancelLinksTx(ctx context.Context, tx *sql.Tx, reservationID string) ([]string, error) {
	rows, err := tx.QueryContext(ctx,
		`SELECT seat_id FROM reservation_seats WHERE reservation_id = ? AND status <> 'Cancelled' ORDER BY seat_id`+r.dialect.LockClause,
		reservationID)
	if err != nil {
		return nil, err
	}
	var seatIDs []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, err
		}
		seatIDs = append(seatIDs, id)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()
	if len(seatIDs) == 0 {
		return nil, nil
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE reservation_seats SET status = 'Cancelled', updated_at = ? WHERE reservation_id = ? AND status <> 'Cancelled'`,
		now(), reservationID)
	if err != nil {
		return nil, err
	}
	return seatIDs, nil
}

// CountActiveLinksForSeatTx counts non-cancelled links referencing a seat.
func (r *ReservationRepo) CountActiveLinksForSeatTx(ctx context.Context, tx *sql.Tx, seatID string) (int, error) {
	var n int
	err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM reservation_seats WHERE seat_id = ? AND status <> 'Cancelled'`, seatID).Scan(&n)
	return n, err
}

const selectReservationDetail = `SELECT r.id, r.code, r.flight_id, r.travel_class_id, r.user_id, r.status, r.payment_status,
       r.total_amount_cents, r.created_at, r.updated_at,
       f.flight_no, tc.name, f.departure_at, f.arrival_at, src.iata_code, dst.iata_code
FROM reservations r
JOIN flights f ON f.id = r.flight_id
JOIN travel_classes tc ON tc.id = r.travel_class_id
JOIN airports src ON src.id = f.source_airport_id
JOIN airports dst ON dst.id = f.destination_airport_id`

func scanReservationDetail(s rowScanner) (*model.ReservationDetail, error) {
	var (
		d               model.ReservationDetail
		userID          sql.NullString
		status, payment string
	)
	if err := s.Scan(&d.ID, &d.Code, &d.FlightID, &d.TravelClassID, &userID, &status, &payment,
		&d.TotalAmountCents, &d.CreatedAt, &d.UpdatedAt,
		&d.FlightNo, &d.TravelClass, &d.DepartureAt, &d.ArrivalAt, &d.SourceAirportCode, &d.DestinationAirportCode); err != nil {
		return nil, err
	}
	d.UserID = stringPtr(userID)
	d.Status = model.ReservationStatus(status)
	d.PaymentStatus = model.PaymentStatus(payment)
	d.DepartureAt = d.DepartureAt.UTC()
	d.ArrivalAt = d.ArrivalAt.UTC()
	return &d, nil
}

// GetDetail returns a reservation with its flight summary and lines.
func (r *ReservationRepo) GetDetail(ctx context.Context, id string) (*model.ReservationDetail, error) {
	return r.getDetail(ctx, `r.id = ?`, id)
}

// GetDetailByCode is GetDetail keyed by the human-readable code.
func (r *ReservationRepo) GetDetailByCode(ctx context.Context, code string) (*model.ReservationDetail, error) {
	return r.getDetail(ctx, `r.code = ?`, code)
}

func (r *ReservationRepo) getDetail(ctx context.Context, where string, arg any) (*model.ReservationDetail, error) {
	d, err := scanReservationDetail(r.db.QueryRowContext(ctx, selectReservationDetail+` WHERE `+where, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	lines, err := r.lines(ctx, d.ID)
	if err != nil {
		return nil, err
	}
	d.Lines = lines
	return d, nil
}

func (r *ReservationRepo) lines(ctx context.Context, reservationID string) ([]model.ReservationLine, error) {
	const q = `SELECT rs.id, p.id, p.first_name, p.last_name, s.id, s.seat_no, rs.status
	           FROM reservation_seats rs
	           JOIN passengers p ON p.id = rs.passenger_id
	           JOIN seats s ON s.id = rs.seat_id
	           WHERE rs.reservation_id = ?
	           ORDER BY s.position`
	rows, err := r.db.QueryContext(ctx, q, reservationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.ReservationLine, 0)
	for rows.Next() {
		var (
			l      model.ReservationLine
			status string
		)
		if err := rows.Scan(&l.LinkID, &l.PassengerID, &l.FirstName, &l.LastName, &l.SeatID, &l.SeatNo, &status); err != nil {
			return nil, err
		}
		l.Status = model.SeatStatus(status)
		out = append(out, l)
	}
	return out, rows.Err()
}

// ListByUser returns a user's reservations, newest first, without lines.
func (r *ReservationRepo) ListByUser(ctx context.Context, userID string) ([]model.ReservationDetail, error) {
	rows, err := r.db.QueryContext(ctx, selectReservationDetail+` WHERE r.user_id = ? ORDER BY r.created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.ReservationDetail, 0)
	for rows.Next() {
		d, err := scanReservationDetail(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *d)
	}
	return out, rows.Err()
}
