package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/iliyamo/airline-reservation/internal/model"
)

// StatsRepo runs read-only dashboard aggregations.  Every method takes a
// half-open [from, to) window on the relevant timestamp.
type StatsRepo struct {
	db *sql.DB
}

func NewStatsRepo(db *sql.DB) *StatsRepo { return &StatsRepo{db: db} }

// Summary returns headline counters for the window.
func (r *StatsRepo) Summary(ctx context.Context, from, to time.Time) (*model.StatsSummary, error) {
	var s model.StatsSummary
	const q = `SELECT COUNT(*),
	                  COALESCE(SUM(status = 'Confirmed'), 0),
	                  COALESCE(SUM(status = 'PendingPayment'), 0),
	                  COALESCE(SUM(status = 'Cancelled'), 0)
	           FROM reservations WHERE created_at >= ? AND created_at < ?`
	if err := r.db.QueryRowContext(ctx, q, from, to).
		Scan(&s.Reservations, &s.Confirmed, &s.PendingPayment, &s.Cancelled); err != nil {
		return nil, err
	}

	const qp = `SELECT COUNT(DISTINCT rs.passenger_id)
	            FROM reservation_seats rs
	            JOIN reservations r ON r.id = rs.reservation_id
	            WHERE r.created_at >= ? AND r.created_at < ?`
	if err := r.db.QueryRowContext(ctx, qp, from, to).Scan(&s.Passengers); err != nil {
		return nil, err
	}

	const qr = `SELECT COALESCE(SUM(amount_cents), 0) FROM payments
	            WHERE status = 'Paid' AND paid_at >= ? AND paid_at < ?`
	if err := r.db.QueryRowContext(ctx, qr, from, to).Scan(&s.RevenueCents); err != nil {
		return nil, err
	}

	const qf = `SELECT COUNT(*) FROM flights
	            WHERE status <> 'Cancelled' AND departure_at >= ? AND departure_at < ?`
	if err := r.db.QueryRowContext(ctx, qf, from, to).Scan(&s.FlightsDeparting); err != nil {
		return nil, err
	}
	return &s, nil
}

// ReservationsByDay buckets non-cancelled reservations by creation day.
// DATE() comes back as a DATE value from MySQL and as text from SQLite,
// so the bucket is scanned as a string and parsed.
func (r *StatsRepo) ReservationsByDay(ctx context.Context, from, to time.Time) ([]model.DailyReservations, error) {
	const q = `SELECT DATE(created_at) AS day, COUNT(*), COALESCE(SUM(total_amount_cents), 0)
	           FROM reservations
	           WHERE status <> 'Cancelled' AND created_at >= ? AND created_at < ?
	           GROUP BY day ORDER BY day`
	rows, err := r.db.QueryContext(ctx, q, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.DailyReservations, 0)
	for rows.Next() {
		var (
			d   model.DailyReservations
			day string
		)
		if err := rows.Scan(&day, &d.Reservations, &d.RevenueCents); err != nil {
			return nil, err
		}
		if d.Day, err = parseDay(day); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// TopRoutes ranks airport pairs by reservation count.
func (r *StatsRepo) TopRoutes(ctx context.Context, from, to time.Time, limit int) ([]model.RouteCount, error) {
	const q = `SELECT src.iata_code, dst.iata_code, COUNT(DISTINCT r.id), COUNT(rs.id)
	           FROM reservations r
	           JOIN flights f ON f.id = r.flight_id
	           JOIN airports src ON src.id = f.source_airport_id
	           JOIN airports dst ON dst.id = f.destination_airport_id
	           LEFT JOIN reservation_seats rs ON rs.reservation_id = r.id
	           WHERE r.status <> 'Cancelled' AND r.created_at >= ? AND r.created_at < ?
	           GROUP BY src.iata_code, dst.iata_code
	           ORDER BY COUNT(DISTINCT r.id) DESC, src.iata_code, dst.iata_code
	           LIMIT ?`
	rows, err := r.db.QueryContext(ctx, q, from, to, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.RouteCount, 0)
	for rows.Next() {
		var rc model.RouteCount
		if err := rows.Scan(&rc.SourceCode, &rc.DestinationCode, &rc.Reservations, &rc.Passengers); err != nil {
			return nil, err
		}
		out = append(out, rc)
	}
	return out, rows.Err()
}

// RevenueByAirline sums paid revenue per operating airline.
func (r *StatsRepo) RevenueByAirline(ctx context.Context, from, to time.Time, limit int) ([]model.AirlineRevenue, error) {
	const q = `SELECT al.code, al.name, COUNT(DISTINCT r.id), COALESCE(SUM(p.amount_cents), 0)
	           FROM payments p
	           JOIN reservations r ON r.id = p.reservation_id
	           JOIN flights f ON f.id = r.flight_id
	           JOIN aircraft ac ON ac.id = f.aircraft_id
	           JOIN airlines al ON al.id = ac.airline_id
	           WHERE p.status = 'Paid' AND p.paid_at >= ? AND p.paid_at < ?
	           GROUP BY al.code, al.name
	           ORDER BY SUM(p.amount_cents) DESC, al.code
	           LIMIT ?`
	rows, err := r.db.QueryContext(ctx, q, from, to, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.AirlineRevenue, 0)
	for rows.Next() {
		var a model.AirlineRevenue
		if err := rows.Scan(&a.AirlineCode, &a.AirlineName, &a.Reservations, &a.RevenueCents); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// ClassDistribution counts booked seat links per travel class.
func (r *StatsRepo) ClassDistribution(ctx context.Context, from, to time.Time) ([]model.ClassCount, error) {
	const q = `SELECT tc.name, COUNT(rs.id)
	           FROM reservation_seats rs
	           JOIN reservations r ON r.id = rs.reservation_id
	           JOIN travel_classes tc ON tc.id = r.travel_class_id
	           WHERE rs.status = 'Booked' AND r.created_at >= ? AND r.created_at < ?
	           GROUP BY tc.name, tc.rank_order
	           ORDER BY tc.rank_order`
	rows, err := r.db.QueryContext(ctx, q, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.ClassCount, 0)
	for rows.Next() {
		var c model.ClassCount
		if err := rows.Scan(&c.TravelClass, &c.SeatsBooked); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// FlightOccupancy lists flights departing in the window with their load.
func (r *StatsRepo) FlightOccupancy(ctx context.Context, from, to time.Time, limit int) ([]model.FlightOccupancy, error) {
	const q = `SELECT f.id, f.flight_no, f.departure_at, COUNT(s.id), COALESCE(SUM(s.status = 'Booked'), 0)
	           FROM flights f
	           LEFT JOIN seats s ON s.flight_id = f.id
	           WHERE f.departure_at >= ? AND f.departure_at < ?
	           GROUP BY f.id, f.flight_no, f.departure_at
	           ORDER BY f.departure_at, f.flight_no
	           LIMIT ?`
	rows, err := r.db.QueryContext(ctx, q, from, to, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.FlightOccupancy, 0)
	for rows.Next() {
		var o model.FlightOccupancy
		if err := rows.Scan(&o.FlightID, &o.FlightNo, &o.DepartureAt, &o.TotalSeats, &o.BookedSeats); err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}
