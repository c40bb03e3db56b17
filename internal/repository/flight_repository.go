package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/iliyamo/airline-reservation/internal/model"
)

// FlightRepo reads and writes flights.  Seat and seat cost rows live in
// SeatRepo.
type FlightRepo struct {
	db      *sql.DB
	dialect Dialect
}

func NewFlightRepo(db *sql.DB, d Dialect) *FlightRepo { return &FlightRepo{db: db, dialect: d} }

// FlightFilter narrows ListFlights.  Zero values mean "no constraint".
type FlightFilter struct {
	SourceAirportID      string
	DestinationAirportID string
	DepartFrom           time.Time
	DepartTo             time.Time
	IncludeCancelled     bool
	Limit                int
}

// CreateTx inserts the flight row.  ID, timestamps and status must be set
// by the caller.
func (r *FlightRepo) CreateTx(ctx context.Context, tx *sql.Tx, f *model.Flight) error {
	const q = `INSERT INTO flights
	           (id, flight_no, aircraft_id, source_airport_id, destination_airport_id, departure_at, arrival_at, status, created_at, updated_at)
	           VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := tx.ExecContext(ctx, q,
		f.ID, f.FlightNo, f.AircraftID, f.SourceAirportID, f.DestinationAirportID,
		f.DepartureAt.UTC(), f.ArrivalAt.UTC(), string(f.Status), f.CreatedAt, f.UpdatedAt)
	return err
}

const selectFlightDetail = `SELECT f.id, f.flight_no, f.aircraft_id, f.source_airport_id, f.destination_airport_id,
       f.departure_at, f.arrival_at, f.status, f.created_at, f.updated_at,
       al.name, al.code, ac.registration, aty.model,
       src.iata_code, src.name, dst.iata_code, dst.name,
       (SELECT COUNT(*) FROM seats s WHERE s.flight_id = f.id AND s.status = 'Available')
FROM flights f
JOIN aircraft ac ON ac.id = f.aircraft_id
JOIN airlines al ON al.id = ac.airline_id
JOIN aircraft_types aty ON aty.id = ac.aircraft_type_id
JOIN airports src ON src.id = f.source_airport_id
JOIN airports dst ON dst.id = f.destination_airport_id`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanFlightDetail(s rowScanner) (*model.FlightDetail, error) {
	var (
		d      model.FlightDetail
		status string
	)
	if err := s.Scan(
		&d.ID, &d.FlightNo, &d.AircraftID, &d.SourceAirportID, &d.DestinationAirportID,
		&d.DepartureAt, &d.ArrivalAt, &status, &d.CreatedAt, &d.UpdatedAt,
		&d.AirlineName, &d.AirlineCode, &d.AircraftRegistration, &d.AircraftModel,
		&d.SourceAirportCode, &d.SourceAirportName, &d.DestinationAirportCode, &d.DestinationAirportName,
		&d.AvailableSeats,
	); err != nil {
		return nil, err
	}
	d.Status = model.FlightStatus(status)
	d.DepartureAt = d.DepartureAt.UTC()
	d.ArrivalAt = d.ArrivalAt.UTC()
	return &d, nil
}

// GetDetail returns the joined flight record or ErrNotFound.
func (r *FlightRepo) GetDetail(ctx context.Context, id string) (*model.FlightDetail, error) {
	return getFlightDetail(ctx, r.db, id)
}

// GetDetailTx is GetDetail inside a transaction, so a flight created in
// the same transaction is visible.
func (r *FlightRepo) GetDetailTx(ctx context.Context, tx *sql.Tx, id string) (*model.FlightDetail, error) {
	return getFlightDetail(ctx, tx, id)
}

func getFlightDetail(ctx context.Context, q Querier, id string) (*model.FlightDetail, error) {
	d, err := scanFlightDetail(q.QueryRowContext(ctx, selectFlightDetail+` WHERE f.id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return d, err
}

// List returns flights matching the filter ordered by departure.
func (r *FlightRepo) List(ctx context.Context, fl FlightFilter) ([]model.FlightDetail, error) {
	q := selectFlightDetail + ` WHERE 1=1`
	var args []any
	if fl.SourceAirportID != "" {
		q += ` AND f.source_airport_id = ?`
		args = append(args, fl.SourceAirportID)
	}
	if fl.DestinationAirportID != "" {
		q += ` AND f.destination_airport_id = ?`
		args = append(args, fl.DestinationAirportID)
	}
	if !fl.DepartFrom.IsZero() {
		q += ` AND f.departure_at >= ?`
		args = append(args, fl.DepartFrom.UTC())
	}
	if !fl.DepartTo.IsZero() {
		q += ` AND f.departure_at < ?`
		args = append(args, fl.DepartTo.UTC())
	}
	if !fl.IncludeCancelled {
		q += ` AND f.status <> 'Cancelled'`
	}
	q += ` ORDER BY f.departure_at, f.flight_no`
	if fl.Limit > 0 {
		q += ` LIMIT ?`
		args = append(args, fl.Limit)
	}

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.FlightDetail, 0)
	for rows.Next() {
		d, err := scanFlightDetail(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *d)
	}
	return out, rows.Err()
}

// GetForUpdateTx loads the bare flight row and locks it for the rest of
// the transaction.
func (r *FlightRepo) GetForUpdateTx(ctx context.Context, tx *sql.Tx, id string) (*model.Flight, error) {
	q := `SELECT id, flight_no, aircraft_id, source_airport_id, destination_airport_id,
	             departure_at, arrival_at, status, created_at, updated_at
	      FROM flights WHERE id = ?` + r.dialect.LockClause
	var (
		f      model.Flight
		status string
	)
	err := tx.QueryRowContext(ctx, q, id).Scan(
		&f.ID, &f.FlightNo, &f.AircraftID, &f.SourceAirportID, &f.DestinationAirportID,
		&f.DepartureAt, &f.ArrivalAt, &status, &f.CreatedAt, &f.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	f.Status = model.FlightStatus(status)
	f.DepartureAt = f.DepartureAt.UTC()
	f.ArrivalAt = f.ArrivalAt.UTC()
	return &f, nil
}

// UpdateScheduleTx moves a flight's departure/arrival and sets its status.
func (r *FlightRepo) UpdateScheduleTx(ctx context.Context, tx *sql.Tx, id string, dep, arr time.Time, status model.FlightStatus) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE flights SET departure_at = ?, arrival_at = ?, status = ?, updated_at = ? WHERE id = ?`,
		dep.UTC(), arr.UTC(), string(status), now(), id)
	if err != nil {
		return err
	}
	return expectOne(res)
}

// UpdateStatusTx sets a flight's operational status.
func (r *FlightRepo) UpdateStatusTx(ctx context.Context, tx *sql.Tx, id string, status model.FlightStatus) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE flights SET status = ?, updated_at = ? WHERE id = ?`, string(status), now(), id)
	if err != nil {
		return err
	}
	return expectOne(res)
}

// DeleteTx removes a flight row.  Callers must have checked that the
// flight has no seats.
func (r *FlightRepo) DeleteTx(ctx context.Context, tx *sql.Tx, id string) error {
	res, err := tx.ExecContext(ctx, `DELETE FROM flights WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return expectOne(res)
}

// Fare is the bookability snapshot used when a reservation is created.
type Fare struct {
	FlightStatus model.FlightStatus
	// PriceCents is the lowest seat price of the class on the flight.
	PriceCents int64
}

// FareTx returns the flight status and base price of a class on an active
// flight.  ErrNotFound means the flight is unknown, cancelled, or sells no
// seat of that class.
func (r *FlightRepo) FareTx(ctx context.Context, tx *sql.Tx, flightID, travelClassID string) (*Fare, error) {
	var status string
	err := tx.QueryRowContext(ctx, `SELECT status FROM flights WHERE id = ? AND status <> 'Cancelled'`+r.dialect.LockClause, flightID).Scan(&status)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	var price sql.NullInt64
	const q = `SELECT MIN(sc.price_cents)
	           FROM seat_costs sc
	           JOIN seats s ON s.id = sc.seat_id
	           WHERE s.flight_id = ? AND s.travel_class_id = ?`
	if err := tx.QueryRowContext(ctx, q, flightID, travelClassID).Scan(&price); err != nil {
		return nil, err
	}
	if !price.Valid {
		return nil, ErrNotFound
	}
	return &Fare{FlightStatus: model.FlightStatus(status), PriceCents: price.Int64}, nil
}

func expectOne(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
