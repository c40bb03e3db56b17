package service

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun/driver/sqliteshim"

	"github.com/iliyamo/airline-reservation/internal/model"
	"github.com/iliyamo/airline-reservation/internal/repository"
)

const (
	firstClassID = "7d0f8a52-2b1e-4c8e-9a51-000000000001"
	businessID   = "7d0f8a52-2b1e-4c8e-9a51-000000000002"
	economyID    = "7d0f8a52-2b1e-4c8e-9a51-000000000003"
)

// sqliteSchema mirrors internal/database/migrations/*.up.sql with SQLite
// column types.  Foreign keys, plain indexes and ENUM checks are left out;
// tables, columns and unique keys must match, which TestSQLiteSchemaMatchesMigrations
// enforces.  Change both when a migration is added.
const sqliteSchema = `
CREATE TABLE users (
    id TEXT PRIMARY KEY, email TEXT NOT NULL UNIQUE, password_hash TEXT NOT NULL,
    role TEXT NOT NULL DEFAULT 'CUSTOMER', is_active INTEGER NOT NULL DEFAULT 1,
    created_at DATETIME NOT NULL, updated_at DATETIME NOT NULL);
CREATE TABLE refresh_tokens (
    id TEXT PRIMARY KEY, user_id TEXT NOT NULL, token_hash TEXT NOT NULL UNIQUE,
    expires_at DATETIME NOT NULL, revoked_at DATETIME NULL, created_at DATETIME NOT NULL);
CREATE TABLE airports (
    id TEXT PRIMARY KEY, iata_code TEXT NOT NULL UNIQUE, name TEXT NOT NULL,
    city TEXT NOT NULL, country TEXT NOT NULL, created_at DATETIME NOT NULL);
CREATE TABLE airlines (
    id TEXT PRIMARY KEY, code TEXT NOT NULL UNIQUE, name TEXT NOT NULL, created_at DATETIME NOT NULL);
CREATE TABLE routes (
    id TEXT PRIMARY KEY, airline_id TEXT NOT NULL, source_airport_id TEXT NOT NULL,
    destination_airport_id TEXT NOT NULL, created_at DATETIME NOT NULL,
    UNIQUE (airline_id, source_airport_id, destination_airport_id));
CREATE TABLE aircraft_types (
    id TEXT PRIMARY KEY, model TEXT NOT NULL, manufacturer TEXT NOT NULL, created_at DATETIME NOT NULL,
    UNIQUE (manufacturer, model));
CREATE TABLE aircraft (
    id TEXT PRIMARY KEY, airline_id TEXT NOT NULL, aircraft_type_id TEXT NOT NULL,
    registration TEXT NOT NULL UNIQUE, total_seats INTEGER NOT NULL, created_at DATETIME NOT NULL);
CREATE TABLE travel_classes (
    id TEXT PRIMARY KEY, name TEXT NOT NULL UNIQUE, rank_order INTEGER NOT NULL);
CREATE TABLE seat_layouts (
    id TEXT PRIMARY KEY, aircraft_type_id TEXT NOT NULL, travel_class_id TEXT NOT NULL,
    capacity INTEGER NOT NULL, UNIQUE (aircraft_type_id, travel_class_id));
CREATE TABLE flights (
    id TEXT PRIMARY KEY, flight_no TEXT NOT NULL, aircraft_id TEXT NOT NULL,
    source_airport_id TEXT NOT NULL, destination_airport_id TEXT NOT NULL,
    departure_at DATETIME NOT NULL, arrival_at DATETIME NOT NULL,
    status TEXT NOT NULL DEFAULT 'Scheduled', created_at DATETIME NOT NULL, updated_at DATETIME NOT NULL);
CREATE TABLE seats (
    id TEXT PRIMARY KEY, flight_id TEXT NOT NULL, travel_class_id TEXT NOT NULL,
    seat_no TEXT NOT NULL, position INTEGER NOT NULL, status TEXT NOT NULL DEFAULT 'Available',
    created_at DATETIME NOT NULL, updated_at DATETIME NOT NULL, UNIQUE (flight_id, seat_no));
CREATE TABLE seat_costs (
    id TEXT PRIMARY KEY, seat_id TEXT NOT NULL, valid_from DATETIME NOT NULL,
    valid_to DATETIME NOT NULL, price_cents INTEGER NOT NULL);
CREATE TABLE passengers (
    id TEXT PRIMARY KEY, first_name TEXT NOT NULL, last_name TEXT NOT NULL, email TEXT NULL,
    phone TEXT NULL, date_of_birth DATE NULL, passport_no TEXT NULL, created_at DATETIME NOT NULL);
CREATE TABLE reservations (
    id TEXT PRIMARY KEY, code TEXT NOT NULL UNIQUE, flight_id TEXT NOT NULL, travel_class_id TEXT NOT NULL,
    user_id TEXT NULL, status TEXT NOT NULL, payment_status TEXT NOT NULL,
    total_amount_cents INTEGER NOT NULL, created_at DATETIME NOT NULL, updated_at DATETIME NOT NULL);
CREATE TABLE reservation_seats (
    id TEXT PRIMARY KEY, reservation_id TEXT NOT NULL, passenger_id TEXT NOT NULL, seat_id TEXT NOT NULL,
    status TEXT NOT NULL, created_at DATETIME NOT NULL, updated_at DATETIME NOT NULL);
CREATE TABLE payments (
    id TEXT PRIMARY KEY, reservation_id TEXT NOT NULL, amount_cents INTEGER NOT NULL, method TEXT NOT NULL,
    reference TEXT NULL, status TEXT NOT NULL, paid_at DATETIME NULL, created_at DATETIME NOT NULL);
INSERT INTO travel_classes (id, name, rank_order) VALUES
    ('7d0f8a52-2b1e-4c8e-9a51-000000000001', 'First', 1),
    ('7d0f8a52-2b1e-4c8e-9a51-000000000002', 'Business', 2),
    ('7d0f8a52-2b1e-4c8e-9a51-000000000003', 'Economy', 3)`

// newTestStore opens a private in-memory SQLite database.  One connection
// keeps every statement on the same database and serialises transactions.
func newTestStore(t *testing.T) *repository.Store {
	t.Helper()
	// The sqlite time format stores DATETIME values as text SQLite's own
	// date functions can parse, as DATE() in the stats queries needs.
	db, err := sql.Open(sqliteshim.ShimName, "file::memory:?_time_format=sqlite")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	for _, stmt := range strings.Split(sqliteSchema, ";") {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		_, err := db.Exec(stmt)
		require.NoError(t, err, stmt)
	}
	return repository.NewStore(db, repository.SQLite)
}

type published struct {
	key string
	v   any
}

// recordingPublisher collects events instead of sending them.
type recordingPublisher struct {
	mu     sync.Mutex
	events []published
}

func (p *recordingPublisher) Publish(_ context.Context, key string, v any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, published{key: key, v: v})
	return nil
}

func (p *recordingPublisher) keys() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.key
	}
	return out
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fixture is a store with one airline, one aircraft and two airports.
type fixture struct {
	store        *repository.Store
	ref          *ReferenceService
	flights      *FlightService
	reservations *ReservationService
	events       *recordingPublisher

	aircraft model.Aircraft
	src, dst model.Airport
}

// newFixture builds an aircraft with totalSeats seats whose type carries
// the given per-class layout.
func newFixture(t *testing.T, totalSeats int, layout map[string]int) *fixture {
	t.Helper()
	ctx := context.Background()
	store := newTestStore(t)
	events := &recordingPublisher{}
	f := &fixture{
		store:        store,
		ref:          NewReferenceService(store),
		flights:      NewFlightService(store, nil, events, discardLogger(), 10000),
		reservations: NewReservationService(store, events, discardLogger()),
		events:       events,
	}

	airline := model.Airline{Code: "AR", Name: "Aria Air"}
	require.NoError(t, f.ref.CreateAirline(ctx, &airline))
	typ := model.AircraftType{Model: "A320", Manufacturer: "Airbus"}
	require.NoError(t, f.ref.CreateAircraftType(ctx, &typ))
	for classID, capacity := range layout {
		require.NoError(t, f.ref.CreateSeatLayout(ctx, &model.SeatLayoutRule{
			AircraftTypeID: typ.ID, TravelClassID: classID, Capacity: capacity,
		}))
	}
	f.aircraft = model.Aircraft{AirlineID: airline.ID, AircraftTypeID: typ.ID, Registration: "ep-abc", TotalSeats: totalSeats}
	require.NoError(t, f.ref.CreateAircraft(ctx, &f.aircraft))

	f.src = model.Airport{IATACode: "ika", Name: "Imam Khomeini", City: "Tehran", Country: "IR"}
	require.NoError(t, f.ref.CreateAirport(ctx, &f.src))
	f.dst = model.Airport{IATACode: "IST", Name: "Istanbul", City: "Istanbul", Country: "TR"}
	require.NoError(t, f.ref.CreateAirport(ctx, &f.dst))
	return f
}

var baseDeparture = time.Date(2026, 12, 1, 8, 0, 0, 0, time.UTC)

func (f *fixture) flightInput() CreateFlightInput {
	return CreateFlightInput{
		AircraftID:           f.aircraft.ID,
		SourceAirportID:      f.src.ID,
		DestinationAirportID: f.dst.ID,
		DepartureAt:          baseDeparture,
		ArrivalAt:            baseDeparture.Add(3 * time.Hour),
	}
}

func (f *fixture) createFlight(t *testing.T) *model.FlightDetail {
	t.Helper()
	d, err := f.flights.CreateFlight(context.Background(), f.flightInput())
	require.NoError(t, err)
	return d
}

func (f *fixture) count(t *testing.T, table string) int {
	t.Helper()
	var n int
	require.NoError(t, f.store.DB.QueryRow("SELECT COUNT(*) FROM "+table).Scan(&n))
	return n
}

func (f *fixture) seatStatus(t *testing.T, seatID string) model.SeatStatus {
	t.Helper()
	var s string
	require.NoError(t, f.store.DB.QueryRow("SELECT status FROM seats WHERE id = ?", seatID).Scan(&s))
	return model.SeatStatus(s)
}

func passengers(n int) []PassengerInput {
	out := make([]PassengerInput, n)
	for i := range out {
		out[i] = PassengerInput{FirstName: "Pax", LastName: string(rune('A' + i))}
	}
	return out
}
