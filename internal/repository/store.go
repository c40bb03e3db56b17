package repository

import (
	"context"
	"database/sql"
)

// Store bundles the repositories over one connection pool.  It is built
// once at startup and handed to every service.
type Store struct {
	DB           *sql.DB
	Users        *UserRepo
	Tokens       *TokenRepo
	Airports     *AirportRepo
	Airlines     *AirlineRepo
	Routes       *RouteRepo
	Aircraft     *AircraftRepo
	Classes      *TravelClassRepo
	Flights      *FlightRepo
	Seats        *SeatRepo
	Passengers   *PassengerRepo
	Reservations *ReservationRepo
	Payments     *PaymentRepo
	Stats        *StatsRepo
}

func NewStore(db *sql.DB, d Dialect) *Store {
	return &Store{
		DB:           db,
		Users:        NewUserRepo(db),
		Tokens:       NewTokenRepo(db),
		Airports:     NewAirportRepo(db),
		Airlines:     NewAirlineRepo(db),
		Routes:       NewRouteRepo(db),
		Aircraft:     NewAircraftRepo(db),
		Classes:      NewTravelClassRepo(db),
		Flights:      NewFlightRepo(db, d),
		Seats:        NewSeatRepo(db, d),
		Passengers:   NewPassengerRepo(db),
		Reservations: NewReservationRepo(db, d),
		Payments:     NewPaymentRepo(db),
		Stats:        NewStatsRepo(db),
	}
}

// Begin starts a transaction at the driver's default isolation level.
func (s *Store) Begin(ctx context.Context) (*sql.Tx, error) {
	return s.DB.BeginTx(ctx, nil)
}
