package model

import "time"

// Flight is a scheduled leg flown by one aircraft between two airports.
// Invariants: DepartureAt < ArrivalAt and SourceAirportID differs from
// DestinationAirportID.
type Flight struct {
	ID                   string       `json:"id"`
	FlightNo             string       `json:"flight_no"`
	AircraftID           string       `json:"aircraft_id"`
	SourceAirportID      string       `json:"source_airport_id"`
	DestinationAirportID string       `json:"destination_airport_id"`
	DepartureAt          time.Time    `json:"departure_at"`
	ArrivalAt            time.Time    `json:"arrival_at"`
	Status               FlightStatus `json:"status"`
	CreatedAt            time.Time    `json:"created_at"`
	UpdatedAt            time.Time    `json:"updated_at"`
}

// FlightDetail is a Flight joined with the names of its airline, aircraft
// and airports, as returned to clients.
type FlightDetail struct {
	Flight
	AirlineName            string `json:"airline_name"`
	AirlineCode            string `json:"airline_code"`
	AircraftRegistration   string `json:"aircraft_registration"`
	AircraftModel          string `json:"aircraft_model"`
	SourceAirportCode      string `json:"source_airport_code"`
	SourceAirportName      string `json:"source_airport_name"`
	DestinationAirportCode string `json:"destination_airport_code"`
	DestinationAirportName string `json:"destination_airport_name"`
	AvailableSeats         int    `json:"available_seats"`
}

// Seat is a flight-scoped bookable unit.  Position is the generation index
// the label was derived from.
type Seat struct {
	ID            string     `json:"id"`
	FlightID      string     `json:"flight_id"`
	TravelClassID string     `json:"travel_class_id"`
	SeatNo        string     `json:"seat_no"`
	Position      int        `json:"position"`
	Status        SeatStatus `json:"status"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// SeatCost prices one seat for a validity window that matches the
// flight's schedule.
type SeatCost struct {
	ID         string    `json:"id"`
	SeatID     string    `json:"seat_id"`
	ValidFrom  time.Time `json:"valid_from"`
	ValidTo    time.Time `json:"valid_to"`
	PriceCents int64     `json:"price_cents"`
}

// SeatMapEntry is one row of a flight's seat map.
type SeatMapEntry struct {
	SeatID        string     `json:"seat_id"`
	SeatNo        string     `json:"seat_no"`
	TravelClassID string     `json:"travel_class_id"`
	TravelClass   string     `json:"travel_class"`
	Status        SeatStatus `json:"status"`
	PriceCents    int64      `json:"price_cents"`
}
