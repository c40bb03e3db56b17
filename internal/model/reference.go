package model

import "time"

// Airport corresponds to a row in the `airports` table.
type Airport struct {
	ID        string    `json:"id"`
	IATACode  string    `json:"iata_code"`
	Name      string    `json:"name"`
	City      string    `json:"city"`
	Country   string    `json:"country"`
	CreatedAt time.Time `json:"created_at"`
}

// Airline corresponds to a row in the `airlines` table.  Code is the two
// or three letter designator used as the flight number prefix.
type Airline struct {
	ID        string    `json:"id"`
	Code      string    `json:"code"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// Route is an airport pair an airline flies.  The codes are filled in by
// listings and left empty on create.
type Route struct {
	ID                     string    `json:"id"`
	AirlineID              string    `json:"airline_id"`
	SourceAirportID        string    `json:"source_airport_id"`
	DestinationAirportID   string    `json:"destination_airport_id"`
	AirlineCode            string    `json:"airline_code,omitempty"`
	SourceAirportCode      string    `json:"source_airport_code,omitempty"`
	DestinationAirportCode string    `json:"destination_airport_code,omitempty"`
	CreatedAt              time.Time `json:"created_at"`
}

// AircraftType is a model of aircraft (e.g. Airbus A320).  Seat layout
// rules hang off the type, not off individual airframes.
type AircraftType struct {
	ID           string    `json:"id"`
	Model        string    `json:"model"`
	Manufacturer string    `json:"manufacturer"`
	CreatedAt    time.Time `json:"created_at"`
}

// Aircraft is an individual airframe operated by an airline.
type Aircraft struct {
	ID             string    `json:"id"`
	AirlineID      string    `json:"airline_id"`
	AircraftTypeID string    `json:"aircraft_type_id"`
	Registration   string    `json:"registration"`
	TotalSeats     int       `json:"total_seats"`
	CreatedAt      time.Time `json:"created_at"`
}

// TravelClass is a cabin class such as Economy.  Rank orders classes from
// the front of the aircraft to the back and drives seat label assignment.
type TravelClass struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Rank int    `json:"rank"`
}

// SeatLayoutRule says how many seats of one travel class an aircraft type
// carries.  It is read-only reference data used when generating seats.
type SeatLayoutRule struct {
	ID             string `json:"id"`
	AircraftTypeID string `json:"aircraft_type_id"`
	TravelClassID  string `json:"travel_class_id"`
	TravelClass    string `json:"travel_class,omitempty"`
	Capacity       int    `json:"capacity"`
}
