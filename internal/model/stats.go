package model

import "time"

// StatsSummary is the headline block of the admin dashboard.
type StatsSummary struct {
	Reservations     int   `json:"reservations"`
	Confirmed        int   `json:"confirmed"`
	PendingPayment   int   `json:"pending_payment"`
	Cancelled        int   `json:"cancelled"`
	Passengers       int   `json:"passengers"`
	RevenueCents     int64 `json:"revenue_cents"`
	FlightsDeparting int   `json:"flights_departing"`
}

// DailyReservations aggregates reservations created on one calendar day.
type DailyReservations struct {
	Day          time.Time `json:"day"`
	Reservations int       `json:"reservations"`
	RevenueCents int64     `json:"revenue_cents"`
}

// RouteCount aggregates reservations by source and destination airport.
type RouteCount struct {
	SourceCode      string `json:"source_code"`
	DestinationCode string `json:"destination_code"`
	Reservations    int    `json:"reservations"`
	Passengers      int    `json:"passengers"`
}

// AirlineRevenue aggregates paid revenue by operating airline.
type AirlineRevenue struct {
	AirlineCode  string `json:"airline_code"`
	AirlineName  string `json:"airline_name"`
	Reservations int    `json:"reservations"`
	RevenueCents int64  `json:"revenue_cents"`
}

// ClassCount counts booked seats per travel class.
type ClassCount struct {
	TravelClass string `json:"travel_class"`
	SeatsBooked int    `json:"seats_booked"`
}

// FlightOccupancy is the load factor of one flight.
type FlightOccupancy struct {
	FlightID    string    `json:"flight_id"`
	FlightNo    string    `json:"flight_no"`
	DepartureAt time.Time `json:"departure_at"`
	TotalSeats  int       `json:"total_seats"`
	BookedSeats int       `json:"booked_seats"`
}
