// Package queue defines the domain events exchanged over RabbitMQ, the
// publisher used by services and the audit consumer that records them.
package queue

import "time"

// Routing keys on the topic exchange.
const (
	KeyReservationCreated   = "reservation.created"
	KeyReservationConfirmed = "reservation.confirmed"
	KeyReservationCancelled = "reservation.cancelled"
	KeyFlightCreated        = "flight.created"
	KeyFlightDelayed        = "flight.delayed"
	KeyFlightCancelled      = "flight.cancelled"
)

// ReservationEvent is published after a reservation is created, paid or
// cancelled.  It carries enough for consumers to log or notify without
// reading the primary database.
type ReservationEvent struct {
	ReservationID    string    `json:"reservation_id"`
	Code             string    `json:"code"`
	FlightID         string    `json:"flight_id"`
	TravelClassID    string    `json:"travel_class_id"`
	UserID           string    `json:"user_id,omitempty"`
	Status           string    `json:"status"`
	PaymentStatus    string    `json:"payment_status"`
	TotalAmountCents int64     `json:"total_amount_cents"`
	SeatIDs          []string  `json:"seat_ids,omitempty"`
	Passengers       int       `json:"passengers"`
	OccurredAt       time.Time `json:"occurred_at"`
}

// FlightEvent is published when a flight is created, delayed or cancelled.
type FlightEvent struct {
	FlightID    string    `json:"flight_id"`
	FlightNo    string    `json:"flight_no"`
	Status      string    `json:"status"`
	DepartureAt time.Time `json:"departure_at"`
	ArrivalAt   time.Time `json:"arrival_at"`
	Seats       int       `json:"seats,omitempty"`
	OccurredAt  time.Time `json:"occurred_at"`
}
