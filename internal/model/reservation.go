package model

import "time"

// Passenger holds personal and contact details.  Passengers are
// independent of flights and may appear on many reservations.
type Passenger struct {
	ID          string     `json:"id"`
	FirstName   string     `json:"first_name"`
	LastName    string     `json:"last_name"`
	Email       *string    `json:"email,omitempty"`
	Phone       *string    `json:"phone,omitempty"`
	DateOfBirth *time.Time `json:"date_of_birth,omitempty"`
	PassportNo  *string    `json:"passport_no,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// Reservation is a booking on one flight in one travel class.
// Cancellation is a status transition; rows are never deleted.
type Reservation struct {
	ID               string            `json:"id"`
	Code             string            `json:"code"`
	FlightID         string            `json:"flight_id"`
	TravelClassID    string            `json:"travel_class_id"`
	UserID           *string           `json:"user_id,omitempty"`
	Status           ReservationStatus `json:"status"`
	PaymentStatus    PaymentStatus     `json:"payment_status"`
	TotalAmountCents int64             `json:"total_amount_cents"`
	CreatedAt        time.Time         `json:"created_at"`
	UpdatedAt        time.Time         `json:"updated_at"`
}

// ReservationSeatLink ties a reservation, a passenger and a flight seat.
// At most one Booked link may reference a given seat at a time.
type ReservationSeatLink struct {
	ID            string     `json:"id"`
	ReservationID string     `json:"reservation_id"`
	PassengerID   string     `json:"passenger_id"`
	SeatID        string     `json:"seat_id"`
	Status        SeatStatus `json:"status"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// ReservationLine is a passenger/seat pair as shown on a reservation.
type ReservationLine struct {
	LinkID      string     `json:"link_id"`
	PassengerID string     `json:"passenger_id"`
	FirstName   string     `json:"first_name"`
	LastName    string     `json:"last_name"`
	SeatID      string     `json:"seat_id"`
	SeatNo      string     `json:"seat_no"`
	Status      SeatStatus `json:"status"`
}

// ReservationDetail is a reservation with its flight summary and lines.
type ReservationDetail struct {
	Reservation
	FlightNo               string            `json:"flight_no"`
	TravelClass            string            `json:"travel_class"`
	DepartureAt            time.Time         `json:"departure_at"`
	ArrivalAt              time.Time         `json:"arrival_at"`
	SourceAirportCode      string            `json:"source_airport_code"`
	DestinationAirportCode string            `json:"destination_airport_code"`
	Lines                  []ReservationLine `json:"passengers,omitempty"`
}

// Payment records money received (or expected) for a reservation.
type Payment struct {
	ID            string        `json:"id"`
	ReservationID string        `json:"reservation_id"`
	AmountCents   int64         `json:"amount_cents"`
	Method        string        `json:"method"`
	Reference     *string       `json:"reference,omitempty"`
	Status        PaymentStatus `json:"status"`
	PaidAt        *time.Time    `json:"paid_at,omitempty"`
	CreatedAt     time.Time     `json:"created_at"`
}
