package model

// SeatStatus is the lifecycle state of a flight-scoped seat and of the
// reservation seat links that point at it.
type SeatStatus string

const (
	SeatAvailable SeatStatus = "Available"
	SeatBooked    SeatStatus = "Booked"
	SeatCancelled SeatStatus = "Cancelled"
)

// Valid reports whether s is one of the known seat states.
func (s SeatStatus) Valid() bool {
	switch s {
	case SeatAvailable, SeatBooked, SeatCancelled:
		return true
	}
	return false
}

// ReservationStatus tracks a booking from creation to payment or cancellation.
type ReservationStatus string

const (
	ReservationPendingPayment ReservationStatus = "PendingPayment"
	ReservationConfirmed      ReservationStatus = "Confirmed"
	ReservationCancelled      ReservationStatus = "Cancelled"
)

func (s ReservationStatus) Valid() bool {
	switch s {
	case ReservationPendingPayment, ReservationConfirmed, ReservationCancelled:
		return true
	}
	return false
}

// PaymentStatus is stored both on reservations and on payment rows.
type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "Pending"
	PaymentPaid     PaymentStatus = "Paid"
	PaymentRefunded PaymentStatus = "Refunded"
)

// FlightStatus is the operational state of a flight.
type FlightStatus string

const (
	FlightScheduled FlightStatus = "Scheduled"
	FlightDelayed   FlightStatus = "Delayed"
	FlightDeparted  FlightStatus = "Departed"
	FlightArrived   FlightStatus = "Arrived"
	FlightCancelled FlightStatus = "Cancelled"
)

// Bookable reports whether new reservations may be taken on the flight.
func (s FlightStatus) Bookable() bool {
	return s == FlightScheduled || s == FlightDelayed
}

// Role is the user role carried in access tokens.
type Role string

const (
	RoleAdmin    Role = "ADMIN"
	RoleCustomer Role = "CUSTOMER"
)
