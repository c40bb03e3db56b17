// Package service holds the booking business logic.  Each operation runs
// in one database transaction and reports failures as *Error values whose
// Kind decides the HTTP status.
package service

import (
	"errors"
	"fmt"
)

// Kind classifies a failure.
type Kind int

const (
	KindInfrastructure Kind = iota
	KindValidation
	KindNotFound
	KindBusinessRule
	KindConflict
	KindUnauthorized
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindBusinessRule:
		return "business_rule"
	case KindConflict:
		return "conflict"
	case KindUnauthorized:
		return "unauthorized"
	default:
		return "infrastructure"
	}
}

// Error is the single error type returned by services.  Two errors are
// equal under errors.Is when their codes match, so callers test against
// the sentinels below regardless of the detailed message.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// withMessage copies a sentinel with a more specific message.
func (e *Error) withMessage(format string, args ...any) *Error {
	return &Error{Kind: e.Kind, Code: e.Code, Message: fmt.Sprintf(format, args...)}
}

var (
	ErrInvalidInput          = &Error{Kind: KindValidation, Code: "INVALID_INPUT", Message: "invalid input"}
	ErrInvalidSchedule       = &Error{Kind: KindValidation, Code: "INVALID_SCHEDULE", Message: "departure must be before arrival"}
	ErrInvalidRoute          = &Error{Kind: KindValidation, Code: "INVALID_ROUTE", Message: "source and destination airports must differ"}
	ErrNotFound              = &Error{Kind: KindNotFound, Code: "NOT_FOUND", Message: "not found"}
	ErrNoSeatLayout          = &Error{Kind: KindNotFound, Code: "NO_SEAT_LAYOUT", Message: "no seat layout defined for aircraft type"}
	ErrCapacityExceeded      = &Error{Kind: KindBusinessRule, Code: "CAPACITY_EXCEEDED", Message: "seat layout exceeds aircraft capacity"}
	ErrInvalidFlightOrClass  = &Error{Kind: KindBusinessRule, Code: "INVALID_FLIGHT_OR_CLASS", Message: "flight does not sell the requested travel class"}
	ErrFlightNotBookable     = &Error{Kind: KindBusinessRule, Code: "FLIGHT_NOT_BOOKABLE", Message: "flight is not open for booking"}
	ErrSeatCountMismatch     = &Error{Kind: KindBusinessRule, Code: "SEAT_COUNT_MISMATCH", Message: "one seat must be selected per passenger"}
	ErrInsufficientSeats     = &Error{Kind: KindBusinessRule, Code: "INSUFFICIENT_SEATS", Message: "not enough seats available"}
	ErrFlightHasSeats        = &Error{Kind: KindBusinessRule, Code: "FLIGHT_HAS_SEATS", Message: "flight with seats cannot be deleted"}
	ErrFlightNotModifiable   = &Error{Kind: KindBusinessRule, Code: "FLIGHT_NOT_MODIFIABLE", Message: "flight can no longer be changed"}
	ErrInvalidPayment        = &Error{Kind: KindBusinessRule, Code: "INVALID_PAYMENT", Message: "payment amount does not match reservation total"}
	ErrReservationNotPayable = &Error{Kind: KindBusinessRule, Code: "RESERVATION_NOT_PAYABLE", Message: "reservation is not awaiting payment"}
	ErrTicketUnavailable     = &Error{Kind: KindBusinessRule, Code: "TICKET_UNAVAILABLE", Message: "ticket is only issued for confirmed reservations"}
	ErrSeatUnavailable       = &Error{Kind: KindConflict, Code: "SEAT_UNAVAILABLE", Message: "seat is not available"}
	ErrDuplicate             = &Error{Kind: KindConflict, Code: "DUPLICATE", Message: "already exists"}
	ErrEmailExists           = &Error{Kind: KindConflict, Code: "EMAIL_EXISTS", Message: "email already registered"}
	ErrInvalidCredentials    = &Error{Kind: KindUnauthorized, Code: "INVALID_CREDENTIALS", Message: "invalid credentials"}
	ErrInternal              = &Error{Kind: KindInfrastructure, Code: "INTERNAL", Message: "internal error"}
)

func invalid(format string, args ...any) *Error {
	return ErrInvalidInput.withMessage(format, args...)
}

func notFound(what, id string) *Error {
	return ErrNotFound.withMessage("%s %s not found", what, id)
}

func seatUnavailable(seat string) *Error {
	return ErrSeatUnavailable.withMessage("seat %s is not available", seat)
}

// internal wraps a store failure.  The message names the step that failed;
// the cause is kept for logs and errors.Is.
func internal(step string, err error) *Error {
	return &Error{Kind: KindInfrastructure, Code: ErrInternal.Code, Message: step, Err: err}
}

// KindOf returns the kind of err, or KindInfrastructure for errors that did
// not come from this package.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInfrastructure
}
