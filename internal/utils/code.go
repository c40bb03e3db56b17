package utils

import "github.com/thanhpk/randstr"

// codeAlphabet omits 0/O and 1/I so codes survive being read over the phone.
const codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// ReservationCodeLength is the length of a booking reference.
const ReservationCodeLength = 6

// NewReservationCode returns a random human-readable booking reference
// such as "K7QX2M".  Uniqueness is enforced by the database.
func NewReservationCode() string {
	return randstr.String(ReservationCodeLength, codeAlphabet)
}

// NewFlightNumber appends four random digits to an airline designator,
// e.g. "LH" -> "LH4821".
func NewFlightNumber(airlineCode string) string {
	return airlineCode + randstr.String(1, "123456789") + randstr.String(3, "0123456789")
}
