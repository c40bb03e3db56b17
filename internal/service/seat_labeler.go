package service

import "strconv"

// SeatLabeler turns a zero-based seat index into a printed seat number.
// The index runs sequentially across every class of a flight, front
// cabin first.
type SeatLabeler interface {
	Label(index int) string
}

// SixAbreastLabeler assumes six seats per row regardless of cabin:
// 0 -> 1A, 5 -> 1F, 6 -> 2A.
type SixAbreastLabeler struct{}

const sixAbreastLetters = "ABCDEF"

func (SixAbreastLabeler) Label(index int) string {
	row := index/len(sixAbreastLetters) + 1
	return strconv.Itoa(row) + string(sixAbreastLetters[index%len(sixAbreastLetters)])
}
