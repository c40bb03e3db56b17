// Package repository holds the raw SQL data access for the reservation
// backend.  Methods suffixed with Tx run inside a caller-owned transaction;
// the caller decides when to commit or roll back.
package repository

import (
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
)

// ErrNotFound is returned when a lookup by primary key matches no row.
var ErrNotFound = errors.New("not found")

// ErrDuplicate is returned when an insert violates a unique key, for
// example a second airport with the same IATA code.
var ErrDuplicate = errors.New("duplicate")

// ErrStaleSeat is returned when a guarded seat update touched fewer rows
// than requested because another transaction changed a seat first.
var ErrStaleSeat = errors.New("seat status changed concurrently")

// isDuplicateKey recognises unique-key violations from MySQL (1062) and
// from the embedded SQLite store used by tests.
func isDuplicateKey(err error) bool {
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == 1062
	}
	return strings.Contains(strings.ToLower(err.Error()), "unique constraint failed")
}
