package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// Querier is satisfied by both *sql.DB and *sql.Tx so read helpers can be
// shared between transactional and plain call sites.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Dialect captures the SQL that differs between the MySQL production store
// and the SQLite store the test suite runs against.
type Dialect struct {
	Name string
	// LockClause is appended to SELECTs that must hold row locks until the
	// surrounding transaction ends.
	LockClause string
}

var (
	MySQL  = Dialect{Name: "mysql", LockClause: " FOR UPDATE"}
	SQLite = Dialect{Name: "sqlite"}
)

// placeholders returns "?,?,?" with n markers.
func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

// stringArgs widens a string slice for use as variadic query args.
func stringArgs(ids []string) []any {
	out := make([]any, len(ids))
	for i, id := range ids {
		out[i] = id
	}
	return out
}

// now is the timestamp written to created_at/updated_at columns.  DATETIME
// keeps second precision in MySQL, so truncate to match on both stores.
func now() time.Time { return time.Now().UTC().Truncate(time.Second) }

// parseDay reads a DATE() result.  The driver hands it over either as
// "2006-01-02" text or as a time.Time that database/sql formats with
// RFC 3339 when scanning into a string.
func parseDay(s string) (time.Time, error) {
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse day %q: %w", s, err)
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), nil
}

func nullString(s *string) sql.NullString {
	if s == nil || *s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	v := ns.String
	return &v
}

func timePtr(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	v := nt.Time.UTC()
	return &v
}
