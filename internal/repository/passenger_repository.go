package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/airline-reservation/internal/model"
)

// PassengerRepo stores passenger contact records.
type PassengerRepo struct {
	db *sql.DB
}

func NewPassengerRepo(db *sql.DB) *PassengerRepo { return &PassengerRepo{db: db} }

// CreateTx inserts a passenger.  No identity matching is done; every call
// writes a new row.
func (r *PassengerRepo) CreateTx(ctx context.Context, tx *sql.Tx, p *model.Passenger) error {
	var dob sql.NullTime
	if p.DateOfBirth != nil {
		dob = sql.NullTime{Time: p.DateOfBirth.UTC(), Valid: true}
	}
	const q = `INSERT INTO passengers (id, first_name, last_name, email, phone, date_of_birth, passport_no, created_at)
	           VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := tx.ExecContext(ctx, q, p.ID, p.FirstName, p.LastName,
		nullString(p.Email), nullString(p.Phone), dob, nullString(p.PassportNo), p.CreatedAt)
	return err
}

// GetByIDTx loads a passenger inside a transaction.
func (r *PassengerRepo) GetByIDTx(ctx context.Context, tx *sql.Tx, id string) (*model.Passenger, error) {
	const q = `SELECT id, first_name, last_name, email, phone, date_of_birth, passport_no, created_at
	           FROM passengers WHERE id = ?`
	var (
		p                      model.Passenger
		email, phone, passport sql.NullString
		dob                    sql.NullTime
	)
	err := tx.QueryRowContext(ctx, q, id).Scan(&p.ID, &p.FirstName, &p.LastName, &email, &phone, &dob, &passport, &p.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	p.Email = stringPtr(email)
	p.Phone = stringPtr(phone)
	p.PassportNo = stringPtr(passport)
	p.DateOfBirth = timePtr(dob)
	return &p, nil
}

// Count returns the number of passenger rows.
func (r *PassengerRepo) Count(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM passengers`).Scan(&n)
	return n, err
}
