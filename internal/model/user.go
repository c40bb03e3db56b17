package model

import "time"

// User is an account that can log in.  PasswordHash never leaves the
// server; handlers expose only ID, Email and Role.
type User struct {
	ID           string
	Email        string
	PasswordHash string
	Role         Role
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
