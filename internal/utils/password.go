package utils

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// DefaultBcryptCost replaces a configured cost bcrypt would reject.
const DefaultBcryptCost = 12

// MaxPasswordBytes is the longest input bcrypt hashes without truncation.
const MaxPasswordBytes = 72

var ErrPasswordTooLong = errors.New("password exceeds 72 bytes")

// BcryptCost clamps cost into bcrypt's accepted range.
func BcryptCost(cost int) int {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return DefaultBcryptCost
	}
	return cost
}

// HashPassword hashes plain with the given cost (see BcryptCost).
func HashPassword(plain string, cost int) (string, error) {
	if len(plain) > MaxPasswordBytes {
		return "", ErrPasswordTooLong
	}
	b, err := bcrypt.GenerateFromPassword([]byte(plain), BcryptCost(cost))
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// VerifyPassword reports whether plain matches the stored hash.
func VerifyPassword(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}

// NeedsRehash is true when hash was produced with a different cost than
// the one currently configured, or is not a bcrypt hash at all.
func NeedsRehash(hash string, cost int) bool {
	c, err := bcrypt.Cost([]byte(hash))
	return err != nil || c != BcryptCost(cost)
}
