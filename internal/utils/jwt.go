package utils // package utils provides helper functions for tokens, codes and responses

import (
	"crypto/sha256" // SHA-256 hashing for refresh tokens
	"encoding/hex"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/thanhpk/randstr"
)

const hexAlphabet = "0123456789abcdef"

// AccessToken represents a signed JWT access token along with its expiry.
// Access tokens are short-lived and sent in the Authorization header when
// calling customer and admin endpoints.
type AccessToken struct {
	Token string    // the serialized JWT string
	Exp   time.Time // the UTC expiration time
}

// RefreshToken represents a long-lived token used to obtain new access
// tokens.  Only a SHA-256 hash of Raw is ever stored in the database.
type RefreshToken struct {
	Raw string    // raw token string returned to the client
	Exp time.Time // UTC expiration time
}

// NewAccessToken builds and signs an HS256 JWT for a user.  The subject is
// the user's UUID and the role claim is checked by the role middleware.
func NewAccessToken(secret, userID, role string, ttlMin int) (AccessToken, error) {
	issued := time.Now().UTC()
	exp := issued.Add(time.Duration(ttlMin) * time.Minute)
	claims := jwt.MapClaims{
		"sub":  userID,
		"role": role,
		"exp":  exp.Unix(),
		"iat":  issued.Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString([]byte(secret))
	if err != nil {
		return AccessToken{}, err
	}
	return AccessToken{Token: signed, Exp: exp}, nil
}

// NewRefreshToken returns a random 96 character hex token and its expiry
// ttlDays from now.
func NewRefreshToken(ttlDays int) RefreshToken {
	return RefreshToken{
		Raw: randstr.String(96, hexAlphabet),
		Exp: time.Now().UTC().Add(time.Duration(ttlDays) * 24 * time.Hour),
	}
}

// HashRefreshRaw returns the SHA-256 hash of the raw refresh token as a
// hex string.  Storing only the hash prevents a leaked table from being
// used to refresh sessions.
func HashRefreshRaw(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
