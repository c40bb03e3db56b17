package middleware // package middleware holds the echo middleware shared by the API groups

import (
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/airline-reservation/internal/utils"
)

// JWTAuth returns an Echo middleware that validates a Bearer access token
// and stores the token's subject and role claims in the request context.
// The secret must match the one used when issuing tokens.  Handlers read
// the values back through UserID and Role.
func JWTAuth(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") {
				return c.JSON(http.StatusUnauthorized, utils.ErrorResponse("missing bearer token", "UNAUTHORIZED"))
			}
			raw := strings.TrimPrefix(auth, "Bearer ")

			sub, role, err := ParseAccessToken(secret, raw)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, utils.ErrorResponse("invalid token", "UNAUTHORIZED"))
			}
			c.Set(ctxUserID, sub)
			c.Set(ctxRole, role)
			return next(c)
		}
	}
}

// OptionalJWT is JWTAuth for routes that also serve anonymous callers: a
// valid token populates the context, a missing or bad one is ignored.
func OptionalJWT(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := c.Request().Header.Get("Authorization")
			if strings.HasPrefix(auth, "Bearer ") {
				if sub, role, err := ParseAccessToken(secret, strings.TrimPrefix(auth, "Bearer ")); err == nil {
					c.Set(ctxUserID, sub)
					c.Set(ctxRole, role)
				}
			}
			return next(c)
		}
	}
}

// ParseAccessToken verifies an HS256 access token and returns its subject
// and role claims.
func ParseAccessToken(secret, raw string) (sub, role string, err error) {
	tok, err := jwt.Parse(raw, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, echo.ErrUnauthorized
		}
		return []byte(secret), nil
	})
	if err != nil || !tok.Valid {
		return "", "", echo.ErrUnauthorized
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return "", "", echo.ErrUnauthorized
	}
	sub, _ = claims["sub"].(string)
	role, _ = claims["role"].(string)
	if sub == "" {
		return "", "", echo.ErrUnauthorized
	}
	return sub, role, nil
}
