package middleware

import "github.com/labstack/echo/v4"

// Context keys set by JWTAuth.
const (
	ctxUserID = "user_id"
	ctxRole   = "role"
)

// UserID returns the authenticated user's id, or "" for anonymous
// requests.
func UserID(c echo.Context) string {
	s, _ := c.Get(ctxUserID).(string)
	return s
}

// Role returns the authenticated user's role claim, or "".
func Role(c echo.Context) string {
	s, _ := c.Get(ctxRole).(string)
	return s
}

// currentUserID is UserID with "anon" standing in for anonymous callers,
// for use in rate limit keys.
func currentUserID(c echo.Context) string {
	if id := UserID(c); id != "" {
		return id
	}
	return "anon"
}
