package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/airline-reservation/internal/utils"
)

// Pinger is satisfied by *sql.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Health is used by load balancers to verify the service is up.  With a
// database attached it also reports whether MySQL answers.
func Health(db Pinger) echo.HandlerFunc {
	return func(c echo.Context) error {
		if db == nil {
			return ok(c, "ok", nil)
		}
		ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
		defer cancel()
		if err := db.PingContext(ctx); err != nil {
			return c.JSON(http.StatusServiceUnavailable, utils.ErrorResponse("database unavailable", "UNAVAILABLE"))
		}
		return ok(c, "ok", echo.Map{"database": "up"})
	}
}
