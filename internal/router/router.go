package router // package router defines how HTTP routes are registered for the API

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	slogecho "github.com/samber/slog-echo"

	"github.com/iliyamo/airline-reservation/internal/config"
	"github.com/iliyamo/airline-reservation/internal/handler"
	"github.com/iliyamo/airline-reservation/internal/middleware"
	"github.com/iliyamo/airline-reservation/internal/model"
	"github.com/iliyamo/airline-reservation/internal/utils"
)

// Deps is everything the router wires together.  Redis may be nil, in
// which case rate limiting and response caching are disabled.
type Deps struct {
	Log            *slog.Logger
	JWTSecret      string
	RequestTimeout time.Duration
	Redis          *redis.Client
	RateLimit      config.RateLimitConfig
	Cache          config.CacheConfig
	DB             handler.Pinger

	Auth         *handler.AuthHandler
	Flights      *handler.FlightHandler
	Reservations *handler.ReservationHandler
	Reference    *handler.ReferenceHandler
	Stats        *handler.StatsHandler
}

// New builds the echo instance with global middleware and every route.
func New(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = errorHandler(e)

	e.Use(echomw.RecoverWithConfig(echomw.RecoverConfig{
		LogErrorFunc: func(c echo.Context, err error, stack []byte) error {
			d.Log.Error("recovered from panic", "err", err, "stack", string(stack))
			return err
		},
	}))
	e.Use(slogecho.NewWithConfig(d.Log, slogecho.Config{
		DefaultLevel:     slog.LevelInfo,
		ClientErrorLevel: slog.LevelWarn,
		ServerErrorLevel: slog.LevelError,
	}))
	if d.RequestTimeout > 0 {
		e.Use(echomw.ContextTimeout(d.RequestTimeout))
	}

	RegisterRoutes(e, d.DB)
	RegisterAuth(e, d.Auth, d.JWTSecret)

	limiter := middleware.NewTokenBucket(d.RateLimit, d.Redis, d.Log)
	cache := middleware.NewRedisCache(d.Cache, d.Redis)
	RegisterPublic(e, d.Flights, d.Reference, limiter, cache)
	RegisterCustomer(e, d.Reservations, d.JWTSecret, limiter)
	RegisterAdmin(e, d.Flights, d.Reference, d.Stats, d.JWTSecret, limiter, cache)
	return e
}

// errorHandler renders echo's own errors (404, 405, bind failures) in the
// response envelope.
func errorHandler(e *echo.Echo) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		code := http.StatusInternalServerError
		msg := http.StatusText(code)
		if he, ok := err.(*echo.HTTPError); ok {
			code = he.Code
			if s, ok := he.Message.(string); ok {
				msg = s
			} else {
				msg = http.StatusText(code)
			}
		}
		if c.Request().Method == http.MethodHead {
			err = c.NoContent(code)
		} else {
			err = c.JSON(code, utils.ErrorResponse(msg, statusCode(code)))
		}
		if err != nil {
			e.Logger.Error(err)
		}
	}
}

// statusCode turns 404 into NOT_FOUND and so on.
func statusCode(code int) string {
	return strings.ToUpper(strings.ReplaceAll(http.StatusText(code), " ", "_"))
}

// RegisterRoutes registers routes that do not require authentication and
// are not versioned.
func RegisterRoutes(e *echo.Echo, db handler.Pinger) {
	e.GET("/healthz", handler.Health(db))
}

// RegisterAuth registers the session endpoints under /v1/auth and the
// authenticated /v1/me.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	g := e.Group("/v1/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	g.POST("/refresh", a.Refresh)
	// a bearer token is optional: without a refresh_token it logs out every session
	g.POST("/logout", a.Logout, middleware.OptionalJWT(jwtSecret))

	e.GET("/v1/me", a.Me,
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleCustomer, model.RoleAdmin))
}

// RegisterPublic registers guest browse endpoints.  Reference data is
// served through the response cache; flight availability is not.
func RegisterPublic(e *echo.Echo, f *handler.FlightHandler, r *handler.ReferenceHandler, limiter, cache echo.MiddlewareFunc) {
	g := e.Group("/v1", limiter)
	g.GET("/airports", r.ListAirports(), cache)
	g.GET("/airports/:id", r.GetAirport, cache)
	g.GET("/airlines", r.ListAirlines(), cache)
	g.GET("/routes", r.ListRoutes, cache)
	g.GET("/travel-classes", r.ListTravelClasses(), cache)

	g.GET("/flights", f.List)
	g.GET("/flights/:id", f.Get)
	g.GET("/flights/:id/seats", f.Seats)
}

// RegisterCustomer registers booking endpoints.  Admins may use them too;
// ownership is checked inside the handler.
func RegisterCustomer(e *echo.Echo, h *handler.ReservationHandler, jwtSecret string, limiter echo.MiddlewareFunc) {
	g := e.Group(
		"/v1",
		limiter,
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleCustomer, model.RoleAdmin),
	)
	g.POST("/reservations", h.Create)
	g.GET("/reservations/:id", h.Get)
	g.GET("/reservations/code/:code", h.GetByCode)
	g.GET("/my-reservations", h.ListMine)
	g.POST("/reservations/:id/pay", h.Pay)
	g.DELETE("/reservations/:id", h.Cancel)
	g.GET("/reservations/:id/qr", h.QR)
}

// RegisterAdmin registers ADMIN-scoped endpoints under /v1/admin.
func RegisterAdmin(e *echo.Echo, f *handler.FlightHandler, r *handler.ReferenceHandler, s *handler.StatsHandler, jwtSecret string, limiter, cache echo.MiddlewareFunc) {
	g := e.Group(
		"/v1/admin",
		limiter,
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleAdmin),
	)

	// ---- Reference data ----
	g.POST("/airports", r.CreateAirport())
	g.POST("/airlines", r.CreateAirline())
	g.POST("/routes", r.CreateRoute())
	g.DELETE("/routes/:id", r.DeleteRoute)
	g.GET("/aircraft-types", r.ListAircraftTypes())
	g.POST("/aircraft-types", r.CreateAircraftType())
	g.GET("/aircraft-types/:id/layouts", r.ListSeatLayouts)
	g.POST("/aircraft-types/:id/layouts", r.CreateSeatLayout)
	g.GET("/aircraft", r.ListAircraft)
	g.POST("/aircraft", r.CreateAircraft())

	// ---- Flights ----
	g.POST("/flights", f.Create)
	g.POST("/flights/:id/delay", f.Delay)
	g.POST("/flights/:id/cancel", f.Cancel)
	g.DELETE("/flights/:id", f.Delete)

	// ---- Statistics ----
	st := g.Group("/stats", cache)
	st.GET("/summary", s.Summary())
	st.GET("/daily", s.Daily())
	st.GET("/routes", s.Routes())
	st.GET("/revenue", s.Revenue())
	st.GET("/classes", s.Classes())
	st.GET("/occupancy", s.Occupancy())
}
