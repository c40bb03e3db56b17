package handler

import (
	"context"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/airline-reservation/internal/model"
	"github.com/iliyamo/airline-reservation/internal/service"
)

// StatsReporter serves the admin dashboard aggregates.
type StatsReporter interface {
	Summary(ctx context.Context, r service.StatsRange) (*model.StatsSummary, error)
	ReservationsByDay(ctx context.Context, r service.StatsRange) ([]model.DailyReservations, error)
	TopRoutes(ctx context.Context, r service.StatsRange) ([]model.RouteCount, error)
	RevenueByAirline(ctx context.Context, r service.StatsRange) ([]model.AirlineRevenue, error)
	ClassDistribution(ctx context.Context, r service.StatsRange) ([]model.ClassCount, error)
	FlightOccupancy(ctx context.Context, r service.StatsRange) ([]model.FlightOccupancy, error)
}

type StatsHandler struct {
	svc StatsReporter
}

func NewStatsHandler(svc StatsReporter) *StatsHandler {
	return &StatsHandler{svc: svc}
}

// statsRange reads ?from=&to=&limit=.  Defaults are applied by the service.
func statsRange(c echo.Context) (service.StatsRange, error) {
	var r service.StatsRange
	var err error
	if r.From, err = queryTime(c, "from"); err != nil {
		return r, err
	}
	if r.To, err = queryTime(c, "to"); err != nil {
		return r, err
	}
	if r.Limit, err = queryInt(c, "limit"); err != nil {
		return r, err
	}
	return r, nil
}

func report[T any](msg string, fn func(context.Context, service.StatsRange) (T, error)) echo.HandlerFunc {
	return func(c echo.Context) error {
		r, err := statsRange(c)
		if err != nil {
			return badRequest(c, err.Error())
		}
		out, err := fn(c.Request().Context(), r)
		if err != nil {
			return fail(c, err)
		}
		return ok(c, msg, out)
	}
}

func (h *StatsHandler) Summary() echo.HandlerFunc { return report("summary", h.svc.Summary) }

func (h *StatsHandler) Daily() echo.HandlerFunc {
	return report("reservations by day", h.svc.ReservationsByDay)
}

func (h *StatsHandler) Routes() echo.HandlerFunc { return report("top routes", h.svc.TopRoutes) }

func (h *StatsHandler) Revenue() echo.HandlerFunc {
	return report("revenue by airline", h.svc.RevenueByAirline)
}

func (h *StatsHandler) Classes() echo.HandlerFunc {
	return report("class distribution", h.svc.ClassDistribution)
}

func (h *StatsHandler) Occupancy() echo.HandlerFunc {
	return report("flight occupancy", h.svc.FlightOccupancy)
}
