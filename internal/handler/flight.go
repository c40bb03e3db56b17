package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/airline-reservation/internal/model"
	"github.com/iliyamo/airline-reservation/internal/service"
)

// FlightManager is the flight API used by the public and admin routes.
type FlightManager interface {
	CreateFlight(ctx context.Context, in service.CreateFlightInput) (*model.FlightDetail, error)
	GetFlight(ctx context.Context, id string) (*model.FlightDetail, error)
	ListFlights(ctx context.Context, f service.FlightFilter) ([]model.FlightDetail, error)
	SeatMap(ctx context.Context, flightID, travelClassID string) ([]model.SeatMapEntry, error)
	DelayFlight(ctx context.Context, id string, dep, arr time.Time) (*model.FlightDetail, error)
	CancelFlight(ctx context.Context, id string) (*model.FlightDetail, error)
	DeleteFlight(ctx context.Context, id string) error
}

type FlightHandler struct {
	svc FlightManager
}

func NewFlightHandler(svc FlightManager) *FlightHandler {
	return &FlightHandler{svc: svc}
}

type createFlightReq struct {
	AircraftID           string           `json:"aircraft_id"`
	SourceAirportID      string           `json:"source_airport_id"`
	DestinationAirportID string           `json:"destination_airport_id"`
	DepartureAt          time.Time        `json:"departure_at"`
	ArrivalAt            time.Time        `json:"arrival_at"`
	FlightNo             string           `json:"flight_no"`
	ClassPrices          map[string]int64 `json:"class_prices"` // travel_class_id -> cents
	RouteID              string           `json:"route_id"`
}

type scheduleReq struct {
	DepartureAt time.Time `json:"departure_at"`
	ArrivalAt   time.Time `json:"arrival_at"`
}

// List searches flights.  Query: source, destination, from, to,
// include_cancelled, limit.
func (h *FlightHandler) List(c echo.Context) error {
	from, err := queryTime(c, "from")
	if err != nil {
		return badRequest(c, err.Error())
	}
	to, err := queryTime(c, "to")
	if err != nil {
		return badRequest(c, err.Error())
	}
	limit, err := queryInt(c, "limit")
	if err != nil {
		return badRequest(c, err.Error())
	}
	out, err := h.svc.ListFlights(c.Request().Context(), service.FlightFilter{
		SourceAirportID:      c.QueryParam("source"),
		DestinationAirportID: c.QueryParam("destination"),
		DepartFrom:           from,
		DepartTo:             to,
		IncludeCancelled:     queryBool(c, "include_cancelled"),
		Limit:                limit,
	})
	if err != nil {
		return fail(c, err)
	}
	return ok(c, "flights", out)
}

func (h *FlightHandler) Get(c echo.Context) error {
	f, err := h.svc.GetFlight(c.Request().Context(), c.Param("id"))
	if err != nil {
		return fail(c, err)
	}
	return ok(c, "flight", f)
}

// Seats returns the seat map, optionally narrowed with ?class=<id>.
func (h *FlightHandler) Seats(c echo.Context) error {
	out, err := h.svc.SeatMap(c.Request().Context(), c.Param("id"), c.QueryParam("class"))
	if err != nil {
		return fail(c, err)
	}
	return ok(c, "seat map", out)
}

func (h *FlightHandler) Create(c echo.Context) error {
	var req createFlightReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	f, err := h.svc.CreateFlight(c.Request().Context(), service.CreateFlightInput{
		AircraftID:           req.AircraftID,
		SourceAirportID:      req.SourceAirportID,
		DestinationAirportID: req.DestinationAirportID,
		DepartureAt:          req.DepartureAt,
		ArrivalAt:            req.ArrivalAt,
		FlightNo:             req.FlightNo,
		ClassPrices:          req.ClassPrices,
		RouteID:              req.RouteID,
	})
	if err != nil {
		return fail(c, err)
	}
	return created(c, "flight created", f)
}

func (h *FlightHandler) Delay(c echo.Context) error {
	var req scheduleReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	f, err := h.svc.DelayFlight(c.Request().Context(), c.Param("id"), req.DepartureAt, req.ArrivalAt)
	if err != nil {
		return fail(c, err)
	}
	return ok(c, "flight delayed", f)
}

func (h *FlightHandler) Cancel(c echo.Context) error {
	f, err := h.svc.CancelFlight(c.Request().Context(), c.Param("id"))
	if err != nil {
		return fail(c, err)
	}
	return ok(c, "flight cancelled", f)
}

func (h *FlightHandler) Delete(c echo.Context) error {
	if err := h.svc.DeleteFlight(c.Request().Context(), c.Param("id")); err != nil {
		return fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
