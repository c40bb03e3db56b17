package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/airline-reservation/internal/model"
)

// ReferenceData manages airports, airlines, routes, fleet and seat layouts.
type ReferenceData interface {
	CreateAirport(ctx context.Context, a *model.Airport) error
	ListAirports(ctx context.Context) ([]model.Airport, error)
	GetAirport(ctx context.Context, id string) (*model.Airport, error)
	CreateAirline(ctx context.Context, a *model.Airline) error
	ListAirlines(ctx context.Context) ([]model.Airline, error)
	CreateRoute(ctx context.Context, rt *model.Route) error
	ListRoutes(ctx context.Context, airlineID string) ([]model.Route, error)
	DeleteRoute(ctx context.Context, id string) error
	CreateAircraftType(ctx context.Context, t *model.AircraftType) error
	ListAircraftTypes(ctx context.Context) ([]model.AircraftType, error)
	CreateAircraft(ctx context.Context, a *model.Aircraft) error
	ListAircraft(ctx context.Context, airlineID string) ([]model.Aircraft, error)
	ListTravelClasses(ctx context.Context) ([]model.TravelClass, error)
	CreateSeatLayout(ctx context.Context, l *model.SeatLayoutRule) error
	ListSeatLayouts(ctx context.Context, aircraftTypeID string) ([]model.SeatLayoutRule, error)
}

type ReferenceHandler struct {
	svc ReferenceData
}

func NewReferenceHandler(svc ReferenceData) *ReferenceHandler {
	return &ReferenceHandler{svc: svc}
}

// list adapts a no-argument listing to an echo handler.
func list[T any](msg string, fn func(context.Context) ([]T, error)) echo.HandlerFunc {
	return func(c echo.Context) error {
		out, err := fn(c.Request().Context())
		if err != nil {
			return fail(c, err)
		}
		return ok(c, msg, out)
	}
}

// create binds a body into a fresh T and hands it to fn.
func create[T any](msg string, fn func(context.Context, *T) error) echo.HandlerFunc {
	return func(c echo.Context) error {
		v := new(T)
		if err := c.Bind(v); err != nil {
			return badRequest(c, "invalid body")
		}
		if err := fn(c.Request().Context(), v); err != nil {
			return fail(c, err)
		}
		return created(c, msg, v)
	}
}

func (h *ReferenceHandler) ListAirports() echo.HandlerFunc {
	return list("airports", h.svc.ListAirports)
}

func (h *ReferenceHandler) GetAirport(c echo.Context) error {
	a, err := h.svc.GetAirport(c.Request().Context(), c.Param("id"))
	if err != nil {
		return fail(c, err)
	}
	return ok(c, "airport", a)
}

func (h *ReferenceHandler) CreateAirport() echo.HandlerFunc {
	return create("airport created", h.svc.CreateAirport)
}

func (h *ReferenceHandler) ListAirlines() echo.HandlerFunc {
	return list("airlines", h.svc.ListAirlines)
}

func (h *ReferenceHandler) CreateAirline() echo.HandlerFunc {
	return create("airline created", h.svc.CreateAirline)
}

// ListRoutes accepts ?airline=<id>.
func (h *ReferenceHandler) ListRoutes(c echo.Context) error {
	out, err := h.svc.ListRoutes(c.Request().Context(), c.QueryParam("airline"))
	if err != nil {
		return fail(c, err)
	}
	return ok(c, "routes", out)
}

func (h *ReferenceHandler) CreateRoute() echo.HandlerFunc {
	return create("route created", h.svc.CreateRoute)
}

func (h *ReferenceHandler) DeleteRoute(c echo.Context) error {
	if err := h.svc.DeleteRoute(c.Request().Context(), c.Param("id")); err != nil {
		return fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *ReferenceHandler) ListTravelClasses() echo.HandlerFunc {
	return list("travel classes", h.svc.ListTravelClasses)
}

func (h *ReferenceHandler) ListAircraftTypes() echo.HandlerFunc {
	return list("aircraft types", h.svc.ListAircraftTypes)
}

func (h *ReferenceHandler) CreateAircraftType() echo.HandlerFunc {
	return create("aircraft type created", h.svc.CreateAircraftType)
}

// ListAircraft accepts ?airline=<id>.
func (h *ReferenceHandler) ListAircraft(c echo.Context) error {
	out, err := h.svc.ListAircraft(c.Request().Context(), c.QueryParam("airline"))
	if err != nil {
		return fail(c, err)
	}
	return ok(c, "aircraft", out)
}

func (h *ReferenceHandler) CreateAircraft() echo.HandlerFunc {
	return create("aircraft created", h.svc.CreateAircraft)
}

// ListSeatLayouts lists the layout rules of the aircraft type in the path.
func (h *ReferenceHandler) ListSeatLayouts(c echo.Context) error {
	out, err := h.svc.ListSeatLayouts(c.Request().Context(), c.Param("id"))
	if err != nil {
		return fail(c, err)
	}
	return ok(c, "seat layouts", out)
}

func (h *ReferenceHandler) CreateSeatLayout(c echo.Context) error {
	var l model.SeatLayoutRule
	if err := c.Bind(&l); err != nil {
		return badRequest(c, "invalid body")
	}
	l.AircraftTypeID = c.Param("id")
	if err := h.svc.CreateSeatLayout(c.Request().Context(), &l); err != nil {
		return fail(c, err)
	}
	return created(c, "seat layout created", l)
}
