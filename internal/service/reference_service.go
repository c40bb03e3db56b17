package service

import (
	"context"
	"errors"
	"strings"

	"github.com/iliyamo/airline-reservation/internal/model"
	"github.com/iliyamo/airline-reservation/internal/repository"
)

// ReferenceService maintains the reference data flights are built from:
// airports, airlines, routes, aircraft and seat layouts.
type ReferenceService struct {
	store *repository.Store
}

func NewReferenceService(store *repository.Store) *ReferenceService {
	return &ReferenceService{store: store}
}

func duplicateOr(err error, what, key, step string) error {
	if errors.Is(err, repository.ErrDuplicate) {
		return ErrDuplicate.withMessage("%s %s already exists", what, key)
	}
	return internal(step, err)
}

func (s *ReferenceService) CreateAirport(ctx context.Context, a *model.Airport) error {
	code := strings.TrimSpace(a.IATACode)
	if len(code) != 3 {
		return invalid("iata_code must be 3 letters")
	}
	if strings.TrimSpace(a.Name) == "" {
		return invalid("name is required")
	}
	if err := s.store.Airports.Create(ctx, a); err != nil {
		return duplicateOr(err, "airport", strings.ToUpper(code), "insert airport")
	}
	return nil
}

func (s *ReferenceService) ListAirports(ctx context.Context) ([]model.Airport, error) {
	out, err := s.store.Airports.List(ctx)
	if err != nil {
		return nil, internal("list airports", err)
	}
	return out, nil
}

func (s *ReferenceService) GetAirport(ctx context.Context, id string) (*model.Airport, error) {
	a, err := s.store.Airports.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, notFound("airport", id)
	}
	if err != nil {
		return nil, internal("load airport", err)
	}
	return a, nil
}

func (s *ReferenceService) CreateAirline(ctx context.Context, a *model.Airline) error {
	code := strings.TrimSpace(a.Code)
	if len(code) < 2 || len(code) > 3 {
		return invalid("code must be 2 or 3 characters")
	}
	if strings.TrimSpace(a.Name) == "" {
		return invalid("name is required")
	}
	if err := s.store.Airlines.Create(ctx, a); err != nil {
		return duplicateOr(err, "airline", strings.ToUpper(code), "insert airline")
	}
	return nil
}

func (s *ReferenceService) ListAirlines(ctx context.Context) ([]model.Airline, error) {
	out, err := s.store.Airlines.List(ctx)
	if err != nil {
		return nil, internal("list airlines", err)
	}
	return out, nil
}

// CreateRoute registers an airport pair for an airline.  The reverse
// direction is a separate route.
func (s *ReferenceService) CreateRoute(ctx context.Context, rt *model.Route) error {
	switch {
	case rt.AirlineID == "":
		return invalid("airline_id is required")
	case rt.SourceAirportID == "" || rt.DestinationAirportID == "":
		return invalid("source_airport_id and destination_airport_id are required")
	case rt.SourceAirportID == rt.DestinationAirportID:
		return ErrInvalidRoute
	}
	airline, err := s.store.Airlines.GetByID(ctx, rt.AirlineID)
	if errors.Is(err, repository.ErrNotFound) {
		return notFound("airline", rt.AirlineID)
	}
	if err != nil {
		return internal("load airline", err)
	}
	var codes [2]string
	for i, ap := range []struct{ role, id string }{
		{"source airport", rt.SourceAirportID},
		{"destination airport", rt.DestinationAirportID},
	} {
		a, err := s.store.Airports.GetByID(ctx, ap.id)
		if errors.Is(err, repository.ErrNotFound) {
			return notFound(ap.role, ap.id)
		}
		if err != nil {
			return internal("load airport", err)
		}
		codes[i] = a.IATACode
	}
	if err := s.store.Routes.Create(ctx, rt); err != nil {
		return duplicateOr(err, "route", airline.Code+" "+codes[0]+"-"+codes[1], "insert route")
	}
	rt.AirlineCode, rt.SourceAirportCode, rt.DestinationAirportCode = airline.Code, codes[0], codes[1]
	return nil
}

func (s *ReferenceService) ListRoutes(ctx context.Context, airlineID string) ([]model.Route, error) {
	out, err := s.store.Routes.List(ctx, airlineID)
	if err != nil {
		return nil, internal("list routes", err)
	}
	return out, nil
}

func (s *ReferenceService) DeleteRoute(ctx context.Context, id string) error {
	err := s.store.Routes.Delete(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return notFound("route", id)
	}
	if err != nil {
		return internal("delete route", err)
	}
	return nil
}

func (s *ReferenceService) CreateAircraftType(ctx context.Context, t *model.AircraftType) error {
	if strings.TrimSpace(t.Model) == "" || strings.TrimSpace(t.Manufacturer) == "" {
		return invalid("model and manufacturer are required")
	}
	if err := s.store.Aircraft.CreateType(ctx, t); err != nil {
		return duplicateOr(err, "aircraft type", t.Manufacturer+" "+t.Model, "insert aircraft type")
	}
	return nil
}

func (s *ReferenceService) ListAircraftTypes(ctx context.Context) ([]model.AircraftType, error) {
	out, err := s.store.Aircraft.ListTypes(ctx)
	if err != nil {
		return nil, internal("list aircraft types", err)
	}
	return out, nil
}

// CreateAircraft registers an airframe for an airline.
func (s *ReferenceService) CreateAircraft(ctx context.Context, a *model.Aircraft) error {
	if strings.TrimSpace(a.Registration) == "" {
		return invalid("registration is required")
	}
	if a.TotalSeats <= 0 {
		return invalid("total_seats must be positive")
	}
	if _, err := s.store.Airlines.GetByID(ctx, a.AirlineID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFound("airline", a.AirlineID)
		}
		return internal("load airline", err)
	}
	ok, err := s.store.Aircraft.TypeExists(ctx, a.AircraftTypeID)
	if err != nil {
		return internal("load aircraft type", err)
	}
	if !ok {
		return notFound("aircraft type", a.AircraftTypeID)
	}
	if err := s.store.Aircraft.Create(ctx, a); err != nil {
		return duplicateOr(err, "aircraft", strings.ToUpper(a.Registration), "insert aircraft")
	}
	return nil
}

func (s *ReferenceService) ListAircraft(ctx context.Context, airlineID string) ([]model.Aircraft, error) {
	out, err := s.store.Aircraft.List(ctx, airlineID)
	if err != nil {
		return nil, internal("list aircraft", err)
	}
	return out, nil
}

func (s *ReferenceService) ListTravelClasses(ctx context.Context) ([]model.TravelClass, error) {
	out, err := s.store.Classes.List(ctx)
	if err != nil {
		return nil, internal("list travel classes", err)
	}
	return out, nil
}

// CreateSeatLayout adds the capacity of one travel class to an aircraft
// type.  Whether the layout fits a given airframe is checked when a flight
// is created.
func (s *ReferenceService) CreateSeatLayout(ctx context.Context, l *model.SeatLayoutRule) error {
	if l.Capacity <= 0 {
		return invalid("capacity must be positive")
	}
	ok, err := s.store.Aircraft.TypeExists(ctx, l.AircraftTypeID)
	if err != nil {
		return internal("load aircraft type", err)
	}
	if !ok {
		return notFound("aircraft type", l.AircraftTypeID)
	}
	tc, err := s.store.Classes.GetByID(ctx, l.TravelClassID)
	if errors.Is(err, repository.ErrNotFound) {
		return notFound("travel class", l.TravelClassID)
	}
	if err != nil {
		return internal("load travel class", err)
	}
	l.TravelClass = tc.Name
	if err := s.store.Classes.CreateLayout(ctx, l); err != nil {
		return duplicateOr(err, "seat layout for", tc.Name, "insert seat layout")
	}
	return nil
}

func (s *ReferenceService) ListSeatLayouts(ctx context.Context, aircraftTypeID string) ([]model.SeatLayoutRule, error) {
	out, err := s.store.Classes.ListLayouts(ctx, aircraftTypeID)
	if err != nil {
		return nil, internal("list seat layouts", err)
	}
	return out, nil
}
