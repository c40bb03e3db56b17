package service

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/airline-reservation/internal/model"
	"github.com/iliyamo/airline-reservation/internal/queue"
	"github.com/iliyamo/airline-reservation/internal/repository"
	"github.com/iliyamo/airline-reservation/internal/utils"
)

// FlightFilter narrows ListFlights.
type FlightFilter = repository.FlightFilter

// CreateFlightInput describes a new flight.  FlightNo is generated from
// the airline designator when blank.  ClassPrices maps a travel class id
// to the price of each seat in that class; classes without an entry use
// the service's default price.
type CreateFlightInput struct {
	AircraftID           string
	SourceAirportID      string
	DestinationAirportID string
	DepartureAt          time.Time
	ArrivalAt            time.Time
	FlightNo             string
	ClassPrices          map[string]int64
	// RouteID, when set, supplies the airports.  Airports given alongside
	// it must match the route, and the route must belong to the
	// aircraft's airline.
	RouteID string
}

// FlightService creates flights with their seat maps and manages the
// flight lifecycle.
type FlightService struct {
	store        *repository.Store
	labeler      SeatLabeler
	events       EventPublisher
	log          *slog.Logger
	defaultPrice int64
}

func NewFlightService(store *repository.Store, labeler SeatLabeler, events EventPublisher, log *slog.Logger, defaultPriceCents int64) *FlightService {
	if labeler == nil {
		labeler = SixAbreastLabeler{}
	}
	return &FlightService{store: store, labeler: labeler, events: events, log: log, defaultPrice: defaultPriceCents}
}

func validateSchedule(dep, arr time.Time) error {
	if dep.IsZero() || arr.IsZero() {
		return invalid("departure_at and arrival_at are required")
	}
	if !dep.Before(arr) {
		return ErrInvalidSchedule
	}
	return nil
}

func (in CreateFlightInput) validate() error {
	switch {
	case in.AircraftID == "":
		return invalid("aircraft_id is required")
	case in.RouteID == "" && in.SourceAirportID == "":
		return invalid("source_airport_id is required")
	case in.RouteID == "" && in.DestinationAirportID == "":
		return invalid("destination_airport_id is required")
	}
	if err := validateSchedule(in.DepartureAt, in.ArrivalAt); err != nil {
		return err
	}
	if in.SourceAirportID != "" && in.SourceAirportID == in.DestinationAirportID {
		return ErrInvalidRoute
	}
	for classID, p := range in.ClassPrices {
		if p < 0 {
			return invalid("price for travel class %s must not be negative", classID)
		}
	}
	return nil
}

func (s *FlightService) applyRoute(ctx context.Context, tx *sql.Tx, in *CreateFlightInput, airlineID string) error {
	rt, err := s.store.Routes.GetByIDTx(ctx, tx, in.RouteID)
	if errors.Is(err, repository.ErrNotFound) {
		return notFound("route", in.RouteID)
	}
	if err != nil {
		return internal("load route", err)
	}
	if rt.AirlineID != airlineID {
		return ErrInvalidRoute.withMessage("route %s is not flown by the aircraft's airline", rt.ID)
	}
	if (in.SourceAirportID != "" && in.SourceAirportID != rt.SourceAirportID) ||
		(in.DestinationAirportID != "" && in.DestinationAirportID != rt.DestinationAirportID) {
		return ErrInvalidRoute.withMessage("airports do not match route %s-%s", rt.SourceAirportCode, rt.DestinationAirportCode)
	}
	in.SourceAirportID, in.DestinationAirportID = rt.SourceAirportID, rt.DestinationAirportID
	return nil
}

// CreateFlight inserts a flight and generates one seat and one seat cost
// per unit of layout capacity, all in one transaction.
func (s *FlightService) CreateFlight(ctx context.Context, in CreateFlightInput) (*model.FlightDetail, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	tx, err := s.store.Begin(ctx)
	if err != nil {
		return nil, internal("begin transaction", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	aircraft, err := s.store.Aircraft.GetByIDTx(ctx, tx, in.AircraftID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, notFound("aircraft", in.AircraftID)
	}
	if err != nil {
		return nil, internal("load aircraft", err)
	}
	if in.RouteID != "" {
		if err := s.applyRoute(ctx, tx, &in, aircraft.AirlineID); err != nil {
			return nil, err
		}
	}
	for _, ap := range []struct{ role, id string }{
		{"source airport", in.SourceAirportID},
		{"destination airport", in.DestinationAirportID},
	} {
		if _, err := s.store.Airports.GetByIDTx(ctx, tx, ap.id); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, notFound(ap.role, ap.id)
			}
			return nil, internal("load airport", err)
		}
	}

	ts := time.Now().UTC().Truncate(time.Second)
	flightNo := strings.ToUpper(strings.TrimSpace(in.FlightNo))
	if flightNo == "" {
		flightNo = utils.NewFlightNumber(aircraft.AirlineCode)
	}
	f := &model.Flight{
		ID:                   uuid.NewString(),
		FlightNo:             flightNo,
		AircraftID:           aircraft.ID,
		SourceAirportID:      in.SourceAirportID,
		DestinationAirportID: in.DestinationAirportID,
		DepartureAt:          in.DepartureAt.UTC(),
		ArrivalAt:            in.ArrivalAt.UTC(),
		Status:               model.FlightScheduled,
		CreatedAt:            ts,
		UpdatedAt:            ts,
	}
	if err := s.store.Flights.CreateTx(ctx, tx, f); err != nil {
		return nil, internal("insert flight", err)
	}

	layouts, err := s.store.Classes.ListLayoutsTx(ctx, tx, aircraft.AircraftTypeID)
	if err != nil {
		return nil, internal("load seat layout", err)
	}
	if len(layouts) == 0 {
		return nil, ErrNoSeatLayout.withMessage("no seat layout defined for aircraft type %s", aircraft.AircraftTypeID)
	}
	total := 0
	for _, l := range layouts {
		total += l.Capacity
	}
	if total > aircraft.TotalSeats {
		return nil, ErrCapacityExceeded.withMessage("seat layout needs %d seats but aircraft %s has %d", total, aircraft.Registration, aircraft.TotalSeats)
	}

	seats, costs := s.generateSeats(f, layouts, in.ClassPrices, ts)
	if err := s.store.Seats.CreateBulkTx(ctx, tx, seats); err != nil {
		return nil, internal("insert seats", err)
	}
	if err := s.store.Seats.CreateCostsBulkTx(ctx, tx, costs); err != nil {
		return nil, internal("insert seat costs", err)
	}

	detail, err := s.store.Flights.GetDetailTx(ctx, tx, f.ID)
	if err != nil {
		return nil, internal("load flight", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, internal("commit flight", err)
	}
	committed = true

	s.log.Info("flight created", "flight_id", f.ID, "flight_no", f.FlightNo, "seats", len(seats))
	publish(ctx, s.events, s.log, queue.KeyFlightCreated, queue.FlightEvent{
		FlightID:    f.ID,
		FlightNo:    f.FlightNo,
		Status:      string(f.Status),
		DepartureAt: f.DepartureAt,
		ArrivalAt:   f.ArrivalAt,
		Seats:       len(seats),
		OccurredAt:  ts,
	})
	return detail, nil
}

// generateSeats lays out seats class by class in rule order, labelling
// them from one running index.
func (s *FlightService) generateSeats(f *model.Flight, layouts []model.SeatLayoutRule, prices map[string]int64, ts time.Time) ([]model.Seat, []model.SeatCost) {
	var seats []model.Seat
	var costs []model.SeatCost
	index := 0
	for _, l := range layouts {
		price, ok := prices[l.TravelClassID]
		if !ok {
			price = s.defaultPrice
		}
		for i := 0; i < l.Capacity; i++ {
			seat := model.Seat{
				ID:            uuid.NewString(),
				FlightID:      f.ID,
				TravelClassID: l.TravelClassID,
				SeatNo:        s.labeler.Label(index),
				Position:      index,
				Status:        model.SeatAvailable,
				CreatedAt:     ts,
				UpdatedAt:     ts,
			}
			seats = append(seats, seat)
			costs = append(costs, model.SeatCost{
				ID:         uuid.NewString(),
				SeatID:     seat.ID,
				ValidFrom:  f.DepartureAt,
				ValidTo:    f.ArrivalAt,
				PriceCents: price,
			})
			index++
		}
	}
	return seats, costs
}

// GetFlight returns the joined flight record.
func (s *FlightService) GetFlight(ctx context.Context, id string) (*model.FlightDetail, error) {
	d, err := s.store.Flights.GetDetail(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, notFound("flight", id)
	}
	if err != nil {
		return nil, internal("load flight", err)
	}
	return d, nil
}

// ListFlights searches flights by route and departure window.
func (s *FlightService) ListFlights(ctx context.Context, f FlightFilter) ([]model.FlightDetail, error) {
	if !f.DepartFrom.IsZero() && !f.DepartTo.IsZero() && !f.DepartFrom.Before(f.DepartTo) {
		return nil, invalid("departure window is empty")
	}
	out, err := s.store.Flights.List(ctx, f)
	if err != nil {
		return nil, internal("list flights", err)
	}
	return out, nil
}

// SeatMap lists a flight's seats, optionally for one travel class.
func (s *FlightService) SeatMap(ctx context.Context, flightID, travelClassID string) ([]model.SeatMapEntry, error) {
	if _, err := s.GetFlight(ctx, flightID); err != nil {
		return nil, err
	}
	out, err := s.store.Seats.SeatMap(ctx, flightID, travelClassID)
	if err != nil {
		return nil, internal("load seat map", err)
	}
	return out, nil
}

// DelayFlight moves a Scheduled or Delayed flight to a later slot and
// realigns its seat cost windows.
func (s *FlightService) DelayFlight(ctx context.Context, id string, dep, arr time.Time) (*model.FlightDetail, error) {
	if err := validateSchedule(dep, arr); err != nil {
		return nil, err
	}
	dep, arr = dep.UTC(), arr.UTC()

	tx, err := s.store.Begin(ctx)
	if err != nil {
		return nil, internal("begin transaction", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	f, err := s.store.Flights.GetForUpdateTx(ctx, tx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, notFound("flight", id)
	}
	if err != nil {
		return nil, internal("load flight", err)
	}
	if !f.Status.Bookable() {
		return nil, ErrFlightNotModifiable.withMessage("flight %s is %s", f.FlightNo, f.Status)
	}
	if dep.Before(f.DepartureAt) {
		return nil, invalid("new departure must not be earlier than %s", f.DepartureAt.Format(time.RFC3339))
	}
	if err := s.store.Flights.UpdateScheduleTx(ctx, tx, id, dep, arr, model.FlightDelayed); err != nil {
		return nil, internal("update flight schedule", err)
	}
	if err := s.store.Seats.ShiftCostWindowTx(ctx, tx, id, dep, arr); err != nil {
		return nil, internal("update seat costs", err)
	}
	detail, err := s.store.Flights.GetDetailTx(ctx, tx, id)
	if err != nil {
		return nil, internal("load flight", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, internal("commit flight delay", err)
	}
	committed = true

	s.log.Info("flight delayed", "flight_id", id, "flight_no", f.FlightNo, "departure_at", dep)
	publish(ctx, s.events, s.log, queue.KeyFlightDelayed, queue.FlightEvent{
		FlightID:    id,
		FlightNo:    f.FlightNo,
		Status:      string(model.FlightDelayed),
		DepartureAt: dep,
		ArrivalAt:   arr,
		OccurredAt:  time.Now().UTC(),
	})
	return detail, nil
}

// CancelFlight marks a flight Cancelled.  Reservations on it are left for
// individual cancellation.  Cancelling an already cancelled flight is a
// no-op.
func (s *FlightService) CancelFlight(ctx context.Context, id string) (*model.FlightDetail, error) {
	tx, err := s.store.Begin(ctx)
	if err != nil {
		return nil, internal("begin transaction", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	f, err := s.store.Flights.GetForUpdateTx(ctx, tx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, notFound("flight", id)
	}
	if err != nil {
		return nil, internal("load flight", err)
	}
	changed := false
	switch f.Status {
	case model.FlightCancelled:
	case model.FlightDeparted, model.FlightArrived:
		return nil, ErrFlightNotModifiable.withMessage("flight %s is %s", f.FlightNo, f.Status)
	default:
		if err := s.store.Flights.UpdateStatusTx(ctx, tx, id, model.FlightCancelled); err != nil {
			return nil, internal("cancel flight", err)
		}
		changed = true
	}
	detail, err := s.store.Flights.GetDetailTx(ctx, tx, id)
	if err != nil {
		return nil, internal("load flight", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, internal("commit flight cancellation", err)
	}
	committed = true

	if changed {
		s.log.Info("flight cancelled", "flight_id", id, "flight_no", f.FlightNo)
		publish(ctx, s.events, s.log, queue.KeyFlightCancelled, queue.FlightEvent{
			FlightID:    id,
			FlightNo:    f.FlightNo,
			Status:      string(model.FlightCancelled),
			DepartureAt: f.DepartureAt,
			ArrivalAt:   f.ArrivalAt,
			OccurredAt:  time.Now().UTC(),
		})
	}
	return detail, nil
}

// DeleteFlight removes a flight that has no seats.  Flights with a seat
// map are cancelled instead.
func (s *FlightService) DeleteFlight(ctx context.Context, id string) error {
	tx, err := s.store.Begin(ctx)
	if err != nil {
		return internal("begin transaction", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if _, err := s.store.Flights.GetForUpdateTx(ctx, tx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFound("flight", id)
		}
		return internal("load flight", err)
	}
	n, err := s.store.Seats.CountByFlightTx(ctx, tx, id)
	if err != nil {
		return internal("count seats", err)
	}
	if n > 0 {
		return ErrFlightHasSeats.withMessage("flight %s has %d seats; cancel it instead", id, n)
	}
	if err := s.store.Flights.DeleteTx(ctx, tx, id); err != nil {
		return internal("delete flight", err)
	}
	if err := tx.Commit(); err != nil {
		return internal("commit flight deletion", err)
	}
	committed = true
	s.log.Info("flight deleted", "flight_id", id)
	return nil
}
