package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/airline-reservation/internal/model"
	"github.com/iliyamo/airline-reservation/internal/queue"
)

func TestCreateFlightGeneratesLabelledSeats(t *testing.T) {
	f := newFixture(t, 10, map[string]int{economyID: 4})
	ctx := context.Background()

	d := f.createFlight(t)
	assert.Equal(t, model.FlightScheduled, d.Status)
	assert.Equal(t, 4, d.AvailableSeats)
	assert.Regexp(t, `^AR[1-9][0-9]{3}$`, d.FlightNo)
	assert.Equal(t, "IKA", d.SourceAirportCode)
	assert.Equal(t, "EP-ABC", d.AircraftRegistration)

	seats, err := f.flights.SeatMap(ctx, d.ID, "")
	require.NoError(t, err)
	labels := make([]string, len(seats))
	for i, s := range seats {
		labels[i] = s.SeatNo
		assert.Equal(t, model.SeatAvailable, s.Status)
		assert.Equal(t, int64(10000), s.PriceCents)
	}
	assert.Equal(t, []string{"1A", "1B", "1C", "1D"}, labels)
	assert.Equal(t, 4, f.count(t, "seat_costs"))
	assert.Equal(t, []string{queue.KeyFlightCreated}, f.events.keys())
}

func TestCreateFlightOrdersClassesByRank(t *testing.T) {
	f := newFixture(t, 12, map[string]int{economyID: 6, businessID: 2})
	in := f.flightInput()
	in.FlightNo = "ar 100"
	in.ClassPrices = map[string]int64{businessID: 90000}

	d, err := f.flights.CreateFlight(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, "AR 100", d.FlightNo)

	seats, err := f.flights.SeatMap(context.Background(), d.ID, "")
	require.NoError(t, err)
	require.Len(t, seats, 8)
	assert.Equal(t, "1A", seats[0].SeatNo)
	assert.Equal(t, "Business", seats[0].TravelClass)
	assert.Equal(t, int64(90000), seats[0].PriceCents)
	assert.Equal(t, "1C", seats[2].SeatNo)
	assert.Equal(t, "Economy", seats[2].TravelClass)
	assert.Equal(t, int64(10000), seats[2].PriceCents)
	assert.Equal(t, "2B", seats[7].SeatNo)

	economy, err := f.flights.SeatMap(context.Background(), d.ID, economyID)
	require.NoError(t, err)
	assert.Len(t, economy, 6)
}

func TestCreateFlightCapacityExceededLeavesNothing(t *testing.T) {
	f := newFixture(t, 5, map[string]int{economyID: 4, businessID: 2})

	_, err := f.flights.CreateFlight(context.Background(), f.flightInput())
	require.ErrorIs(t, err, ErrCapacityExceeded)
	assert.Equal(t, KindBusinessRule, KindOf(err))
	assert.Zero(t, f.count(t, "flights"))
	assert.Zero(t, f.count(t, "seats"))
	assert.Zero(t, f.count(t, "seat_costs"))
	assert.Empty(t, f.events.keys())
}

func TestCreateFlightWithoutLayout(t *testing.T) {
	f := newFixture(t, 10, nil)

	_, err := f.flights.CreateFlight(context.Background(), f.flightInput())
	require.ErrorIs(t, err, ErrNoSeatLayout)
	assert.Equal(t, KindNotFound, KindOf(err))
	assert.Zero(t, f.count(t, "flights"))
}

func TestCreateFlightValidation(t *testing.T) {
	f := newFixture(t, 10, map[string]int{economyID: 4})
	ctx := context.Background()

	in := f.flightInput()
	in.ArrivalAt = in.DepartureAt
	_, err := f.flights.CreateFlight(ctx, in)
	assert.ErrorIs(t, err, ErrInvalidSchedule)

	in = f.flightInput()
	in.DestinationAirportID = in.SourceAirportID
	_, err = f.flights.CreateFlight(ctx, in)
	assert.ErrorIs(t, err, ErrInvalidRoute)

	in = f.flightInput()
	in.AircraftID = "missing"
	_, err = f.flights.CreateFlight(ctx, in)
	assert.ErrorIs(t, err, ErrNotFound)

	in = f.flightInput()
	in.DestinationAirportID = "nowhere"
	_, err = f.flights.CreateFlight(ctx, in)
	require.ErrorIs(t, err, ErrNotFound)
	assert.Contains(t, err.Error(), "destination airport")

	assert.Zero(t, f.count(t, "flights"))
}

func TestListFlightsFilters(t *testing.T) {
	f := newFixture(t, 10, map[string]int{economyID: 2})
	ctx := context.Background()

	early := f.createFlight(t)
	in := f.flightInput()
	in.DepartureAt = baseDeparture.Add(48 * time.Hour)
	in.ArrivalAt = in.DepartureAt.Add(3 * time.Hour)
	late, err := f.flights.CreateFlight(ctx, in)
	require.NoError(t, err)

	all, err := f.flights.ListFlights(ctx, FlightFilter{SourceAirportID: f.src.ID})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, early.ID, all[0].ID)

	window, err := f.flights.ListFlights(ctx, FlightFilter{DepartFrom: baseDeparture.Add(time.Hour)})
	require.NoError(t, err)
	require.Len(t, window, 1)
	assert.Equal(t, late.ID, window[0].ID)

	none, err := f.flights.ListFlights(ctx, FlightFilter{SourceAirportID: f.dst.ID})
	require.NoError(t, err)
	assert.Empty(t, none)

	_, err = f.flights.CancelFlight(ctx, late.ID)
	require.NoError(t, err)
	active, err := f.flights.ListFlights(ctx, FlightFilter{})
	require.NoError(t, err)
	assert.Len(t, active, 1)
	withCancelled, err := f.flights.ListFlights(ctx, FlightFilter{IncludeCancelled: true})
	require.NoError(t, err)
	assert.Len(t, withCancelled, 2)

	_, err = f.flights.ListFlights(ctx, FlightFilter{DepartFrom: baseDeparture, DepartTo: baseDeparture})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestDelayFlight(t *testing.T) {
	f := newFixture(t, 10, map[string]int{economyID: 2})
	ctx := context.Background()
	d := f.createFlight(t)

	newDep := baseDeparture.Add(2 * time.Hour)
	delayed, err := f.flights.DelayFlight(ctx, d.ID, newDep, newDep.Add(3*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, model.FlightDelayed, delayed.Status)
	assert.True(t, delayed.DepartureAt.Equal(newDep))

	var validFrom time.Time
	require.NoError(t, f.store.DB.QueryRow(
		`SELECT sc.valid_from FROM seat_costs sc JOIN seats s ON s.id = sc.seat_id WHERE s.flight_id = ? LIMIT 1`, d.ID).
		Scan(&validFrom))
	assert.True(t, validFrom.Equal(newDep), "cost window follows the new schedule")

	_, err = f.flights.DelayFlight(ctx, d.ID, baseDeparture, baseDeparture.Add(time.Hour))
	assert.ErrorIs(t, err, ErrInvalidInput, "departure cannot move earlier")

	_, err = f.flights.DelayFlight(ctx, d.ID, newDep, newDep)
	assert.ErrorIs(t, err, ErrInvalidSchedule)

	_, err = f.flights.CancelFlight(ctx, d.ID)
	require.NoError(t, err)
	_, err = f.flights.DelayFlight(ctx, d.ID, newDep.Add(time.Hour), newDep.Add(4*time.Hour))
	assert.ErrorIs(t, err, ErrFlightNotModifiable)

	assert.Equal(t, []string{queue.KeyFlightCreated, queue.KeyFlightDelayed, queue.KeyFlightCancelled}, f.events.keys())
}

func TestCancelFlightIsIdempotent(t *testing.T) {
	f := newFixture(t, 10, map[string]int{economyID: 2})
	ctx := context.Background()
	d := f.createFlight(t)

	first, err := f.flights.CancelFlight(ctx, d.ID)
	require.NoError(t, err)
	assert.Equal(t, model.FlightCancelled, first.Status)
	second, err := f.flights.CancelFlight(ctx, d.ID)
	require.NoError(t, err)
	assert.Equal(t, model.FlightCancelled, second.Status)
	assert.Equal(t, []string{queue.KeyFlightCreated, queue.KeyFlightCancelled}, f.events.keys())

	_, err = f.flights.CancelFlight(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCancelDepartedFlightRejected(t *testing.T) {
	f := newFixture(t, 10, map[string]int{economyID: 2})
	d := f.createFlight(t)
	_, err := f.store.DB.Exec(`UPDATE flights SET status = 'Departed' WHERE id = ?`, d.ID)
	require.NoError(t, err)

	_, err = f.flights.CancelFlight(context.Background(), d.ID)
	assert.ErrorIs(t, err, ErrFlightNotModifiable)
}

func TestDeleteFlight(t *testing.T) {
	f := newFixture(t, 10, map[string]int{economyID: 2})
	ctx := context.Background()
	d := f.createFlight(t)

	err := f.flights.DeleteFlight(ctx, d.ID)
	assert.ErrorIs(t, err, ErrFlightHasSeats)

	bare := &model.Flight{
		ID: "bare-flight", FlightNo: "AR9999", AircraftID: f.aircraft.ID,
		SourceAirportID: f.src.ID, DestinationAirportID: f.dst.ID,
		DepartureAt: baseDeparture, ArrivalAt: baseDeparture.Add(time.Hour),
		Status: model.FlightScheduled, CreatedAt: baseDeparture, UpdatedAt: baseDeparture,
	}
	tx, err := f.store.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, f.store.Flights.CreateTx(ctx, tx, bare))
	require.NoError(t, tx.Commit())

	require.NoError(t, f.flights.DeleteFlight(ctx, bare.ID))
	_, err = f.flights.GetFlight(ctx, bare.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, f.flights.DeleteFlight(ctx, bare.ID), ErrNotFound)
}

func TestSeatMapUnknownFlight(t *testing.T) {
	f := newFixture(t, 10, map[string]int{economyID: 2})
	_, err := f.flights.SeatMap(context.Background(), "missing", "")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCustomLabeler(t *testing.T) {
	f := newFixture(t, 10, map[string]int{economyID: 3})
	f.flights = NewFlightService(f.store, labelFunc(func(i int) string { return "S" + string(rune('0'+i)) }), f.events, discardLogger(), 1)

	d := f.createFlight(t)
	seats, err := f.flights.SeatMap(context.Background(), d.ID, "")
	require.NoError(t, err)
	assert.Equal(t, "S0", seats[0].SeatNo)
	assert.Equal(t, "S2", seats[2].SeatNo)
}

type labelFunc func(int) string

func (f labelFunc) Label(i int) string { return f(i) }

func TestCreateFlightOnRoute(t *testing.T) {
	f := newFixture(t, 10, map[string]int{economyID: 2})
	ctx := context.Background()

	rt := model.Route{AirlineID: f.aircraft.AirlineID, SourceAirportID: f.src.ID, DestinationAirportID: f.dst.ID}
	require.NoError(t, f.ref.CreateRoute(ctx, &rt))

	in := f.flightInput()
	in.SourceAirportID, in.DestinationAirportID = "", ""
	in.RouteID = rt.ID
	d, err := f.flights.CreateFlight(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, f.src.ID, d.SourceAirportID)
	assert.Equal(t, "IST", d.DestinationAirportCode)

	in = f.flightInput()
	in.RouteID = rt.ID
	in.SourceAirportID, in.DestinationAirportID = f.dst.ID, f.src.ID
	_, err = f.flights.CreateFlight(ctx, in)
	assert.ErrorIs(t, err, ErrInvalidRoute, "airports must agree with the route")

	in.RouteID = "missing"
	_, err = f.flights.CreateFlight(ctx, in)
	assert.ErrorIs(t, err, ErrNotFound)

	other := model.Airline{Code: "XQ", Name: "Other Air"}
	require.NoError(t, f.ref.CreateAirline(ctx, &other))
	foreign := model.Route{AirlineID: other.ID, SourceAirportID: f.src.ID, DestinationAirportID: f.dst.ID}
	require.NoError(t, f.ref.CreateRoute(ctx, &foreign))
	in = f.flightInput()
	in.RouteID = foreign.ID
	_, err = f.flights.CreateFlight(ctx, in)
	require.ErrorIs(t, err, ErrInvalidRoute)
	assert.Contains(t, err.Error(), "not flown by the aircraft's airline")

	assert.Equal(t, 1, f.count(t, "flights"))
}
