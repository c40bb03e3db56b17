package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/airline-reservation/internal/model"
	"github.com/iliyamo/airline-reservation/internal/queue"
)

func (f *fixture) book(t *testing.T, flightID string, n int) *model.Reservation {
	t.Helper()
	res, err := f.reservations.CreateReservation(context.Background(), CreateReservationInput{
		FlightID:      flightID,
		TravelClassID: economyID,
		UserID:        "user-1",
		Passengers:    passengers(n),
	})
	require.NoError(t, err)
	return res
}

func TestCreateReservationAutoAssignsSeats(t *testing.T) {
	f := newFixture(t, 10, map[string]int{economyID: 2})
	flight := f.createFlight(t)

	res := f.book(t, flight.ID, 2)
	assert.Len(t, res.Code, 6)
	assert.Equal(t, model.ReservationPendingPayment, res.Status)
	assert.Equal(t, model.PaymentPending, res.PaymentStatus)
	assert.Equal(t, int64(20000), res.TotalAmountCents)
	require.NotNil(t, res.UserID)
	assert.Equal(t, "user-1", *res.UserID)

	d, err := f.reservations.GetReservation(context.Background(), res.ID)
	require.NoError(t, err)
	require.Len(t, d.Lines, 2)
	assert.Equal(t, "Economy", d.TravelClass)
	for _, l := range d.Lines {
		assert.Equal(t, model.SeatBooked, l.Status)
		assert.Equal(t, model.SeatBooked, f.seatStatus(t, l.SeatID))
	}
	assert.ElementsMatch(t, []string{"1A", "1B"}, []string{d.Lines[0].SeatNo, d.Lines[1].SeatNo})

	// every seat is taken now
	_, err = f.reservations.CreateReservation(context.Background(), CreateReservationInput{
		FlightID: flight.ID, TravelClassID: economyID, Passengers: passengers(1),
	})
	require.ErrorIs(t, err, ErrInsufficientSeats)
	assert.Contains(t, err.Error(), "1 seats requested, 0 available")
	assert.Equal(t, 1, f.count(t, "reservations"))
	assert.Equal(t, 2, f.count(t, "passengers"))
	assert.Equal(t, []string{queue.KeyFlightCreated, queue.KeyReservationCreated}, f.events.keys())
}

func TestConcurrentReservationsNeverOversell(t *testing.T) {
	f := newFixture(t, 10, map[string]int{economyID: 3})
	flight := f.createFlight(t)

	const attempts = 8
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		okN  int
		errs []error
	)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.reservations.CreateReservation(context.Background(), CreateReservationInput{
				FlightID: flight.ID, TravelClassID: economyID, Passengers: passengers(1),
			})
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				okN++
				return
			}
			errs = append(errs, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, 3, okN)
	require.Len(t, errs, attempts-3)
	for _, err := range errs {
		assert.ErrorIs(t, err, ErrInsufficientSeats)
	}

	var booked, links int
	require.NoError(t, f.store.DB.QueryRow(`SELECT COUNT(*) FROM seats WHERE status = 'Booked'`).Scan(&booked))
	require.NoError(t, f.store.DB.QueryRow(
		`SELECT COUNT(*) FROM (SELECT seat_id FROM reservation_seats WHERE status = 'Booked' GROUP BY seat_id HAVING COUNT(*) > 1) dup`).
		Scan(&links))
	assert.Equal(t, 3, booked)
	assert.Zero(t, links, "no seat is referenced by two active links")
}

func TestCreateReservationExplicitSeatAlreadyBooked(t *testing.T) {
	f := newFixture(t, 10, map[string]int{economyID: 4})
	flight := f.createFlight(t)
	ctx := context.Background()

	seats, err := f.flights.SeatMap(ctx, flight.ID, economyID)
	require.NoError(t, err)
	first, err := f.reservations.CreateReservation(ctx, CreateReservationInput{
		FlightID: flight.ID, TravelClassID: economyID, Passengers: passengers(1),
		SeatIDs: []string{seats[2].SeatID},
	})
	require.NoError(t, err)
	assert.Equal(t, model.SeatBooked, f.seatStatus(t, seats[2].SeatID))

	_, err = f.reservations.CreateReservation(ctx, CreateReservationInput{
		FlightID: flight.ID, TravelClassID: economyID, Passengers: passengers(2),
		SeatIDs: []string{seats[0].SeatID, seats[2].SeatID},
	})
	require.ErrorIs(t, err, ErrSeatUnavailable)
	assert.Equal(t, KindConflict, KindOf(err))
	assert.Contains(t, err.Error(), "1C")

	assert.Equal(t, 1, f.count(t, "passengers"))
	assert.Equal(t, 1, f.count(t, "reservations"))
	assert.Equal(t, 1, f.count(t, "reservation_seats"))
	assert.Equal(t, model.SeatAvailable, f.seatStatus(t, seats[0].SeatID), "rolled back booking frees the seat")

	d, err := f.reservations.GetReservation(ctx, first.ID)
	require.NoError(t, err)
	require.Len(t, d.Lines, 1)
	assert.Equal(t, "1C", d.Lines[0].SeatNo)
}

func TestCreateReservationSeatSelectionRules(t *testing.T) {
	f := newFixture(t, 10, map[string]int{economyID: 2, businessID: 2})
	flight := f.createFlight(t)
	ctx := context.Background()

	business, err := f.flights.SeatMap(ctx, flight.ID, businessID)
	require.NoError(t, err)
	economy, err := f.flights.SeatMap(ctx, flight.ID, economyID)
	require.NoError(t, err)

	tests := []struct {
		name string
		in   CreateReservationInput
		want error
	}{
		{"count mismatch", CreateReservationInput{
			FlightID: flight.ID, TravelClassID: economyID, Passengers: passengers(2),
			SeatIDs: []string{economy[0].SeatID},
		}, ErrSeatCountMismatch},
		{"duplicate seat", CreateReservationInput{
			FlightID: flight.ID, TravelClassID: economyID, Passengers: passengers(2),
			SeatIDs: []string{economy[0].SeatID, economy[0].SeatID},
		}, ErrInvalidInput},
		{"seat of another class", CreateReservationInput{
			FlightID: flight.ID, TravelClassID: economyID, Passengers: passengers(1),
			SeatIDs: []string{business[0].SeatID},
		}, ErrSeatUnavailable},
		{"unknown seat", CreateReservationInput{
			FlightID: flight.ID, TravelClassID: economyID, Passengers: passengers(1),
			SeatIDs: []string{"nope"},
		}, ErrSeatUnavailable},
		{"class not sold", CreateReservationInput{
			FlightID: flight.ID, TravelClassID: firstClassID, Passengers: passengers(1),
		}, ErrInvalidFlightOrClass},
		{"unknown flight", CreateReservationInput{
			FlightID: "missing", TravelClassID: economyID, Passengers: passengers(1),
		}, ErrInvalidFlightOrClass},
		{"no passengers", CreateReservationInput{
			FlightID: flight.ID, TravelClassID: economyID,
		}, ErrInvalidInput},
		{"too many passengers", CreateReservationInput{
			FlightID: flight.ID, TravelClassID: economyID, Passengers: passengers(MaxPassengersPerReservation + 1),
		}, ErrInvalidInput},
		{"nameless passenger", CreateReservationInput{
			FlightID: flight.ID, TravelClassID: economyID, Passengers: []PassengerInput{{FirstName: "Ana"}},
		}, ErrInvalidInput},
		{"unknown passenger", CreateReservationInput{
			FlightID: flight.ID, TravelClassID: economyID, Passengers: []PassengerInput{{PassengerID: "ghost"}},
		}, ErrNotFound},
		{"blank payment method", CreateReservationInput{
			FlightID: flight.ID, TravelClassID: economyID, Passengers: passengers(1),
			Payment: &PaymentInput{Method: " "},
		}, ErrInvalidInput},
		{"wrong payment amount", CreateReservationInput{
			FlightID: flight.ID, TravelClassID: economyID, Passengers: passengers(1),
			Payment: &PaymentInput{Method: "card", AmountCents: 1},
		}, ErrInvalidPayment},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.reservations.CreateReservation(ctx, tt.in)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	assert.Zero(t, f.count(t, "reservations"))
	assert.Zero(t, f.count(t, "passengers"))
	assert.Zero(t, f.count(t, "payments"))
}

func TestCreateReservationOnCancelledFlight(t *testing.T) {
	f := newFixture(t, 10, map[string]int{economyID: 2})
	flight := f.createFlight(t)
	_, err := f.flights.CancelFlight(context.Background(), flight.ID)
	require.NoError(t, err)

	_, err = f.reservations.CreateReservation(context.Background(), CreateReservationInput{
		FlightID: flight.ID, TravelClassID: economyID, Passengers: passengers(1),
	})
	assert.ErrorIs(t, err, ErrInvalidFlightOrClass, "a cancelled flight has no active fare")
	assert.Zero(t, f.count(t, "reservations"))
}

func TestCreateReservationOnDepartedFlight(t *testing.T) {
	f := newFixture(t, 10, map[string]int{economyID: 2})
	flight := f.createFlight(t)
	_, err := f.store.DB.Exec(`UPDATE flights SET status = 'Departed' WHERE id = ?`, flight.ID)
	require.NoError(t, err)

	_, err = f.reservations.CreateReservation(context.Background(), CreateReservationInput{
		FlightID: flight.ID, TravelClassID: economyID, Passengers: passengers(1),
	})
	assert.ErrorIs(t, err, ErrFlightNotBookable)
	assert.Zero(t, f.count(t, "reservations"))
}

func TestCreateReservationReusesPassenger(t *testing.T) {
	f := newFixture(t, 10, map[string]int{economyID: 4})
	flight := f.createFlight(t)
	ctx := context.Background()

	first := f.book(t, flight.ID, 1)
	d, err := f.reservations.GetReservation(ctx, first.ID)
	require.NoError(t, err)

	_, err = f.reservations.CreateReservation(ctx, CreateReservationInput{
		FlightID: flight.ID, TravelClassID: economyID,
		Passengers: []PassengerInput{{PassengerID: d.Lines[0].PassengerID}},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, f.count(t, "passengers"))
	assert.Equal(t, 2, f.count(t, "reservations"))
}

func TestCreateReservationWithPaymentIntent(t *testing.T) {
	f := newFixture(t, 10, map[string]int{economyID: 2})
	flight := f.createFlight(t)
	ctx := context.Background()
	ref := "txn-1"

	res, err := f.reservations.CreateReservation(ctx, CreateReservationInput{
		FlightID: flight.ID, TravelClassID: economyID, Passengers: passengers(2),
		Payment: &PaymentInput{Method: "card", Reference: &ref},
	})
	require.NoError(t, err)

	payments, err := f.store.Payments.ListByReservation(ctx, res.ID)
	require.NoError(t, err)
	require.Len(t, payments, 1)
	assert.Equal(t, model.PaymentPending, payments[0].Status)
	assert.Equal(t, int64(20000), payments[0].AmountCents)

	paid, err := f.reservations.PayReservation(ctx, res.ID, PaymentInput{Method: "card", AmountCents: 20000})
	require.NoError(t, err)
	assert.Equal(t, model.ReservationConfirmed, paid.Status)

	payments, err = f.store.Payments.ListByReservation(ctx, res.ID)
	require.NoError(t, err)
	require.Len(t, payments, 1, "the pending row is settled, not duplicated")
	assert.Equal(t, model.PaymentPaid, payments[0].Status)
	assert.NotNil(t, payments[0].PaidAt)
}

func TestCancelReservationReleasesSeats(t *testing.T) {
	f := newFixture(t, 10, map[string]int{economyID: 2})
	flight := f.createFlight(t)
	ctx := context.Background()

	res := f.book(t, flight.ID, 2)
	cancelled, err := f.reservations.CancelReservation(ctx, res.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ReservationCancelled, cancelled.Status)

	d, err := f.reservations.GetReservation(ctx, res.ID)
	require.NoError(t, err)
	for _, l := range d.Lines {
		assert.Equal(t, model.SeatCancelled, l.Status)
		assert.Equal(t, model.SeatAvailable, f.seatStatus(t, l.SeatID))
	}

	// the freed seats can be sold again
	f.book(t, flight.ID, 2)
}

func TestCancelReservationIsIdempotent(t *testing.T) {
	f := newFixture(t, 10, map[string]int{economyID: 2})
	flight := f.createFlight(t)
	ctx := context.Background()

	res := f.book(t, flight.ID, 1)
	_, err := f.reservations.CancelReservation(ctx, res.ID)
	require.NoError(t, err)
	again, err := f.reservations.CancelReservation(ctx, res.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ReservationCancelled, again.Status)

	assert.Equal(t, []string{
		queue.KeyFlightCreated, queue.KeyReservationCreated, queue.KeyReservationCancelled,
	}, f.events.keys())

	_, err = f.reservations.CancelReservation(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCancelKeepsSeatReferencedElsewhere(t *testing.T) {
	f := newFixture(t, 10, map[string]int{economyID: 2})
	flight := f.createFlight(t)
	ctx := context.Background()

	res := f.book(t, flight.ID, 1)
	d, err := f.reservations.GetReservation(ctx, res.ID)
	require.NoError(t, err)
	seatID := d.Lines[0].SeatID

	// a second active link on the same seat, as left behind by a manual fix-up
	now := time.Now().UTC()
	_, err = f.store.DB.Exec(`INSERT INTO reservations
		(id, code, flight_id, travel_class_id, user_id, status, payment_status, total_amount_cents, created_at, updated_at)
		VALUES ('other', 'OTHER1', ?, ?, NULL, 'Confirmed', 'Paid', 10000, ?, ?)`, flight.ID, economyID, now, now)
	require.NoError(t, err)
	_, err = f.store.DB.Exec(`INSERT INTO reservation_seats
		(id, reservation_id, passenger_id, seat_id, status, created_at, updated_at)
		VALUES ('other-link', 'other', ?, ?, 'Booked', ?, ?)`, d.Lines[0].PassengerID, seatID, now, now)
	require.NoError(t, err)

	_, err = f.reservations.CancelReservation(ctx, res.ID)
	require.NoError(t, err)
	assert.Equal(t, model.SeatBooked, f.seatStatus(t, seatID))

	_, err = f.reservations.CancelReservation(ctx, "other")
	require.NoError(t, err)
	assert.Equal(t, model.SeatAvailable, f.seatStatus(t, seatID))
}

func TestPayReservation(t *testing.T) {
	f := newFixture(t, 10, map[string]int{economyID: 2})
	flight := f.createFlight(t)
	ctx := context.Background()
	res := f.book(t, flight.ID, 2)

	_, err := f.reservations.PayReservation(ctx, res.ID, PaymentInput{Method: "card", AmountCents: 100})
	assert.ErrorIs(t, err, ErrInvalidPayment)
	_, err = f.reservations.PayReservation(ctx, res.ID, PaymentInput{AmountCents: 20000})
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = f.reservations.PayReservation(ctx, "missing", PaymentInput{Method: "card", AmountCents: 20000})
	assert.ErrorIs(t, err, ErrNotFound)

	paid, err := f.reservations.PayReservation(ctx, res.ID, PaymentInput{Method: "card", AmountCents: 20000})
	require.NoError(t, err)
	assert.Equal(t, model.ReservationConfirmed, paid.Status)
	assert.Equal(t, model.PaymentPaid, paid.PaymentStatus)
	assert.Equal(t, 1, f.count(t, "payments"))

	_, err = f.reservations.PayReservation(ctx, res.ID, PaymentInput{Method: "card", AmountCents: 20000})
	assert.ErrorIs(t, err, ErrReservationNotPayable)

	keys := f.events.keys()
	assert.Equal(t, queue.KeyReservationConfirmed, keys[len(keys)-1])
}

func TestLookupReservations(t *testing.T) {
	f := newFixture(t, 10, map[string]int{economyID: 4})
	flight := f.createFlight(t)
	ctx := context.Background()

	first := f.book(t, flight.ID, 1)
	second := f.book(t, flight.ID, 1)

	byCode, err := f.reservations.GetReservationByCode(ctx, " "+first.Code+" ")
	require.NoError(t, err)
	assert.Equal(t, first.ID, byCode.ID)
	assert.Equal(t, "IKA", byCode.SourceAirportCode)
	assert.Equal(t, "IST", byCode.DestinationAirportCode)

	_, err = f.reservations.GetReservationByCode(ctx, "")
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = f.reservations.GetReservationByCode(ctx, "ZZZZZZ")
	assert.ErrorIs(t, err, ErrNotFound)

	mine, err := f.reservations.ListReservationsByUser(ctx, "user-1")
	require.NoError(t, err)
	ids := make([]string, len(mine))
	for i, r := range mine {
		ids[i] = r.ID
	}
	assert.ElementsMatch(t, []string{first.ID, second.ID}, ids)

	none, err := f.reservations.ListReservationsByUser(ctx, "user-2")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestTicketQR(t *testing.T) {
	f := newFixture(t, 10, map[string]int{economyID: 2})
	flight := f.createFlight(t)
	ctx := context.Background()
	res := f.book(t, flight.ID, 1)

	_, err := f.reservations.TicketQR(ctx, res.ID, 0)
	assert.ErrorIs(t, err, ErrTicketUnavailable)

	_, err = f.reservations.PayReservation(ctx, res.ID, PaymentInput{Method: "card", AmountCents: res.TotalAmountCents})
	require.NoError(t, err)
	png, err := f.reservations.TicketQR(ctx, res.ID, 128)
	require.NoError(t, err)
	require.Greater(t, len(png), 8)
	assert.Equal(t, []byte("\x89PNG\r\n\x1a\n"), png[:8])

	_, err = f.reservations.TicketQR(ctx, "missing", 0)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestTicketPayload(t *testing.T) {
	d := &model.ReservationDetail{
		Reservation:            model.Reservation{Code: "K7QX2M"},
		FlightNo:               "AR1234",
		TravelClass:            "Economy",
		DepartureAt:            baseDeparture,
		SourceAirportCode:      "IKA",
		DestinationAirportCode: "IST",
		Lines: []model.ReservationLine{
			{FirstName: "Sara", LastName: "Karimi", SeatNo: "3A", Status: model.SeatBooked},
			{FirstName: "Old", LastName: "Line", SeatNo: "3B", Status: model.SeatCancelled},
		},
	}
	assert.Equal(t, "K7QX2M|AR1234|IKA-IST|2026-12-01T08:00:00Z|Economy|3A:Karimi/Sara", ticketPayload(d))
}
