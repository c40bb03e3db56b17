package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/skip2/go-qrcode"

	"github.com/iliyamo/airline-reservation/internal/model"
	"github.com/iliyamo/airline-reservation/internal/queue"
	"github.com/iliyamo/airline-reservation/internal/repository"
	"github.com/iliyamo/airline-reservation/internal/utils"
)

const (
	// MaxPassengersPerReservation caps one booking.
	MaxPassengersPerReservation = 9
	// codeAttempts bounds retries when a generated code collides.
	codeAttempts = 5
)

// PassengerInput names either an existing passenger (PassengerID) or the
// details of a new one.
type PassengerInput struct {
	PassengerID string
	FirstName   string
	LastName    string
	Email       *string
	Phone       *string
	DateOfBirth *time.Time
	PassportNo  *string
}

// PaymentInput describes money offered for a reservation.  AmountCents of
// zero at creation time means "the reservation total".
type PaymentInput struct {
	Method      string
	Reference   *string
	AmountCents int64
}

// CreateReservationInput books Passengers on a flight in one travel class.
// SeatIDs, when given, must hold exactly one seat per passenger in
// passenger order; otherwise seats are assigned automatically.
type CreateReservationInput struct {
	FlightID      string
	TravelClassID string
	UserID        string
	Passengers    []PassengerInput
	SeatIDs       []string
	Payment       *PaymentInput
}

// ReservationService books and cancels seats.
type ReservationService struct {
	store  *repository.Store
	events EventPublisher
	log    *slog.Logger
}

func NewReservationService(store *repository.Store, events EventPublisher, log *slog.Logger) *ReservationService {
	return &ReservationService{store: store, events: events, log: log}
}

func (in CreateReservationInput) validate() error {
	if in.FlightID == "" {
		return invalid("flight_id is required")
	}
	if in.TravelClassID == "" {
		return invalid("travel_class_id is required")
	}
	n := len(in.Passengers)
	if n == 0 {
		return invalid("at least one passenger is required")
	}
	if n > MaxPassengersPerReservation {
		return invalid("at most %d passengers per reservation", MaxPassengersPerReservation)
	}
	for i, p := range in.Passengers {
		if p.PassengerID == "" && (strings.TrimSpace(p.FirstName) == "" || strings.TrimSpace(p.LastName) == "") {
			return invalid("passenger %d needs passenger_id or first_name and last_name", i+1)
		}
	}
	if len(in.SeatIDs) > 0 {
		if len(in.SeatIDs) != n {
			return ErrSeatCountMismatch.withMessage("%d seats selected for %d passengers", len(in.SeatIDs), n)
		}
		seen := make(map[string]struct{}, n)
		for _, id := range in.SeatIDs {
			if id == "" {
				return invalid("seat id must not be empty")
			}
			if _, dup := seen[id]; dup {
				return invalid("seat %s selected more than once", id)
			}
			seen[id] = struct{}{}
		}
	}
	if in.Payment != nil && strings.TrimSpace(in.Payment.Method) == "" {
		return invalid("payment method is required")
	}
	return nil
}

// CreateReservation books seats for every passenger in one transaction.
// Seats are locked while checked and flipped to Booked with a guarded
// update, so two bookings can never both hold the same seat.
func (s *ReservationService) CreateReservation(ctx context.Context, in CreateReservationInput) (*model.Reservation, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	n := len(in.Passengers)

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

	fare, err := s.store.Flights.FareTx(ctx, tx, in.FlightID, in.TravelClassID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrInvalidFlightOrClass.withMessage("flight %s has no fare for travel class %s", in.FlightID, in.TravelClassID)
	}
	if err != nil {
		return nil, internal("load fare", err)
	}
	if !fare.FlightStatus.Bookable() {
		return nil, ErrFlightNotBookable.withMessage("flight %s is %s", in.FlightID, fare.FlightStatus)
	}

	ts := time.Now().UTC().Truncate(time.Second)
	passengerIDs := make([]string, n)
	for i, p := range in.Passengers {
		if p.PassengerID != "" {
			if _, err := s.store.Passengers.GetByIDTx(ctx, tx, p.PassengerID); err != nil {
				if errors.Is(err, repository.ErrNotFound) {
					return nil, notFound("passenger", p.PassengerID)
				}
				return nil, internal("load passenger", err)
			}
			passengerIDs[i] = p.PassengerID
			continue
		}
		row := &model.Passenger{
			ID:          uuid.NewString(),
			FirstName:   strings.TrimSpace(p.FirstName),
			LastName:    strings.TrimSpace(p.LastName),
			Email:       p.Email,
			Phone:       p.Phone,
			DateOfBirth: p.DateOfBirth,
			PassportNo:  p.PassportNo,
			CreatedAt:   ts,
		}
		if err := s.store.Passengers.CreateTx(ctx, tx, row); err != nil {
			return nil, internal("insert passenger", err)
		}
		passengerIDs[i] = row.ID
	}

	seats, err := s.pickSeats(ctx, tx, in, n)
	if err != nil {
		return nil, err
	}
	seatIDs := make([]string, len(seats))
	for i, st := range seats {
		seatIDs[i] = st.ID
	}
	if err := s.store.Seats.MarkStatusTx(ctx, tx, seatIDs, model.SeatAvailable, model.SeatBooked); err != nil {
		if errors.Is(err, repository.ErrStaleSeat) {
			return nil, ErrSeatUnavailable.withMessage("a selected seat was booked by another reservation")
		}
		return nil, internal("book seats", err)
	}

	res := &model.Reservation{
		ID:               uuid.NewString(),
		FlightID:         in.FlightID,
		TravelClassID:    in.TravelClassID,
		Status:           model.ReservationPendingPayment,
		PaymentStatus:    model.PaymentPending,
		TotalAmountCents: fare.PriceCents * int64(n),
		CreatedAt:        ts,
		UpdatedAt:        ts,
	}
	if in.UserID != "" {
		uid := in.UserID
		res.UserID = &uid
	}
	if err := s.insertWithCode(ctx, tx, res); err != nil {
		return nil, err
	}

	links := make([]model.ReservationSeatLink, n)
	for i := range links {
		links[i] = model.ReservationSeatLink{
			ID:            uuid.NewString(),
			ReservationID: res.ID,
			PassengerID:   passengerIDs[i],
			SeatID:        seatIDs[i],
			Status:        model.SeatBooked,
			CreatedAt:     ts,
			UpdatedAt:     ts,
		}
	}
	if err := s.store.Reservations.CreateLinksTx(ctx, tx, links); err != nil {
		return nil, internal("insert seat links", err)
	}

	if in.Payment != nil {
		if in.Payment.AmountCents != 0 && in.Payment.AmountCents != res.TotalAmountCents {
			return nil, ErrInvalidPayment.withMessage("payment of %d cents does not match total %d", in.Payment.AmountCents, res.TotalAmountCents)
		}
		p := &model.Payment{
			ID:            uuid.NewString(),
			ReservationID: res.ID,
			AmountCents:   res.TotalAmountCents,
			Method:        strings.TrimSpace(in.Payment.Method),
			Reference:     in.Payment.Reference,
			Status:        model.PaymentPending,
			CreatedAt:     ts,
		}
		if err := s.store.Payments.CreateTx(ctx, tx, p); err != nil {
			return nil, internal("insert payment", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, internal("commit reservation", err)
	}
	committed = true

	s.log.Info("reservation created", "reservation_id", res.ID, "code", res.Code, "flight_id", res.FlightID, "seats", n)
	publish(ctx, s.events, s.log, queue.KeyReservationCreated, reservationEvent(res, seatIDs, n))
	return res, nil
}

// pickSeats returns the seats to book in passenger order.
func (s *ReservationService) pickSeats(ctx context.Context, tx *sql.Tx, in CreateReservationInput, n int) ([]model.Seat, error) {
	if len(in.SeatIDs) == 0 {
		seats, err := s.store.Seats.ListAvailableTx(ctx, tx, in.FlightID, in.TravelClassID, n)
		if err != nil {
			return nil, internal("find available seats", err)
		}
		if len(seats) < n {
			return nil, ErrInsufficientSeats.withMessage("%d seats requested, %d available", n, len(seats))
		}
		return seats, nil
	}

	found, err := s.store.Seats.GetByIDsTx(ctx, tx, in.SeatIDs)
	if err != nil {
		return nil, internal("load selected seats", err)
	}
	byID := make(map[string]model.Seat, len(found))
	for _, st := range found {
		byID[st.ID] = st
	}
	out := make([]model.Seat, 0, n)
	for _, id := range in.SeatIDs {
		st, ok := byID[id]
		if !ok || st.FlightID != in.FlightID || st.TravelClassID != in.TravelClassID {
			return nil, seatUnavailable(id)
		}
		if st.Status != model.SeatAvailable {
			return nil, seatUnavailable(st.SeatNo)
		}
		out = append(out, st)
	}
	return out, nil
}

func (s *ReservationService) insertWithCode(ctx context.Context, tx *sql.Tx, res *model.Reservation) error {
	for attempt := 0; attempt < codeAttempts; attempt++ {
		res.Code = utils.NewReservationCode()
		err := s.store.Reservations.CreateTx(ctx, tx, res)
		if err == nil {
			return nil
		}
		if !errors.Is(err, repository.ErrDuplicate) {
			return internal("insert reservation", err)
		}
	}
	return internal("insert reservation", fmt.Errorf("no free reservation code after %d attempts", codeAttempts))
}

// CancelReservation cancels a reservation and its seat links, then frees
// every seat no other active link still references.  Cancelling twice is
// harmless: the second call finds no active links and frees nothing.
func (s *ReservationService) CancelReservation(ctx context.Context, id string) (*model.Reservation, error) {
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

	res, err := s.store.Reservations.GetForUpdateTx(ctx, tx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, notFound("reservation", id)
	}
	if err != nil {
		return nil, internal("load reservation", err)
	}
	alreadyCancelled := res.Status == model.ReservationCancelled
	if !alreadyCancelled {
		if err := s.store.Reservations.UpdateStatusTx(ctx, tx, id, model.ReservationCancelled, res.PaymentStatus); err != nil {
			return nil, internal("cancel reservation", err)
		}
		res.Status = model.ReservationCancelled
		res.UpdatedAt = time.Now().UTC().Truncate(time.Second)
	}

	seatIDs, err := s.store.Reservations.CancelLinksTx(ctx, tx, id)
	if err != nil {
		return nil, internal("cancel seat links", err)
	}
	// lock the seats before counting references so a concurrent booking
	// cannot slip in between the check and the release
	if _, err := s.store.Seats.GetByIDsTx(ctx, tx, seatIDs); err != nil {
		return nil, internal("lock seats", err)
	}
	var released []string
	for _, seatID := range seatIDs {
		active, err := s.store.Reservations.CountActiveLinksForSeatTx(ctx, tx, seatID)
		if err != nil {
			return nil, internal("count seat references", err)
		}
		if active > 0 {
			continue
		}
		ok, err := s.store.Seats.ReleaseTx(ctx, tx, seatID)
		if err != nil {
			return nil, internal("release seat", err)
		}
		if ok {
			released = append(released, seatID)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, internal("commit cancellation", err)
	}
	committed = true

	if alreadyCancelled && len(seatIDs) == 0 {
		return res, nil
	}
	if res.PaymentStatus == model.PaymentPaid {
		// TODO: issue the refund through the payment provider once one is integrated
		s.log.Warn("cancelled reservation was paid, refund not processed", "reservation_id", id)
	}
	s.log.Info("reservation cancelled", "reservation_id", id, "code", res.Code, "seats_released", len(released))
	publish(ctx, s.events, s.log, queue.KeyReservationCancelled, reservationEvent(res, released, len(seatIDs)))
	return res, nil
}

// PayReservation settles a PendingPayment reservation.  The amount must
// equal the reservation total.
func (s *ReservationService) PayReservation(ctx context.Context, id string, in PaymentInput) (*model.Reservation, error) {
	if strings.TrimSpace(in.Method) == "" {
		return nil, invalid("payment method is required")
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

	res, err := s.store.Reservations.GetForUpdateTx(ctx, tx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, notFound("reservation", id)
	}
	if err != nil {
		return nil, internal("load reservation", err)
	}
	if res.Status != model.ReservationPendingPayment {
		return nil, ErrReservationNotPayable.withMessage("reservation %s is %s", res.Code, res.Status)
	}
	if in.AmountCents != res.TotalAmountCents {
		return nil, ErrInvalidPayment.withMessage("payment of %d cents does not match total %d", in.AmountCents, res.TotalAmountCents)
	}

	ts := time.Now().UTC().Truncate(time.Second)
	settled, err := s.store.Payments.MarkPaidTx(ctx, tx, id, ts)
	if err != nil {
		return nil, internal("settle payment", err)
	}
	if settled == 0 {
		p := &model.Payment{
			ID:            uuid.NewString(),
			ReservationID: id,
			AmountCents:   in.AmountCents,
			Method:        strings.TrimSpace(in.Method),
			Reference:     in.Reference,
			Status:        model.PaymentPaid,
			PaidAt:        &ts,
			CreatedAt:     ts,
		}
		if err := s.store.Payments.CreateTx(ctx, tx, p); err != nil {
			return nil, internal("insert payment", err)
		}
	}
	if err := s.store.Reservations.UpdateStatusTx(ctx, tx, id, model.ReservationConfirmed, model.PaymentPaid); err != nil {
		return nil, internal("confirm reservation", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, internal("commit payment", err)
	}
	committed = true

	res.Status = model.ReservationConfirmed
	res.PaymentStatus = model.PaymentPaid
	res.UpdatedAt = ts
	s.log.Info("reservation paid", "reservation_id", id, "code", res.Code, "amount_cents", in.AmountCents)
	publish(ctx, s.events, s.log, queue.KeyReservationConfirmed, reservationEvent(res, nil, 0))
	return res, nil
}

// GetReservation returns a reservation with its passenger/seat lines.
func (s *ReservationService) GetReservation(ctx context.Context, id string) (*model.ReservationDetail, error) {
	d, err := s.store.Reservations.GetDetail(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, notFound("reservation", id)
	}
	if err != nil {
		return nil, internal("load reservation", err)
	}
	return d, nil
}

// GetReservationByCode looks a reservation up by its booking reference.
func (s *ReservationService) GetReservationByCode(ctx context.Context, code string) (*model.ReservationDetail, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return nil, invalid("reservation code is required")
	}
	d, err := s.store.Reservations.GetDetailByCode(ctx, code)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, notFound("reservation", code)
	}
	if err != nil {
		return nil, internal("load reservation", err)
	}
	return d, nil
}

// ListReservationsByUser returns a user's reservations, newest first.
func (s *ReservationService) ListReservationsByUser(ctx context.Context, userID string) ([]model.ReservationDetail, error) {
	out, err := s.store.Reservations.ListByUser(ctx, userID)
	if err != nil {
		return nil, internal("list reservations", err)
	}
	return out, nil
}

// TicketQR renders a PNG QR code for a confirmed reservation.
func (s *ReservationService) TicketQR(ctx context.Context, id string, size int) ([]byte, error) {
	d, err := s.GetReservation(ctx, id)
	if err != nil {
		return nil, err
	}
	if d.Status != model.ReservationConfirmed {
		return nil, ErrTicketUnavailable.withMessage("reservation %s is %s", d.Code, d.Status)
	}
	if size <= 0 {
		size = 256
	}
	png, err := qrcode.Encode(ticketPayload(d), qrcode.Medium, size)
	if err != nil {
		return nil, internal("encode ticket", err)
	}
	return png, nil
}

// ticketPayload is the text embedded in the boarding QR code.
func ticketPayload(d *model.ReservationDetail) string {
	seats := make([]string, 0, len(d.Lines))
	for _, l := range d.Lines {
		if l.Status == model.SeatBooked {
			seats = append(seats, l.SeatNo+":"+l.LastName+"/"+l.FirstName)
		}
	}
	return strings.Join([]string{
		d.Code,
		d.FlightNo,
		d.SourceAirportCode + "-" + d.DestinationAirportCode,
		d.DepartureAt.UTC().Format(time.RFC3339),
		d.TravelClass,
		strings.Join(seats, ","),
	}, "|")
}

func reservationEvent(res *model.Reservation, seatIDs []string, passengers int) queue.ReservationEvent {
	ev := queue.ReservationEvent{
		ReservationID:    res.ID,
		Code:             res.Code,
		FlightID:         res.FlightID,
		TravelClassID:    res.TravelClassID,
		Status:           string(res.Status),
		PaymentStatus:    string(res.PaymentStatus),
		TotalAmountCents: res.TotalAmountCents,
		SeatIDs:          seatIDs,
		Passengers:       passengers,
		OccurredAt:       time.Now().UTC(),
	}
	if res.UserID != nil {
		ev.UserID = *res.UserID
	}
	return ev
}
