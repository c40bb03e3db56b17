package handler

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/airline-reservation/internal/middleware"
	"github.com/iliyamo/airline-reservation/internal/model"
	"github.com/iliyamo/airline-reservation/internal/service"
)

// ReservationManager is the booking API used by the customer routes.
type ReservationManager interface {
	CreateReservation(ctx context.Context, in service.CreateReservationInput) (*model.Reservation, error)
	CancelReservation(ctx context.Context, id string) (*model.Reservation, error)
	PayReservation(ctx context.Context, id string, in service.PaymentInput) (*model.Reservation, error)
	GetReservation(ctx context.Context, id string) (*model.ReservationDetail, error)
	GetReservationByCode(ctx context.Context, code string) (*model.ReservationDetail, error)
	ListReservationsByUser(ctx context.Context, userID string) ([]model.ReservationDetail, error)
	TicketQR(ctx context.Context, id string, size int) ([]byte, error)
}

// ReservationHandler serves bookings.  Customers only ever see their own
// reservations; admins see all of them.
type ReservationHandler struct {
	svc ReservationManager
}

func NewReservationHandler(svc ReservationManager) *ReservationHandler {
	return &ReservationHandler{svc: svc}
}

type passengerReq struct {
	PassengerID string  `json:"passenger_id"`
	FirstName   string  `json:"first_name"`
	LastName    string  `json:"last_name"`
	Email       *string `json:"email"`
	Phone       *string `json:"phone"`
	DateOfBirth string  `json:"date_of_birth"` // YYYY-MM-DD
	PassportNo  *string `json:"passport_no"`
}

type paymentReq struct {
	Method      string  `json:"method"`
	Reference   *string `json:"reference"`
	AmountCents int64   `json:"amount_cents"`
}

type createReservationReq struct {
	FlightID      string         `json:"flight_id"`
	TravelClassID string         `json:"travel_class_id"`
	Passengers    []passengerReq `json:"passengers"`
	SeatIDs       []string       `json:"seat_ids"`
	Payment       *paymentReq    `json:"payment"`
}

func (p paymentReq) input() service.PaymentInput {
	return service.PaymentInput{Method: p.Method, Reference: p.Reference, AmountCents: p.AmountCents}
}

func (r createReservationReq) input(userID string) (service.CreateReservationInput, error) {
	in := service.CreateReservationInput{
		FlightID:      r.FlightID,
		TravelClassID: r.TravelClassID,
		UserID:        userID,
		SeatIDs:       r.SeatIDs,
	}
	for i, p := range r.Passengers {
		pi := service.PassengerInput{
			PassengerID: p.PassengerID,
			FirstName:   p.FirstName,
			LastName:    p.LastName,
			Email:       p.Email,
			Phone:       p.Phone,
			PassportNo:  p.PassportNo,
		}
		if dob := strings.TrimSpace(p.DateOfBirth); dob != "" {
			t, err := time.Parse(dateLayout, dob)
			if err != nil {
				return in, validationErr(fmt.Sprintf("passengers[%d].date_of_birth must be YYYY-MM-DD", i))
			}
			pi.DateOfBirth = &t
		}
		in.Passengers = append(in.Passengers, pi)
	}
	if r.Payment != nil {
		p := r.Payment.input()
		in.Payment = &p
	}
	return in, nil
}

func (h *ReservationHandler) Create(c echo.Context) error {
	var req createReservationReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	in, err := req.input(middleware.UserID(c))
	if err != nil {
		return fail(c, err)
	}
	res, err := h.svc.CreateReservation(c.Request().Context(), in)
	if err != nil {
		return fail(c, err)
	}
	return created(c, "reservation created", res)
}

// owned loads a reservation and hides it from customers who do not own
// it.  A foreign reservation is reported as missing.
func (h *ReservationHandler) owned(c echo.Context, load func() (*model.ReservationDetail, error)) (*model.ReservationDetail, error) {
	d, err := load()
	if err != nil {
		return nil, err
	}
	if isAdmin(c) {
		return d, nil
	}
	if d.UserID == nil || *d.UserID != middleware.UserID(c) {
		return nil, notFoundErr("reservation not found")
	}
	return d, nil
}

func (h *ReservationHandler) Get(c echo.Context) error {
	ctx := c.Request().Context()
	d, err := h.owned(c, func() (*model.ReservationDetail, error) { return h.svc.GetReservation(ctx, c.Param("id")) })
	if err != nil {
		return fail(c, err)
	}
	return ok(c, "reservation", d)
}

func (h *ReservationHandler) GetByCode(c echo.Context) error {
	ctx := c.Request().Context()
	d, err := h.owned(c, func() (*model.ReservationDetail, error) { return h.svc.GetReservationByCode(ctx, c.Param("code")) })
	if err != nil {
		return fail(c, err)
	}
	return ok(c, "reservation", d)
}

// ListMine returns the caller's reservations, newest first.
func (h *ReservationHandler) ListMine(c echo.Context) error {
	out, err := h.svc.ListReservationsByUser(c.Request().Context(), middleware.UserID(c))
	if err != nil {
		return fail(c, err)
	}
	return ok(c, "reservations", out)
}

func (h *ReservationHandler) Pay(c echo.Context) error {
	var req paymentReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	ctx := c.Request().Context()
	d, err := h.owned(c, func() (*model.ReservationDetail, error) { return h.svc.GetReservation(ctx, c.Param("id")) })
	if err != nil {
		return fail(c, err)
	}
	res, err := h.svc.PayReservation(ctx, d.ID, req.input())
	if err != nil {
		return fail(c, err)
	}
	return ok(c, "reservation confirmed", res)
}

func (h *ReservationHandler) Cancel(c echo.Context) error {
	ctx := c.Request().Context()
	d, err := h.owned(c, func() (*model.ReservationDetail, error) { return h.svc.GetReservation(ctx, c.Param("id")) })
	if err != nil {
		return fail(c, err)
	}
	res, err := h.svc.CancelReservation(ctx, d.ID)
	if err != nil {
		return fail(c, err)
	}
	return ok(c, "reservation cancelled", res)
}

// QR streams the e-ticket as a PNG.  Optional ?size=<pixels>.
func (h *ReservationHandler) QR(c echo.Context) error {
	size, err := queryInt(c, "size")
	if err != nil || size < 0 || size > 1024 {
		return badRequest(c, "size must be between 1 and 1024")
	}
	ctx := c.Request().Context()
	d, err := h.owned(c, func() (*model.ReservationDetail, error) { return h.svc.GetReservation(ctx, c.Param("id")) })
	if err != nil {
		return fail(c, err)
	}
	png, err := h.svc.TicketQR(ctx, d.ID, size)
	if err != nil {
		return fail(c, err)
	}
	return c.Blob(http.StatusOK, "image/png", png)
}
