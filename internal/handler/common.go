package handler // package handler holds the echo controllers for the /v1 API

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/airline-reservation/internal/middleware"
	"github.com/iliyamo/airline-reservation/internal/model"
	"github.com/iliyamo/airline-reservation/internal/service"
	"github.com/iliyamo/airline-reservation/internal/utils"
)

const dateLayout = "2006-01-02"

// statusFor maps a service error kind onto an HTTP status.  Validation
// and business-rule failures are 400, missing entities 404 and anything
// unclassified 500.  Two kinds go beyond that base set: Conflict
// (seat already taken, duplicate reference data) answers 409 so clients
// can tell a lost race from a malformed request, and Unauthorized answers
// 401.  Both still carry the error code in the envelope.
func statusFor(k service.Kind) int {
	switch k {
	case service.KindValidation, service.KindBusinessRule:
		return http.StatusBadRequest
	case service.KindNotFound:
		return http.StatusNotFound
	case service.KindConflict:
		return http.StatusConflict
	case service.KindUnauthorized:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// fail writes err in the response envelope.  Infrastructure failures are
// logged and reported without their cause.
func fail(c echo.Context, err error) error {
	var se *service.Error
	if !errors.As(err, &se) {
		se = &service.Error{Kind: service.KindInfrastructure, Code: service.ErrInternal.Code, Message: "internal error", Err: err}
	}
	status := statusFor(se.Kind)
	if status == http.StatusInternalServerError {
		slog.ErrorContext(c.Request().Context(), "request failed",
			"method", c.Request().Method, "path", c.Path(), "err", err)
		return c.JSON(status, utils.ErrorResponse("internal error", se.Code))
	}
	return c.JSON(status, utils.ErrorResponse(se.Message, se.Code))
}

func badRequest(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, utils.ErrorResponse(msg, service.ErrInvalidInput.Code))
}

func validationErr(msg string) error {
	return &service.Error{Kind: service.KindValidation, Code: service.ErrInvalidInput.Code, Message: msg}
}

func notFoundErr(msg string) error {
	return &service.Error{Kind: service.KindNotFound, Code: service.ErrNotFound.Code, Message: msg}
}

func ok(c echo.Context, msg string, data any) error {
	return c.JSON(http.StatusOK, utils.SuccessResponse(msg, data))
}

func created(c echo.Context, msg string, data any) error {
	return c.JSON(http.StatusCreated, utils.SuccessResponse(msg, data))
}

func isAdmin(c echo.Context) bool {
	return middleware.Role(c) == string(model.RoleAdmin)
}

// queryTime accepts RFC 3339 timestamps or plain dates.  An empty value
// yields the zero time.
func queryTime(c echo.Context, name string) (time.Time, error) {
	raw := strings.TrimSpace(c.QueryParam(name))
	if raw == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	t, err := time.Parse(dateLayout, raw)
	if err != nil {
		return time.Time{}, errors.New(name + " must be RFC 3339 or YYYY-MM-DD")
	}
	return t, nil
}

func queryInt(c echo.Context, name string) (int, error) {
	raw := strings.TrimSpace(c.QueryParam(name))
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errors.New(name + " must be an integer")
	}
	return n, nil
}

func queryBool(c echo.Context, name string) bool {
	b, _ := strconv.ParseBool(c.QueryParam(name))
	return b
}
