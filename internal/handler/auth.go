package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/airline-reservation/internal/middleware"
	"github.com/iliyamo/airline-reservation/internal/model"
	"github.com/iliyamo/airline-reservation/internal/service"
)

// Authenticator is the account API the auth endpoints need.
type Authenticator interface {
	Register(ctx context.Context, email, password string) (*service.Session, error)
	Login(ctx context.Context, email, password string) (*service.Session, error)
	Refresh(ctx context.Context, raw string) (*service.Session, error)
	Logout(ctx context.Context, userID, raw string) error
	Me(ctx context.Context, userID string) (*model.User, error)
}

// AuthHandler bundles dependencies for auth endpoints.
type AuthHandler struct {
	svc Authenticator
}

func NewAuthHandler(svc Authenticator) *AuthHandler {
	return &AuthHandler{svc: svc}
}

// ----- DTOs -----

type credentialsReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}
type refreshReq struct {
	RefreshToken string `json:"refresh_token"`
}

type tokenPart struct {
	Token   string    `json:"token"`
	Expires time.Time `json:"expires"`
}
type userPart struct {
	ID    string     `json:"id"`
	Email string     `json:"email"`
	Role  model.Role `json:"role"`
}
type authResp struct {
	User    userPart  `json:"user"`
	Access  tokenPart `json:"access"`
	Refresh tokenPart `json:"refresh"`
}

func sessionResp(s *service.Session) authResp {
	return authResp{
		User:    userPart{ID: s.UserID, Email: s.Email, Role: s.Role},
		Access:  tokenPart{Token: s.Access.Token, Expires: s.Access.Exp},
		Refresh: tokenPart{Token: s.Refresh.Raw, Expires: s.Refresh.Exp}, // raw back to client
	}
}

// Register creates a customer account and returns a token pair.
func (h *AuthHandler) Register(c echo.Context) error {
	var req credentialsReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	s, err := h.svc.Register(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return fail(c, err)
	}
	return created(c, "registered", sessionResp(s))
}

// Login verifies credentials and returns a new pair.
func (h *AuthHandler) Login(c echo.Context) error {
	var req credentialsReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	s, err := h.svc.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return fail(c, err)
	}
	return ok(c, "logged in", sessionResp(s))
}

// Refresh rotates a refresh token.
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req refreshReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	s, err := h.svc.Refresh(c.Request().Context(), req.RefreshToken)
	if err != nil {
		return fail(c, err)
	}
	return ok(c, "token refreshed", sessionResp(s))
}

// Logout revokes the refresh token in the body, or every session of the
// bearer when the body has none.  Mounted behind OptionalJWT.
func (h *AuthHandler) Logout(c echo.Context) error {
	var req refreshReq
	_ = c.Bind(&req)
	if err := h.svc.Logout(c.Request().Context(), middleware.UserID(c), req.RefreshToken); err != nil {
		return fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *AuthHandler) Me(c echo.Context) error {
	u, err := h.svc.Me(c.Request().Context(), middleware.UserID(c))
	if err != nil {
		return fail(c, err)
	}
	return ok(c, "current user", userPart{ID: u.ID, Email: u.Email, Role: u.Role})
}
