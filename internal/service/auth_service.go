package service

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/mail"
	"strings"

	"github.com/iliyamo/airline-reservation/internal/model"
	"github.com/iliyamo/airline-reservation/internal/repository"
	"github.com/iliyamo/airline-reservation/internal/utils"
)

// MinPasswordLength is enforced on registration.
const MinPasswordLength = 8

// AuthConfig carries the token and hashing settings.
type AuthConfig struct {
	JWTSecret      string
	AccessTTLMin   int
	RefreshTTLDays int
	BcryptCost     int
}

// Session is the result of a successful login, registration or refresh.
type Session struct {
	UserID  string
	Email   string
	Role    model.Role
	Access  utils.AccessToken
	Refresh utils.RefreshToken
}

// AuthService registers users and issues access/refresh token pairs.
// Refresh tokens are stored hashed and rotated on every refresh.
type AuthService struct {
	users  *repository.UserRepo
	tokens *repository.TokenRepo
	cfg    AuthConfig
}

func NewAuthService(users *repository.UserRepo, tokens *repository.TokenRepo, cfg AuthConfig) *AuthService {
	return &AuthService{users: users, tokens: tokens, cfg: cfg}
}

// Register creates a CUSTOMER account.  Admins are promoted out of band.
func (s *AuthService) Register(ctx context.Context, email, password string) (*Session, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, invalid("a valid email is required")
	}
	if len(password) < MinPasswordLength {
		return nil, invalid("password must be at least %d characters", MinPasswordLength)
	}
	if len(password) > utils.MaxPasswordBytes {
		return nil, invalid("password must be at most %d bytes", utils.MaxPasswordBytes)
	}
	uid, err := s.users.Create(ctx, email, password, model.RoleCustomer, s.cfg.BcryptCost)
	if errors.Is(err, repository.ErrEmailExists) {
		return nil, ErrEmailExists
	}
	if err != nil {
		return nil, internal("create user", err)
	}
	return s.issue(ctx, uid, email, model.RoleCustomer)
}

// Login verifies credentials.  Unknown emails, wrong passwords and
// disabled accounts all yield ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, email, password string) (*Session, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, invalid("email and password are required")
	}
	u, err := s.users.GetByEmail(ctx, email)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, internal("load user", err)
	}
	if !u.IsActive || !utils.VerifyPassword(u.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}
	// The old hash keeps working if this fails; retry on the next login.
	if utils.NeedsRehash(u.PasswordHash, s.cfg.BcryptCost) {
		if err := s.users.UpdatePassword(ctx, u.ID, password, s.cfg.BcryptCost); err != nil {
			slog.WarnContext(ctx, "rehash password", "user_id", u.ID, "err", err)
		}
	}
	return s.issue(ctx, u.ID, u.Email, u.Role)
}

// Refresh validates a refresh token, revokes it and issues a new pair.
func (s *AuthService) Refresh(ctx context.Context, raw string) (*Session, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, invalid("refresh_token is required")
	}
	hash := utils.HashRefreshRaw(raw)
	userID, err := s.tokens.ValidateRefresh(ctx, hash)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrInvalidCredentials.withMessage("invalid refresh token")
	}
	if err != nil {
		return nil, internal("validate refresh token", err)
	}
	if err := s.tokens.RevokeByHash(ctx, hash); err != nil {
		return nil, internal("revoke refresh token", err)
	}
	u, err := s.users.GetByID(ctx, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrInvalidCredentials.withMessage("invalid refresh token")
	}
	if err != nil {
		return nil, internal("load user", err)
	}
	return s.issue(ctx, u.ID, u.Email, u.Role)
}

// Logout revokes one refresh token when raw is given, otherwise every
// refresh token of userID.
func (s *AuthService) Logout(ctx context.Context, userID, raw string) error {
	raw = strings.TrimSpace(raw)
	if raw != "" {
		if err := s.tokens.RevokeByHash(ctx, utils.HashRefreshRaw(raw)); err != nil {
			return internal("revoke refresh token", err)
		}
		return nil
	}
	if userID == "" {
		return invalid("provide a bearer token or refresh_token")
	}
	if err := s.tokens.RevokeAllForUser(ctx, userID); err != nil {
		return internal("revoke refresh tokens", err)
	}
	return nil
}

// Me loads the account behind an access token.
func (s *AuthService) Me(ctx context.Context, userID string) (*model.User, error) {
	u, err := s.users.GetByID(ctx, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("user", userID)
	}
	if err != nil {
		return nil, internal("load user", err)
	}
	return &u, nil
}

func (s *AuthService) issue(ctx context.Context, uid, email string, role model.Role) (*Session, error) {
	access, err := utils.NewAccessToken(s.cfg.JWTSecret, uid, string(role), s.cfg.AccessTTLMin)
	if err != nil {
		return nil, internal("issue access token", err)
	}
	refresh := utils.NewRefreshToken(s.cfg.RefreshTTLDays)
	if err := s.tokens.StoreRefresh(ctx, uid, utils.HashRefreshRaw(refresh.Raw), refresh.Exp); err != nil {
		return nil, internal("store refresh token", err)
	}
	return &Session{UserID: uid, Email: email, Role: role, Access: access, Refresh: refresh}, nil
}
