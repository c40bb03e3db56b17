package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/airline-reservation/internal/middleware"
	"github.com/iliyamo/airline-reservation/internal/model"
	"github.com/iliyamo/airline-reservation/internal/utils"
)

const testSecret = "test-secret"

func newAuth(t *testing.T) *AuthService {
	t.Helper()
	store := newTestStore(t)
	return NewAuthService(store.Users, store.Tokens, AuthConfig{
		JWTSecret:      testSecret,
		AccessTTLMin:   15,
		RefreshTTLDays: 7,
		BcryptCost:     4,
	})
}

func TestRegisterAndLogin(t *testing.T) {
	auth := newAuth(t)
	ctx := context.Background()

	s, err := auth.Register(ctx, "  Sara@Example.com ", "correct horse")
	require.NoError(t, err)
	assert.Equal(t, "sara@example.com", s.Email)
	assert.Equal(t, model.RoleCustomer, s.Role)
	assert.NotEmpty(t, s.Refresh.Raw)

	sub, role, err := middleware.ParseAccessToken(testSecret, s.Access.Token)
	require.NoError(t, err)
	assert.Equal(t, s.UserID, sub)
	assert.Equal(t, string(model.RoleCustomer), role)

	_, err = auth.Register(ctx, "sara@example.com", "another password")
	assert.ErrorIs(t, err, ErrEmailExists)

	logged, err := auth.Login(ctx, "SARA@example.com", "correct horse")
	require.NoError(t, err)
	assert.Equal(t, s.UserID, logged.UserID)

	_, err = auth.Login(ctx, "sara@example.com", "wrong password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = auth.Login(ctx, "nobody@example.com", "correct horse")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	assert.Equal(t, KindUnauthorized, KindOf(err))
}

func TestRegisterValidation(t *testing.T) {
	auth := newAuth(t)
	ctx := context.Background()

	_, err := auth.Register(ctx, "not-an-email", "long enough")
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = auth.Register(ctx, "a@b.co", "short")
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = auth.Register(ctx, "a@b.co", strings.Repeat("p", 73))
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = auth.Login(ctx, "", "")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestRefreshRotatesToken(t *testing.T) {
	auth := newAuth(t)
	ctx := context.Background()

	s, err := auth.Register(ctx, "rotate@example.com", "password123")
	require.NoError(t, err)

	next, err := auth.Refresh(ctx, s.Refresh.Raw)
	require.NoError(t, err)
	assert.Equal(t, s.UserID, next.UserID)
	assert.NotEqual(t, s.Refresh.Raw, next.Refresh.Raw)

	_, err = auth.Refresh(ctx, s.Refresh.Raw)
	assert.ErrorIs(t, err, ErrInvalidCredentials, "a used refresh token is revoked")
	_, err = auth.Refresh(ctx, "garbage")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = auth.Refresh(ctx, " ")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestLogout(t *testing.T) {
	auth := newAuth(t)
	ctx := context.Background()

	s, err := auth.Register(ctx, "bye@example.com", "password123")
	require.NoError(t, err)
	other, err := auth.Login(ctx, "bye@example.com", "password123")
	require.NoError(t, err)

	require.NoError(t, auth.Logout(ctx, "", s.Refresh.Raw))
	_, err = auth.Refresh(ctx, s.Refresh.Raw)
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = auth.Refresh(ctx, other.Refresh.Raw)
	require.NoError(t, err, "only the given token is revoked")

	third, err := auth.Login(ctx, "bye@example.com", "password123")
	require.NoError(t, err)
	require.NoError(t, auth.Logout(ctx, s.UserID, ""))
	_, err = auth.Refresh(ctx, third.Refresh.Raw)
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	assert.ErrorIs(t, auth.Logout(ctx, "", ""), ErrInvalidInput)
}

func TestMe(t *testing.T) {
	auth := newAuth(t)
	ctx := context.Background()

	s, err := auth.Register(ctx, "me@example.com", "password123")
	require.NoError(t, err)

	u, err := auth.Me(ctx, s.UserID)
	require.NoError(t, err)
	assert.Equal(t, "me@example.com", u.Email)
	assert.True(t, u.IsActive)

	_, err = auth.Me(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLoginRehashesOnCostChange(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	cfg := AuthConfig{JWTSecret: testSecret, AccessTTLMin: 15, RefreshTTLDays: 7, BcryptCost: 4}

	s, err := NewAuthService(store.Users, store.Tokens, cfg).Register(ctx, "cost@example.com", "password123")
	require.NoError(t, err)

	cfg.BcryptCost = 5
	_, err = NewAuthService(store.Users, store.Tokens, cfg).Login(ctx, "cost@example.com", "password123")
	require.NoError(t, err)

	u, err := store.Users.GetByID(ctx, s.UserID)
	require.NoError(t, err)
	cost, err := bcrypt.Cost([]byte(u.PasswordHash))
	require.NoError(t, err)
	assert.Equal(t, 5, cost)
	assert.True(t, utils.VerifyPassword(u.PasswordHash, "password123"))
}
