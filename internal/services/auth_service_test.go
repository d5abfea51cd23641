package services

import (
	"context"
	"testing"
	"time"

	"github.com/hotelmunich/reservations-backend/internal/database"
	"github.com/hotelmunich/reservations-backend/internal/models"
	"github.com/hotelmunich/reservations-backend/pkg/jwt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const testUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 Chrome/120.0 Safari/537.36"

func newAuthFixture(t *testing.T) (*AuthService, *database.AuditRepository) {
	t.Helper()

	db := newTestStore(t)
	audit := database.NewAuditRepository(db)
	jwtService := jwt.NewService("test-access-secret", "test-refresh-secret", time.Hour, 24*time.Hour)

	svc := NewAuthService(database.NewUserRepository(db), audit, jwtService, bcrypt.MinCost, testLogger())
	return svc, audit
}

func TestAuthenticateSeededAdmin(t *testing.T) {
	svc, audit := newAuthFixture(t)
	ctx := context.Background()

	resp, err := svc.Authenticate(ctx, models.LoginRequest{Username: "admin", Password: "admin"}, "10.0.0.5", testUserAgent)
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)
	assert.Equal(t, int64(3600), resp.ExpiresIn)
	require.NotNil(t, resp.User)
	assert.Equal(t, "admin", resp.User.Username)
	assert.True(t, resp.User.IsAdmin())

	// Successful logins leave an audit trail with the parsed client
	entries, err := audit.RecentByAction("login", 5)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "10.0.0.5", entries[0].IPAddress)
	assert.Contains(t, entries[0].Detail, "browser=Chrome")
}

func TestAuthenticateRejectsBadCredentials(t *testing.T) {
	svc, audit := newAuthFixture(t)
	ctx := context.Background()

	_, err := svc.Authenticate(ctx, models.LoginRequest{Username: "admin", Password: "wrong"}, "10.0.0.5", testUserAgent)
	assert.ErrorIs(t, err, models.ErrInvalidCredentials)

	// Unknown users get the same answer as wrong passwords
	_, err = svc.Authenticate(ctx, models.LoginRequest{Username: "ghost", Password: "admin"}, "10.0.0.5", testUserAgent)
	assert.ErrorIs(t, err, models.ErrInvalidCredentials)

	entries, err := audit.RecentByAction("login_failed", 5)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestRefreshIssuesNewPair(t *testing.T) {
	svc, _ := newAuthFixture(t)
	ctx := context.Background()

	login, err := svc.Authenticate(ctx, models.LoginRequest{Username: "recepcion", Password: "recepcion"}, "10.0.0.5", testUserAgent)
	require.NoError(t, err)

	refreshed, err := svc.Refresh(ctx, login.RefreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, refreshed.AccessToken)
	assert.Equal(t, "recepcion", refreshed.User.Username)

	// An access token is not a refresh token
	_, err = svc.Refresh(ctx, login.AccessToken)
	assert.ErrorIs(t, err, models.ErrInvalidCredentials)
}

func TestChangePassword(t *testing.T) {
	svc, _ := newAuthFixture(t)
	ctx := context.Background()

	login, err := svc.Authenticate(ctx, models.LoginRequest{Username: "recepcion", Password: "recepcion"}, "10.0.0.5", testUserAgent)
	require.NoError(t, err)
	userID := login.User.ID

	// Wrong current password
	err = svc.ChangePassword(ctx, userID, models.ChangePasswordRequest{OldPassword: "nope", NewPassword: "front-desk-2025"})
	assert.ErrorIs(t, err, models.ErrInvalidCredentials)

	// Too short replacement
	err = svc.ChangePassword(ctx, userID, models.ChangePasswordRequest{OldPassword: "recepcion", NewPassword: "short"})
	var ve *models.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "new_password", ve.Field)

	// Success, old credential stops working
	err = svc.ChangePassword(ctx, userID, models.ChangePasswordRequest{OldPassword: "recepcion", NewPassword: "front-desk-2025"})
	require.NoError(t, err)

	_, err = svc.Authenticate(ctx, models.LoginRequest{Username: "recepcion", Password: "recepcion"}, "10.0.0.5", testUserAgent)
	assert.ErrorIs(t, err, models.ErrInvalidCredentials)

	_, err = svc.Authenticate(ctx, models.LoginRequest{Username: "recepcion", Password: "front-desk-2025"}, "10.0.0.5", testUserAgent)
	assert.NoError(t, err)
}
