package service_test

import (
	"testing"
	"time"

	"go-rackstock-ws/internal/model"
	"go-rackstock-ws/internal/service"
	"go-rackstock-ws/pkg/jwt"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAuth(t *testing.T) (*env, service.AuthService) {
	e := newEnv(t)
	return e, service.NewAuthService(e.userRepo, e.hub)
}

func TestLogin_IssuesTokenWithRole(t *testing.T) {
	e, auth := newAuth(t)
	e.seedUser(t, "ada@example.com", model.RoleAdmin)

	resp, err := auth.Login("ada@example.com", "secret1")
	require.NoError(t, err)
	require.NotEmpty(t, resp.Token)
	require.NotNil(t, resp.Role)
	assert.Equal(t, model.RoleAdmin, resp.Role.Code)

	claims, err := jwt.ValidateToken(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, model.RoleAdmin, claims.RoleCode)
	assert.Equal(t, "ada@example.com", claims.Email)
}

func TestLogin_RejectsBadCredentials(t *testing.T) {
	e, auth := newAuth(t)
	user := e.seedUser(t, "ada@example.com", model.RoleAdmin)

	_, err := auth.Login("ada@example.com", "wrong")
	assert.ErrorIs(t, err, service.ErrInvalidCredentials)

	_, err = auth.Login("nobody@example.com", "secret1")
	assert.ErrorIs(t, err, service.ErrInvalidCredentials)

	user.IsActive = false
	require.NoError(t, e.userRepo.Update(user))
	_, err = auth.Login("ada@example.com", "secret1")
	assert.ErrorIs(t, err, service.ErrUserInactive)
}

func TestLogin_SecondLoginInvalidatesFirstSession(t *testing.T) {
	// GIVEN: A valid session
	// WHEN: The same account logs in again elsewhere
	// THEN: The first token no longer validates (single session)

	e, auth := newAuth(t)
	e.seedUser(t, "ada@example.com", model.RoleAdmin)

	first, err := auth.Login("ada@example.com", "secret1")
	require.NoError(t, err)
	_, err = auth.ValidateToken(first.Token)
	require.NoError(t, err)

	second, err := auth.Login("ada@example.com", "secret1")
	require.NoError(t, err)

	_, err = auth.ValidateToken(first.Token)
	assert.ErrorIs(t, err, service.ErrSessionReplaced)
	_, err = auth.ValidateToken(second.Token)
	assert.NoError(t, err)
}

func TestValidateToken_InactivityTimeout(t *testing.T) {
	e, auth := newAuth(t)
	user := e.seedUser(t, "ada@example.com", model.RoleAdmin)

	resp, err := auth.Login("ada@example.com", "secret1")
	require.NoError(t, err)

	// Push the last-seen timestamp past the 5 minute window
	stale := time.Now().Add(-10 * time.Minute)
	user, err = e.userRepo.FindByID(user.ID)
	require.NoError(t, err)
	user.LastSeenAt = &stale
	require.NoError(t, e.userRepo.Update(user))

	_, err = auth.ValidateToken(resp.Token)
	assert.ErrorIs(t, err, service.ErrSessionTimeout)

	// A heartbeat revives the session
	require.NoError(t, auth.Heartbeat(user.ID))
	_, err = auth.ValidateToken(resp.Token)
	assert.NoError(t, err)
}

func TestLogout_KillsCurrentToken(t *testing.T) {
	e, auth := newAuth(t)
	user := e.seedUser(t, "ada@example.com", model.RoleAdmin)

	resp, err := auth.Login("ada@example.com", "secret1")
	require.NoError(t, err)
	_, err = auth.ValidateToken(resp.Token)
	require.NoError(t, err)

	require.NoError(t, auth.Logout(user.ID))

	_, err = auth.ValidateToken(resp.Token)
	assert.ErrorIs(t, err, service.ErrSessionReplaced)
}

func TestResetPassword(t *testing.T) {
	e, auth := newAuth(t)
	e.seedUser(t, "ada@example.com", model.RoleAdmin)

	require.NoError(t, auth.ResetPassword("ada@example.com", "secret1", "secret2"))

	_, err := auth.Login("ada@example.com", "secret1")
	assert.ErrorIs(t, err, service.ErrInvalidCredentials)
	_, err = auth.Login("ada@example.com", "secret2")
	assert.NoError(t, err)

	err = auth.ResetPassword("ada@example.com", "not-the-password", "secret3")
	assert.ErrorIs(t, err, service.ErrWrongPassword)
}
