package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/listenupapp/shelfmark/internal/auth"
	"github.com/listenupapp/shelfmark/internal/domain"
	domainerrors "github.com/listenupapp/shelfmark/internal/errors"
)

func TestAuthService_Register(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	user, err := env.auth.Register(ctx, RegisterRequest{
		Email:           "  Reader@Example.COM ",
		Password:        "secret",
		ConfirmPassword: "secret",
		Name:            "Ann  Reader",
		DateOfBirth:     "1990-04-01",
		Gender:          "female",
	})
	require.NoError(t, err)

	assert.NotZero(t, user.ID)
	assert.Equal(t, "reader@example.com", user.Email)
	assert.Equal(t, "Ann Reader", user.Name)
	assert.Equal(t, domain.RoleMember, user.Role)
	assert.NotEqual(t, "secret", user.PasswordHash)
	assert.True(t, auth.VerifyPassword(user.PasswordHash, "secret"))
}

func TestAuthService_Register_DuplicateEmail(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.register(t, "dup@example.com")

	_, err := env.auth.Register(ctx, RegisterRequest{
		Email:           "DUP@example.com",
		Password:        "other",
		ConfirmPassword: "other",
	})
	assert.ErrorIs(t, err, domainerrors.ErrDuplicateEmail)

	count, err := env.store.CountUsers(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestAuthService_Register_DuplicateEmailWinsOverMismatch(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "dup@example.com")

	_, err := env.auth.Register(context.Background(), RegisterRequest{
		Email:           "dup@example.com",
		Password:        "secret",
		ConfirmPassword: "secrets",
	})
	assert.ErrorIs(t, err, domainerrors.ErrDuplicateEmail)
}

func TestAuthService_Register_PasswordMismatch(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.auth.Register(context.Background(), RegisterRequest{
		Email:           "a@example.com",
		Password:        "secret",
		ConfirmPassword: "secrets",
	})
	assert.ErrorIs(t, err, domainerrors.ErrPasswordMismatch)
}

func TestAuthService_Register_Validation(t *testing.T) {
	tests := []struct {
		name string
		req  RegisterRequest
	}{
		{"bad email", RegisterRequest{Email: "nope", Password: "secret", ConfirmPassword: "secret"}},
		{"short password", RegisterRequest{Email: "a@example.com", Password: "ab", ConfirmPassword: "ab"}},
		{"missing confirmation", RegisterRequest{Email: "a@example.com", Password: "secret"}},
		{"bad date", RegisterRequest{Email: "a@example.com", Password: "secret", ConfirmPassword: "secret", DateOfBirth: "01/02/1990"}},
		{"bad gender", RegisterRequest{Email: "a@example.com", Password: "secret", ConfirmPassword: "secret", Gender: "robot"}},
	}

	env := newTestEnv(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.auth.Register(context.Background(), tt.req)
			assert.ErrorIs(t, err, domainerrors.ErrValidation)
		})
	}
}

func TestAuthService_Login(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	registered := env.register(t, "login@example.com")

	resp, err := env.auth.Login(ctx, LoginRequest{
		Email:    "LOGIN@example.com",
		Password: "secret",
		Client:   ClientInfo{IPAddress: "127.0.0.1", UserAgent: "test"},
	})
	require.NoError(t, err)

	assert.Equal(t, registered.ID, resp.User.ID)
	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)
	assert.Equal(t, "Bearer", resp.TokenType)
	assert.Equal(t, 900, resp.ExpiresIn)

	user, claims, err := env.auth.VerifyAccessToken(ctx, resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, registered.ID, user.ID)
	assert.Equal(t, resp.SessionID, claims.SessionID)

	session, err := env.store.GetSession(ctx, resp.SessionID)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1", session.IPAddress)
	assert.Equal(t, "test", session.UserAgent)
}

func TestAuthService_Login_InvalidCredentials(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.register(t, "login@example.com")

	_, wrongPassword := env.auth.Login(ctx, LoginRequest{Email: "login@example.com", Password: "nope"})
	_, unknownUser := env.auth.Login(ctx, LoginRequest{Email: "ghost@example.com", Password: "secret"})

	require.ErrorIs(t, wrongPassword, domainerrors.ErrInvalidCredentials)
	require.ErrorIs(t, unknownUser, domainerrors.ErrInvalidCredentials)
	assert.Equal(t, wrongPassword.Error(), unknownUser.Error())
}

func TestAuthService_Logout(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.register(t, "out@example.com")

	resp, err := env.auth.Login(ctx, LoginRequest{Email: "out@example.com", Password: "secret"})
	require.NoError(t, err)

	require.NoError(t, env.auth.Logout(ctx, resp.SessionID))

	_, _, err = env.auth.VerifyAccessToken(ctx, resp.AccessToken)
	assert.ErrorIs(t, err, domainerrors.ErrUnauthorized)

	assert.ErrorIs(t, env.auth.Logout(ctx, ""), domainerrors.ErrUnauthorized)
}

func TestAuthService_Refresh_RotatesToken(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.register(t, "refresh@example.com")

	first, err := env.auth.Login(ctx, LoginRequest{Email: "refresh@example.com", Password: "secret"})
	require.NoError(t, err)

	second, err := env.auth.Refresh(ctx, first.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, first.SessionID, second.SessionID)
	assert.NotEqual(t, first.RefreshToken, second.RefreshToken)

	_, err = env.auth.Refresh(ctx, first.RefreshToken)
	assert.ErrorIs(t, err, domainerrors.ErrUnauthorized)

	_, _, err = env.auth.VerifyAccessToken(ctx, second.AccessToken)
	assert.NoError(t, err)
}

func TestAuthService_Refresh_Expired(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.register(t, "expired@example.com")

	resp, err := env.auth.Login(ctx, LoginRequest{Email: "expired@example.com", Password: "secret"})
	require.NoError(t, err)

	session, err := env.store.GetSession(ctx, resp.SessionID)
	require.NoError(t, err)
	session.ExpiresAt = time.Now().Add(-time.Minute)
	require.NoError(t, env.store.UpdateSession(ctx, session))

	_, err = env.auth.Refresh(ctx, resp.RefreshToken)
	assert.ErrorIs(t, err, domainerrors.ErrUnauthorized)

	_, _, err = env.auth.VerifyAccessToken(ctx, resp.AccessToken)
	assert.ErrorIs(t, err, domainerrors.ErrUnauthorized)
}

func TestAuthService_VerifyAccessToken_Garbage(t *testing.T) {
	env := newTestEnv(t)

	_, _, err := env.auth.VerifyAccessToken(context.Background(), "v4.local.garbage")
	assert.ErrorIs(t, err, domainerrors.ErrUnauthorized)
}

func TestAuthService_ChangePassword(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.register(t, "change@example.com")

	keep, err := env.auth.Login(ctx, LoginRequest{Email: "change@example.com", Password: "secret"})
	require.NoError(t, err)
	other, err := env.auth.Login(ctx, LoginRequest{Email: "change@example.com", Password: "secret"})
	require.NoError(t, err)

	err = env.auth.ChangePassword(ctx, user.ID, keep.SessionID, ChangePasswordRequest{
		OldPassword: "wrong", NewPassword: "better", ConfirmPassword: "better",
	})
	assert.ErrorIs(t, err, domainerrors.ErrOldPasswordIncorrect)

	err = env.auth.ChangePassword(ctx, user.ID, keep.SessionID, ChangePasswordRequest{
		OldPassword: "secret", NewPassword: "better", ConfirmPassword: "bettor",
	})
	assert.ErrorIs(t, err, domainerrors.ErrPasswordMismatch)

	require.NoError(t, env.auth.ChangePassword(ctx, user.ID, keep.SessionID, ChangePasswordRequest{
		OldPassword: "secret", NewPassword: "better", ConfirmPassword: "better",
	}))

	_, _, err = env.auth.VerifyAccessToken(ctx, keep.AccessToken)
	assert.NoError(t, err, "current session survives")
	_, _, err = env.auth.VerifyAccessToken(ctx, other.AccessToken)
	assert.ErrorIs(t, err, domainerrors.ErrUnauthorized, "other sessions are revoked")

	_, err = env.auth.Login(ctx, LoginRequest{Email: "change@example.com", Password: "secret"})
	assert.ErrorIs(t, err, domainerrors.ErrInvalidCredentials)
	_, err = env.auth.Login(ctx, LoginRequest{Email: "change@example.com", Password: "better"})
	assert.NoError(t, err)
}

func TestAuthService_EditProfile(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	user, err := env.auth.Register(ctx, RegisterRequest{
		Email:           "edit@example.com",
		Password:        "secret",
		ConfirmPassword: "secret",
		Name:            "Old Name",
		Phone:           "123",
		Gender:          "male",
	})
	require.NoError(t, err)

	_, err = env.auth.EditProfile(ctx, user.ID, EditProfileRequest{Password: "wrong", Name: "New"})
	assert.ErrorIs(t, err, domainerrors.ErrInvalidCredentials)

	updated, err := env.auth.EditProfile(ctx, user.ID, EditProfileRequest{
		Password:    "secret",
		Name:        "New Name",
		DateOfBirth: "1985-12-31",
	})
	require.NoError(t, err)
	assert.Equal(t, "New Name", updated.Name)
	assert.Equal(t, "123", updated.Phone, "empty field keeps its value")
	assert.Equal(t, domain.GenderMale, updated.Gender)

	profile, err := env.auth.GetProfile(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "New Name", profile.Name)
	assert.Equal(t, "1985-12-31", profile.DateOfBirth)
	assert.Equal(t, "edit@example.com", profile.Email)
}

func TestAuthService_GetProfile_NotFound(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.auth.GetProfile(context.Background(), 999)
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)
}

func TestSessionService_SweepsExpired(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.register(t, "sweep@example.com")

	resp, err := env.auth.Login(ctx, LoginRequest{Email: "sweep@example.com", Password: "secret"})
	require.NoError(t, err)
	session, err := env.store.GetSession(ctx, resp.SessionID)
	require.NoError(t, err)
	session.ExpiresAt = time.Now().Add(-time.Hour)
	require.NoError(t, env.store.UpdateSession(ctx, session))

	sweeper := NewSessionService(env.store, env.tokens, 10*time.Millisecond, nil)
	sweeper.Start(ctx)
	defer sweeper.Stop()

	_, err = env.store.GetSession(ctx, resp.SessionID)
	assert.Error(t, err, "initial sweep removes expired sessions")
}

func TestSessionService_StopWithoutStart(t *testing.T) {
	env := newTestEnv(t)

	done := make(chan struct{})
	go func() {
		env.sessions.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Stop blocked without Start")
	}
}
