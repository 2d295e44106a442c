package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/listenupapp/shelfmark/internal/auth"
	"github.com/listenupapp/shelfmark/internal/domain"
	domainerrors "github.com/listenupapp/shelfmark/internal/errors"
	"github.com/listenupapp/shelfmark/internal/metrics"
	"github.com/listenupapp/shelfmark/internal/normalize"
	"github.com/listenupapp/shelfmark/internal/store"
	"github.com/listenupapp/shelfmark/internal/validation"
)

const invalidCredentialsMessage = "invalid email or password"

// AuthService handles accounts: registration, login, token verification and profile edits.
// Session management is delegated to SessionService.
type AuthService struct {
	store          store.Store
	tokenService   *auth.TokenService
	sessionService *SessionService
	validator      *validation.Validator
	logger         *slog.Logger
}

// NewAuthService creates a new authentication service.
func NewAuthService(
	store store.Store,
	tokenService *auth.TokenService,
	sessionService *SessionService,
	logger *slog.Logger,
) *AuthService {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &AuthService{
		store:          store,
		tokenService:   tokenService,
		sessionService: sessionService,
		validator:      validation.New(),
		logger:         logger,
	}
}

// RegisterRequest contains the data of a new account.
type RegisterRequest struct {
	Email           string `json:"email" validate:"required,email,max=254"`
	Password        string `json:"password" validate:"required,min=3,max=1024"`
	ConfirmPassword string `json:"confirm_password" validate:"required"`
	Name            string `json:"name" validate:"max=100"`
	Phone           string `json:"phone" validate:"max=32"`
	DateOfBirth     string `json:"date_of_birth" validate:"omitempty,datetime=2006-01-02"`
	Gender          string `json:"gender" validate:"omitempty,oneof=male female other"`
}

// LoginRequest contains user credentials.
type LoginRequest struct {
	Email    string     `json:"email" validate:"required"`
	Password string     `json:"password" validate:"required"`
	Client   ClientInfo `json:"-"`
}

// ChangePasswordRequest replaces the caller's password.
type ChangePasswordRequest struct {
	OldPassword     string `json:"old_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=3,max=1024"`
	ConfirmPassword string `json:"confirm_password" validate:"required"`
}

// EditProfileRequest updates profile fields. Empty fields keep their stored value.
type EditProfileRequest struct {
	Password    string `json:"password" validate:"required"`
	Name        string `json:"name" validate:"max=100"`
	Phone       string `json:"phone" validate:"max=32"`
	DateOfBirth string `json:"date_of_birth" validate:"omitempty,datetime=2006-01-02"`
	Gender      string `json:"gender" validate:"omitempty,oneof=male female other"`
}

// AuthResponse contains authentication tokens and user data.
type AuthResponse struct {
	User *domain.User `json:"user"`
	SessionResponse
}

// Register creates a member account. There is no email verification.
func (s *AuthService) Register(ctx context.Context, req RegisterRequest) (*domain.User, error) {
	user, err := s.register(ctx, req)
	metrics.RecordAuth("register", err)
	return user, err
}

func (s *AuthService) register(ctx context.Context, req RegisterRequest) (*domain.User, error) {
	req.Email = domain.NormalizeEmail(req.Email)
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}
	if _, err := s.store.GetUserByEmail(ctx, req.Email); err == nil {
		return nil, domainerrors.ErrDuplicateEmail
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("check existing user: %w", err)
	}
	if req.Password != req.ConfirmPassword {
		return nil, domainerrors.ErrPasswordMismatch
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &domain.User{
		Email:        req.Email,
		PasswordHash: hash,
		Name:         normalize.Name(req.Name),
		Phone:        normalize.Name(req.Phone),
		DateOfBirth:  req.DateOfBirth,
		Gender:       domain.Gender(req.Gender),
		Role:         domain.RoleMember,
	}
	user.InitTimestamps()

	if err := s.store.CreateUser(ctx, user); err != nil {
		// A concurrent registration can win between the check and the insert.
		if errors.Is(err, store.ErrAlreadyExists) {
			return nil, domainerrors.ErrDuplicateEmail.WithCause(err)
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.logger.Info("User registered", "user_id", user.ID)
	return user, nil
}

// Login authenticates a user and creates a new session.
func (s *AuthService) Login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	resp, err := s.login(ctx, req)
	metrics.RecordAuth("login", err)
	return resp, err
}

func (s *AuthService) login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	user, err := s.store.GetUserByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// Same answer as a wrong password so emails cannot be probed.
			return nil, domainerrors.InvalidCredentials(invalidCredentialsMessage)
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	if !auth.VerifyPassword(user.PasswordHash, req.Password) {
		return nil, domainerrors.InvalidCredentials(invalidCredentialsMessage)
	}

	sessionResp, err := s.sessionService.CreateSession(ctx, user, req.Client)
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	s.logger.Info("User logged in", "user_id", user.ID, "session_id", sessionResp.SessionID)

	return &AuthResponse{User: user, SessionResponse: *sessionResp}, nil
}

// Refresh rotates a refresh token and issues a new access token.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*AuthResponse, error) {
	if err := s.validator.Var("refresh_token", refreshToken, "required"); err != nil {
		return nil, err
	}
	sessionResp, user, err := s.sessionService.RefreshSession(ctx, refreshToken)
	metrics.RecordAuth("refresh", err)
	if err != nil {
		return nil, err
	}
	return &AuthResponse{User: user, SessionResponse: *sessionResp}, nil
}

// Logout revokes a session, invalidating its access and refresh tokens.
func (s *AuthService) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return domainerrors.Unauthorized("not logged in")
	}
	return s.sessionService.DeleteSession(ctx, sessionID)
}

// VerifyAccessToken validates a token and returns the associated user.
// The token's session must still exist and be unexpired. Used by the auth middleware.
func (s *AuthService) VerifyAccessToken(ctx context.Context, tokenString string) (*domain.User, *auth.AccessClaims, error) {
	claims, err := s.tokenService.VerifyAccessToken(tokenString)
	if err != nil {
		return nil, nil, domainerrors.Unauthorized("invalid or expired token").WithCause(err)
	}

	session, err := s.sessionService.ValidateSession(ctx, claims.SessionID)
	if err != nil {
		return nil, nil, err
	}
	if session.UserID != claims.UserID {
		return nil, nil, domainerrors.Unauthorized("invalid or expired token")
	}

	user, err := s.store.GetUser(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil, domainerrors.Unauthorized("user not found")
		}
		return nil, nil, fmt.Errorf("get user: %w", err)
	}

	return user, claims, nil
}

// GetProfile returns the user's profile.
func (s *AuthService) GetProfile(ctx context.Context, userID int64) (*domain.User, error) {
	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotFound("user not found")
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}

// ChangePassword replaces the user's password and ends their other sessions.
func (s *AuthService) ChangePassword(ctx context.Context, userID int64, sessionID string, req ChangePasswordRequest) error {
	if err := s.validator.Validate(req); err != nil {
		return err
	}

	user, err := s.GetProfile(ctx, userID)
	if err != nil {
		return err
	}
	if !auth.VerifyPassword(user.PasswordHash, req.OldPassword) {
		return domainerrors.ErrOldPasswordIncorrect
	}
	if req.NewPassword != req.ConfirmPassword {
		return domainerrors.ErrPasswordMismatch
	}

	hash, err := auth.HashPassword(req.NewPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	user.PasswordHash = hash
	if err := s.store.UpdateUser(ctx, user); err != nil {
		return fmt.Errorf("update user: %w", err)
	}

	revoked, err := s.sessionService.RevokeOtherSessions(ctx, userID, sessionID)
	if err != nil {
		s.logger.Warn("Failed to revoke sessions after password change", "user_id", userID, "error", err)
	}
	s.logger.Info("Password changed", "user_id", userID, "revoked_sessions", revoked)
	return nil
}

// EditProfile overwrites every non-empty field of req after checking the current password.
func (s *AuthService) EditProfile(ctx context.Context, userID int64, req EditProfileRequest) (*domain.User, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	user, err := s.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !auth.VerifyPassword(user.PasswordHash, req.Password) {
		return nil, domainerrors.InvalidCredentials("password is incorrect")
	}

	if name := normalize.Name(req.Name); name != "" {
		user.Name = name
	}
	if phone := normalize.Name(req.Phone); phone != "" {
		user.Phone = phone
	}
	if req.DateOfBirth != "" {
		user.DateOfBirth = req.DateOfBirth
	}
	if req.Gender != "" {
		user.Gender = domain.Gender(req.Gender)
	}

	if err := s.store.UpdateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}
	return user, nil
}
