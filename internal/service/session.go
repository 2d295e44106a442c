package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/listenupapp/shelfmark/internal/auth"
	"github.com/listenupapp/shelfmark/internal/domain"
	domainerrors "github.com/listenupapp/shelfmark/internal/errors"
	"github.com/listenupapp/shelfmark/internal/id"
	"github.com/listenupapp/shelfmark/internal/metrics"
	"github.com/listenupapp/shelfmark/internal/store"
)

// ClientInfo describes the client a session was opened from.
type ClientInfo struct {
	IPAddress string
	UserAgent string
}

// SessionService handles user session management and lifecycle.
// Sessions bind access tokens to a revocable server-side row and hold the refresh token hash.
type SessionService struct {
	store        store.Store
	tokenService *auth.TokenService
	logger       *slog.Logger

	sweepInterval time.Duration
	started       atomic.Bool
	stopOnce      sync.Once
	stop          chan struct{}
	done          chan struct{}
}

// NewSessionService creates a new session management service.
// A non-positive sweepInterval disables the background sweeper.
func NewSessionService(
	store store.Store,
	tokenService *auth.TokenService,
	sweepInterval time.Duration,
	logger *slog.Logger,
) *SessionService {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &SessionService{
		store:         store,
		tokenService:  tokenService,
		logger:        logger,
		sweepInterval: sweepInterval,
		stop:          make(chan struct{}),
		done:          make(chan struct{}),
	}
}

// SessionResponse contains session tokens and metadata.
type SessionResponse struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	TokenType    string    `json:"token_type"`
	ExpiresIn    int       `json:"expires_in"` // seconds until the access token expires
	ExpiresAt    time.Time `json:"expires_at"`
	SessionID    string    `json:"session_id"`
}

// CreateSession stores a new session for user and issues its tokens.
func (s *SessionService) CreateSession(ctx context.Context, user *domain.User, client ClientInfo) (*SessionResponse, error) {
	sessionID, err := id.Generate(id.PrefixSession)
	if err != nil {
		return nil, fmt.Errorf("generate session ID: %w", err)
	}

	refreshToken, err := s.tokenService.GenerateRefreshToken()
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	session := &domain.Session{
		ID:               sessionID,
		UserID:           user.ID,
		RefreshTokenHash: auth.HashRefreshToken(refreshToken),
		ExpiresAt:        now.Add(s.tokenService.RefreshTokenDuration()),
		CreatedAt:        now,
		LastSeenAt:       now,
		IPAddress:        client.IPAddress,
		UserAgent:        client.UserAgent,
	}
	if err := s.store.CreateSession(ctx, session); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}

	return s.issue(user, session.ID, refreshToken)
}

// RefreshSession rotates the refresh token of the session it belongs to and issues
// a new access token. The old refresh token stops working.
func (s *SessionService) RefreshSession(ctx context.Context, refreshToken string) (*SessionResponse, *domain.User, error) {
	session, err := s.store.GetSessionByRefreshToken(ctx, auth.HashRefreshToken(refreshToken))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil, domainerrors.Unauthorized("invalid or expired refresh token")
		}
		return nil, nil, fmt.Errorf("lookup session: %w", err)
	}
	if session.IsExpired() {
		_ = s.store.DeleteSession(ctx, session.ID)
		return nil, nil, domainerrors.Unauthorized("invalid or expired refresh token")
	}

	user, err := s.store.GetUser(ctx, session.UserID)
	if err != nil {
		return nil, nil, fmt.Errorf("get user: %w", err)
	}

	newRefreshToken, err := s.tokenService.GenerateRefreshToken()
	if err != nil {
		return nil, nil, err
	}

	session.RefreshTokenHash = auth.HashRefreshToken(newRefreshToken)
	session.ExpiresAt = time.Now().UTC().Add(s.tokenService.RefreshTokenDuration())
	session.Touch()
	if err := s.store.UpdateSession(ctx, session); err != nil {
		return nil, nil, fmt.Errorf("update session: %w", err)
	}

	resp, err := s.issue(user, session.ID, newRefreshToken)
	if err != nil {
		return nil, nil, err
	}
	return resp, user, nil
}

func (s *SessionService) issue(user *domain.User, sessionID, refreshToken string) (*SessionResponse, error) {
	accessToken, expiresAt, err := s.tokenService.GenerateAccessToken(user, sessionID)
	if err != nil {
		return nil, fmt.Errorf("generate access token: %w", err)
	}
	return &SessionResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    int(s.tokenService.AccessTokenDuration().Seconds()),
		ExpiresAt:    expiresAt,
		SessionID:    sessionID,
	}, nil
}

// ValidateSession returns the session if it exists and has not expired.
func (s *SessionService) ValidateSession(ctx context.Context, sessionID string) (*domain.Session, error) {
	session, err := s.store.GetSession(ctx, sessionID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.Unauthorized("session has ended")
		}
		return nil, fmt.Errorf("get session: %w", err)
	}
	if session.IsExpired() {
		return nil, domainerrors.Unauthorized("session has expired")
	}
	return session, nil
}

// DeleteSession ends a session (logout).
func (s *SessionService) DeleteSession(ctx context.Context, sessionID string) error {
	if err := s.store.DeleteSession(ctx, sessionID); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	s.logger.Info("Session deleted", "session_id", sessionID)
	return nil
}

// RevokeOtherSessions ends every session of the user except keepID.
func (s *SessionService) RevokeOtherSessions(ctx context.Context, userID int64, keepID string) (int, error) {
	n, err := s.store.DeleteUserSessionsExcept(ctx, userID, keepID)
	if err != nil {
		return 0, fmt.Errorf("revoke sessions: %w", err)
	}
	return n, nil
}

// DeleteExpiredSessions removes all expired sessions.
func (s *SessionService) DeleteExpiredSessions(ctx context.Context) (int, error) {
	count, err := s.store.DeleteExpiredSessions(ctx)
	if err != nil {
		return 0, fmt.Errorf("delete expired sessions: %w", err)
	}
	if count > 0 {
		metrics.SessionsSwept.Add(float64(count))
		s.logger.Info("Deleted expired sessions", "count", count)
	}
	return count, nil
}

// Start sweeps expired sessions once and then on every tick of the sweep interval
// until Stop is called.
func (s *SessionService) Start(ctx context.Context) {
	if !s.started.CompareAndSwap(false, true) {
		return
	}
	if _, err := s.DeleteExpiredSessions(ctx); err != nil {
		s.logger.Warn("Initial session sweep failed", "error", err)
	}
	if s.sweepInterval <= 0 {
		close(s.done)
		return
	}

	go func() {
		defer close(s.done)
		ticker := time.NewTicker(s.sweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if _, err := s.DeleteExpiredSessions(context.Background()); err != nil {
					s.logger.Warn("Session sweep failed", "error", err)
				}
			case <-s.stop:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Stop ends the sweeper and waits for it to exit. Safe to call more than once,
// and a no-op if Start was never called.
func (s *SessionService) Stop() {
	if !s.started.Load() {
		return
	}
	s.stopOnce.Do(func() {
		close(s.stop)
	})
	select {
	case <-s.done:
	case <-time.After(5 * time.Second):
		s.logger.Warn("Session sweeper did not stop in time")
	}
}
