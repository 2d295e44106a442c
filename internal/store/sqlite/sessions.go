package sqlite

import (
	"context"
	"time"

	"github.com/listenupapp/shelfmark/internal/domain"
	"github.com/listenupapp/shelfmark/internal/store"
)

const sessionColumns = `id, user_id, refresh_token_hash, expires_at, created_at, last_seen_at, ip_address, user_agent`

type sessionRow struct {
	ID               string `db:"id"`
	UserID           int64  `db:"user_id"`
	RefreshTokenHash string `db:"refresh_token_hash"`
	ExpiresAt        string `db:"expires_at"`
	CreatedAt        string `db:"created_at"`
	LastSeenAt       string `db:"last_seen_at"`
	IPAddress        string `db:"ip_address"`
	UserAgent        string `db:"user_agent"`
}

func (r *sessionRow) toDomain() *domain.Session {
	return &domain.Session{
		ID:               r.ID,
		UserID:           r.UserID,
		RefreshTokenHash: r.RefreshTokenHash,
		ExpiresAt:        parseTime(r.ExpiresAt),
		CreatedAt:        parseTime(r.CreatedAt),
		LastSeenAt:       parseTime(r.LastSeenAt),
		IPAddress:        r.IPAddress,
		UserAgent:        r.UserAgent,
	}
}

// CreateSession inserts a new session.
func (s *Store) CreateSession(ctx context.Context, session *domain.Session) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sessions (`+sessionColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		session.ID,
		session.UserID,
		session.RefreshTokenHash,
		formatTime(session.ExpiresAt),
		formatTime(session.CreatedAt),
		formatTime(session.LastSeenAt),
		session.IPAddress,
		session.UserAgent,
	)
	if isUniqueViolation(err) {
		return store.ErrAlreadyExists
	}
	return err
}

// GetSession retrieves a session by ID.
func (s *Store) GetSession(ctx context.Context, id string) (*domain.Session, error) {
	var row sessionRow
	if err := s.db.GetContext(ctx, &row, `SELECT `+sessionColumns+` FROM sessions WHERE id = ?`, id); err != nil {
		return nil, notFound(err)
	}
	return row.toDomain(), nil
}

// GetSessionByRefreshToken retrieves a session by the hash of its refresh token.
func (s *Store) GetSessionByRefreshToken(ctx context.Context, tokenHash string) (*domain.Session, error) {
	var row sessionRow
	err := s.db.GetContext(ctx, &row,
		`SELECT `+sessionColumns+` FROM sessions WHERE refresh_token_hash = ?`, tokenHash)
	if err != nil {
		return nil, notFound(err)
	}
	return row.toDomain(), nil
}

// UpdateSession stores a rotated refresh token, expiry and last-seen time.
func (s *Store) UpdateSession(ctx context.Context, session *domain.Session) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE sessions SET refresh_token_hash = ?, expires_at = ?, last_seen_at = ?
		WHERE id = ?`,
		session.RefreshTokenHash,
		formatTime(session.ExpiresAt),
		formatTime(session.LastSeenAt),
		session.ID,
	)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

// DeleteSession removes a session. Deleting a missing session is not an error.
func (s *Store) DeleteSession(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id)
	return err
}

// DeleteUserSessionsExcept removes all of a user's sessions except keepID.
func (s *Store) DeleteUserSessionsExcept(ctx context.Context, userID int64, keepID string) (int, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE user_id = ? AND id != ?`, userID, keepID)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}

// DeleteExpiredSessions removes every session whose expiry has passed.
// Stored timestamps sort lexically, so the comparison runs in SQL.
func (s *Store) DeleteExpiredSessions(ctx context.Context) (int, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at < ?`, formatTime(time.Now()))
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}
