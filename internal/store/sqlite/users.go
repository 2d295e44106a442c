package sqlite

import (
	"context"
	"time"

	"github.com/listenupapp/shelfmark/internal/domain"
	"github.com/listenupapp/shelfmark/internal/store"
)

const userColumns = `id, email, password_hash, name, phone, date_of_birth, gender, role, created_at, updated_at`

type userRow struct {
	ID           int64  `db:"id"`
	Email        string `db:"email"`
	PasswordHash string `db:"password_hash"`
	Name         string `db:"name"`
	Phone        string `db:"phone"`
	DateOfBirth  string `db:"date_of_birth"`
	Gender       string `db:"gender"`
	Role         string `db:"role"`
	CreatedAt    string `db:"created_at"`
	UpdatedAt    string `db:"updated_at"`
}

func (r *userRow) toDomain() *domain.User {
	return &domain.User{
		Timestamps: domain.Timestamps{
			CreatedAt: parseTime(r.CreatedAt),
			UpdatedAt: parseTime(r.UpdatedAt),
		},
		ID:           r.ID,
		Email:        r.Email,
		PasswordHash: r.PasswordHash,
		Name:         r.Name,
		Phone:        r.Phone,
		DateOfBirth:  r.DateOfBirth,
		Gender:       domain.Gender(r.Gender),
		Role:         domain.Role(r.Role),
	}
}

// CreateUser inserts a user and sets its ID. The email is stored lower-cased.
// Returns store.ErrAlreadyExists if the email is taken.
func (s *Store) CreateUser(ctx context.Context, user *domain.User) error {
	if user.Role == "" {
		user.Role = domain.RoleMember
	}
	if user.CreatedAt.IsZero() {
		user.InitTimestamps()
	}
	user.Email = domain.NormalizeEmail(user.Email)

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO users (email, password_hash, name, phone, date_of_birth, gender, role, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		user.Email,
		user.PasswordHash,
		user.Name,
		user.Phone,
		user.DateOfBirth,
		string(user.Gender),
		string(user.Role),
		formatTime(user.CreatedAt),
		formatTime(user.UpdatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrAlreadyExists.WithMessage("email already registered")
		}
		return err
	}

	user.ID, err = res.LastInsertId()
	return err
}

// GetUser retrieves a user by ID.
func (s *Store) GetUser(ctx context.Context, id int64) (*domain.User, error) {
	var row userRow
	if err := s.db.GetContext(ctx, &row, `SELECT `+userColumns+` FROM users WHERE id = ?`, id); err != nil {
		return nil, notFound(err)
	}
	return row.toDomain(), nil
}

// GetUserByEmail retrieves a user by email, ignoring case and surrounding space.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	var row userRow
	err := s.db.GetContext(ctx, &row,
		`SELECT `+userColumns+` FROM users WHERE email = ?`, domain.NormalizeEmail(email))
	if err != nil {
		return nil, notFound(err)
	}
	return row.toDomain(), nil
}

// UpdateUser overwrites the mutable profile fields and password hash.
// Email and role are not changed here.
func (s *Store) UpdateUser(ctx context.Context, user *domain.User) error {
	user.UpdatedAt = time.Now().UTC()
	res, err := s.db.ExecContext(ctx, `
		UPDATE users
		SET password_hash = ?, name = ?, phone = ?, date_of_birth = ?, gender = ?, updated_at = ?
		WHERE id = ?`,
		user.PasswordHash,
		user.Name,
		user.Phone,
		user.DateOfBirth,
		string(user.Gender),
		formatTime(user.UpdatedAt),
		user.ID,
	)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

// SetUserRole changes the role of the user with the given email.
func (s *Store) SetUserRole(ctx context.Context, email string, role domain.Role) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE users SET role = ?, updated_at = ? WHERE email = ?`,
		string(role), now(), domain.NormalizeEmail(email))
	if err != nil {
		return err
	}
	return requireAffected(res)
}

// ListUserIDs returns every user ID in ascending order.
func (s *Store) ListUserIDs(ctx context.Context) ([]int64, error) {
	ids := []int64{}
	if err := s.db.SelectContext(ctx, &ids, `SELECT id FROM users ORDER BY id`); err != nil {
		return nil, err
	}
	return ids, nil
}

// CountUsers returns the number of registered users.
func (s *Store) CountUsers(ctx context.Context) (int, error) {
	return s.count(ctx, `SELECT COUNT(*) FROM users`)
}
