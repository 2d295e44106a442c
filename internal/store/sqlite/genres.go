package sqlite

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/listenupapp/shelfmark/internal/domain"
	"github.com/listenupapp/shelfmark/internal/store"
)

// CreateGenre inserts a genre and sets its ID.
// Returns store.ErrAlreadyExists if the name is taken.
func (s *Store) CreateGenre(ctx context.Context, genre *domain.Genre) error {
	if genre.CreatedAt.IsZero() {
		genre.CreatedAt = parseTime(now())
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO genres (name, created_at) VALUES (?, ?)`, genre.Name, formatTime(genre.CreatedAt))
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrAlreadyExists.WithMessage("genre already exists")
		}
		return err
	}
	genre.ID, err = res.LastInsertId()
	return err
}

// GetGenresByIDs returns the genres with the given IDs ordered by name.
// Unknown IDs are silently absent from the result.
func (s *Store) GetGenresByIDs(ctx context.Context, ids []int64) ([]domain.Genre, error) {
	if len(ids) == 0 {
		return []domain.Genre{}, nil
	}
	query, args, err := sqlx.In(`SELECT id, name, created_at FROM genres WHERE id IN (?) ORDER BY name, id`, ids)
	if err != nil {
		return nil, err
	}
	var rows []namedRow
	if err := s.db.SelectContext(ctx, &rows, s.db.Rebind(query), args...); err != nil {
		return nil, err
	}
	return toGenres(rows), nil
}

// GetGenreByName retrieves a genre by exact name.
func (s *Store) GetGenreByName(ctx context.Context, name string) (*domain.Genre, error) {
	var row namedRow
	if err := s.db.GetContext(ctx, &row, `SELECT id, name, created_at FROM genres WHERE name = ?`, name); err != nil {
		return nil, notFound(err)
	}
	g := row.toGenre()
	return &g, nil
}

// ListGenres returns all genres ordered by name.
func (s *Store) ListGenres(ctx context.Context) ([]domain.Genre, error) {
	var rows []namedRow
	if err := s.db.SelectContext(ctx, &rows, `SELECT id, name, created_at FROM genres ORDER BY name, id`); err != nil {
		return nil, err
	}
	return toGenres(rows), nil
}

// GetBookGenres returns a book's genres ordered by name.
func (s *Store) GetBookGenres(ctx context.Context, bookID int64) ([]domain.Genre, error) {
	var rows []namedRow
	err := s.db.SelectContext(ctx, &rows, `
		SELECT g.id, g.name, g.created_at
		FROM book_genres bg JOIN genres g ON g.id = bg.genre_id
		WHERE bg.book_id = ?
		ORDER BY g.name, g.id`, bookID)
	if err != nil {
		return nil, err
	}
	return toGenres(rows), nil
}

func toGenres(rows []namedRow) []domain.Genre {
	genres := make([]domain.Genre, len(rows))
	for i, r := range rows {
		genres[i] = r.toGenre()
	}
	return genres
}
