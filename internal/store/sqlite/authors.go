package sqlite

import (
	"context"

	"github.com/listenupapp/shelfmark/internal/domain"
	"github.com/listenupapp/shelfmark/internal/store"
)

// namedRow is the shape shared by the authors and genres tables.
type namedRow struct {
	ID        int64  `db:"id"`
	Name      string `db:"name"`
	CreatedAt string `db:"created_at"`
}

func (r namedRow) toAuthor() domain.Author {
	return domain.Author{ID: r.ID, Name: r.Name, CreatedAt: parseTime(r.CreatedAt)}
}

func (r namedRow) toGenre() domain.Genre {
	return domain.Genre{ID: r.ID, Name: r.Name, CreatedAt: parseTime(r.CreatedAt)}
}

// CreateAuthor inserts an author and sets its ID.
// Returns store.ErrAlreadyExists if the name is taken.
func (s *Store) CreateAuthor(ctx context.Context, author *domain.Author) error {
	if author.CreatedAt.IsZero() {
		author.CreatedAt = parseTime(now())
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO authors (name, created_at) VALUES (?, ?)`, author.Name, formatTime(author.CreatedAt))
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrAlreadyExists.WithMessage("author already exists")
		}
		return err
	}
	author.ID, err = res.LastInsertId()
	return err
}

// GetAuthor retrieves an author by ID.
func (s *Store) GetAuthor(ctx context.Context, id int64) (*domain.Author, error) {
	var row namedRow
	if err := s.db.GetContext(ctx, &row, `SELECT id, name, created_at FROM authors WHERE id = ?`, id); err != nil {
		return nil, notFound(err)
	}
	a := row.toAuthor()
	return &a, nil
}

// GetAuthorByName retrieves an author by exact name.
func (s *Store) GetAuthorByName(ctx context.Context, name string) (*domain.Author, error) {
	var row namedRow
	if err := s.db.GetContext(ctx, &row, `SELECT id, name, created_at FROM authors WHERE name = ?`, name); err != nil {
		return nil, notFound(err)
	}
	a := row.toAuthor()
	return &a, nil
}

// ListAuthors returns all authors ordered by name.
func (s *Store) ListAuthors(ctx context.Context) ([]domain.Author, error) {
	var rows []namedRow
	if err := s.db.SelectContext(ctx, &rows, `SELECT id, name, created_at FROM authors ORDER BY name, id`); err != nil {
		return nil, err
	}
	authors := make([]domain.Author, len(rows))
	for i, r := range rows {
		authors[i] = r.toAuthor()
	}
	return authors, nil
}
