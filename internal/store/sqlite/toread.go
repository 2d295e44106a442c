package sqlite

import (
	"context"
	"database/sql"

	"github.com/listenupapp/shelfmark/internal/domain"
	"github.com/listenupapp/shelfmark/internal/store"
)

// AddToRead puts a book on the user's to-read list.
// Returns store.ErrAlreadyExists if it is already there and store.ErrNotFound if the book does not exist.
func (s *Store) AddToRead(ctx context.Context, userID, bookID int64) (*domain.ToRead, error) {
	ts := now()
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO to_read (user_id, book_id, created_at) VALUES (?, ?, ?)`, userID, bookID, ts)
	if err != nil {
		switch {
		case isUniqueViolation(err):
			return nil, store.ErrAlreadyExists.WithMessage("book already in to-read list")
		case isForeignKeyViolation(err):
			return nil, store.ErrNotFound.WithMessage("book not found")
		}
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return &domain.ToRead{ID: id, UserID: userID, BookID: bookID, CreatedAt: parseTime(ts)}, nil
}

// RemoveToRead takes a book off the user's to-read list.
// Returns store.ErrNotFound if it was not there.
func (s *Store) RemoveToRead(ctx context.Context, userID, bookID int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM to_read WHERE user_id = ? AND book_id = ?`, userID, bookID)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

// IsOnToRead reports whether the book is on the user's to-read list.
func (s *Store) IsOnToRead(ctx context.Context, userID, bookID int64) (bool, error) {
	var exists bool
	err := s.db.GetContext(ctx, &exists,
		`SELECT EXISTS(SELECT 1 FROM to_read WHERE user_id = ? AND book_id = ?)`, userID, bookID)
	return exists, err
}

// CountBookToRead returns how many users have the book on their to-read list.
func (s *Store) CountBookToRead(ctx context.Context, bookID int64) (int, error) {
	return s.count(ctx, `SELECT COUNT(*) FROM to_read WHERE book_id = ?`, bookID)
}

type toReadEntryRow struct {
	BookID     int64         `db:"book_id"`
	Title      string        `db:"title"`
	AuthorName string        `db:"author_name"`
	MyRating   sql.NullInt64 `db:"my_rating"`
	AddedAt    string        `db:"added_at"`
}

// ListUserToRead returns one page of the user's to-read list with their own rating of each book.
func (s *Store) ListUserToRead(ctx context.Context, userID int64, sort domain.SortOrder, page store.Page) (*store.PageResult[domain.ToReadEntry], error) {
	page = page.Normalize(store.DefaultPageSize)

	total, err := s.count(ctx, `SELECT COUNT(*) FROM to_read WHERE user_id = ?`, userID)
	if err != nil {
		return nil, err
	}

	var rows []toReadEntryRow
	if err := s.db.SelectContext(ctx, &rows, `
		SELECT b.id AS book_id, b.title, a.name AS author_name, r.rating AS my_rating, t.created_at AS added_at
		FROM to_read t
		JOIN books b ON b.id = t.book_id
		JOIN authors a ON a.id = b.author_id
		LEFT JOIN ratings r ON r.user_id = t.user_id AND r.book_id = t.book_id
		WHERE t.user_id = ?
		ORDER BY `+ratedOrder(sort, "t.id")+`
		LIMIT ? OFFSET ?`, userID, page.Size, page.Offset()); err != nil {
		return nil, err
	}

	items := make([]domain.ToReadEntry, len(rows))
	for i, r := range rows {
		items[i] = domain.ToReadEntry{
			BookID:     r.BookID,
			Title:      r.Title,
			AuthorName: r.AuthorName,
			MyRating:   nullableInt(r.MyRating),
			AddedAt:    parseTime(r.AddedAt),
		}
	}
	return store.NewPageResult(items, total, page), nil
}
