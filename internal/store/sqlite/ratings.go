package sqlite

import (
	"context"
	"database/sql"

	"github.com/listenupapp/shelfmark/internal/domain"
	"github.com/listenupapp/shelfmark/internal/store"
)

type ratingRow struct {
	ID        int64  `db:"id"`
	UserID    int64  `db:"user_id"`
	BookID    int64  `db:"book_id"`
	Rating    int    `db:"rating"`
	CreatedAt string `db:"created_at"`
	UpdatedAt string `db:"updated_at"`
}

func (r *ratingRow) toDomain() *domain.Rating {
	return &domain.Rating{
		Timestamps: domain.Timestamps{
			CreatedAt: parseTime(r.CreatedAt),
			UpdatedAt: parseTime(r.UpdatedAt),
		},
		ID:     r.ID,
		UserID: r.UserID,
		BookID: r.BookID,
		Value:  r.Rating,
	}
}

// UpsertRating stores the user's rating of a book, replacing any previous value.
// Returns store.ErrNotFound if the user or book does not exist and
// store.ErrInvalidInput if value is outside 1..5.
func (s *Store) UpsertRating(ctx context.Context, userID, bookID int64, value int) (*domain.Rating, error) {
	ts := now()
	var row ratingRow
	err := s.db.GetContext(ctx, &row, `
		INSERT INTO ratings (user_id, book_id, rating, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(user_id, book_id) DO UPDATE SET rating = excluded.rating, updated_at = excluded.updated_at
		RETURNING id, user_id, book_id, rating, created_at, updated_at`,
		userID, bookID, value, ts, ts)
	if err != nil {
		switch {
		case isForeignKeyViolation(err):
			return nil, store.ErrNotFound.WithMessage("book not found")
		case isCheckViolation(err):
			return nil, store.ErrInvalidInput.WithCause(err)
		}
		return nil, err
	}
	return row.toDomain(), nil
}

// GetRating retrieves the user's rating of a book.
func (s *Store) GetRating(ctx context.Context, userID, bookID int64) (*domain.Rating, error) {
	var row ratingRow
	if err := s.db.GetContext(ctx, &row, `
		SELECT id, user_id, book_id, rating, created_at, updated_at
		FROM ratings WHERE user_id = ? AND book_id = ?`, userID, bookID); err != nil {
		return nil, notFound(err)
	}
	return row.toDomain(), nil
}

// AverageRating returns the book's mean rating rounded to two places, or nil when unrated.
func (s *Store) AverageRating(ctx context.Context, bookID int64) (*float64, error) {
	var avg sql.NullFloat64
	if err := s.db.GetContext(ctx, &avg,
		`SELECT ROUND(AVG(rating), 2) FROM ratings WHERE book_id = ?`, bookID); err != nil {
		return nil, err
	}
	return nullableFloat(avg), nil
}

// ratingOrder maps a sort order onto the ratings list. Best and worst break ties by newest.
var ratingOrder = map[domain.SortOrder]string{
	domain.SortBest:   `r.rating DESC, r.id DESC`,
	domain.SortWorst:  `r.rating ASC, r.id DESC`,
	domain.SortNewest: `r.id DESC`,
	domain.SortOldest: `r.id ASC`,
}

type ratingEntryRow struct {
	BookID     int64  `db:"book_id"`
	Title      string `db:"title"`
	AuthorName string `db:"author_name"`
	Rating     int    `db:"rating"`
	RatedAt    string `db:"rated_at"`
}

// ListUserRatings returns one page of the user's ratings.
func (s *Store) ListUserRatings(ctx context.Context, userID int64, sort domain.SortOrder, page store.Page) (*store.PageResult[domain.RatingEntry], error) {
	page = page.Normalize(store.DefaultPageSize)
	order, ok := ratingOrder[sort]
	if !ok {
		order = ratingOrder[domain.SortNewest]
	}

	total, err := s.count(ctx, `SELECT COUNT(*) FROM ratings WHERE user_id = ?`, userID)
	if err != nil {
		return nil, err
	}

	var rows []ratingEntryRow
	if err := s.db.SelectContext(ctx, &rows, `
		SELECT b.id AS book_id, b.title, a.name AS author_name, r.rating, r.updated_at AS rated_at
		FROM ratings r
		JOIN books b ON b.id = r.book_id
		JOIN authors a ON a.id = b.author_id
		WHERE r.user_id = ?
		ORDER BY `+order+`
		LIMIT ? OFFSET ?`, userID, page.Size, page.Offset()); err != nil {
		return nil, err
	}

	items := make([]domain.RatingEntry, len(rows))
	for i, r := range rows {
		items[i] = domain.RatingEntry{
			BookID:     r.BookID,
			Title:      r.Title,
			AuthorName: r.AuthorName,
			Rating:     r.Rating,
			RatedAt:    parseTime(r.RatedAt),
		}
	}
	return store.NewPageResult(items, total, page), nil
}

// ListRatingPairs returns the (user, book) pair of every rating.
func (s *Store) ListRatingPairs(ctx context.Context) ([]store.RatingPair, error) {
	var pairs []store.RatingPair
	if err := s.db.SelectContext(ctx, &pairs, `SELECT user_id, book_id FROM ratings ORDER BY user_id, book_id`); err != nil {
		return nil, err
	}
	return pairs, nil
}

// ListFiveStarPairs returns the (user, book) pair of every 5-star rating.
func (s *Store) ListFiveStarPairs(ctx context.Context) ([]store.RatingPair, error) {
	var pairs []store.RatingPair
	if err := s.db.SelectContext(ctx, &pairs,
		`SELECT user_id, book_id FROM ratings WHERE rating = ? ORDER BY user_id, book_id`, domain.MaxRating); err != nil {
		return nil, err
	}
	return pairs, nil
}

// CountRatings returns the number of ratings.
func (s *Store) CountRatings(ctx context.Context) (int, error) {
	return s.count(ctx, `SELECT COUNT(*) FROM ratings`)
}
