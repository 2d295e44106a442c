package sqlite

import (
	"context"
	"database/sql"

	"github.com/listenupapp/shelfmark/internal/domain"
	"github.com/listenupapp/shelfmark/internal/store"
)

type reviewRow struct {
	ID        int64  `db:"id"`
	UserID    int64  `db:"user_id"`
	BookID    int64  `db:"book_id"`
	Body      string `db:"body"`
	CreatedAt string `db:"created_at"`
	UpdatedAt string `db:"updated_at"`
}

func (r *reviewRow) toDomain() *domain.Review {
	return &domain.Review{
		Timestamps: domain.Timestamps{
			CreatedAt: parseTime(r.CreatedAt),
			UpdatedAt: parseTime(r.UpdatedAt),
		},
		ID:     r.ID,
		UserID: r.UserID,
		BookID: r.BookID,
		Body:   r.Body,
	}
}

// ratedOrder maps a sort order onto lists joined with a nullable rating column
// aliased "my_rating". Unrated rows go last for best and worst.
func ratedOrder(sort domain.SortOrder, idColumn string) string {
	switch sort {
	case domain.SortBest:
		return `CASE WHEN my_rating IS NULL THEN 1 ELSE 0 END, my_rating DESC, ` + idColumn + ` DESC`
	case domain.SortWorst:
		return `CASE WHEN my_rating IS NULL THEN 1 ELSE 0 END, my_rating ASC, ` + idColumn + ` DESC`
	case domain.SortOldest:
		return idColumn + ` ASC`
	default:
		return idColumn + ` DESC`
	}
}

// UpsertReview stores the user's review of a book, replacing any previous text.
// Returns store.ErrNotFound if the user or book does not exist.
func (s *Store) UpsertReview(ctx context.Context, userID, bookID int64, body string) (*domain.Review, error) {
	ts := now()
	var row reviewRow
	err := s.db.GetContext(ctx, &row, `
		INSERT INTO reviews (user_id, book_id, body, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(user_id, book_id) DO UPDATE SET body = excluded.body, updated_at = excluded.updated_at
		RETURNING id, user_id, book_id, body, created_at, updated_at`,
		userID, bookID, body, ts, ts)
	if err != nil {
		if isForeignKeyViolation(err) {
			return nil, store.ErrNotFound.WithMessage("book not found")
		}
		return nil, err
	}
	return row.toDomain(), nil
}

// GetReview retrieves the user's review of a book.
func (s *Store) GetReview(ctx context.Context, userID, bookID int64) (*domain.Review, error) {
	var row reviewRow
	if err := s.db.GetContext(ctx, &row, `
		SELECT id, user_id, book_id, body, created_at, updated_at
		FROM reviews WHERE user_id = ? AND book_id = ?`, userID, bookID); err != nil {
		return nil, notFound(err)
	}
	return row.toDomain(), nil
}

// CountBookReviews returns the number of reviews of a book.
func (s *Store) CountBookReviews(ctx context.Context, bookID int64) (int, error) {
	return s.count(ctx, `SELECT COUNT(*) FROM reviews WHERE book_id = ?`, bookID)
}

type reviewEntryRow struct {
	BookID     int64         `db:"book_id"`
	Title      string        `db:"title"`
	AuthorName string        `db:"author_name"`
	Body       string        `db:"body"`
	MyRating   sql.NullInt64 `db:"my_rating"`
	UpdatedAt  string        `db:"updated_at"`
}

// ListUserReviews returns one page of the user's reviews with their own rating of each book.
func (s *Store) ListUserReviews(ctx context.Context, userID int64, sort domain.SortOrder, page store.Page) (*store.PageResult[domain.ReviewEntry], error) {
	page = page.Normalize(store.DefaultPageSize)

	total, err := s.count(ctx, `SELECT COUNT(*) FROM reviews WHERE user_id = ?`, userID)
	if err != nil {
		return nil, err
	}

	var rows []reviewEntryRow
	if err := s.db.SelectContext(ctx, &rows, `
		SELECT b.id AS book_id, b.title, a.name AS author_name, v.body, r.rating AS my_rating, v.updated_at
		FROM reviews v
		JOIN books b ON b.id = v.book_id
		JOIN authors a ON a.id = b.author_id
		LEFT JOIN ratings r ON r.user_id = v.user_id AND r.book_id = v.book_id
		WHERE v.user_id = ?
		ORDER BY `+ratedOrder(sort, "v.id")+`
		LIMIT ? OFFSET ?`, userID, page.Size, page.Offset()); err != nil {
		return nil, err
	}

	items := make([]domain.ReviewEntry, len(rows))
	for i, r := range rows {
		items[i] = domain.ReviewEntry{
			BookID:     r.BookID,
			Title:      r.Title,
			AuthorName: r.AuthorName,
			Body:       r.Body,
			MyRating:   nullableInt(r.MyRating),
			UpdatedAt:  parseTime(r.UpdatedAt),
		}
	}
	return store.NewPageResult(items, total, page), nil
}

type bookReviewRow struct {
	ReviewID     int64         `db:"review_id"`
	UserID       int64         `db:"user_id"`
	ReviewerName string        `db:"reviewer_name"`
	Body         string        `db:"body"`
	MyRating     sql.NullInt64 `db:"my_rating"`
	CreatedAt    string        `db:"created_at"`
	UpdatedAt    string        `db:"updated_at"`
}

// ListBookReviews returns every review of a book with the reviewer's name and rating.
func (s *Store) ListBookReviews(ctx context.Context, bookID int64, sort domain.SortOrder) ([]domain.BookReview, error) {
	var rows []bookReviewRow
	if err := s.db.SelectContext(ctx, &rows, `
		SELECT v.id AS review_id, v.user_id, u.name AS reviewer_name, v.body,
			r.rating AS my_rating, v.created_at, v.updated_at
		FROM reviews v
		JOIN users u ON u.id = v.user_id
		LEFT JOIN ratings r ON r.user_id = v.user_id AND r.book_id = v.book_id
		WHERE v.book_id = ?
		ORDER BY `+ratedOrder(sort, "v.id"), bookID); err != nil {
		return nil, err
	}

	reviews := make([]domain.BookReview, len(rows))
	for i, r := range rows {
		reviews[i] = domain.BookReview{
			ReviewID:     r.ReviewID,
			UserID:       r.UserID,
			ReviewerName: r.ReviewerName,
			Body:         r.Body,
			Rating:       nullableInt(r.MyRating),
			CreatedAt:    parseTime(r.CreatedAt),
			UpdatedAt:    parseTime(r.UpdatedAt),
		}
	}
	return reviews, nil
}
