package sqlite

import (
	"context"
	"database/sql"

	"github.com/listenupapp/shelfmark/internal/domain"
	"github.com/listenupapp/shelfmark/internal/store"
)

// rankedSelect is every book with the aggregates the rankings order by.
const rankedSelect = `
	SELECT b.id AS book_id, b.title, a.name AS author_name,
		(SELECT ROUND(AVG(r.rating), 2) FROM ratings r WHERE r.book_id = b.id) AS avg_rating,
		(SELECT COUNT(*) FROM reviews v WHERE v.book_id = b.id) AS review_count,
		(SELECT COUNT(*) FROM to_read t WHERE t.book_id = b.id) AS to_read_count
	FROM books b JOIN authors a ON a.id = b.author_id`

type rankedRow struct {
	BookID      int64           `db:"book_id"`
	Title       string          `db:"title"`
	AuthorName  string          `db:"author_name"`
	AvgRating   sql.NullFloat64 `db:"avg_rating"`
	ReviewCount int             `db:"review_count"`
	ToReadCount int             `db:"to_read_count"`
}

func (s *Store) ranked(ctx context.Context, filter, order string, total int, page store.Page) (*store.PageResult[domain.RankedBook], error) {
	query := `SELECT * FROM (` + rankedSelect + `)`
	if filter != "" {
		query += ` WHERE ` + filter
	}
	query += ` ORDER BY ` + order + ` LIMIT ? OFFSET ?`

	var rows []rankedRow
	if err := s.db.SelectContext(ctx, &rows, query, page.Size, page.Offset()); err != nil {
		return nil, err
	}

	items := make([]domain.RankedBook, len(rows))
	for i, r := range rows {
		items[i] = domain.RankedBook{
			BookID:      r.BookID,
			Title:       r.Title,
			AuthorName:  r.AuthorName,
			AvgRating:   nullableFloat(r.AvgRating),
			ReviewCount: r.ReviewCount,
			ToReadCount: r.ToReadCount,
		}
	}
	return store.NewPageResult(items, total, page), nil
}

// TopRated ranks rated books by average rating, highest first.
func (s *Store) TopRated(ctx context.Context, page store.Page) (*store.PageResult[domain.RankedBook], error) {
	page = page.Normalize(store.DefaultPageSize)
	total, err := s.count(ctx, `SELECT COUNT(DISTINCT book_id) FROM ratings`)
	if err != nil {
		return nil, err
	}
	return s.ranked(ctx, `avg_rating IS NOT NULL`, `avg_rating DESC, book_id ASC`, total, page)
}

// MostReviewed ranks every book by review count, highest first.
func (s *Store) MostReviewed(ctx context.Context, page store.Page) (*store.PageResult[domain.RankedBook], error) {
	page = page.Normalize(store.DefaultPageSize)
	total, err := s.CountBooks(ctx)
	if err != nil {
		return nil, err
	}
	return s.ranked(ctx, "", `review_count DESC, book_id ASC`, total, page)
}

// MostToRead ranks every book by how many to-read lists hold it, highest first.
func (s *Store) MostToRead(ctx context.Context, page store.Page) (*store.PageResult[domain.RankedBook], error) {
	page = page.Normalize(store.DefaultPageSize)
	total, err := s.CountBooks(ctx)
	if err != nil {
		return nil, err
	}
	return s.ranked(ctx, "", `to_read_count DESC, book_id ASC`, total, page)
}

// Counts returns the number of rows of every relational table.
// SavedSearches is left zero; snapshots live outside this store.
func (s *Store) Counts(ctx context.Context) (*domain.Overview, error) {
	var o domain.Overview
	err := s.db.QueryRowxContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM users),
			(SELECT COUNT(*) FROM authors),
			(SELECT COUNT(*) FROM genres),
			(SELECT COUNT(*) FROM books),
			(SELECT COUNT(*) FROM ratings),
			(SELECT COUNT(*) FROM reviews),
			(SELECT COUNT(*) FROM to_read)`).
		Scan(&o.Users, &o.Authors, &o.Genres, &o.Books, &o.Ratings, &o.Reviews, &o.ToRead)
	if err != nil {
		return nil, err
	}
	return &o, nil
}
