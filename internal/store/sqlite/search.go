package sqlite

import (
	"context"
	"database/sql"
	"strings"

	"github.com/listenupapp/shelfmark/internal/domain"
)

type searchRow struct {
	BookID     int64           `db:"book_id"`
	Title      string          `db:"title"`
	AuthorName string          `db:"author_name"`
	GenreNames sql.NullString  `db:"genre_names"`
	AvgRating  sql.NullFloat64 `db:"avg_rating"`
}

// SearchBooks returns every book matching the criteria.
//
// Text filters are case-insensitive substring matches. Rating bounds apply to the
// unrounded average and exclude unrated books. When sorting by rating, unrated
// books come last in both directions and ties are broken by id.
func (s *Store) SearchBooks(ctx context.Context, c domain.SearchCriteria) ([]domain.SearchResult, error) {
	var (
		where []string
		outer []string
		args  []any
	)

	if c.Title != "" {
		where = append(where, `b.title LIKE ? ESCAPE '\'`)
		args = append(args, likePattern(c.Title))
	}
	if c.Author != "" {
		where = append(where, `a.name LIKE ? ESCAPE '\'`)
		args = append(args, likePattern(c.Author))
	}
	if c.Genre != "" {
		where = append(where, `EXISTS (SELECT 1 FROM book_genres bg JOIN genres g ON g.id = bg.genre_id
			WHERE bg.book_id = b.id AND g.name LIKE ? ESCAPE '\')`)
		args = append(args, likePattern(c.Genre))
	}
	if c.RequireReview {
		where = append(where, `EXISTS (SELECT 1 FROM reviews v WHERE v.book_id = b.id)`)
	}

	if c.RatingMin != nil {
		outer = append(outer, `raw_avg >= ?`)
		args = append(args, *c.RatingMin)
	}
	if c.RatingMax != nil {
		outer = append(outer, `raw_avg <= ?`)
		args = append(args, *c.RatingMax)
	}

	var q strings.Builder
	q.WriteString(`
		SELECT book_id, title, author_name, genre_names, ROUND(raw_avg, 2) AS avg_rating
		FROM (
			SELECT b.id AS book_id, b.title, a.name AS author_name,
				(SELECT GROUP_CONCAT(g.name, char(31) ORDER BY g.name)
					FROM book_genres bg JOIN genres g ON g.id = bg.genre_id
					WHERE bg.book_id = b.id) AS genre_names,
				(SELECT AVG(r.rating) FROM ratings r WHERE r.book_id = b.id) AS raw_avg
			FROM books b JOIN authors a ON a.id = b.author_id`)
	if len(where) > 0 {
		q.WriteString("\n\t\t\tWHERE " + strings.Join(where, " AND "))
	}
	q.WriteString("\n\t\t)")
	if len(outer) > 0 {
		q.WriteString("\n\t\tWHERE " + strings.Join(outer, " AND "))
	}

	switch c.SortBy {
	case domain.SearchSortRatingAsc:
		q.WriteString("\n\t\tORDER BY raw_avg IS NULL, raw_avg ASC, book_id ASC")
	case domain.SearchSortRatingDesc:
		q.WriteString("\n\t\tORDER BY raw_avg IS NULL, raw_avg DESC, book_id ASC")
	default:
		q.WriteString("\n\t\tORDER BY book_id ASC")
	}

	var rows []searchRow
	if err := s.db.SelectContext(ctx, &rows, q.String(), args...); err != nil {
		return nil, err
	}

	results := make([]domain.SearchResult, len(rows))
	for i, r := range rows {
		results[i] = domain.SearchResult{
			BookID:     r.BookID,
			Title:      r.Title,
			AuthorName: r.AuthorName,
			GenreNames: splitGroup(r.GenreNames),
			AvgRating:  nullableFloat(r.AvgRating),
		}
	}
	return results, nil
}
