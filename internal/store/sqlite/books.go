package sqlite

import (
	"context"
	"database/sql"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/listenupapp/shelfmark/internal/domain"
	"github.com/listenupapp/shelfmark/internal/store"
)

// summarySelect joins a book with its author, genre names and average rating.
const summarySelect = `
	SELECT b.id, b.title, b.author_id, a.name AS author_name,
		(SELECT GROUP_CONCAT(g.name, char(31) ORDER BY g.name)
			FROM book_genres bg JOIN genres g ON g.id = bg.genre_id
			WHERE bg.book_id = b.id) AS genre_names,
		(SELECT ROUND(AVG(r.rating), 2) FROM ratings r WHERE r.book_id = b.id) AS avg_rating
	FROM books b JOIN authors a ON a.id = b.author_id`

type bookRow struct {
	ID        int64  `db:"id"`
	Title     string `db:"title"`
	AuthorID  int64  `db:"author_id"`
	CreatedAt string `db:"created_at"`
}

type bookSummaryRow struct {
	ID         int64           `db:"id"`
	Title      string          `db:"title"`
	AuthorID   int64           `db:"author_id"`
	AuthorName string          `db:"author_name"`
	GenreNames sql.NullString  `db:"genre_names"`
	AvgRating  sql.NullFloat64 `db:"avg_rating"`
}

func (r *bookSummaryRow) toDomain() domain.BookSummary {
	return domain.BookSummary{
		ID:         r.ID,
		Title:      r.Title,
		AuthorID:   r.AuthorID,
		AuthorName: r.AuthorName,
		Genres:     splitGroup(r.GenreNames),
		AvgRating:  nullableFloat(r.AvgRating),
	}
}

func toSummaries(rows []bookSummaryRow) []domain.BookSummary {
	out := make([]domain.BookSummary, len(rows))
	for i := range rows {
		out[i] = rows[i].toDomain()
	}
	return out
}

// CreateBook inserts a book and its genre associations in one transaction.
// Returns store.ErrAlreadyExists if the title exists for the author, and
// store.ErrNotFound if the author or a genre does not exist.
func (s *Store) CreateBook(ctx context.Context, book *domain.Book, genreIDs []int64) error {
	if book.CreatedAt.IsZero() {
		book.CreatedAt = parseTime(now())
	}

	err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		id, err := insertBook(ctx, tx, book.Title, book.AuthorID, formatTime(book.CreatedAt))
		if err != nil {
			return err
		}
		if err := linkGenres(ctx, tx, id, genreIDs); err != nil {
			return err
		}
		book.ID = id
		return nil
	})
	if err != nil {
		switch {
		case isUniqueViolation(err):
			return store.ErrAlreadyExists.WithMessage("book already exists for this author")
		case isForeignKeyViolation(err):
			return store.ErrNotFound.WithMessage("author or genre not found")
		}
		return err
	}

	s.indexBook(ctx, book.ID)
	return nil
}

func insertBook(ctx context.Context, tx *sqlx.Tx, title string, authorID int64, createdAt string) (int64, error) {
	res, err := tx.ExecContext(ctx,
		`INSERT INTO books (title, author_id, created_at) VALUES (?, ?, ?)`, title, authorID, createdAt)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func linkGenres(ctx context.Context, tx *sqlx.Tx, bookID int64, genreIDs []int64) error {
	for _, gid := range genreIDs {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO book_genres (book_id, genre_id) VALUES (?, ?) ON CONFLICT DO NOTHING`, bookID, gid); err != nil {
			return err
		}
	}
	return nil
}

// findOrCreate returns the id of the row with name in table (authors or genres), inserting it if needed.
func findOrCreate(ctx context.Context, tx *sqlx.Tx, table, name, createdAt string) (int64, error) {
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO `+table+` (name, created_at) VALUES (?, ?) ON CONFLICT(name) DO NOTHING`, name, createdAt); err != nil {
		return 0, err
	}
	var id int64
	err := tx.GetContext(ctx, &id, `SELECT id FROM `+table+` WHERE name = ?`, name)
	return id, err
}

// ImportBook loads one bulk record: the author and genres are found or created by
// exact name and the book is inserted unless (title, author) already exists.
// Reports whether a book was added. A concurrent insert of the same book is a skip.
func (s *Store) ImportBook(ctx context.Context, rec store.BookImport) (bool, error) {
	var bookID int64
	ts := now()

	err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		authorID, err := findOrCreate(ctx, tx, "authors", rec.Author, ts)
		if err != nil {
			return err
		}

		var exists bool
		if err := tx.GetContext(ctx, &exists,
			`SELECT EXISTS(SELECT 1 FROM books WHERE title = ? AND author_id = ?)`, rec.Title, authorID); err != nil {
			return err
		}
		if exists {
			return nil
		}

		genreIDs := make([]int64, 0, len(rec.Genres))
		for _, name := range rec.Genres {
			gid, err := findOrCreate(ctx, tx, "genres", name, ts)
			if err != nil {
				return err
			}
			genreIDs = append(genreIDs, gid)
		}

		bookID, err = insertBook(ctx, tx, rec.Title, authorID, ts)
		if err != nil {
			return err
		}
		return linkGenres(ctx, tx, bookID, genreIDs)
	})
	if err != nil {
		if isUniqueViolation(err) {
			s.logger.Debug("book import raced, skipping", "title", rec.Title, "author", rec.Author)
			return false, nil
		}
		return false, err
	}
	if bookID == 0 {
		return false, nil
	}

	s.indexBook(ctx, bookID)
	return true, nil
}

// GetBook retrieves a book by ID.
func (s *Store) GetBook(ctx context.Context, id int64) (*domain.Book, error) {
	var row bookRow
	if err := s.db.GetContext(ctx, &row,
		`SELECT id, title, author_id, created_at FROM books WHERE id = ?`, id); err != nil {
		return nil, notFound(err)
	}
	return &domain.Book{
		ID:        row.ID,
		Title:     row.Title,
		AuthorID:  row.AuthorID,
		CreatedAt: parseTime(row.CreatedAt),
	}, nil
}

// BookExists reports whether the author already has a book with this title.
func (s *Store) BookExists(ctx context.Context, title string, authorID int64) (bool, error) {
	var exists bool
	err := s.db.GetContext(ctx, &exists,
		`SELECT EXISTS(SELECT 1 FROM books WHERE title = ? AND author_id = ?)`, title, authorID)
	return exists, err
}

// GetBookSummary returns a single book with its author, genres and average rating.
func (s *Store) GetBookSummary(ctx context.Context, id int64) (*domain.BookSummary, error) {
	var row bookSummaryRow
	if err := s.db.GetContext(ctx, &row, summarySelect+` WHERE b.id = ?`, id); err != nil {
		return nil, notFound(err)
	}
	summary := row.toDomain()
	return &summary, nil
}

// GetBookSummaries returns the summaries of the given books ordered by id.
// Unknown IDs are silently absent from the result.
func (s *Store) GetBookSummaries(ctx context.Context, ids []int64) ([]domain.BookSummary, error) {
	if len(ids) == 0 {
		return []domain.BookSummary{}, nil
	}
	query, args, err := sqlx.In(summarySelect+` WHERE b.id IN (?) ORDER BY b.id`, ids)
	if err != nil {
		return nil, err
	}
	var rows []bookSummaryRow
	if err := s.db.SelectContext(ctx, &rows, s.db.Rebind(query), args...); err != nil {
		return nil, err
	}
	return toSummaries(rows), nil
}

// ListBooks returns one page of the catalog ordered by id.
func (s *Store) ListBooks(ctx context.Context, page store.Page) (*store.PageResult[domain.BookSummary], error) {
	page = page.Normalize(store.DefaultPageSize)
	total, err := s.CountBooks(ctx)
	if err != nil {
		return nil, err
	}

	var rows []bookSummaryRow
	if err := s.db.SelectContext(ctx, &rows, summarySelect+` ORDER BY b.id LIMIT ? OFFSET ?`,
		page.Size, page.Offset()); err != nil {
		return nil, err
	}
	return store.NewPageResult(toSummaries(rows), total, page), nil
}

// ListAllBookSummaries returns every book ordered by id. Used to rebuild the search index.
func (s *Store) ListAllBookSummaries(ctx context.Context) ([]domain.BookSummary, error) {
	var rows []bookSummaryRow
	if err := s.db.SelectContext(ctx, &rows, summarySelect+` ORDER BY b.id`); err != nil {
		return nil, err
	}
	return toSummaries(rows), nil
}

// ListBookIDs returns every book id in ascending order.
func (s *Store) ListBookIDs(ctx context.Context) ([]int64, error) {
	var ids []int64
	if err := s.db.SelectContext(ctx, &ids, `SELECT id FROM books ORDER BY id`); err != nil {
		return nil, err
	}
	return ids, nil
}

// CountBooks returns the number of books.
func (s *Store) CountBooks(ctx context.Context) (int, error) {
	return s.count(ctx, `SELECT COUNT(*) FROM books`)
}

func isForeignKeyViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "FOREIGN KEY constraint failed")
}

func isCheckViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "CHECK constraint failed")
}
