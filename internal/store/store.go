// Package store defines the persistence contract of the Shelfmark server and the
// errors and pagination types shared by its implementations.
package store

import (
	"context"

	"github.com/listenupapp/shelfmark/internal/domain"
)

// SearchIndexer is notified of catalog changes so the quick-search index stays current.
type SearchIndexer interface {
	IndexBook(ctx context.Context, book *domain.BookSummary) error
}

// NoopSearchIndexer is a no-op implementation of SearchIndexer.
type NoopSearchIndexer struct{}

// IndexBook implements SearchIndexer.
func (NoopSearchIndexer) IndexBook(context.Context, *domain.BookSummary) error { return nil }

// BookImport is one record of a bulk book load.
type BookImport struct {
	Title  string
	Author string
	Genres []string
}

// SyntheticActivity is generated seed activity for one user and book.
// A zero Rating or empty Review means none.
type SyntheticActivity struct {
	UserID int64
	BookID int64
	Rating int
	ToRead bool
	Review string
}

// SyntheticCounts reports how many rows a synthetic load actually inserted.
type SyntheticCounts struct {
	Ratings int `json:"ratings"`
	ToRead  int `json:"to_read"`
	Reviews int `json:"reviews"`
}

// RatingPair is a (user, book) pair of a rating.
type RatingPair struct {
	UserID int64 `db:"user_id"`
	BookID int64 `db:"book_id"`
}

// Store defines every persistence operation of the server.
type Store interface {
	Close() error
	SetSearchIndexer(indexer SearchIndexer)

	// Users
	CreateUser(ctx context.Context, user *domain.User) error
	GetUser(ctx context.Context, id int64) (*domain.User, error)
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
	UpdateUser(ctx context.Context, user *domain.User) error
	SetUserRole(ctx context.Context, email string, role domain.Role) error
	ListUserIDs(ctx context.Context) ([]int64, error)
	CountUsers(ctx context.Context) (int, error)

	// Sessions
	CreateSession(ctx context.Context, session *domain.Session) error
	GetSession(ctx context.Context, id string) (*domain.Session, error)
	GetSessionByRefreshToken(ctx context.Context, tokenHash string) (*domain.Session, error)
	UpdateSession(ctx context.Context, session *domain.Session) error
	DeleteSession(ctx context.Context, id string) error
	DeleteUserSessionsExcept(ctx context.Context, userID int64, keepID string) (int, error)
	DeleteExpiredSessions(ctx context.Context) (int, error)

	// Authors and genres
	CreateAuthor(ctx context.Context, author *domain.Author) error
	GetAuthor(ctx context.Context, id int64) (*domain.Author, error)
	GetAuthorByName(ctx context.Context, name string) (*domain.Author, error)
	ListAuthors(ctx context.Context) ([]domain.Author, error)
	CreateGenre(ctx context.Context, genre *domain.Genre) error
	GetGenresByIDs(ctx context.Context, ids []int64) ([]domain.Genre, error)
	GetGenreByName(ctx context.Context, name string) (*domain.Genre, error)
	ListGenres(ctx context.Context) ([]domain.Genre, error)

	// Books
	CreateBook(ctx context.Context, book *domain.Book, genreIDs []int64) error
	GetBook(ctx context.Context, id int64) (*domain.Book, error)
	BookExists(ctx context.Context, title string, authorID int64) (bool, error)
	ImportBook(ctx context.Context, rec BookImport) (bool, error)
	GetBookGenres(ctx context.Context, bookID int64) ([]domain.Genre, error)
	GetBookSummary(ctx context.Context, id int64) (*domain.BookSummary, error)
	GetBookSummaries(ctx context.Context, ids []int64) ([]domain.BookSummary, error)
	ListBooks(ctx context.Context, page Page) (*PageResult[domain.BookSummary], error)
	ListAllBookSummaries(ctx context.Context) ([]domain.BookSummary, error)
	ListBookIDs(ctx context.Context) ([]int64, error)
	CountBooks(ctx context.Context) (int, error)

	// Ratings
	UpsertRating(ctx context.Context, userID, bookID int64, value int) (*domain.Rating, error)
	GetRating(ctx context.Context, userID, bookID int64) (*domain.Rating, error)
	AverageRating(ctx context.Context, bookID int64) (*float64, error)
	ListUserRatings(ctx context.Context, userID int64, sort domain.SortOrder, page Page) (*PageResult[domain.RatingEntry], error)
	ListRatingPairs(ctx context.Context) ([]RatingPair, error)
	ListFiveStarPairs(ctx context.Context) ([]RatingPair, error)
	CountRatings(ctx context.Context) (int, error)

	// Reviews
	UpsertReview(ctx context.Context, userID, bookID int64, body string) (*domain.Review, error)
	GetReview(ctx context.Context, userID, bookID int64) (*domain.Review, error)
	CountBookReviews(ctx context.Context, bookID int64) (int, error)
	ListUserReviews(ctx context.Context, userID int64, sort domain.SortOrder, page Page) (*PageResult[domain.ReviewEntry], error)
	ListBookReviews(ctx context.Context, bookID int64, sort domain.SortOrder) ([]domain.BookReview, error)

	// To-read
	AddToRead(ctx context.Context, userID, bookID int64) (*domain.ToRead, error)
	RemoveToRead(ctx context.Context, userID, bookID int64) error
	IsOnToRead(ctx context.Context, userID, bookID int64) (bool, error)
	CountBookToRead(ctx context.Context, bookID int64) (int, error)
	ListUserToRead(ctx context.Context, userID int64, sort domain.SortOrder, page Page) (*PageResult[domain.ToReadEntry], error)

	// Seeding
	InsertSyntheticActivity(ctx context.Context, batch []SyntheticActivity) (SyntheticCounts, error)

	// Search and rankings
	SearchBooks(ctx context.Context, criteria domain.SearchCriteria) ([]domain.SearchResult, error)
	TopRated(ctx context.Context, page Page) (*PageResult[domain.RankedBook], error)
	MostReviewed(ctx context.Context, page Page) (*PageResult[domain.RankedBook], error)
	MostToRead(ctx context.Context, page Page) (*PageResult[domain.RankedBook], error)
	Counts(ctx context.Context) (*domain.Overview, error)
}
