package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/listenupapp/shelfmark/internal/domain"
	domainerrors "github.com/listenupapp/shelfmark/internal/errors"
	"github.com/listenupapp/shelfmark/internal/metrics"
	"github.com/listenupapp/shelfmark/internal/normalize"
	"github.com/listenupapp/shelfmark/internal/store"
	"github.com/listenupapp/shelfmark/internal/validation"
)

// CatalogService manages authors, genres and books.
type CatalogService struct {
	store     store.Store
	validator *validation.Validator
	pageSize  int
	logger    *slog.Logger
}

// NewCatalogService creates a new catalog service.
func NewCatalogService(store store.Store, pageSize int, logger *slog.Logger) *CatalogService {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &CatalogService{
		store:     store,
		validator: validation.New(),
		pageSize:  pageSize,
		logger:    logger,
	}
}

// NameRequest carries the name of a new author or genre.
type NameRequest struct {
	Name string `json:"name" validate:"required,notblank,max=256"`
}

// AddBookRequest describes a new book.
type AddBookRequest struct {
	Title    string  `json:"title" validate:"required,notblank,max=256"`
	AuthorID int64   `json:"author_id" validate:"required,gt=0"`
	GenreIDs []int64 `json:"genre_ids" validate:"dive,gt=0"`
}

// AddAuthor creates an author. Names are compared after normalisation.
func (s *CatalogService) AddAuthor(ctx context.Context, name string) (*domain.Author, error) {
	req := NameRequest{Name: normalize.Name(name)}
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	if _, err := s.store.GetAuthorByName(ctx, req.Name); err == nil {
		return nil, domainerrors.ErrDuplicateAuthor
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("check author: %w", err)
	}

	author := &domain.Author{Name: req.Name}
	if err := s.store.CreateAuthor(ctx, author); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return nil, domainerrors.ErrDuplicateAuthor.WithCause(err)
		}
		return nil, fmt.Errorf("create author: %w", err)
	}

	metrics.CatalogWrites.WithLabelValues("author").Inc()
	s.logger.Info("Author added", "author_id", author.ID, "name", author.Name)
	return author, nil
}

// AddGenre creates a genre.
func (s *CatalogService) AddGenre(ctx context.Context, name string) (*domain.Genre, error) {
	req := NameRequest{Name: normalize.Name(name)}
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	if _, err := s.store.GetGenreByName(ctx, req.Name); err == nil {
		return nil, domainerrors.ErrDuplicateGenre
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("check genre: %w", err)
	}

	genre := &domain.Genre{Name: req.Name}
	if err := s.store.CreateGenre(ctx, genre); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return nil, domainerrors.ErrDuplicateGenre.WithCause(err)
		}
		return nil, fmt.Errorf("create genre: %w", err)
	}

	metrics.CatalogWrites.WithLabelValues("genre").Inc()
	s.logger.Info("Genre added", "genre_id", genre.ID, "name", genre.Name)
	return genre, nil
}

// ListAuthors returns every author ordered by name.
func (s *CatalogService) ListAuthors(ctx context.Context) ([]domain.Author, error) {
	return s.store.ListAuthors(ctx)
}

// ListGenres returns every genre ordered by name.
func (s *CatalogService) ListGenres(ctx context.Context) ([]domain.Genre, error) {
	return s.store.ListGenres(ctx)
}

// AddBook creates a book with its genres in one transaction.
func (s *CatalogService) AddBook(ctx context.Context, req AddBookRequest) (*domain.BookSummary, error) {
	if len(req.GenreIDs) == 0 {
		return nil, domainerrors.ErrNoGenreSelected
	}
	req.Title = normalize.Name(req.Title)
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	genreIDs := slices.Clone(req.GenreIDs)
	slices.Sort(genreIDs)
	genreIDs = slices.Compact(genreIDs)

	if _, err := s.store.GetAuthor(ctx, req.AuthorID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotFoundf("author %d not found", req.AuthorID)
		}
		return nil, fmt.Errorf("get author: %w", err)
	}

	genres, err := s.store.GetGenresByIDs(ctx, genreIDs)
	if err != nil {
		return nil, fmt.Errorf("get genres: %w", err)
	}
	if len(genres) != len(genreIDs) {
		return nil, domainerrors.NotFound("one or more genres not found")
	}

	exists, err := s.store.BookExists(ctx, req.Title, req.AuthorID)
	if err != nil {
		return nil, fmt.Errorf("check book: %w", err)
	}
	if exists {
		return nil, domainerrors.ErrDuplicateBook
	}

	book := &domain.Book{Title: req.Title, AuthorID: req.AuthorID}
	if err := s.store.CreateBook(ctx, book, genreIDs); err != nil {
		switch {
		case errors.Is(err, store.ErrAlreadyExists):
			return nil, domainerrors.ErrDuplicateBook.WithCause(err)
		case errors.Is(err, store.ErrNotFound):
			return nil, domainerrors.NotFound("author or genre not found").WithCause(err)
		}
		return nil, fmt.Errorf("create book: %w", err)
	}

	metrics.CatalogWrites.WithLabelValues("book").Inc()
	s.logger.Info("Book added", "book_id", book.ID, "title", book.Title)

	return s.store.GetBookSummary(ctx, book.ID)
}

// ListBooks returns one page of the catalog ordered by id.
func (s *CatalogService) ListBooks(ctx context.Context, page store.Page) (*store.PageResult[domain.BookSummary], error) {
	return s.store.ListBooks(ctx, page.Normalize(s.pageSize))
}

// GetBookDetails returns a book with its aggregates. A non-zero viewerID adds the
// viewer's own rating, review and to-read flag.
func (s *CatalogService) GetBookDetails(ctx context.Context, bookID, viewerID int64) (*domain.BookDetails, error) {
	book, err := s.store.GetBook(ctx, bookID)
	if err != nil {
		return nil, bookNotFound(bookID, err)
	}

	author, err := s.store.GetAuthor(ctx, book.AuthorID)
	if err != nil {
		return nil, fmt.Errorf("get author: %w", err)
	}
	genres, err := s.store.GetBookGenres(ctx, book.ID)
	if err != nil {
		return nil, fmt.Errorf("get genres: %w", err)
	}
	avg, err := s.store.AverageRating(ctx, book.ID)
	if err != nil {
		return nil, fmt.Errorf("average rating: %w", err)
	}
	reviews, err := s.store.CountBookReviews(ctx, book.ID)
	if err != nil {
		return nil, fmt.Errorf("count reviews: %w", err)
	}
	toRead, err := s.store.CountBookToRead(ctx, book.ID)
	if err != nil {
		return nil, fmt.Errorf("count to-read: %w", err)
	}

	details := &domain.BookDetails{
		Book:        *book,
		Author:      *author,
		Genres:      genres,
		AvgRating:   avg,
		ReviewCount: reviews,
		ToReadCount: toRead,
	}

	if viewerID == 0 {
		return details, nil
	}

	rating, err := s.store.GetRating(ctx, viewerID, book.ID)
	switch {
	case err == nil:
		details.MyRating = &rating.Value
	case !errors.Is(err, store.ErrNotFound):
		return nil, fmt.Errorf("get rating: %w", err)
	}

	review, err := s.store.GetReview(ctx, viewerID, book.ID)
	switch {
	case err == nil:
		details.MyReview = review
	case !errors.Is(err, store.ErrNotFound):
		return nil, fmt.Errorf("get review: %w", err)
	}

	details.OnToRead, err = s.store.IsOnToRead(ctx, viewerID, book.ID)
	if err != nil {
		return nil, fmt.Errorf("check to-read: %w", err)
	}
	return details, nil
}

// bookNotFound maps a store lookup error for a book into a domain error.
func bookNotFound(bookID int64, err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return domainerrors.NotFoundf("book %d not found", bookID)
	}
	return fmt.Errorf("get book: %w", err)
}
