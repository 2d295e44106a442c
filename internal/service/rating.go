package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/listenupapp/shelfmark/internal/domain"
	domainerrors "github.com/listenupapp/shelfmark/internal/errors"
	"github.com/listenupapp/shelfmark/internal/metrics"
	"github.com/listenupapp/shelfmark/internal/normalize"
	"github.com/listenupapp/shelfmark/internal/store"
	"github.com/listenupapp/shelfmark/internal/validation"
)

// RatingService records what readers think of books: ratings, reviews and to-read lists.
type RatingService struct {
	store     store.Store
	validator *validation.Validator
	pageSize  int
	logger    *slog.Logger
}

// NewRatingService creates a new rating service.
func NewRatingService(store store.Store, pageSize int, logger *slog.Logger) *RatingService {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &RatingService{
		store:     store,
		validator: validation.New(),
		pageSize:  pageSize,
		logger:    logger,
	}
}

// RateRequest is a score for a book.
type RateRequest struct {
	Rating int `json:"rating" validate:"gte=1,lte=5"`
}

// ReviewRequest is the text of a review.
type ReviewRequest struct {
	Body string `json:"body" validate:"required,notblank,max=1000"`
}

// RateBook stores the user's rating of a book, replacing any earlier one.
func (s *RatingService) RateBook(ctx context.Context, userID, bookID int64, value int) (*domain.Rating, error) {
	if err := s.validator.Validate(RateRequest{Rating: value}); err != nil {
		return nil, err
	}
	if err := s.requireBook(ctx, bookID); err != nil {
		return nil, err
	}

	rating, err := s.store.UpsertRating(ctx, userID, bookID, value)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotFoundf("book %d not found", bookID)
		}
		return nil, fmt.Errorf("save rating: %w", err)
	}

	metrics.ActivityWrites.WithLabelValues("rating").Inc()
	s.logger.Debug("Book rated", "user_id", userID, "book_id", bookID, "rating", value)
	return rating, nil
}

// WriteReview stores the user's review of a book, replacing any earlier one.
// Length is counted in characters, not bytes.
func (s *RatingService) WriteReview(ctx context.Context, userID, bookID int64, body string) (*domain.Review, error) {
	req := ReviewRequest{Body: normalize.Text(body)}
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}
	if err := s.requireBook(ctx, bookID); err != nil {
		return nil, err
	}

	review, err := s.store.UpsertReview(ctx, userID, bookID, req.Body)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotFoundf("book %d not found", bookID)
		}
		return nil, fmt.Errorf("save review: %w", err)
	}

	metrics.ActivityWrites.WithLabelValues("review").Inc()
	return review, nil
}

// AverageRating returns the rounded mean rating of a book, nil when unrated.
func (s *RatingService) AverageRating(ctx context.Context, bookID int64) (*float64, error) {
	if err := s.requireBook(ctx, bookID); err != nil {
		return nil, err
	}
	return s.store.AverageRating(ctx, bookID)
}

// AddToRead puts a book on the user's to-read list.
func (s *RatingService) AddToRead(ctx context.Context, userID, bookID int64) (*domain.ToRead, error) {
	if err := s.requireBook(ctx, bookID); err != nil {
		return nil, err
	}

	entry, err := s.store.AddToRead(ctx, userID, bookID)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrAlreadyExists):
			return nil, domainerrors.ErrAlreadyInList
		case errors.Is(err, store.ErrNotFound):
			return nil, domainerrors.NotFoundf("book %d not found", bookID)
		}
		return nil, fmt.Errorf("add to-read: %w", err)
	}

	metrics.ActivityWrites.WithLabelValues("to_read_add").Inc()
	return entry, nil
}

// RemoveToRead takes a book off the user's to-read list.
func (s *RatingService) RemoveToRead(ctx context.Context, userID, bookID int64) error {
	if err := s.store.RemoveToRead(ctx, userID, bookID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domainerrors.NotFound("book is not in your read list")
		}
		return fmt.Errorf("remove to-read: %w", err)
	}
	metrics.ActivityWrites.WithLabelValues("to_read_remove").Inc()
	return nil
}

// YourRatings lists the user's ratings.
func (s *RatingService) YourRatings(ctx context.Context, userID int64, sort string, page store.Page) (*store.PageResult[domain.RatingEntry], error) {
	order, err := parseSort(sort)
	if err != nil {
		return nil, err
	}
	return s.store.ListUserRatings(ctx, userID, order, page.Normalize(s.pageSize))
}

// YourToRead lists the user's to-read books.
func (s *RatingService) YourToRead(ctx context.Context, userID int64, sort string, page store.Page) (*store.PageResult[domain.ToReadEntry], error) {
	order, err := parseSort(sort)
	if err != nil {
		return nil, err
	}
	return s.store.ListUserToRead(ctx, userID, order, page.Normalize(s.pageSize))
}

// YourReviews lists the user's reviews.
func (s *RatingService) YourReviews(ctx context.Context, userID int64, sort string, page store.Page) (*store.PageResult[domain.ReviewEntry], error) {
	order, err := parseSort(sort)
	if err != nil {
		return nil, err
	}
	return s.store.ListUserReviews(ctx, userID, order, page.Normalize(s.pageSize))
}

// BookReviews lists every review of a book with its author's rating of the book.
func (s *RatingService) BookReviews(ctx context.Context, bookID int64, sort string) ([]domain.BookReview, error) {
	order, err := parseSort(sort)
	if err != nil {
		return nil, err
	}
	if err := s.requireBook(ctx, bookID); err != nil {
		return nil, err
	}
	return s.store.ListBookReviews(ctx, bookID, order)
}

func (s *RatingService) requireBook(ctx context.Context, bookID int64) error {
	if _, err := s.store.GetBook(ctx, bookID); err != nil {
		return bookNotFound(bookID, err)
	}
	return nil
}

func parseSort(sort string) (domain.SortOrder, error) {
	order, ok := domain.ParseSortOrder(sort)
	if !ok {
		return "", domainerrors.ValidationWithDetails("validation failed",
			map[string]string{"sort": "must be one of: best worst newest oldest"})
	}
	return order, nil
}
