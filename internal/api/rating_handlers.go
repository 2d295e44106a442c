package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/listenupapp/shelfmark/internal/authz"
	"github.com/listenupapp/shelfmark/internal/domain"
	"github.com/listenupapp/shelfmark/internal/store"
)

func (s *Server) registerRatingRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "rateBook",
		Method:      http.MethodPut,
		Path:        "/api/v1/books/{id}/rating",
		Summary:     "Rate book",
		Description: "Sets the caller's rating (1-5). Rating again replaces the previous value.",
		Tags:        []string{"Ratings"},
		Security:    bearerSecurity,
	}, s.handleRateBook)

	huma.Register(s.api, huma.Operation{
		OperationID: "writeReview",
		Method:      http.MethodPut,
		Path:        "/api/v1/books/{id}/review",
		Summary:     "Write review",
		Description: "Sets the caller's review (up to 1000 characters). Writing again replaces the text.",
		Tags:        []string{"Ratings"},
		Security:    bearerSecurity,
	}, s.handleWriteReview)

	huma.Register(s.api, huma.Operation{
		OperationID: "listBookReviews",
		Method:      http.MethodGet,
		Path:        "/api/v1/books/{id}/reviews",
		Summary:     "List book reviews",
		Description: "Returns every review of a book with the reviewer's rating",
		Tags:        []string{"Ratings"},
	}, s.handleBookReviews)

	huma.Register(s.api, huma.Operation{
		OperationID:   "addToRead",
		Method:        http.MethodPost,
		Path:          "/api/v1/books/{id}/to-read",
		Summary:       "Add to read list",
		Tags:          []string{"Ratings"},
		Security:      bearerSecurity,
		DefaultStatus: http.StatusCreated,
	}, s.handleAddToRead)

	huma.Register(s.api, huma.Operation{
		OperationID:   "removeToRead",
		Method:        http.MethodDelete,
		Path:          "/api/v1/books/{id}/to-read",
		Summary:       "Remove from read list",
		Tags:          []string{"Ratings"},
		Security:      bearerSecurity,
		DefaultStatus: http.StatusNoContent,
	}, s.handleRemoveToRead)

	huma.Register(s.api, huma.Operation{
		OperationID: "myRatings",
		Method:      http.MethodGet,
		Path:        "/api/v1/me/ratings",
		Summary:     "Your ratings",
		Tags:        []string{"Ratings"},
		Security:    bearerSecurity,
	}, s.handleMyRatings)

	huma.Register(s.api, huma.Operation{
		OperationID: "myToRead",
		Method:      http.MethodGet,
		Path:        "/api/v1/me/to-read",
		Summary:     "Your read list",
		Tags:        []string{"Ratings"},
		Security:    bearerSecurity,
	}, s.handleMyToRead)

	huma.Register(s.api, huma.Operation{
		OperationID: "myReviews",
		Method:      http.MethodGet,
		Path:        "/api/v1/me/reviews",
		Summary:     "Your reviews",
		Tags:        []string{"Ratings"},
		Security:    bearerSecurity,
	}, s.handleMyReviews)
}

// === DTOs ===

// RateInput is a rating for a book.
type RateInput struct {
	ID   int64 `path:"id" doc:"Book ID"`
	Body struct {
		Rating int `json:"rating,omitempty" doc:"Score from 1 to 5"`
	}
}

// RatingOutput wraps a rating for Huma.
type RatingOutput struct {
	Body *domain.Rating
}

// ReviewInput is a review for a book.
type ReviewInput struct {
	ID   int64 `path:"id" doc:"Book ID"`
	Body struct {
		Body string `json:"body,omitempty" doc:"Review text, up to 1000 characters"`
	}
}

// ReviewOutput wraps a review for Huma.
type ReviewOutput struct {
	Body *domain.Review
}

// BookReviewsInput selects a book's reviews.
type BookReviewsInput struct {
	ID   int64  `path:"id" doc:"Book ID"`
	Sort string `query:"sort" doc:"best, worst, newest (default) or oldest"`
}

// BookReviewsOutput wraps a book's reviews for Huma.
type BookReviewsOutput struct {
	Body []domain.BookReview
}

// ToReadOutput wraps a read list entry for Huma.
type ToReadOutput struct {
	Body *domain.ToRead
}

// PersonalListInput selects a sorted page of one of the caller's lists.
type PersonalListInput struct {
	PageParams
	Sort string `query:"sort" doc:"best, worst, newest (default) or oldest"`
}

// RatingEntriesOutput wraps a page of the caller's ratings.
type RatingEntriesOutput struct {
	Body *store.PageResult[domain.RatingEntry]
}

// ToReadEntriesOutput wraps a page of the caller's read list.
type ToReadEntriesOutput struct {
	Body *store.PageResult[domain.ToReadEntry]
}

// ReviewEntriesOutput wraps a page of the caller's reviews.
type ReviewEntriesOutput struct {
	Body *store.PageResult[domain.ReviewEntry]
}

// === Handlers ===

func (s *Server) handleRateBook(ctx context.Context, input *RateInput) (*RatingOutput, error) {
	p, err := s.authorize(ctx, authz.ObjectRatings, authz.ActionWrite)
	if err != nil {
		return nil, err
	}
	rating, err := s.services.Ratings.RateBook(ctx, p.userID(), input.ID, input.Body.Rating)
	if err != nil {
		return nil, err
	}
	return &RatingOutput{Body: rating}, nil
}

func (s *Server) handleWriteReview(ctx context.Context, input *ReviewInput) (*ReviewOutput, error) {
	p, err := s.authorize(ctx, authz.ObjectRatings, authz.ActionWrite)
	if err != nil {
		return nil, err
	}
	review, err := s.services.Ratings.WriteReview(ctx, p.userID(), input.ID, input.Body.Body)
	if err != nil {
		return nil, err
	}
	return &ReviewOutput{Body: review}, nil
}

func (s *Server) handleBookReviews(ctx context.Context, input *BookReviewsInput) (*BookReviewsOutput, error) {
	if _, err := s.authorize(ctx, authz.ObjectCatalog, authz.ActionRead); err != nil {
		return nil, err
	}
	reviews, err := s.services.Ratings.BookReviews(ctx, input.ID, input.Sort)
	if err != nil {
		return nil, err
	}
	return &BookReviewsOutput{Body: reviews}, nil
}

func (s *Server) handleAddToRead(ctx context.Context, input *BookIDInput) (*ToReadOutput, error) {
	p, err := s.authorize(ctx, authz.ObjectRatings, authz.ActionWrite)
	if err != nil {
		return nil, err
	}
	entry, err := s.services.Ratings.AddToRead(ctx, p.userID(), input.ID)
	if err != nil {
		return nil, err
	}
	return &ToReadOutput{Body: entry}, nil
}

func (s *Server) handleRemoveToRead(ctx context.Context, input *BookIDInput) (*struct{}, error) {
	p, err := s.authorize(ctx, authz.ObjectRatings, authz.ActionWrite)
	if err != nil {
		return nil, err
	}
	if err := s.services.Ratings.RemoveToRead(ctx, p.userID(), input.ID); err != nil {
		return nil, err
	}
	return nil, nil
}

func (s *Server) handleMyRatings(ctx context.Context, input *PersonalListInput) (*RatingEntriesOutput, error) {
	p, err := s.authorize(ctx, authz.ObjectRatings, authz.ActionRead)
	if err != nil {
		return nil, err
	}
	entries, err := s.services.Ratings.YourRatings(ctx, p.userID(), input.Sort, input.page())
	if err != nil {
		return nil, err
	}
	return &RatingEntriesOutput{Body: entries}, nil
}

func (s *Server) handleMyToRead(ctx context.Context, input *PersonalListInput) (*ToReadEntriesOutput, error) {
	p, err := s.authorize(ctx, authz.ObjectRatings, authz.ActionRead)
	if err != nil {
		return nil, err
	}
	entries, err := s.services.Ratings.YourToRead(ctx, p.userID(), input.Sort, input.page())
	if err != nil {
		return nil, err
	}
	return &ToReadEntriesOutput{Body: entries}, nil
}

func (s *Server) handleMyReviews(ctx context.Context, input *PersonalListInput) (*ReviewEntriesOutput, error) {
	p, err := s.authorize(ctx, authz.ObjectRatings, authz.ActionRead)
	if err != nil {
		return nil, err
	}
	entries, err := s.services.Ratings.YourReviews(ctx, p.userID(), input.Sort, input.page())
	if err != nil {
		return nil, err
	}
	return &ReviewEntriesOutput{Body: entries}, nil
}
