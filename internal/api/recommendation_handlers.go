package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/listenupapp/shelfmark/internal/authz"
	"github.com/listenupapp/shelfmark/internal/domain"
)

func (s *Server) registerRecommendationRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "recommendedForYou",
		Method:      http.MethodGet,
		Path:        "/api/v1/recommendations",
		Summary:     "Recommended for you",
		Description: "Books rated 5 by readers who also rated 5 the books you rated 5, excluding your own 5-star books",
		Tags:        []string{"Recommendations"},
		Security:    bearerSecurity,
	}, s.handleRecommendedForYou)

	huma.Register(s.api, huma.Operation{
		OperationID: "recommendedForBook",
		Method:      http.MethodGet,
		Path:        "/api/v1/books/{id}/recommendations",
		Summary:     "Recommended for a book",
		Description: "Books rated 5 by readers who rated this book 5, excluding books rated 5 by anyone in the system",
		Tags:        []string{"Recommendations"},
		Security:    bearerSecurity,
	}, s.handleRecommendedForBook)
}

// RecommendationsOutput wraps personal recommendations for Huma.
type RecommendationsOutput struct {
	Body *domain.Recommendations
}

// BookListOutput wraps a list of book summaries for Huma.
type BookListOutput struct {
	Body []domain.BookSummary
}

func (s *Server) handleRecommendedForYou(ctx context.Context, _ *struct{}) (*RecommendationsOutput, error) {
	p, err := s.authorize(ctx, authz.ObjectRatings, authz.ActionRead)
	if err != nil {
		return nil, err
	}
	recs, err := s.services.Recommendations.RecommendedForYou(ctx, p.userID())
	if err != nil {
		return nil, err
	}
	return &RecommendationsOutput{Body: recs}, nil
}

func (s *Server) handleRecommendedForBook(ctx context.Context, input *BookIDInput) (*BookListOutput, error) {
	p, err := s.authorize(ctx, authz.ObjectRatings, authz.ActionRead)
	if err != nil {
		return nil, err
	}
	books, err := s.services.Recommendations.RecommendedForBook(ctx, p.userID(), input.ID)
	if err != nil {
		return nil, err
	}
	return &BookListOutput{Body: books}, nil
}
