package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/listenupapp/shelfmark/internal/authz"
	"github.com/listenupapp/shelfmark/internal/domain"
	"github.com/listenupapp/shelfmark/internal/store"
)

func (s *Server) registerDashboardRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "home",
		Method:      http.MethodGet,
		Path:        "/api/v1/home",
		Summary:     "Home",
		Description: "Top five books by average rating, review count and read-list count",
		Tags:        []string{"Rankings"},
	}, s.handleHome)

	for _, r := range []struct {
		id, path, summary string
		list              func(context.Context, store.Page) (*store.PageResult[domain.RankedBook], error)
	}{
		{"rankingsRatings", "/api/v1/rankings/ratings", "Books by average rating", s.services.Dashboard.AllRatings},
		{"rankingsReviews", "/api/v1/rankings/reviews", "Books by review count", s.services.Dashboard.AllReviews},
		{"rankingsToRead", "/api/v1/rankings/to-read", "Books by read-list count", s.services.Dashboard.AllReadListed},
	} {
		huma.Register(s.api, huma.Operation{
			OperationID: r.id,
			Method:      http.MethodGet,
			Path:        r.path,
			Summary:     r.summary,
			Tags:        []string{"Rankings"},
		}, s.rankingHandler(r.list))
	}

	huma.Register(s.api, huma.Operation{
		OperationID: "adminOverview",
		Method:      http.MethodGet,
		Path:        "/api/v1/admin/overview",
		Summary:     "Admin overview",
		Description: "Counts of every kind of stored record. Admin only.",
		Tags:        []string{"Admin"},
		Security:    bearerSecurity,
	}, s.handleAdminOverview)
}

// HomeOutput wraps the home lists for Huma.
type HomeOutput struct {
	Body *domain.Home
}

// RankingInput selects a page of a ranking.
type RankingInput struct {
	PageParams
}

// RankingOutput wraps a page of ranked books for Huma.
type RankingOutput struct {
	Body *store.PageResult[domain.RankedBook]
}

// OverviewOutput wraps the admin counts for Huma.
type OverviewOutput struct {
	Body *domain.Overview
}

func (s *Server) handleHome(ctx context.Context, _ *struct{}) (*HomeOutput, error) {
	if _, err := s.authorize(ctx, authz.ObjectCatalog, authz.ActionRead); err != nil {
		return nil, err
	}
	home, err := s.services.Dashboard.Home(ctx)
	if err != nil {
		return nil, err
	}
	return &HomeOutput{Body: home}, nil
}

func (s *Server) rankingHandler(
	list func(context.Context, store.Page) (*store.PageResult[domain.RankedBook], error),
) func(context.Context, *RankingInput) (*RankingOutput, error) {
	return func(ctx context.Context, input *RankingInput) (*RankingOutput, error) {
		if _, err := s.authorize(ctx, authz.ObjectCatalog, authz.ActionRead); err != nil {
			return nil, err
		}
		page, err := list(ctx, input.page())
		if err != nil {
			return nil, err
		}
		return &RankingOutput{Body: page}, nil
	}
}

func (s *Server) handleAdminOverview(ctx context.Context, _ *struct{}) (*OverviewOutput, error) {
	if _, err := s.authorize(ctx, authz.ObjectAdmin, authz.ActionRead); err != nil {
		return nil, err
	}
	overview, err := s.services.Dashboard.AdminOverview(ctx)
	if err != nil {
		return nil, err
	}
	return &OverviewOutput{Body: overview}, nil
}
