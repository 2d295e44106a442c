package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/listenupapp/shelfmark/internal/authz"
	"github.com/listenupapp/shelfmark/internal/domain"
	"github.com/listenupapp/shelfmark/internal/search"
	"github.com/listenupapp/shelfmark/internal/service"
)

func (s *Server) registerSearchRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "searchBooks",
		Method:      http.MethodPost,
		Path:        "/api/v1/search",
		Summary:     "Search books",
		Description: "Filters the catalog by title, author, genre, average rating range and review presence. " +
			"For logged-in callers the complete result list is saved as a snapshot and its id returned.",
		Tags: []string{"Search"},
	}, s.handleSearch)

	huma.Register(s.api, huma.Operation{
		OperationID: "quickSearch",
		Method:      http.MethodGet,
		Path:        "/api/v1/search/quick",
		Summary:     "Quick search",
		Description: "Full-text search over titles, authors and genres with genre facets",
		Tags:        []string{"Search"},
	}, s.handleQuickSearch)

	huma.Register(s.api, huma.Operation{
		OperationID: "listSavedSearches",
		Method:      http.MethodGet,
		Path:        "/api/v1/search/saved",
		Summary:     "List saved searches",
		Description: "Lists the caller's search snapshots, newest first",
		Tags:        []string{"Search"},
		Security:    bearerSecurity,
	}, s.handleListSavedSearches)

	huma.Register(s.api, huma.Operation{
		OperationID: "getSavedSearch",
		Method:      http.MethodGet,
		Path:        "/api/v1/search/saved/{id}",
		Summary:     "Get saved search",
		Description: "Returns a snapshot with its full result list. Only the owner (or an admin) may read it.",
		Tags:        []string{"Search"},
		Security:    bearerSecurity,
	}, s.handleGetSavedSearch)

	huma.Register(s.api, huma.Operation{
		OperationID:   "deleteSavedSearch",
		Method:        http.MethodDelete,
		Path:          "/api/v1/search/saved/{id}",
		Summary:       "Delete saved search",
		Tags:          []string{"Search"},
		Security:      bearerSecurity,
		DefaultStatus: http.StatusNoContent,
	}, s.handleDeleteSavedSearch)
}

// === DTOs ===

// SearchRequest holds the search filters. Every field is optional.
type SearchRequest struct {
	Title         string `json:"title,omitempty" doc:"Case-insensitive title substring"`
	Author        string `json:"author,omitempty" doc:"Case-insensitive author name substring"`
	Genre         string `json:"genre,omitempty" doc:"Case-insensitive genre name substring"`
	RatingMin     *int   `json:"rating_min,omitempty" doc:"Lowest average rating (1-5)"`
	RatingMax     *int   `json:"rating_max,omitempty" doc:"Highest average rating (1-5)"`
	RequireReview bool   `json:"require_review,omitempty" doc:"Only books with at least one review"`
	SortBy        string `json:"sort_by,omitempty" doc:"rating_asc or rating_desc; unrated books last"`
}

// SearchInput wraps a search request for Huma.
type SearchInput struct {
	PageParams
	Body SearchRequest
}

// SearchOutput wraps a search response for Huma.
type SearchOutput struct {
	Body *service.SearchResponse
}

// QuickSearchInput is the query of a quick search.
type QuickSearchInput struct {
	Query string `query:"q" doc:"Search text"`
	Genre string `query:"genre" doc:"Exact genre filter"`
	Limit int    `query:"limit" doc:"Maximum hits (default 10, max 50)"`
}

// QuickSearchOutput wraps quick-search results for Huma.
type QuickSearchOutput struct {
	Body *search.Result
}

// SavedSearchIDInput selects a snapshot.
type SavedSearchIDInput struct {
	ID string `path:"id" doc:"Saved search ID"`
}

// SavedSearchOutput wraps a snapshot for Huma.
type SavedSearchOutput struct {
	Body *domain.SavedSearch
}

// SavedSearchesOutput wraps a snapshot listing for Huma.
type SavedSearchesOutput struct {
	Body []domain.SavedSearchInfo
}

// === Handlers ===

func (s *Server) handleSearch(ctx context.Context, input *SearchInput) (*SearchOutput, error) {
	p, err := s.authorize(ctx, authz.ObjectSearch, authz.ActionRead)
	if err != nil {
		return nil, err
	}
	criteria := domain.SearchCriteria{
		Title:         input.Body.Title,
		Author:        input.Body.Author,
		Genre:         input.Body.Genre,
		RatingMin:     input.Body.RatingMin,
		RatingMax:     input.Body.RatingMax,
		RequireReview: input.Body.RequireReview,
		SortBy:        domain.SearchSort(input.Body.SortBy),
	}
	resp, err := s.services.Search.Search(ctx, p.userID(), criteria, input.page())
	if err != nil {
		return nil, err
	}
	return &SearchOutput{Body: resp}, nil
}

func (s *Server) handleQuickSearch(ctx context.Context, input *QuickSearchInput) (*QuickSearchOutput, error) {
	if _, err := s.authorize(ctx, authz.ObjectSearch, authz.ActionRead); err != nil {
		return nil, err
	}
	result, err := s.services.Search.QuickSearch(ctx, service.QuickSearchRequest{
		Query: input.Query,
		Genre: input.Genre,
		Limit: input.Limit,
	})
	if err != nil {
		return nil, err
	}
	return &QuickSearchOutput{Body: result}, nil
}

func (s *Server) handleListSavedSearches(ctx context.Context, _ *struct{}) (*SavedSearchesOutput, error) {
	p, err := s.authorize(ctx, authz.ObjectSearch, authz.ActionWrite)
	if err != nil {
		return nil, err
	}
	searches, err := s.services.Search.ListSavedSearches(ctx, p.userID())
	if err != nil {
		return nil, err
	}
	return &SavedSearchesOutput{Body: searches}, nil
}

func (s *Server) handleGetSavedSearch(ctx context.Context, input *SavedSearchIDInput) (*SavedSearchOutput, error) {
	p, err := s.authorize(ctx, authz.ObjectSearch, authz.ActionWrite)
	if err != nil {
		return nil, err
	}
	saved, err := s.services.Search.LoadSavedSearch(ctx, p.User, input.ID)
	if err != nil {
		return nil, err
	}
	return &SavedSearchOutput{Body: saved}, nil
}

func (s *Server) handleDeleteSavedSearch(ctx context.Context, input *SavedSearchIDInput) (*struct{}, error) {
	p, err := s.authorize(ctx, authz.ObjectSearch, authz.ActionWrite)
	if err != nil {
		return nil, err
	}
	if err := s.services.Search.DeleteSavedSearch(ctx, p.User, input.ID); err != nil {
		return nil, err
	}
	return nil, nil
}
