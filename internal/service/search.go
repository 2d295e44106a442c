package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/listenupapp/shelfmark/internal/domain"
	domainerrors "github.com/listenupapp/shelfmark/internal/errors"
	"github.com/listenupapp/shelfmark/internal/id"
	"github.com/listenupapp/shelfmark/internal/metrics"
	"github.com/listenupapp/shelfmark/internal/normalize"
	"github.com/listenupapp/shelfmark/internal/search"
	"github.com/listenupapp/shelfmark/internal/store"
	"github.com/listenupapp/shelfmark/internal/validation"
)

// SnapshotStore persists saved search snapshots.
type SnapshotStore interface {
	SaveSearch(ctx context.Context, search *domain.SavedSearch) error
	GetSearch(ctx context.Context, id string) (*domain.SavedSearch, error)
	ListUserSearches(ctx context.Context, userID int64) ([]domain.SavedSearchInfo, error)
	DeleteSearch(ctx context.Context, id string) error
	CountSearches(ctx context.Context) (int, error)
}

// SearchService runs catalog searches, keeps snapshots of them and serves quick search.
type SearchService struct {
	store     store.Store
	snapshots SnapshotStore
	index     *search.SearchIndex
	validator *validation.Validator
	pageSize  int
	logger    *slog.Logger
}

// NewSearchService creates a new search service.
func NewSearchService(
	store store.Store,
	snapshots SnapshotStore,
	index *search.SearchIndex,
	pageSize int,
	logger *slog.Logger,
) *SearchService {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &SearchService{
		store:     store,
		snapshots: snapshots,
		index:     index,
		validator: validation.New(),
		pageSize:  pageSize,
		logger:    logger,
	}
}

// criteriaRules validates search criteria.
type criteriaRules struct {
	Title     string `json:"title" validate:"max=256"`
	Author    string `json:"author" validate:"max=256"`
	Genre     string `json:"genre" validate:"max=256"`
	RatingMin *int   `json:"rating_min" validate:"omitempty,gte=1,lte=5"`
	RatingMax *int   `json:"rating_max" validate:"omitempty,gte=1,lte=5"`
	SortBy    string `json:"sort_by" validate:"omitempty,oneof=rating_asc rating_desc"`
}

// SearchResponse is one page of a search and the snapshot id when one was saved.
type SearchResponse struct {
	SearchID string                                 `json:"search_id,omitempty"`
	Criteria domain.SearchCriteria                  `json:"criteria"`
	Results  *store.PageResult[domain.SearchResult] `json:"results"`
}

// Search runs a filtered catalog search. When userID is non-zero the complete
// result list is saved as a snapshot owned by that user.
func (s *SearchService) Search(ctx context.Context, userID int64, criteria domain.SearchCriteria, page store.Page) (*SearchResponse, error) {
	criteria.Title = normalize.Name(criteria.Title)
	criteria.Author = normalize.Name(criteria.Author)
	criteria.Genre = normalize.Name(criteria.Genre)

	if err := s.validateCriteria(criteria); err != nil {
		return nil, err
	}

	results, err := s.store.SearchBooks(ctx, criteria)
	if err != nil {
		return nil, fmt.Errorf("search books: %w", err)
	}

	resp := &SearchResponse{
		Criteria: criteria,
		Results:  store.Paginate(results, page.Normalize(s.pageSize)),
	}

	if userID != 0 {
		snapshot := &domain.SavedSearch{
			ID:        id.NewSearchID(),
			UserID:    userID,
			Timestamp: time.Now().UTC(),
			Criteria:  criteria,
			Results:   results,
		}
		if err := s.snapshots.SaveSearch(ctx, snapshot); err != nil {
			return nil, fmt.Errorf("save search: %w", err)
		}
		resp.SearchID = snapshot.ID
		s.logger.Debug("Search saved", "search_id", snapshot.ID, "user_id", userID, "results", len(results))
	}

	metrics.RecordSearch(len(results), resp.SearchID != "")
	return resp, nil
}

func (s *SearchService) validateCriteria(c domain.SearchCriteria) error {
	rules := criteriaRules{
		Title:     c.Title,
		Author:    c.Author,
		Genre:     c.Genre,
		RatingMin: c.RatingMin,
		RatingMax: c.RatingMax,
		SortBy:    string(c.SortBy),
	}
	if err := s.validator.Validate(rules); err != nil {
		return err
	}
	if c.RatingMin != nil && c.RatingMax != nil && *c.RatingMin > *c.RatingMax {
		return domainerrors.ValidationWithDetails("validation failed",
			map[string]string{"rating_min": "must be less than or equal to rating_max"})
	}
	return nil
}

// LoadSavedSearch returns a snapshot. Only its owner or an admin may read it; anyone
// else gets NOT_FOUND so that ids do not leak.
func (s *SearchService) LoadSavedSearch(ctx context.Context, viewer *domain.User, searchID string) (*domain.SavedSearch, error) {
	return s.ownedSnapshot(ctx, viewer, searchID, true)
}

// ListSavedSearches returns the user's snapshots, newest first.
func (s *SearchService) ListSavedSearches(ctx context.Context, userID int64) ([]domain.SavedSearchInfo, error) {
	return s.snapshots.ListUserSearches(ctx, userID)
}

// DeleteSavedSearch removes one of the viewer's snapshots.
func (s *SearchService) DeleteSavedSearch(ctx context.Context, viewer *domain.User, searchID string) error {
	if _, err := s.ownedSnapshot(ctx, viewer, searchID, false); err != nil {
		return err
	}
	if err := s.snapshots.DeleteSearch(ctx, searchID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domainerrors.NotFound("saved search not found")
		}
		return fmt.Errorf("delete search: %w", err)
	}
	return nil
}

func (s *SearchService) ownedSnapshot(ctx context.Context, viewer *domain.User, searchID string, adminMayRead bool) (*domain.SavedSearch, error) {
	notFound := domainerrors.NotFound("saved search not found")
	if viewer == nil || !id.IsSearchID(searchID) {
		return nil, notFound
	}

	snapshot, err := s.snapshots.GetSearch(ctx, searchID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, notFound
		}
		return nil, fmt.Errorf("get search: %w", err)
	}

	if snapshot.UserID != viewer.ID && !(adminMayRead && viewer.IsAdmin()) {
		return nil, notFound
	}
	return snapshot, nil
}

// QuickSearchRequest is a full-text query.
type QuickSearchRequest struct {
	Query string `json:"q" validate:"max=200"`
	Genre string `json:"genre" validate:"max=256"`
	Limit int    `json:"limit" validate:"gte=0,lte=50"`
}

// QuickSearch runs a full-text search over titles, authors and genres.
func (s *SearchService) QuickSearch(ctx context.Context, req QuickSearchRequest) (*search.Result, error) {
	req.Query = normalize.Name(req.Query)
	req.Genre = normalize.Name(req.Genre)
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	result, err := s.index.Search(ctx, search.Params{
		Query:  req.Query,
		Genre:  req.Genre,
		Limit:  req.Limit,
		Facets: true,
	})
	if err != nil {
		return nil, fmt.Errorf("quick search: %w", err)
	}

	metrics.RecordQuickSearch()
	return result, nil
}

// EnsureIndex rebuilds the quick-search index from the catalog when the number of
// indexed documents differs from the number of books.
func (s *SearchService) EnsureIndex(ctx context.Context) error {
	indexed, err := s.index.DocumentCount()
	if err != nil {
		return fmt.Errorf("count indexed documents: %w", err)
	}
	books, err := s.store.CountBooks(ctx)
	if err != nil {
		return fmt.Errorf("count books: %w", err)
	}
	if indexed == uint64(books) {
		return nil
	}

	return s.Reindex(ctx)
}

// Reindex drops the quick-search index and fills it from the catalog.
func (s *SearchService) Reindex(ctx context.Context) error {
	start := time.Now()

	books, err := s.store.ListAllBookSummaries(ctx)
	if err != nil {
		return fmt.Errorf("list books: %w", err)
	}
	if err := s.index.Rebuild(); err != nil {
		return err
	}
	if err := s.index.IndexBooks(ctx, books); err != nil {
		return fmt.Errorf("index books: %w", err)
	}

	s.logger.Info("Search index rebuilt", "books", len(books), "duration", time.Since(start))
	return nil
}
