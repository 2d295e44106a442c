package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/listenupapp/shelfmark/internal/domain"
	"github.com/listenupapp/shelfmark/internal/store"
)

// homeListSize is the length of each list on the home page.
const homeListSize = 5

// DashboardService serves the home page, the rankings and the admin overview.
type DashboardService struct {
	store     store.Store
	snapshots SnapshotStore
	pageSize  int
	logger    *slog.Logger
}

// NewDashboardService creates a new dashboard service.
func NewDashboardService(store store.Store, snapshots SnapshotStore, pageSize int, logger *slog.Logger) *DashboardService {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &DashboardService{
		store:     store,
		snapshots: snapshots,
		pageSize:  pageSize,
		logger:    logger,
	}
}

// Home returns the top five books by rating, review count and to-read count.
func (s *DashboardService) Home(ctx context.Context) (*domain.Home, error) {
	first := store.Page{Number: 1, Size: homeListSize}

	rated, err := s.store.TopRated(ctx, first)
	if err != nil {
		return nil, fmt.Errorf("top rated: %w", err)
	}
	reviewed, err := s.store.MostReviewed(ctx, first)
	if err != nil {
		return nil, fmt.Errorf("most reviewed: %w", err)
	}
	listed, err := s.store.MostToRead(ctx, first)
	if err != nil {
		return nil, fmt.Errorf("most to-read: %w", err)
	}

	return &domain.Home{
		TopRated:     rated.Items,
		MostReviewed: reviewed.Items,
		MostToRead:   listed.Items,
	}, nil
}

// AllRatings ranks every rated book by average rating.
func (s *DashboardService) AllRatings(ctx context.Context, page store.Page) (*store.PageResult[domain.RankedBook], error) {
	return s.store.TopRated(ctx, page.Normalize(s.pageSize))
}

// AllReviews ranks every book by review count.
func (s *DashboardService) AllReviews(ctx context.Context, page store.Page) (*store.PageResult[domain.RankedBook], error) {
	return s.store.MostReviewed(ctx, page.Normalize(s.pageSize))
}

// AllReadListed ranks every book by how many readers want to read it.
func (s *DashboardService) AllReadListed(ctx context.Context, page store.Page) (*store.PageResult[domain.RankedBook], error) {
	return s.store.MostToRead(ctx, page.Normalize(s.pageSize))
}

// AdminOverview counts every kind of record, saved searches included.
func (s *DashboardService) AdminOverview(ctx context.Context) (*domain.Overview, error) {
	overview, err := s.store.Counts(ctx)
	if err != nil {
		return nil, fmt.Errorf("count records: %w", err)
	}
	overview.SavedSearches, err = s.snapshots.CountSearches(ctx)
	if err != nil {
		return nil, fmt.Errorf("count saved searches: %w", err)
	}
	return overview, nil
}
