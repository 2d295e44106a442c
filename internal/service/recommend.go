package service

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/listenupapp/shelfmark/internal/domain"
	"github.com/listenupapp/shelfmark/internal/recommend"
	"github.com/listenupapp/shelfmark/internal/store"
)

// RecommendationService suggests books from the 5-star ratings of like-minded readers.
type RecommendationService struct {
	store  store.Store
	logger *slog.Logger
}

// NewRecommendationService creates a new recommendation service.
func NewRecommendationService(store store.Store, logger *slog.Logger) *RecommendationService {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &RecommendationService{store: store, logger: logger}
}

func (s *RecommendationService) graph(ctx context.Context) (*recommend.Graph, error) {
	pairs, err := s.store.ListFiveStarPairs(ctx)
	if err != nil {
		return nil, fmt.Errorf("list five-star ratings: %w", err)
	}
	return recommend.NewGraph(pairs), nil
}

// summaries loads the summaries of ids keyed by book id.
func (s *RecommendationService) summaries(ctx context.Context, ids []int64) (map[int64]domain.BookSummary, error) {
	books, err := s.store.GetBookSummaries(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("get book summaries: %w", err)
	}
	byID := make(map[int64]domain.BookSummary, len(books))
	for _, b := range books {
		byID[b.ID] = b
	}
	return byID, nil
}

func pick(byID map[int64]domain.BookSummary, ids []int64) []domain.BookSummary {
	out := make([]domain.BookSummary, 0, len(ids))
	for _, id := range ids {
		if b, ok := byID[id]; ok {
			out = append(out, b)
		}
	}
	return out
}

// RecommendedForYou returns the user's recommendations and one group per book
// they rated 5. A user without 5-star ratings gets NoHighRatings and empty lists.
func (s *RecommendationService) RecommendedForYou(ctx context.Context, userID int64) (*domain.Recommendations, error) {
	g, err := s.graph(ctx)
	if err != nil {
		return nil, err
	}

	loved := g.LovedBooks(userID)
	if len(loved) == 0 {
		return &domain.Recommendations{
			NoHighRatings: true,
			ForYou:        []domain.BookSummary{},
			ByBook:        []domain.RecommendationGroup{},
		}, nil
	}

	forYou := g.ForUser(userID)
	perBook := make([][]int64, len(loved))
	ids := slices.Concat(loved, forYou)
	for i, b := range loved {
		perBook[i] = g.ForBook(userID, b)
		ids = append(ids, perBook[i]...)
	}
	slices.Sort(ids)
	ids = slices.Compact(ids)

	byID, err := s.summaries(ctx, ids)
	if err != nil {
		return nil, err
	}

	recs := &domain.Recommendations{
		ForYou: recommend.Rank(pick(byID, forYou)),
		ByBook: make([]domain.RecommendationGroup, 0, len(loved)),
	}
	for i, b := range loved {
		book, ok := byID[b]
		if !ok {
			continue
		}
		recs.ByBook = append(recs.ByBook, domain.RecommendationGroup{
			Book:            book,
			Recommendations: recommend.Rank(pick(byID, perBook[i])),
		})
	}

	s.logger.Debug("Recommendations computed", "user_id", userID, "loved", len(loved), "for_you", len(recs.ForYou))
	return recs, nil
}

// RecommendedForBook returns books loved by readers who rated bookID 5, excluding
// every book the user rated 5. The list is empty unless the user rated bookID 5.
func (s *RecommendationService) RecommendedForBook(ctx context.Context, userID, bookID int64) ([]domain.BookSummary, error) {
	if _, err := s.store.GetBook(ctx, bookID); err != nil {
		return nil, bookNotFound(bookID, err)
	}

	g, err := s.graph(ctx)
	if err != nil {
		return nil, err
	}

	ids := g.ForBook(userID, bookID)
	if len(ids) == 0 {
		return []domain.BookSummary{}, nil
	}
	byID, err := s.summaries(ctx, ids)
	if err != nil {
		return nil, err
	}
	return recommend.Rank(pick(byID, ids)), nil
}
