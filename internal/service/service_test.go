package service

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/listenupapp/shelfmark/internal/auth"
	"github.com/listenupapp/shelfmark/internal/domain"
	"github.com/listenupapp/shelfmark/internal/search"
	"github.com/listenupapp/shelfmark/internal/store/kv"
	"github.com/listenupapp/shelfmark/internal/store/sqlite"
)

// testEnv wires every service on a temporary database, an in-memory snapshot
// store and an in-memory search index.
type testEnv struct {
	store     *sqlite.Store
	snapshots *kv.Store
	index     *search.SearchIndex
	tokens    *auth.TokenService

	sessions  *SessionService
	auth      *AuthService
	catalog   *CatalogService
	ratings   *RatingService
	search    *SearchService
	recs      *RecommendationService
	dashboard *DashboardService
	seed      *SeedService
}

// cheapPasswordParams keeps bulk user loads fast in tests.
var cheapPasswordParams = auth.PasswordParams{
	Memory:      1024,
	Iterations:  1,
	Parallelism: 1,
	SaltLength:  16,
	KeyLength:   32,
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	logger := slog.New(slog.DiscardHandler)

	st, err := sqlite.Open(filepath.Join(t.TempDir(), "test.db"), logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	snapshots, err := kv.OpenInMemory(logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = snapshots.Close() })

	index, err := search.NewSearchIndex(search.Options{InMemory: true, Logger: logger})
	require.NoError(t, err)
	t.Cleanup(func() { _ = index.Close() })
	st.SetSearchIndexer(index)

	key := make([]byte, 32)
	for i := range key {
		key[i] = byte(i * 7)
	}
	tokens, err := auth.NewTokenService(key, 15*time.Minute, time.Hour)
	require.NoError(t, err)

	sessions := NewSessionService(st, tokens, 0, logger)
	return &testEnv{
		store:     st,
		snapshots: snapshots,
		index:     index,
		tokens:    tokens,
		sessions:  sessions,
		auth:      NewAuthService(st, tokens, sessions, logger),
		catalog:   NewCatalogService(st, 20, logger),
		ratings:   NewRatingService(st, 20, logger),
		search:    NewSearchService(st, snapshots, index, 20, logger),
		recs:      NewRecommendationService(st, logger),
		dashboard: NewDashboardService(st, snapshots, 20, logger),
		seed: NewSeedService(st, SeedOptions{
			Rand: rand.New(rand.NewPCG(1, 2)),
			HashPassword: func(pw string) (string, error) {
				return auth.HashPasswordWithParams(pw, cheapPasswordParams)
			},
		}, logger),
	}
}

func (e *testEnv) register(t *testing.T, email string) *domain.User {
	t.Helper()
	user, err := e.auth.Register(context.Background(), RegisterRequest{
		Email:           email,
		Password:        "secret",
		ConfirmPassword: "secret",
		Name:            "Reader",
	})
	require.NoError(t, err)
	return user
}

func (e *testEnv) admin(t *testing.T, email string) *domain.User {
	t.Helper()
	user := e.register(t, email)
	require.NoError(t, e.store.SetUserRole(context.Background(), email, domain.RoleAdmin))
	user.Role = domain.RoleAdmin
	return user
}

// addBook creates a book, reusing the author and genres when they already exist.
func (e *testEnv) addBook(t *testing.T, title, author string, genres ...string) int64 {
	t.Helper()
	ctx := context.Background()

	a, err := e.store.GetAuthorByName(ctx, author)
	if err != nil {
		a, err = e.catalog.AddAuthor(ctx, author)
		require.NoError(t, err)
	}

	genreIDs := make([]int64, 0, len(genres))
	for _, name := range genres {
		g, err := e.store.GetGenreByName(ctx, name)
		if err != nil {
			g, err = e.catalog.AddGenre(ctx, name)
			require.NoError(t, err)
		}
		genreIDs = append(genreIDs, g.ID)
	}

	book, err := e.catalog.AddBook(ctx, AddBookRequest{Title: title, AuthorID: a.ID, GenreIDs: genreIDs})
	require.NoError(t, err)
	return book.ID
}

func (e *testEnv) rate(t *testing.T, userID, bookID int64, value int) {
	t.Helper()
	_, err := e.ratings.RateBook(context.Background(), userID, bookID, value)
	require.NoError(t, err)
}

func intPtr(v int) *int { return &v }
