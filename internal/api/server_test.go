package api

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/listenupapp/shelfmark/internal/auth"
	"github.com/listenupapp/shelfmark/internal/authz"
	"github.com/listenupapp/shelfmark/internal/domain"
	"github.com/listenupapp/shelfmark/internal/http/response"
	"github.com/listenupapp/shelfmark/internal/search"
	"github.com/listenupapp/shelfmark/internal/service"
	"github.com/listenupapp/shelfmark/internal/store/kv"
	"github.com/listenupapp/shelfmark/internal/store/sqlite"
)

const testCookie = "shelfmark_session"

// testEnvelope decodes the response envelope around T.
type testEnvelope[T any] struct {
	Success bool                `json:"success"`
	Data    T                   `json:"data"`
	Error   *response.ErrorBody `json:"error"`
}

// testServer wraps the API server for handler tests.
type testServer struct {
	*Server
	api   humatest.TestAPI
	store *sqlite.Store
}

func setupTestServer(t *testing.T, opts ...func(*Options)) *testServer {
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
		key[i] = byte(255 - i)
	}
	tokens, err := auth.NewTokenService(key, 15*time.Minute, time.Hour)
	require.NoError(t, err)

	sessions := service.NewSessionService(st, tokens, 0, logger)
	services := &Services{
		Auth:            service.NewAuthService(st, tokens, sessions, logger),
		Catalog:         service.NewCatalogService(st, 20, logger),
		Ratings:         service.NewRatingService(st, 20, logger),
		Search:          service.NewSearchService(st, snapshots, index, 20, logger),
		Recommendations: service.NewRecommendationService(st, logger),
		Dashboard:       service.NewDashboardService(st, snapshots, 20, logger),
		Seed: service.NewSeedService(st, service.SeedOptions{
			Rand: rand.New(rand.NewPCG(7, 7)),
			HashPassword: func(pw string) (string, error) {
				return auth.HashPasswordWithParams(pw, auth.PasswordParams{
					Memory: 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32,
				})
			},
		}, logger),
	}

	enforcer, err := authz.NewEnforcer()
	require.NoError(t, err)

	options := Options{
		CookieName: testCookie,
		HealthChecks: []HealthCheck{
			{Name: "database", Check: st.Ping},
		},
	}
	for _, o := range opts {
		o(&options)
	}

	srv := NewServer(services, enforcer, options, logger)
	t.Cleanup(srv.Close)

	return &testServer{
		Server: srv,
		api:    humatest.Wrap(t, srv.API()),
		store:  st,
	}
}

func decode[T any](t *testing.T, resp interface{ Bytes() []byte }) testEnvelope[T] {
	t.Helper()
	var envelope testEnvelope[T]
	require.NoError(t, json.Unmarshal(resp.Bytes(), &envelope))
	return envelope
}

func bearer(token string) string {
	return "Authorization: Bearer " + token
}

// register creates a member through the API.
func (ts *testServer) register(t *testing.T, email, password string) {
	t.Helper()
	resp := ts.api.Post("/api/v1/auth/register", map[string]any{
		"email":            email,
		"password":         password,
		"confirm_password": password,
		"name":             "Reader",
	})
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
}

// login returns an access token.
func (ts *testServer) login(t *testing.T, email, password string) string {
	t.Helper()
	resp := ts.api.Post("/api/v1/auth/login", map[string]any{"email": email, "password": password})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	envelope := decode[service.AuthResponse](t, resp.Body)
	require.NotEmpty(t, envelope.Data.AccessToken)
	return envelope.Data.AccessToken
}

// member registers and logs in a member.
func (ts *testServer) member(t *testing.T, email string) string {
	t.Helper()
	ts.register(t, email, "pw1")
	return ts.login(t, email, "pw1")
}

// admin registers a user, promotes it and logs in.
func (ts *testServer) admin(t *testing.T, email string) string {
	t.Helper()
	ts.register(t, email, "pw1")
	require.NoError(t, ts.store.SetUserRole(context.Background(), email, domain.RoleAdmin))
	return ts.login(t, email, "pw1")
}

// addBook creates the author, genre and book through the API as an admin.
func (ts *testServer) addBook(t *testing.T, adminToken, title, author, genre string) int64 {
	t.Helper()

	authorID := ts.ensureNamed(t, adminToken, "/api/v1/authors", author)
	genreID := ts.ensureNamed(t, adminToken, "/api/v1/genres", genre)

	resp := ts.api.Post("/api/v1/books", bearer(adminToken), map[string]any{
		"title":     title,
		"author_id": authorID,
		"genre_ids": []int64{genreID},
	})
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	return decode[domain.BookSummary](t, resp.Body).Data.ID
}

func (ts *testServer) ensureNamed(t *testing.T, adminToken, path, name string) int64 {
	t.Helper()

	list := ts.api.Get(path)
	require.Equal(t, http.StatusOK, list.Code)
	for _, item := range decode[[]domain.Author](t, list.Body).Data {
		if item.Name == name {
			return item.ID
		}
	}

	resp := ts.api.Post(path, bearer(adminToken), map[string]any{"name": name})
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	return decode[domain.Author](t, resp.Body).Data.ID
}

func (ts *testServer) rate(t *testing.T, token string, bookID int64, value int) {
	t.Helper()
	resp := ts.api.Put(fmt.Sprintf("/api/v1/books/%d/rating", bookID), bearer(token), map[string]any{"rating": value})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
}

func TestHealth(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Get("/health")
	require.Equal(t, http.StatusOK, resp.Code)

	envelope := decode[HealthResponse](t, resp.Body)
	assert.True(t, envelope.Success)
	assert.Equal(t, "healthy", envelope.Data.Status)
	assert.Equal(t, "healthy", envelope.Data.Components["database"].Status)
}

func TestHealth_UnhealthyComponent(t *testing.T) {
	ts := setupTestServer(t, func(o *Options) {
		o.HealthChecks = append(o.HealthChecks, HealthCheck{
			Name:  "search",
			Check: func(context.Context) error { return fmt.Errorf("index closed") },
		})
	})

	resp := ts.api.Get("/health")
	require.Equal(t, http.StatusOK, resp.Code)

	envelope := decode[HealthResponse](t, resp.Body)
	assert.Equal(t, "unhealthy", envelope.Data.Status)
	assert.Equal(t, "index closed", envelope.Data.Components["search"].Message)
}

func TestUnknownRoute_UsesEnvelope(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Get("/api/v1/nope")
	assert.Equal(t, http.StatusNotFound, resp.Code)

	envelope := decode[any](t, resp.Body)
	assert.False(t, envelope.Success)
	require.NotNil(t, envelope.Error)
	assert.Equal(t, "NOT_FOUND", envelope.Error.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	ts := setupTestServer(t)

	ts.api.Get("/health")
	resp := ts.api.Get("/metrics")
	assert.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), "shelfmark_http_requests_total")
}

func TestOpenAPIDocument(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Get("/openapi.json")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), "/api/v1/books/{id}/rating")
}
