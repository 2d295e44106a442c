package api

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/listenupapp/shelfmark/internal/domain"
	"github.com/listenupapp/shelfmark/internal/service"
	"github.com/listenupapp/shelfmark/internal/store"
)

// TestScenario_RegisterRateAndView walks a new reader from sign-up to a rated book.
func TestScenario_RegisterRateAndView(t *testing.T) {
	ts := setupTestServer(t)
	adminToken := ts.admin(t, "admin@x.com")

	token := ts.member(t, "a@x.com")
	bookID := ts.addBook(t, adminToken, "1984", "Orwell", "Dystopian")
	ts.rate(t, token, bookID, 5)

	resp := ts.api.Get(fmt.Sprintf("/api/v1/books/%d", bookID), bearer(token))
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	details := decode[domain.BookDetails](t, resp.Body).Data
	require.NotNil(t, details.AvgRating)
	assert.InDelta(t, 5.0, *details.AvgRating, 0.001)
	require.NotNil(t, details.MyRating)
	assert.Equal(t, 5, *details.MyRating)
	assert.Equal(t, "Orwell", details.Author.Name)
	require.Len(t, details.Genres, 1)
	assert.Equal(t, "Dystopian", details.Genres[0].Name)
}

// TestScenario_TwoReaderRecommendations checks collaborative recommendations:
// A and B both love S, B also loves X and Y, and a third reader rates Y 3.
func TestScenario_TwoReaderRecommendations(t *testing.T) {
	ts := setupTestServer(t)
	adminToken := ts.admin(t, "admin@x.com")
	a := ts.member(t, "a@x.com")
	b := ts.member(t, "b@x.com")
	c := ts.member(t, "c@x.com")

	shared := ts.addBook(t, adminToken, "Shared", "Author", "Genre")
	x := ts.addBook(t, adminToken, "X", "Author", "Genre")
	y := ts.addBook(t, adminToken, "Y", "Author", "Genre")

	ts.rate(t, a, shared, 5)
	ts.rate(t, b, shared, 5)
	ts.rate(t, b, x, 5)
	ts.rate(t, b, y, 5)
	ts.rate(t, c, y, 3)

	resp := ts.api.Get("/api/v1/recommendations", bearer(a))
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	recs := decode[domain.Recommendations](t, resp.Body).Data
	assert.False(t, recs.NoHighRatings)
	require.Len(t, recs.ForYou, 2)
	assert.Equal(t, x, recs.ForYou[0].ID)
	assert.Equal(t, y, recs.ForYou[1].ID)

	require.Len(t, recs.ByBook, 1)
	assert.Equal(t, shared, recs.ByBook[0].Book.ID)

	// c has no 5-star ratings yet.
	resp = ts.api.Get("/api/v1/recommendations", bearer(c))
	require.Equal(t, http.StatusOK, resp.Code)
	assert.True(t, decode[domain.Recommendations](t, resp.Body).Data.NoHighRatings)

	resp = ts.api.Get("/api/v1/recommendations")
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
}

func TestRankingsAndHome(t *testing.T) {
	ts := setupTestServer(t)
	adminToken := ts.admin(t, "admin@x.com")
	reader := ts.member(t, "r@x.com")

	low := ts.addBook(t, adminToken, "Low", "Author", "Genre")
	high := ts.addBook(t, adminToken, "High", "Author", "Genre")
	ts.rate(t, reader, low, 2)
	ts.rate(t, reader, high, 5)

	resp := ts.api.Get("/api/v1/rankings/ratings")
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	ranked := decode[store.PageResult[domain.RankedBook]](t, resp.Body).Data
	require.Len(t, ranked.Items, 2)
	assert.Equal(t, high, ranked.Items[0].BookID)

	resp = ts.api.Get("/api/v1/home")
	require.Equal(t, http.StatusOK, resp.Code)
	home := decode[domain.Home](t, resp.Body).Data
	require.NotEmpty(t, home.TopRated)
	assert.Equal(t, high, home.TopRated[0].BookID)

	for _, path := range []string{"/api/v1/rankings/reviews", "/api/v1/rankings/to-read"} {
		assert.Equal(t, http.StatusOK, ts.api.Get(path).Code, path)
	}
}

func TestAdminEndpoints(t *testing.T) {
	ts := setupTestServer(t)
	adminToken := ts.admin(t, "admin@x.com")
	memberToken := ts.member(t, "m@x.com")

	resp := ts.api.Get("/api/v1/admin/overview", bearer(memberToken))
	assert.Equal(t, http.StatusForbidden, resp.Code)

	resp = ts.api.Post("/api/v1/admin/seed/books", bearer(adminToken), map[string]any{
		"books": []map[string]any{
			{"author": "George Orwell", "title": "1984", "genres": "Dystopian, Classic"},
			{"author": "Jane Austen", "title": "Emma", "genres": "Romance"},
		},
	})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	loaded := decode[service.BookLoadResult](t, resp.Body).Data
	assert.Equal(t, 2, loaded.Added)

	resp = ts.api.Post("/api/v1/admin/seed/users", bearer(adminToken), map[string]any{
		"users": []map[string]any{
			{"first_name": "Ann", "last_name": "Lee", "email": "ann@x.com", "password": "pw1"},
		},
	})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	assert.Equal(t, 1, decode[service.UserLoadResult](t, resp.Body).Data.Added)

	resp = ts.api.Post("/api/v1/admin/seed/ratings", bearer(adminToken))
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	assert.False(t, decode[service.RatingLoadResult](t, resp.Body).Data.Refused)

	resp = ts.api.Get("/api/v1/admin/overview", bearer(adminToken))
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	overview := decode[domain.Overview](t, resp.Body).Data
	assert.Equal(t, 2, overview.Books)
	assert.Equal(t, 3, overview.Users)
}
