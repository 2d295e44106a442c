package api

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/listenupapp/shelfmark/internal/domain"
	"github.com/listenupapp/shelfmark/internal/store"
)

func TestRateBook_Validation(t *testing.T) {
	ts := setupTestServer(t)
	adminToken := ts.admin(t, "admin@x.com")
	token := ts.member(t, "a@x.com")
	bookID := ts.addBook(t, adminToken, "1984", "Orwell", "Dystopian")
	path := fmt.Sprintf("/api/v1/books/%d/rating", bookID)

	resp := ts.api.Put(path, map[string]any{"rating": 4})
	assert.Equal(t, http.StatusUnauthorized, resp.Code)

	resp = ts.api.Put(path, bearer(token), map[string]any{"rating": 6})
	assert.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Equal(t, "VALIDATION_ERROR", decode[any](t, resp.Body).Error.Code)

	resp = ts.api.Put("/api/v1/books/999/rating", bearer(token), map[string]any{"rating": 3})
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestRateBook_Upserts(t *testing.T) {
	ts := setupTestServer(t)
	adminToken := ts.admin(t, "admin@x.com")
	token := ts.member(t, "a@x.com")
	bookID := ts.addBook(t, adminToken, "1984", "Orwell", "Dystopian")

	ts.rate(t, token, bookID, 2)
	ts.rate(t, token, bookID, 4)

	resp := ts.api.Get("/api/v1/me/ratings", bearer(token))
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	page := decode[store.PageResult[domain.RatingEntry]](t, resp.Body).Data
	require.Len(t, page.Items, 1)
	assert.Equal(t, 4, page.Items[0].Rating)
	assert.Equal(t, "Orwell", page.Items[0].AuthorName)
}

func TestReviews(t *testing.T) {
	ts := setupTestServer(t)
	adminToken := ts.admin(t, "admin@x.com")
	alice := ts.member(t, "alice@x.com")
	bob := ts.member(t, "bob@x.com")
	bookID := ts.addBook(t, adminToken, "1984", "Orwell", "Dystopian")
	reviewPath := fmt.Sprintf("/api/v1/books/%d/review", bookID)

	resp := ts.api.Put(reviewPath, bearer(alice), map[string]any{"body": "   "})
	assert.Equal(t, http.StatusBadRequest, resp.Code)

	ts.rate(t, alice, bookID, 2)
	ts.rate(t, bob, bookID, 5)
	for _, token := range []string{alice, bob} {
		resp = ts.api.Put(reviewPath, bearer(token), map[string]any{"body": "Thoughts"})
		require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	}

	resp = ts.api.Get(fmt.Sprintf("/api/v1/books/%d/reviews?sort=best", bookID))
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	reviews := decode[[]domain.BookReview](t, resp.Body).Data
	require.Len(t, reviews, 2)
	require.NotNil(t, reviews[0].Rating)
	assert.Equal(t, 5, *reviews[0].Rating)

	resp = ts.api.Get("/api/v1/me/reviews", bearer(alice))
	require.Equal(t, http.StatusOK, resp.Code)
	mine := decode[store.PageResult[domain.ReviewEntry]](t, resp.Body).Data
	require.Len(t, mine.Items, 1)
	assert.Equal(t, "Thoughts", mine.Items[0].Body)
}

func TestToRead_AddAndRemove(t *testing.T) {
	ts := setupTestServer(t)
	adminToken := ts.admin(t, "admin@x.com")
	token := ts.member(t, "a@x.com")
	bookID := ts.addBook(t, adminToken, "1984", "Orwell", "Dystopian")
	path := fmt.Sprintf("/api/v1/books/%d/to-read", bookID)

	resp := ts.api.Post(path, bearer(token))
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())

	resp = ts.api.Post(path, bearer(token))
	assert.Equal(t, http.StatusConflict, resp.Code)

	resp = ts.api.Get("/api/v1/me/to-read", bearer(token))
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Len(t, decode[store.PageResult[domain.ToReadEntry]](t, resp.Body).Data.Items, 1)

	resp = ts.api.Delete(path, bearer(token))
	assert.Equal(t, http.StatusNoContent, resp.Code)

	resp = ts.api.Delete(path, bearer(token))
	assert.Equal(t, http.StatusNotFound, resp.Code)
}
