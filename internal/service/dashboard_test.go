package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/listenupapp/shelfmark/internal/domain"
	"github.com/listenupapp/shelfmark/internal/store"
)

func TestDashboardService_Home(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	reader := env.register(t, "reader@example.com")

	var ids []int64
	for i := range 7 {
		ids = append(ids, env.addBook(t, fmt.Sprintf("Book %d", i), "Author", "Genre"))
	}
	env.rate(t, reader.ID, ids[3], 5)
	env.rate(t, reader.ID, ids[1], 2)
	_, err := env.ratings.WriteReview(ctx, reader.ID, ids[6], "Good.")
	require.NoError(t, err)
	_, err = env.ratings.AddToRead(ctx, reader.ID, ids[4])
	require.NoError(t, err)

	home, err := env.dashboard.Home(ctx)
	require.NoError(t, err)

	require.Len(t, home.TopRated, 2, "only rated books are ranked by rating")
	assert.Equal(t, ids[3], home.TopRated[0].BookID)
	assert.Equal(t, ids[1], home.TopRated[1].BookID)

	require.Len(t, home.MostReviewed, 5)
	assert.Equal(t, ids[6], home.MostReviewed[0].BookID)
	assert.Equal(t, 1, home.MostReviewed[0].ReviewCount)
	assert.Equal(t, ids[0], home.MostReviewed[1].BookID, "ties are broken by id")

	require.Len(t, home.MostToRead, 5)
	assert.Equal(t, ids[4], home.MostToRead[0].BookID)
}

func TestDashboardService_Rankings_Paginate(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	for i := range 3 {
		env.addBook(t, fmt.Sprintf("Book %d", i), "Author", "Genre")
	}

	page, err := env.dashboard.AllReviews(ctx, store.Page{Number: 2, Size: 2})
	require.NoError(t, err)
	assert.Equal(t, 3, page.Total)
	assert.Len(t, page.Items, 1)
	assert.False(t, page.HasMore)

	rated, err := env.dashboard.AllRatings(ctx, store.Page{})
	require.NoError(t, err)
	assert.Zero(t, rated.Total)
	assert.NotNil(t, rated.Items)

	listed, err := env.dashboard.AllReadListed(ctx, store.Page{})
	require.NoError(t, err)
	assert.Equal(t, 3, listed.Total)
}

func TestDashboardService_AdminOverview(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.register(t, "reader@example.com")
	bookID := env.addBook(t, "Emma", "Austen", "Classic", "Romance")
	env.rate(t, user.ID, bookID, 4)

	_, err := env.search.Search(ctx, user.ID, domain.SearchCriteria{Title: "emma"}, store.Page{})
	require.NoError(t, err)

	overview, err := env.dashboard.AdminOverview(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.Overview{
		Users:         1,
		Authors:       1,
		Genres:        2,
		Books:         1,
		Ratings:       1,
		Reviews:       0,
		ToRead:        0,
		SavedSearches: 1,
	}, *overview)
}
