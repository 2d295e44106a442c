package sqlite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/listenupapp/shelfmark/internal/store"
)

func TestInsertSyntheticActivity(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	u := createUser(t, s, "a@example.com", "A")
	a := createBook(t, s, "A", "Author", "G")
	b := createBook(t, s, "B", "Author", "G")

	rate(t, s, u.ID, a, 1)

	batch := []store.SyntheticActivity{
		{UserID: u.ID, BookID: a, Rating: 5, ToRead: true},
		{UserID: u.ID, BookID: b, Rating: 4, Review: "Generated text."},
	}

	counts, err := s.InsertSyntheticActivity(ctx, batch)
	require.NoError(t, err)
	assert.Equal(t, store.SyntheticCounts{Ratings: 1, ToRead: 1, Reviews: 1}, counts)

	existing, err := s.GetRating(ctx, u.ID, a)
	require.NoError(t, err)
	assert.Equal(t, 1, existing.Value, "existing ratings are never overwritten")

	again, err := s.InsertSyntheticActivity(ctx, batch)
	require.NoError(t, err)
	assert.Equal(t, store.SyntheticCounts{}, again)

	n, err := s.CountRatings(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}
