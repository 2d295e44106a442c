package sqlite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/listenupapp/shelfmark/internal/domain"
)

type searchFixture struct {
	s                              *Store
	farm, nineteen, emma, karenina int64
	reader, critic                 *domain.User
}

func newSearchFixture(t *testing.T) *searchFixture {
	t.Helper()
	s := newTestStore(t)
	f := &searchFixture{s: s}

	f.farm = createBook(t, s, "Animal Farm", "George Orwell", "Satire", "Political")
	f.nineteen = createBook(t, s, "1984", "George Orwell", "Dystopian", "Political")
	f.emma = createBook(t, s, "Emma", "Jane Austen", "Romance")
	f.karenina = createBook(t, s, "Anna Karenina", "Leo Tolstoy", "Romance", "Classic")

	f.reader = createUser(t, s, "reader@example.com", "Reader")
	f.critic = createUser(t, s, "critic@example.com", "Critic")

	rate(t, s, f.reader.ID, f.farm, 4)
	rate(t, s, f.critic.ID, f.farm, 5) // 4.5
	rate(t, s, f.reader.ID, f.nineteen, 5)
	rate(t, s, f.reader.ID, f.emma, 2)
	// karenina stays unrated

	_, err := s.UpsertReview(context.Background(), f.critic.ID, f.emma, "Charming.")
	require.NoError(t, err)
	return f
}

func (f *searchFixture) search(t *testing.T, c domain.SearchCriteria) []int64 {
	t.Helper()
	res, err := f.s.SearchBooks(context.Background(), c)
	require.NoError(t, err)
	ids := make([]int64, len(res))
	for i, r := range res {
		ids[i] = r.BookID
	}
	return ids
}

func intPtr(v int) *int { return &v }

func TestSearchBooks_Unfiltered(t *testing.T) {
	f := newSearchFixture(t)
	assert.Equal(t, []int64{f.farm, f.nineteen, f.emma, f.karenina}, f.search(t, domain.SearchCriteria{}))
}

func TestSearchBooks_TextFilters(t *testing.T) {
	f := newSearchFixture(t)

	assert.Equal(t, []int64{f.farm, f.karenina}, f.search(t, domain.SearchCriteria{Title: "AN"}))
	assert.Equal(t, []int64{f.farm, f.nineteen}, f.search(t, domain.SearchCriteria{Author: "orwell"}))
	assert.Equal(t, []int64{f.farm, f.nineteen}, f.search(t, domain.SearchCriteria{Genre: "polit"}))
	assert.Equal(t, []int64{f.nineteen}, f.search(t, domain.SearchCriteria{Title: "1984", Genre: "Dystopian"}))
	assert.Empty(t, f.search(t, domain.SearchCriteria{Title: "Ulysses"}))
}

func TestSearchBooks_EscapesWildcards(t *testing.T) {
	f := newSearchFixture(t)
	pct := createBook(t, f.s, "100% Orwell", "Editor", "Essay")

	assert.Equal(t, []int64{pct}, f.search(t, domain.SearchCriteria{Title: "%"}))
	assert.Empty(t, f.search(t, domain.SearchCriteria{Title: "_"}))
}

func TestSearchBooks_RatingBounds(t *testing.T) {
	f := newSearchFixture(t)

	assert.Equal(t, []int64{f.farm, f.nineteen}, f.search(t, domain.SearchCriteria{RatingMin: intPtr(4)}))
	assert.Equal(t, []int64{f.emma}, f.search(t, domain.SearchCriteria{RatingMax: intPtr(3)}))
	assert.Equal(t, []int64{f.emma}, f.search(t, domain.SearchCriteria{RatingMin: intPtr(1), RatingMax: intPtr(4)}),
		"bounds apply to the unrounded mean, so 4.5 is above 4")
	assert.Equal(t, []int64{f.nineteen}, f.search(t, domain.SearchCriteria{RatingMin: intPtr(5)}))
	assert.NotContains(t, f.search(t, domain.SearchCriteria{RatingMin: intPtr(1)}), f.karenina)
}

func TestSearchBooks_RequireReview(t *testing.T) {
	f := newSearchFixture(t)
	assert.Equal(t, []int64{f.emma}, f.search(t, domain.SearchCriteria{RequireReview: true}))
}

func TestSearchBooks_SortUnratedLast(t *testing.T) {
	f := newSearchFixture(t)

	assert.Equal(t, []int64{f.nineteen, f.farm, f.emma, f.karenina},
		f.search(t, domain.SearchCriteria{SortBy: domain.SearchSortRatingDesc}))
	assert.Equal(t, []int64{f.emma, f.farm, f.nineteen, f.karenina},
		f.search(t, domain.SearchCriteria{SortBy: domain.SearchSortRatingAsc}))
}

func TestSearchBooks_ResultFields(t *testing.T) {
	f := newSearchFixture(t)

	res, err := f.s.SearchBooks(context.Background(), domain.SearchCriteria{Title: "Animal"})
	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.Equal(t, "George Orwell", res[0].AuthorName)
	assert.Equal(t, []string{"Political", "Satire"}, res[0].GenreNames)
	require.NotNil(t, res[0].AvgRating)
	assert.Equal(t, 4.5, *res[0].AvgRating)
}
