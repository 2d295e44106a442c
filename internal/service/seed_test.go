package service

import (
	"context"
	"math/rand/v2"
	"strings"
	"testing"
	"unicode"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/listenupapp/shelfmark/internal/seeddata"
	"github.com/listenupapp/shelfmark/internal/store"
)

func TestSeedService_BulkLoadBooks_Idempotent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	records, err := seeddata.Books()
	require.NoError(t, err)

	first, err := env.seed.BulkLoadBooks(ctx, nil)
	require.NoError(t, err)
	assert.Positive(t, first.Added)
	assert.Equal(t, len(records), first.Added+first.Skipped)

	books, err := env.store.CountBooks(ctx)
	require.NoError(t, err)
	assert.Equal(t, first.Added, books)

	second, err := env.seed.BulkLoadBooks(ctx, nil)
	require.NoError(t, err)
	assert.Zero(t, second.Added)
	assert.Equal(t, len(records), second.Skipped)

	indexed, err := env.index.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(books), indexed)
}

func TestSeedService_BulkLoadBooks_ReusesAuthorsAndGenres(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	_, err := env.catalog.AddAuthor(ctx, "George Orwell")
	require.NoError(t, err)

	result, err := env.seed.BulkLoadBooks(ctx, []seeddata.BookRecord{
		{Author: "George Orwell", Title: "Animal Farm", Genres: "Satire, Political"},
		{Author: " George  Orwell", Title: "1984", Genres: "Dystopian,Political,"},
		{Author: "", Title: "Orphan", Genres: "Mystery"},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, result.Added)
	assert.Equal(t, 1, result.Skipped)

	authors, err := env.catalog.ListAuthors(ctx)
	require.NoError(t, err)
	assert.Len(t, authors, 1)

	genres, err := env.catalog.ListGenres(ctx)
	require.NoError(t, err)
	assert.Len(t, genres, 3)
}

func TestSeedService_BulkLoadBooks_TitleLengthInCharacters(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	// 200 characters but 400 bytes.
	accented := strings.Repeat("é", 200)
	result, err := env.seed.BulkLoadBooks(ctx, []seeddata.BookRecord{
		{Author: "Émile Zola", Title: accented, Genres: "Naturalism"},
		{Author: "Émile Zola", Title: strings.Repeat("a", 257), Genres: "Naturalism"},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Added)
	assert.Equal(t, 1, result.Skipped)
}

func TestSeedService_BulkLoadUsers(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.register(t, "taken@example.com")

	result, err := env.seed.BulkLoadUsers(ctx, []seeddata.UserRecord{
		{FirstName: "Ann", LastName: "Lee", Email: "ann@example.com", Password: "pw1", Gender: "Female", DateOfBirth: "1990-01-02"},
		{FirstName: "Tom", LastName: "Ray", Email: "TAKEN@example.com", Password: "pw2"},
		{FirstName: "Bad", LastName: "Row", Email: "not-an-email", Password: "pw3"},
		{FirstName: "Sam", LastName: "Oak", Email: "sam@example.com", Password: "pw4", DateOfBirth: "yesterday"},
	})
	require.NoError(t, err)
	assert.False(t, result.Refused)
	assert.Equal(t, 1, result.Added)
	assert.Equal(t, 3, result.Skipped)

	user, err := env.store.GetUserByEmail(ctx, "ann@example.com")
	require.NoError(t, err)
	assert.Equal(t, "Ann Lee", user.Name)
	assert.Equal(t, "female", string(user.Gender))
}

func TestSeedService_BulkLoadUsers_Embedded(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	records, err := seeddata.Users()
	require.NoError(t, err)

	result, err := env.seed.BulkLoadUsers(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, len(records), result.Added+result.Skipped)

	again, err := env.seed.BulkLoadUsers(ctx, nil)
	require.NoError(t, err)
	assert.True(t, again.Refused, "more users than the cap")
	assert.Zero(t, again.Added)
}

func TestSeedService_BulkLoadUsers_Refused(t *testing.T) {
	env := newTestEnv(t)
	env.seed.userCap = 2
	for _, email := range []string{"a@example.com", "b@example.com", "c@example.com"} {
		env.register(t, email)
	}

	result, err := env.seed.BulkLoadUsers(context.Background(), nil)
	require.NoError(t, err)
	assert.True(t, result.Refused)
	assert.NotEmpty(t, result.Message)
}

func TestSeedService_SyntheticRatings(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	caller := env.register(t, "admin@example.com")
	other := env.register(t, "other@example.com")
	_, err := env.seed.BulkLoadBooks(ctx, nil)
	require.NoError(t, err)
	bookIDs, err := env.store.ListBookIDs(ctx)
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(bookIDs), 60)

	result, err := env.seed.BulkLoadSyntheticRatings(ctx, caller.ID)
	require.NoError(t, err)
	assert.False(t, result.Refused)

	// Counter positions 0..50 carry a rating.
	assert.Equal(t, 51, result.Ratings)
	assert.Positive(t, result.ToRead)
	assert.LessOrEqual(t, result.ToRead, 40)
	assert.Positive(t, result.Reviews)
	assert.LessOrEqual(t, result.Reviews, 40)

	mine, err := env.store.ListUserRatings(ctx, caller.ID, "newest", store.Page{Number: 1, Size: 100})
	require.NoError(t, err)
	assert.Zero(t, mine.Total, "the caller gets no synthetic activity")

	for i := 31; i <= 40; i++ {
		r, err := env.store.GetRating(ctx, other.ID, bookIDs[i])
		require.NoError(t, err)
		assert.GreaterOrEqual(t, r.Value, 4)
	}
	for i := 41; i <= 50; i++ {
		r, err := env.store.GetRating(ctx, other.ID, bookIDs[i])
		require.NoError(t, err)
		assert.LessOrEqual(t, r.Value, 2)
	}
	_, err = env.store.GetRating(ctx, other.ID, bookIDs[51])
	assert.ErrorIs(t, err, store.ErrNotFound)

	for i := 0; i <= 10; i++ {
		onList, err := env.store.IsOnToRead(ctx, other.ID, bookIDs[i])
		require.NoError(t, err)
		assert.False(t, onList)
	}

	again, err := env.seed.BulkLoadSyntheticRatings(ctx, caller.ID)
	require.NoError(t, err)
	assert.True(t, again.Refused, "more ratings than the cap")
}

func TestSeedService_SyntheticRatings_SkipsRatedBooks(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.seed.ratingCap = 1000

	caller := env.register(t, "admin@example.com")
	other := env.register(t, "other@example.com")
	_, err := env.seed.BulkLoadBooks(ctx, nil)
	require.NoError(t, err)
	bookIDs, err := env.store.ListBookIDs(ctx)
	require.NoError(t, err)

	env.rate(t, other.ID, bookIDs[0], 3)

	_, err = env.seed.BulkLoadSyntheticRatings(ctx, caller.ID)
	require.NoError(t, err)
	_, err = env.seed.BulkLoadSyntheticRatings(ctx, caller.ID)
	require.NoError(t, err, "a second run never violates per-pair uniqueness")

	r, err := env.store.GetRating(ctx, other.ID, bookIDs[0])
	require.NoError(t, err)
	assert.Equal(t, 3, r.Value, "existing ratings are kept")

	// The pre-rated book does not consume a counter position, so the first run
	// rates bookIDs[1..51].
	r, err = env.store.GetRating(ctx, other.ID, bookIDs[51])
	require.NoError(t, err)
	assert.NotZero(t, r.Value)
}

func TestSeedService_RandomReview(t *testing.T) {
	a := NewSeedService(nil, SeedOptions{Rand: rand.New(rand.NewPCG(7, 7))}, nil)
	b := NewSeedService(nil, SeedOptions{Rand: rand.New(rand.NewPCG(7, 7))}, nil)

	review := a.randomReview()
	assert.Equal(t, review, b.randomReview(), "same seed, same review")

	assert.True(t, strings.HasSuffix(review, "."))
	sentences := strings.Split(strings.TrimSuffix(review, "."), ". ")
	assert.GreaterOrEqual(t, len(sentences), 5)
	assert.LessOrEqual(t, len(sentences), 12)
	for _, s := range sentences {
		first := []rune(s)[0]
		assert.True(t, unicode.IsUpper(first) || !unicode.IsLetter(first), "sentence %q", s)
	}
	assert.LessOrEqual(t, len([]rune(review)), 1000)
}

func TestSeedService_FillAll(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	caller := env.admin(t, "admin@example.com")

	result, err := env.seed.FillAll(ctx, caller.ID)
	require.NoError(t, err)
	assert.Positive(t, result.Books.Added)
	assert.Positive(t, result.Users.Added)
	assert.Positive(t, result.Ratings.Ratings)
}
