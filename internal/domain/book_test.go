package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAverageRating(t *testing.T) {
	assert.Nil(t, AverageRating(nil))

	avg := AverageRating([]int{5})
	require.NotNil(t, avg)
	assert.InDelta(t, 5.0, *avg, 0.0001)

	avg = AverageRating([]int{4, 5, 5})
	require.NotNil(t, avg)
	assert.InDelta(t, 4.67, *avg, 0.0001)

	avg = AverageRating([]int{1, 2})
	require.NotNil(t, avg)
	assert.InDelta(t, 1.5, *avg, 0.0001)
}

func TestAverageRating_MovesTowardNewValue(t *testing.T) {
	before := AverageRating([]int{2, 3})
	after := AverageRating([]int{2, 3, 5})
	require.NotNil(t, before)
	require.NotNil(t, after)
	assert.Greater(t, *after, *before)
}

func TestParseSortOrder(t *testing.T) {
	tests := []struct {
		in   string
		want SortOrder
		ok   bool
	}{
		{"", SortNewest, true},
		{"newest", SortNewest, true},
		{"OLDEST", SortOldest, true},
		{" best ", SortBest, true},
		{"worst", SortWorst, true},
		{"random", "", false},
	}
	for _, tt := range tests {
		got, ok := ParseSortOrder(tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestUser_IsAdmin(t *testing.T) {
	assert.True(t, (&User{Role: RoleAdmin}).IsAdmin())
	assert.False(t, (&User{Role: RoleMember, Name: "Admin"}).IsAdmin())
}

func TestUser_DisplayName(t *testing.T) {
	assert.Equal(t, "Ann Reader", (&User{Name: "Ann Reader", Email: "ann@example.com"}).DisplayName())
	assert.Equal(t, "ann", (&User{Email: "ann@example.com"}).DisplayName())
}

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "ann@example.com", NormalizeEmail("  Ann@Example.COM "))
}

func TestValidRating(t *testing.T) {
	assert.False(t, ValidRating(0))
	assert.True(t, ValidRating(1))
	assert.True(t, ValidRating(5))
	assert.False(t, ValidRating(6))
}

func TestSavedSearch_Info(t *testing.T) {
	s := &SavedSearch{ID: "abc", Results: []SearchResult{{BookID: 1}, {BookID: 2}}}
	info := s.Info()
	assert.Equal(t, "abc", info.ID)
	assert.Equal(t, 2, info.ResultCount)
}
