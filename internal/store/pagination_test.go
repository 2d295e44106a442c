package store

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPage_Normalize(t *testing.T) {
	assert.Equal(t, Page{Number: 1, Size: 20}, Page{}.Normalize(20))
	assert.Equal(t, Page{Number: 3, Size: 10}, Page{Number: 3, Size: 10}.Normalize(20))
	assert.Equal(t, Page{Number: 1, Size: 20}, Page{Number: -4, Size: 500}.Normalize(20))
	assert.Equal(t, Page{Number: 1, Size: DefaultPageSize}, Page{}.Normalize(0))
	assert.Equal(t, Page{Number: MaxPageNumber, Size: 20}, Page{Number: math.MaxInt64 / 10}.Normalize(20))
}

func TestPage_Offset(t *testing.T) {
	assert.Equal(t, 0, Page{Number: 1, Size: 20}.Offset())
	assert.Equal(t, 40, Page{Number: 3, Size: 20}.Offset())
}

func TestNewPageResult(t *testing.T) {
	r := NewPageResult([]int{1, 2}, 5, Page{Number: 1, Size: 2})
	assert.True(t, r.HasMore)
	assert.Equal(t, 5, r.Total)

	r = NewPageResult([]int{5}, 5, Page{Number: 3, Size: 2})
	assert.False(t, r.HasMore)

	empty := NewPageResult[int](nil, 0, Page{Number: 1, Size: 20})
	assert.NotNil(t, empty.Items)
	assert.False(t, empty.HasMore)
}

func TestPaginate(t *testing.T) {
	all := []int{1, 2, 3, 4, 5}

	r := Paginate(all, Page{Number: 2, Size: 2})
	assert.Equal(t, []int{3, 4}, r.Items)
	assert.True(t, r.HasMore)

	r = Paginate(all, Page{Number: 4, Size: 2})
	assert.Empty(t, r.Items)
	assert.False(t, r.HasMore)
}

func TestPaginate_HugePageNumber(t *testing.T) {
	all := []int{1, 2, 3}

	r := Paginate(all, Page{Number: math.MaxInt64 / 10, Size: 20}.Normalize(20))
	assert.Empty(t, r.Items)
	assert.False(t, r.HasMore)
	assert.Equal(t, 3, r.Total)

	// An overflowed offset never slices before the start.
	assert.NotPanics(t, func() {
		Paginate(all, Page{Number: math.MaxInt64 / 10, Size: 20})
	})
}
