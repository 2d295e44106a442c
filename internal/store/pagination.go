package store

// DefaultPageSize is the number of items per page when none is configured.
const DefaultPageSize = 20

// MaxPageNumber bounds page numbers so offsets cannot overflow.
const MaxPageNumber = 1_000_000

// Page selects a 1-based page of a listing.
type Page struct {
	Number int
	Size   int
}

// Normalize clamps the page to valid values, using size when Size is unset.
func (p Page) Normalize(size int) Page {
	if size <= 0 {
		size = DefaultPageSize
	}
	if p.Size <= 0 || p.Size > 100 {
		p.Size = size
	}
	p.Number = min(max(p.Number, 1), MaxPageNumber)
	return p
}

// Offset is the number of rows skipped before this page.
func (p Page) Offset() int {
	return (p.Number - 1) * p.Size
}

// PageResult is one page of a listing with its position in the whole.
type PageResult[T any] struct {
	Items    []T  `json:"items"`
	Total    int  `json:"total"`
	Page     int  `json:"page"`
	PageSize int  `json:"page_size"`
	HasMore  bool `json:"has_more"`
}

// NewPageResult builds a PageResult, never returning a nil Items slice.
func NewPageResult[T any](items []T, total int, p Page) *PageResult[T] {
	if items == nil {
		items = []T{}
	}
	return &PageResult[T]{
		Items:    items,
		Total:    total,
		Page:     p.Number,
		PageSize: p.Size,
		HasMore:  p.Offset()+len(items) < total,
	}
}

// Paginate slices an in-memory list. Used where the full list is already loaded.
func Paginate[T any](all []T, p Page) *PageResult[T] {
	start := min(max(p.Offset(), 0), len(all))
	end := min(start+p.Size, len(all))
	return NewPageResult(all[start:end], len(all), p)
}
