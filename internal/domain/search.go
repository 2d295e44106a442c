package domain

import "time"

// SearchSort orders search results by average rating.
type SearchSort string

// Search sort values. Unrated books go last in both directions.
const (
	SearchSortNone       SearchSort = ""
	SearchSortRatingAsc  SearchSort = "rating_asc"
	SearchSortRatingDesc SearchSort = "rating_desc"
)

// SearchCriteria are the filters of a catalog search. Zero values mean "no filter".
type SearchCriteria struct {
	Title         string     `json:"title,omitempty"`
	Author        string     `json:"author,omitempty"`
	Genre         string     `json:"genre,omitempty"`
	RatingMin     *int       `json:"rating_min,omitempty"`
	RatingMax     *int       `json:"rating_max,omitempty"`
	RequireReview bool       `json:"require_review,omitempty"`
	SortBy        SearchSort `json:"sort_by,omitempty"`
}

// SearchResult is one book in a search result or snapshot.
type SearchResult struct {
	BookID     int64    `json:"book_id"`
	Title      string   `json:"title"`
	AuthorName string   `json:"author_name"`
	GenreNames []string `json:"genre_names"`
	AvgRating  *float64 `json:"avg_rating"`
}

// SavedSearch is an immutable snapshot of a search run by an authenticated user.
type SavedSearch struct {
	ID        string         `json:"id"`
	UserID    int64          `json:"user_id"`
	Timestamp time.Time      `json:"timestamp"`
	Criteria  SearchCriteria `json:"criteria"`
	Results   []SearchResult `json:"results"`
}

// SavedSearchInfo describes a snapshot without its results.
type SavedSearchInfo struct {
	ID          string         `json:"id"`
	Timestamp   time.Time      `json:"timestamp"`
	Criteria    SearchCriteria `json:"criteria"`
	ResultCount int            `json:"result_count"`
}

// Info returns the listing form of the snapshot.
func (s *SavedSearch) Info() SavedSearchInfo {
	return SavedSearchInfo{
		ID:          s.ID,
		Timestamp:   s.Timestamp,
		Criteria:    s.Criteria,
		ResultCount: len(s.Results),
	}
}

// QuickSearchHit is a full-text match from the quick-search index.
type QuickSearchHit struct {
	BookID     int64    `json:"book_id"`
	Title      string   `json:"title"`
	AuthorName string   `json:"author_name"`
	Genres     []string `json:"genres"`
	Score      float64  `json:"score"`
}
