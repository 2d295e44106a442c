package domain

// RankedBook is a book with the aggregates used by the rankings.
type RankedBook struct {
	BookID      int64    `json:"book_id"`
	Title       string   `json:"title"`
	AuthorName  string   `json:"author_name"`
	AvgRating   *float64 `json:"avg_rating"`
	ReviewCount int      `json:"review_count"`
	ToReadCount int      `json:"to_read_count"`
}

// Home holds the three top lists of the landing page.
type Home struct {
	TopRated     []RankedBook `json:"top_rated"`
	MostReviewed []RankedBook `json:"most_reviewed"`
	MostToRead   []RankedBook `json:"most_to_read"`
}

// Overview counts every kind of stored record.
type Overview struct {
	Users         int `json:"users"`
	Authors       int `json:"authors"`
	Genres        int `json:"genres"`
	Books         int `json:"books"`
	Ratings       int `json:"ratings"`
	Reviews       int `json:"reviews"`
	ToRead        int `json:"to_read"`
	SavedSearches int `json:"saved_searches"`
}

// RecommendationGroup pairs a book the user loved with books liked by readers who also loved it.
type RecommendationGroup struct {
	Book            BookSummary   `json:"book"`
	Recommendations []BookSummary `json:"recommendations"`
}

// Recommendations is the result of RecommendedForYou.
type Recommendations struct {
	NoHighRatings bool                  `json:"no_high_ratings"`
	ForYou        []BookSummary         `json:"for_you"`
	ByBook        []RecommendationGroup `json:"by_book"`
}
