package domain

import (
	"strings"
	"time"
)

// Rating bounds.
const (
	MinRating = 1
	MaxRating = 5
)

// MaxReviewLength is the longest accepted review body, in characters.
const MaxReviewLength = 1000

// Rating is one user's score for one book. There is at most one per pair.
type Rating struct {
	Timestamps
	ID     int64 `json:"id"`
	UserID int64 `json:"user_id"`
	BookID int64 `json:"book_id"`
	Value  int   `json:"rating"`
}

// ValidRating reports whether v is an accepted score.
func ValidRating(v int) bool {
	return v >= MinRating && v <= MaxRating
}

// Review is one user's text about one book. There is at most one per pair.
type Review struct {
	Timestamps
	ID     int64  `json:"id"`
	UserID int64  `json:"user_id"`
	BookID int64  `json:"book_id"`
	Body   string `json:"body"`
}

// ToRead marks a book as on a user's reading list. The row's existence is the flag.
type ToRead struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	BookID    int64     `json:"book_id"`
	CreatedAt time.Time `json:"created_at"`
}

// SortOrder orders personal lists and book reviews.
type SortOrder string

// Sort orders. Best and worst order by rating value with unrated entries last.
const (
	SortBest   SortOrder = "best"
	SortWorst  SortOrder = "worst"
	SortNewest SortOrder = "newest"
	SortOldest SortOrder = "oldest"
)

// ParseSortOrder maps a query value to a SortOrder. Empty means newest.
func ParseSortOrder(s string) (SortOrder, bool) {
	switch SortOrder(strings.ToLower(strings.TrimSpace(s))) {
	case "", SortNewest:
		return SortNewest, true
	case SortOldest:
		return SortOldest, true
	case SortBest:
		return SortBest, true
	case SortWorst:
		return SortWorst, true
	default:
		return "", false
	}
}

// RatingEntry is a row of the caller's ratings list.
type RatingEntry struct {
	BookID     int64     `json:"book_id"`
	Title      string    `json:"title"`
	AuthorName string    `json:"author_name"`
	Rating     int       `json:"rating"`
	RatedAt    time.Time `json:"rated_at"`
}

// ToReadEntry is a row of the caller's to-read list.
type ToReadEntry struct {
	BookID     int64     `json:"book_id"`
	Title      string    `json:"title"`
	AuthorName string    `json:"author_name"`
	MyRating   *int      `json:"my_rating"`
	AddedAt    time.Time `json:"added_at"`
}

// ReviewEntry is a row of the caller's reviews list.
type ReviewEntry struct {
	BookID     int64     `json:"book_id"`
	Title      string    `json:"title"`
	AuthorName string    `json:"author_name"`
	Body       string    `json:"body"`
	MyRating   *int      `json:"my_rating"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// BookReview is a review of a book as shown on the book's review page.
type BookReview struct {
	ReviewID     int64     `json:"review_id"`
	UserID       int64     `json:"user_id"`
	ReviewerName string    `json:"reviewer_name"`
	Body         string    `json:"body"`
	Rating       *int      `json:"rating"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
