package domain

import (
	"math"
	"time"
)

// Author writes books. Names are unique.
type Author struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// Genre classifies books. Names are unique.
type Genre struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// MaxTitleLength is the longest accepted book title, in characters.
const MaxTitleLength = 256

// Book is a catalog entry. A title is unique per author.
type Book struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	AuthorID  int64     `json:"author_id"`
	CreatedAt time.Time `json:"created_at"`
}

// BookSummary is a book joined with its author, genres and average rating.
type BookSummary struct {
	ID         int64    `json:"id"`
	Title      string   `json:"title"`
	AuthorID   int64    `json:"author_id"`
	AuthorName string   `json:"author_name"`
	Genres     []string `json:"genres"`
	AvgRating  *float64 `json:"avg_rating"`
}

// BookDetails is everything shown about a single book. The My* fields are only
// populated for an authenticated caller.
type BookDetails struct {
	Book        Book     `json:"book"`
	Author      Author   `json:"author"`
	Genres      []Genre  `json:"genres"`
	AvgRating   *float64 `json:"avg_rating"`
	ReviewCount int      `json:"review_count"`
	ToReadCount int      `json:"to_read_count"`
	MyRating    *int     `json:"my_rating,omitempty"`
	MyReview    *Review  `json:"my_review,omitempty"`
	OnToRead    bool     `json:"on_to_read"`
}

// RoundRating rounds an average to two decimal places, half away from zero.
func RoundRating(avg float64) float64 {
	return math.Round(avg*100) / 100
}

// AverageRating returns the rounded mean of values, or nil when there are none.
func AverageRating(values []int) *float64 {
	if len(values) == 0 {
		return nil
	}
	sum := 0
	for _, v := range values {
		sum += v
	}
	avg := RoundRating(float64(sum) / float64(len(values)))
	return &avg
}
