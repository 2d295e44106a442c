// Package search provides quick full-text search over the catalog using Bleve.
// Titles, author names and genre names are indexed with prefix and fuzzy
// matching; the relational store stays the source of truth.
package search

import (
	"strconv"

	"github.com/listenupapp/shelfmark/internal/domain"
)

// BookDocument is the indexed form of a book.
//
// Author and genre names are denormalized into the document so a single query
// matches across all of them.
type BookDocument struct {
	ID        string   `json:"id"`
	Title     string   `json:"title"`
	Author    string   `json:"author"`
	Genres    []string `json:"genres"`
	AvgRating float64  `json:"avg_rating,omitempty"`
	Rated     bool     `json:"rated"`
}

// ToMap converts the document to a map with the field names of the index mapping.
func (d *BookDocument) ToMap() map[string]any {
	m := map[string]any{
		"id":     d.ID,
		"title":  d.Title,
		"author": d.Author,
		"rated":  d.Rated,
	}
	if len(d.Genres) > 0 {
		m["genres"] = d.Genres
		m["genre_names"] = d.Genres
	}
	if d.Rated {
		m["avg_rating"] = d.AvgRating
	}
	return m
}

// BookToDocument converts a book summary to its index document.
func BookToDocument(b *domain.BookSummary) *BookDocument {
	doc := &BookDocument{
		ID:     DocID(b.ID),
		Title:  b.Title,
		Author: b.AuthorName,
		Genres: b.Genres,
	}
	if b.AvgRating != nil {
		doc.AvgRating = *b.AvgRating
		doc.Rated = true
	}
	return doc
}

// DocID is the index document id of a book.
func DocID(bookID int64) string {
	return strconv.FormatInt(bookID, 10)
}
