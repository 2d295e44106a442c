// Package recommend implements collaborative filtering over 5-star ratings.
//
// The graph links users to the books they rated 5 and back. A recommendation
// hops user → loved books → other users who loved them → the books those
// users loved, then ranks the candidates by average rating.
package recommend

import (
	"cmp"
	"slices"

	"github.com/listenupapp/shelfmark/internal/domain"
	"github.com/listenupapp/shelfmark/internal/store"
)

// Graph is the bipartite user/book graph of 5-star ratings.
type Graph struct {
	// userBooks[user] = books the user rated 5
	userBooks map[int64]map[int64]struct{}

	// bookUsers[book] = users who rated the book 5
	bookUsers map[int64]map[int64]struct{}
}

// NewGraph builds the graph from the (user, book) pairs of 5-star ratings.
func NewGraph(pairs []store.RatingPair) *Graph {
	g := &Graph{
		userBooks: make(map[int64]map[int64]struct{}),
		bookUsers: make(map[int64]map[int64]struct{}),
	}
	for _, p := range pairs {
		addEdge(g.userBooks, p.UserID, p.BookID)
		addEdge(g.bookUsers, p.BookID, p.UserID)
	}
	return g
}

func addEdge(m map[int64]map[int64]struct{}, from, to int64) {
	set, ok := m[from]
	if !ok {
		set = make(map[int64]struct{})
		m[from] = set
	}
	set[to] = struct{}{}
}

// LovedBooks returns the books the user rated 5, in id order.
func (g *Graph) LovedBooks(userID int64) []int64 {
	return sortedKeys(g.userBooks[userID])
}

// ForUser returns the candidate books for a user: books rated 5 by other users
// who share at least one 5-star book with them, minus the user's own 5-star books.
// Returns nil when the user has no 5-star ratings.
func (g *Graph) ForUser(userID int64) []int64 {
	loved := g.userBooks[userID]
	if len(loved) == 0 {
		return nil
	}

	peers := make(map[int64]struct{})
	for book := range loved {
		for u := range g.bookUsers[book] {
			if u != userID {
				peers[u] = struct{}{}
			}
		}
	}
	return g.collect(peers, loved)
}

// ForBook returns the candidate books for one of the user's loved books: books
// rated 5 by other users who rated bookID 5. Every book the user rated 5 is
// excluded, not only bookID. Returns nil when the user did not rate bookID 5.
func (g *Graph) ForBook(userID, bookID int64) []int64 {
	loved := g.userBooks[userID]
	if _, ok := loved[bookID]; !ok {
		return nil
	}

	peers := make(map[int64]struct{})
	for u := range g.bookUsers[bookID] {
		if u != userID {
			peers[u] = struct{}{}
		}
	}
	return g.collect(peers, loved)
}

// collect gathers the 5-star books of peers that are not in exclude, in id order.
func (g *Graph) collect(peers, exclude map[int64]struct{}) []int64 {
	candidates := make(map[int64]struct{})
	for u := range peers {
		for book := range g.userBooks[u] {
			if _, skip := exclude[book]; !skip {
				candidates[book] = struct{}{}
			}
		}
	}
	return sortedKeys(candidates)
}

func sortedKeys(set map[int64]struct{}) []int64 {
	keys := make([]int64, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// Rank drops books without an average rating and orders the rest by average
// rating, highest first, ties by id.
func Rank(books []domain.BookSummary) []domain.BookSummary {
	ranked := make([]domain.BookSummary, 0, len(books))
	for _, b := range books {
		if b.AvgRating != nil {
			ranked = append(ranked, b)
		}
	}
	slices.SortStableFunc(ranked, func(a, b domain.BookSummary) int {
		if c := cmp.Compare(*b.AvgRating, *a.AvgRating); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return ranked
}
