package search

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"

	"github.com/listenupapp/shelfmark/internal/domain"
)

// Params configures a quick search.
type Params struct {
	Query  string
	Genre  string // Exact genre name filter
	Limit  int
	Offset int
	Facets bool // Include genre facet counts
}

// Result is the outcome of a quick search.
type Result struct {
	Query  string                  `json:"query"`
	Total  uint64                  `json:"total"`
	TookMs int64                   `json:"took_ms"`
	Hits   []domain.QuickSearchHit `json:"hits"`
	Genres []FacetCount            `json:"genres,omitempty"`
}

// FacetCount is a facet value and its count.
type FacetCount struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// Search runs a quick search. Results are ordered by score, ties by id.
func (s *SearchIndex) Search(ctx context.Context, params Params) (*Result, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if params.Limit <= 0 {
		params.Limit = 10
	}

	req := bleve.NewSearchRequestOptions(buildQuery(params), params.Limit, params.Offset, false)
	req.SortBy([]string{"-_score", "id"})
	req.Fields = []string{"title", "author", "genres"}
	if params.Facets {
		req.AddFacet("genre_names", bleve.NewFacetRequest("genre_names", 20))
	}

	res, err := s.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("execute search: %w", err)
	}

	result := &Result{
		Query:  params.Query,
		Total:  res.Total,
		TookMs: res.Took.Milliseconds(),
		Hits:   make([]domain.QuickSearchHit, 0, len(res.Hits)),
	}

	for _, hit := range res.Hits {
		id, err := strconv.ParseInt(hit.ID, 10, 64)
		if err != nil {
			s.logger.Warn("skipping search hit with invalid id", "id", hit.ID)
			continue
		}
		h := domain.QuickSearchHit{BookID: id, Score: hit.Score, Genres: []string{}}
		if t, ok := hit.Fields["title"].(string); ok {
			h.Title = t
		}
		if a, ok := hit.Fields["author"].(string); ok {
			h.AuthorName = a
		}
		h.Genres = append(h.Genres, storedStrings(hit.Fields["genres"])...)
		result.Hits = append(result.Hits, h)
	}

	if f, ok := res.Facets["genre_names"]; ok && f.Terms != nil {
		for _, term := range f.Terms.Terms() {
			result.Genres = append(result.Genres, FacetCount{Value: term.Term, Count: term.Count})
		}
	}

	return result, nil
}

// storedStrings reads a stored field that holds one string or several.
func storedStrings(v any) []string {
	switch t := v.(type) {
	case string:
		return []string{t}
	case []any:
		out := make([]string, 0, len(t))
		for _, e := range t {
			if s, ok := e.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

// buildQuery constructs the Bleve query: a disjunction over title, author and
// genres, with fuzzy and prefix matching on the title, narrowed by genre.
func buildQuery(params Params) query.Query {
	var queries []query.Query

	if q := strings.TrimSpace(params.Query); q != "" {
		titleMatch := bleve.NewMatchQuery(q)
		titleMatch.SetField("title")
		titleMatch.SetBoost(3.0)

		authorMatch := bleve.NewMatchQuery(q)
		authorMatch.SetField("author")
		authorMatch.SetBoost(2.0)

		genreMatch := bleve.NewMatchQuery(q)
		genreMatch.SetField("genres")

		// Typo tolerance
		fuzzy := bleve.NewFuzzyQuery(strings.ToLower(q))
		fuzzy.SetFuzziness(1)
		fuzzy.SetField("title")
		fuzzy.SetBoost(0.8)

		text := []query.Query{titleMatch, authorMatch, genreMatch, fuzzy}

		// Autocomplete on the last word typed.
		if words := strings.Fields(strings.ToLower(q)); len(words) > 0 && len(words[len(words)-1]) >= 2 {
			last := words[len(words)-1]
			for _, field := range []string{"title", "author"} {
				p := bleve.NewPrefixQuery(last)
				p.SetField(field)
				p.SetBoost(0.5)
				text = append(text, p)
			}
		}

		queries = append(queries, bleve.NewDisjunctionQuery(text...))
	}

	if params.Genre != "" {
		tq := bleve.NewTermQuery(params.Genre)
		tq.SetField("genre_names")
		queries = append(queries, tq)
	}

	switch len(queries) {
	case 0:
		return bleve.NewMatchAllQuery()
	case 1:
		return queries[0]
	default:
		return bleve.NewConjunctionQuery(queries...)
	}
}
