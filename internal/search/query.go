package search

import (
	"context"
	"fmt"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"
)

// SearchParams configures a search query.
type SearchParams struct {
	Query  string // User's search query
	UserID string // Required; results are always scoped to one owner

	// Filters
	MinTimeMinutes int // Minimum cooking time (0 = no minimum)
	MaxTimeMinutes int // Maximum cooking time (0 = no maximum)

	// Pagination
	Limit  int
	Offset int

	// Sorting
	SortBy    string // "relevance", "title", "recent", "time"
	SortOrder string // "asc", "desc"

	// Options
	Highlight bool // Include match highlighting
}

// DefaultSearchParams returns sensible defaults.
func DefaultSearchParams() SearchParams {
	return SearchParams{
		Limit:     20,
		Offset:    0,
		SortBy:    "relevance",
		SortOrder: "desc",
		Highlight: true,
	}
}

// SearchResult represents the search results.
type SearchResult struct {
	Query  string      `json:"query"`
	Total  uint64      `json:"total"`
	TookMs int64       `json:"took_ms"`
	Hits   []SearchHit `json:"hits"`
}

// SearchHit represents a single search result.
type SearchHit struct {
	ID          string            `json:"id"`
	Score       float64           `json:"score"`
	Name        string            `json:"name"`
	Description string            `json:"description,omitempty"`
	Tags        []string          `json:"tags,omitempty"`
	Ingredients []string          `json:"ingredients,omitempty"`
	TimeMinutes int               `json:"time_minutes,omitempty"`
	Highlights  map[string]string `json:"highlights,omitempty"`
}

// Search executes a search query.
func (s *SearchIndex) Search(ctx context.Context, params SearchParams) (*SearchResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	// Build the query
	searchQuery := buildSearchQuery(params)

	// Create search request
	searchRequest := bleve.NewSearchRequestOptions(searchQuery, params.Limit, params.Offset, false)

	// Add sorting
	addSorting(searchRequest, params)

	// Add highlighting
	if params.Highlight {
		searchRequest.Highlight = bleve.NewHighlight()
		searchRequest.Highlight.AddField("name")
		searchRequest.Highlight.AddField("description")
		searchRequest.Highlight.AddField("tags")
		searchRequest.Highlight.AddField("ingredients")
	}

	// Request stored fields
	searchRequest.Fields = []string{
		"id", "name", "description", "tags", "ingredients", "time_minutes",
	}

	// Execute search
	searchResult, err := s.index.SearchInContext(ctx, searchRequest)
	if err != nil {
		return nil, fmt.Errorf("execute search: %w", err)
	}

	// Convert results
	result := &SearchResult{
		Query:  params.Query,
		Total:  searchResult.Total,
		TookMs: searchResult.Took.Milliseconds(),
		Hits:   make([]SearchHit, 0, len(searchResult.Hits)),
	}

	for _, hit := range searchResult.Hits {
		searchHit := SearchHit{
			ID:    hit.ID,
			Score: hit.Score,
		}

		// Extract stored fields
		if n, ok := hit.Fields["name"].(string); ok {
			searchHit.Name = n
		}
		if d, ok := hit.Fields["description"].(string); ok {
			searchHit.Description = d
		}
		searchHit.Tags = stringsField(hit.Fields["tags"])
		searchHit.Ingredients = stringsField(hit.Fields["ingredients"])
		if tm, ok := hit.Fields["time_minutes"].(float64); ok {
			searchHit.TimeMinutes = int(tm)
		}

		// Extract highlights
		if len(hit.Fragments) > 0 {
			searchHit.Highlights = make(map[string]string)
			for field, fragments := range hit.Fragments {
				if len(fragments) > 0 {
					searchHit.Highlights[field] = fragments[0]
				}
			}
		}

		result.Hits = append(result.Hits, searchHit)
	}

	return result, nil
}

// stringsField normalizes a stored field that Bleve returns as either a
// single string or a []interface{} depending on how many values were indexed.
func stringsField(v interface{}) []string {
	switch val := v.(type) {
	case string:
		return []string{val}
	case []interface{}:
		out := make([]string, 0, len(val))
		for _, item := range val {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

// buildSearchQuery constructs the Bleve query from params.
func buildSearchQuery(params SearchParams) query.Query {
	var queries []query.Query

	// Main text query across the title, association names, and description.
	// Title matches are boosted so "curry" surfaces "Thai Curry" before
	// a recipe that merely mentions curry powder in its ingredients.
	if params.Query != "" {
		textQueries := []query.Query{}

		// Title match with highest boost
		nameMatch := bleve.NewMatchQuery(params.Query)
		nameMatch.SetField("name")
		nameMatch.SetBoost(3.0)
		textQueries = append(textQueries, nameMatch)

		// Tag and ingredient name matches
		tagMatch := bleve.NewMatchQuery(params.Query)
		tagMatch.SetField("tags")
		tagMatch.SetBoost(1.5)
		textQueries = append(textQueries, tagMatch)

		ingredientMatch := bleve.NewMatchQuery(params.Query)
		ingredientMatch.SetField("ingredients")
		ingredientMatch.SetBoost(1.5)
		textQueries = append(textQueries, ingredientMatch)

		// Description match, lowest text weight
		descMatch := bleve.NewMatchQuery(params.Query)
		descMatch.SetField("description")
		textQueries = append(textQueries, descMatch)

		// Add fuzzy matching for typo tolerance on the title
		fuzzyQuery := bleve.NewFuzzyQuery(params.Query)
		fuzzyQuery.SetFuzziness(1)
		fuzzyQuery.SetField("name")
		fuzzyQuery.SetBoost(0.8)
		textQueries = append(textQueries, fuzzyQuery)

		// Prefix query for autocomplete (minimum 2 chars)
		if len(params.Query) >= 2 {
			prefixQuery := bleve.NewPrefixQuery(strings.ToLower(params.Query))
			prefixQuery.SetField("name")
			prefixQuery.SetBoost(0.5)
			textQueries = append(textQueries, prefixQuery)
		}

		// Combine with OR (match any field)
		queries = append(queries, bleve.NewDisjunctionQuery(textQueries...))
	}

	// Owner filter - mandatory, exact term match
	ownerQuery := bleve.NewTermQuery(params.UserID)
	ownerQuery.SetField("user_id")
	queries = append(queries, ownerQuery)

	// Cooking time range filter
	if params.MinTimeMinutes > 0 || params.MaxTimeMinutes > 0 {
		min := float64(params.MinTimeMinutes)
		max := float64(params.MaxTimeMinutes)
		if params.MaxTimeMinutes == 0 {
			max = float64(1 << 30) // Effectively unbounded
		}
		rangeQuery := bleve.NewNumericRangeQuery(&min, &max)
		rangeQuery.SetField("time_minutes")
		queries = append(queries, rangeQuery)
	}

	// Combine all queries with AND
	if len(queries) == 1 {
		return queries[0]
	}
	return bleve.NewConjunctionQuery(queries...)
}

// addSorting configures sort order.
func addSorting(req *bleve.SearchRequest, params SearchParams) {
	switch params.SortBy {
	case "title", "name":
		if params.SortOrder == "desc" {
			req.SortBy([]string{"-name"})
		} else {
			req.SortBy([]string{"name"})
		}
	case "recent":
		if params.SortOrder == "asc" {
			req.SortBy([]string{"created_at"})
		} else {
			req.SortBy([]string{"-created_at"})
		}
	case "time":
		if params.SortOrder == "desc" {
			req.SortBy([]string{"-time_minutes"})
		} else {
			req.SortBy([]string{"time_minutes"})
		}
	default:
		// Relevance (score) is default - Bleve handles this
		req.SortBy([]string{"-_score"})
	}
}
