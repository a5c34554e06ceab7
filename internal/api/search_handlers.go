package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/pantryapp/pantry-server/internal/search"
)

func (s *Server) registerSearchRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "search",
		Method:      http.MethodGet,
		Path:        "/api/v1/search",
		Summary:     "Search recipes",
		Description: "Full-text search over the current user's recipes",
		Tags:        []string{"Search"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleSearch)

	huma.Register(s.api, huma.Operation{
		OperationID: "reindexSearch",
		Method:      http.MethodPost,
		Path:        "/api/v1/search/reindex",
		Summary:     "Rebuild search index",
		Description: "Rebuilds the search index from the database. Admin only.",
		Tags:        []string{"Search"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleReindexSearch)
}

// === DTOs ===

// SearchInput contains parameters for searching recipes.
type SearchInput struct {
	Authorization string `header:"Authorization"`
	Query         string `query:"q" required:"true" validate:"required,min=1,max=200" doc:"Search query"`
	MinTime       int    `query:"min_time" validate:"omitempty,gte=0" doc:"Minimum preparation time in minutes"`
	MaxTime       int    `query:"max_time" validate:"omitempty,gte=0" doc:"Maximum preparation time in minutes"`
	Limit         int    `query:"limit" validate:"omitempty,gte=1,lte=100" doc:"Max results (default 20)"`
	Offset        int    `query:"offset" validate:"omitempty,gte=0" doc:"Pagination offset (default 0)"`
	SortBy        string `query:"sort" validate:"omitempty,oneof=relevance title recent time" doc:"Sort order (default relevance)"`
}

// SearchHitResult contains a single recipe search result.
type SearchHitResult struct {
	ID          string            `json:"id" doc:"Recipe ID"`
	Score       float64           `json:"score" doc:"Search relevance score"`
	Name        string            `json:"name" doc:"Recipe title"`
	Description string            `json:"description,omitempty" doc:"Recipe description"`
	Tags        []string          `json:"tags,omitempty" doc:"Tag names"`
	Ingredients []string          `json:"ingredients,omitempty" doc:"Ingredient names"`
	TimeMinutes int               `json:"time_minutes,omitempty" doc:"Preparation time in minutes"`
	Highlights  map[string]string `json:"highlights,omitempty" doc:"Highlighted matches"`
}

// SearchResponse contains search results.
type SearchResponse struct {
	Query  string            `json:"query" doc:"Original search query"`
	Total  int64             `json:"total" doc:"Total matches"`
	TookMs int64             `json:"took_ms" doc:"Search duration in milliseconds"`
	Hits   []SearchHitResult `json:"hits" doc:"Search results"`
}

// SearchOutput wraps the search response for Huma.
type SearchOutput struct {
	Body SearchResponse
}

// ReindexInput contains parameters for a reindex request.
type ReindexInput struct {
	Authorization string `header:"Authorization"`
}

// ReindexResponse reports the result of a reindex.
type ReindexResponse struct {
	Documents int `json:"documents" doc:"Number of recipes indexed"`
}

// ReindexOutput wraps the reindex response for Huma.
type ReindexOutput struct {
	Body ReindexResponse
}

// === Handlers ===

func (s *Server) handleSearch(ctx context.Context, input *SearchInput) (*SearchOutput, error) {
	userID, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	params := search.DefaultSearchParams()
	params.Query = input.Query
	params.MinTimeMinutes = input.MinTime
	params.MaxTimeMinutes = input.MaxTime
	if input.Limit > 0 {
		params.Limit = input.Limit
	}
	params.Offset = input.Offset
	if input.SortBy != "" {
		params.SortBy = input.SortBy
	}

	result, err := s.services.Search.Search(ctx, userID, params)
	if err != nil {
		s.logger.Error("search failed", "error", err, "query", input.Query)
		return nil, err
	}

	resp := SearchResponse{
		Query:  input.Query,
		Total:  int64(result.Total), //nolint:gosec // Safe: total count won't exceed int64
		TookMs: result.TookMs,
		Hits:   make([]SearchHitResult, 0, len(result.Hits)),
	}

	for i := range result.Hits {
		hit := &result.Hits[i]
		resp.Hits = append(resp.Hits, SearchHitResult{
			ID:          hit.ID,
			Score:       hit.Score,
			Name:        hit.Name,
			Description: hit.Description,
			Tags:        hit.Tags,
			Ingredients: hit.Ingredients,
			TimeMinutes: hit.TimeMinutes,
			Highlights:  hit.Highlights,
		})
	}

	return &SearchOutput{Body: resp}, nil
}

func (s *Server) handleReindexSearch(ctx context.Context, input *ReindexInput) (*ReindexOutput, error) {
	if _, err := s.authenticateAndRequireAdmin(ctx, input.Authorization); err != nil {
		return nil, err
	}

	count, err := s.services.Search.ReindexAll(ctx)
	if err != nil {
		return nil, err
	}

	return &ReindexOutput{Body: ReindexResponse{Documents: count}}, nil
}
