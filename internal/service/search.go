package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/pantryapp/pantry-server/internal/search"
	"github.com/pantryapp/pantry-server/internal/store/sqlite"
)

// SearchService provides full-text recipe search over the Bleve index.
type SearchService struct {
	store  *sqlite.Store
	index  *search.SearchIndex
	logger *slog.Logger
}

// NewSearchService creates a new search service.
func NewSearchService(store *sqlite.Store, index *search.SearchIndex, logger *slog.Logger) *SearchService {
	return &SearchService{
		store:  store,
		index:  index,
		logger: logger,
	}
}

// Search runs a full-text query over the user's recipes.
func (s *SearchService) Search(ctx context.Context, userID string, params search.SearchParams) (*search.SearchResult, error) {
	params.UserID = userID

	if params.Limit <= 0 {
		params.Limit = 20
	}
	if params.Limit > 100 {
		params.Limit = 100
	}
	if params.Offset < 0 {
		params.Offset = 0
	}

	result, err := s.index.Search(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("search recipes: %w", err)
	}
	return result, nil
}

// DocumentCount returns the number of indexed recipes.
func (s *SearchService) DocumentCount() (uint64, error) {
	return s.index.DocumentCount()
}

// ReindexAll rebuilds the search index from the database.
// Walks every user's recipes; intended for startup recovery or after a
// mapping change.
func (s *SearchService) ReindexAll(ctx context.Context) (int, error) {
	if err := s.index.Rebuild(); err != nil {
		return 0, fmt.Errorf("rebuild index: %w", err)
	}

	users, err := s.store.ListUsers(ctx)
	if err != nil {
		return 0, fmt.Errorf("list users: %w", err)
	}

	total := 0
	for _, user := range users {
		recipes, err := s.store.ListRecipes(ctx, user.ID, sqlite.RecipeFilter{})
		if err != nil {
			return total, fmt.Errorf("list recipes for %s: %w", user.ID, err)
		}

		docs := make([]*search.SearchDocument, 0, len(recipes))
		for _, recipe := range recipes {
			docs = append(docs, search.RecipeToSearchDocument(recipe))
		}

		if err := s.index.IndexDocuments(docs); err != nil {
			return total, fmt.Errorf("index recipes for %s: %w", user.ID, err)
		}
		total += len(docs)
	}

	s.logger.Info("search reindex complete", "documents", total)

	return total, nil
}
