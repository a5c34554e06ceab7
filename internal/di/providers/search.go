package providers

import (
	"context"

	"github.com/samber/do/v2"

	"github.com/pantryapp/pantry-server/internal/config"
	"github.com/pantryapp/pantry-server/internal/logger"
	"github.com/pantryapp/pantry-server/internal/search"
	"github.com/pantryapp/pantry-server/internal/service"
	"github.com/pantryapp/pantry-server/internal/store/sqlite"
)

// SearchIndexHandle wraps the search index with shutdown capability.
type SearchIndexHandle struct {
	*search.SearchIndex
}

// Shutdown implements do.Shutdownable.
func (h *SearchIndexHandle) Shutdown() error {
	return h.Close()
}

// ProvideSearchIndex provides the Bleve search index.
func ProvideSearchIndex(i do.Injector) (*SearchIndexHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	index, err := search.NewSearchIndex(search.Options{
		DataPath: cfg.Data.SearchIndexPath(),
		Logger:   log.Logger,
	})
	if err != nil {
		return nil, err
	}

	docCount, _ := index.DocumentCount()
	log.Info("Search index initialized", "documents", docCount)

	return &SearchIndexHandle{SearchIndex: index}, nil
}

// ProvideSearchService provides the search service.
func ProvideSearchService(i do.Injector) (*service.SearchService, error) {
	indexHandle := do.MustInvoke[*SearchIndexHandle](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewSearchService(storeHandle.Store, indexHandle.SearchIndex, log.Logger), nil
}

// TriggerSearchReindexIfNeeded rebuilds an empty index when recipes exist.
// Should be called after all services are wired.
func TriggerSearchReindexIfNeeded(i do.Injector) {
	searchService := do.MustInvoke[*service.SearchService](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	docCount, _ := searchService.DocumentCount()
	if docCount > 0 {
		return
	}

	ctx := context.Background()
	users, err := storeHandle.ListUsers(ctx)
	if err != nil || len(users) == 0 {
		return
	}

	hasRecipes := false
	for _, user := range users {
		recipes, err := storeHandle.ListRecipes(ctx, user.ID, sqlite.RecipeFilter{})
		if err == nil && len(recipes) > 0 {
			hasRecipes = true
			break
		}
	}
	if !hasRecipes {
		return
	}

	log.Info("Search index is empty but recipes exist, triggering initial reindex")

	go func() {
		count, err := searchService.ReindexAll(context.Background())
		if err != nil {
			log.Error("Initial search reindex failed", "error", err)
			return
		}
		log.Info("Initial search reindex completed", "documents", count)
	}()
}
