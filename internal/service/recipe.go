package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/pantryapp/pantry-server/internal/domain"
	domainerrors "github.com/pantryapp/pantry-server/internal/errors"
	"github.com/pantryapp/pantry-server/internal/id"
	"github.com/pantryapp/pantry-server/internal/media/images"
	"github.com/pantryapp/pantry-server/internal/search"
	"github.com/pantryapp/pantry-server/internal/store"
	"github.com/pantryapp/pantry-server/internal/store/sqlite"
)

// RecipeService provides recipe management scoped to the owning user.
// Every operation takes the caller's user ID; recipes belonging to other
// users are indistinguishable from missing ones.
type RecipeService struct {
	store       *sqlite.Store
	processor   *images.Processor
	searchIndex *search.SearchIndex
	logger      *slog.Logger
}

// NewRecipeService creates a new recipe service.
// searchIndex may be nil, in which case indexing is skipped.
func NewRecipeService(
	store *sqlite.Store,
	processor *images.Processor,
	searchIndex *search.SearchIndex,
	logger *slog.Logger,
) *RecipeService {
	return &RecipeService{
		store:       store,
		processor:   processor,
		searchIndex: searchIndex,
		logger:      logger,
	}
}

// CreateRecipeRequest contains the data for a new recipe.
// Tag and ingredient names are reconciled against the user's existing
// entities: matching names are reused, new names are created.
type CreateRecipeRequest struct {
	Title       string   `json:"title" validate:"required,max=255"`
	TimeMinutes int      `json:"time_minutes" validate:"gte=0"`
	Price       string   `json:"price" validate:"required"`
	Description string   `json:"description"`
	Link        string   `json:"link" validate:"max=255"`
	Tags        []string `json:"tags"`
	Ingredients []string `json:"ingredients"`
}

// UpdateRecipeRequest contains optional fields for a partial update.
// Nil fields are left untouched. For Tags and Ingredients a nil pointer
// means "don't touch", a pointer to an empty slice clears all
// associations, and a pointer to values replaces the set.
type UpdateRecipeRequest struct {
	Title       *string   `json:"title"`
	TimeMinutes *int      `json:"time_minutes"`
	Price       *string   `json:"price"`
	Description *string   `json:"description"`
	Link        *string   `json:"link"`
	Tags        *[]string `json:"tags"`
	Ingredients *[]string `json:"ingredients"`
}

// ListRecipes returns the user's recipes, newest first.
// Filters narrow results to recipes carrying any of the given tag IDs
// and any of the given ingredient IDs.
func (s *RecipeService) ListRecipes(ctx context.Context, userID string, filter sqlite.RecipeFilter) ([]*domain.Recipe, error) {
	recipes, err := s.store.ListRecipes(ctx, userID, filter)
	if err != nil {
		return nil, fmt.Errorf("list recipes: %w", err)
	}
	return recipes, nil
}

// GetRecipe returns one of the user's recipes with associations loaded.
func (s *RecipeService) GetRecipe(ctx context.Context, recipeID, userID string) (*domain.Recipe, error) {
	recipe, err := s.store.GetRecipe(ctx, recipeID, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotFound("recipe not found")
		}
		return nil, fmt.Errorf("get recipe: %w", err)
	}
	return recipe, nil
}

// CreateRecipe creates a recipe with its tag and ingredient associations.
func (s *RecipeService) CreateRecipe(ctx context.Context, userID string, req CreateRecipeRequest) (*domain.Recipe, error) {
	// Validate request
	if err := validate.Struct(req); err != nil {
		return nil, formatValidationError(err)
	}

	price, err := parsePriceField(req.Price)
	if err != nil {
		return nil, err
	}

	tagNames, err := normalizeNames(req.Tags, "tags")
	if err != nil {
		return nil, err
	}
	ingredientNames, err := normalizeNames(req.Ingredients, "ingredients")
	if err != nil {
		return nil, err
	}

	recipeID, err := id.Generate("recipe")
	if err != nil {
		return nil, fmt.Errorf("generate recipe ID: %w", err)
	}

	recipe := &domain.Recipe{
		Record: domain.Record{
			ID: recipeID,
		},
		UserID:      userID,
		Title:       strings.TrimSpace(req.Title),
		TimeMinutes: req.TimeMinutes,
		Price:       price,
		Description: req.Description,
		Link:        req.Link,
	}
	recipe.InitTimestamps()

	if err := s.store.CreateRecipe(ctx, recipe, tagNames, ingredientNames); err != nil {
		return nil, fmt.Errorf("create recipe: %w", err)
	}

	s.indexRecipe(recipe)

	if s.logger != nil {
		s.logger.Info("Recipe created",
			"recipe_id", recipe.ID,
			"user_id", userID,
			"tags", len(recipe.Tags),
			"ingredients", len(recipe.Ingredients),
		)
	}

	return recipe, nil
}

// UpdateRecipe applies a partial update to one of the user's recipes.
func (s *RecipeService) UpdateRecipe(ctx context.Context, recipeID, userID string, req UpdateRecipeRequest) (*domain.Recipe, error) {
	recipe, err := s.store.GetRecipe(ctx, recipeID, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotFound("recipe not found")
		}
		return nil, fmt.Errorf("get recipe: %w", err)
	}

	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title == "" {
			return nil, domainerrors.Validation("title is required")
		}
		if len(title) > 255 {
			return nil, domainerrors.Validation("title exceeds maximum length of 255 characters")
		}
		recipe.Title = title
	}
	if req.TimeMinutes != nil {
		if *req.TimeMinutes < 0 {
			return nil, domainerrors.Validation("time_minutes must be at least 0")
		}
		recipe.TimeMinutes = *req.TimeMinutes
	}
	if req.Price != nil {
		price, err := parsePriceField(*req.Price)
		if err != nil {
			return nil, err
		}
		recipe.Price = price
	}
	if req.Description != nil {
		recipe.Description = *req.Description
	}
	if req.Link != nil {
		if len(*req.Link) > 255 {
			return nil, domainerrors.Validation("link exceeds maximum length of 255 characters")
		}
		recipe.Link = *req.Link
	}

	var tagNames, ingredientNames *[]string
	if req.Tags != nil {
		names, err := normalizeNames(*req.Tags, "tags")
		if err != nil {
			return nil, err
		}
		tagNames = &names
	}
	if req.Ingredients != nil {
		names, err := normalizeNames(*req.Ingredients, "ingredients")
		if err != nil {
			return nil, err
		}
		ingredientNames = &names
	}

	recipe.Touch()
	if err := s.store.UpdateRecipe(ctx, recipe, tagNames, ingredientNames); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotFound("recipe not found")
		}
		return nil, fmt.Errorf("update recipe: %w", err)
	}

	s.indexRecipe(recipe)

	if s.logger != nil {
		s.logger.Info("Recipe updated", "recipe_id", recipe.ID, "user_id", userID)
	}

	return recipe, nil
}

// DeleteRecipe removes one of the user's recipes. Its stored image, if
// any, is removed as well. Tag and ingredient entities survive.
func (s *RecipeService) DeleteRecipe(ctx context.Context, recipeID, userID string) error {
	if err := s.store.DeleteRecipe(ctx, recipeID, userID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domainerrors.NotFound("recipe not found")
		}
		return fmt.Errorf("delete recipe: %w", err)
	}

	if s.processor != nil {
		if err := s.processor.Storage().Delete(recipeID); err != nil {
			s.logger.Warn("failed to delete recipe image", "recipe_id", recipeID, "error", err)
		}
	}

	if s.searchIndex != nil {
		if err := s.searchIndex.DeleteDocument(recipeID); err != nil {
			s.logger.Warn("failed to remove recipe from search index", "recipe_id", recipeID, "error", err)
		}
	}

	if s.logger != nil {
		s.logger.Info("Recipe deleted", "recipe_id", recipeID, "user_id", userID)
	}

	return nil
}

// AttachImage validates and stores an uploaded image for a recipe.
// Replaces any previous image.
func (s *RecipeService) AttachImage(ctx context.Context, recipeID, userID string, imageData []byte) (*domain.Recipe, error) {
	// Confirm ownership before touching the filesystem
	recipe, err := s.store.GetRecipe(ctx, recipeID, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotFound("recipe not found")
		}
		return nil, fmt.Errorf("get recipe: %w", err)
	}

	result, err := s.processor.Process(recipeID, imageData)
	if err != nil {
		return nil, domainerrors.Validation("invalid image").WithCause(err)
	}

	imagePath := fmt.Sprintf("/media/recipes/%s.jpg", recipeID)
	if err := s.store.SetRecipeImage(ctx, recipeID, userID, imagePath, result.BlurHash); err != nil {
		return nil, fmt.Errorf("save image reference: %w", err)
	}

	recipe.ImagePath = imagePath
	recipe.BlurHash = result.BlurHash
	recipe.Touch()

	if s.logger != nil {
		s.logger.Info("Recipe image attached",
			"recipe_id", recipeID,
			"user_id", userID,
			"format", result.Format,
		)
	}

	return recipe, nil
}

// indexRecipe updates the search index for a recipe. Index failures are
// logged, never surfaced; search lags rather than writes failing.
func (s *RecipeService) indexRecipe(recipe *domain.Recipe) {
	if s.searchIndex == nil {
		return
	}
	if err := s.searchIndex.IndexDocument(search.RecipeToSearchDocument(recipe)); err != nil {
		s.logger.Warn("failed to index recipe", "recipe_id", recipe.ID, "error", err)
	}
}

// parsePriceField converts a decimal string like "4.25" to a Price.
func parsePriceField(raw string) (domain.Price, error) {
	if raw == "" {
		return 0, domainerrors.Validation("price is required")
	}
	price, err := domain.ParsePrice(raw)
	if err != nil {
		return 0, domainerrors.Validationf("price is invalid: %v", err)
	}
	return price, nil
}

// normalizeNames trims tag or ingredient names and rejects blanks.
// Duplicate handling is left to the store, which collapses repeats.
func normalizeNames(names []string, field string) ([]string, error) {
	out := make([]string, 0, len(names))
	for _, name := range names {
		trimmed := strings.TrimSpace(name)
		if trimmed == "" {
			return nil, domainerrors.Validationf("%s must not contain blank names", field)
		}
		if len(trimmed) > 255 {
			return nil, domainerrors.Validationf("%s names exceed maximum length of 255 characters", field)
		}
		out = append(out, trimmed)
	}
	return out, nil
}
