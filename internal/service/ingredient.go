package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/pantryapp/pantry-server/internal/domain"
	domainerrors "github.com/pantryapp/pantry-server/internal/errors"
	"github.com/pantryapp/pantry-server/internal/store"
	"github.com/pantryapp/pantry-server/internal/store/sqlite"
)

// IngredientService manages a user's ingredients.
// Mirrors TagService; the two entity types behave identically apart
// from what they label.
type IngredientService struct {
	store  *sqlite.Store
	logger *slog.Logger
}

// NewIngredientService creates a new ingredient service.
func NewIngredientService(store *sqlite.Store, logger *slog.Logger) *IngredientService {
	return &IngredientService{
		store:  store,
		logger: logger,
	}
}

// ListIngredients returns the user's ingredients ordered by name descending.
// With assignedOnly set, only ingredients attached to at least one recipe
// are returned, each ingredient once.
func (s *IngredientService) ListIngredients(ctx context.Context, userID string, assignedOnly bool) ([]*domain.Ingredient, error) {
	ingredients, err := s.store.ListIngredients(ctx, userID, assignedOnly)
	if err != nil {
		return nil, fmt.Errorf("list ingredients: %w", err)
	}
	return ingredients, nil
}

// GetIngredient returns one of the user's ingredients.
func (s *IngredientService) GetIngredient(ctx context.Context, ingredientID, userID string) (*domain.Ingredient, error) {
	ing, err := s.store.GetIngredient(ctx, ingredientID, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotFound("ingredient not found")
		}
		return nil, fmt.Errorf("get ingredient: %w", err)
	}
	return ing, nil
}

// CreateIngredient creates an ingredient directly, outside of recipe
// composition. Returns the existing ingredient when the name is already
// taken.
func (s *IngredientService) CreateIngredient(ctx context.Context, userID, name string) (*domain.Ingredient, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, domainerrors.Validation("name is required")
	}
	if len(name) > 255 {
		return nil, domainerrors.Validation("name exceeds maximum length of 255 characters")
	}

	ing, created, err := s.store.FindOrCreateIngredient(ctx, userID, name)
	if err != nil {
		return nil, fmt.Errorf("create ingredient: %w", err)
	}

	if created && s.logger != nil {
		s.logger.Info("Ingredient created", "ingredient_id", ing.ID, "user_id", userID)
	}

	return ing, nil
}

// RenameIngredient changes an ingredient's name. Renaming onto a name
// the user already has is a conflict, not a merge.
func (s *IngredientService) RenameIngredient(ctx context.Context, ingredientID, userID, name string) (*domain.Ingredient, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, domainerrors.Validation("name is required")
	}
	if len(name) > 255 {
		return nil, domainerrors.Validation("name exceeds maximum length of 255 characters")
	}

	ing, err := s.store.GetIngredient(ctx, ingredientID, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotFound("ingredient not found")
		}
		return nil, fmt.Errorf("get ingredient: %w", err)
	}

	ing.Name = name
	ing.Touch()

	if err := s.store.UpdateIngredient(ctx, ing); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return nil, domainerrors.Conflict("an ingredient with that name already exists")
		}
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotFound("ingredient not found")
		}
		return nil, fmt.Errorf("rename ingredient: %w", err)
	}

	return ing, nil
}

// DeleteIngredient removes an ingredient and detaches it from all recipes.
func (s *IngredientService) DeleteIngredient(ctx context.Context, ingredientID, userID string) error {
	if err := s.store.DeleteIngredient(ctx, ingredientID, userID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domainerrors.NotFound("ingredient not found")
		}
		return fmt.Errorf("delete ingredient: %w", err)
	}

	if s.logger != nil {
		s.logger.Info("Ingredient deleted", "ingredient_id", ingredientID, "user_id", userID)
	}

	return nil
}
