package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/pantryapp/pantry-server/internal/domain"
)

func (s *Server) registerIngredientRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listIngredients",
		Method:      http.MethodGet,
		Path:        "/api/v1/ingredients",
		Summary:     "List ingredients",
		Description: "Returns all ingredients for the current user",
		Tags:        []string{"Ingredients"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleListIngredients)

	huma.Register(s.api, huma.Operation{
		OperationID:   "createIngredient",
		Method:        http.MethodPost,
		Path:          "/api/v1/ingredients",
		Summary:       "Create ingredient",
		Description:   "Creates a new ingredient, or returns the existing one with the same name",
		Tags:          []string{"Ingredients"},
		Security:      []map[string][]string{{"bearer": {}}},
		DefaultStatus: http.StatusCreated,
	}, s.handleCreateIngredient)

	huma.Register(s.api, huma.Operation{
		OperationID: "getIngredient",
		Method:      http.MethodGet,
		Path:        "/api/v1/ingredients/{id}",
		Summary:     "Get ingredient",
		Description: "Returns an ingredient by ID",
		Tags:        []string{"Ingredients"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleGetIngredient)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateIngredient",
		Method:      http.MethodPatch,
		Path:        "/api/v1/ingredients/{id}",
		Summary:     "Rename ingredient",
		Description: "Renames an ingredient",
		Tags:        []string{"Ingredients"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleUpdateIngredient)

	huma.Register(s.api, huma.Operation{
		OperationID: "deleteIngredient",
		Method:      http.MethodDelete,
		Path:        "/api/v1/ingredients/{id}",
		Summary:     "Delete ingredient",
		Description: "Deletes an ingredient and detaches it from all recipes",
		Tags:        []string{"Ingredients"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleDeleteIngredient)
}

// === DTOs ===

// ListIngredientsInput contains parameters for listing ingredients.
type ListIngredientsInput struct {
	Authorization string `header:"Authorization"`
	AssignedOnly  bool   `query:"assigned_only" doc:"Only return ingredients attached to at least one recipe"`
}

// IngredientResponse contains ingredient data in API responses.
type IngredientResponse struct {
	ID        string    `json:"id" doc:"Ingredient ID"`
	Name      string    `json:"name" doc:"Ingredient name"`
	CreatedAt time.Time `json:"created_at" doc:"Creation time"`
	UpdatedAt time.Time `json:"updated_at" doc:"Last update time"`
}

// ListIngredientsResponse contains a list of ingredients.
type ListIngredientsResponse struct {
	Ingredients []IngredientResponse `json:"ingredients" doc:"List of ingredients"`
}

// ListIngredientsOutput wraps the list ingredients response for Huma.
type ListIngredientsOutput struct {
	Body ListIngredientsResponse
}

// CreateIngredientRequest is the request body for creating an ingredient.
type CreateIngredientRequest struct {
	Name string `json:"name" validate:"required,min=1,max=255" doc:"Ingredient name"`
}

// CreateIngredientInput wraps the create ingredient request for Huma.
type CreateIngredientInput struct {
	Authorization string `header:"Authorization"`
	Body          CreateIngredientRequest
}

// IngredientOutput wraps the ingredient response for Huma.
type IngredientOutput struct {
	Body IngredientResponse
}

// GetIngredientInput contains parameters for getting an ingredient.
type GetIngredientInput struct {
	Authorization string `header:"Authorization"`
	ID            string `path:"id" doc:"Ingredient ID"`
}

// UpdateIngredientRequest is the request body for renaming an ingredient.
type UpdateIngredientRequest struct {
	Name string `json:"name" validate:"required,min=1,max=255" doc:"New ingredient name"`
}

// UpdateIngredientInput wraps the update ingredient request for Huma.
type UpdateIngredientInput struct {
	Authorization string `header:"Authorization"`
	ID            string `path:"id" doc:"Ingredient ID"`
	Body          UpdateIngredientRequest
}

// DeleteIngredientInput contains parameters for deleting an ingredient.
type DeleteIngredientInput struct {
	Authorization string `header:"Authorization"`
	ID            string `path:"id" doc:"Ingredient ID"`
}

// === Handlers ===

func (s *Server) handleListIngredients(ctx context.Context, input *ListIngredientsInput) (*ListIngredientsOutput, error) {
	userID, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	ingredients, err := s.services.Ingredient.ListIngredients(ctx, userID, input.AssignedOnly)
	if err != nil {
		return nil, err
	}

	resp := make([]IngredientResponse, len(ingredients))
	for i, ing := range ingredients {
		resp[i] = mapIngredientResponse(ing)
	}

	return &ListIngredientsOutput{Body: ListIngredientsResponse{Ingredients: resp}}, nil
}

func (s *Server) handleCreateIngredient(ctx context.Context, input *CreateIngredientInput) (*IngredientOutput, error) {
	userID, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	ing, err := s.services.Ingredient.CreateIngredient(ctx, userID, input.Body.Name)
	if err != nil {
		return nil, err
	}

	return &IngredientOutput{Body: mapIngredientResponse(ing)}, nil
}

func (s *Server) handleGetIngredient(ctx context.Context, input *GetIngredientInput) (*IngredientOutput, error) {
	userID, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	ing, err := s.services.Ingredient.GetIngredient(ctx, input.ID, userID)
	if err != nil {
		return nil, err
	}

	return &IngredientOutput{Body: mapIngredientResponse(ing)}, nil
}

func (s *Server) handleUpdateIngredient(ctx context.Context, input *UpdateIngredientInput) (*IngredientOutput, error) {
	userID, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	ing, err := s.services.Ingredient.RenameIngredient(ctx, input.ID, userID, input.Body.Name)
	if err != nil {
		return nil, err
	}

	return &IngredientOutput{Body: mapIngredientResponse(ing)}, nil
}

func (s *Server) handleDeleteIngredient(ctx context.Context, input *DeleteIngredientInput) (*MessageOutput, error) {
	userID, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	if err := s.services.Ingredient.DeleteIngredient(ctx, input.ID, userID); err != nil {
		return nil, err
	}

	return &MessageOutput{Body: MessageResponse{Message: "Ingredient deleted"}}, nil
}

// === Helpers ===

func mapIngredientResponse(ing *domain.Ingredient) IngredientResponse {
	return IngredientResponse{
		ID:        ing.ID,
		Name:      ing.Name,
		CreatedAt: ing.CreatedAt,
		UpdatedAt: ing.UpdatedAt,
	}
}
