package api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/go-chi/chi/v5"

	"github.com/pantryapp/pantry-server/internal/domain"
	"github.com/pantryapp/pantry-server/internal/service"
	"github.com/pantryapp/pantry-server/internal/store/sqlite"
)

func (s *Server) registerRecipeRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listRecipes",
		Method:      http.MethodGet,
		Path:        "/api/v1/recipes",
		Summary:     "List recipes",
		Description: "Returns the current user's recipes, optionally filtered by tag and ingredient IDs",
		Tags:        []string{"Recipes"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleListRecipes)

	huma.Register(s.api, huma.Operation{
		OperationID:   "createRecipe",
		Method:        http.MethodPost,
		Path:          "/api/v1/recipes",
		Summary:       "Create recipe",
		Description:   "Creates a new recipe. Tag and ingredient names are reconciled against existing ones.",
		Tags:          []string{"Recipes"},
		Security:      []map[string][]string{{"bearer": {}}},
		DefaultStatus: http.StatusCreated,
	}, s.handleCreateRecipe)

	huma.Register(s.api, huma.Operation{
		OperationID: "getRecipe",
		Method:      http.MethodGet,
		Path:        "/api/v1/recipes/{id}",
		Summary:     "Get recipe",
		Description: "Returns a recipe by ID",
		Tags:        []string{"Recipes"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleGetRecipe)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateRecipe",
		Method:      http.MethodPatch,
		Path:        "/api/v1/recipes/{id}",
		Summary:     "Update recipe",
		Description: "Applies a partial update. Omitted tag and ingredient lists are left untouched; empty lists clear all associations.",
		Tags:        []string{"Recipes"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleUpdateRecipe)

	huma.Register(s.api, huma.Operation{
		OperationID: "replaceRecipe",
		Method:      http.MethodPut,
		Path:        "/api/v1/recipes/{id}",
		Summary:     "Replace recipe",
		Description: "Replaces all recipe fields. Omitted tag and ingredient lists clear the associations.",
		Tags:        []string{"Recipes"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleReplaceRecipe)

	huma.Register(s.api, huma.Operation{
		OperationID: "deleteRecipe",
		Method:      http.MethodDelete,
		Path:        "/api/v1/recipes/{id}",
		Summary:     "Delete recipe",
		Description: "Deletes a recipe. Tags and ingredients survive for reuse on other recipes.",
		Tags:        []string{"Recipes"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleDeleteRecipe)

	huma.Register(s.api, huma.Operation{
		OperationID: "uploadRecipeImage",
		Method:      http.MethodPost,
		Path:        "/api/v1/recipes/{id}/upload-image",
		Summary:     "Upload recipe image",
		Description: "Uploads an image for a recipe. The body is the raw image bytes (JPEG, PNG, GIF, or WebP).",
		Tags:        []string{"Recipes"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleUploadRecipeImage)

	// Direct chi route for image streaming
	s.router.Get("/media/recipes/{file}", s.handleServeRecipeImage)
}

// === DTOs ===

// ListRecipesInput contains parameters for listing recipes.
type ListRecipesInput struct {
	Authorization string `header:"Authorization"`
	Tags          string `query:"tags" validate:"omitempty,max=500" doc:"Comma-separated tag IDs to filter by"`
	Ingredients   string `query:"ingredients" validate:"omitempty,max=500" doc:"Comma-separated ingredient IDs to filter by"`
}

// RecipeResponse contains recipe data in API responses.
type RecipeResponse struct {
	ID          string               `json:"id" doc:"Recipe ID"`
	Title       string               `json:"title" doc:"Recipe title"`
	Description string               `json:"description,omitempty" doc:"Free-form description"`
	TimeMinutes int                  `json:"time_minutes" doc:"Preparation time in minutes"`
	Price       string               `json:"price" doc:"Price with two decimal places"`
	Link        string               `json:"link,omitempty" doc:"External link"`
	ImagePath   string               `json:"image_path,omitempty" doc:"Path to the uploaded image"`
	BlurHash    string               `json:"blur_hash,omitempty" doc:"BlurHash placeholder for the image"`
	Tags        []TagResponse        `json:"tags" doc:"Attached tags"`
	Ingredients []IngredientResponse `json:"ingredients" doc:"Attached ingredients"`
	CreatedAt   time.Time            `json:"created_at" doc:"Creation time"`
	UpdatedAt   time.Time            `json:"updated_at" doc:"Last update time"`
}

// ListRecipesResponse contains a list of recipes.
type ListRecipesResponse struct {
	Recipes []RecipeResponse `json:"recipes" doc:"List of recipes"`
}

// ListRecipesOutput wraps the list recipes response for Huma.
type ListRecipesOutput struct {
	Body ListRecipesResponse
}

// CreateRecipeRequest is the request body for creating a recipe.
type CreateRecipeRequest struct {
	Title       string   `json:"title" validate:"required,max=255" doc:"Recipe title"`
	TimeMinutes int      `json:"time_minutes" validate:"gte=0" doc:"Preparation time in minutes"`
	Price       string   `json:"price" validate:"required" doc:"Price with up to two decimal places"`
	Description string   `json:"description,omitempty" doc:"Free-form description"`
	Link        string   `json:"link,omitempty" validate:"omitempty,max=255" doc:"External link"`
	Tags        []string `json:"tags,omitempty" doc:"Tag names to attach"`
	Ingredients []string `json:"ingredients,omitempty" doc:"Ingredient names to attach"`
}

// CreateRecipeInput wraps the create recipe request for Huma.
type CreateRecipeInput struct {
	Authorization string `header:"Authorization"`
	Body          CreateRecipeRequest
}

// RecipeOutput wraps a recipe response for Huma.
type RecipeOutput struct {
	Body RecipeResponse
}

// GetRecipeInput contains parameters for getting a recipe.
type GetRecipeInput struct {
	Authorization string `header:"Authorization"`
	ID            string `path:"id" doc:"Recipe ID"`
}

// UpdateRecipeRequest is the request body for a partial recipe update.
type UpdateRecipeRequest struct {
	Title       *string   `json:"title,omitempty" doc:"Recipe title"`
	TimeMinutes *int      `json:"time_minutes,omitempty" doc:"Preparation time in minutes"`
	Price       *string   `json:"price,omitempty" doc:"Price with up to two decimal places"`
	Description *string   `json:"description,omitempty" doc:"Free-form description"`
	Link        *string   `json:"link,omitempty" doc:"External link"`
	Tags        *[]string `json:"tags,omitempty" doc:"Tag names; replaces the full set"`
	Ingredients *[]string `json:"ingredients,omitempty" doc:"Ingredient names; replaces the full set"`
}

// UpdateRecipeInput wraps the update recipe request for Huma.
type UpdateRecipeInput struct {
	Authorization string `header:"Authorization"`
	ID            string `path:"id" doc:"Recipe ID"`
	Body          UpdateRecipeRequest
}

// ReplaceRecipeInput wraps the full-update request for Huma.
type ReplaceRecipeInput struct {
	Authorization string `header:"Authorization"`
	ID            string `path:"id" doc:"Recipe ID"`
	Body          CreateRecipeRequest
}

// DeleteRecipeInput contains parameters for deleting a recipe.
type DeleteRecipeInput struct {
	Authorization string `header:"Authorization"`
	ID            string `path:"id" doc:"Recipe ID"`
}

// UploadRecipeImageInput wraps an image upload for Huma. The body is
// either a multipart form with an "image" field or the raw image bytes.
type UploadRecipeImageInput struct {
	Authorization string `header:"Authorization"`
	ContentType   string `header:"Content-Type"`
	ID            string `path:"id" doc:"Recipe ID"`
	RawBody       []byte
}

// === Handlers ===

func (s *Server) handleListRecipes(ctx context.Context, input *ListRecipesInput) (*ListRecipesOutput, error) {
	userID, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	recipes, err := s.services.Recipe.ListRecipes(ctx, userID, sqlite.RecipeFilter{
		TagIDs:        splitIDList(input.Tags),
		IngredientIDs: splitIDList(input.Ingredients),
	})
	if err != nil {
		return nil, err
	}

	resp := make([]RecipeResponse, len(recipes))
	for i, r := range recipes {
		resp[i] = mapRecipeResponse(r)
	}

	return &ListRecipesOutput{Body: ListRecipesResponse{Recipes: resp}}, nil
}

func (s *Server) handleCreateRecipe(ctx context.Context, input *CreateRecipeInput) (*RecipeOutput, error) {
	userID, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	recipe, err := s.services.Recipe.CreateRecipe(ctx, userID, service.CreateRecipeRequest{
		Title:       input.Body.Title,
		TimeMinutes: input.Body.TimeMinutes,
		Price:       input.Body.Price,
		Description: input.Body.Description,
		Link:        input.Body.Link,
		Tags:        input.Body.Tags,
		Ingredients: input.Body.Ingredients,
	})
	if err != nil {
		return nil, err
	}

	return &RecipeOutput{Body: mapRecipeResponse(recipe)}, nil
}

func (s *Server) handleGetRecipe(ctx context.Context, input *GetRecipeInput) (*RecipeOutput, error) {
	userID, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	recipe, err := s.services.Recipe.GetRecipe(ctx, input.ID, userID)
	if err != nil {
		return nil, err
	}

	return &RecipeOutput{Body: mapRecipeResponse(recipe)}, nil
}

func (s *Server) handleUpdateRecipe(ctx context.Context, input *UpdateRecipeInput) (*RecipeOutput, error) {
	userID, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	recipe, err := s.services.Recipe.UpdateRecipe(ctx, input.ID, userID, service.UpdateRecipeRequest{
		Title:       input.Body.Title,
		TimeMinutes: input.Body.TimeMinutes,
		Price:       input.Body.Price,
		Description: input.Body.Description,
		Link:        input.Body.Link,
		Tags:        input.Body.Tags,
		Ingredients: input.Body.Ingredients,
	})
	if err != nil {
		return nil, err
	}

	return &RecipeOutput{Body: mapRecipeResponse(recipe)}, nil
}

func (s *Server) handleReplaceRecipe(ctx context.Context, input *ReplaceRecipeInput) (*RecipeOutput, error) {
	userID, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	// A full replace sets every field. Omitted lists clear associations,
	// unlike PATCH where omission leaves them untouched.
	tags := input.Body.Tags
	if tags == nil {
		tags = []string{}
	}
	ingredients := input.Body.Ingredients
	if ingredients == nil {
		ingredients = []string{}
	}

	recipe, err := s.services.Recipe.UpdateRecipe(ctx, input.ID, userID, service.UpdateRecipeRequest{
		Title:       &input.Body.Title,
		TimeMinutes: &input.Body.TimeMinutes,
		Price:       &input.Body.Price,
		Description: &input.Body.Description,
		Link:        &input.Body.Link,
		Tags:        &tags,
		Ingredients: &ingredients,
	})
	if err != nil {
		return nil, err
	}

	return &RecipeOutput{Body: mapRecipeResponse(recipe)}, nil
}

func (s *Server) handleDeleteRecipe(ctx context.Context, input *DeleteRecipeInput) (*MessageOutput, error) {
	userID, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	if err := s.services.Recipe.DeleteRecipe(ctx, input.ID, userID); err != nil {
		return nil, err
	}

	return &MessageOutput{Body: MessageResponse{Message: "Recipe deleted"}}, nil
}

func (s *Server) handleUploadRecipeImage(ctx context.Context, input *UploadRecipeImageInput) (*RecipeOutput, error) {
	userID, err := s.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	imgData, err := extractImageBody(input.ContentType, input.RawBody)
	if err != nil {
		return nil, huma.Error400BadRequest(err.Error())
	}

	recipe, err := s.services.Recipe.AttachImage(ctx, input.ID, userID, imgData)
	if err != nil {
		return nil, err
	}

	return &RecipeOutput{Body: mapRecipeResponse(recipe)}, nil
}

// extractImageBody returns the image bytes from an upload body. Multipart
// forms carry the image in an "image" field; any other content type is
// treated as the image itself.
func extractImageBody(contentType string, body []byte) ([]byte, error) {
	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil || mediaType != "multipart/form-data" {
		return body, nil
	}

	boundary := params["boundary"]
	if boundary == "" {
		return nil, fmt.Errorf("multipart form is missing a boundary")
	}

	reader := multipart.NewReader(bytes.NewReader(body), boundary)
	for {
		part, err := reader.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse form data")
		}
		if part.FormName() != "image" {
			continue
		}
		data, err := io.ReadAll(part)
		part.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to read uploaded file")
		}
		return data, nil
	}

	return nil, fmt.Errorf("no file uploaded, use the 'image' field in the multipart form")
}

func (s *Server) handleServeRecipeImage(w http.ResponseWriter, r *http.Request) {
	file := chi.URLParam(r, "file")
	if file == "" {
		http.Error(w, "file required", http.StatusBadRequest)
		return
	}

	// Images are stored by recipe ID with a .jpg extension.
	id := strings.TrimSuffix(file, ".jpg")

	if !s.storage.Exists(id) {
		http.Error(w, "image not found", http.StatusNotFound)
		return
	}

	hash, err := s.storage.Hash(id)
	if err != nil {
		s.logger.Error("failed to compute image hash", "recipe_id", id, "error", err)
		http.Error(w, "failed to retrieve image", http.StatusInternalServerError)
		return
	}
	etag := `"` + hash + `"`

	if match := r.Header.Get("If-None-Match"); match == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	data, err := s.storage.Get(id)
	if err != nil {
		http.Error(w, "image not found", http.StatusNotFound)
		return
	}

	// Stored bytes keep their original encoding, so sniff rather than
	// trust the .jpg naming scheme.
	w.Header().Set("Content-Type", http.DetectContentType(data))
	w.Header().Set("Cache-Control", "public, max-age=86400")
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Header().Set("ETag", etag)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		s.logger.Error("failed to write image response", "recipe_id", id, "error", err)
	}
}

// === Helpers ===

func mapRecipeResponse(r *domain.Recipe) RecipeResponse {
	tags := make([]TagResponse, len(r.Tags))
	for i, t := range r.Tags {
		tags[i] = mapTagResponse(&t)
	}

	ingredients := make([]IngredientResponse, len(r.Ingredients))
	for i, ing := range r.Ingredients {
		ingredients[i] = mapIngredientResponse(&ing)
	}

	return RecipeResponse{
		ID:          r.ID,
		Title:       r.Title,
		Description: r.Description,
		TimeMinutes: r.TimeMinutes,
		Price:       r.Price.String(),
		Link:        r.Link,
		ImagePath:   r.ImagePath,
		BlurHash:    r.BlurHash,
		Tags:        tags,
		Ingredients: ingredients,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}
