package api

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateIngredient_Idempotent(t *testing.T) {
	ts := setupTestServer(t)
	token, _ := ts.registerAndLogin(t, "cook@example.com")

	resp := ts.api.Post("/api/v1/ingredients",
		map[string]any{"name": "Cauliflower"},
		"Authorization: Bearer "+token)
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	first := decodeEnvelope[IngredientResponse](t, resp.Body.Bytes()).Data

	resp = ts.api.Post("/api/v1/ingredients",
		map[string]any{"name": "  cauliflower  "},
		"Authorization: Bearer "+token)
	require.Equal(t, http.StatusCreated, resp.Code)
	second := decodeEnvelope[IngredientResponse](t, resp.Body.Bytes()).Data

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "Cauliflower", second.Name)
}

func TestUpdateIngredient_Rename(t *testing.T) {
	ts := setupTestServer(t)
	token, _ := ts.registerAndLogin(t, "cook@example.com")

	resp := ts.api.Post("/api/v1/ingredients",
		map[string]any{"name": "Courgette"},
		"Authorization: Bearer "+token)
	require.Equal(t, http.StatusCreated, resp.Code)
	ingredient := decodeEnvelope[IngredientResponse](t, resp.Body.Bytes()).Data

	resp = ts.api.Patch("/api/v1/ingredients/"+ingredient.ID,
		map[string]any{"name": "Zucchini"},
		"Authorization: Bearer "+token)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	renamed := decodeEnvelope[IngredientResponse](t, resp.Body.Bytes()).Data
	assert.Equal(t, ingredient.ID, renamed.ID)
	assert.Equal(t, "Zucchini", renamed.Name)
}

func TestListIngredients_AssignedOnly(t *testing.T) {
	ts := setupTestServer(t)
	token, _ := ts.registerAndLogin(t, "cook@example.com")

	ts.createRecipe(t, token, map[string]any{
		"title":       "Soup",
		"ingredients": []string{"leek"},
	})
	resp := ts.api.Post("/api/v1/ingredients",
		map[string]any{"name": "unused"},
		"Authorization: Bearer "+token)
	require.Equal(t, http.StatusCreated, resp.Code)

	resp = ts.api.Get("/api/v1/ingredients?assigned_only=true", "Authorization: Bearer "+token)
	require.Equal(t, http.StatusOK, resp.Code)

	envelope := decodeEnvelope[ListIngredientsResponse](t, resp.Body.Bytes())
	require.Len(t, envelope.Data.Ingredients, 1)
	assert.Equal(t, "leek", envelope.Data.Ingredients[0].Name)
}

func TestDeleteIngredient_ForeignIs404(t *testing.T) {
	ts := setupTestServer(t)
	ownerToken, _ := ts.registerAndLogin(t, "owner@example.com")
	otherToken, _ := ts.registerAndLogin(t, "other@example.com")

	resp := ts.api.Post("/api/v1/ingredients",
		map[string]any{"name": "Saffron"},
		"Authorization: Bearer "+ownerToken)
	require.Equal(t, http.StatusCreated, resp.Code)
	ingredient := decodeEnvelope[IngredientResponse](t, resp.Body.Bytes()).Data

	resp = ts.api.Get("/api/v1/ingredients/"+ingredient.ID, "Authorization: Bearer "+otherToken)
	assert.Equal(t, http.StatusNotFound, resp.Code)

	resp = ts.api.Delete("/api/v1/ingredients/"+ingredient.ID, "Authorization: Bearer "+otherToken)
	assert.Equal(t, http.StatusNotFound, resp.Code)
}
