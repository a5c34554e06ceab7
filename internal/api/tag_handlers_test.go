package api

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListTags_EmptyInitially(t *testing.T) {
	ts := setupTestServer(t)
	token, _ := ts.registerAndLogin(t, "cook@example.com")

	resp := ts.api.Get("/api/v1/tags", "Authorization: Bearer "+token)
	require.Equal(t, http.StatusOK, resp.Code)

	envelope := decodeEnvelope[ListTagsResponse](t, resp.Body.Bytes())
	assert.True(t, envelope.Success)
	assert.Empty(t, envelope.Data.Tags)
}

func TestCreateTag_Idempotent(t *testing.T) {
	ts := setupTestServer(t)
	token, _ := ts.registerAndLogin(t, "cook@example.com")

	resp := ts.api.Post("/api/v1/tags",
		map[string]any{"name": "Dessert"},
		"Authorization: Bearer "+token)
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	first := decodeEnvelope[TagResponse](t, resp.Body.Bytes()).Data

	// Same name with different case resolves to the existing tag.
	resp = ts.api.Post("/api/v1/tags",
		map[string]any{"name": "dessert"},
		"Authorization: Bearer "+token)
	require.Equal(t, http.StatusCreated, resp.Code)
	second := decodeEnvelope[TagResponse](t, resp.Body.Bytes()).Data

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "Dessert", second.Name)
}

func TestUpdateTag_Rename(t *testing.T) {
	ts := setupTestServer(t)
	token, _ := ts.registerAndLogin(t, "cook@example.com")

	resp := ts.api.Post("/api/v1/tags",
		map[string]any{"name": "Supper"},
		"Authorization: Bearer "+token)
	require.Equal(t, http.StatusCreated, resp.Code)
	tag := decodeEnvelope[TagResponse](t, resp.Body.Bytes()).Data

	resp = ts.api.Patch("/api/v1/tags/"+tag.ID,
		map[string]any{"name": "Dinner"},
		"Authorization: Bearer "+token)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	renamed := decodeEnvelope[TagResponse](t, resp.Body.Bytes()).Data
	assert.Equal(t, tag.ID, renamed.ID)
	assert.Equal(t, "Dinner", renamed.Name)
}

func TestUpdateTag_NameCollision(t *testing.T) {
	ts := setupTestServer(t)
	token, _ := ts.registerAndLogin(t, "cook@example.com")

	resp := ts.api.Post("/api/v1/tags",
		map[string]any{"name": "Lunch"},
		"Authorization: Bearer "+token)
	require.Equal(t, http.StatusCreated, resp.Code)

	resp = ts.api.Post("/api/v1/tags",
		map[string]any{"name": "Dinner"},
		"Authorization: Bearer "+token)
	require.Equal(t, http.StatusCreated, resp.Code)
	tag := decodeEnvelope[TagResponse](t, resp.Body.Bytes()).Data

	resp = ts.api.Patch("/api/v1/tags/"+tag.ID,
		map[string]any{"name": "Lunch"},
		"Authorization: Bearer "+token)
	assert.Equal(t, http.StatusConflict, resp.Code)
}

func TestDeleteTag_ForeignTagIs404(t *testing.T) {
	ts := setupTestServer(t)
	ownerToken, _ := ts.registerAndLogin(t, "owner@example.com")
	otherToken, _ := ts.registerAndLogin(t, "other@example.com")

	resp := ts.api.Post("/api/v1/tags",
		map[string]any{"name": "Private"},
		"Authorization: Bearer "+ownerToken)
	require.Equal(t, http.StatusCreated, resp.Code)
	tag := decodeEnvelope[TagResponse](t, resp.Body.Bytes()).Data

	resp = ts.api.Delete("/api/v1/tags/"+tag.ID, "Authorization: Bearer "+otherToken)
	assert.Equal(t, http.StatusNotFound, resp.Code)

	resp = ts.api.Delete("/api/v1/tags/"+tag.ID, "Authorization: Bearer "+ownerToken)
	assert.Equal(t, http.StatusOK, resp.Code)
}

func TestListTags_AssignedOnly(t *testing.T) {
	ts := setupTestServer(t)
	token, _ := ts.registerAndLogin(t, "cook@example.com")

	// One tag attached to a recipe, one dangling.
	ts.createRecipe(t, token, map[string]any{
		"title": "Tagged",
		"tags":  []string{"assigned"},
	})
	resp := ts.api.Post("/api/v1/tags",
		map[string]any{"name": "dangling"},
		"Authorization: Bearer "+token)
	require.Equal(t, http.StatusCreated, resp.Code)

	resp = ts.api.Get("/api/v1/tags?assigned_only=true", "Authorization: Bearer "+token)
	require.Equal(t, http.StatusOK, resp.Code)

	envelope := decodeEnvelope[ListTagsResponse](t, resp.Body.Bytes())
	require.Len(t, envelope.Data.Tags, 1)
	assert.Equal(t, "assigned", envelope.Data.Tags[0].Name)
}

func TestListTags_ScopedToUser(t *testing.T) {
	ts := setupTestServer(t)
	ownerToken, _ := ts.registerAndLogin(t, "owner@example.com")
	otherToken, _ := ts.registerAndLogin(t, "other@example.com")

	resp := ts.api.Post("/api/v1/tags",
		map[string]any{"name": "Mine"},
		"Authorization: Bearer "+ownerToken)
	require.Equal(t, http.StatusCreated, resp.Code)

	resp = ts.api.Get("/api/v1/tags", "Authorization: Bearer "+otherToken)
	require.Equal(t, http.StatusOK, resp.Code)

	envelope := decodeEnvelope[ListTagsResponse](t, resp.Body.Bytes())
	assert.Empty(t, envelope.Data.Tags)
}
