package api

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encodeTestJPEG(t *testing.T) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, 32, 32))
	for y := 0; y < 32; y++ {
		for x := 0; x < 32; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 8), G: uint8(y * 8), B: 128, A: 255}) //nolint:gosec // Bounded by image size
		}
	}

	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, nil))
	return buf.Bytes()
}

func (ts *testServer) createRecipe(t *testing.T, token string, body map[string]any) RecipeResponse {
	t.Helper()

	// time_minutes and price are required; most tests don't care about
	// their values, so fill them in when the caller leaves them out.
	if _, ok := body["time_minutes"]; !ok {
		body["time_minutes"] = 10
	}
	if _, ok := body["price"]; !ok {
		body["price"] = "5.00"
	}

	resp := ts.api.Post("/api/v1/recipes", body, "Authorization: Bearer "+token)
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())

	return decodeEnvelope[RecipeResponse](t, resp.Body.Bytes()).Data
}

func TestCreateRecipe_Success(t *testing.T) {
	ts := setupTestServer(t)
	token, _ := ts.registerAndLogin(t, "cook@example.com")

	recipe := ts.createRecipe(t, token, map[string]any{
		"title":        "Dal tadka",
		"time_minutes": 40,
		"price":        "4.50",
		"description":  "Spiced red lentils",
		"tags":         []string{"indian", "vegan"},
		"ingredients":  []string{"lentils", "cumin"},
	})

	assert.NotEmpty(t, recipe.ID)
	assert.Equal(t, "Dal tadka", recipe.Title)
	assert.Equal(t, 40, recipe.TimeMinutes)
	assert.Equal(t, "4.50", recipe.Price)
	assert.Len(t, recipe.Tags, 2)
	assert.Len(t, recipe.Ingredients, 2)
}

func TestCreateRecipe_ReusesExistingEntities(t *testing.T) {
	ts := setupTestServer(t)
	token, _ := ts.registerAndLogin(t, "cook@example.com")

	first := ts.createRecipe(t, token, map[string]any{
		"title": "Curry one",
		"tags":  []string{"indian"},
	})
	second := ts.createRecipe(t, token, map[string]any{
		"title": "Curry two",
		"tags":  []string{"Indian"}, // Same name, different case
	})

	require.Len(t, first.Tags, 1)
	require.Len(t, second.Tags, 1)
	assert.Equal(t, first.Tags[0].ID, second.Tags[0].ID)
}

func TestCreateRecipe_MissingScalarsRejected(t *testing.T) {
	ts := setupTestServer(t)
	token, _ := ts.registerAndLogin(t, "cook@example.com")

	// time_minutes and price are required on create.
	resp := ts.api.Post("/api/v1/recipes", map[string]any{
		"title": "Underspecified",
	}, "Authorization: Bearer "+token)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.Code, resp.Body.String())

	resp = ts.api.Post("/api/v1/recipes", map[string]any{
		"title": "Zero is fine",
		// A zero prep time is a legitimate value, only omission is rejected.
		"time_minutes": 0,
		"price":        "0.00",
	}, "Authorization: Bearer "+token)
	assert.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
}

func TestCreateRecipe_InvalidPrice(t *testing.T) {
	ts := setupTestServer(t)
	token, _ := ts.registerAndLogin(t, "cook@example.com")

	resp := ts.api.Post("/api/v1/recipes", map[string]any{
		"title":        "Bad price",
		"time_minutes": 10,
		"price":        "4.999",
	}, "Authorization: Bearer "+token)
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestListRecipes_FiltersByTagID(t *testing.T) {
	ts := setupTestServer(t)
	token, _ := ts.registerAndLogin(t, "cook@example.com")

	tagged := ts.createRecipe(t, token, map[string]any{
		"title": "Tagged",
		"tags":  []string{"dinner"},
	})
	ts.createRecipe(t, token, map[string]any{
		"title": "Untagged",
	})

	require.Len(t, tagged.Tags, 1)
	tagID := tagged.Tags[0].ID

	resp := ts.api.Get("/api/v1/recipes?tags="+tagID, "Authorization: Bearer "+token)
	require.Equal(t, http.StatusOK, resp.Code)

	envelope := decodeEnvelope[ListRecipesResponse](t, resp.Body.Bytes())
	require.Len(t, envelope.Data.Recipes, 1)
	assert.Equal(t, tagged.ID, envelope.Data.Recipes[0].ID)
}

func TestGetRecipe_OtherUsersRecipeIs404(t *testing.T) {
	ts := setupTestServer(t)
	ownerToken, _ := ts.registerAndLogin(t, "owner@example.com")
	otherToken, _ := ts.registerAndLogin(t, "other@example.com")

	recipe := ts.createRecipe(t, ownerToken, map[string]any{"title": "Private"})

	resp := ts.api.Get("/api/v1/recipes/"+recipe.ID, "Authorization: Bearer "+otherToken)
	assert.Equal(t, http.StatusNotFound, resp.Code)

	resp = ts.api.Get("/api/v1/recipes/"+recipe.ID, "Authorization: Bearer "+ownerToken)
	assert.Equal(t, http.StatusOK, resp.Code)
}

func TestUpdateRecipe_PartialLeavesAssociations(t *testing.T) {
	ts := setupTestServer(t)
	token, _ := ts.registerAndLogin(t, "cook@example.com")

	recipe := ts.createRecipe(t, token, map[string]any{
		"title":       "Original",
		"tags":        []string{"dinner"},
		"ingredients": []string{"rice"},
	})

	resp := ts.api.Patch("/api/v1/recipes/"+recipe.ID,
		map[string]any{"title": "Renamed"},
		"Authorization: Bearer "+token)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	updated := decodeEnvelope[RecipeResponse](t, resp.Body.Bytes()).Data
	assert.Equal(t, "Renamed", updated.Title)
	assert.Len(t, updated.Tags, 1)
	assert.Len(t, updated.Ingredients, 1)
}

func TestUpdateRecipe_EmptyListClearsTags(t *testing.T) {
	ts := setupTestServer(t)
	token, _ := ts.registerAndLogin(t, "cook@example.com")

	recipe := ts.createRecipe(t, token, map[string]any{
		"title": "Clearable",
		"tags":  []string{"breakfast"},
	})

	resp := ts.api.Patch("/api/v1/recipes/"+recipe.ID,
		map[string]any{"tags": []string{}},
		"Authorization: Bearer "+token)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	updated := decodeEnvelope[RecipeResponse](t, resp.Body.Bytes()).Data
	assert.Empty(t, updated.Tags)

	// The tag entity itself survives for reuse.
	resp = ts.api.Get("/api/v1/tags", "Authorization: Bearer "+token)
	require.Equal(t, http.StatusOK, resp.Code)
	tags := decodeEnvelope[ListTagsResponse](t, resp.Body.Bytes())
	assert.Len(t, tags.Data.Tags, 1)
}

func TestReplaceRecipe_OmittedListsClear(t *testing.T) {
	ts := setupTestServer(t)
	token, _ := ts.registerAndLogin(t, "cook@example.com")

	recipe := ts.createRecipe(t, token, map[string]any{
		"title":       "Full",
		"tags":        []string{"dinner"},
		"ingredients": []string{"rice"},
	})

	resp := ts.api.Put("/api/v1/recipes/"+recipe.ID,
		map[string]any{"title": "Replaced", "time_minutes": 15, "price": "2.00"},
		"Authorization: Bearer "+token)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	replaced := decodeEnvelope[RecipeResponse](t, resp.Body.Bytes()).Data
	assert.Equal(t, "Replaced", replaced.Title)
	assert.Empty(t, replaced.Tags)
	assert.Empty(t, replaced.Ingredients)
}

func TestReplaceRecipe_MissingScalarsRejected(t *testing.T) {
	ts := setupTestServer(t)
	token, _ := ts.registerAndLogin(t, "cook@example.com")

	recipe := ts.createRecipe(t, token, map[string]any{
		"title":        "Keeper",
		"time_minutes": 30,
		"price":        "3.40",
	})

	// A full replace without the required scalars is rejected, it must
	// not silently zero out the stored values.
	resp := ts.api.Put("/api/v1/recipes/"+recipe.ID,
		map[string]any{"title": "Sneaky"},
		"Authorization: Bearer "+token)
	require.Equal(t, http.StatusUnprocessableEntity, resp.Code, resp.Body.String())

	resp = ts.api.Get("/api/v1/recipes/"+recipe.ID, "Authorization: Bearer "+token)
	require.Equal(t, http.StatusOK, resp.Code)
	got := decodeEnvelope[RecipeResponse](t, resp.Body.Bytes()).Data
	assert.Equal(t, "Keeper", got.Title)
	assert.Equal(t, 30, got.TimeMinutes)
	assert.Equal(t, "3.40", got.Price)
}

func TestUpdateRecipe_TitleOnlyKeepsScalars(t *testing.T) {
	ts := setupTestServer(t)
	token, _ := ts.registerAndLogin(t, "cook@example.com")

	recipe := ts.createRecipe(t, token, map[string]any{
		"title":        "Original",
		"time_minutes": 30,
		"price":        "3.40",
	})

	resp := ts.api.Patch("/api/v1/recipes/"+recipe.ID,
		map[string]any{"title": "Renamed"},
		"Authorization: Bearer "+token)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	updated := decodeEnvelope[RecipeResponse](t, resp.Body.Bytes()).Data
	assert.Equal(t, "Renamed", updated.Title)
	assert.Equal(t, 30, updated.TimeMinutes)
	assert.Equal(t, "3.40", updated.Price)
}

func TestDeleteRecipe_Success(t *testing.T) {
	ts := setupTestServer(t)
	token, _ := ts.registerAndLogin(t, "cook@example.com")

	recipe := ts.createRecipe(t, token, map[string]any{"title": "Doomed"})

	resp := ts.api.Delete("/api/v1/recipes/"+recipe.ID, "Authorization: Bearer "+token)
	assert.Equal(t, http.StatusOK, resp.Code)

	resp = ts.api.Get("/api/v1/recipes/"+recipe.ID, "Authorization: Bearer "+token)
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestUploadRecipeImage_Success(t *testing.T) {
	ts := setupTestServer(t)
	token, _ := ts.registerAndLogin(t, "cook@example.com")

	recipe := ts.createRecipe(t, token, map[string]any{"title": "Photogenic"})

	resp := ts.api.Post("/api/v1/recipes/"+recipe.ID+"/upload-image",
		"Authorization: Bearer "+token,
		"Content-Type: image/jpeg",
		bytes.NewReader(encodeTestJPEG(t)))
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	updated := decodeEnvelope[RecipeResponse](t, resp.Body.Bytes()).Data
	assert.Equal(t, fmt.Sprintf("/media/recipes/%s.jpg", recipe.ID), updated.ImagePath)
	assert.NotEmpty(t, updated.BlurHash)
}

func TestUploadRecipeImage_MultipartForm(t *testing.T) {
	ts := setupTestServer(t)
	token, _ := ts.registerAndLogin(t, "cook@example.com")

	recipe := ts.createRecipe(t, token, map[string]any{"title": "Form upload"})

	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)
	field, err := form.CreateFormFile("image", "photo.jpg")
	require.NoError(t, err)
	_, err = field.Write(encodeTestJPEG(t))
	require.NoError(t, err)
	require.NoError(t, form.Close())

	resp := ts.api.Post("/api/v1/recipes/"+recipe.ID+"/upload-image",
		"Authorization: Bearer "+token,
		"Content-Type: "+form.FormDataContentType(),
		&buf)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	updated := decodeEnvelope[RecipeResponse](t, resp.Body.Bytes()).Data
	assert.Equal(t, fmt.Sprintf("/media/recipes/%s.jpg", recipe.ID), updated.ImagePath)
}

func TestUploadRecipeImage_MultipartMissingField(t *testing.T) {
	ts := setupTestServer(t)
	token, _ := ts.registerAndLogin(t, "cook@example.com")

	recipe := ts.createRecipe(t, token, map[string]any{"title": "Wrong field"})

	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)
	field, err := form.CreateFormFile("file", "photo.jpg")
	require.NoError(t, err)
	_, err = field.Write(encodeTestJPEG(t))
	require.NoError(t, err)
	require.NoError(t, form.Close())

	resp := ts.api.Post("/api/v1/recipes/"+recipe.ID+"/upload-image",
		"Authorization: Bearer "+token,
		"Content-Type: "+form.FormDataContentType(),
		&buf)
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestUploadRecipeImage_GarbageRejected(t *testing.T) {
	ts := setupTestServer(t)
	token, _ := ts.registerAndLogin(t, "cook@example.com")

	recipe := ts.createRecipe(t, token, map[string]any{"title": "No photo"})

	resp := ts.api.Post("/api/v1/recipes/"+recipe.ID+"/upload-image",
		"Authorization: Bearer "+token,
		"Content-Type: image/jpeg",
		bytes.NewReader([]byte("definitely not an image")))
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestServeRecipeImage_AfterUpload(t *testing.T) {
	ts := setupTestServer(t)
	token, _ := ts.registerAndLogin(t, "cook@example.com")

	recipe := ts.createRecipe(t, token, map[string]any{"title": "Servable"})

	resp := ts.api.Post("/api/v1/recipes/"+recipe.ID+"/upload-image",
		"Authorization: Bearer "+token,
		"Content-Type: image/jpeg",
		bytes.NewReader(encodeTestJPEG(t)))
	require.Equal(t, http.StatusOK, resp.Code)

	data, err := ts.storage.Get(recipe.ID)
	require.NoError(t, err)
	assert.NotEmpty(t, data)

	// Served over the media route with cache validation headers
	req := httptest.NewRequest(http.MethodGet, fmt.Sprintf("/media/recipes/%s.jpg", recipe.ID), http.NoBody)
	w := httptest.NewRecorder()
	ts.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/jpeg", w.Header().Get("Content-Type")) // uploaded bytes were JPEG
	etag := w.Header().Get("ETag")
	require.NotEmpty(t, etag)
	assert.Equal(t, data, w.Body.Bytes())

	// A matching If-None-Match short-circuits to 304
	req = httptest.NewRequest(http.MethodGet, fmt.Sprintf("/media/recipes/%s.jpg", recipe.ID), http.NoBody)
	req.Header.Set("If-None-Match", etag)
	w = httptest.NewRecorder()
	ts.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotModified, w.Code)
}

func TestServeRecipeImage_MissingIs404(t *testing.T) {
	ts := setupTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/media/recipes/recipe-missing.jpg", http.NoBody)
	w := httptest.NewRecorder()
	ts.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}
