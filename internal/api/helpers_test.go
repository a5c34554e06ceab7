package api

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/stretchr/testify/require"

	"github.com/pantryapp/pantry-server/internal/auth"
	"github.com/pantryapp/pantry-server/internal/media/images"
	"github.com/pantryapp/pantry-server/internal/search"
	"github.com/pantryapp/pantry-server/internal/service"
	"github.com/pantryapp/pantry-server/internal/store/sqlite"
)

// testEnvelope mirrors the response envelope for assertions.
type testEnvelope[T any] struct {
	Version int    `json:"v"`
	Success bool   `json:"success"`
	Data    T      `json:"data"`
	Error   string `json:"error"`
}

// testServer wraps the API server for handler tests.
type testServer struct {
	*Server
	api humatest.TestAPI
}

// setupTestServer creates a fully wired server backed by temp storage.
func setupTestServer(t *testing.T) *testServer {
	t.Helper()

	tmpDir := t.TempDir()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	st, err := sqlite.Open(filepath.Join(tmpDir, "test.db"), logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	key := make([]byte, 32)
	_, err = rand.Read(key)
	require.NoError(t, err)

	tokenService, err := auth.NewTokenService(
		hex.EncodeToString(key),
		15*time.Minute,
		30*24*time.Hour,
	)
	require.NoError(t, err)

	storage, err := images.NewStorage(filepath.Join(tmpDir, "media"))
	require.NoError(t, err)
	processor := images.NewProcessor(storage, logger)

	index, err := search.NewSearchIndex(search.Options{
		DataPath: filepath.Join(tmpDir, "search"),
		Logger:   logger,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = index.Close() })

	sessionService := service.NewSessionService(st, tokenService, logger)
	authService := service.NewAuthService(st, tokenService, sessionService, logger)

	services := &Services{
		Auth:       authService,
		Session:    sessionService,
		User:       service.NewUserService(st, logger),
		Recipe:     service.NewRecipeService(st, processor, index, logger),
		Tag:        service.NewTagService(st, logger),
		Ingredient: service.NewIngredientService(st, logger),
		Search:     service.NewSearchService(st, index, logger),
	}

	s := NewServer(st, services, storage, logger)

	return &testServer{
		Server: s,
		api:    humatest.Wrap(t, s.api),
	}
}

// registerAndLogin creates a user via the API and returns an access token
// and the user's ID.
func (ts *testServer) registerAndLogin(t *testing.T, email string) (token, userID string) {
	t.Helper()

	resp := ts.api.Post("/api/v1/auth/register", map[string]any{
		"email":    email,
		"password": "SuperSecret123",
		"name":     "Test User",
	})
	require.Equal(t, http.StatusCreated, resp.Code, "register failed: %s", resp.Body.String())

	resp = ts.api.Post("/api/v1/auth/login", map[string]any{
		"email":    email,
		"password": "SuperSecret123",
	})
	require.Equal(t, http.StatusOK, resp.Code, "login failed: %s", resp.Body.String())

	var envelope testEnvelope[AuthResponse]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))

	return envelope.Data.AccessToken, envelope.Data.User.ID
}

// decodeEnvelope unmarshals a response body into a typed envelope.
func decodeEnvelope[T any](t *testing.T, body []byte) testEnvelope[T] {
	t.Helper()

	var envelope testEnvelope[T]
	require.NoError(t, json.Unmarshal(body, &envelope))
	return envelope
}
