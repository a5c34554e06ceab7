package service

import (
	"context"
	"crypto/rand"
	"errors"
	"encoding/hex"
	"path/filepath"
	"testing"
	"time"

	"github.com/pantryapp/pantry-server/internal/auth"
	domainerrors "github.com/pantryapp/pantry-server/internal/errors"
	"github.com/pantryapp/pantry-server/internal/store/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupAuthTest creates services with temporary storage for testing.
func setupAuthTest(t *testing.T) (*AuthService, *SessionService, *sqlite.Store) {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")

	s, err := sqlite.Open(dbPath, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	key := make([]byte, 32)
	_, err = rand.Read(key)
	require.NoError(t, err)

	tokenService, err := auth.NewTokenService(
		hex.EncodeToString(key),
		15*time.Minute,
		30*24*time.Hour,
	)
	require.NoError(t, err)

	sessionService := NewSessionService(s, tokenService, nil)
	authService := NewAuthService(s, tokenService, sessionService, nil)

	return authService, sessionService, s
}

func TestAuthService_Register_Success(t *testing.T) {
	authService, _, _ := setupAuthTest(t)
	ctx := context.Background()

	user, err := authService.Register(ctx, RegisterRequest{
		Email:    "cook@example.com",
		Password: "SecurePassword123!",
		Name:     "Test Cook",
	})
	require.NoError(t, err)

	assert.NotEmpty(t, user.ID)
	assert.Equal(t, "cook@example.com", user.Email)
	assert.Equal(t, "Test Cook", user.Name)
	assert.True(t, user.IsActive)
	// Password is stored hashed, never verbatim
	assert.NotEmpty(t, user.PasswordHash)
	assert.NotContains(t, user.PasswordHash, "SecurePassword123!")
}

func TestAuthService_Register_DuplicateEmail(t *testing.T) {
	authService, _, _ := setupAuthTest(t)
	ctx := context.Background()

	_, err := authService.Register(ctx, RegisterRequest{
		Email:    "cook@example.com",
		Password: "SecurePassword123!",
	})
	require.NoError(t, err)

	// Same email, different case, still a duplicate
	_, err = authService.Register(ctx, RegisterRequest{
		Email:    "Cook@Example.com",
		Password: "AnotherPassword123!",
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domainerrors.AlreadyExists("")))
}

func TestAuthService_Register_Validation(t *testing.T) {
	authService, _, _ := setupAuthTest(t)
	ctx := context.Background()

	tests := []struct {
		name string
		req  RegisterRequest
	}{
		{"missing email", RegisterRequest{Password: "SecurePassword123!"}},
		{"invalid email", RegisterRequest{Email: "not-an-email", Password: "SecurePassword123!"}},
		{"short password", RegisterRequest{Email: "cook@example.com", Password: "short"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := authService.Register(ctx, tt.req)
			require.Error(t, err)
			assert.True(t, errors.Is(err, domainerrors.Validation("")))
		})
	}
}

func TestAuthService_Login_Success(t *testing.T) {
	authService, _, _ := setupAuthTest(t)
	ctx := context.Background()

	_, err := authService.Register(ctx, RegisterRequest{
		Email:    "cook@example.com",
		Password: "SecurePassword123!",
	})
	require.NoError(t, err)

	resp, err := authService.Login(ctx, LoginRequest{
		Email:    "cook@example.com",
		Password: "SecurePassword123!",
	})
	require.NoError(t, err)

	assert.NotNil(t, resp.User)
	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)
	assert.Equal(t, "Bearer", resp.TokenType)
	assert.NotEmpty(t, resp.SessionID)
	assert.Greater(t, resp.ExpiresIn, 0)
	assert.False(t, resp.User.LastLoginAt.IsZero())
}

func TestAuthService_Login_CaseInsensitiveEmail(t *testing.T) {
	authService, _, _ := setupAuthTest(t)
	ctx := context.Background()

	_, err := authService.Register(ctx, RegisterRequest{
		Email:    "cook@example.com",
		Password: "SecurePassword123!",
	})
	require.NoError(t, err)

	resp, err := authService.Login(ctx, LoginRequest{
		Email:    "COOK@EXAMPLE.COM",
		Password: "SecurePassword123!",
	})
	require.NoError(t, err)
	assert.Equal(t, "cook@example.com", resp.User.Email)
}

func TestAuthService_Login_WrongPassword(t *testing.T) {
	authService, _, _ := setupAuthTest(t)
	ctx := context.Background()

	_, err := authService.Register(ctx, RegisterRequest{
		Email:    "cook@example.com",
		Password: "SecurePassword123!",
	})
	require.NoError(t, err)

	_, err = authService.Login(ctx, LoginRequest{
		Email:    "cook@example.com",
		Password: "WrongPassword123!",
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domainerrors.InvalidCredentials("")))
}

func TestAuthService_Login_UnknownEmail(t *testing.T) {
	authService, _, _ := setupAuthTest(t)
	ctx := context.Background()

	// Same error as wrong password so the response doesn't reveal
	// which emails are registered
	_, err := authService.Login(ctx, LoginRequest{
		Email:    "nobody@example.com",
		Password: "SecurePassword123!",
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domainerrors.InvalidCredentials("")))
}

func TestAuthService_Login_InactiveAccount(t *testing.T) {
	authService, _, s := setupAuthTest(t)
	ctx := context.Background()

	user, err := authService.Register(ctx, RegisterRequest{
		Email:    "cook@example.com",
		Password: "SecurePassword123!",
	})
	require.NoError(t, err)

	user.IsActive = false
	require.NoError(t, s.UpdateUser(ctx, user))

	_, err = authService.Login(ctx, LoginRequest{
		Email:    "cook@example.com",
		Password: "SecurePassword123!",
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domainerrors.InvalidCredentials("")))
}

func TestAuthService_RefreshTokens_Rotation(t *testing.T) {
	authService, _, _ := setupAuthTest(t)
	ctx := context.Background()

	_, err := authService.Register(ctx, RegisterRequest{
		Email:    "cook@example.com",
		Password: "SecurePassword123!",
	})
	require.NoError(t, err)

	loginResp, err := authService.Login(ctx, LoginRequest{
		Email:    "cook@example.com",
		Password: "SecurePassword123!",
	})
	require.NoError(t, err)

	refreshResp, err := authService.RefreshTokens(ctx, RefreshRequest{
		RefreshToken: loginResp.RefreshToken,
	})
	require.NoError(t, err)

	assert.NotEmpty(t, refreshResp.AccessToken)
	assert.NotEqual(t, loginResp.RefreshToken, refreshResp.RefreshToken)
	assert.Equal(t, loginResp.SessionID, refreshResp.SessionID)

	// Old refresh token is dead after rotation
	_, err = authService.RefreshTokens(ctx, RefreshRequest{
		RefreshToken: loginResp.RefreshToken,
	})
	require.Error(t, err)
}

func TestAuthService_Logout(t *testing.T) {
	authService, _, _ := setupAuthTest(t)
	ctx := context.Background()

	_, err := authService.Register(ctx, RegisterRequest{
		Email:    "cook@example.com",
		Password: "SecurePassword123!",
	})
	require.NoError(t, err)

	loginResp, err := authService.Login(ctx, LoginRequest{
		Email:    "cook@example.com",
		Password: "SecurePassword123!",
	})
	require.NoError(t, err)

	require.NoError(t, authService.Logout(ctx, loginResp.SessionID))

	// Refresh token is revoked with the session
	_, err = authService.RefreshTokens(ctx, RefreshRequest{
		RefreshToken: loginResp.RefreshToken,
	})
	require.Error(t, err)
}

func TestAuthService_VerifyAccessToken(t *testing.T) {
	authService, _, _ := setupAuthTest(t)
	ctx := context.Background()

	registered, err := authService.Register(ctx, RegisterRequest{
		Email:    "cook@example.com",
		Password: "SecurePassword123!",
	})
	require.NoError(t, err)

	loginResp, err := authService.Login(ctx, LoginRequest{
		Email:    "cook@example.com",
		Password: "SecurePassword123!",
	})
	require.NoError(t, err)

	user, claims, err := authService.VerifyAccessToken(ctx, loginResp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, registered.ID, user.ID)
	assert.Equal(t, registered.ID, claims.UserID)

	_, _, err = authService.VerifyAccessToken(ctx, "garbage-token")
	require.Error(t, err)
}
