package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/pantryapp/pantry-server/internal/auth"
	"github.com/pantryapp/pantry-server/internal/domain"
	domainerrors "github.com/pantryapp/pantry-server/internal/errors"
	"github.com/pantryapp/pantry-server/internal/store"
	"github.com/pantryapp/pantry-server/internal/store/sqlite"
)

// UserService provides account profile management for the authenticated user.
type UserService struct {
	store  *sqlite.Store
	logger *slog.Logger
}

// NewUserService creates a new user service.
func NewUserService(store *sqlite.Store, logger *slog.Logger) *UserService {
	return &UserService{
		store:  store,
		logger: logger,
	}
}

// GetProfile returns the user's own account.
func (s *UserService) GetProfile(ctx context.Context, userID string) (*domain.User, error) {
	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotFound("user not found")
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}

// UpdateProfileRequest contains optional fields to update.
// Nil fields are left untouched.
type UpdateProfileRequest struct {
	Email    *string
	Name     *string
	Password *string
}

// UpdateProfile applies a partial update to the user's own account.
// A new password is re-hashed; existing sessions stay valid.
func (s *UserService) UpdateProfile(ctx context.Context, userID string, req UpdateProfileRequest) (*domain.User, error) {
	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotFound("user not found")
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	changed := false

	if req.Email != nil {
		if err := validate.Var(*req.Email, "required,email"); err != nil {
			return nil, domainerrors.Validation("email must be a valid email address")
		}
		user.Email = *req.Email
		changed = true
	}

	if req.Name != nil {
		if len(*req.Name) > 255 {
			return nil, domainerrors.Validation("name exceeds maximum length of 255 characters")
		}
		user.Name = *req.Name
		changed = true
	}

	if req.Password != nil {
		if len(*req.Password) < 8 {
			return nil, domainerrors.Validation("password must be at least 8 characters")
		}

		newHash, err := auth.HashPassword(*req.Password)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}

		user.PasswordHash = newHash
		changed = true
		s.logger.Info("password changed", "user_id", userID)
	}

	if !changed {
		return user, nil
	}

	user.Touch()
	if err := s.store.UpdateUser(ctx, user); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return nil, domainerrors.AlreadyExists("email already in use")
		}
		return nil, fmt.Errorf("save user: %w", err)
	}

	s.logger.Info("profile updated", "user_id", userID)

	return user, nil
}
