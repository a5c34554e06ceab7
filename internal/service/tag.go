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

// TagService manages a user's recipe tags.
// Tag names are unique per user; two users can both have "Vegan".
type TagService struct {
	store  *sqlite.Store
	logger *slog.Logger
}

// NewTagService creates a new tag service.
func NewTagService(store *sqlite.Store, logger *slog.Logger) *TagService {
	return &TagService{
		store:  store,
		logger: logger,
	}
}

// ListTags returns the user's tags ordered by name descending.
// With assignedOnly set, only tags attached to at least one recipe are
// returned, each tag once.
func (s *TagService) ListTags(ctx context.Context, userID string, assignedOnly bool) ([]*domain.Tag, error) {
	tags, err := s.store.ListTags(ctx, userID, assignedOnly)
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	return tags, nil
}

// GetTag returns one of the user's tags.
func (s *TagService) GetTag(ctx context.Context, tagID, userID string) (*domain.Tag, error) {
	tag, err := s.store.GetTag(ctx, tagID, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotFound("tag not found")
		}
		return nil, fmt.Errorf("get tag: %w", err)
	}
	return tag, nil
}

// CreateTag creates a tag directly, outside of recipe composition.
// Returns the existing tag when the name is already taken, mirroring
// the reconciliation behavior of recipe writes.
func (s *TagService) CreateTag(ctx context.Context, userID, name string) (*domain.Tag, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, domainerrors.Validation("name is required")
	}
	if len(name) > 255 {
		return nil, domainerrors.Validation("name exceeds maximum length of 255 characters")
	}

	tag, created, err := s.store.FindOrCreateTag(ctx, userID, name)
	if err != nil {
		return nil, fmt.Errorf("create tag: %w", err)
	}

	if created && s.logger != nil {
		s.logger.Info("Tag created", "tag_id", tag.ID, "user_id", userID)
	}

	return tag, nil
}

// RenameTag changes a tag's name. Renaming onto a name the user already
// has is a conflict, not a merge.
func (s *TagService) RenameTag(ctx context.Context, tagID, userID, name string) (*domain.Tag, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, domainerrors.Validation("name is required")
	}
	if len(name) > 255 {
		return nil, domainerrors.Validation("name exceeds maximum length of 255 characters")
	}

	tag, err := s.store.GetTag(ctx, tagID, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotFound("tag not found")
		}
		return nil, fmt.Errorf("get tag: %w", err)
	}

	tag.Name = name
	tag.Touch()

	if err := s.store.UpdateTag(ctx, tag); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return nil, domainerrors.Conflict("a tag with that name already exists")
		}
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotFound("tag not found")
		}
		return nil, fmt.Errorf("rename tag: %w", err)
	}

	return tag, nil
}

// DeleteTag removes a tag and detaches it from all recipes.
func (s *TagService) DeleteTag(ctx context.Context, tagID, userID string) error {
	if err := s.store.DeleteTag(ctx, tagID, userID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domainerrors.NotFound("tag not found")
		}
		return fmt.Errorf("delete tag: %w", err)
	}

	if s.logger != nil {
		s.logger.Info("Tag deleted", "tag_id", tagID, "user_id", userID)
	}

	return nil
}
