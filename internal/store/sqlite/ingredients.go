package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/pantryapp/pantry-server/internal/domain"
	"github.com/pantryapp/pantry-server/internal/id"
	"github.com/pantryapp/pantry-server/internal/store"
)

// ingredientColumns is the ordered list of columns selected in ingredient
// queries. Must match the scan order in scanIngredient.
const ingredientColumns = `id, user_id, name, created_at, updated_at`

// scanIngredient scans a sql.Row (or sql.Rows via its Scan method) into a
// domain.Ingredient.
func scanIngredient(scanner interface{ Scan(dest ...any) error }) (*domain.Ingredient, error) {
	var ing domain.Ingredient

	var (
		createdAt string
		updatedAt string
	)

	err := scanner.Scan(
		&ing.ID,
		&ing.UserID,
		&ing.Name,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	ing.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, err
	}
	ing.UpdatedAt, err = parseTime(updatedAt)
	if err != nil {
		return nil, err
	}

	return &ing, nil
}

// CreateIngredient inserts a new ingredient into the database.
// Returns store.ErrAlreadyExists on a duplicate name within the user's scope.
func (s *Store) CreateIngredient(ctx context.Context, ing *domain.Ingredient) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO ingredients (id, user_id, name, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)`,
		ing.ID,
		ing.UserID,
		ing.Name,
		formatTime(ing.CreatedAt),
		formatTime(ing.UpdatedAt),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return store.ErrAlreadyExists
		}
		return err
	}
	return nil
}

// GetIngredient retrieves an ingredient by ID within the owner's scope.
// Foreign or missing ingredients both read as store.ErrNotFound.
func (s *Store) GetIngredient(ctx context.Context, ingredientID, userID string) (*domain.Ingredient, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+ingredientColumns+` FROM ingredients WHERE id = ? AND user_id = ?`,
		ingredientID, userID)

	ing, err := scanIngredient(row)
	if err == sql.ErrNoRows {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return ing, nil
}

// getIngredientByName retrieves an ingredient by exact name within the
// owner's scope.
func getIngredientByName(ctx context.Context, q querier, userID, name string) (*domain.Ingredient, error) {
	row := q.QueryRowContext(ctx,
		`SELECT `+ingredientColumns+` FROM ingredients WHERE user_id = ? AND name = ?`,
		userID, name)

	ing, err := scanIngredient(row)
	if err == sql.ErrNoRows {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return ing, nil
}

// GetIngredientByName retrieves an ingredient by exact name within the
// owner's scope. Returns store.ErrNotFound if no such ingredient exists.
func (s *Store) GetIngredientByName(ctx context.Context, userID, name string) (*domain.Ingredient, error) {
	return getIngredientByName(ctx, s.db, userID, name)
}

// ListIngredients returns the user's ingredients ordered by name descending.
// When assignedOnly is true, only ingredients attached to at least one
// recipe are returned, each exactly once.
func (s *Store) ListIngredients(ctx context.Context, userID string, assignedOnly bool) ([]*domain.Ingredient, error) {
	query := `SELECT ` + ingredientColumns + ` FROM ingredients WHERE user_id = ?`
	if assignedOnly {
		query += ` AND EXISTS (SELECT 1 FROM recipe_ingredients ri WHERE ri.ingredient_id = ingredients.id)`
	}
	query += ` ORDER BY name DESC`

	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ingredients []*domain.Ingredient
	for rows.Next() {
		ing, err := scanIngredient(rows)
		if err != nil {
			return nil, err
		}
		ingredients = append(ingredients, ing)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if ingredients == nil {
		ingredients = []*domain.Ingredient{}
	}

	return ingredients, nil
}

// UpdateIngredient performs a full row update on an existing ingredient,
// scoped to the owner. Returns store.ErrNotFound if the ingredient does not
// exist or belongs to another user, and store.ErrAlreadyExists on a name
// collision within the user's scope.
func (s *Store) UpdateIngredient(ctx context.Context, ing *domain.Ingredient) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE ingredients SET name = ?, updated_at = ?
		WHERE id = ? AND user_id = ?`,
		ing.Name,
		formatTime(ing.UpdatedAt),
		ing.ID,
		ing.UserID,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return store.ErrAlreadyExists
		}
		return err
	}

	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

// DeleteIngredient performs a hard delete of an ingredient, scoped to the
// owner. Junction rows cascade. Returns store.ErrNotFound if the ingredient
// does not exist or belongs to another user.
func (s *Store) DeleteIngredient(ctx context.Context, ingredientID, userID string) error {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM ingredients WHERE id = ? AND user_id = ?`, ingredientID, userID)
	if err != nil {
		return err
	}

	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

// FindOrCreateIngredient finds the user's ingredient with the given name or
// creates it. Returns (ingredient, created, error).
func (s *Store) FindOrCreateIngredient(ctx context.Context, userID, name string) (*domain.Ingredient, bool, error) {
	return findOrCreateIngredient(ctx, s.db, userID, name)
}

// findOrCreateIngredient mirrors findOrCreateTag for ingredients.
func findOrCreateIngredient(ctx context.Context, q querier, userID, name string) (*domain.Ingredient, bool, error) {
	existing, err := getIngredientByName(ctx, q, userID, name)
	if err == nil {
		return existing, false, nil
	}
	if err != store.ErrNotFound {
		return nil, false, err
	}

	ingredientID, err := id.Generate("ingredient")
	if err != nil {
		return nil, false, fmt.Errorf("generate ingredient id: %w", err)
	}

	now := time.Now().UTC()
	ing := &domain.Ingredient{
		ID:        ingredientID,
		UserID:    userID,
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}

	_, err = q.ExecContext(ctx, `
		INSERT INTO ingredients (id, user_id, name, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)`,
		ing.ID, ing.UserID, ing.Name, formatTime(ing.CreatedAt), formatTime(ing.UpdatedAt),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			// Race condition: another writer created it. Use theirs.
			existing, err := getIngredientByName(ctx, q, userID, name)
			if err != nil {
				return nil, false, err
			}
			return existing, false, nil
		}
		return nil, false, err
	}

	return ing, true, nil
}
