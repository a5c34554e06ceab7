package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/pantryapp/pantry-server/internal/domain"
	"github.com/pantryapp/pantry-server/internal/store"
)

// recipeColumns is the ordered list of columns selected in recipe queries.
// Must match the scan order in scanRecipe.
const recipeColumns = `id, user_id, created_at, updated_at, title, description,
	time_minutes, price_cents, link, image_path, blur_hash`

// scanRecipe scans a sql.Row (or sql.Rows via its Scan method) into a
// domain.Recipe. Tags and Ingredients are left nil; callers load them
// separately.
func scanRecipe(scanner interface{ Scan(dest ...any) error }) (*domain.Recipe, error) {
	var r domain.Recipe

	var (
		createdAt  string
		updatedAt  string
		priceCents int64
		imagePath  sql.NullString
		blurHash   sql.NullString
	)

	err := scanner.Scan(
		&r.ID,
		&r.UserID,
		&createdAt,
		&updatedAt,
		&r.Title,
		&r.Description,
		&r.TimeMinutes,
		&priceCents,
		&r.Link,
		&imagePath,
		&blurHash,
	)
	if err != nil {
		return nil, err
	}

	r.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, err
	}
	r.UpdatedAt, err = parseTime(updatedAt)
	if err != nil {
		return nil, err
	}

	r.Price = domain.Price(priceCents)

	if imagePath.Valid {
		r.ImagePath = imagePath.String
	}
	if blurHash.Valid {
		r.BlurHash = blurHash.String
	}

	return &r, nil
}

// RecipeFilter narrows ListRecipes results. ID lists are OR'd within a
// field and AND'd across fields; empty lists mean no filtering on that field.
type RecipeFilter struct {
	TagIDs        []string
	IngredientIDs []string
}

// placeholders returns a comma-separated list of n SQL placeholders.
func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

// CreateRecipe inserts a recipe and resolves its tag and ingredient names in
// a single transaction. Names are matched within the owner's scope, created
// on miss, and attached without duplicates. On return the recipe's Tags and
// Ingredients slices hold the resolved entities. Nothing is written if any
// step fails.
func (s *Store) CreateRecipe(ctx context.Context, r *domain.Recipe, tagNames, ingredientNames []string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO recipes (
			id, user_id, created_at, updated_at, title, description,
			time_minutes, price_cents, link, image_path, blur_hash
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID,
		r.UserID,
		formatTime(r.CreatedAt),
		formatTime(r.UpdatedAt),
		r.Title,
		r.Description,
		r.TimeMinutes,
		int64(r.Price),
		r.Link,
		nullString(r.ImagePath),
		nullString(r.BlurHash),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return store.ErrAlreadyExists
		}
		return fmt.Errorf("insert recipe: %w", err)
	}

	tags, err := reconcileRecipeTags(ctx, tx, r.ID, r.UserID, tagNames)
	if err != nil {
		return err
	}
	ingredients, err := reconcileRecipeIngredients(ctx, tx, r.ID, r.UserID, ingredientNames)
	if err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	r.Tags = tags
	r.Ingredients = ingredients
	return nil
}

// GetRecipe retrieves a recipe with its tags and ingredients, scoped to the
// owner. A recipe belonging to another user reads as store.ErrNotFound.
func (s *Store) GetRecipe(ctx context.Context, recipeID, userID string) (*domain.Recipe, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+recipeColumns+` FROM recipes WHERE id = ? AND user_id = ?`,
		recipeID, userID)

	r, err := scanRecipe(row)
	if err == sql.ErrNoRows {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if err := s.loadRecipeAssociations(ctx, r); err != nil {
		return nil, err
	}
	return r, nil
}

// ListRecipes returns the user's recipes, newest first, with tags and
// ingredients loaded. Association filters use EXISTS subqueries so each
// recipe appears exactly once no matter how many of its associations match.
func (s *Store) ListRecipes(ctx context.Context, userID string, filter RecipeFilter) ([]*domain.Recipe, error) {
	query := `SELECT ` + recipeColumns + ` FROM recipes WHERE user_id = ?`
	args := []any{userID}

	if len(filter.TagIDs) > 0 {
		query += ` AND EXISTS (
			SELECT 1 FROM recipe_tags rt
			WHERE rt.recipe_id = recipes.id AND rt.tag_id IN (` + placeholders(len(filter.TagIDs)) + `))`
		for _, tagID := range filter.TagIDs {
			args = append(args, tagID)
		}
	}
	if len(filter.IngredientIDs) > 0 {
		query += ` AND EXISTS (
			SELECT 1 FROM recipe_ingredients ri
			WHERE ri.recipe_id = recipes.id AND ri.ingredient_id IN (` + placeholders(len(filter.IngredientIDs)) + `))`
		for _, ingredientID := range filter.IngredientIDs {
			args = append(args, ingredientID)
		}
	}

	query += ` ORDER BY created_at DESC, id DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var recipes []*domain.Recipe
	for rows.Next() {
		r, err := scanRecipe(rows)
		if err != nil {
			return nil, err
		}
		recipes = append(recipes, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, r := range recipes {
		if err := s.loadRecipeAssociations(ctx, r); err != nil {
			return nil, err
		}
	}

	if recipes == nil {
		recipes = []*domain.Recipe{}
	}

	return recipes, nil
}

// UpdateRecipe performs a full row update scoped to the owner, then applies
// tri-state association updates: a nil slice pointer leaves that field's
// junction rows untouched, a pointer to an empty slice clears them, and a
// pointer to values replaces them via name reconciliation. The whole
// operation is one transaction. On return the recipe's Tags and Ingredients
// reflect the stored state.
// Returns store.ErrNotFound if the recipe does not exist or belongs to
// another user.
func (s *Store) UpdateRecipe(ctx context.Context, r *domain.Recipe, tagNames, ingredientNames *[]string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `
		UPDATE recipes SET
			updated_at = ?,
			title = ?,
			description = ?,
			time_minutes = ?,
			price_cents = ?,
			link = ?
		WHERE id = ? AND user_id = ?`,
		formatTime(r.UpdatedAt),
		r.Title,
		r.Description,
		r.TimeMinutes,
		int64(r.Price),
		r.Link,
		r.ID,
		r.UserID,
	)
	if err != nil {
		return fmt.Errorf("update recipe: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}

	var tags []domain.Tag
	if tagNames != nil {
		tags, err = reconcileRecipeTags(ctx, tx, r.ID, r.UserID, *tagNames)
	} else {
		tags, err = loadRecipeTags(ctx, tx, r.ID)
	}
	if err != nil {
		return err
	}

	var ingredients []domain.Ingredient
	if ingredientNames != nil {
		ingredients, err = reconcileRecipeIngredients(ctx, tx, r.ID, r.UserID, *ingredientNames)
	} else {
		ingredients, err = loadRecipeIngredients(ctx, tx, r.ID)
	}
	if err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	r.Tags = tags
	r.Ingredients = ingredients
	return nil
}

// DeleteRecipe performs a hard delete scoped to the owner. Junction rows
// cascade; tag and ingredient entities survive for the user's other recipes.
// Returns store.ErrNotFound if the recipe does not exist or belongs to
// another user.
func (s *Store) DeleteRecipe(ctx context.Context, recipeID, userID string) error {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM recipes WHERE id = ? AND user_id = ?`, recipeID, userID)
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

// SetRecipeImage records the stored image path and blurhash for a recipe,
// scoped to the owner. Returns store.ErrNotFound on a missing or foreign
// recipe.
func (s *Store) SetRecipeImage(ctx context.Context, recipeID, userID, imagePath, blurHash string) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE recipes SET image_path = ?, blur_hash = ?, updated_at = ?
		WHERE id = ? AND user_id = ?`,
		nullString(imagePath),
		nullString(blurHash),
		formatTime(time.Now()),
		recipeID,
		userID,
	)
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

// reconcileRecipeTags replaces a recipe's tag set inside an open
// transaction. Each name is resolved within the owner's scope, creating the
// tag on miss; a UNIQUE race during create resolves by re-reading the
// winner's row. Duplicate input names collapse to a single association.
func reconcileRecipeTags(ctx context.Context, tx *sql.Tx, recipeID, userID string, names []string) ([]domain.Tag, error) {
	if _, err := tx.ExecContext(ctx, `DELETE FROM recipe_tags WHERE recipe_id = ?`, recipeID); err != nil {
		return nil, fmt.Errorf("delete recipe_tags: %w", err)
	}

	now := formatTime(time.Now().UTC())
	tags := make([]domain.Tag, 0, len(names))
	seen := make(map[string]bool, len(names))

	for _, name := range names {
		t, _, err := findOrCreateTag(ctx, tx, userID, name)
		if err != nil {
			return nil, err
		}
		if seen[t.ID] {
			continue
		}
		seen[t.ID] = true

		_, err = tx.ExecContext(ctx, `
			INSERT OR IGNORE INTO recipe_tags (recipe_id, tag_id, created_at)
			VALUES (?, ?, ?)`,
			recipeID, t.ID, now,
		)
		if err != nil {
			return nil, fmt.Errorf("insert recipe_tag: %w", err)
		}
		tags = append(tags, *t)
	}

	return tags, nil
}

// reconcileRecipeIngredients mirrors reconcileRecipeTags for ingredients.
func reconcileRecipeIngredients(ctx context.Context, tx *sql.Tx, recipeID, userID string, names []string) ([]domain.Ingredient, error) {
	if _, err := tx.ExecContext(ctx, `DELETE FROM recipe_ingredients WHERE recipe_id = ?`, recipeID); err != nil {
		return nil, fmt.Errorf("delete recipe_ingredients: %w", err)
	}

	now := formatTime(time.Now().UTC())
	ingredients := make([]domain.Ingredient, 0, len(names))
	seen := make(map[string]bool, len(names))

	for _, name := range names {
		ing, _, err := findOrCreateIngredient(ctx, tx, userID, name)
		if err != nil {
			return nil, err
		}
		if seen[ing.ID] {
			continue
		}
		seen[ing.ID] = true

		_, err = tx.ExecContext(ctx, `
			INSERT OR IGNORE INTO recipe_ingredients (recipe_id, ingredient_id, created_at)
			VALUES (?, ?, ?)`,
			recipeID, ing.ID, now,
		)
		if err != nil {
			return nil, fmt.Errorf("insert recipe_ingredient: %w", err)
		}
		ingredients = append(ingredients, *ing)
	}

	return ingredients, nil
}

// loadRecipeTags returns a recipe's tags ordered by name for stable output.
func loadRecipeTags(ctx context.Context, q querier, recipeID string) ([]domain.Tag, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT `+prefixColumns("t", tagColumns)+`
		FROM tags t
		JOIN recipe_tags rt ON rt.tag_id = t.id
		WHERE rt.recipe_id = ?
		ORDER BY t.name ASC`, recipeID)
	if err != nil {
		return nil, fmt.Errorf("query recipe tags: %w", err)
	}
	defer rows.Close()

	tags := []domain.Tag{}
	for rows.Next() {
		t, err := scanTag(rows)
		if err != nil {
			return nil, err
		}
		tags = append(tags, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return tags, nil
}

// loadRecipeIngredients returns a recipe's ingredients ordered by name.
func loadRecipeIngredients(ctx context.Context, q querier, recipeID string) ([]domain.Ingredient, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT `+prefixColumns("i", ingredientColumns)+`
		FROM ingredients i
		JOIN recipe_ingredients ri ON ri.ingredient_id = i.id
		WHERE ri.recipe_id = ?
		ORDER BY i.name ASC`, recipeID)
	if err != nil {
		return nil, fmt.Errorf("query recipe ingredients: %w", err)
	}
	defer rows.Close()

	ingredients := []domain.Ingredient{}
	for rows.Next() {
		ing, err := scanIngredient(rows)
		if err != nil {
			return nil, err
		}
		ingredients = append(ingredients, *ing)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return ingredients, nil
}

// loadRecipeAssociations populates a recipe's Tags and Ingredients.
func (s *Store) loadRecipeAssociations(ctx context.Context, r *domain.Recipe) error {
	tags, err := loadRecipeTags(ctx, s.db, r.ID)
	if err != nil {
		return err
	}
	ingredients, err := loadRecipeIngredients(ctx, s.db, r.ID)
	if err != nil {
		return err
	}
	r.Tags = tags
	r.Ingredients = ingredients
	return nil
}

// prefixColumns qualifies each column in a comma-separated list with a
// table alias for use in joins.
func prefixColumns(alias, columns string) string {
	parts := strings.Split(columns, ",")
	for i, p := range parts {
		parts[i] = alias + "." + strings.TrimSpace(p)
	}
	return strings.Join(parts, ", ")
}
