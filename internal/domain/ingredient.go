package domain

import "time"

// Ingredient is a user-owned ingredient entry, shared across that user's
// recipes. Same scoping rules as Tag: per-user, exact-name matched.
type Ingredient struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Touch updates the UpdatedAt timestamp.
func (i *Ingredient) Touch() {
	i.UpdatedAt = time.Now()
}

// RecipeIngredient is the many-to-many link between recipes and ingredients.
type RecipeIngredient struct {
	RecipeID     string    `json:"recipe_id"`
	IngredientID string    `json:"ingredient_id"`
	CreatedAt    time.Time `json:"created_at"`
}
