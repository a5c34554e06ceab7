package domain

import "time"

// Tag is a user-owned label for categorizing recipes.
// Tags are scoped per user: two users can each have a "Vegan" tag and
// they are distinct rows. Names are matched exactly within one user's scope.
type Tag struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Touch updates the UpdatedAt timestamp.
func (t *Tag) Touch() {
	t.UpdatedAt = time.Now()
}

// RecipeTag is the many-to-many link between recipes and tags.
// The pair is unique, so attaching an already-attached tag is a no-op.
type RecipeTag struct {
	RecipeID  string    `json:"recipe_id"`
	TagID     string    `json:"tag_id"`
	CreatedAt time.Time `json:"created_at"`
}
