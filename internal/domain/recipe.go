package domain

// Recipe is the central entity: a user-owned dish with its preparation
// metadata and attached tags and ingredients.
//
// The Tags and Ingredients slices always belong to the same user as the
// recipe itself. The store enforces this: attachment resolves names only
// within the owner's scope, so a recipe can never reference another
// user's entities. The slices are unordered sets with no duplicates.
type Recipe struct {
	Record
	UserID      string       `json:"user_id"`
	Title       string       `json:"title"`
	Description string       `json:"description,omitempty"`
	TimeMinutes int          `json:"time_minutes"`
	Price       Price        `json:"price"`
	Link        string       `json:"link,omitempty"`
	ImagePath   string       `json:"image_path,omitempty"`
	BlurHash    string       `json:"blur_hash,omitempty"`
	Tags        []Tag        `json:"tags"`
	Ingredients []Ingredient `json:"ingredients"`
}

// HasImage returns true if an image has been uploaded for the recipe.
func (r *Recipe) HasImage() bool {
	return r.ImagePath != ""
}

// TagNames returns the names of the recipe's tags.
func (r *Recipe) TagNames() []string {
	names := make([]string, len(r.Tags))
	for i, t := range r.Tags {
		names[i] = t.Name
	}
	return names
}

// IngredientNames returns the names of the recipe's ingredients.
func (r *Recipe) IngredientNames() []string {
	names := make([]string, len(r.Ingredients))
	for i, ing := range r.Ingredients {
		names[i] = ing.Name
	}
	return names
}
