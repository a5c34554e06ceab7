// Package search provides full-text recipe search using Bleve.
// Recipes are indexed per user with their title, description, and the
// names of attached tags and ingredients.
package search

import (
	"github.com/pantryapp/pantry-server/internal/domain"
)

// SearchDocument is the document structure for the Bleve index.
//
// Design note: tag and ingredient names are denormalized into the recipe
// document so one query covers everything a user might remember about a
// dish. The trade-off is re-indexing on association changes, which recipe
// writes already trigger.
type SearchDocument struct {
	// Identity
	ID     string `json:"id"`
	UserID string `json:"user_id"` // Owner; every query is filtered to one user

	// Primary searchable text
	Name        string `json:"name"` // Recipe title
	Description string `json:"description,omitempty"`

	// Denormalized association names
	Tags        []string `json:"tags,omitempty"`
	Ingredients []string `json:"ingredients,omitempty"`

	// Numeric fields for range queries and sorting
	TimeMinutes int `json:"time_minutes,omitempty"`

	// Timestamps for sorting
	CreatedAt int64 `json:"created_at"` // Unix millis
	UpdatedAt int64 `json:"updated_at"` // Unix millis
}

// ToMap converts the document to a map with lowercase field names.
// This ensures field names match the Bleve index mapping.
// Bleve by default uses Go struct field names (capitalized), but our
// mapping uses lowercase names, so we convert explicitly.
func (d *SearchDocument) ToMap() map[string]interface{} {
	m := map[string]interface{}{
		"id":         d.ID,
		"user_id":    d.UserID,
		"name":       d.Name,
		"created_at": d.CreatedAt,
		"updated_at": d.UpdatedAt,
	}

	// Optional fields - only add if non-empty
	if d.Description != "" {
		m["description"] = d.Description
	}
	if len(d.Tags) > 0 {
		m["tags"] = d.Tags
	}
	if len(d.Ingredients) > 0 {
		m["ingredients"] = d.Ingredients
	}
	if d.TimeMinutes > 0 {
		m["time_minutes"] = d.TimeMinutes
	}

	return m
}

// RecipeToSearchDocument converts a domain Recipe to a SearchDocument.
// The recipe's Tags and Ingredients slices must already be loaded.
func RecipeToSearchDocument(r *domain.Recipe) *SearchDocument {
	return &SearchDocument{
		ID:          r.ID,
		UserID:      r.UserID,
		Name:        r.Title,
		Description: r.Description,
		Tags:        r.TagNames(),
		Ingredients: r.IngredientNames(),
		TimeMinutes: r.TimeMinutes,
		CreatedAt:   r.CreatedAt.UnixMilli(),
		UpdatedAt:   r.UpdatedAt.UnixMilli(),
	}
}
