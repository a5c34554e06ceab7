package api

import (
	"github.com/pantryapp/pantry-server/internal/service"
)

// Services groups all business services used by API handlers.
type Services struct {
	Auth       *service.AuthService
	Session    *service.SessionService
	User       *service.UserService
	Recipe     *service.RecipeService
	Tag        *service.TagService
	Ingredient *service.IngredientService
	Search     *service.SearchService
}
