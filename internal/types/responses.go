package types

import (
	"github.com/google/uuid"

	"github.com/foodgram/backend/internal/models"
)

// UserProfile is the public representation of a user. IsSubscribed is
// computed for the requesting viewer, not stored.
type UserProfile struct {
	Email        string    `json:"email"`
	ID           uuid.UUID `json:"id"`
	Username     string    `json:"username"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	IsSubscribed bool      `json:"is_subscribed"`
}

// RecipeIngredientView flattens an association row with its ingredient.
type RecipeIngredientView struct {
	ID              uuid.UUID `json:"id"`
	Name            string    `json:"name"`
	MeasurementUnit string    `json:"measurement_unit"`
	Amount          int       `json:"amount"`
}

// RecipeDetail is the full recipe representation returned by create, update
// and retrieve.
type RecipeDetail struct {
	ID               uuid.UUID              `json:"id"`
	Tags             []models.Tag           `json:"tags"`
	Author           UserProfile            `json:"author"`
	Ingredients      []RecipeIngredientView `json:"ingredients"`
	IsFavorited      bool                   `json:"is_favorited"`
	IsInShoppingCart bool                   `json:"is_in_shopping_cart"`
	Name             string                 `json:"name"`
	Image            string                 `json:"image"`
	Text             string                 `json:"text"`
	CookingTime      int                    `json:"cooking_time"`
}

// RecipeSummary is the short recipe shape used by favorites, the shopping
// cart and subscription previews.
type RecipeSummary struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Image       string    `json:"image"`
	CookingTime int       `json:"cooking_time"`
}

// Subscription is one followed author with a bounded recipe preview and the
// total recipe count.
type Subscription struct {
	UserProfile
	Recipes      []RecipeSummary `json:"recipes"`
	RecipesCount int64           `json:"recipes_count"`
}

// ShoppingListItem is one aggregated line of the downloadable shopping list.
type ShoppingListItem struct {
	IngredientName  string `json:"ingredient_name"`
	MeasurementUnit string `json:"measurement_unit"`
	TotalAmount     int    `json:"total_amount"`
}
