package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/foodgram/backend/internal/models"
	"github.com/foodgram/backend/internal/types"
)

// RecipeService handles recipe composition, favorites, the shopping cart and
// the aggregated shopping list.
type RecipeService struct {
	db     *gorm.DB
	images *ImageService
}

// NewRecipeService creates a new RecipeService instance
func NewRecipeService(db *gorm.DB, images *ImageService) *RecipeService {
	return &RecipeService{
		db:     db,
		images: images,
	}
}

// RecipeFilter narrows the recipe listing. Favorited and InShoppingCart only
// apply when a viewer is known.
type RecipeFilter struct {
	AuthorID       *uuid.UUID
	TagSlug        string
	Favorited      bool
	InShoppingCart bool
}

// validateComposition checks a recipe payload before anything is written.
// With partial set, absent ingredient/tag/scalar fields are allowed and mean
// "keep the current value".
func (s *RecipeService) validateComposition(ctx context.Context, req *types.RecipeRequest, partial bool) error {
	if !partial {
		if strings.TrimSpace(req.Name) == "" {
			return missingField("name")
		}
		if strings.TrimSpace(req.Text) == "" {
			return missingField("text")
		}
		if len(req.Ingredients) == 0 {
			return missingField("ingredients")
		}
		if len(req.Tags) == 0 {
			return missingField("tags")
		}
		if req.Image == "" {
			return missingField("image")
		}
		if req.CookingTime == 0 {
			return missingField("cooking_time")
		}
	}
	if req.CookingTime < 0 || (!partial && req.CookingTime < 1) {
		return &ValidationError{Field: "cooking_time", Message: "must be at least 1"}
	}

	if len(req.Ingredients) > 0 {
		seen := make(map[uuid.UUID]bool, len(req.Ingredients))
		ids := make([]uuid.UUID, 0, len(req.Ingredients))
		for _, item := range req.Ingredients {
			if item.Amount < 1 {
				return &ValidationError{Field: "ingredients", Message: "amount must be a positive integer"}
			}
			if seen[item.ID] {
				return &ValidationError{Field: "ingredients", Message: "duplicate ingredient"}
			}
			seen[item.ID] = true
			ids = append(ids, item.ID)
		}
		var count int64
		if err := s.db.WithContext(ctx).Model(&models.Ingredient{}).Where("id IN ?", ids).Count(&count).Error; err != nil {
			return err
		}
		if count != int64(len(ids)) {
			return &ValidationError{Field: "ingredients", Message: "unknown ingredient"}
		}
	}

	if len(req.Tags) > 0 {
		seen := make(map[uuid.UUID]bool, len(req.Tags))
		for _, id := range req.Tags {
			if seen[id] {
				return &ValidationError{Field: "tags", Message: "duplicate tag"}
			}
			seen[id] = true
		}
		var count int64
		if err := s.db.WithContext(ctx).Model(&models.Tag{}).Where("id IN ?", req.Tags).Count(&count).Error; err != nil {
			return err
		}
		if count != int64(len(req.Tags)) {
			return &ValidationError{Field: "tags", Message: "unknown tag"}
		}
	}

	return nil
}

// Create validates the payload, stores the image and writes the recipe with
// all its association rows in one transaction.
func (s *RecipeService) Create(ctx context.Context, authorID uuid.UUID, req *types.RecipeRequest) (*types.RecipeDetail, error) {
	if err := s.validateComposition(ctx, req, false); err != nil {
		return nil, err
	}

	imageURL, err := s.images.DecodeAndStore(ctx, req.Image)
	if err != nil {
		return nil, err
	}

	recipe := models.Recipe{
		AuthorID:    authorID,
		Name:        req.Name,
		Image:       imageURL,
		Text:        req.Text,
		CookingTime: req.CookingTime,
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&recipe).Error; err != nil {
			return err
		}
		if err := replaceIngredients(tx, recipe.ID, req.Ingredients); err != nil {
			return err
		}
		return replaceTags(tx, recipe.ID, req.Tags)
	})
	if err != nil {
		s.discardUnreferenced(ctx, req.Image, imageURL)
		return nil, err
	}

	return s.Get(ctx, recipe.ID, &authorID)
}

// Update applies a partial recipe payload. Only the author may update.
// Provided ingredient/tag lists replace the existing association rows
// (delete-then-reinsert); omitted lists are left untouched.
func (s *RecipeService) Update(ctx context.Context, recipeID, userID uuid.UUID, req *types.RecipeRequest) (*types.RecipeDetail, error) {
	var recipe models.Recipe
	if err := s.db.WithContext(ctx).First(&recipe, "id = ?", recipeID).Error; err != nil {
		return nil, err
	}
	if recipe.AuthorID != userID {
		return nil, ErrNotAuthor
	}

	if err := s.validateComposition(ctx, req, true); err != nil {
		return nil, err
	}

	newImageURL := ""
	if req.Image != "" {
		imageURL, err := s.images.DecodeAndStore(ctx, req.Image)
		if err != nil {
			return nil, err
		}
		recipe.Image = imageURL
		newImageURL = imageURL
	}
	if req.Name != "" {
		recipe.Name = req.Name
	}
	if req.Text != "" {
		recipe.Text = req.Text
	}
	if req.CookingTime != 0 {
		recipe.CookingTime = req.CookingTime
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(&recipe).Error; err != nil {
			return err
		}
		if len(req.Ingredients) > 0 {
			if err := replaceIngredients(tx, recipe.ID, req.Ingredients); err != nil {
				return err
			}
		}
		if len(req.Tags) > 0 {
			if err := replaceTags(tx, recipe.ID, req.Tags); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if newImageURL != "" {
			s.discardUnreferenced(ctx, req.Image, newImageURL)
		}
		return nil, err
	}

	return s.Get(ctx, recipe.ID, &userID)
}

// discardUnreferenced removes a stored image artifact after a rolled-back
// write, unless another recipe shares it (identical payloads map to the same
// artifact). Cleanup is best effort, the rollback error already reached the
// caller's path.
func (s *RecipeService) discardUnreferenced(ctx context.Context, encoded, imageURL string) {
	var refs int64
	if err := s.db.WithContext(ctx).Model(&models.Recipe{}).
		Where("image = ?", imageURL).Count(&refs).Error; err != nil || refs > 0 {
		return
	}
	_ = s.images.Discard(ctx, encoded)
}

func replaceIngredients(tx *gorm.DB, recipeID uuid.UUID, items []types.IngredientAmount) error {
	if err := tx.Where("recipe_id = ?", recipeID).Delete(&models.RecipeIngredient{}).Error; err != nil {
		return err
	}
	for _, item := range items {
		row := models.RecipeIngredient{
			RecipeID:     recipeID,
			IngredientID: item.ID,
			Amount:       item.Amount,
		}
		if err := tx.Create(&row).Error; err != nil {
			return err
		}
	}
	return nil
}

func replaceTags(tx *gorm.DB, recipeID uuid.UUID, tagIDs []uuid.UUID) error {
	if err := tx.Where("recipe_id = ?", recipeID).Delete(&models.RecipeTag{}).Error; err != nil {
		return err
	}
	seen := make(map[uuid.UUID]bool, len(tagIDs))
	for _, id := range tagIDs {
		if seen[id] {
			continue
		}
		seen[id] = true
		row := models.RecipeTag{RecipeID: recipeID, TagID: id}
		if err := tx.Create(&row).Error; err != nil {
			return err
		}
	}
	return nil
}

// Get retrieves a recipe with its full representation. The viewer, when
// known, determines is_favorited/is_in_shopping_cart/is_subscribed.
func (s *RecipeService) Get(ctx context.Context, id uuid.UUID, viewerID *uuid.UUID) (*types.RecipeDetail, error) {
	var recipe models.Recipe
	if err := s.db.WithContext(ctx).First(&recipe, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return s.buildDetail(ctx, &recipe, viewerID)
}

// Delete removes a recipe; association rows cascade.
func (s *RecipeService) Delete(ctx context.Context, id, userID uuid.UUID) error {
	var recipe models.Recipe
	if err := s.db.WithContext(ctx).First(&recipe, "id = ?", id).Error; err != nil {
		return err
	}
	if recipe.AuthorID != userID {
		return ErrNotAuthor
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, assoc := range []interface{}{
			&models.RecipeIngredient{},
			&models.RecipeTag{},
			&models.FavoriteEntry{},
			&models.ShoppingCartEntry{},
		} {
			if err := tx.Where("recipe_id = ?", id).Delete(assoc).Error; err != nil {
				return err
			}
		}
		return tx.Delete(&models.Recipe{}, "id = ?", id).Error
	})
}

// List returns a page of recipes plus the total count.
func (s *RecipeService) List(ctx context.Context, filter RecipeFilter, viewerID *uuid.UUID, page, limit int) ([]types.RecipeDetail, int64, error) {
	query := s.db.WithContext(ctx).Model(&models.Recipe{})

	if filter.AuthorID != nil {
		query = query.Where("recipes.author_id = ?", *filter.AuthorID)
	}
	if filter.TagSlug != "" {
		query = query.
			Joins("JOIN recipe_tags ON recipe_tags.recipe_id = recipes.id").
			Joins("JOIN tags ON tags.id = recipe_tags.tag_id").
			Where("tags.slug = ?", filter.TagSlug)
	}
	if filter.Favorited && viewerID != nil {
		query = query.
			Joins("JOIN favorite_entries ON favorite_entries.recipe_id = recipes.id").
			Where("favorite_entries.user_id = ?", *viewerID)
	}
	if filter.InShoppingCart && viewerID != nil {
		query = query.
			Joins("JOIN shopping_cart_entries ON shopping_cart_entries.recipe_id = recipes.id").
			Where("shopping_cart_entries.user_id = ?", *viewerID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var recipes []models.Recipe
	if err := query.Order("recipes.created_at").Offset((page - 1) * limit).Limit(limit).Find(&recipes).Error; err != nil {
		return nil, 0, err
	}

	details := make([]types.RecipeDetail, 0, len(recipes))
	for i := range recipes {
		detail, err := s.buildDetail(ctx, &recipes[i], viewerID)
		if err != nil {
			return nil, 0, err
		}
		details = append(details, *detail)
	}
	return details, total, nil
}

// AddToFavorites idempotently adds the recipe to the user's favorites and
// returns its summary.
func (s *RecipeService) AddToFavorites(ctx context.Context, userID, recipeID uuid.UUID) (*types.RecipeSummary, error) {
	recipe, err := s.findRecipe(ctx, recipeID)
	if err != nil {
		return nil, err
	}
	entry := models.FavoriteEntry{UserID: userID, RecipeID: recipeID}
	if err := s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&entry).Error; err != nil {
		return nil, err
	}
	return summaryOf(recipe), nil
}

// RemoveFromFavorites deletes the favorite entry; ErrNotInList when absent.
func (s *RecipeService) RemoveFromFavorites(ctx context.Context, userID, recipeID uuid.UUID) error {
	res := s.db.WithContext(ctx).
		Where("user_id = ? AND recipe_id = ?", userID, recipeID).
		Delete(&models.FavoriteEntry{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotInList
	}
	return nil
}

// AddToCart idempotently adds the recipe to the user's shopping cart and
// returns its summary.
func (s *RecipeService) AddToCart(ctx context.Context, userID, recipeID uuid.UUID) (*types.RecipeSummary, error) {
	recipe, err := s.findRecipe(ctx, recipeID)
	if err != nil {
		return nil, err
	}
	entry := models.ShoppingCartEntry{UserID: userID, RecipeID: recipeID}
	if err := s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&entry).Error; err != nil {
		return nil, err
	}
	return summaryOf(recipe), nil
}

// RemoveFromCart deletes the cart entry; ErrNotInList when absent.
func (s *RecipeService) RemoveFromCart(ctx context.Context, userID, recipeID uuid.UUID) error {
	res := s.db.WithContext(ctx).
		Where("user_id = ? AND recipe_id = ?", userID, recipeID).
		Delete(&models.ShoppingCartEntry{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotInList
	}
	return nil
}

// ShoppingList sums ingredient amounts across all recipes in the user's
// cart, grouped by ingredient name and unit, ordered by name. An empty cart
// yields an empty slice.
func (s *RecipeService) ShoppingList(ctx context.Context, userID uuid.UUID) ([]types.ShoppingListItem, error) {
	var items []types.ShoppingListItem
	err := s.db.WithContext(ctx).Model(&models.RecipeIngredient{}).
		Select("ingredients.name AS ingredient_name, ingredients.measurement_unit AS measurement_unit, SUM(recipe_ingredients.amount) AS total_amount").
		Joins("JOIN ingredients ON ingredients.id = recipe_ingredients.ingredient_id").
		Joins("JOIN shopping_cart_entries ON shopping_cart_entries.recipe_id = recipe_ingredients.recipe_id").
		Where("shopping_cart_entries.user_id = ?", userID).
		Group("ingredients.name, ingredients.measurement_unit").
		Order("ingredients.name").
		Scan(&items).Error
	return items, err
}

// RenderShoppingList serializes the aggregated list into the plain-text
// report served as a downloadable file.
func RenderShoppingList(items []types.ShoppingListItem) []byte {
	var b strings.Builder
	b.WriteString("Shopping list:\n")
	for _, item := range items {
		fmt.Fprintf(&b, "%s (%s) — %d\n", item.IngredientName, item.MeasurementUnit, item.TotalAmount)
	}
	return []byte(b.String())
}

// IsFavorited reports whether the user has the recipe in their favorites.
func (s *RecipeService) IsFavorited(ctx context.Context, userID, recipeID uuid.UUID) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.FavoriteEntry{}).
		Where("user_id = ? AND recipe_id = ?", userID, recipeID).Count(&count).Error
	return count > 0, err
}

// IsInShoppingCart reports whether the user has the recipe in their cart.
func (s *RecipeService) IsInShoppingCart(ctx context.Context, userID, recipeID uuid.UUID) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.ShoppingCartEntry{}).
		Where("user_id = ? AND recipe_id = ?", userID, recipeID).Count(&count).Error
	return count > 0, err
}

func (s *RecipeService) findRecipe(ctx context.Context, id uuid.UUID) (*models.Recipe, error) {
	var recipe models.Recipe
	if err := s.db.WithContext(ctx).First(&recipe, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &recipe, nil
}

func summaryOf(recipe *models.Recipe) *types.RecipeSummary {
	return &types.RecipeSummary{
		ID:          recipe.ID,
		Name:        recipe.Name,
		Image:       recipe.Image,
		CookingTime: recipe.CookingTime,
	}
}

func (s *RecipeService) buildDetail(ctx context.Context, recipe *models.Recipe, viewerID *uuid.UUID) (*types.RecipeDetail, error) {
	var author models.User
	if err := s.db.WithContext(ctx).First(&author, "id = ?", recipe.AuthorID).Error; err != nil {
		return nil, err
	}

	var tags []models.Tag
	if err := s.db.WithContext(ctx).Model(&models.Tag{}).
		Joins("JOIN recipe_tags ON recipe_tags.tag_id = tags.id").
		Where("recipe_tags.recipe_id = ?", recipe.ID).
		Find(&tags).Error; err != nil {
		return nil, err
	}

	var ingredients []types.RecipeIngredientView
	if err := s.db.WithContext(ctx).Model(&models.RecipeIngredient{}).
		Select("ingredients.id AS id, ingredients.name AS name, ingredients.measurement_unit AS measurement_unit, recipe_ingredients.amount AS amount").
		Joins("JOIN ingredients ON ingredients.id = recipe_ingredients.ingredient_id").
		Where("recipe_ingredients.recipe_id = ?", recipe.ID).
		Scan(&ingredients).Error; err != nil {
		return nil, err
	}

	detail := &types.RecipeDetail{
		ID: recipe.ID,
		Author: types.UserProfile{
			Email:     author.Email,
			ID:        author.ID,
			Username:  author.Username,
			FirstName: author.FirstName,
			LastName:  author.LastName,
		},
		Tags:        tags,
		Ingredients: ingredients,
		Name:        recipe.Name,
		Image:       recipe.Image,
		Text:        recipe.Text,
		CookingTime: recipe.CookingTime,
	}

	if viewerID != nil {
		favorited, err := s.IsFavorited(ctx, *viewerID, recipe.ID)
		if err != nil {
			return nil, err
		}
		inCart, err := s.IsInShoppingCart(ctx, *viewerID, recipe.ID)
		if err != nil {
			return nil, err
		}
		detail.IsFavorited = favorited
		detail.IsInShoppingCart = inCart

		var follows int64
		if err := s.db.WithContext(ctx).Model(&models.Follow{}).
			Where("user_id = ? AND author_id = ?", *viewerID, recipe.AuthorID).
			Count(&follows).Error; err != nil {
			return nil, err
		}
		detail.Author.IsSubscribed = follows > 0
	}

	return detail, nil
}
