package service_test

import (
	"encoding/base64"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/foodgram/backend/internal/models"
	"github.com/foodgram/backend/internal/service"
	"github.com/foodgram/backend/internal/testhelpers"
	"github.com/foodgram/backend/internal/types"
)

func setupRecipeService(t *testing.T) (*gorm.DB, *service.RecipeService) {
	db, svc, _ := setupRecipeServiceWithMedia(t)
	return db, svc
}

func setupRecipeServiceWithMedia(t *testing.T) (*gorm.DB, *service.RecipeService, string) {
	t.Helper()
	db := testhelpers.SetupTestDatabase(t)
	mediaDir := t.TempDir()
	images := service.NewImageService(service.NewLocalImageStorage(mediaDir))
	return db, service.NewRecipeService(db, images), mediaDir
}

func createTestUser(t *testing.T, db *gorm.DB, username string) models.User {
	t.Helper()
	user := models.User{
		Email:        fmt.Sprintf("%s@example.com", username),
		Username:     username,
		FirstName:    "Test",
		LastName:     "User",
		PasswordHash: "x",
		IsActive:     true,
	}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("failed to create user %s: %v", username, err)
	}
	return user
}

func createTestIngredient(t *testing.T, db *gorm.DB, name, unit string) models.Ingredient {
	t.Helper()
	ingredient := models.Ingredient{Name: name, MeasurementUnit: unit}
	if err := db.Create(&ingredient).Error; err != nil {
		t.Fatalf("failed to create ingredient %s: %v", name, err)
	}
	return ingredient
}

// tagBySlug looks up one of the seeded tags.
func tagBySlug(t *testing.T, db *gorm.DB, slug string) models.Tag {
	t.Helper()
	var tag models.Tag
	if err := db.First(&tag, "slug = ?", slug).Error; err != nil {
		t.Fatalf("seeded tag %s not found: %v", slug, err)
	}
	return tag
}

func testImagePayload() string {
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString([]byte("png-bytes"))
}

func recipePayload(name string, tags []uuid.UUID, ingredients ...types.IngredientAmount) *types.RecipeRequest {
	return &types.RecipeRequest{
		Name:        name,
		Text:        "Mix everything and cook.",
		CookingTime: 30,
		Image:       testImagePayload(),
		Ingredients: ingredients,
		Tags:        tags,
	}
}
