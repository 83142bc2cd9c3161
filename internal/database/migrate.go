package database

import (
	"log"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/foodgram/backend/internal/models"
)

// Tag reference data. Colors are bound to slugs the same way the admin
// fixtures define them.
var defaultTags = []models.Tag{
	{Name: "breakfast", Color: "#553277", Slug: "breakfast"},
	{Name: "lunch", Color: "#f51100", Slug: "lunch"},
	{Name: "dinner", Color: "#d3fb00", Slug: "dinner"},
}

// RunMigrations migrates the schema and seeds the fixed tag enumeration.
func RunMigrations(db *gorm.DB) error {
	log.Printf("Running auto-migration (%s)", db.Dialector.Name())
	if err := db.AutoMigrate(
		&models.User{},
		&models.Follow{},
		&models.Ingredient{},
		&models.Tag{},
		&models.Recipe{},
		&models.RecipeIngredient{},
		&models.RecipeTag{},
		&models.FavoriteEntry{},
		&models.ShoppingCartEntry{},
	); err != nil {
		return err
	}
	return SeedTags(db)
}

// SeedTags inserts the fixed tag rows if they are not present yet.
func SeedTags(db *gorm.DB) error {
	for _, tag := range defaultTags {
		tag := tag
		if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&tag).Error; err != nil {
			return err
		}
	}
	return nil
}
