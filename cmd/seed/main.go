package main

import (
	"encoding/json"
	"log"
	"os"

	"github.com/foodgram/backend/config"
	"github.com/foodgram/backend/internal/database"
	"github.com/foodgram/backend/internal/models"
)

type ingredientFixture struct {
	Name            string `json:"name"`
	MeasurementUnit string `json:"measurement_unit"`
}

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.New(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	if err := database.RunMigrations(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	data, err := os.ReadFile(cfg.FixturesPath)
	if err != nil {
		log.Fatalf("Failed to read ingredient fixtures %s: %v", cfg.FixturesPath, err)
	}

	var fixtures []ingredientFixture
	if err := json.Unmarshal(data, &fixtures); err != nil {
		log.Fatalf("Failed to parse ingredient fixtures: %v", err)
	}

	created := 0
	for _, f := range fixtures {
		if f.Name == "" {
			continue
		}
		var count int64
		if err := db.Model(&models.Ingredient{}).
			Where("name = ? AND measurement_unit = ?", f.Name, f.MeasurementUnit).
			Count(&count).Error; err != nil {
			log.Fatalf("Failed to check ingredient %q: %v", f.Name, err)
		}
		if count > 0 {
			continue
		}
		ingredient := models.Ingredient{Name: f.Name, MeasurementUnit: f.MeasurementUnit}
		if err := db.Create(&ingredient).Error; err != nil {
			log.Fatalf("Failed to create ingredient %q: %v", f.Name, err)
		}
		created++
	}

	log.Printf("Seeded %d ingredients (%d already present)", created, len(fixtures)-created)
}
