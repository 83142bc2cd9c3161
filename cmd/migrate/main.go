package main

import (
	"database/sql"
	"flag"
	"log"
	"time"

	_ "github.com/lib/pq"

	"github.com/foodgram/backend/config"
	"github.com/foodgram/backend/internal/database"
)

// waitForDatabase pings postgres until it accepts connections. Compose
// starts the migrate container alongside the database, which may still be
// initializing.
func waitForDatabase(dsn string, attempts int) error {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return err
	}
	defer db.Close()

	for i := 0; i < attempts; i++ {
		if err = db.Ping(); err == nil {
			return nil
		}
		log.Printf("Database not ready (%v), retrying...", err)
		time.Sleep(2 * time.Second)
	}
	return err
}

func main() {
	attempts := flag.Int("wait", 15, "Number of connection attempts before giving up")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if err := waitForDatabase(database.DSN(cfg), *attempts); err != nil {
		log.Fatalf("Database never became ready: %v", err)
	}

	db, err := database.New(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	if err := database.RunMigrations(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	log.Println("Migrations applied successfully")
}
