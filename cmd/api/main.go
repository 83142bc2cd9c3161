package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/foodgram/backend/config"
	"github.com/foodgram/backend/internal/database"
	"github.com/foodgram/backend/internal/server"
	"github.com/foodgram/backend/internal/service"
)

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

	// Rate limiting degrades gracefully when redis is unreachable.
	redisClient, err := database.NewRedisClient(cfg)
	if err != nil {
		log.Printf("Redis unavailable, recipe creation will not be rate limited: %v", err)
		redisClient = nil
	}

	var storage service.ImageStorage
	if cfg.S3Bucket != "" {
		s3Config, err := config.NewS3Config(context.Background())
		if err != nil {
			log.Fatalf("Failed to configure S3: %v", err)
		}
		if err := s3Config.SetupBucketPolicy(context.Background()); err != nil {
			log.Printf("Failed to apply bucket policy, images may not be publicly readable: %v", err)
		}
		storage = service.NewS3ImageStorage(s3Config)
	} else {
		storage = service.NewLocalImageStorage(cfg.MediaDir)
	}

	srv := server.New(cfg, db, redisClient, service.NewImageService(storage))

	errChan := make(chan error, 1)
	go func() {
		log.Println("Starting server...")
		errChan <- srv.Start()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		if err != nil {
			log.Fatalf("Server error: %v", err)
		}
	case sig := <-quit:
		log.Printf("Received signal: %v", sig)
	}

	log.Println("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Server shutdown error: %v", err)
	}
	log.Println("Server stopped")
}
