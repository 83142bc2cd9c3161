package server

import (
	"context"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/foodgram/backend/config"
	"github.com/foodgram/backend/internal/api"
	"github.com/foodgram/backend/internal/middleware"
	"github.com/foodgram/backend/internal/service"
)

// Server wires the services into a gin engine and owns the HTTP listener.
type Server struct {
	router *gin.Engine
	http   *http.Server
	db     *gorm.DB
}

// New builds the router with all routes registered. The redis client is
// optional, without it recipe creation is not rate limited.
func New(cfg *config.Config, db *gorm.DB, redisClient *redis.Client, images *service.ImageService) *Server {
	router := gin.Default()
	router.Use(middleware.CORS())

	authService := service.NewAuthService(db, cfg.JWTSecret)
	recipeService := service.NewRecipeService(db, images)
	subscriptionService := service.NewSubscriptionService(db)

	var creationLimiter *middleware.RateLimiter
	if redisClient != nil {
		creationLimiter = middleware.NewRecipeCreationRateLimiter(redisClient)
	}

	api.RegisterRoutes(router, &api.Handlers{
		DB:                  db,
		AuthService:         authService,
		RecipeService:       recipeService,
		SubscriptionService: subscriptionService,
		CreationLimiter:     creationLimiter,
	})

	// Serve locally stored recipe images in development.
	if cfg.S3Bucket == "" {
		router.Static("/media", cfg.MediaDir)
	}

	return &Server{
		router: router,
		db:     db,
		http: &http.Server{
			Addr:    cfg.ServerHost + ":" + cfg.ServerPort,
			Handler: router,
		},
	}
}

// Router exposes the gin engine, mainly for tests.
func (s *Server) Router() *gin.Engine {
	return s.router
}

// Start blocks serving HTTP until the listener fails or is shut down.
func (s *Server) Start() error {
	log.Printf("Listening on %s", s.http.Addr)
	if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}
