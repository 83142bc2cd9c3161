package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/foodgram/backend/internal/database"
	"github.com/foodgram/backend/internal/middleware"
	"github.com/foodgram/backend/internal/service"
)

// Handlers bundles everything the router needs.
type Handlers struct {
	DB                  *gorm.DB
	AuthService         *service.AuthService
	RecipeService       *service.RecipeService
	SubscriptionService *service.SubscriptionService
	CreationLimiter     *middleware.RateLimiter
}

// RegisterRoutes mounts the full API surface under /api plus the health
// probe at the root.
func RegisterRoutes(router *gin.Engine, h *Handlers) {
	router.GET("/health", healthCheck(h.DB))

	group := router.Group("/api")

	NewAuthHandler(h.AuthService).RegisterRoutes(group)
	NewUserHandler(h.DB, h.AuthService, h.SubscriptionService).RegisterRoutes(group)
	NewTagHandler(h.DB).RegisterRoutes(group)
	NewIngredientHandler(h.DB).RegisterRoutes(group)
	NewRecipeHandler(h.RecipeService, h.AuthService, h.CreationLimiter).RegisterRoutes(group)
}

func healthCheck(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := database.HealthCheck(c.Request.Context(), db); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}
