package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/foodgram/backend/internal/middleware"
	"github.com/foodgram/backend/internal/models"
	"github.com/foodgram/backend/internal/service"
	"github.com/foodgram/backend/internal/types"
)

type UserHandler struct {
	db                  *gorm.DB
	authService         *service.AuthService
	subscriptionService *service.SubscriptionService
}

func NewUserHandler(db *gorm.DB, authService *service.AuthService, subscriptionService *service.SubscriptionService) *UserHandler {
	return &UserHandler{
		db:                  db,
		authService:         authService,
		subscriptionService: subscriptionService,
	}
}

func (h *UserHandler) RegisterRoutes(router *gin.RouterGroup) {
	users := router.Group("/users")
	{
		users.GET("", h.ListUsers)

		protected := users.Group("", middleware.AuthMiddleware(h.authService))
		{
			protected.GET("/me", h.Me)
			protected.GET("/subscriptions", h.Subscriptions)
			protected.POST("/set_password", h.SetPassword)
			protected.POST("/:id/subscribe", h.Subscribe)
			protected.DELETE("/:id/subscribe", h.Unsubscribe)
		}

		users.GET("/:id", middleware.OptionalAuthMiddleware(h.authService), h.GetUser)
	}
}

func (h *UserHandler) ListUsers(c *gin.Context) {
	page, limit := pagination(c)

	var total int64
	if err := h.db.Model(&models.User{}).Where("is_active = ?", true).Count(&total).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch users"})
		return
	}

	var users []models.User
	if err := h.db.Where("is_active = ?", true).Order("created_at").
		Offset((page - 1) * limit).Limit(limit).Find(&users).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch users"})
		return
	}

	profiles := make([]types.UserProfile, 0, len(users))
	for i := range users {
		profiles = append(profiles, profileOf(&users[i], false))
	}
	c.JSON(http.StatusOK, gin.H{
		"count":   total,
		"results": profiles,
	})
}

func (h *UserHandler) GetUser(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}

	var user models.User
	if err := h.db.First(&user, "id = ?", userID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}

	subscribed := false
	if viewer := viewerID(c); viewer != nil {
		subscribed, _ = h.subscriptionService.IsFollowing(c.Request.Context(), *viewer, user.ID)
	}
	c.JSON(http.StatusOK, profileOf(&user, subscribed))
}

func (h *UserHandler) Me(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	var user models.User
	if err := h.db.First(&user, "id = ?", userID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}
	c.JSON(http.StatusOK, profileOf(&user, false))
}

func (h *UserHandler) SetPassword(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	var req types.SetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.authService.SetPassword(c.Request.Context(), userID, &req); err != nil {
		handleServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *UserHandler) Subscribe(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}
	authorID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}

	subscription, err := h.subscriptionService.Follow(c.Request.Context(), userID, authorID)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, subscription)
}

func (h *UserHandler) Unsubscribe(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}
	authorID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}

	if err := h.subscriptionService.Unfollow(c.Request.Context(), userID, authorID); err != nil {
		handleServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *UserHandler) Subscriptions(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}
	page, limit := pagination(c)

	recipesLimit, _ := strconv.Atoi(c.DefaultQuery("recipes_limit", strconv.Itoa(service.DefaultRecipesPreview)))

	subscriptions, total, err := h.subscriptionService.ListFollowing(c.Request.Context(), userID, page, limit, recipesLimit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch subscriptions"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"count":   total,
		"results": subscriptions,
	})
}

func profileOf(user *models.User, subscribed bool) types.UserProfile {
	return types.UserProfile{
		Email:        user.Email,
		ID:           user.ID,
		Username:     user.Username,
		FirstName:    user.FirstName,
		LastName:     user.LastName,
		IsSubscribed: subscribed,
	}
}
