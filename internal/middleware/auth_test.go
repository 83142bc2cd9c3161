package middleware_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/foodgram/backend/internal/middleware"
	"github.com/foodgram/backend/internal/types"
)

type stubValidator struct {
	claims *types.TokenClaims
	err    error
}

func (s *stubValidator) ValidateToken(token string) (*types.TokenClaims, error) {
	return s.claims, s.err
}

func echoUser(c *gin.Context) {
	if id, exists := c.Get("user_id"); exists {
		c.JSON(http.StatusOK, gin.H{"user_id": id.(uuid.UUID).String()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"user_id": nil})
}

func performRequest(handler gin.HandlerFunc, authHeader string) *httptest.ResponseRecorder {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/", handler, echoUser)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestAuthMiddleware(t *testing.T) {
	userID := uuid.New()
	valid := &stubValidator{claims: &types.TokenClaims{UserID: userID, Username: "alice"}}
	invalid := &stubValidator{err: errors.New("token expired")}

	w := performRequest(middleware.AuthMiddleware(valid), "Bearer token")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), userID.String())

	w = performRequest(middleware.AuthMiddleware(valid), "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = performRequest(middleware.AuthMiddleware(valid), "NotBearer token")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = performRequest(middleware.AuthMiddleware(invalid), "Bearer token")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestOptionalAuthMiddleware(t *testing.T) {
	userID := uuid.New()
	valid := &stubValidator{claims: &types.TokenClaims{UserID: userID, Username: "alice"}}
	invalid := &stubValidator{err: errors.New("token expired")}

	w := performRequest(middleware.OptionalAuthMiddleware(valid), "Bearer token")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), userID.String())

	// Anonymous and broken tokens both pass through without a user.
	w = performRequest(middleware.OptionalAuthMiddleware(valid), "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "null")

	w = performRequest(middleware.OptionalAuthMiddleware(invalid), "Bearer token")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "null")
}
