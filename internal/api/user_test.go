package api_test

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foodgram/backend/internal/models"
	"github.com/foodgram/backend/internal/types"
)

func TestMeEndpoint(t *testing.T) {
	router, _ := setupRouter(t)
	token := registerUser(t, router, "alice")

	w := doJSON(router, http.MethodGet, "/api/users/me", token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var profile types.UserProfile
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &profile))
	assert.Equal(t, "alice", profile.Username)
	assert.Equal(t, "alice@example.com", profile.Email)

	w = doJSON(router, http.MethodGet, "/api/users/me", "", nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestListUsers(t *testing.T) {
	router, db := setupRouter(t)
	registerUser(t, router, "alice")
	registerUser(t, router, "bob")

	// Deactivated accounts stay out of the listing.
	require.NoError(t, db.Model(&models.User{}).
		Where("username = ?", "bob").Update("is_active", false).Error)

	w := doJSON(router, http.MethodGet, "/api/users", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Count   int64               `json:"count"`
		Results []types.UserProfile `json:"results"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.EqualValues(t, 1, resp.Count)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, "alice", resp.Results[0].Username)
}

func TestGetUserProfile(t *testing.T) {
	router, db := setupRouter(t)
	registerUser(t, router, "alice")
	bobToken := registerUser(t, router, "bob")

	var alice models.User
	require.NoError(t, db.First(&alice, "username = ?", "alice").Error)

	w := doJSON(router, http.MethodGet, "/api/users/"+alice.ID.String(), "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var profile types.UserProfile
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &profile))
	assert.False(t, profile.IsSubscribed)

	// After subscribing, bob sees is_subscribed on alice's profile.
	w = doJSON(router, http.MethodPost, "/api/users/"+alice.ID.String()+"/subscribe", bobToken, nil)
	require.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(router, http.MethodGet, "/api/users/"+alice.ID.String(), bobToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &profile))
	assert.True(t, profile.IsSubscribed)

	w = doJSON(router, http.MethodGet, "/api/users/"+uuid.NewString(), "", nil)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestSubscriptionEndpoints(t *testing.T) {
	router, db := setupRouter(t)
	aliceToken := registerUser(t, router, "alice")
	registerUser(t, router, "bob")

	var alice, bob models.User
	require.NoError(t, db.First(&alice, "username = ?", "alice").Error)
	require.NoError(t, db.First(&bob, "username = ?", "bob").Error)

	// Self-subscription is rejected.
	w := doJSON(router, http.MethodPost, "/api/users/"+alice.ID.String()+"/subscribe", aliceToken, nil)
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(router, http.MethodPost, "/api/users/"+bob.ID.String()+"/subscribe", aliceToken, nil)
	require.Equal(t, http.StatusCreated, w.Code)

	var sub types.Subscription
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &sub))
	assert.Equal(t, "bob", sub.Username)
	assert.True(t, sub.IsSubscribed)

	w = doJSON(router, http.MethodGet, "/api/users/subscriptions", aliceToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Count   int64                `json:"count"`
		Results []types.Subscription `json:"results"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.EqualValues(t, 1, resp.Count)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, "bob", resp.Results[0].Username)

	w = doJSON(router, http.MethodDelete, "/api/users/"+bob.ID.String()+"/subscribe", aliceToken, nil)
	require.Equal(t, http.StatusNoContent, w.Code)

	w = doJSON(router, http.MethodDelete, "/api/users/"+bob.ID.String()+"/subscribe", aliceToken, nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSetPasswordEndpoint(t *testing.T) {
	router, _ := setupRouter(t)
	token := registerUser(t, router, "alice")

	w := doJSON(router, http.MethodPost, "/api/users/set_password", token, map[string]string{
		"new_password":     "another-secret-2",
		"current_password": "not-the-password",
	})
	require.Equal(t, http.StatusUnauthorized, w.Code)

	w = doJSON(router, http.MethodPost, "/api/users/set_password", token, map[string]string{
		"new_password":     "another-secret-2",
		"current_password": "super-secret-1",
	})
	require.Equal(t, http.StatusNoContent, w.Code)

	w = doJSON(router, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email":    "alice@example.com",
		"password": "another-secret-2",
	})
	require.Equal(t, http.StatusOK, w.Code)
}
