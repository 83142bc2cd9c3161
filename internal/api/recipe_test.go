package api_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foodgram/backend/internal/types"
)

func TestCreateRecipeEndpoint(t *testing.T) {
	router, db := setupRouter(t)
	token := registerUser(t, router, "chef")
	ingredient := seedIngredient(t, db, "salt", "g")

	// Anonymous creation is rejected.
	w := doJSON(router, http.MethodPost, "/api/recipes", "", recipeBody(t, db, "Stew", ingredient, 10))
	require.Equal(t, http.StatusUnauthorized, w.Code)

	w = doJSON(router, http.MethodPost, "/api/recipes", token, recipeBody(t, db, "Stew", ingredient, 10))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var detail types.RecipeDetail
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &detail))
	assert.Equal(t, "Stew", detail.Name)
	assert.Equal(t, "chef", detail.Author.Username)
	require.Len(t, detail.Ingredients, 1)
	assert.Equal(t, 10, detail.Ingredients[0].Amount)
}

func TestCreateRecipeFieldKeyedErrors(t *testing.T) {
	router, db := setupRouter(t)
	token := registerUser(t, router, "chef")
	ingredient := seedIngredient(t, db, "salt", "g")

	body := recipeBody(t, db, "Stew", ingredient, 10)
	body["name"] = ""

	w := doJSON(router, http.MethodPost, "/api/recipes", token, body)
	require.Equal(t, http.StatusBadRequest, w.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "this field is required", resp["name"])
}

func TestGetRecipeAnonymous(t *testing.T) {
	router, db := setupRouter(t)
	token := registerUser(t, router, "chef")
	ingredient := seedIngredient(t, db, "salt", "g")

	w := doJSON(router, http.MethodPost, "/api/recipes", token, recipeBody(t, db, "Stew", ingredient, 10))
	require.Equal(t, http.StatusCreated, w.Code)
	var created types.RecipeDetail
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	w = doJSON(router, http.MethodGet, "/api/recipes/"+created.ID.String(), "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var detail types.RecipeDetail
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &detail))
	assert.False(t, detail.IsFavorited)
	assert.False(t, detail.IsInShoppingCart)
	assert.False(t, detail.Author.IsSubscribed)

	w = doJSON(router, http.MethodGet, "/api/recipes/"+uuid.NewString(), "", nil)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestUpdateRecipeOwnership(t *testing.T) {
	router, db := setupRouter(t)
	chefToken := registerUser(t, router, "chef")
	otherToken := registerUser(t, router, "other")
	ingredient := seedIngredient(t, db, "salt", "g")

	w := doJSON(router, http.MethodPost, "/api/recipes", chefToken, recipeBody(t, db, "Stew", ingredient, 10))
	require.Equal(t, http.StatusCreated, w.Code)
	var created types.RecipeDetail
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	w = doJSON(router, http.MethodPatch, "/api/recipes/"+created.ID.String(), otherToken, map[string]string{"name": "Hijacked"})
	require.Equal(t, http.StatusForbidden, w.Code)

	w = doJSON(router, http.MethodPatch, "/api/recipes/"+created.ID.String(), chefToken, map[string]string{"name": "Rich Stew"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var updated types.RecipeDetail
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &updated))
	assert.Equal(t, "Rich Stew", updated.Name)
	assert.Len(t, updated.Ingredients, 1, "omitted ingredient list stays")
}

func TestDeleteRecipeEndpoint(t *testing.T) {
	router, db := setupRouter(t)
	token := registerUser(t, router, "chef")
	ingredient := seedIngredient(t, db, "salt", "g")

	w := doJSON(router, http.MethodPost, "/api/recipes", token, recipeBody(t, db, "Stew", ingredient, 10))
	require.Equal(t, http.StatusCreated, w.Code)
	var created types.RecipeDetail
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	w = doJSON(router, http.MethodDelete, "/api/recipes/"+created.ID.String(), token, nil)
	require.Equal(t, http.StatusNoContent, w.Code)

	w = doJSON(router, http.MethodGet, "/api/recipes/"+created.ID.String(), "", nil)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestFavoriteEndpoints(t *testing.T) {
	router, db := setupRouter(t)
	chefToken := registerUser(t, router, "chef")
	eaterToken := registerUser(t, router, "eater")
	ingredient := seedIngredient(t, db, "salt", "g")

	w := doJSON(router, http.MethodPost, "/api/recipes", chefToken, recipeBody(t, db, "Stew", ingredient, 10))
	require.Equal(t, http.StatusCreated, w.Code)
	var created types.RecipeDetail
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	path := "/api/recipes/" + created.ID.String() + "/favorite"

	w = doJSON(router, http.MethodPost, path, eaterToken, nil)
	require.Equal(t, http.StatusCreated, w.Code)
	var summary types.RecipeSummary
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &summary))
	assert.Equal(t, "Stew", summary.Name)

	// Repeated add stays 201, it is idempotent.
	w = doJSON(router, http.MethodPost, path, eaterToken, nil)
	require.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(router, http.MethodDelete, path, eaterToken, nil)
	require.Equal(t, http.StatusNoContent, w.Code)

	w = doJSON(router, http.MethodDelete, path, eaterToken, nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestShoppingCartDownload(t *testing.T) {
	router, db := setupRouter(t)
	chefToken := registerUser(t, router, "chef")
	salt := seedIngredient(t, db, "salt", "g")

	first := recipeBody(t, db, "Porridge", salt, 100)
	w := doJSON(router, http.MethodPost, "/api/recipes", chefToken, first)
	require.Equal(t, http.StatusCreated, w.Code)
	var porridge types.RecipeDetail
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &porridge))

	second := recipeBody(t, db, "Omelette", salt, 150)
	w = doJSON(router, http.MethodPost, "/api/recipes", chefToken, second)
	require.Equal(t, http.StatusCreated, w.Code)
	var omelette types.RecipeDetail
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &omelette))

	for _, recipe := range []types.RecipeDetail{porridge, omelette} {
		w = doJSON(router, http.MethodPost, "/api/recipes/"+recipe.ID.String()+"/shopping_cart", chefToken, nil)
		require.Equal(t, http.StatusCreated, w.Code)
	}

	w = doJSON(router, http.MethodGet, "/api/recipes/download_shopping_cart", chefToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/plain")
	assert.Contains(t, w.Header().Get("Content-Disposition"), "shopping_list.txt")
	assert.Contains(t, w.Body.String(), fmt.Sprintf("salt (g) — %d", 250))
}

func TestShoppingCartDownloadEmpty(t *testing.T) {
	router, _ := setupRouter(t)
	token := registerUser(t, router, "eater")

	w := doJSON(router, http.MethodGet, "/api/recipes/download_shopping_cart", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Shopping list:\n", w.Body.String())
}

func TestListRecipesPagination(t *testing.T) {
	router, db := setupRouter(t)
	token := registerUser(t, router, "chef")
	salt := seedIngredient(t, db, "salt", "g")

	for i := 0; i < 7; i++ {
		w := doJSON(router, http.MethodPost, "/api/recipes", token, recipeBody(t, db, fmt.Sprintf("Recipe %d", i), salt, 1+i))
		require.Equal(t, http.StatusCreated, w.Code)
	}

	w := doJSON(router, http.MethodGet, "/api/recipes", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Count   int64                `json:"count"`
		Results []types.RecipeDetail `json:"results"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.EqualValues(t, 7, resp.Count)
	// Default page size is 5.
	assert.Len(t, resp.Results, 5)

	w = doJSON(router, http.MethodGet, "/api/recipes?page=2", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp.Results, 2)
}
