package service_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/foodgram/backend/internal/models"
	"github.com/foodgram/backend/internal/service"
	"github.com/foodgram/backend/internal/types"
)

func TestFollowSelfRejected(t *testing.T) {
	db, _ := setupRecipeService(t)
	svc := service.NewSubscriptionService(db)

	user := createTestUser(t, db, "alice")
	_, err := svc.Follow(context.Background(), user.ID, user.ID)
	assert.ErrorIs(t, err, service.ErrSelfFollow)
}

func TestFollowIdempotent(t *testing.T) {
	db, _ := setupRecipeService(t)
	svc := service.NewSubscriptionService(db)
	ctx := context.Background()

	alice := createTestUser(t, db, "alice")
	bob := createTestUser(t, db, "bob")

	sub, err := svc.Follow(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, bob.ID, sub.ID)
	assert.True(t, sub.IsSubscribed)

	_, err = svc.Follow(ctx, alice.ID, bob.ID)
	require.NoError(t, err)

	var count int64
	require.NoError(t, db.Model(&models.Follow{}).
		Where("user_id = ? AND author_id = ?", alice.ID, bob.ID).Count(&count).Error)
	assert.EqualValues(t, 1, count)

	following, err := svc.IsFollowing(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.True(t, following)
}

func TestFollowUnknownAuthor(t *testing.T) {
	db, _ := setupRecipeService(t)
	svc := service.NewSubscriptionService(db)

	alice := createTestUser(t, db, "alice")
	_, err := svc.Follow(context.Background(), alice.ID, uuid.New())
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestUnfollow(t *testing.T) {
	db, _ := setupRecipeService(t)
	svc := service.NewSubscriptionService(db)
	ctx := context.Background()

	alice := createTestUser(t, db, "alice")
	bob := createTestUser(t, db, "bob")

	_, err := svc.Follow(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	require.NoError(t, svc.Unfollow(ctx, alice.ID, bob.ID))

	err = svc.Unfollow(ctx, alice.ID, bob.ID)
	assert.ErrorIs(t, err, service.ErrNotFollowing)
}

func TestListFollowingPreview(t *testing.T) {
	db, recipes := setupRecipeService(t)
	svc := service.NewSubscriptionService(db)
	ctx := context.Background()

	alice := createTestUser(t, db, "alice")
	bob := createTestUser(t, db, "bob")
	salt := createTestIngredient(t, db, "salt", "g")
	breakfast := tagBySlug(t, db, "breakfast")

	for _, name := range []string{"First", "Second", "Third", "Fourth", "Fifth"} {
		_, err := recipes.Create(ctx, bob.ID, recipePayload(name, []uuid.UUID{breakfast.ID},
			types.IngredientAmount{ID: salt.ID, Amount: 1}))
		require.NoError(t, err)
	}

	_, err := svc.Follow(ctx, alice.ID, bob.ID)
	require.NoError(t, err)

	subs, total, err := svc.ListFollowing(ctx, alice.ID, 1, 10, 2)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, subs, 1)

	// Preview is capped while the count covers everything.
	assert.Len(t, subs[0].Recipes, 2)
	assert.EqualValues(t, 5, subs[0].RecipesCount)
	assert.Equal(t, bob.Username, subs[0].Username)
}
