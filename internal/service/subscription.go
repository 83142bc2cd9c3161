package service

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/foodgram/backend/internal/models"
	"github.com/foodgram/backend/internal/types"
)

// DefaultRecipesPreview bounds the recipe preview in subscription listings.
const DefaultRecipesPreview = 3

// SubscriptionService handles follow relationships between users.
type SubscriptionService struct {
	db *gorm.DB
}

func NewSubscriptionService(db *gorm.DB) *SubscriptionService {
	return &SubscriptionService{db: db}
}

// Follow idempotently subscribes user to author. Following yourself is
// rejected.
func (s *SubscriptionService) Follow(ctx context.Context, userID, authorID uuid.UUID) (*types.Subscription, error) {
	if userID == authorID {
		return nil, ErrSelfFollow
	}

	var author models.User
	if err := s.db.WithContext(ctx).First(&author, "id = ?", authorID).Error; err != nil {
		return nil, err
	}

	follow := models.Follow{UserID: userID, AuthorID: authorID}
	if err := s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&follow).Error; err != nil {
		return nil, err
	}

	return s.buildSubscription(ctx, &author, DefaultRecipesPreview)
}

// Unfollow removes the subscription; ErrNotFollowing when absent.
func (s *SubscriptionService) Unfollow(ctx context.Context, userID, authorID uuid.UUID) error {
	var author models.User
	if err := s.db.WithContext(ctx).First(&author, "id = ?", authorID).Error; err != nil {
		return err
	}

	res := s.db.WithContext(ctx).
		Where("user_id = ? AND author_id = ?", userID, authorID).
		Delete(&models.Follow{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFollowing
	}
	return nil
}

// IsFollowing reports whether user is subscribed to author.
func (s *SubscriptionService) IsFollowing(ctx context.Context, userID, authorID uuid.UUID) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.Follow{}).
		Where("user_id = ? AND author_id = ?", userID, authorID).Count(&count).Error
	return count > 0, err
}

// ListFollowing returns a page of followed authors with a bounded recipe
// preview and the author's total recipe count.
func (s *SubscriptionService) ListFollowing(ctx context.Context, userID uuid.UUID, page, limit, recipesLimit int) ([]types.Subscription, int64, error) {
	base := s.db.WithContext(ctx).Model(&models.User{}).
		Joins("JOIN follows ON follows.author_id = users.id").
		Where("follows.user_id = ?", userID)

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var authors []models.User
	if err := base.Order("follows.created_at").Offset((page - 1) * limit).Limit(limit).Find(&authors).Error; err != nil {
		return nil, 0, err
	}

	subscriptions := make([]types.Subscription, 0, len(authors))
	for i := range authors {
		sub, err := s.buildSubscription(ctx, &authors[i], recipesLimit)
		if err != nil {
			return nil, 0, err
		}
		subscriptions = append(subscriptions, *sub)
	}
	return subscriptions, total, nil
}

func (s *SubscriptionService) buildSubscription(ctx context.Context, author *models.User, recipesLimit int) (*types.Subscription, error) {
	if recipesLimit < 1 {
		recipesLimit = DefaultRecipesPreview
	}

	var recipes []models.Recipe
	if err := s.db.WithContext(ctx).
		Where("author_id = ?", author.ID).
		Order("created_at").
		Limit(recipesLimit).
		Find(&recipes).Error; err != nil {
		return nil, err
	}

	// The count covers all of the author's recipes, not just the preview.
	var recipesCount int64
	if err := s.db.WithContext(ctx).Model(&models.Recipe{}).
		Where("author_id = ?", author.ID).Count(&recipesCount).Error; err != nil {
		return nil, err
	}

	summaries := make([]types.RecipeSummary, 0, len(recipes))
	for i := range recipes {
		summaries = append(summaries, *summaryOf(&recipes[i]))
	}

	return &types.Subscription{
		UserProfile: types.UserProfile{
			Email:        author.Email,
			ID:           author.ID,
			Username:     author.Username,
			FirstName:    author.FirstName,
			LastName:     author.LastName,
			IsSubscribed: true,
		},
		Recipes:      summaries,
		RecipesCount: recipesCount,
	}, nil
}
