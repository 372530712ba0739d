package repository

import (
	"encoding/json"
	"time"

	"github.com/JonasWeigert/PlanPort/app/models"
	"github.com/JonasWeigert/PlanPort/internal/pkg/cache"
	"gorm.io/gorm"
)

const subscriptionCacheTTL = 5 * time.Minute

// subscriptionRepository implements the SubscriptionRepository interface
type subscriptionRepository struct {
	db *gorm.DB
}

// NewSubscriptionRepository creates a new subscription repository instance
func NewSubscriptionRepository(db *gorm.DB) SubscriptionRepository {
	return &subscriptionRepository{db: db}
}

// GetActiveByUserID returns the user's current non-canceled subscription.
// Reads go through the owner-scoped cache partition; the billing core drops
// that partition after every mutation, so a hit is never stale.
func (r *subscriptionRepository) GetActiveByUserID(userID uint) (*models.Subscription, error) {
	key := cache.UserSubscriptionTag(userID)
	if s, err := cache.Get(key); err == nil && s != "" {
		var sub models.Subscription
		if jsonErr := json.Unmarshal([]byte(s), &sub); jsonErr == nil {
			return &sub, nil
		}
	}

	var sub models.Subscription
	err := r.db.Where("user_id = ? AND status <> ?", userID, models.SubscriptionStatusCanceled).
		Order("created_at DESC").First(&sub).Error
	if err != nil {
		return nil, err
	}

	if payload, err := json.Marshal(&sub); err == nil {
		_ = cache.Set(key, payload, subscriptionCacheTTL)
	}
	return &sub, nil
}

func (r *subscriptionRepository) GetByStripeID(stripeSubscriptionID string) (*models.Subscription, error) {
	key := cache.SubscriptionTag(stripeSubscriptionID)
	if s, err := cache.Get(key); err == nil && s != "" {
		var sub models.Subscription
		if jsonErr := json.Unmarshal([]byte(s), &sub); jsonErr == nil {
			return &sub, nil
		}
	}

	var sub models.Subscription
	err := r.db.Where("stripe_subscription_id = ?", stripeSubscriptionID).First(&sub).Error
	if err != nil {
		return nil, err
	}

	if payload, err := json.Marshal(&sub); err == nil {
		_ = cache.Set(key, payload, subscriptionCacheTTL)
	}
	return &sub, nil
}

func (r *subscriptionRepository) List(offset, limit int) ([]models.Subscription, error) {
	var subs []models.Subscription
	err := r.db.Order("created_at DESC").Offset(offset).Limit(limit).Find(&subs).Error
	return subs, err
}

func (r *subscriptionRepository) CountByStatus(status string) (int64, error) {
	var count int64
	err := r.db.Model(&models.Subscription{}).Where("status = ?", status).Count(&count).Error
	return count, err
}
