package billing

import (
	"github.com/JonasWeigert/PlanPort/app/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository provides DB operations used by the billing service. All writes
// are conditional single-row updates; correctness under concurrent webhook
// delivery relies on the store's atomic update semantics, not on locks.
type Repository interface {
	GetUserByID(id uint) (*models.User, error)
	LinkStripeCustomer(userID uint, stripeCustomerID string) error
	GetPlan(planID string) (*models.Plan, error)
	CreateSubscriptionIfNotExists(sub *models.Subscription) (bool, error)
	GetSubscriptionByStripeID(stripeSubscriptionID string) (*models.Subscription, error)
	UpdateSubscriptionUnlessCanceled(stripeSubscriptionID string, updates map[string]interface{}) (int64, error)
}

type gormRepository struct {
	db *gorm.DB
}

// NewRepository creates a billing repository backed by GORM.
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) GetUserByID(id uint) (*models.User, error) {
	var user models.User
	if err := r.db.First(&user, id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// LinkStripeCustomer writes the provider customer id onto the profile. It is
// an update, not an insert: a profile may already carry a customer id from a
// prior failed checkout attempt.
func (r *gormRepository) LinkStripeCustomer(userID uint, stripeCustomerID string) error {
	return r.db.Model(&models.User{}).
		Where("id = ?", userID).
		Update("stripe_customer_id", stripeCustomerID).Error
}

func (r *gormRepository) GetPlan(planID string) (*models.Plan, error) {
	var plan models.Plan
	err := r.db.Where("plan_id = ? AND is_active = ?", planID, true).First(&plan).Error
	if err != nil {
		return nil, err
	}
	return &plan, nil
}

// CreateSubscriptionIfNotExists inserts the row unless one with the same
// provider subscription id exists. Replayed checkout events hit the conflict
// path and report created=false.
func (r *gormRepository) CreateSubscriptionIfNotExists(sub *models.Subscription) (bool, error) {
	tx := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "stripe_subscription_id"}},
		DoNothing: true,
	}).Create(sub)
	if tx.Error != nil {
		return false, tx.Error
	}
	return tx.RowsAffected > 0, nil
}

func (r *gormRepository) GetSubscriptionByStripeID(stripeSubscriptionID string) (*models.Subscription, error) {
	var sub models.Subscription
	err := r.db.Where("stripe_subscription_id = ?", stripeSubscriptionID).First(&sub).Error
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

// UpdateSubscriptionUnlessCanceled applies updates to the row matched by
// provider subscription id, unless it already reached the terminal canceled
// state. Returns the number of rows written; zero means either no matching
// row or a terminal row, both of which callers treat as a no-op.
func (r *gormRepository) UpdateSubscriptionUnlessCanceled(stripeSubscriptionID string, updates map[string]interface{}) (int64, error) {
	tx := r.db.Model(&models.Subscription{}).
		Where("stripe_subscription_id = ? AND status <> ?", stripeSubscriptionID, models.SubscriptionStatusCanceled).
		Updates(updates)
	return tx.RowsAffected, tx.Error
}
