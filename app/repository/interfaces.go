package repository

import (
	"github.com/JonasWeigert/PlanPort/app/models"
)

// UserRepository defines the interface for user-related database operations
type UserRepository interface {
	Create(user *models.User) error
	GetByID(id uint) (*models.User, error)
	GetByEmail(email string) (*models.User, error)
	Update(user *models.User) error
	Count() (int64, error)
}

// SubscriptionRepository defines the interface for subscription read paths.
// Point reads are served through the cache partitions the billing core
// invalidates on every mutation.
type SubscriptionRepository interface {
	GetActiveByUserID(userID uint) (*models.Subscription, error)
	GetByStripeID(stripeSubscriptionID string) (*models.Subscription, error)
	List(offset, limit int) ([]models.Subscription, error)
	CountByStatus(status string) (int64, error)
}

// PlanRepository defines the interface for the plan catalog
type PlanRepository interface {
	GetByPlanID(planID string) (*models.Plan, error)
	GetActive() ([]models.Plan, error)
}
