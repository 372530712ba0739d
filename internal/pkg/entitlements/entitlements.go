package entitlements

import (
	"github.com/JonasWeigert/PlanPort/app/models"
)

// Limits are the plan-dependent feature allowances. The zero value is the
// free tier every account falls back to without a usable subscription.
type Limits struct {
	Seats           int   `json:"seats"`
	APIRequestsDay  int64 `json:"api_requests_per_day"`
	PrioritySupport bool  `json:"priority_support"`
}

var planLimits = map[string]Limits{
	"starter":  {Seats: 1, APIRequestsDay: 1_000},
	"pro":      {Seats: 5, APIRequestsDay: 10_000},
	"business": {Seats: 25, APIRequestsDay: 100_000, PrioritySupport: true},
}

var freeLimits = Limits{Seats: 1, APIRequestsDay: 100}

// ForPlan returns the allowances of a plan id, or the free tier for an
// unknown plan.
func ForPlan(planID string) Limits {
	if l, ok := planLimits[planID]; ok {
		return l
	}
	return freeLimits
}

// ForSubscription resolves effective allowances from a subscription. Only a
// usable subscription grants paid limits; canceled rows and payment trouble
// drop the account back to the free tier.
func ForSubscription(sub *models.Subscription) Limits {
	if sub == nil || sub.Status != models.SubscriptionStatusActive {
		return freeLimits
	}
	return ForPlan(sub.PlanID)
}
