package entitlements

import (
	"testing"

	"github.com/JonasWeigert/PlanPort/app/models"
)

func TestForSubscription(t *testing.T) {
	tests := []struct {
		name string
		sub  *models.Subscription
		want Limits
	}{
		{name: "nil falls back to free", sub: nil, want: freeLimits},
		{
			name: "active pro gets pro limits",
			sub:  &models.Subscription{PlanID: "pro", Status: models.SubscriptionStatusActive},
			want: planLimits["pro"],
		},
		{
			name: "past_due drops to free",
			sub:  &models.Subscription{PlanID: "pro", Status: models.SubscriptionStatusPastDue},
			want: freeLimits,
		},
		{
			name: "canceled drops to free",
			sub:  &models.Subscription{PlanID: "business", Status: models.SubscriptionStatusCanceled},
			want: freeLimits,
		},
		{
			name: "unknown plan gets free limits",
			sub:  &models.Subscription{PlanID: "legacy", Status: models.SubscriptionStatusActive},
			want: freeLimits,
		},
	}

	for _, tt := range tests {
		if got := ForSubscription(tt.sub); got != tt.want {
			t.Fatalf("%s: ForSubscription() = %+v, want %+v", tt.name, got, tt.want)
		}
	}
}
