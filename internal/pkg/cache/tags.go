package cache

import (
	"context"
	"fmt"
)

// Cache tags are derived invalidation keys. Every read path that caches
// subscription data does so under one of these tags, so a mutation has to
// drop all of them, not just the primary key.
const TagSubscriptionsAll = "subscriptions:all"

// SubscriptionTag is the entity-specific tag keyed by the provider
// subscription id.
func SubscriptionTag(stripeSubscriptionID string) string {
	return fmt.Sprintf("subscription:%s", stripeSubscriptionID)
}

// UserSubscriptionTag is the owner-scoped tag keyed by the local user id.
func UserSubscriptionTag(userID uint) string {
	return fmt.Sprintf("user_subscription:%d", userID)
}

// SubscriptionInvalidator drops all subscription cache partitions after a
// billing mutation commits. It is side-effect only and reads no domain data.
type SubscriptionInvalidator struct{}

func (SubscriptionInvalidator) InvalidateSubscription(ctx context.Context, stripeSubscriptionID string, userID uint) error {
	keys := []string{TagSubscriptionsAll}
	if stripeSubscriptionID != "" {
		keys = append(keys, SubscriptionTag(stripeSubscriptionID))
	}
	if userID != 0 {
		keys = append(keys, UserSubscriptionTag(userID))
	}
	return GetClient().Del(ctx, keys...).Err()
}
