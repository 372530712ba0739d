package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSubscriptionIsCanceled(t *testing.T) {
	assert.False(t, (&Subscription{Status: SubscriptionStatusActive}).IsCanceled())
	assert.False(t, (&Subscription{Status: SubscriptionStatusPastDue}).IsCanceled())
	assert.True(t, (&Subscription{Status: SubscriptionStatusCanceled}).IsCanceled())
}
