package billing

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/JonasWeigert/PlanPort/app/models"
	"github.com/JonasWeigert/PlanPort/internal/pkg/cache"
	"github.com/JonasWeigert/PlanPort/internal/pkg/mail"
	"github.com/stripe/stripe-go/v82"
	"gorm.io/gorm"
)

// Notifier sends transactional billing mail. Failures are logged and never
// block or fail webhook processing.
type Notifier interface {
	SubscriptionCreated(ctx context.Context, email, name, planName string, amountCents int64) error
	SubscriptionCanceled(ctx context.Context, email, name, planName string) error
}

// Invalidator marks cache partitions stale after a mutation commits.
type Invalidator interface {
	InvalidateSubscription(ctx context.Context, stripeSubscriptionID string, userID uint) error
}

// Service consumes verified provider events and drives the authoritative
// subscription state. Every handler is idempotent: the provider may deliver
// the same event twice and may reorder causally related events.
type Service struct {
	repo        Repository
	notifier    Notifier
	invalidator Invalidator
	now         func() time.Time
}

// NewService creates a billing service from injected collaborators.
func NewService(repo Repository, notifier Notifier, invalidator Invalidator) *Service {
	return &Service{
		repo:        repo,
		notifier:    notifier,
		invalidator: invalidator,
		now:         time.Now,
	}
}

// NewServiceFromDB creates a billing service with the default SMTP notifier
// and Redis cache invalidator.
func NewServiceFromDB(db *gorm.DB) *Service {
	return NewService(NewRepository(db), mail.NewBillingNotifier(), cache.SubscriptionInvalidator{})
}

// HandleEvent dispatches a verified event to exactly one handler. Unknown
// types are not an error: the provider treats non-2xx as a retry signal and
// an unmapped type never becomes mappable by retrying.
func (s *Service) HandleEvent(ctx context.Context, event stripe.Event) error {
	switch event.Type {
	case EventCheckoutSessionCompleted:
		var session CheckoutSessionEvent
		if err := decodeEvent(event.Data.Raw, &session); err != nil {
			return err
		}
		return s.handleCheckoutCompleted(ctx, session)
	case EventSubscriptionCreated, EventSubscriptionUpdated:
		var sub SubscriptionEvent
		if err := decodeEvent(event.Data.Raw, &sub); err != nil {
			return err
		}
		return s.handleSubscriptionUpserted(ctx, sub)
	case EventSubscriptionDeleted:
		var sub SubscriptionEvent
		if err := decodeEvent(event.Data.Raw, &sub); err != nil {
			return err
		}
		return s.handleSubscriptionDeleted(ctx, sub)
	case EventInvoicePaymentSucceeded:
		var inv InvoiceEvent
		if err := decodeEvent(event.Data.Raw, &inv); err != nil {
			return err
		}
		return s.handlePaymentSucceeded(ctx, inv)
	case EventInvoicePaymentFailed:
		var inv InvoiceEvent
		if err := decodeEvent(event.Data.Raw, &inv); err != nil {
			return err
		}
		return s.handlePaymentFailed(ctx, inv)
	default:
		log.Printf("billing: ignoring unhandled event type %s (id=%s)", event.Type, event.ID)
		return nil
	}
}

// StripeStatusToSubscriptionStatus collapses the provider's status vocabulary
// onto the three local states.
func StripeStatusToSubscriptionStatus(status string) string {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case "past_due", "unpaid":
		return models.SubscriptionStatusPastDue
	case "canceled", "incomplete_expired":
		return models.SubscriptionStatusCanceled
	default:
		// active, trialing and the transient incomplete states all entitle
		// the user until the provider says otherwise.
		return models.SubscriptionStatusActive
	}
}
