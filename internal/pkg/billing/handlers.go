package billing

import (
	"context"
	"errors"
	"log"
	"strconv"
	"time"

	"github.com/JonasWeigert/PlanPort/app/models"
	"gorm.io/gorm"
)

// defaultPeriodLength is the placeholder billing window written by the
// checkout handler. The session payload does not carry exact period
// boundaries; the authoritative ones arrive moments later with the
// customer.subscription.created event and overwrite this window.
const defaultPeriodLength = 30 * 24 * time.Hour

// handleCheckoutCompleted links the provider customer to the local profile
// and creates the subscription row. Safe to replay: the insert is
// conflict-gated on the provider subscription id, and the creation mail is
// only sent when the insert actually happened.
func (s *Service) handleCheckoutCompleted(ctx context.Context, session CheckoutSessionEvent) error {
	if session.Subscription == "" || session.Customer == "" || session.ClientReferenceID == "" {
		return ErrMissingReference
	}
	userID, err := strconv.ParseUint(session.ClientReferenceID, 10, 64)
	if err != nil {
		return ErrMissingReference
	}
	planID := session.PlanID()
	if planID == "" {
		return ErrMissingPlanMetadata
	}

	if err := s.repo.LinkStripeCustomer(uint(userID), session.Customer); err != nil {
		return persistence("link stripe customer", err)
	}

	now := s.now()
	sub := &models.Subscription{
		UserID:               uint(userID),
		StripeSubscriptionID: session.Subscription,
		PlanID:               planID,
		Status:               models.SubscriptionStatusActive,
		CurrentPeriodStart:   now,
		CurrentPeriodEnd:     now.Add(defaultPeriodLength),
	}
	created, err := s.repo.CreateSubscriptionIfNotExists(sub)
	if err != nil {
		return persistence("create subscription", err)
	}
	if !created {
		log.Printf("billing: checkout session %s replayed, subscription %s already exists", session.ID, session.Subscription)
		return nil
	}

	s.invalidate(ctx, session.Subscription, uint(userID))
	s.notifyCreated(ctx, uint(userID), planID)
	return nil
}

// handleSubscriptionUpserted applies provider status and period boundaries to
// the matched row. Two deliberate no-ops: a row already in terminal canceled
// state (an update reordered behind its termination must not resurrect it),
// and a missing row (the checkout handler may not have run yet; the provider
// redelivers organically).
func (s *Service) handleSubscriptionUpserted(ctx context.Context, event SubscriptionEvent) error {
	// Load the row up front so the owner-scoped cache partition can be
	// invalidated even though the conditional write below does not return it.
	sub, err := s.repo.GetSubscriptionByStripeID(event.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			log.Printf("billing: subscription upsert for %s matched no row: %v", event.ID, ErrNoMatchingRecord)
			return nil
		}
		return persistence("load subscription", err)
	}

	updates := map[string]interface{}{
		"status": StripeStatusToSubscriptionStatus(event.Status),
	}
	if event.CurrentPeriodStart > 0 {
		updates["current_period_start"] = time.Unix(event.CurrentPeriodStart, 0)
	}
	if event.CurrentPeriodEnd > 0 {
		updates["current_period_end"] = time.Unix(event.CurrentPeriodEnd, 0)
	}

	rows, err := s.repo.UpdateSubscriptionUnlessCanceled(event.ID, updates)
	if err != nil {
		return persistence("update subscription", err)
	}
	if rows == 0 {
		log.Printf("billing: subscription upsert for %s matched no updatable row: %v", event.ID, ErrNoMatchingRecord)
		return nil
	}

	s.invalidate(ctx, event.ID, sub.UserID)
	return nil
}

// handleSubscriptionDeleted marks the row canceled and stamps the time the
// system learned of the cancellation. The conditional write guarantees the
// transition happens once, which in turn gates the cancellation mail to at
// most one send per actual transition.
func (s *Service) handleSubscriptionDeleted(ctx context.Context, event SubscriptionEvent) error {
	sub, err := s.repo.GetSubscriptionByStripeID(event.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			log.Printf("billing: termination for unknown subscription %s: %v", event.ID, ErrNoMatchingRecord)
			return nil
		}
		return persistence("load subscription", err)
	}

	rows, err := s.repo.UpdateSubscriptionUnlessCanceled(event.ID, map[string]interface{}{
		"status":      models.SubscriptionStatusCanceled,
		"canceled_at": s.now(),
	})
	if err != nil {
		return persistence("cancel subscription", err)
	}
	if rows == 0 {
		// Already canceled, likely a redelivery. No mail, no invalidation.
		return nil
	}

	s.invalidate(ctx, event.ID, sub.UserID)
	s.notifyCanceled(ctx, sub.UserID, sub.PlanID)
	return nil
}

// handlePaymentSucceeded recovers a past_due subscription back to active.
// Invoices without a subscription reference (one-off invoices) are a
// legitimate no-op.
func (s *Service) handlePaymentSucceeded(ctx context.Context, invoice InvoiceEvent) error {
	if invoice.Subscription == "" {
		return nil
	}
	return s.setStatus(ctx, invoice.Subscription, models.SubscriptionStatusActive)
}

// handlePaymentFailed moves the subscription to past_due.
func (s *Service) handlePaymentFailed(ctx context.Context, invoice InvoiceEvent) error {
	if invoice.Subscription == "" {
		return nil
	}
	return s.setStatus(ctx, invoice.Subscription, models.SubscriptionStatusPastDue)
}

func (s *Service) setStatus(ctx context.Context, stripeSubscriptionID, status string) error {
	sub, err := s.repo.GetSubscriptionByStripeID(stripeSubscriptionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			log.Printf("billing: status change for %s matched no row: %v", stripeSubscriptionID, ErrNoMatchingRecord)
			return nil
		}
		return persistence("load subscription", err)
	}

	rows, err := s.repo.UpdateSubscriptionUnlessCanceled(stripeSubscriptionID, map[string]interface{}{
		"status": status,
	})
	if err != nil {
		return persistence("set subscription status", err)
	}
	if rows == 0 {
		log.Printf("billing: status change for %s matched no updatable row: %v", stripeSubscriptionID, ErrNoMatchingRecord)
		return nil
	}

	s.invalidate(ctx, stripeSubscriptionID, sub.UserID)
	return nil
}

// invalidate drops the cache partitions touched by a committed mutation.
// Called strictly after the write; a failure only delays freshness.
func (s *Service) invalidate(ctx context.Context, stripeSubscriptionID string, userID uint) {
	if s.invalidator == nil {
		return
	}
	if err := s.invalidator.InvalidateSubscription(ctx, stripeSubscriptionID, userID); err != nil {
		log.Printf("billing: cache invalidation for %s failed: %v", stripeSubscriptionID, err)
	}
}

func (s *Service) notifyCreated(ctx context.Context, userID uint, planID string) {
	if s.notifier == nil {
		return
	}
	user, err := s.repo.GetUserByID(userID)
	if err != nil {
		log.Printf("billing: creation mail skipped, user %d not loadable: %v", userID, err)
		return
	}
	planName := planID
	var amountCents int64
	if plan, err := s.repo.GetPlan(planID); err == nil {
		planName = plan.Name
		amountCents = plan.PriceCents
	}
	if err := s.notifier.SubscriptionCreated(ctx, user.Email, user.Name, planName, amountCents); err != nil {
		log.Printf("billing: creation mail to %s failed: %v", user.Email, err)
	}
}

func (s *Service) notifyCanceled(ctx context.Context, userID uint, planID string) {
	if s.notifier == nil {
		return
	}
	user, err := s.repo.GetUserByID(userID)
	if err != nil {
		log.Printf("billing: cancellation mail skipped, user %d not loadable: %v", userID, err)
		return
	}
	planName := planID
	if plan, err := s.repo.GetPlan(planID); err == nil {
		planName = plan.Name
	}
	if err := s.notifier.SubscriptionCanceled(ctx, user.Email, user.Name, planName); err != nil {
		log.Printf("billing: cancellation mail to %s failed: %v", user.Email, err)
	}
}
