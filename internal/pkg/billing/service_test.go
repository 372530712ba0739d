package billing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stripe/stripe-go/v82"
	"gorm.io/gorm"

	"github.com/JonasWeigert/PlanPort/app/models"
)

// fakeRepo is an in-memory Repository with the same conditional-write
// semantics as the GORM implementation.
type fakeRepo struct {
	users map[uint]*models.User
	plans map[string]*models.Plan
	subs  map[string]*models.Subscription

	failWith error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		users: map[uint]*models.User{
			7: {ID: 7, Name: "Jane", Email: "jane@example.com"},
		},
		plans: map[string]*models.Plan{
			"pro": {PlanID: "pro", Name: "Pro", PriceCents: 1500},
		},
		subs: map[string]*models.Subscription{},
	}
}

func (r *fakeRepo) GetUserByID(id uint) (*models.User, error) {
	if r.failWith != nil {
		return nil, r.failWith
	}
	u, ok := r.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return u, nil
}

func (r *fakeRepo) LinkStripeCustomer(userID uint, stripeCustomerID string) error {
	if r.failWith != nil {
		return r.failWith
	}
	if u, ok := r.users[userID]; ok {
		u.StripeCustomerID = stripeCustomerID
	}
	return nil
}

func (r *fakeRepo) GetPlan(planID string) (*models.Plan, error) {
	if r.failWith != nil {
		return nil, r.failWith
	}
	p, ok := r.plans[planID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return p, nil
}

func (r *fakeRepo) CreateSubscriptionIfNotExists(sub *models.Subscription) (bool, error) {
	if r.failWith != nil {
		return false, r.failWith
	}
	if _, exists := r.subs[sub.StripeSubscriptionID]; exists {
		return false, nil
	}
	cp := *sub
	r.subs[sub.StripeSubscriptionID] = &cp
	return true, nil
}

func (r *fakeRepo) GetSubscriptionByStripeID(id string) (*models.Subscription, error) {
	if r.failWith != nil {
		return nil, r.failWith
	}
	s, ok := r.subs[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *s
	return &cp, nil
}

func (r *fakeRepo) UpdateSubscriptionUnlessCanceled(id string, updates map[string]interface{}) (int64, error) {
	if r.failWith != nil {
		return 0, r.failWith
	}
	s, ok := r.subs[id]
	if !ok || s.Status == models.SubscriptionStatusCanceled {
		return 0, nil
	}
	if v, ok := updates["status"]; ok {
		s.Status = v.(string)
	}
	if v, ok := updates["current_period_start"]; ok {
		s.CurrentPeriodStart = v.(time.Time)
	}
	if v, ok := updates["current_period_end"]; ok {
		s.CurrentPeriodEnd = v.(time.Time)
	}
	if v, ok := updates["canceled_at"]; ok {
		t := v.(time.Time)
		s.CanceledAt = &t
	}
	return 1, nil
}

type fakeNotifier struct {
	created  int
	canceled int
}

func (n *fakeNotifier) SubscriptionCreated(_ context.Context, _, _, _ string, _ int64) error {
	n.created++
	return nil
}

func (n *fakeNotifier) SubscriptionCanceled(_ context.Context, _, _, _ string) error {
	n.canceled++
	return nil
}

type fakeInvalidator struct {
	calls []string
	users []uint
}

func (i *fakeInvalidator) InvalidateSubscription(_ context.Context, stripeSubscriptionID string, userID uint) error {
	i.calls = append(i.calls, stripeSubscriptionID)
	i.users = append(i.users, userID)
	return nil
}

func newTestService() (*Service, *fakeRepo, *fakeNotifier, *fakeInvalidator) {
	repo := newFakeRepo()
	notifier := &fakeNotifier{}
	inv := &fakeInvalidator{}
	svc := NewService(repo, notifier, inv)
	svc.now = func() time.Time { return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC) }
	return svc, repo, notifier, inv
}

func checkoutEvent(sub, customer, ref, plan string) CheckoutSessionEvent {
	e := CheckoutSessionEvent{
		ID:                "cs_123",
		Mode:              "subscription",
		Customer:          customer,
		Subscription:      sub,
		ClientReferenceID: ref,
	}
	if plan != "" {
		e.Metadata = map[string]string{"plan_id": plan}
	}
	return e
}

func TestCheckoutCompleted_CreatesSubscriptionOnce(t *testing.T) {
	svc, repo, notifier, inv := newTestService()
	ctx := context.Background()

	event := checkoutEvent("sub_1", "cus_1", "7", "pro")
	if err := svc.handleCheckoutCompleted(ctx, event); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	sub, ok := repo.subs["sub_1"]
	if !ok {
		t.Fatalf("expected subscription row to exist")
	}
	if sub.UserID != 7 || sub.PlanID != "pro" || sub.Status != models.SubscriptionStatusActive {
		t.Fatalf("unexpected subscription: %+v", sub)
	}
	if got := sub.CurrentPeriodEnd.Sub(sub.CurrentPeriodStart); got != defaultPeriodLength {
		t.Fatalf("expected placeholder period of %v, got %v", defaultPeriodLength, got)
	}
	if repo.users[7].StripeCustomerID != "cus_1" {
		t.Fatalf("expected customer id to be linked, got %q", repo.users[7].StripeCustomerID)
	}
	if notifier.created != 1 {
		t.Fatalf("expected exactly one creation mail, got %d", notifier.created)
	}
	if len(inv.calls) != 1 {
		t.Fatalf("expected one cache invalidation, got %d", len(inv.calls))
	}

	// Replay the same event: no second row, no second mail.
	if err := svc.handleCheckoutCompleted(ctx, event); err != nil {
		t.Fatalf("replay should be a no-op, got %v", err)
	}
	if len(repo.subs) != 1 {
		t.Fatalf("expected one subscription after replay, got %d", len(repo.subs))
	}
	if notifier.created != 1 {
		t.Fatalf("replay must not send another mail, got %d", notifier.created)
	}
	if len(inv.calls) != 1 {
		t.Fatalf("replay must not invalidate again, got %d", len(inv.calls))
	}
}

func TestCheckoutCompleted_MissingReference(t *testing.T) {
	svc, repo, notifier, _ := newTestService()
	ctx := context.Background()

	tests := []CheckoutSessionEvent{
		checkoutEvent("", "cus_1", "7", "pro"),
		checkoutEvent("sub_1", "", "7", "pro"),
		checkoutEvent("sub_1", "cus_1", "", "pro"),
		checkoutEvent("sub_1", "cus_1", "not-a-number", "pro"),
	}
	for _, event := range tests {
		if err := svc.handleCheckoutCompleted(ctx, event); !errors.Is(err, ErrMissingReference) {
			t.Fatalf("expected ErrMissingReference, got %v", err)
		}
	}
	if len(repo.subs) != 0 || notifier.created != 0 {
		t.Fatalf("rejected events must not mutate anything")
	}
}

func TestCheckoutCompleted_MissingPlanMetadata(t *testing.T) {
	svc, repo, _, _ := newTestService()

	err := svc.handleCheckoutCompleted(context.Background(), checkoutEvent("sub_1", "cus_1", "7", ""))
	if !errors.Is(err, ErrMissingPlanMetadata) {
		t.Fatalf("expected ErrMissingPlanMetadata, got %v", err)
	}
	if len(repo.subs) != 0 {
		t.Fatalf("rejected event must not create a row")
	}
}

func TestCheckoutCompleted_PersistenceFailure(t *testing.T) {
	svc, repo, _, _ := newTestService()
	repo.failWith = fmt.Errorf("connection refused")

	err := svc.handleCheckoutCompleted(context.Background(), checkoutEvent("sub_1", "cus_1", "7", "pro"))
	if !errors.Is(err, ErrPersistenceFailure) {
		t.Fatalf("expected ErrPersistenceFailure, got %v", err)
	}
}

func TestSubscriptionUpserted_AppliesStatusAndPeriods(t *testing.T) {
	svc, repo, _, inv := newTestService()
	repo.subs["sub_1"] = &models.Subscription{
		UserID: 7, StripeSubscriptionID: "sub_1", PlanID: "pro",
		Status: models.SubscriptionStatusActive,
	}

	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0)
	err := svc.handleSubscriptionUpserted(context.Background(), SubscriptionEvent{
		ID:                 "sub_1",
		Status:             "past_due",
		CurrentPeriodStart: start.Unix(),
		CurrentPeriodEnd:   end.Unix(),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	sub := repo.subs["sub_1"]
	if sub.Status != models.SubscriptionStatusPastDue {
		t.Fatalf("expected past_due, got %q", sub.Status)
	}
	if !sub.CurrentPeriodStart.Equal(start) || !sub.CurrentPeriodEnd.Equal(end) {
		t.Fatalf("period boundaries not applied: %+v", sub)
	}
	if len(inv.calls) != 1 {
		t.Fatalf("expected one invalidation, got %d", len(inv.calls))
	}
}

func TestSubscriptionUpserted_InvalidatesOwnerPartition(t *testing.T) {
	svc, repo, _, inv := newTestService()
	repo.subs["sub_1"] = &models.Subscription{
		UserID: 7, StripeSubscriptionID: "sub_1", PlanID: "pro",
		Status: models.SubscriptionStatusActive,
	}
	ctx := context.Background()

	err := svc.handleSubscriptionUpserted(ctx, SubscriptionEvent{ID: "sub_1", Status: "past_due"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := svc.handlePaymentSucceeded(ctx, InvoiceEvent{ID: "in_1", Subscription: "sub_1"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Every mutation must drop the owner-scoped cache partition, or a reader
	// keeps seeing the stale row until the TTL runs out.
	if len(inv.users) != 2 {
		t.Fatalf("expected two invalidations, got %d", len(inv.users))
	}
	for _, userID := range inv.users {
		if userID != 7 {
			t.Fatalf("invalidation must carry the owner's user id, got %d", userID)
		}
	}
}

func TestSubscriptionUpserted_NeverResurrectsCanceled(t *testing.T) {
	svc, repo, _, inv := newTestService()
	repo.subs["sub_1"] = &models.Subscription{
		UserID: 7, StripeSubscriptionID: "sub_1", PlanID: "pro",
		Status: models.SubscriptionStatusCanceled,
	}

	err := svc.handleSubscriptionUpserted(context.Background(), SubscriptionEvent{
		ID:     "sub_1",
		Status: "active",
	})
	if err != nil {
		t.Fatalf("reordered update must be a silent no-op, got %v", err)
	}
	if repo.subs["sub_1"].Status != models.SubscriptionStatusCanceled {
		t.Fatalf("terminal state must not be overwritten, got %q", repo.subs["sub_1"].Status)
	}
	if len(inv.calls) != 0 {
		t.Fatalf("no-op must not invalidate, got %d calls", len(inv.calls))
	}
}

func TestSubscriptionUpserted_UnknownIDIsBenign(t *testing.T) {
	svc, _, _, _ := newTestService()

	err := svc.handleSubscriptionUpserted(context.Background(), SubscriptionEvent{
		ID:     "sub_missing",
		Status: "active",
	})
	if err != nil {
		t.Fatalf("unknown subscription must be acknowledged, got %v", err)
	}
}

func TestSubscriptionDeleted_CancelsOnce(t *testing.T) {
	svc, repo, notifier, inv := newTestService()
	repo.subs["sub_1"] = &models.Subscription{
		UserID: 7, StripeSubscriptionID: "sub_1", PlanID: "pro",
		Status: models.SubscriptionStatusActive,
	}

	event := SubscriptionEvent{ID: "sub_1", Status: "canceled"}
	if err := svc.handleSubscriptionDeleted(context.Background(), event); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	sub := repo.subs["sub_1"]
	if sub.Status != models.SubscriptionStatusCanceled {
		t.Fatalf("expected canceled, got %q", sub.Status)
	}
	if sub.CanceledAt == nil {
		t.Fatalf("expected canceled_at to be stamped")
	}
	if notifier.canceled != 1 {
		t.Fatalf("expected one cancellation mail, got %d", notifier.canceled)
	}

	// Redelivery: still canceled, no second mail.
	if err := svc.handleSubscriptionDeleted(context.Background(), event); err != nil {
		t.Fatalf("redelivery must be a no-op, got %v", err)
	}
	if notifier.canceled != 1 {
		t.Fatalf("redelivery must not send another mail, got %d", notifier.canceled)
	}
	if len(inv.calls) != 1 {
		t.Fatalf("redelivery must not invalidate again, got %d", len(inv.calls))
	}
}

func TestSubscriptionDeleted_UnknownIDIsBenign(t *testing.T) {
	svc, _, notifier, _ := newTestService()

	err := svc.handleSubscriptionDeleted(context.Background(), SubscriptionEvent{ID: "sub_missing"})
	if err != nil {
		t.Fatalf("unknown subscription must be acknowledged, got %v", err)
	}
	if notifier.canceled != 0 {
		t.Fatalf("no mail for unknown subscription, got %d", notifier.canceled)
	}
}

func TestPaymentLifecycle_PastDueThenRecovered(t *testing.T) {
	svc, repo, _, _ := newTestService()
	repo.subs["sub_1"] = &models.Subscription{
		UserID: 7, StripeSubscriptionID: "sub_1", PlanID: "pro",
		Status: models.SubscriptionStatusActive,
	}
	ctx := context.Background()

	if err := svc.handlePaymentFailed(ctx, InvoiceEvent{ID: "in_1", Subscription: "sub_1"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.subs["sub_1"].Status != models.SubscriptionStatusPastDue {
		t.Fatalf("expected past_due after failed payment, got %q", repo.subs["sub_1"].Status)
	}

	if err := svc.handlePaymentSucceeded(ctx, InvoiceEvent{ID: "in_2", Subscription: "sub_1"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.subs["sub_1"].Status != models.SubscriptionStatusActive {
		t.Fatalf("expected active after recovery, got %q", repo.subs["sub_1"].Status)
	}
}

func TestPayment_IgnoresInvoicesWithoutSubscription(t *testing.T) {
	svc, repo, _, inv := newTestService()
	ctx := context.Background()

	if err := svc.handlePaymentSucceeded(ctx, InvoiceEvent{ID: "in_1"}); err != nil {
		t.Fatalf("one-off invoice must be a no-op, got %v", err)
	}
	if err := svc.handlePaymentFailed(ctx, InvoiceEvent{ID: "in_2"}); err != nil {
		t.Fatalf("one-off invoice must be a no-op, got %v", err)
	}
	if len(repo.subs) != 0 || len(inv.calls) != 0 {
		t.Fatalf("one-off invoices must not touch state")
	}
}

func TestPaymentFailed_DoesNotTouchCanceled(t *testing.T) {
	svc, repo, _, _ := newTestService()
	repo.subs["sub_1"] = &models.Subscription{
		UserID: 7, StripeSubscriptionID: "sub_1", PlanID: "pro",
		Status: models.SubscriptionStatusCanceled,
	}

	if err := svc.handlePaymentFailed(context.Background(), InvoiceEvent{ID: "in_1", Subscription: "sub_1"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.subs["sub_1"].Status != models.SubscriptionStatusCanceled {
		t.Fatalf("canceled is terminal, got %q", repo.subs["sub_1"].Status)
	}
}

func TestHandleEvent_DispatchAndUnknownType(t *testing.T) {
	svc, repo, _, _ := newTestService()
	ctx := context.Background()

	raw, _ := json.Marshal(map[string]interface{}{
		"id":                  "cs_1",
		"customer":            "cus_1",
		"subscription":        "sub_1",
		"client_reference_id": "7",
		"metadata":            map[string]string{"plan_id": "pro"},
	})
	err := svc.HandleEvent(ctx, stripe.Event{
		Type: EventCheckoutSessionCompleted,
		Data: &stripe.EventData{Raw: raw},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := repo.subs["sub_1"]; !ok {
		t.Fatalf("dispatch did not reach the checkout handler")
	}

	err = svc.HandleEvent(ctx, stripe.Event{
		Type: "customer.created",
		Data: &stripe.EventData{Raw: []byte(`{}`)},
	})
	if err != nil {
		t.Fatalf("unknown event types must be acknowledged, got %v", err)
	}
}

func TestHandleEvent_MalformedPayload(t *testing.T) {
	svc, _, _, _ := newTestService()

	err := svc.HandleEvent(context.Background(), stripe.Event{
		Type: EventSubscriptionUpdated,
		Data: &stripe.EventData{Raw: []byte(`{"id":`)},
	})
	if !errors.Is(err, ErrMalformedPayload) {
		t.Fatalf("expected ErrMalformedPayload, got %v", err)
	}
}

func TestStripeStatusToSubscriptionStatus(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "active", want: models.SubscriptionStatusActive},
		{in: "trialing", want: models.SubscriptionStatusActive},
		{in: "incomplete", want: models.SubscriptionStatusActive},
		{in: "past_due", want: models.SubscriptionStatusPastDue},
		{in: "unpaid", want: models.SubscriptionStatusPastDue},
		{in: "canceled", want: models.SubscriptionStatusCanceled},
		{in: "incomplete_expired", want: models.SubscriptionStatusCanceled},
		{in: " Active ", want: models.SubscriptionStatusActive},
	}

	for _, tt := range tests {
		if got := StripeStatusToSubscriptionStatus(tt.in); got != tt.want {
			t.Fatalf("StripeStatusToSubscriptionStatus(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
