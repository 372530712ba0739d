package billing

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Webhook event families this core consumes. Stripe nests the provider
// object under event.data.object; the structs below are our own minimal
// views of those objects, decoded and validated before any handler runs.
const (
	EventCheckoutSessionCompleted = "checkout.session.completed"
	EventSubscriptionCreated      = "customer.subscription.created"
	EventSubscriptionUpdated      = "customer.subscription.updated"
	EventSubscriptionDeleted      = "customer.subscription.deleted"
	EventInvoicePaymentSucceeded  = "invoice.payment_succeeded"
	EventInvoicePaymentFailed     = "invoice.payment_failed"
)

var validate = validator.New()

// CheckoutSessionEvent is the payload of checkout.session.completed.
type CheckoutSessionEvent struct {
	ID                string `json:"id"`
	Mode              string `json:"mode"`
	Customer          string `json:"customer"`
	Subscription      string `json:"subscription"`
	ClientReferenceID string `json:"client_reference_id"`
	CustomerDetails   struct {
		Email string `json:"email"`
		Name  string `json:"name"`
	} `json:"customer_details"`
	Metadata map[string]string `json:"metadata"`
}

// PlanID returns the plan identification carried in the session metadata.
func (e CheckoutSessionEvent) PlanID() string {
	return strings.TrimSpace(e.Metadata["plan_id"])
}

// SubscriptionEvent is the payload of customer.subscription.created,
// customer.subscription.updated and customer.subscription.deleted.
type SubscriptionEvent struct {
	ID                 string `json:"id" validate:"required"`
	Customer           string `json:"customer"`
	Status             string `json:"status"`
	CancelAtPeriodEnd  bool   `json:"cancel_at_period_end"`
	CurrentPeriodStart int64  `json:"current_period_start"`
	CurrentPeriodEnd   int64  `json:"current_period_end"`
}

// InvoiceEvent is the payload of invoice.payment_succeeded and
// invoice.payment_failed. Subscription may legitimately be empty for
// one-off invoices.
type InvoiceEvent struct {
	ID           string `json:"id"`
	Customer     string `json:"customer"`
	Subscription string `json:"subscription"`
	AmountPaid   int64  `json:"amount_paid"`
	AmountDue    int64  `json:"amount_due"`
}

func decodeEvent(raw json.RawMessage, out interface{}) error {
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%w: %w", ErrMalformedPayload, err)
	}
	if err := validate.Struct(out); err != nil {
		return fmt.Errorf("%w: %w", ErrMalformedPayload, err)
	}
	return nil
}
