package billing

import (
	"errors"
	"strconv"
	"strings"

	"github.com/JonasWeigert/PlanPort/app/models"
	"github.com/JonasWeigert/PlanPort/internal/pkg/env"
	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v82"
	portalsession "github.com/stripe/stripe-go/v82/billingportal/session"
	checkoutsession "github.com/stripe/stripe-go/v82/checkout/session"
)

// CheckoutClient starts provider-hosted checkout and billing-portal flows.
// Each call is a single outbound request that returns a redirect URL; all
// resulting state changes come back asynchronously through the webhook.
type CheckoutClient struct {
	apiKey     string
	successURL string
	cancelURL  string
	returnURL  string
}

func NewCheckoutClientFromEnv() *CheckoutClient {
	base := strings.TrimRight(env.GetEnv("PUBLIC_DOMAIN", ""), "/")
	if base == "" {
		base = "http://localhost:" + env.GetEnv("APP_PORT", "4000")
	}
	return &CheckoutClient{
		apiKey:     strings.TrimSpace(env.GetEnv("STRIPE_SECRET_KEY", "")),
		successURL: base + "/user/billing?checkout=success",
		cancelURL:  base + "/pricing",
		returnURL:  base + "/user/billing",
	}
}

// CheckoutURL creates a subscription-mode checkout session for the given
// user and plan. The client reference id carries the local user id so the
// completion webhook can link the session back to a profile.
func (c *CheckoutClient) CheckoutURL(user *models.User, plan *models.Plan) (string, error) {
	if c.apiKey == "" {
		return "", errors.New("STRIPE_SECRET_KEY is not configured")
	}
	stripe.Key = c.apiKey

	params := &stripe.CheckoutSessionParams{
		Mode: stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(plan.StripePriceID),
				Quantity: stripe.Int64(1),
			},
		},
		ClientReferenceID: stripe.String(strconv.FormatUint(uint64(user.ID), 10)),
		SuccessURL:        stripe.String(c.successURL),
		CancelURL:         stripe.String(c.cancelURL),
		Metadata: map[string]string{
			"plan_id": plan.PlanID,
		},
	}
	if user.StripeCustomerID != "" {
		params.Customer = stripe.String(user.StripeCustomerID)
	} else {
		params.CustomerEmail = stripe.String(user.Email)
	}
	params.SetIdempotencyKey(uuid.NewString())

	sess, err := checkoutsession.New(params)
	if err != nil {
		return "", err
	}
	return sess.URL, nil
}

// PortalURL creates a billing-portal session for an already linked customer.
func (c *CheckoutClient) PortalURL(user *models.User) (string, error) {
	if c.apiKey == "" {
		return "", errors.New("STRIPE_SECRET_KEY is not configured")
	}
	if user.StripeCustomerID == "" {
		return "", errors.New("user has no linked stripe customer")
	}
	stripe.Key = c.apiKey

	sess, err := portalsession.New(&stripe.BillingPortalSessionParams{
		Customer:  stripe.String(user.StripeCustomerID),
		ReturnURL: stripe.String(c.returnURL),
	})
	if err != nil {
		return "", err
	}
	return sess.URL, nil
}
