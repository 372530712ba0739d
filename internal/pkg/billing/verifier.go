package billing

import (
	"strings"

	"github.com/JonasWeigert/PlanPort/internal/pkg/env"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"
)

// Verifier authenticates a raw webhook payload against the signing secret.
// It is a pure function of (secret, body, header) and performs no I/O.
type Verifier struct {
	secret string
}

func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: strings.TrimSpace(secret)}
}

func NewVerifierFromEnv() *Verifier {
	return NewVerifier(env.GetEnv("STRIPE_WEBHOOK_SECRET", ""))
}

// Verify recomputes the signature over the exact request bytes and returns
// the decoded event. An unconfigured secret rejects everything (fail closed),
// and every failure collapses to ErrSignatureInvalid so no cryptographic
// detail leaks to the caller.
func (v *Verifier) Verify(payload []byte, signatureHeader string) (stripe.Event, error) {
	if v.secret == "" {
		return stripe.Event{}, ErrSignatureInvalid
	}

	event, err := webhook.ConstructEventWithOptions(payload, signatureHeader, v.secret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return stripe.Event{}, ErrSignatureInvalid
	}
	return event, nil
}
