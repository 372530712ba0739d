package billing

import (
	"errors"
	"fmt"
)

// Error taxonomy for webhook processing. The webhook controller maps these to
// HTTP statuses: validation kinds answer 400 (retrying cannot fix a malformed
// event), persistence failures answer 5xx so the provider retries, everything
// else acknowledges with 200.
var (
	// ErrSignatureInvalid is the only error the verifier ever returns. It
	// deliberately carries no detail about why verification failed.
	ErrSignatureInvalid = errors.New("webhook signature invalid")

	// ErrMissingReference marks a checkout session that cannot be linked back
	// to a local user (no subscription, customer or client reference id).
	ErrMissingReference = errors.New("event missing required reference")

	// ErrMissingPlanMetadata marks a checkout session without plan
	// identification in its metadata.
	ErrMissingPlanMetadata = errors.New("checkout session missing plan metadata")

	// ErrMalformedPayload marks an event body that fails schema decoding or
	// validation at the router boundary.
	ErrMalformedPayload = errors.New("malformed event payload")

	// ErrPersistenceFailure wraps transient store errors. Surfacing it to the
	// provider triggers a redelivery, which is always safe because every
	// handler is idempotent.
	ErrPersistenceFailure = errors.New("persistence failure")

	// ErrNoMatchingRecord is a benign miss: the row the event refers to does
	// not exist locally (yet). Logged at low severity, acknowledged as success.
	ErrNoMatchingRecord = errors.New("no matching subscription record")
)

func persistence(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrPersistenceFailure, err)
}
