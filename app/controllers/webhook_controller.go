package controllers

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/JonasWeigert/PlanPort/internal/pkg/billing"
	"github.com/JonasWeigert/PlanPort/internal/pkg/database"
	"github.com/JonasWeigert/PlanPort/internal/pkg/metrics/counter"
	"github.com/gofiber/fiber/v2"
)

// HandleStripeWebhook is the single inbound endpoint for provider events.
// The response status is the provider's only retry signal: 400 for requests
// no retry can fix, 5xx for transient persistence failures, 200 otherwise.
func HandleStripeWebhook(c *fiber.Ctx) error {
	// The signature covers the exact request bytes; copy before fiber reuses
	// the buffer.
	rawBody := append([]byte(nil), c.BodyRaw()...)
	signature := strings.TrimSpace(c.Get("Stripe-Signature"))

	verifier := billing.NewVerifierFromEnv()
	event, err := verifier.Verify(rawBody, signature)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_signature"})
	}

	svc := billing.NewServiceFromDB(database.GetDB())
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := svc.HandleEvent(ctx, event); err != nil {
		_ = counter.AddWebhookFailed(string(event.Type))
		switch {
		case errors.Is(err, billing.ErrMissingReference),
			errors.Is(err, billing.ErrMissingPlanMetadata),
			errors.Is(err, billing.ErrMalformedPayload):
			// Malformed upstream event; redelivery cannot fix it.
			log.Printf("webhook: rejecting malformed event %s (%s): %v", event.ID, event.Type, err)
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_payload"})
		case errors.Is(err, billing.ErrPersistenceFailure):
			log.Printf("webhook: persistence failure on event %s (%s): %v", event.ID, event.Type, err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "persistence_failed"})
		default:
			log.Printf("webhook: processing failure on event %s (%s): %v", event.ID, event.Type, err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "processing_failed"})
		}
	}

	_ = counter.AddWebhookProcessed(string(event.Type))
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"received": true})
}
