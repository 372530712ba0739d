package controllers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v82/webhook"
)

const testWebhookSecret = "whsec_testsecret"

func newWebhookTestApp() *fiber.App {
	app := fiber.New()
	app.Post("/webhooks/stripe", HandleStripeWebhook)
	return app
}

func signedWebhookRequest(t *testing.T, payload []byte) *http.Request {
	t.Helper()
	now := time.Now()
	sig := webhook.ComputeSignature(now, payload, testWebhookSecret)
	req := httptest.NewRequest(http.MethodPost, "/webhooks/stripe", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Stripe-Signature", fmt.Sprintf("t=%d,v1=%x", now.Unix(), sig))
	return req
}

func decodeBody(t *testing.T, resp *http.Response) map[string]interface{} {
	t.Helper()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &body))
	return body
}

func TestHandleStripeWebhook_RejectsUnsignedRequest(t *testing.T) {
	t.Setenv("STRIPE_WEBHOOK_SECRET", testWebhookSecret)
	app := newWebhookTestApp()

	req := httptest.NewRequest(http.MethodPost, "/webhooks/stripe", bytes.NewReader([]byte(`{"id":"evt_1"}`)))
	resp, err := app.Test(req)
	require.NoError(t, err)

	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "invalid_signature", decodeBody(t, resp)["error"])
}

func TestHandleStripeWebhook_RejectsEverythingWithoutSecret(t *testing.T) {
	t.Setenv("STRIPE_WEBHOOK_SECRET", "")
	app := newWebhookTestApp()

	payload := []byte(`{"id":"evt_1","type":"customer.created","data":{"object":{}}}`)
	resp, err := app.Test(signedWebhookRequest(t, payload))
	require.NoError(t, err)

	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestHandleStripeWebhook_AcknowledgesUnhandledEventType(t *testing.T) {
	t.Setenv("STRIPE_WEBHOOK_SECRET", testWebhookSecret)
	app := newWebhookTestApp()

	payload := []byte(`{"id":"evt_1","type":"customer.created","data":{"object":{}}}`)
	resp, err := app.Test(signedWebhookRequest(t, payload))
	require.NoError(t, err)

	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, true, decodeBody(t, resp)["received"])
}

func TestHandleStripeWebhook_RejectsCheckoutWithoutReferences(t *testing.T) {
	t.Setenv("STRIPE_WEBHOOK_SECRET", testWebhookSecret)
	app := newWebhookTestApp()

	// Verified event, but the session carries no subscription, customer or
	// client reference. Redelivery cannot fix that, so the answer is 400.
	payload := []byte(`{"id":"evt_2","type":"checkout.session.completed","data":{"object":{"id":"cs_1","mode":"subscription"}}}`)
	resp, err := app.Test(signedWebhookRequest(t, payload))
	require.NoError(t, err)

	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "invalid_payload", decodeBody(t, resp)["error"])
}
