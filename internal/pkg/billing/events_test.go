package billing

import (
	"errors"
	"testing"
)

func TestDecodeEvent_SubscriptionPayload(t *testing.T) {
	raw := []byte(`{
		"id": "sub_123",
		"customer": "cus_456",
		"status": "past_due",
		"cancel_at_period_end": true,
		"current_period_start": 1735689600,
		"current_period_end": 1738368000
	}`)

	var sub SubscriptionEvent
	if err := decodeEvent(raw, &sub); err != nil {
		t.Fatalf("unexpected decode error: %v", err)
	}
	if sub.ID != "sub_123" || sub.Customer != "cus_456" || sub.Status != "past_due" {
		t.Fatalf("unexpected event: %+v", sub)
	}
	if !sub.CancelAtPeriodEnd || sub.CurrentPeriodStart != 1735689600 {
		t.Fatalf("unexpected event: %+v", sub)
	}
}

func TestDecodeEvent_MissingRequiredID(t *testing.T) {
	var sub SubscriptionEvent
	err := decodeEvent([]byte(`{"status":"active"}`), &sub)
	if !errors.Is(err, ErrMalformedPayload) {
		t.Fatalf("expected ErrMalformedPayload for missing id, got %v", err)
	}
}

func TestDecodeEvent_InvalidJSON(t *testing.T) {
	var sub SubscriptionEvent
	err := decodeEvent([]byte(`{"id":`), &sub)
	if !errors.Is(err, ErrMalformedPayload) {
		t.Fatalf("expected ErrMalformedPayload for broken JSON, got %v", err)
	}
}

func TestCheckoutSessionEvent_PlanID(t *testing.T) {
	tests := []struct {
		metadata map[string]string
		want     string
	}{
		{metadata: map[string]string{"plan_id": "pro"}, want: "pro"},
		{metadata: map[string]string{"plan_id": "  pro  "}, want: "pro"},
		{metadata: map[string]string{"other": "x"}, want: ""},
		{metadata: nil, want: ""},
	}

	for _, tt := range tests {
		e := CheckoutSessionEvent{Metadata: tt.metadata}
		if got := e.PlanID(); got != tt.want {
			t.Fatalf("PlanID() with %v = %q, want %q", tt.metadata, got, tt.want)
		}
	}
}
