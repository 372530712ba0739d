package billing

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stripe/stripe-go/v82/webhook"
)

func signedHeader(payload []byte, secret string, at time.Time) string {
	sig := webhook.ComputeSignature(at, payload, secret)
	return fmt.Sprintf("t=%d,v1=%x", at.Unix(), sig)
}

func TestVerify_ValidSignature(t *testing.T) {
	secret := "whsec_test"
	payload := []byte(`{"id":"evt_1","type":"invoice.payment_succeeded","data":{"object":{}}}`)

	event, err := NewVerifier(secret).Verify(payload, signedHeader(payload, secret, time.Now()))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if event.ID != "evt_1" {
		t.Fatalf("expected decoded event, got %+v", event)
	}
}

func TestVerify_TamperedPayload(t *testing.T) {
	secret := "whsec_test"
	payload := []byte(`{"id":"evt_1","type":"invoice.payment_succeeded","data":{"object":{}}}`)
	header := signedHeader(payload, secret, time.Now())

	tampered := []byte(`{"id":"evt_evil","type":"invoice.payment_succeeded","data":{"object":{}}}`)
	if _, err := NewVerifier(secret).Verify(tampered, header); !errors.Is(err, ErrSignatureInvalid) {
		t.Fatalf("expected ErrSignatureInvalid, got %v", err)
	}
}

func TestVerify_WrongSecret(t *testing.T) {
	payload := []byte(`{"id":"evt_1"}`)
	header := signedHeader(payload, "whsec_a", time.Now())

	if _, err := NewVerifier("whsec_b").Verify(payload, header); !errors.Is(err, ErrSignatureInvalid) {
		t.Fatalf("expected ErrSignatureInvalid, got %v", err)
	}
}

func TestVerify_EmptySecretFailsClosed(t *testing.T) {
	payload := []byte(`{"id":"evt_1"}`)
	header := signedHeader(payload, "whsec_a", time.Now())

	if _, err := NewVerifier("").Verify(payload, header); !errors.Is(err, ErrSignatureInvalid) {
		t.Fatalf("unconfigured secret must reject everything, got %v", err)
	}
	if _, err := NewVerifier("   ").Verify(payload, header); !errors.Is(err, ErrSignatureInvalid) {
		t.Fatalf("whitespace secret must reject everything, got %v", err)
	}
}

func TestVerify_GarbageHeader(t *testing.T) {
	payload := []byte(`{"id":"evt_1"}`)

	if _, err := NewVerifier("whsec_a").Verify(payload, "not-a-signature"); !errors.Is(err, ErrSignatureInvalid) {
		t.Fatalf("expected ErrSignatureInvalid, got %v", err)
	}
	if _, err := NewVerifier("whsec_a").Verify(payload, ""); !errors.Is(err, ErrSignatureInvalid) {
		t.Fatalf("expected ErrSignatureInvalid, got %v", err)
	}
}
