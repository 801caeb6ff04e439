package webhooks

import (
	"testing"
)

func TestSign(t *testing.T) {
	secret := "secret"
	payload := []byte("payload")

	// Calculated using: echo -n "1700000000.payload" | openssl dgst -sha256 -hmac "secret"
	expected := "5af4877ab3c93d3201223b2c43d689a4c1e849ddd9091e066f03be6168ae79e9"

	got := Sign(secret, 1700000000, payload)

	if got != expected {
		t.Errorf("Sign() = %v, want %v", got, expected)
	}
}

func TestSignTimestampChangesSignature(t *testing.T) {
	payload := []byte(`{"event":"payment.matched"}`)

	a := Sign("whsec_abc123", 1700000000, payload)
	b := Sign("whsec_abc123", 1700000001, payload)

	if a == b {
		t.Error("expected different signatures for different timestamps")
	}
}
