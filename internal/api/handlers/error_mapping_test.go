package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"payssd/internal/engine/payments"
	"payssd/internal/engine/subscriptions"
	apiErrors "payssd/internal/pkg/errors"
)

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) apiErrors.ErrorResponse {
	t.Helper()
	var body apiErrors.ErrorResponse
	if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
		t.Fatalf("Failed to decode error body: %v", err)
	}
	return body
}

func TestWriteSubscriptionError(t *testing.T) {
	t.Run("Invalid Transition Is Bad Request", func(t *testing.T) {
		rr := httptest.NewRecorder()
		err := fmt.Errorf("%w: cannot pause subscription in status %q", subscriptions.ErrInvalidTransition, "pending")
		writeSubscriptionError(rr, err)

		if rr.Code != http.StatusBadRequest {
			t.Errorf("Expected 400, got %d", rr.Code)
		}
		if body := decodeError(t, rr); body.Code != apiErrors.ErrCodeInvalidState {
			t.Errorf("Expected code %s, got %s", apiErrors.ErrCodeInvalidState, body.Code)
		}
	})

	t.Run("Not Found", func(t *testing.T) {
		rr := httptest.NewRecorder()
		writeSubscriptionError(rr, subscriptions.ErrNotFound)

		if rr.Code != http.StatusNotFound {
			t.Errorf("Expected 404, got %d", rr.Code)
		}
	})
}

func TestWritePaymentError(t *testing.T) {
	t.Run("Invalid State Is Bad Request", func(t *testing.T) {
		rr := httptest.NewRecorder()
		writePaymentError(rr, payments.ErrInvalidState)

		if rr.Code != http.StatusBadRequest {
			t.Errorf("Expected 400, got %d", rr.Code)
		}
		if body := decodeError(t, rr); body.Code != apiErrors.ErrCodeInvalidState {
			t.Errorf("Expected code %s, got %s", apiErrors.ErrCodeInvalidState, body.Code)
		}
	})

	t.Run("Processed Payment Reads As Not Found", func(t *testing.T) {
		rr := httptest.NewRecorder()
		writePaymentError(rr, payments.ErrNotPending)

		if rr.Code != http.StatusNotFound {
			t.Errorf("Expected 404, got %d", rr.Code)
		}
	})
}
