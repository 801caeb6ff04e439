package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestCronMiddleware(t *testing.T) {
	mid := NewCronMiddleware("topsecret")

	called := false
	handler := mid.Handle(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	})

	t.Run("Valid Secret", func(t *testing.T) {
		called = false
		req, _ := http.NewRequest("POST", "/api/cron/expire-payments", nil)
		req.Header.Set("Authorization", "Bearer topsecret")

		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)

		if rr.Code != http.StatusOK {
			t.Errorf("Expected 200, got %d", rr.Code)
		}
		if !called {
			t.Error("Handler was not called")
		}
	})

	t.Run("Wrong Secret", func(t *testing.T) {
		called = false
		req, _ := http.NewRequest("POST", "/api/cron/expire-payments", nil)
		req.Header.Set("Authorization", "Bearer guess")

		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)

		if rr.Code != http.StatusUnauthorized {
			t.Errorf("Expected 401, got %d", rr.Code)
		}
		if called {
			t.Error("Handler should not be called")
		}
	})

	t.Run("Missing Header", func(t *testing.T) {
		called = false
		req, _ := http.NewRequest("POST", "/api/cron/expire-payments", nil)

		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)

		if rr.Code != http.StatusUnauthorized {
			t.Errorf("Expected 401, got %d", rr.Code)
		}
	})

	t.Run("Bare Secret Without Scheme", func(t *testing.T) {
		called = false
		req, _ := http.NewRequest("POST", "/api/cron/expire-payments", nil)
		req.Header.Set("Authorization", "topsecret")

		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)

		if rr.Code != http.StatusOK {
			t.Errorf("Expected 200, got %d", rr.Code)
		}
	})

	t.Run("Empty Configured Secret", func(t *testing.T) {
		// An unset secret disables the endpoints entirely.
		unset := NewCronMiddleware("")
		h := unset.Handle(func(w http.ResponseWriter, r *http.Request) {
			t.Error("Handler should not be called")
		})

		req, _ := http.NewRequest("POST", "/api/cron/expire-payments", nil)
		req.Header.Set("Authorization", "Bearer ")

		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)

		if rr.Code != http.StatusUnauthorized {
			t.Errorf("Expected 401, got %d", rr.Code)
		}
	})
}
