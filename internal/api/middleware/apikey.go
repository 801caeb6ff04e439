package middleware

import (
	"context"
	"net/http"
	"strings"

	apiContext "payssd/internal/api/context"
	"payssd/internal/pkg/errors"
	"payssd/internal/platform/auth"
	"payssd/internal/platform/repositories"
)

// APIKeyMiddleware authenticates the public v1 API. A valid key places the
// owning merchant's user ID into the request context.
type APIKeyMiddleware struct {
	apiKeys *repositories.APIKeyRepository
}

func NewAPIKeyMiddleware(apiKeys *repositories.APIKeyRepository) *APIKeyMiddleware {
	return &APIKeyMiddleware{apiKeys: apiKeys}
}

func (m *APIKeyMiddleware) Handle(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			errors.WriteError(w, http.StatusUnauthorized, errors.ErrCodeUnauthorized, "Missing API key", nil)
			return
		}

		rawKey := strings.TrimPrefix(authHeader, "Bearer ")

		key, err := auth.AuthenticateAPIKey(m.apiKeys, rawKey)
		if err != nil {
			switch err {
			case auth.ErrInvalidAPIKey, auth.ErrAPIKeyInactive:
				errors.WriteError(w, http.StatusUnauthorized, errors.ErrCodeUnauthorized, err.Error(), nil)
			default:
				errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Database error", nil)
			}
			return
		}

		// Best effort, not worth failing the request over.
		go m.apiKeys.UpdateLastUsed(key.ID)

		ctx := context.WithValue(r.Context(), apiContext.Merchant, key.MerchantID)
		next(w, r.WithContext(ctx))
	}
}
