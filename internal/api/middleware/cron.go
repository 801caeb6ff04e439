package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"payssd/internal/pkg/errors"
)

// CronMiddleware guards the scheduler-triggered endpoints with a shared
// secret presented as a bearer token.
type CronMiddleware struct {
	secret string
}

func NewCronMiddleware(secret string) *CronMiddleware {
	return &CronMiddleware{secret: secret}
}

func (m *CronMiddleware) Handle(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		provided := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		if m.secret == "" || subtle.ConstantTimeCompare([]byte(provided), []byte(m.secret)) != 1 {
			errors.WriteError(w, http.StatusUnauthorized, errors.ErrCodeUnauthorized, "Invalid cron secret", nil)
			return
		}
		next(w, r)
	}
}
