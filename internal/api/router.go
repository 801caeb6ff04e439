package api

import (
	"context"
	"net/http"

	"github.com/julienschmidt/httprouter"

	apiContext "payssd/internal/api/context"
	"payssd/internal/api/handlers"
	"payssd/internal/api/middleware"
	"payssd/internal/pkg/errors"
	"payssd/internal/platform/auth"
)

type Dependencies struct {
	AuthHandler         *handlers.AuthHandler
	PaymentHandler      *handlers.PaymentHandler
	ProductHandler      *handlers.ProductHandler
	SubscriptionHandler *handlers.SubscriptionHandler
	WebhookHandler      *handlers.WebhookHandler
	APIKeyHandler       *handlers.APIKeyHandler
	NotificationHandler *handlers.NotificationHandler
	AccessHandler       *handlers.AccessHandler
	CronHandler         *handlers.CronHandler
	HealthHandler       *handlers.HealthHandler
	AuthMiddleware      *middleware.AuthMiddleware
	APIKeyMiddleware    *middleware.APIKeyMiddleware
	CronMiddleware      *middleware.CronMiddleware
}

func NewRouter(deps *Dependencies) *httprouter.Router {
	router := httprouter.New()

	router.GET("/health", wrap(deps.HealthHandler.Check))

	// Authentication routes
	router.POST("/api/auth/signup", wrap(deps.AuthHandler.Signup))
	router.POST("/api/auth/login", wrap(deps.AuthHandler.Login))
	router.POST("/api/auth/refresh", wrap(deps.AuthHandler.Refresh))

	// Middleware references
	authMid := deps.AuthMiddleware
	keyMid := deps.APIKeyMiddleware
	cronMid := deps.CronMiddleware

	router.GET("/api/auth/me", chain(deps.AuthHandler.Me, authMid.Handle))

	// Merchant dashboard: products and prices
	router.POST("/api/products", chain(deps.ProductHandler.Create, authMid.Handle))
	router.GET("/api/products", chain(deps.ProductHandler.List, authMid.Handle))
	router.GET("/api/products/:product_id", chain(deps.ProductHandler.Get, authMid.Handle))
	router.PATCH("/api/products/:product_id", chain(deps.ProductHandler.Update, authMid.Handle))
	router.POST("/api/products/:product_id/prices", chain(deps.ProductHandler.CreatePrice, authMid.Handle))
	router.GET("/api/products/:product_id/prices", chain(deps.ProductHandler.ListPrices, authMid.Handle))

	// Merchant dashboard: payments
	router.POST("/api/payments", chain(deps.PaymentHandler.Create, authMid.Handle))
	router.POST("/api/payments/submit", chain(deps.PaymentHandler.Submit, authMid.Handle))
	router.GET("/api/payments", chain(deps.PaymentHandler.List, authMid.Handle))
	router.GET("/api/payments/:payment_id", chain(deps.PaymentHandler.Get, authMid.Handle))
	router.PATCH("/api/payments/:payment_id", chain(deps.PaymentHandler.Patch, authMid.Handle))
	router.GET("/api/payments/:payment_id/qr", chain(deps.PaymentHandler.QRCode, authMid.Handle))

	// Admin reconciliation queue
	router.GET("/api/admin/payments",
		chain(deps.PaymentHandler.ListAll, authMid.Handle, requireRole("admin")))

	// Merchant dashboard: subscriptions
	router.GET("/api/subscriptions", chain(deps.SubscriptionHandler.List, authMid.Handle))
	router.GET("/api/subscriptions/:subscription_id", chain(deps.SubscriptionHandler.Get, authMid.Handle))
	router.PATCH("/api/subscriptions/:subscription_id", chain(deps.SubscriptionHandler.Patch, authMid.Handle))

	// Merchant dashboard: webhooks
	router.POST("/api/webhooks", chain(deps.WebhookHandler.Create, authMid.Handle))
	router.GET("/api/webhooks", chain(deps.WebhookHandler.List, authMid.Handle))
	router.GET("/api/webhooks/:webhook_id", chain(deps.WebhookHandler.Get, authMid.Handle))
	router.PATCH("/api/webhooks/:webhook_id", chain(deps.WebhookHandler.Update, authMid.Handle))
	router.DELETE("/api/webhooks/:webhook_id", chain(deps.WebhookHandler.Delete, authMid.Handle))
	router.GET("/api/webhooks/:webhook_id/deliveries", chain(deps.WebhookHandler.ListDeliveries, authMid.Handle))

	// Merchant dashboard: API keys
	router.POST("/api/keys", chain(deps.APIKeyHandler.Create, authMid.Handle))
	router.GET("/api/keys", chain(deps.APIKeyHandler.List, authMid.Handle))
	router.DELETE("/api/keys/:key_id", chain(deps.APIKeyHandler.Revoke, authMid.Handle))

	// Merchant dashboard: notifications
	router.GET("/api/notifications", chain(deps.NotificationHandler.List, authMid.Handle))
	router.POST("/api/notifications/:notification_id/read", chain(deps.NotificationHandler.MarkRead, authMid.Handle))
	router.POST("/api/notifications/read-all", chain(deps.NotificationHandler.MarkAllRead, authMid.Handle))

	// Public v1 API, authenticated by API key
	router.GET("/v1/products",
		chain(deps.ProductHandler.V1List, keyMid.Handle, middleware.RateLimit("api_read")))
	router.POST("/v1/payments/submit",
		chain(deps.PaymentHandler.SubmitClaim, keyMid.Handle, middleware.RateLimit("api_write")))
	router.POST("/v1/access/check",
		chain(deps.AccessHandler.Check, keyMid.Handle, middleware.RateLimit("api_read")))

	// Scheduler endpoints
	router.POST("/api/cron/expire-payments", chain(deps.CronHandler.ExpirePayments, cronMid.Handle))
	router.POST("/api/cron/generate-renewals", chain(deps.CronHandler.GenerateRenewals, cronMid.Handle))

	return router
}

// Helper function to chain middlewares
func chain(handler http.HandlerFunc, middlewares ...func(http.HandlerFunc) http.HandlerFunc) httprouter.Handle {
	for i := len(middlewares) - 1; i >= 0; i-- {
		handler = middlewares[i](handler)
	}
	return wrap(handler)
}

// Convert http.HandlerFunc to httprouter.Handle
func wrap(handler http.HandlerFunc) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		// Inject params into context
		ctx := context.WithValue(r.Context(), apiContext.Params, ps)
		handler(w, r.WithContext(ctx))
	}
}

func requireRole(roles ...string) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			claims := r.Context().Value(apiContext.Claims).(*auth.Claims)

			allowed := false
			for _, role := range roles {
				if claims.Role == role {
					allowed = true
					break
				}
			}

			if !allowed {
				errors.WriteError(w, http.StatusForbidden, errors.ErrCodeForbidden, "Insufficient permissions", nil)
				return
			}

			next(w, r)
		}
	}
}
