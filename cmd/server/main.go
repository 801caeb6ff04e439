package main

import (
	"fmt"
	"log"
	"net/http"
	"time"

	"payssd/internal/api"
	"payssd/internal/api/handlers"
	"payssd/internal/api/middleware"
	"payssd/internal/engine/access"
	"payssd/internal/engine/payments"
	"payssd/internal/engine/subscriptions"
	"payssd/internal/engine/webhooks"
	"payssd/internal/notify"
	"payssd/internal/pkg/logger"
	"payssd/internal/platform/audit"
	"payssd/internal/platform/auth"
	"payssd/internal/platform/config"
	"payssd/internal/platform/database"
	"payssd/internal/platform/repositories"
	"payssd/internal/workers"
)

func main() {
	cfg, err := config.Load("configs/config.yaml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger.Init(cfg.Logging)

	db, err := database.Open(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	// Repositories
	userRepo := repositories.NewUserRepository(db)
	customerRepo := repositories.NewCustomerRepository(db)
	productRepo := repositories.NewProductRepository(db)
	paymentRepo := repositories.NewPaymentRepository(db)
	subscriptionRepo := repositories.NewSubscriptionRepository(db)
	webhookRepo := repositories.NewWebhookRepository(db)
	apiKeyRepo := repositories.NewAPIKeyRepository(db)
	notificationRepo := repositories.NewNotificationRepository(db)

	// Services
	tokenSvc := auth.NewTokenService(cfg.JWT)
	dispatcher := webhooks.NewDispatcher(webhookRepo, cfg.Webhooks.DeliveryTimeout)
	emailClient := notify.NewEmailClient(cfg.Notifications.SMTP)
	smsClient := notify.NewSMSClient(cfg.Notifications.SMS)
	notifier := notify.NewNotifier(notificationRepo, userRepo, emailClient, smsClient, cfg.Notifications.AdminEmail)
	auditLogger := audit.NewLogger(db)

	paymentSvc := payments.NewService(paymentRepo, subscriptionRepo, productRepo, customerRepo, notifier, dispatcher, payments.Config{
		RenewalWindow: time.Duration(cfg.Billing.RenewalWindowDays) * 24 * time.Hour,
		PaymentTTL:    time.Duration(cfg.Billing.PaymentTTLHours) * time.Hour,
	})
	subscriptionSvc := subscriptions.NewService(subscriptionRepo, notifier, dispatcher)
	accessSvc := access.NewService(productRepo, subscriptionRepo, cfg.Billing.GracePeriodDays)
	runner := workers.NewRunner(paymentSvc)

	middleware.SetLimits(cfg.RateLimit.APIReadPerMinute, cfg.RateLimit.APIWritePerMinute)

	// Router
	deps := &api.Dependencies{
		AuthHandler:         handlers.NewAuthHandler(userRepo, tokenSvc),
		PaymentHandler:      handlers.NewPaymentHandler(paymentSvc, auditLogger),
		ProductHandler:      handlers.NewProductHandler(productRepo),
		SubscriptionHandler: handlers.NewSubscriptionHandler(subscriptionSvc, auditLogger),
		WebhookHandler:      handlers.NewWebhookHandler(webhookRepo),
		APIKeyHandler:       handlers.NewAPIKeyHandler(apiKeyRepo, auditLogger),
		NotificationHandler: handlers.NewNotificationHandler(notificationRepo),
		AccessHandler:       handlers.NewAccessHandler(accessSvc),
		CronHandler:         handlers.NewCronHandler(runner),
		HealthHandler:       handlers.NewHealthHandler(db),
		AuthMiddleware:      middleware.NewAuthMiddleware(tokenSvc),
		APIKeyMiddleware:    middleware.NewAPIKeyMiddleware(apiKeyRepo),
		CronMiddleware:      middleware.NewCronMiddleware(cfg.Cron.Secret),
	}
	router := api.NewRouter(deps)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	log.Printf("Server starting on %s", server.Addr)
	if err := server.ListenAndServe(); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
