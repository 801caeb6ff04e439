package main

import (
	"log"
	"time"

	"payssd/internal/engine/payments"
	"payssd/internal/engine/webhooks"
	"payssd/internal/notify"
	"payssd/internal/pkg/logger"
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

	userRepo := repositories.NewUserRepository(db)
	customerRepo := repositories.NewCustomerRepository(db)
	productRepo := repositories.NewProductRepository(db)
	paymentRepo := repositories.NewPaymentRepository(db)
	subscriptionRepo := repositories.NewSubscriptionRepository(db)
	webhookRepo := repositories.NewWebhookRepository(db)
	notificationRepo := repositories.NewNotificationRepository(db)

	dispatcher := webhooks.NewDispatcher(webhookRepo, cfg.Webhooks.DeliveryTimeout)
	emailClient := notify.NewEmailClient(cfg.Notifications.SMTP)
	smsClient := notify.NewSMSClient(cfg.Notifications.SMS)
	notifier := notify.NewNotifier(notificationRepo, userRepo, emailClient, smsClient, cfg.Notifications.AdminEmail)

	paymentSvc := payments.NewService(paymentRepo, subscriptionRepo, productRepo, customerRepo, notifier, dispatcher, payments.Config{
		RenewalWindow: time.Duration(cfg.Billing.RenewalWindowDays) * 24 * time.Hour,
		PaymentTTL:    time.Duration(cfg.Billing.PaymentTTLHours) * time.Hour,
	})
	runner := workers.NewRunner(paymentSvc)

	log.Println("Starting Payssd background workers...")

	go runExpiryWorker(runner)
	go runRenewalWorker(runner)

	// Keep process alive
	select {}
}

func runExpiryWorker(runner *workers.Runner) {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		if _, err := runner.RunExpiry(); err != nil {
			log.Printf("Error expiring payments: %v", err)
		}
	}
}

func runRenewalWorker(runner *workers.Runner) {
	// Run at 01:00 UTC daily
	for {
		now := time.Now().UTC()
		next := time.Date(now.Year(), now.Month(), now.Day()+1, 1, 0, 0, 0, time.UTC)
		duration := next.Sub(now)

		if duration < 0 {
			duration = time.Minute
		}

		log.Printf("Renewal worker sleeping for %v", duration)
		time.Sleep(duration)

		log.Println("Running renewal generation...")
		if _, err := runner.RunRenewals(); err != nil {
			log.Printf("Error generating renewals: %v", err)
		}
	}
}
