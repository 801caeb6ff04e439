package notify

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"payssd/internal/platform/models"
	"payssd/internal/platform/repositories"
)

// Notifier fans a domain event out to in-app notifications, email and SMS.
// Every send is best-effort: failures are logged and swallowed, the calling
// operation is never failed by a notification.
type Notifier struct {
	notifications *repositories.NotificationRepository
	users         *repositories.UserRepository
	email         *EmailClient
	sms           *SMSClient
	adminEmail    string
}

func NewNotifier(notifications *repositories.NotificationRepository, users *repositories.UserRepository, email *EmailClient, sms *SMSClient, adminEmail string) *Notifier {
	return &Notifier{
		notifications: notifications,
		users:         users,
		email:         email,
		sms:           sms,
		adminEmail:    adminEmail,
	}
}

// PaymentMatched tells the merchant a customer claims to have paid, and tells
// the admin a payment needs reconciliation.
func (n *Notifier) PaymentMatched(payment *models.Payment) {
	title := "Payment claim received"
	body := fmt.Sprintf("Payment %s (%s %s) was marked as paid by the customer and is awaiting your confirmation.",
		payment.ReferenceCode, formatAmount(payment.AmountCents), payment.Currency)

	n.notifyMerchant(payment.MerchantID, "payment_matched", title, body, "/dashboard/payments/"+payment.ID, true)
	n.notifyAdmin("payment_matched", title, fmt.Sprintf("Reference %s is awaiting merchant confirmation.", payment.ReferenceCode))
}

func (n *Notifier) PaymentConfirmed(payment *models.Payment) {
	title := "Payment confirmed"
	body := fmt.Sprintf("Payment %s (%s %s) was confirmed.", payment.ReferenceCode, formatAmount(payment.AmountCents), payment.Currency)
	n.notifyMerchant(payment.MerchantID, "payment_confirmed", title, body, "/dashboard/payments/"+payment.ID, false)
}

func (n *Notifier) PaymentRejected(payment *models.Payment) {
	title := "Payment rejected"
	body := fmt.Sprintf("Payment %s was rejected: %s", payment.ReferenceCode, payment.RejectionReason)
	n.notifyMerchant(payment.MerchantID, "payment_rejected", title, body, "/dashboard/payments/"+payment.ID, false)
}

func (n *Notifier) SubscriptionChanged(sub *models.Subscription, action string) {
	title := fmt.Sprintf("Subscription %s", action)
	body := fmt.Sprintf("Subscription for %s is now %s.", sub.CustomerPhone, sub.Status)
	n.notifyMerchant(sub.MerchantID, "subscription_"+action, title, body, "/dashboard/subscriptions/"+sub.ID, false)
}

func (n *Notifier) notifyMerchant(merchantID, notifType, title, body, link string, withSMS bool) {
	if err := n.notifications.Create(&models.Notification{
		UserID: merchantID,
		Type:   notifType,
		Title:  title,
		Body:   body,
		Link:   link,
	}); err != nil {
		log.Error().Err(err).Str("merchant_id", merchantID).Msg("failed to create in-app notification")
	}

	merchant, err := n.users.GetByID(merchantID)
	if err != nil || merchant == nil {
		log.Error().Err(err).Str("merchant_id", merchantID).Msg("failed to load merchant for notification")
		return
	}

	if n.email != nil {
		if err := n.email.Send(merchant.Email, title, body); err != nil {
			log.Error().Err(err).Str("to", merchant.Email).Msg("failed to send notification email")
		}
	}
	if withSMS && n.sms != nil && merchant.Phone != "" {
		if err := n.sms.Send(merchant.Phone, title+": "+body); err != nil {
			log.Error().Err(err).Str("to", merchant.Phone).Msg("failed to send notification sms")
		}
	}
}

func (n *Notifier) notifyAdmin(notifType, title, body string) {
	admin, err := n.users.GetAdmin()
	if err != nil {
		log.Error().Err(err).Msg("failed to load admin for notification")
		return
	}
	if admin != nil {
		if err := n.notifications.Create(&models.Notification{
			UserID: admin.ID,
			Type:   notifType,
			Title:  title,
			Body:   body,
		}); err != nil {
			log.Error().Err(err).Msg("failed to create admin notification")
		}
	}

	if n.email != nil && n.adminEmail != "" {
		if err := n.email.Send(n.adminEmail, title, body); err != nil {
			log.Error().Err(err).Str("to", n.adminEmail).Msg("failed to send admin email")
		}
	}
}

func formatAmount(cents int64) string {
	return fmt.Sprintf("%d.%02d", cents/100, cents%100)
}
