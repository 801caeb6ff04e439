package models

const (
	EventPaymentMatched          = "payment.matched"
	EventPaymentConfirmed        = "payment.confirmed"
	EventPaymentRejected         = "payment.rejected"
	EventSubscriptionActivated   = "subscription.activated"
	EventSubscriptionRenewed     = "subscription.renewed"
	EventSubscriptionPaused      = "subscription.paused"
	EventSubscriptionResumed     = "subscription.resumed"
	EventSubscriptionCancelled   = "subscription.cancelled"
	EventSubscriptionReactivated = "subscription.reactivated"
)

type Webhook struct {
	ID         string   `json:"id"`
	MerchantID string   `json:"merchant_id"`
	URL        string   `json:"url"`
	Secret     string   `json:"secret"`
	Events     []string `json:"events"` // JSON array in DB
	IsActive   bool     `json:"is_active"`
	CreatedAt  int64    `json:"created_at"`
	UpdatedAt  int64    `json:"updated_at"`
}

// WebhookEvent is the wire payload POSTed to merchant endpoints.
type WebhookEvent struct {
	Event     string      `json:"event"`
	Timestamp int64       `json:"timestamp"`
	Data      interface{} `json:"data"`
}

// WebhookDelivery is an immutable log row, one per delivery attempt.
// DeliveredAt stays null when the request never produced an HTTP response.
type WebhookDelivery struct {
	ID             string `json:"id"`
	WebhookID      string `json:"webhook_id"`
	EventType      string `json:"event_type"`
	Payload        string `json:"payload"`
	ResponseStatus *int   `json:"response_status,omitempty"`
	ResponseBody   string `json:"response_body,omitempty"`
	Error          string `json:"error,omitempty"`
	DeliveredAt    *int64 `json:"delivered_at,omitempty"`
	CreatedAt      int64  `json:"created_at"`
}
