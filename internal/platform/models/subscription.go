package models

const (
	SubscriptionStatusPending   = "pending"
	SubscriptionStatusActive    = "active"
	SubscriptionStatusPaused    = "paused"
	SubscriptionStatusCancelled = "cancelled"
	SubscriptionStatusExpired   = "expired"
)

// Subscription is owned by exactly one merchant; the customer is identified
// by phone number, not by an account.
type Subscription struct {
	ID                 string `json:"id"`
	MerchantID         string `json:"merchant_id"`
	ProductID          string `json:"product_id"`
	PriceID            string `json:"price_id"`
	CustomerPhone      string `json:"customer_phone"`
	Status             string `json:"status"` // pending, active, paused, cancelled, expired
	BillingCycle       string `json:"billing_cycle"`
	CurrentPeriodStart int64  `json:"current_period_start"`
	CurrentPeriodEnd   int64  `json:"current_period_end"`
	PausedAt           *int64 `json:"paused_at,omitempty"`
	ResumeAt           *int64 `json:"resume_at,omitempty"`
	CancelledAt        *int64 `json:"cancelled_at,omitempty"`
	CancellationReason string `json:"cancellation_reason,omitempty"`
	CreatedAt          int64  `json:"created_at"`
	UpdatedAt          int64  `json:"updated_at"`
}
