package models

const (
	PaymentStatusPending   = "pending"
	PaymentStatusMatched   = "matched"
	PaymentStatusConfirmed = "confirmed"
	PaymentStatusRejected  = "rejected"
	PaymentStatusExpired   = "expired"
)

const (
	PaymentTypeInitial = "initial"
	PaymentTypeRenewal = "renewal"
)

// Payment is a manual mobile-money / bank-transfer payment request. The
// reference code is the merchant-facing identifier the customer quotes when
// sending money; the internal id never leaves the system.
type Payment struct {
	ID              string            `json:"id"`
	MerchantID      string            `json:"merchant_id"`
	SubscriptionID  *string           `json:"subscription_id,omitempty"`
	ReferenceCode   string            `json:"reference_code"`
	AmountCents     int64             `json:"amount_cents"`
	Currency        string            `json:"currency"`
	Status          string            `json:"status"`       // pending, matched, confirmed, rejected, expired
	PaymentType     string            `json:"payment_type"` // initial, renewal
	CustomerPhone   string            `json:"customer_phone"`
	TransactionID   string            `json:"transaction_id,omitempty"`
	ProofURL        string            `json:"proof_url,omitempty"`
	Metadata        map[string]string `json:"metadata,omitempty"` // JSON in DB
	RejectionReason string            `json:"rejection_reason,omitempty"`
	MatchedAt       *int64            `json:"matched_at,omitempty"`
	ConfirmedAt     *int64            `json:"confirmed_at,omitempty"`
	ExpiresAt       *int64            `json:"expires_at,omitempty"`
	CreatedAt       int64             `json:"created_at"`
	UpdatedAt       int64             `json:"updated_at"`
}
