package models

const (
	ProductTypeSubscription = "subscription"
	ProductTypeDigital      = "digital"
	ProductTypeContent      = "content"
)

const (
	BillingCycleMonthly   = "monthly"
	BillingCycleQuarterly = "quarterly"
	BillingCycleYearly    = "yearly"
)

type Product struct {
	ID          string `json:"id"`
	MerchantID  string `json:"merchant_id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	ProductType string `json:"product_type"` // subscription, digital, content
	IsActive    bool   `json:"is_active"`
	CreatedAt   int64  `json:"created_at"`
	UpdatedAt   int64  `json:"updated_at"`

	Prices []*Price `json:"prices,omitempty"`
}

type Price struct {
	ID           string `json:"id"`
	ProductID    string `json:"product_id"`
	AmountCents  int64  `json:"amount_cents"`
	Currency     string `json:"currency"`
	BillingCycle string `json:"billing_cycle"` // monthly, quarterly, yearly
	IsActive     bool   `json:"is_active"`
	CreatedAt    int64  `json:"created_at"`
}

func ValidBillingCycle(cycle string) bool {
	switch cycle {
	case BillingCycleMonthly, BillingCycleQuarterly, BillingCycleYearly:
		return true
	}
	return false
}
