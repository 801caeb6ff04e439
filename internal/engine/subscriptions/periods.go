package subscriptions

import (
	"time"

	"payssd/internal/platform/models"
)

// NextPeriodEnd computes the end of a billing period starting at from.
// Calendar months are used, so a period starting Jan 31 ends Mar 2/3 the way
// time.AddDate normalizes it.
func NextPeriodEnd(from int64, billingCycle string) int64 {
	start := time.Unix(from, 0).UTC()

	switch billingCycle {
	case models.BillingCycleQuarterly:
		return start.AddDate(0, 3, 0).Unix()
	case models.BillingCycleYearly:
		return start.AddDate(1, 0, 0).Unix()
	default:
		return start.AddDate(0, 1, 0).Unix()
	}
}
