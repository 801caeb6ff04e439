package access

import (
	"errors"
	"time"

	"payssd/internal/platform/models"
	"payssd/internal/platform/repositories"
)

var ErrProductNotFound = errors.New("product not found")

type Service struct {
	products        *repositories.ProductRepository
	subscriptions   *repositories.SubscriptionRepository
	gracePeriodDays int
}

func NewService(products *repositories.ProductRepository, subs *repositories.SubscriptionRepository, gracePeriodDays int) *Service {
	return &Service{
		products:        products,
		subscriptions:   subs,
		gracePeriodDays: gracePeriodDays,
	}
}

type CheckResult struct {
	HasAccess      bool   `json:"has_access"`
	Status         string `json:"status"`
	InGracePeriod  bool   `json:"in_grace_period"`
	DaysRemaining  int    `json:"days_remaining"`
	SubscriptionID string `json:"subscription_id,omitempty"`
}

// Check decides whether a phone number currently has access to a product.
// Paused and cancelled subscriptions keep access until the paid-for period
// ends; an active subscription past its period end keeps access through the
// configured grace window while a renewal payment is awaited.
func (s *Service) Check(merchantID, productID, phone string) (*CheckResult, error) {
	product, err := s.products.GetByID(productID)
	if err != nil {
		return nil, err
	}
	if product == nil || product.MerchantID != merchantID {
		return nil, ErrProductNotFound
	}

	sub, err := s.subscriptions.GetLatestByProductAndPhone(productID, phone)
	if err != nil {
		return nil, err
	}
	if sub == nil {
		return &CheckResult{HasAccess: false, Status: "none"}, nil
	}

	now := time.Now().Unix()
	result := &CheckResult{Status: sub.Status, SubscriptionID: sub.ID}

	switch sub.Status {
	case models.SubscriptionStatusActive, models.SubscriptionStatusPaused, models.SubscriptionStatusCancelled:
		if now < sub.CurrentPeriodEnd {
			result.HasAccess = true
			result.DaysRemaining = daysUntil(now, sub.CurrentPeriodEnd)
			return result, nil
		}
		if sub.Status == models.SubscriptionStatusActive && s.gracePeriodDays > 0 {
			graceEnd := sub.CurrentPeriodEnd + int64(s.gracePeriodDays)*86400
			if now < graceEnd {
				result.HasAccess = true
				result.InGracePeriod = true
				result.DaysRemaining = daysUntil(now, graceEnd)
				return result, nil
			}
		}
	}

	return result, nil
}

// daysUntil rounds up so a subscription with any time left reports at
// least one day.
func daysUntil(now, until int64) int {
	remaining := until - now
	if remaining <= 0 {
		return 0
	}
	return int((remaining + 86399) / 86400)
}
