package subscriptions

import (
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"payssd/internal/engine/webhooks"
	"payssd/internal/notify"
	"payssd/internal/platform/models"
	"payssd/internal/platform/repositories"
)

var (
	// ErrNotFound covers both a missing subscription and one owned by a
	// different merchant, so callers cannot probe for existence.
	ErrNotFound = errors.New("subscription not found")

	ErrInvalidTransition = errors.New("invalid subscription transition")
)

type Service struct {
	repo       *repositories.SubscriptionRepository
	notifier   *notify.Notifier
	dispatcher *webhooks.Dispatcher
}

func NewService(repo *repositories.SubscriptionRepository, notifier *notify.Notifier, dispatcher *webhooks.Dispatcher) *Service {
	return &Service{
		repo:       repo,
		notifier:   notifier,
		dispatcher: dispatcher,
	}
}

func (s *Service) Get(merchantID, id string) (*models.Subscription, error) {
	sub, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if sub == nil || sub.MerchantID != merchantID {
		return nil, ErrNotFound
	}
	return sub, nil
}

func (s *Service) List(merchantID, status string, limit, offset int) ([]*models.Subscription, error) {
	return s.repo.ListByMerchant(merchantID, status, limit, offset)
}

// Pause suspends an active subscription, optionally with a scheduled resume
// date. Only active subscriptions can be paused.
func (s *Service) Pause(merchantID, id string, resumeAt *int64) (*models.Subscription, error) {
	sub, err := s.Get(merchantID, id)
	if err != nil {
		return nil, err
	}
	if sub.Status != models.SubscriptionStatusActive {
		return nil, fmt.Errorf("%w: cannot pause subscription in status %q", ErrInvalidTransition, sub.Status)
	}

	now := time.Now().Unix()
	ok, err := s.repo.MarkPaused(id, now, resumeAt)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: subscription is no longer active", ErrInvalidTransition)
	}

	sub.Status = models.SubscriptionStatusPaused
	sub.PausedAt = &now
	sub.ResumeAt = resumeAt

	s.afterTransition(sub, "paused", models.EventSubscriptionPaused)
	return sub, nil
}

func (s *Service) Resume(merchantID, id string) (*models.Subscription, error) {
	sub, err := s.Get(merchantID, id)
	if err != nil {
		return nil, err
	}
	if sub.Status != models.SubscriptionStatusPaused {
		return nil, fmt.Errorf("%w: cannot resume subscription in status %q", ErrInvalidTransition, sub.Status)
	}

	now := time.Now().Unix()
	ok, err := s.repo.MarkResumed(id, now)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: subscription is no longer paused", ErrInvalidTransition)
	}

	sub.Status = models.SubscriptionStatusActive
	sub.PausedAt = nil
	sub.ResumeAt = nil

	s.afterTransition(sub, "resumed", models.EventSubscriptionResumed)
	return sub, nil
}

// Cancel works from any non-cancelled status.
func (s *Service) Cancel(merchantID, id, reason string) (*models.Subscription, error) {
	sub, err := s.Get(merchantID, id)
	if err != nil {
		return nil, err
	}
	if sub.Status == models.SubscriptionStatusCancelled {
		return nil, fmt.Errorf("%w: subscription is already cancelled", ErrInvalidTransition)
	}

	now := time.Now().Unix()
	ok, err := s.repo.MarkCancelled(id, reason, now)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: subscription is already cancelled", ErrInvalidTransition)
	}

	sub.Status = models.SubscriptionStatusCancelled
	sub.CancelledAt = &now
	sub.CancellationReason = reason

	s.afterTransition(sub, "cancelled", models.EventSubscriptionCancelled)
	return sub, nil
}

// Reactivate restarts a cancelled or expired subscription with a one-month
// period starting now. The regular billing cycle picks up again at the next
// renewal.
func (s *Service) Reactivate(merchantID, id string) (*models.Subscription, error) {
	sub, err := s.Get(merchantID, id)
	if err != nil {
		return nil, err
	}
	if sub.Status != models.SubscriptionStatusCancelled && sub.Status != models.SubscriptionStatusExpired {
		return nil, fmt.Errorf("%w: cannot reactivate subscription in status %q", ErrInvalidTransition, sub.Status)
	}

	now := time.Now().Unix()
	periodEnd := NextPeriodEnd(now, models.BillingCycleMonthly)

	ok, err := s.repo.MarkReactivated(id, now, periodEnd)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: subscription can no longer be reactivated", ErrInvalidTransition)
	}

	sub.Status = models.SubscriptionStatusActive
	sub.CurrentPeriodStart = now
	sub.CurrentPeriodEnd = periodEnd
	sub.PausedAt = nil
	sub.ResumeAt = nil
	sub.CancelledAt = nil
	sub.CancellationReason = ""

	s.afterTransition(sub, "reactivated", models.EventSubscriptionReactivated)
	return sub, nil
}

func (s *Service) afterTransition(sub *models.Subscription, action, eventType string) {
	if s.notifier != nil {
		s.notifier.SubscriptionChanged(sub, action)
	}
	if s.dispatcher != nil {
		results := s.dispatcher.Dispatch(sub.MerchantID, eventType, sub)
		for _, res := range results {
			if !res.Success {
				log.Warn().Str("webhook_id", res.WebhookID).Str("event", eventType).Str("error", res.Error).Msg("webhook delivery failed")
			}
		}
	}
}
