package payments

import (
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"payssd/internal/engine/subscriptions"
	"payssd/internal/engine/webhooks"
	"payssd/internal/notify"
	"payssd/internal/platform/models"
	"payssd/internal/platform/repositories"
)

var (
	// ErrNotFound doubles as the ownership-miss error so merchants cannot
	// probe for other merchants' payments.
	ErrNotFound = errors.New("payment not found")

	// ErrNotPending means the payment already left pending status; a second
	// claim or a claim on a decided payment lands here.
	ErrNotPending = errors.New("payment not found or already processed")

	ErrInvalidState = errors.New("payment is not awaiting confirmation")
)

type Config struct {
	RenewalWindow time.Duration
	PaymentTTL    time.Duration
}

type Service struct {
	payments      *repositories.PaymentRepository
	subscriptions *repositories.SubscriptionRepository
	products      *repositories.ProductRepository
	customers     *repositories.CustomerRepository
	notifier      *notify.Notifier
	dispatcher    *webhooks.Dispatcher
	cfg           Config
}

func NewService(
	payments *repositories.PaymentRepository,
	subs *repositories.SubscriptionRepository,
	products *repositories.ProductRepository,
	customers *repositories.CustomerRepository,
	notifier *notify.Notifier,
	dispatcher *webhooks.Dispatcher,
	cfg Config,
) *Service {
	if cfg.RenewalWindow <= 0 {
		cfg.RenewalWindow = 7 * 24 * time.Hour
	}
	if cfg.PaymentTTL <= 0 {
		cfg.PaymentTTL = 48 * time.Hour
	}
	return &Service{
		payments:      payments,
		subscriptions: subs,
		products:      products,
		customers:     customers,
		notifier:      notifier,
		dispatcher:    dispatcher,
		cfg:           cfg,
	}
}

type CreateRequest struct {
	ProductID     string
	PriceID       string
	CustomerPhone string
	CustomerName  string
}

// CreateRequestPayment opens a checkout: a pending payment the customer is
// expected to settle by mobile money or bank transfer, plus a pending
// subscription when the product is subscription-based.
func (s *Service) CreateRequestPayment(merchantID string, req CreateRequest) (*models.Payment, error) {
	product, err := s.products.GetByID(req.ProductID)
	if err != nil {
		return nil, err
	}
	if product == nil || product.MerchantID != merchantID {
		return nil, ErrNotFound
	}

	price, err := s.products.GetPrice(req.PriceID)
	if err != nil {
		return nil, err
	}
	if price == nil || price.ProductID != product.ID || !price.IsActive {
		return nil, errors.New("price not found for product")
	}

	if err := s.customers.Upsert(&models.Customer{
		ID:         "cust_" + uuid.New().String(),
		MerchantID: merchantID,
		Phone:      req.CustomerPhone,
		FullName:   req.CustomerName,
	}); err != nil {
		return nil, err
	}

	var subscriptionID *string
	if product.ProductType == models.ProductTypeSubscription {
		sub := &models.Subscription{
			ID:            "sub_" + uuid.New().String(),
			MerchantID:    merchantID,
			ProductID:     product.ID,
			PriceID:       price.ID,
			CustomerPhone: req.CustomerPhone,
			Status:        models.SubscriptionStatusPending,
			BillingCycle:  price.BillingCycle,
		}
		if err := s.subscriptions.Create(sub); err != nil {
			return nil, err
		}
		subscriptionID = &sub.ID
	}

	referenceCode, err := GenerateReferenceCode(PrefixInitial, s.payments)
	if err != nil {
		return nil, err
	}

	expiresAt := time.Now().Add(s.cfg.PaymentTTL).Unix()
	payment := &models.Payment{
		ID:             "pay_" + uuid.New().String(),
		MerchantID:     merchantID,
		SubscriptionID: subscriptionID,
		ReferenceCode:  referenceCode,
		AmountCents:    price.AmountCents,
		Currency:       price.Currency,
		Status:         models.PaymentStatusPending,
		PaymentType:    models.PaymentTypeInitial,
		CustomerPhone:  req.CustomerPhone,
		ExpiresAt:      &expiresAt,
	}
	if err := s.payments.Create(payment); err != nil {
		return nil, err
	}

	return payment, nil
}

type ClaimResult struct {
	Payment *models.Payment `json:"payment"`
	Matched bool            `json:"matched"`
}

// SubmitClaim records a customer's claim that a pending payment was settled.
// With no proof attached the call is a no-op acknowledgement. With proof, the
// payment moves pending -> matched exactly once: the conditional update fails
// for any row that already left pending, which is surfaced as ErrNotPending.
func (s *Service) SubmitClaim(merchantID, referenceCode, transactionID, proofURL string) (*ClaimResult, error) {
	payment, err := s.payments.GetByReference(referenceCode)
	if err != nil {
		return nil, err
	}
	if payment == nil || payment.MerchantID != merchantID {
		return nil, ErrNotFound
	}

	if transactionID == "" && proofURL == "" {
		if payment.Status != models.PaymentStatusPending {
			return nil, ErrNotPending
		}
		return &ClaimResult{Payment: payment, Matched: false}, nil
	}

	now := time.Now().Unix()
	ok, err := s.payments.MarkMatched(referenceCode, transactionID, proofURL, now)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotPending
	}

	payment, err = s.payments.GetByReference(referenceCode)
	if err != nil {
		return nil, err
	}

	// The status flip above is the source of truth; everything below is
	// fire-and-forget.
	if s.notifier != nil {
		s.notifier.PaymentMatched(payment)
	}
	s.dispatch(payment.MerchantID, models.EventPaymentMatched, payment)

	return &ClaimResult{Payment: payment, Matched: true}, nil
}

// Confirm is the merchant acknowledging that money actually arrived. On an
// initial payment it activates the pending subscription; on a renewal it
// extends the current period by one billing cycle.
func (s *Service) Confirm(merchantID, paymentID string) (*models.Payment, error) {
	payment, err := s.getOwned(merchantID, paymentID)
	if err != nil {
		return nil, err
	}

	now := time.Now().Unix()
	ok, err := s.payments.MarkConfirmed(paymentID, now)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrInvalidState
	}

	payment.Status = models.PaymentStatusConfirmed
	payment.ConfirmedAt = &now

	if payment.SubscriptionID != nil {
		s.applyConfirmedPayment(payment, now)
	}

	if s.notifier != nil {
		s.notifier.PaymentConfirmed(payment)
	}
	s.dispatch(payment.MerchantID, models.EventPaymentConfirmed, payment)

	return payment, nil
}

func (s *Service) Reject(merchantID, paymentID, reason string) (*models.Payment, error) {
	payment, err := s.getOwned(merchantID, paymentID)
	if err != nil {
		return nil, err
	}

	now := time.Now().Unix()
	ok, err := s.payments.MarkRejected(paymentID, reason, now)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrInvalidState
	}

	payment.Status = models.PaymentStatusRejected
	payment.RejectionReason = reason

	if s.notifier != nil {
		s.notifier.PaymentRejected(payment)
	}
	s.dispatch(payment.MerchantID, models.EventPaymentRejected, payment)

	return payment, nil
}

func (s *Service) applyConfirmedPayment(payment *models.Payment, now int64) {
	sub, err := s.subscriptions.GetByID(*payment.SubscriptionID)
	if err != nil || sub == nil {
		log.Error().Err(err).Str("payment_id", payment.ID).Msg("confirmed payment references missing subscription")
		return
	}

	switch payment.PaymentType {
	case models.PaymentTypeRenewal:
		newEnd := subscriptions.NextPeriodEnd(sub.CurrentPeriodEnd, sub.BillingCycle)
		ok, err := s.subscriptions.ExtendPeriod(sub.ID, newEnd, now)
		if err != nil {
			log.Error().Err(err).Str("subscription_id", sub.ID).Msg("failed to extend subscription period")
			return
		}
		if !ok {
			log.Warn().Str("subscription_id", sub.ID).Str("status", sub.Status).Msg("subscription not extendable, skipping renewal event")
			return
		}
		sub.CurrentPeriodEnd = newEnd
		sub.Status = models.SubscriptionStatusActive
		s.dispatch(sub.MerchantID, models.EventSubscriptionRenewed, sub)
	default:
		periodEnd := subscriptions.NextPeriodEnd(now, sub.BillingCycle)
		ok, err := s.subscriptions.Activate(sub.ID, now, periodEnd)
		if err != nil {
			log.Error().Err(err).Str("subscription_id", sub.ID).Msg("failed to activate subscription")
			return
		}
		if !ok {
			log.Warn().Str("subscription_id", sub.ID).Str("status", sub.Status).Msg("subscription not pending, skipping activation event")
			return
		}
		sub.Status = models.SubscriptionStatusActive
		sub.CurrentPeriodStart = now
		sub.CurrentPeriodEnd = periodEnd
		s.dispatch(sub.MerchantID, models.EventSubscriptionActivated, sub)
	}
}

// ExpirePending flips every stale pending payment to expired. Pure and
// idempotent; re-running it is harmless.
func (s *Service) ExpirePending(now time.Time) ([]string, error) {
	refs, err := s.payments.ExpireDue(now.Unix())
	if err != nil {
		return nil, err
	}
	if len(refs) > 0 {
		log.Info().Int("count", len(refs)).Msg("expired stale pending payments")
	}
	return refs, nil
}

type RenewalRun struct {
	Generated  int      `json:"generated"`
	References []string `json:"references"`
}

// GenerateRenewals creates renewal invoices for active subscriptions whose
// period ends inside the forward window. Subscriptions that already carry a
// pending renewal payment are skipped, which makes re-runs idempotent. The
// dedup check and the insert are not atomic across concurrent runs; the job
// is expected to run from a single scheduler.
func (s *Service) GenerateRenewals(now time.Time) (*RenewalRun, error) {
	windowEnd := now.Add(s.cfg.RenewalWindow)

	candidates, err := s.payments.ListRenewalCandidates(now.Unix(), windowEnd.Unix())
	if err != nil {
		return nil, err
	}

	run := &RenewalRun{}
	for _, c := range candidates {
		referenceCode, err := GenerateReferenceCode(PrefixRenewal, s.payments)
		if err != nil {
			log.Error().Err(err).Str("subscription_id", c.SubscriptionID).Msg("failed to generate renewal reference")
			continue
		}

		subscriptionID := c.SubscriptionID
		expiresAt := c.CurrentPeriodEnd
		payment := &models.Payment{
			ID:             "pay_" + uuid.New().String(),
			MerchantID:     c.MerchantID,
			SubscriptionID: &subscriptionID,
			ReferenceCode:  referenceCode,
			AmountCents:    c.AmountCents,
			Currency:       c.Currency,
			Status:         models.PaymentStatusPending,
			PaymentType:    models.PaymentTypeRenewal,
			CustomerPhone:  c.CustomerPhone,
			ExpiresAt:      &expiresAt,
			Metadata: map[string]string{
				"billing_cycle": c.BillingCycle,
				"period_end":    strconv.FormatInt(c.CurrentPeriodEnd, 10),
			},
		}

		if err := s.payments.Create(payment); err != nil {
			log.Error().Err(err).Str("subscription_id", c.SubscriptionID).Msg("failed to insert renewal payment")
			continue
		}

		run.Generated++
		run.References = append(run.References, referenceCode)
	}

	if run.Generated > 0 {
		log.Info().Int("generated", run.Generated).Msg("generated renewal payments")
	}
	return run, nil
}

func (s *Service) Get(merchantID, id string) (*models.Payment, error) {
	return s.getOwned(merchantID, id)
}

func (s *Service) List(merchantID, status string, limit, offset int) ([]*models.Payment, error) {
	return s.payments.List(merchantID, status, limit, offset)
}

// ListAll is the admin reconciliation view across merchants.
func (s *Service) ListAll(status string, limit, offset int) ([]*models.Payment, error) {
	return s.payments.List("", status, limit, offset)
}

func (s *Service) getOwned(merchantID, id string) (*models.Payment, error) {
	payment, err := s.payments.GetByID(id)
	if err != nil {
		return nil, err
	}
	if payment == nil || payment.MerchantID != merchantID {
		return nil, ErrNotFound
	}
	return payment, nil
}

func (s *Service) dispatch(merchantID, eventType string, data interface{}) {
	if s.dispatcher == nil {
		return
	}
	results := s.dispatcher.Dispatch(merchantID, eventType, data)
	for _, res := range results {
		if !res.Success {
			log.Warn().Str("webhook_id", res.WebhookID).Str("event", eventType).Str("error", res.Error).Msg("webhook delivery failed")
		}
	}
}
