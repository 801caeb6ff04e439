package repositories

import (
	"database/sql"
	"time"

	"payssd/internal/platform/models"
)

type SubscriptionRepository struct {
	db *sql.DB
}

func NewSubscriptionRepository(db *sql.DB) *SubscriptionRepository {
	return &SubscriptionRepository{db: db}
}

const subscriptionColumns = `id, merchant_id, product_id, price_id, customer_phone, status, billing_cycle,
	current_period_start, current_period_end, paused_at, resume_at, cancelled_at, cancellation_reason, created_at, updated_at`

func (r *SubscriptionRepository) Create(sub *models.Subscription) error {
	now := time.Now().Unix()
	sub.CreatedAt = now
	sub.UpdatedAt = now
	if sub.Status == "" {
		sub.Status = models.SubscriptionStatusPending
	}

	_, err := r.db.Exec(`
		INSERT INTO subscriptions (`+subscriptionColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, sub.ID, sub.MerchantID, sub.ProductID, sub.PriceID, sub.CustomerPhone, sub.Status, sub.BillingCycle,
		sub.CurrentPeriodStart, sub.CurrentPeriodEnd, sub.PausedAt, sub.ResumeAt, sub.CancelledAt,
		sub.CancellationReason, sub.CreatedAt, sub.UpdatedAt)
	return err
}

func (r *SubscriptionRepository) GetByID(id string) (*models.Subscription, error) {
	row := r.db.QueryRow(`SELECT `+subscriptionColumns+` FROM subscriptions WHERE id = ?`, id)
	return scanSubscription(row)
}

// GetLatestByProductAndPhone returns the newest subscription for a product and
// customer phone, used by the access check.
func (r *SubscriptionRepository) GetLatestByProductAndPhone(productID, phone string) (*models.Subscription, error) {
	row := r.db.QueryRow(`
		SELECT `+subscriptionColumns+` FROM subscriptions
		WHERE product_id = ? AND customer_phone = ?
		ORDER BY created_at DESC LIMIT 1
	`, productID, phone)
	return scanSubscription(row)
}

func (r *SubscriptionRepository) ListByMerchant(merchantID, status string, limit, offset int) ([]*models.Subscription, error) {
	query := `SELECT ` + subscriptionColumns + ` FROM subscriptions WHERE merchant_id = ?`
	args := []interface{}{merchantID}
	if status != "" {
		query += ` AND status = ?`
		args = append(args, status)
	}
	query += ` ORDER BY created_at DESC LIMIT ? OFFSET ?`
	args = append(args, limit, offset)

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var subs []*models.Subscription
	for rows.Next() {
		sub, err := scanSubscription(rows)
		if err != nil {
			return nil, err
		}
		subs = append(subs, sub)
	}
	return subs, rows.Err()
}

// The transition updates below are all conditional on the current status so a
// concurrent transition loses cleanly instead of clobbering state.

func (r *SubscriptionRepository) MarkPaused(id string, pausedAt int64, resumeAt *int64) (bool, error) {
	res, err := r.db.Exec(`
		UPDATE subscriptions SET status = ?, paused_at = ?, resume_at = ?, updated_at = ?
		WHERE id = ? AND status = ?
	`, models.SubscriptionStatusPaused, pausedAt, resumeAt, pausedAt, id, models.SubscriptionStatusActive)
	return oneRow(res, err)
}

func (r *SubscriptionRepository) MarkResumed(id string, now int64) (bool, error) {
	res, err := r.db.Exec(`
		UPDATE subscriptions SET status = ?, paused_at = NULL, resume_at = NULL, updated_at = ?
		WHERE id = ? AND status = ?
	`, models.SubscriptionStatusActive, now, id, models.SubscriptionStatusPaused)
	return oneRow(res, err)
}

func (r *SubscriptionRepository) MarkCancelled(id, reason string, now int64) (bool, error) {
	res, err := r.db.Exec(`
		UPDATE subscriptions SET status = ?, cancelled_at = ?, cancellation_reason = ?, updated_at = ?
		WHERE id = ? AND status != ?
	`, models.SubscriptionStatusCancelled, now, reason, now, id, models.SubscriptionStatusCancelled)
	return oneRow(res, err)
}

func (r *SubscriptionRepository) MarkReactivated(id string, periodStart, periodEnd int64) (bool, error) {
	res, err := r.db.Exec(`
		UPDATE subscriptions
		SET status = ?, current_period_start = ?, current_period_end = ?,
		    paused_at = NULL, resume_at = NULL, cancelled_at = NULL, cancellation_reason = '', updated_at = ?
		WHERE id = ? AND status IN (?, ?)
	`, models.SubscriptionStatusActive, periodStart, periodEnd, periodStart, id,
		models.SubscriptionStatusCancelled, models.SubscriptionStatusExpired)
	return oneRow(res, err)
}

// Activate moves a pending subscription to active with a fresh billing period,
// after the initial payment is confirmed.
func (r *SubscriptionRepository) Activate(id string, periodStart, periodEnd int64) (bool, error) {
	res, err := r.db.Exec(`
		UPDATE subscriptions SET status = ?, current_period_start = ?, current_period_end = ?, updated_at = ?
		WHERE id = ? AND status = ?
	`, models.SubscriptionStatusActive, periodStart, periodEnd, periodStart, id, models.SubscriptionStatusPending)
	return oneRow(res, err)
}

// ExtendPeriod pushes the current period end forward after a confirmed renewal.
func (r *SubscriptionRepository) ExtendPeriod(id string, newPeriodEnd, now int64) (bool, error) {
	res, err := r.db.Exec(`
		UPDATE subscriptions SET current_period_end = ?, status = ?, updated_at = ?
		WHERE id = ? AND status IN (?, ?)
	`, newPeriodEnd, models.SubscriptionStatusActive, now, id,
		models.SubscriptionStatusActive, models.SubscriptionStatusExpired)
	return oneRow(res, err)
}

func oneRow(res sql.Result, err error) (bool, error) {
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	return affected == 1, err
}

func scanSubscription(s interface {
	Scan(dest ...interface{}) error
}) (*models.Subscription, error) {
	sub := &models.Subscription{}
	var pausedAt, resumeAt, cancelledAt sql.NullInt64

	err := s.Scan(
		&sub.ID, &sub.MerchantID, &sub.ProductID, &sub.PriceID, &sub.CustomerPhone, &sub.Status,
		&sub.BillingCycle, &sub.CurrentPeriodStart, &sub.CurrentPeriodEnd, &pausedAt, &resumeAt,
		&cancelledAt, &sub.CancellationReason, &sub.CreatedAt, &sub.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	if pausedAt.Valid {
		sub.PausedAt = &pausedAt.Int64
	}
	if resumeAt.Valid {
		sub.ResumeAt = &resumeAt.Int64
	}
	if cancelledAt.Valid {
		sub.CancelledAt = &cancelledAt.Int64
	}

	return sub, nil
}
