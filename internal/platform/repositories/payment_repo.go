package repositories

import (
	"database/sql"
	"encoding/json"
	"time"

	"payssd/internal/platform/models"
)

type PaymentRepository struct {
	db *sql.DB
}

func NewPaymentRepository(db *sql.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

const paymentColumns = `id, merchant_id, subscription_id, reference_code, amount_cents, currency, status, payment_type,
	customer_phone, transaction_id, proof_url, metadata, rejection_reason, matched_at, confirmed_at, expires_at, created_at, updated_at`

func (r *PaymentRepository) Create(payment *models.Payment) error {
	now := time.Now().Unix()
	payment.CreatedAt = now
	payment.UpdatedAt = now
	if payment.Status == "" {
		payment.Status = models.PaymentStatusPending
	}

	metadata := payment.Metadata
	if metadata == nil {
		metadata = map[string]string{}
	}
	metaJSON, err := json.Marshal(metadata)
	if err != nil {
		return err
	}

	_, err = r.db.Exec(`
		INSERT INTO payments (`+paymentColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, payment.ID, payment.MerchantID, payment.SubscriptionID, payment.ReferenceCode, payment.AmountCents,
		payment.Currency, payment.Status, payment.PaymentType, payment.CustomerPhone, payment.TransactionID,
		payment.ProofURL, string(metaJSON), payment.RejectionReason, payment.MatchedAt, payment.ConfirmedAt,
		payment.ExpiresAt, payment.CreatedAt, payment.UpdatedAt)
	return err
}

func (r *PaymentRepository) GetByID(id string) (*models.Payment, error) {
	row := r.db.QueryRow(`SELECT `+paymentColumns+` FROM payments WHERE id = ?`, id)
	return scanPayment(row)
}

func (r *PaymentRepository) GetByReference(referenceCode string) (*models.Payment, error) {
	row := r.db.QueryRow(`SELECT `+paymentColumns+` FROM payments WHERE reference_code = ?`, referenceCode)
	return scanPayment(row)
}

func (r *PaymentRepository) ExistsByReference(referenceCode string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(`SELECT EXISTS(SELECT 1 FROM payments WHERE reference_code = ?)`, referenceCode).Scan(&exists)
	return exists, err
}

func (r *PaymentRepository) List(merchantID, status string, limit, offset int) ([]*models.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE 1=1`
	args := []interface{}{}
	if merchantID != "" {
		query += ` AND merchant_id = ?`
		args = append(args, merchantID)
	}
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

	var payments []*models.Payment
	for rows.Next() {
		payment, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		payments = append(payments, payment)
	}
	return payments, rows.Err()
}

// MarkMatched records a customer payment claim. The update is scoped to rows
// still in pending status so a duplicate claim after the row has transitioned
// affects zero rows; the status column doubles as the lock.
func (r *PaymentRepository) MarkMatched(referenceCode, transactionID, proofURL string, now int64) (bool, error) {
	res, err := r.db.Exec(`
		UPDATE payments
		SET status = ?, transaction_id = ?, proof_url = ?, matched_at = ?, updated_at = ?
		WHERE reference_code = ? AND status = ?
	`, models.PaymentStatusMatched, transactionID, proofURL, now, now, referenceCode, models.PaymentStatusPending)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	return affected == 1, err
}

// MarkConfirmed transitions a pending or matched payment to confirmed.
func (r *PaymentRepository) MarkConfirmed(id string, now int64) (bool, error) {
	res, err := r.db.Exec(`
		UPDATE payments
		SET status = ?, confirmed_at = ?, updated_at = ?
		WHERE id = ? AND status IN (?, ?)
	`, models.PaymentStatusConfirmed, now, now, id, models.PaymentStatusPending, models.PaymentStatusMatched)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	return affected == 1, err
}

func (r *PaymentRepository) MarkRejected(id, reason string, now int64) (bool, error) {
	res, err := r.db.Exec(`
		UPDATE payments
		SET status = ?, rejection_reason = ?, updated_at = ?
		WHERE id = ? AND status IN (?, ?)
	`, models.PaymentStatusRejected, reason, now, id, models.PaymentStatusPending, models.PaymentStatusMatched)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	return affected == 1, err
}

// ExpireDue flips every stale pending payment to expired and returns the
// affected reference codes. Select and update share the same predicate inside
// one transaction.
func (r *PaymentRepository) ExpireDue(now int64) ([]string, error) {
	tx, err := r.db.Begin()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	rows, err := tx.Query(`
		SELECT reference_code FROM payments
		WHERE status = ? AND expires_at IS NOT NULL AND expires_at < ?
	`, models.PaymentStatusPending, now)
	if err != nil {
		return nil, err
	}

	var refs []string
	for rows.Next() {
		var ref string
		if err := rows.Scan(&ref); err != nil {
			rows.Close()
			return nil, err
		}
		refs = append(refs, ref)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if len(refs) == 0 {
		return nil, tx.Commit()
	}

	_, err = tx.Exec(`
		UPDATE payments SET status = ?, updated_at = ?
		WHERE status = ? AND expires_at IS NOT NULL AND expires_at < ?
	`, models.PaymentStatusExpired, now, models.PaymentStatusPending, now)
	if err != nil {
		return nil, err
	}

	return refs, tx.Commit()
}

// RenewalCandidate is an active subscription approaching its period end with
// no pending renewal payment yet.
type RenewalCandidate struct {
	SubscriptionID   string
	MerchantID       string
	CustomerPhone    string
	BillingCycle     string
	CurrentPeriodEnd int64
	AmountCents      int64
	Currency         string
}

func (r *PaymentRepository) ListRenewalCandidates(now, windowEnd int64) ([]*RenewalCandidate, error) {
	rows, err := r.db.Query(`
		SELECT s.id, s.merchant_id, s.customer_phone, s.billing_cycle, s.current_period_end, p.amount_cents, p.currency
		FROM subscriptions s
		JOIN prices p ON p.id = s.price_id
		WHERE s.status = ?
		  AND s.current_period_end > ? AND s.current_period_end <= ?
		  AND s.id NOT IN (
			SELECT subscription_id FROM payments
			WHERE subscription_id IS NOT NULL AND payment_type = ? AND status = ?
		  )
	`, models.SubscriptionStatusActive, now, windowEnd, models.PaymentTypeRenewal, models.PaymentStatusPending)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var candidates []*RenewalCandidate
	for rows.Next() {
		c := &RenewalCandidate{}
		if err := rows.Scan(&c.SubscriptionID, &c.MerchantID, &c.CustomerPhone, &c.BillingCycle, &c.CurrentPeriodEnd, &c.AmountCents, &c.Currency); err != nil {
			return nil, err
		}
		candidates = append(candidates, c)
	}
	return candidates, rows.Err()
}

func scanPayment(s interface {
	Scan(dest ...interface{}) error
}) (*models.Payment, error) {
	payment := &models.Payment{}
	var subscriptionID sql.NullString
	var metaStr string
	var matchedAt, confirmedAt, expiresAt sql.NullInt64

	err := s.Scan(
		&payment.ID, &payment.MerchantID, &subscriptionID, &payment.ReferenceCode, &payment.AmountCents,
		&payment.Currency, &payment.Status, &payment.PaymentType, &payment.CustomerPhone, &payment.TransactionID,
		&payment.ProofURL, &metaStr, &payment.RejectionReason, &matchedAt, &confirmedAt, &expiresAt,
		&payment.CreatedAt, &payment.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	if subscriptionID.Valid {
		payment.SubscriptionID = &subscriptionID.String
	}
	if matchedAt.Valid {
		payment.MatchedAt = &matchedAt.Int64
	}
	if confirmedAt.Valid {
		payment.ConfirmedAt = &confirmedAt.Int64
	}
	if expiresAt.Valid {
		payment.ExpiresAt = &expiresAt.Int64
	}
	if metaStr != "" {
		json.Unmarshal([]byte(metaStr), &payment.Metadata)
	}

	return payment, nil
}
