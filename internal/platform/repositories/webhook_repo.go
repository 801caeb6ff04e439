package repositories

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"payssd/internal/platform/models"
)

type WebhookRepository struct {
	db *sql.DB
}

func NewWebhookRepository(db *sql.DB) *WebhookRepository {
	return &WebhookRepository{db: db}
}

func (r *WebhookRepository) Create(webhook *models.Webhook) error {
	webhook.ID = "wh_" + uuid.New().String()
	now := time.Now().Unix()
	webhook.CreatedAt = now
	webhook.UpdatedAt = now

	eventsJSON, err := json.Marshal(webhook.Events)
	if err != nil {
		return err
	}

	_, err = r.db.Exec(`
		INSERT INTO webhooks (id, merchant_id, url, secret, events, is_active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, webhook.ID, webhook.MerchantID, webhook.URL, webhook.Secret, string(eventsJSON), webhook.IsActive, webhook.CreatedAt, webhook.UpdatedAt)
	return err
}

func (r *WebhookRepository) GetByID(merchantID, id string) (*models.Webhook, error) {
	row := r.db.QueryRow(`
		SELECT id, merchant_id, url, secret, events, is_active, created_at, updated_at
		FROM webhooks WHERE id = ? AND merchant_id = ?
	`, id, merchantID)
	return scanWebhook(row)
}

func (r *WebhookRepository) ListByMerchant(merchantID string) ([]*models.Webhook, error) {
	rows, err := r.db.Query(`
		SELECT id, merchant_id, url, secret, events, is_active, created_at, updated_at
		FROM webhooks WHERE merchant_id = ? ORDER BY created_at DESC
	`, merchantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var webhooks []*models.Webhook
	for rows.Next() {
		webhook, err := scanWebhook(rows)
		if err != nil {
			return nil, err
		}
		webhooks = append(webhooks, webhook)
	}
	return webhooks, rows.Err()
}

// GetActiveByEvent returns the merchant's active webhooks subscribed to the
// event type. The events column is a JSON array, so matching happens in app
// code; webhook counts per merchant are small.
func (r *WebhookRepository) GetActiveByEvent(merchantID, eventType string) ([]*models.Webhook, error) {
	rows, err := r.db.Query(`
		SELECT id, merchant_id, url, secret, events, is_active, created_at, updated_at
		FROM webhooks WHERE merchant_id = ? AND is_active = 1
	`, merchantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var matched []*models.Webhook
	for rows.Next() {
		webhook, err := scanWebhook(rows)
		if err != nil {
			return nil, err
		}
		for _, e := range webhook.Events {
			if e == eventType {
				matched = append(matched, webhook)
				break
			}
		}
	}
	return matched, rows.Err()
}

func (r *WebhookRepository) Update(webhook *models.Webhook) error {
	webhook.UpdatedAt = time.Now().Unix()

	eventsJSON, err := json.Marshal(webhook.Events)
	if err != nil {
		return err
	}

	_, err = r.db.Exec(`
		UPDATE webhooks SET url = ?, secret = ?, events = ?, is_active = ?, updated_at = ?
		WHERE id = ? AND merchant_id = ?
	`, webhook.URL, webhook.Secret, string(eventsJSON), webhook.IsActive, webhook.UpdatedAt, webhook.ID, webhook.MerchantID)
	return err
}

func (r *WebhookRepository) Delete(merchantID, id string) error {
	_, err := r.db.Exec(`DELETE FROM webhooks WHERE id = ? AND merchant_id = ?`, id, merchantID)
	return err
}

// CreateDelivery appends a delivery log row. Rows are never updated.
func (r *WebhookRepository) CreateDelivery(delivery *models.WebhookDelivery) error {
	delivery.ID = "whd_" + uuid.New().String()
	delivery.CreatedAt = time.Now().Unix()

	_, err := r.db.Exec(`
		INSERT INTO webhook_deliveries (id, webhook_id, event_type, payload, response_status, response_body, error, delivered_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, delivery.ID, delivery.WebhookID, delivery.EventType, delivery.Payload, delivery.ResponseStatus,
		delivery.ResponseBody, delivery.Error, delivery.DeliveredAt, delivery.CreatedAt)
	return err
}

func (r *WebhookRepository) ListDeliveries(webhookID string, limit, offset int) ([]*models.WebhookDelivery, error) {
	rows, err := r.db.Query(`
		SELECT id, webhook_id, event_type, payload, response_status, response_body, error, delivered_at, created_at
		FROM webhook_deliveries WHERE webhook_id = ?
		ORDER BY created_at DESC LIMIT ? OFFSET ?
	`, webhookID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var deliveries []*models.WebhookDelivery
	for rows.Next() {
		d := &models.WebhookDelivery{}
		var responseStatus sql.NullInt64
		var deliveredAt sql.NullInt64

		if err := rows.Scan(&d.ID, &d.WebhookID, &d.EventType, &d.Payload, &responseStatus, &d.ResponseBody, &d.Error, &deliveredAt, &d.CreatedAt); err != nil {
			return nil, err
		}
		if responseStatus.Valid {
			status := int(responseStatus.Int64)
			d.ResponseStatus = &status
		}
		if deliveredAt.Valid {
			d.DeliveredAt = &deliveredAt.Int64
		}
		deliveries = append(deliveries, d)
	}
	return deliveries, rows.Err()
}

func scanWebhook(s interface {
	Scan(dest ...interface{}) error
}) (*models.Webhook, error) {
	webhook := &models.Webhook{}
	var eventsStr string

	err := s.Scan(&webhook.ID, &webhook.MerchantID, &webhook.URL, &webhook.Secret, &eventsStr, &webhook.IsActive, &webhook.CreatedAt, &webhook.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	json.Unmarshal([]byte(eventsStr), &webhook.Events)
	return webhook, nil
}
