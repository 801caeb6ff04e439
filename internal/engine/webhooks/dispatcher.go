package webhooks

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"payssd/internal/platform/models"
	"payssd/internal/platform/repositories"
)

const maxResponseBody = 4096

type Result struct {
	WebhookID string `json:"webhook_id"`
	Success   bool   `json:"success"`
	Status    int    `json:"status,omitempty"`
	Error     string `json:"error,omitempty"`
}

type Dispatcher struct {
	repo   *repositories.WebhookRepository
	client *http.Client
}

func NewDispatcher(repo *repositories.WebhookRepository, timeout time.Duration) *Dispatcher {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Dispatcher{
		repo:   repo,
		client: &http.Client{Timeout: timeout},
	}
}

// Dispatch delivers an event to every active webhook the merchant has
// subscribed to this event type. Deliveries run concurrently and all outcomes
// are awaited; a failure at one endpoint never blocks the others. There is no
// retry and no ordering guarantee across webhooks.
func (d *Dispatcher) Dispatch(merchantID, eventType string, data interface{}) []Result {
	webhooks, err := d.repo.GetActiveByEvent(merchantID, eventType)
	if err != nil {
		log.Error().Err(err).Str("event", eventType).Msg("webhook lookup failed")
		return nil
	}
	if len(webhooks) == 0 {
		return nil
	}

	event := models.WebhookEvent{
		Event:     eventType,
		Timestamp: time.Now().Unix(),
		Data:      data,
	}
	payload, err := json.Marshal(event)
	if err != nil {
		log.Error().Err(err).Str("event", eventType).Msg("failed to encode webhook payload")
		return nil
	}

	results := make([]Result, len(webhooks))
	var wg sync.WaitGroup
	for i, webhook := range webhooks {
		wg.Add(1)
		go func(i int, webhook *models.Webhook) {
			defer wg.Done()
			results[i] = d.deliver(webhook, event.Timestamp, eventType, payload)
		}(i, webhook)
	}
	wg.Wait()

	return results
}

func (d *Dispatcher) deliver(webhook *models.Webhook, timestamp int64, eventType string, payload []byte) Result {
	delivery := &models.WebhookDelivery{
		WebhookID: webhook.ID,
		EventType: eventType,
		Payload:   string(payload),
	}

	req, err := http.NewRequest(http.MethodPost, webhook.URL, bytes.NewReader(payload))
	if err != nil {
		delivery.Error = err.Error()
		d.logDelivery(delivery)
		return Result{WebhookID: webhook.ID, Success: false, Error: err.Error()}
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Losetify-Signature", Sign(webhook.Secret, timestamp, payload))
	req.Header.Set("X-Losetify-Timestamp", strconv.FormatInt(timestamp, 10))
	req.Header.Set("X-Losetify-Event", eventType)

	resp, err := d.client.Do(req)
	if err != nil {
		// Transport failure: delivered_at stays null.
		delivery.Error = err.Error()
		d.logDelivery(delivery)
		return Result{WebhookID: webhook.ID, Success: false, Error: err.Error()}
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	now := time.Now().Unix()
	status := resp.StatusCode

	delivery.ResponseStatus = &status
	delivery.ResponseBody = string(body)
	delivery.DeliveredAt = &now
	d.logDelivery(delivery)

	return Result{WebhookID: webhook.ID, Success: status < 400, Status: status}
}

func (d *Dispatcher) logDelivery(delivery *models.WebhookDelivery) {
	if err := d.repo.CreateDelivery(delivery); err != nil {
		log.Error().Err(err).Str("webhook_id", delivery.WebhookID).Msg("failed to record webhook delivery")
	}
}
