package notify

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"payssd/internal/platform/config"
)

// SMSClient is thin glue over an HTTP SMS gateway (the kind used for mobile
// money confirmations in East Africa).
type SMSClient struct {
	cfg    config.SMSConfig
	client *http.Client
}

func NewSMSClient(cfg config.SMSConfig) *SMSClient {
	if cfg.Endpoint == "" {
		return nil
	}
	return &SMSClient{
		cfg:    cfg,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *SMSClient) Send(phone, message string) error {
	payload, err := json.Marshal(map[string]string{
		"to":        phone,
		"message":   message,
		"sender_id": c.cfg.SenderID,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequest(http.MethodPost, c.cfg.Endpoint, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("sms gateway returned HTTP %d", resp.StatusCode)
	}
	return nil
}
