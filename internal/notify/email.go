package notify

import (
	"fmt"
	"net/smtp"

	"payssd/internal/platform/config"
)

// EmailClient sends plain HTML mail over SMTP. It is constructed once at
// startup from config and passed into the Notifier explicitly.
type EmailClient struct {
	cfg config.SMTPConfig
}

func NewEmailClient(cfg config.SMTPConfig) *EmailClient {
	if cfg.Host == "" {
		return nil
	}
	return &EmailClient{cfg: cfg}
}

func (c *EmailClient) Send(to, subject, body string) error {
	var auth smtp.Auth
	if c.cfg.Username != "" && c.cfg.Password != "" {
		auth = smtp.PlainAuth("", c.cfg.Username, c.cfg.Password, c.cfg.Host)
	}

	from := c.cfg.FromAddress
	addr := fmt.Sprintf("%s:%d", c.cfg.Host, c.cfg.Port)

	msg := []byte(
		fmt.Sprintf("From: %s <%s>\r\nTo: %s\r\nSubject: %s\r\n", c.cfg.FromName, from, to, subject) +
			"MIME-Version: 1.0\r\n" +
			"Content-Type: text/html; charset=UTF-8\r\n\r\n" +
			body,
	)

	return smtp.SendMail(addr, auth, from, []string{to}, msg)
}
