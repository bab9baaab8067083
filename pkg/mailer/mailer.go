package mailer

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"go.uber.org/zap"

	"github.com/kaizendev/post-registration-api/pkg/config"
)

// Message is a templated outbound email.
type Message struct {
	Template string                 `json:"template"`
	To       string                 `json:"to"`
	Data     map[string]interface{} `json:"data"`
}

// Notifier delivers templated messages. Implementations must treat delivery
// as best effort; callers never block business flows on the outcome.
type Notifier interface {
	Send(ctx context.Context, msg Message) error
}

// SMTPMailer renders templates and delivers them over SMTP.
type SMTPMailer struct {
	cfg    config.SMTPConfig
	logger *zap.Logger
}

// NewSMTPMailer builds an SMTP-backed notifier.
func NewSMTPMailer(cfg config.SMTPConfig, logger *zap.Logger) *SMTPMailer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SMTPMailer{cfg: cfg, logger: logger}
}

// Send renders the template and pushes the message to the SMTP relay.
func (m *SMTPMailer) Send(ctx context.Context, msg Message) error {
	if msg.To == "" {
		return fmt.Errorf("message has no recipient")
	}

	subject, body, err := Render(msg.Template, msg.Data)
	if err != nil {
		return fmt.Errorf("render template %s: %w", msg.Template, err)
	}

	var payload strings.Builder
	payload.WriteString("From: " + m.cfg.From + "\r\n")
	payload.WriteString("To: " + msg.To + "\r\n")
	payload.WriteString("Subject: " + subject + "\r\n")
	payload.WriteString("MIME-Version: 1.0\r\nContent-Type: text/plain; charset=UTF-8\r\n\r\n")
	payload.WriteString(body)

	addr := fmt.Sprintf("%s:%d", m.cfg.Host, m.cfg.Port)
	var auth smtp.Auth
	if m.cfg.Username != "" {
		auth = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	}

	if err := smtp.SendMail(addr, auth, m.cfg.From, []string{msg.To}, []byte(payload.String())); err != nil {
		return fmt.Errorf("send mail to %s: %w", msg.To, err)
	}

	m.logger.Debug("mail sent", zap.String("template", msg.Template), zap.String("to", msg.To))
	return nil
}
