// Package mail delivers workflow notifications. Delivery is best-effort:
// workflows log failures but rely only on their own step-retry budget.
package mail

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/triage-service/internal/config"
)

// SendResult reports whether the mail collaborator accepted the message.
type SendResult struct {
	Accepted  bool   `json:"accepted"`
	MessageID string `json:"message_id,omitempty"`
}

// Mailer sends a single message to one recipient.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) (SendResult, error)
}

// NewMailer returns an SMTP mailer when a host is configured and a
// log-only mailer otherwise, so development environments never need an
// SMTP server.
func NewMailer(cfg config.MailConfig, logger *zap.Logger) Mailer {
	if strings.TrimSpace(cfg.SMTPHost) == "" {
		logger.Warn("MAIL_SMTP_HOST not set; outbound mail will only be logged")
		return &logMailer{logger: logger, from: cfg.From}
	}
	return &smtpMailer{cfg: cfg, logger: logger}
}

type smtpMailer struct {
	cfg    config.MailConfig
	logger *zap.Logger
}

func (m *smtpMailer) Send(ctx context.Context, to, subject, body string) (SendResult, error) {
	if err := ctx.Err(); err != nil {
		return SendResult{}, err
	}

	messageID := uuid.NewString()
	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\nMessage-ID: <%s@triage>\r\n\r\n%s\r\n",
		m.cfg.From, to, subject, messageID, body)

	addr := m.cfg.SMTPHost + ":" + m.cfg.SMTPPort
	var auth smtp.Auth
	if m.cfg.Username != "" {
		auth = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.SMTPHost)
	}
	if err := smtp.SendMail(addr, auth, m.cfg.From, []string{to}, []byte(msg)); err != nil {
		return SendResult{}, fmt.Errorf("smtp send to %s: %w", to, err)
	}

	m.logger.Info("mail sent", zap.String("to", to), zap.String("subject", subject))
	return SendResult{Accepted: true, MessageID: messageID}, nil
}

// logMailer records sends without contacting any server.
type logMailer struct {
	logger *zap.Logger
	from   string
}

func (m *logMailer) Send(_ context.Context, to, subject, body string) (SendResult, error) {
	m.logger.Info("mail (log only)",
		zap.String("from", m.from),
		zap.String("to", to),
		zap.String("subject", subject),
		zap.Int("body_bytes", len(body)))
	return SendResult{Accepted: true, MessageID: uuid.NewString()}, nil
}
