package notify

import (
	"context"
	"fmt"
	"log/slog"
	"net/smtp"

	"github.com/taskloop/taskloop/pkg/config"
)

// Mailer delivers one-time passcodes. A nil Mailer means no provider is
// configured; callers report that as a distinct service-unavailable condition
// rather than pretending the code went out.
type Mailer interface {
	SendPasswordResetCode(ctx context.Context, email, code string) error
}

// SMTPMailer sends mail through a plain SMTP relay.
type SMTPMailer struct {
	cfg *config.SMTPConfig
	log *slog.Logger
}

// NewSMTPMailer returns a nil Mailer when no relay is configured.
func NewSMTPMailer(cfg *config.SMTPConfig, log *slog.Logger) Mailer {
	if !cfg.Configured() {
		return nil
	}
	return &SMTPMailer{cfg: cfg, log: log}
}

func (m *SMTPMailer) SendPasswordResetCode(ctx context.Context, email, code string) error {
	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: Your TaskLoop reset code\r\n\r\n"+
		"Your password reset code is %s. It expires in 10 minutes.\r\n",
		m.cfg.From, email, code)

	var auth smtp.Auth
	if m.cfg.Username != "" {
		auth = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	}

	if err := smtp.SendMail(m.cfg.Addr(), auth, m.cfg.From, []string{email}, []byte(msg)); err != nil {
		return fmt.Errorf("sending reset code: %w", err)
	}

	m.log.Info("sent password reset code", "email", email)
	return nil
}
