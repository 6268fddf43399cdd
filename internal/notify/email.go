package notify

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/rkhanna/amulwatch/internal/config"
)

// EmailNotifier delivers alerts as plain-text email over SMTP with
// STARTTLS and plain authentication.
type EmailNotifier struct {
	cfg config.EmailConfig

	// sendFunc is swapped out in tests; defaults to smtp.SendMail.
	sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

// EmailOption configures an EmailNotifier.
type EmailOption func(*EmailNotifier)

// WithSendFunc overrides the SMTP send function for testing.
func WithSendFunc(f func(addr string, a smtp.Auth, from string, to []string, msg []byte) error) EmailOption {
	return func(e *EmailNotifier) {
		e.sendFunc = f
	}
}

// NewEmailNotifier creates an SMTP channel from the email configuration.
func NewEmailNotifier(cfg config.EmailConfig, opts ...EmailOption) *EmailNotifier {
	e := &EmailNotifier{
		cfg:      cfg,
		sendFunc: smtp.SendMail,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Name implements Notifier.
func (e *EmailNotifier) Name() string { return "email" }

// Send implements Notifier.
func (e *EmailNotifier) Send(_ context.Context, alert Alert) error {
	var auth smtp.Auth
	if e.cfg.Username != "" {
		auth = smtp.PlainAuth("", e.cfg.Username, e.cfg.Password, e.cfg.Host)
	}

	msg := buildMessage(e.cfg.From, e.cfg.To, alert)
	addr := fmt.Sprintf("%s:%d", e.cfg.Host, e.cfg.Port)

	if err := e.sendFunc(addr, auth, e.cfg.From, []string{e.cfg.To}, msg); err != nil {
		return fmt.Errorf("sending email via %s: %w", addr, err)
	}
	return nil
}

func buildMessage(from, to string, alert Alert) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: %s\r\n", alert.Subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(alert.Body)
	return []byte(b.String())
}
