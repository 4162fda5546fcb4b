package report

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	lifecycle "github.com/goliatone/go-lifecycle"
)

// Message is one outbound email.
type Message struct {
	To      string
	Subject string
	Body    string
	HTML    string
}

// Mailer sends messages. Production paths simulate delivery; the SMTP
// implementation exists but nothing wires it by default.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// SimulatedMailer logs a preview instead of dispatching. FailWith makes
// every send fail, for exercising the retry path in tests and demos.
type SimulatedMailer struct {
	Logger   lifecycle.Logger
	FailWith error
}

// Send logs the message preview and returns the configured failure, if any.
func (m *SimulatedMailer) Send(ctx context.Context, msg Message) error {
	logger := lifecycle.NormalizeLogger(m.Logger).WithContext(ctx)
	if m.FailWith != nil {
		logger.Warn("simulated send to %s failed: %v", msg.To, m.FailWith)
		return m.FailWith
	}
	preview := msg.Body
	if preview == "" {
		preview = msg.HTML
	}
	if len(preview) > 120 {
		preview = preview[:120] + "..."
	}
	logger.Info("simulated email to %s subject=%q preview=%q", msg.To, msg.Subject, preview)
	return nil
}

// SMTPMailer delivers over a real SMTP endpoint.
type SMTPMailer struct {
	Addr string
	From string
	Auth smtp.Auth
}

// Send dispatches the message through net/smtp.
func (m *SMTPMailer) Send(_ context.Context, msg Message) error {
	if strings.TrimSpace(m.Addr) == "" {
		return lifecycle.NewError(lifecycle.ErrExternalCall, "smtp address not configured", nil, nil)
	}
	body := msg.Body
	contentType := "text/plain; charset=utf-8"
	if msg.HTML != "" {
		body = msg.HTML
		contentType = "text/html; charset=utf-8"
	}
	payload := fmt.Sprintf(
		"From: %s\r\nTo: %s\r\nSubject: %s\r\nContent-Type: %s\r\n\r\n%s",
		m.From, msg.To, msg.Subject, contentType, body,
	)
	if err := smtp.SendMail(m.Addr, m.Auth, m.From, []string{msg.To}, []byte(payload)); err != nil {
		return lifecycle.NewError(lifecycle.ErrExternalCall, "smtp send failed", err, map[string]any{
			"recipient": msg.To,
		})
	}
	return nil
}
