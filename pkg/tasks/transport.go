package tasks

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/shelfwise/shelfwise/pkg/config"
)

// EmailSender delivers a single message and reports the outcome
// synchronously. The retry policy is applied by the caller, not here.
type EmailSender interface {
	Send(ctx context.Context, to, subject, body string) error
}

// SMTPSender sends mail through a plain SMTP relay.
type SMTPSender struct {
	config config.SMTPConfig
}

// NewSMTPSender creates a new SMTP sender
func NewSMTPSender(cfg config.SMTPConfig) *SMTPSender {
	return &SMTPSender{config: cfg}
}

// Send delivers one message. Authentication is used only when a username
// is configured; otherwise the relay is assumed to accept unauthenticated
// submission (local relays, test servers).
func (s *SMTPSender) Send(ctx context.Context, to, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("send aborted: %w", err)
	}

	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)

	var auth smtp.Auth
	if s.config.Username != "" {
		auth = smtp.PlainAuth("", s.config.Username, s.config.Password, s.config.Host)
	}

	msg := buildMessage(s.config.From, to, subject, body)

	if err := smtp.SendMail(addr, auth, s.config.From, []string{to}, msg); err != nil {
		return fmt.Errorf("smtp send to %s: %w", to, err)
	}

	return nil
}

// buildMessage assembles the wire form of the message with CRLF line
// endings as SMTP requires.
func buildMessage(from, to, subject, body string) []byte {
	var b strings.Builder
	b.WriteString("From: " + from + "\r\n")
	b.WriteString("To: " + to + "\r\n")
	b.WriteString("Subject: " + subject + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=\"utf-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(body)
	b.WriteString("\r\n")
	return []byte(b.String())
}
