// Package email sends transactional mail. Sends are best-effort: callers
// log failures and carry on, an undelivered email never fails an order.
package email

import "context"

// Email represents an email message to be sent.
type Email struct {
	To       []string
	From     string
	Subject  string
	TextBody string
	HTMLBody string
}

// Sender defines the interface for sending emails.
// Implementations can use SMTP, Postmark, Resend, SES, etc.
type Sender interface {
	// Send sends an email message.
	// Returns the message ID from the email provider (if available).
	Send(ctx context.Context, email *Email) (string, error)
}

// NopSender discards all mail. Useful in development and tests.
type NopSender struct{}

func (NopSender) Send(ctx context.Context, email *Email) (string, error) {
	return "nop", nil
}
