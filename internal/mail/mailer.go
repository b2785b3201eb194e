// Package mail delivers contact-form messages through Resend.
package mail

import (
	"errors"
	"fmt"
	"html"

	"github.com/resend/resend-go/v3"
)

var ErrNotConfigured = errors.New("mail: no RESEND_API_KEY configured")

type Mailer struct {
	client *resend.Client
	from   string
	to     string
}

// New returns a mailer; a nil mailer (empty api key) is valid and reports
// ErrNotConfigured on send so the contact page can degrade gracefully.
func New(apiKey, from, to string) *Mailer {
	if apiKey == "" {
		return nil
	}
	return &Mailer{client: resend.NewClient(apiKey), from: from, to: to}
}

// SendContact forwards one storefront contact message.
func (m *Mailer) SendContact(name, email, subject, message string) error {
	if m == nil {
		return ErrNotConfigured
	}
	body := fmt.Sprintf(
		"<p><b>From:</b> %s &lt;%s&gt;</p><p>%s</p>",
		html.EscapeString(name), html.EscapeString(email), html.EscapeString(message),
	)
	params := &resend.SendEmailRequest{
		From:    m.from,
		To:      []string{m.to},
		ReplyTo: email,
		Subject: "[contact] " + subject,
		Html:    body,
	}
	_, err := m.client.Emails.Send(params)
	return err
}
