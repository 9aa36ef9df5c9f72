// Package mailer provides a SendGrid-backed implementation of the
// identity.Mailer collaborator.
package mailer

import (
	"context"
	"fmt"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	identity "github.com/goliatone/go-identity"
)

// SendGrid dispatches messages through the SendGrid v3 API.
type SendGrid struct {
	client *sendgrid.Client
}

func NewSendGrid(apiKey string) *SendGrid {
	return &SendGrid{
		client: sendgrid.NewSendClient(apiKey),
	}
}

func (s *SendGrid) Send(ctx context.Context, msg identity.Message) error {
	from := mail.NewEmail("", msg.From)
	to := mail.NewEmail("", msg.To)

	email := mail.NewSingleEmail(from, msg.Subject, to, msg.Text, msg.HTML)

	resp, err := s.client.SendWithContext(ctx, email)
	if err != nil {
		return fmt.Errorf("failed to send %q to %s: %w", msg.Subject, msg.To, err)
	}

	if resp.StatusCode >= 400 {
		return fmt.Errorf("send %q to %s rejected with status %d: %s",
			msg.Subject, msg.To, resp.StatusCode, resp.Body)
	}

	return nil
}

var _ identity.Mailer = (*SendGrid)(nil)
