// Package email sends transactional mail through SendGrid.
package email

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

var (
	ErrKeyMissing           = errors.New("sendgrid api key is not set")
	ErrInvalidMailSender    = errors.New("invalid mail sender")
	ErrInvalidMailRecipient = errors.New("invalid mail recipient")
)

func Send(ctx context.Context, info *EmailInfo) error {
	apiKey := os.Getenv("SENDGRID_API_KEY")
	if apiKey == "" {
		return ErrKeyMissing
	}

	if info.FromEmail == "" {
		return ErrInvalidMailSender
	}
	if info.ToEmail == "" {
		return ErrInvalidMailRecipient
	}
	if info.FromName == "" {
		info.FromName = info.FromEmail
	}
	if info.ToName == "" {
		info.ToName = info.ToEmail
	}

	from := mail.NewEmail(info.FromName, info.FromEmail)
	to := mail.NewEmail(info.ToName, info.ToEmail)
	message := mail.NewSingleEmail(from, info.Subject, to, "", info.HTMLBody)

	resp, err := sendgrid.NewSendClient(apiKey).SendWithContext(ctx, message)
	if err != nil {
		return fmt.Errorf("send email: %w", err)
	}

	slog.Debug("email sent", "to", info.ToEmail, "status", resp.StatusCode, "messageId", resp.Headers["X-Message-Id"])
	return nil
}
