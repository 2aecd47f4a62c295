package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/resend/resend-go/v2"
)

// EmailService sends transactional mail through Resend. In development, or
// when no API key is configured, messages are logged instead of sent so the
// auth flows stay testable without credentials.
type EmailService struct {
	client       *resend.Client
	fromEmail    string
	supportEmail string
	appName      string
	isDev        bool
}

func NewEmailService(apiKey, fromEmail, supportEmail, appName string, isDev bool) *EmailService {
	var client *resend.Client
	if apiKey != "" && !isDev {
		client = resend.NewClient(apiKey)
	}

	return &EmailService{
		client:       client,
		fromEmail:    fromEmail,
		supportEmail: supportEmail,
		appName:      appName,
		isDev:        isDev,
	}
}

// SendOTPEmail delivers a one-time code. Title and description come from
// the caller so verification and recovery mails can differ without the
// email layer knowing about token roles.
func (s *EmailService) SendOTPEmail(email, code, title, description string) error {
	subject, body := otpEmailTemplate(code, title, description, s.appName)
	return s.send(email, subject, body, "otp")
}

func (s *EmailService) SendWelcomeEmail(email, name string) error {
	subject, body := welcomeEmailTemplate(name, s.appName, s.supportEmail)
	return s.send(email, subject, body, "welcome")
}

func (s *EmailService) send(to, subject, body, kind string) error {
	if s.isDev {
		slog.Info("email sent (dev mode)", "type", kind, "to", to, "subject", subject, "body", body)
		return nil
	}

	if s.client == nil {
		return fmt.Errorf("email service not configured (missing RESEND_API_KEY)")
	}

	params := &resend.SendEmailRequest{
		From:    s.fromEmail,
		To:      []string{to},
		Subject: subject,
		Text:    body,
	}

	// Outbound mail deliberately uses a background context: a client
	// disconnect must not cancel a send for a mutation that already
	// committed.
	_, err := s.client.Emails.SendWithContext(context.Background(), params)
	if err == nil {
		slog.Info("email sent", "type", kind, "to", to)
	}
	return err
}
