package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/resend/resend-go/v2"
)

type EmailService struct {
	client    *resend.Client
	fromEmail string
	isDev     bool
	clientURL string
	appName   string
}

// NewEmailService returns a sender backed by Resend. In development emails are
// only logged.
func NewEmailService(apiKey, fromEmail, clientURL, appName string, isDev bool) *EmailService {
	var client *resend.Client
	if apiKey != "" && !isDev {
		client = resend.NewClient(apiKey)
	}

	return &EmailService{
		client:    client,
		fromEmail: fromEmail,
		isDev:     isDev,
		clientURL: clientURL,
		appName:   appName,
	}
}

func (s *EmailService) SendWelcomeEmail(email, name string) error {
	tasksURL := fmt.Sprintf("%s/tasks", s.clientURL)
	subject, body := welcomeEmailTemplate(name, tasksURL, s.appName)
	return s.send("welcome", email, subject, body)
}

func (s *EmailService) SendPremiumActivatedEmail(email, name string) error {
	tasksURL := fmt.Sprintf("%s/tasks", s.clientURL)
	subject, body := premiumActivatedEmailTemplate(name, tasksURL, s.appName)
	return s.send("premium_activated", email, subject, body)
}

func (s *EmailService) SendExportReadyEmail(email, name, downloadURL string) error {
	subject, body := exportReadyEmailTemplate(name, downloadURL, s.appName)
	return s.send("export_ready", email, subject, body)
}

func (s *EmailService) send(kind, to, subject, body string) error {
	if s.isDev {
		slog.Info("email sent (dev mode)", "type", kind, "to", to, "subject", subject)
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

	_, err := s.client.Emails.SendWithContext(context.Background(), params)
	if err == nil {
		slog.Info("email sent", "type", kind, "to", to)
	}
	return err
}
