package email

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"

	"github.com/resend/resend-go/v3"

	"travel-expense/internal/config"
)

//go:embed templates/*.html
var templateFS embed.FS

type Service interface {
	SendWelcomeEmail(ctx context.Context, toEmail, fullName, role string) error
	SendNotificationEmail(ctx context.Context, toEmail, recipientName, subject, message string) error
}

type sender interface {
	SendWithContext(ctx context.Context, params *resend.SendEmailRequest) (*resend.SendEmailResponse, error)
}

type service struct {
	emails sender
	config *config.Config
	tmpl   *template.Template
}

func NewService(cfg *config.Config) (Service, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse email templates: %w", err)
	}

	client := resend.NewClient(cfg.ResendAPIKey)
	return &service{
		emails: client.Emails,
		config: cfg,
		tmpl:   tmpl,
	}, nil
}

func (s *service) sendEmail(ctx context.Context, toEmail, subject, templateName string, data interface{}) error {
	var body bytes.Buffer
	if err := s.tmpl.ExecuteTemplate(&body, templateName, data); err != nil {
		return fmt.Errorf("failed to execute email template: %w", err)
	}

	params := &resend.SendEmailRequest{
		From:    fmt.Sprintf("Travel Expenses <%s>", s.config.FromEmail),
		To:      []string{toEmail},
		Html:    body.String(),
		Subject: subject,
	}

	_, err := s.emails.SendWithContext(ctx, params)
	return err
}

func (s *service) SendWelcomeEmail(ctx context.Context, toEmail, fullName, role string) error {
	data := struct {
		Title string
		Name  string
		Role  string
		Link  string
	}{
		Title: "Welcome to Travel Expenses",
		Name:  fullName,
		Role:  role,
		Link:  fmt.Sprintf("https://%s/login", s.config.Domain),
	}
	return s.sendEmail(ctx, toEmail, "Your Travel Expenses account", "welcome.html", data)
}

func (s *service) SendNotificationEmail(ctx context.Context, toEmail, recipientName, subject, message string) error {
	data := struct {
		Title   string
		Name    string
		Message string
		Link    string
	}{
		Title:   subject,
		Name:    recipientName,
		Message: message,
		Link:    fmt.Sprintf("https://%s/requests", s.config.Domain),
	}
	return s.sendEmail(ctx, toEmail, subject, "notification.html", data)
}
