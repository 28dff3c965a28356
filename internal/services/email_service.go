package services

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	htmltemplate "html/template"
	"log/slog"
	texttemplate "text/template"
	"time"

	"github.com/bright-dela/alx-project-nexus/internal/models"
	pkglogger "github.com/bright-dela/alx-project-nexus/pkg/logger"
)

//go:embed templates/*.txt templates/*.html
var templateFS embed.FS

// ErrUnknownTemplate is returned for a notification no template can render.
// Retrying cannot fix it.
var ErrUnknownTemplate = errors.New("unknown notification template")

// EmailMessage is a rendered email ready for delivery
type EmailMessage struct {
	To       string
	Subject  string
	TextBody string
	HTMLBody string
}

// MailTransport delivers rendered emails
type MailTransport interface {
	Deliver(ctx context.Context, msg EmailMessage) error
}

// EmailConfig holds the values shared by every template
type EmailConfig struct {
	AppName string
	OTPTTL  time.Duration
}

type emailData struct {
	AppName       string
	FirstName     string
	OTP           string
	ExpiryMinutes int
	AlertType     string
	Details       string
	Time          string
}

// EmailService renders notifications into emails and hands them to a transport
type EmailService struct {
	transport MailTransport
	cfg       EmailConfig
	text      *texttemplate.Template
	html      *htmltemplate.Template
	now       func() time.Time
	logger    *slog.Logger
}

// NewEmailService creates a new EmailService with the embedded templates
func NewEmailService(transport MailTransport, cfg EmailConfig, logger *slog.Logger) (*EmailService, error) {
	text, err := texttemplate.ParseFS(templateFS, "templates/*.txt")
	if err != nil {
		return nil, fmt.Errorf("failed to parse text templates: %w", err)
	}
	html, err := htmltemplate.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse html templates: %w", err)
	}

	return &EmailService{
		transport: transport,
		cfg:       cfg,
		text:      text,
		html:      html,
		now:       time.Now,
		logger:    logger,
	}, nil
}

// Render builds the email for a notification without sending it
func (s *EmailService) Render(n models.Notification) (EmailMessage, error) {
	var subject string
	switch n.Template {
	case models.TemplateVerification:
		subject = "Verify Your Email Address - " + s.cfg.AppName
	case models.TemplatePasswordReset:
		subject = "Password Reset Request - " + s.cfg.AppName
	case models.TemplateSecurityAlert:
		subject = "Security Alert - Unusual Activity Detected"
	default:
		return EmailMessage{}, fmt.Errorf("%w: %q", ErrUnknownTemplate, n.Template)
	}

	firstName := n.Params["first_name"]
	if firstName == "" {
		firstName = "Customer"
	}

	data := emailData{
		AppName:       s.cfg.AppName,
		FirstName:     firstName,
		OTP:           n.Params["otp"],
		ExpiryMinutes: int(s.cfg.OTPTTL.Minutes()),
		AlertType:     n.Params["alert_type"],
		Details:       n.Params["details"],
		Time:          s.now().UTC().Format("2006-01-02 15:04:05 UTC"),
	}

	name := string(n.Template)

	var textBody bytes.Buffer
	if err := s.text.ExecuteTemplate(&textBody, name+".txt", data); err != nil {
		return EmailMessage{}, fmt.Errorf("failed to execute template %s.txt: %w", name, err)
	}
	var htmlBody bytes.Buffer
	if err := s.html.ExecuteTemplate(&htmlBody, name+".html", data); err != nil {
		return EmailMessage{}, fmt.Errorf("failed to execute template %s.html: %w", name, err)
	}

	return EmailMessage{
		To:       n.Recipient,
		Subject:  subject,
		TextBody: textBody.String(),
		HTMLBody: htmlBody.String(),
	}, nil
}

// Send renders and delivers a notification
func (s *EmailService) Send(ctx context.Context, n models.Notification) error {
	msg, err := s.Render(n)
	if err != nil {
		return err
	}

	if err := s.transport.Deliver(ctx, msg); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	s.logger.Info("email sent",
		slog.String("notification_id", n.ID),
		slog.String("template", string(n.Template)),
		slog.String("email", pkglogger.SanitizedEmail(n.Recipient)))
	return nil
}
