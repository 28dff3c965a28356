package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
	pkglogger "github.com/bright-dela/alx-project-nexus/pkg/logger"
	"gopkg.in/gomail.v2"
)

// sesAPI is the part of the SES client used for sending
type sesAPI interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

// SESTransport sends emails using AWS SES
type SESTransport struct {
	client      sesAPI
	fromAddress string
	logger      *slog.Logger
}

// NewSESTransport creates a new AWS SES transport
func NewSESTransport(ctx context.Context, region, fromAddress string, logger *slog.Logger) (*SESTransport, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return &SESTransport{
		client:      ses.NewFromConfig(cfg),
		fromAddress: fromAddress,
		logger:      logger,
	}, nil
}

func (t *SESTransport) Deliver(ctx context.Context, msg EmailMessage) error {
	input := &ses.SendEmailInput{
		Source: aws.String(t.fromAddress),
		Destination: &types.Destination{
			ToAddresses: []string{msg.To},
		},
		Message: &types.Message{
			Subject: &types.Content{
				Data: aws.String(msg.Subject),
			},
			Body: &types.Body{
				Html: &types.Content{
					Data: aws.String(msg.HTMLBody),
				},
				Text: &types.Content{
					Data: aws.String(msg.TextBody),
				},
			},
		},
	}

	result, err := t.client.SendEmail(ctx, input)
	if err != nil {
		return fmt.Errorf("ses send: %w", err)
	}

	t.logger.Debug("ses accepted email", slog.String("message_id", aws.ToString(result.MessageId)))
	return nil
}

// SMTPTransport sends emails through an SMTP relay
type SMTPTransport struct {
	dialer *gomail.Dialer
	from   string
}

func NewSMTPTransport(host string, port int, username, password, from string) *SMTPTransport {
	return &SMTPTransport{
		dialer: gomail.NewDialer(host, port, username, password),
		from:   from,
	}
}

// Deliver sends a multipart text/HTML message. gomail has no context
// support, so cancellation is only checked before dialing.
func (t *SMTPTransport) Deliver(ctx context.Context, msg EmailMessage) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m := gomail.NewMessage()
	m.SetHeader("From", t.from)
	m.SetHeader("To", msg.To)
	m.SetHeader("Subject", msg.Subject)
	m.SetBody("text/plain", msg.TextBody)
	if msg.HTMLBody != "" {
		m.AddAlternative("text/html", msg.HTMLBody)
	}

	if err := t.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}

// LogTransport writes emails to the log instead of sending them. Bodies
// carry codes, so they are redacted in production.
type LogTransport struct {
	logger *slog.Logger
	env    string
}

func NewLogTransport(logger *slog.Logger, env string) *LogTransport {
	return &LogTransport{logger: logger, env: env}
}

func (t *LogTransport) Deliver(ctx context.Context, msg EmailMessage) error {
	t.logger.InfoContext(ctx, "email (log transport)",
		slog.String("to", pkglogger.SanitizedEmail(msg.To)),
		slog.String("subject", msg.Subject),
		pkglogger.RedactedAttr("body", msg.TextBody, t.env))
	return nil
}
