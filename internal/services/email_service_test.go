package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/bright-dela/alx-project-nexus/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEmailService(t *testing.T, transport MailTransport) *EmailService {
	t.Helper()
	svc, err := NewEmailService(transport, EmailConfig{AppName: "Nexus E-commerce", OTPTTL: 10 * time.Minute}, testLogger())
	require.NoError(t, err)
	svc.now = func() time.Time { return time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC) }
	return svc
}

func TestEmailService_RenderVerification(t *testing.T) {
	svc := newTestEmailService(t, &MockMailTransport{})

	msg, err := svc.Render(models.Notification{
		Template:  models.TemplateVerification,
		Recipient: "kofi@example.com",
		Params:    map[string]string{"first_name": "Kofi", "otp": "482913"},
	})
	require.NoError(t, err)

	assert.Equal(t, "kofi@example.com", msg.To)
	assert.Equal(t, "Verify Your Email Address - Nexus E-commerce", msg.Subject)
	assert.Contains(t, msg.TextBody, "Hello Kofi,")
	assert.Contains(t, msg.TextBody, "Your verification code is: 482913")
	assert.Contains(t, msg.TextBody, "expire in 10 minutes")
	assert.Contains(t, msg.HTMLBody, "482913")
}

func TestEmailService_RenderPasswordReset(t *testing.T) {
	svc := newTestEmailService(t, &MockMailTransport{})

	msg, err := svc.Render(models.Notification{
		Template:  models.TemplatePasswordReset,
		Recipient: "kofi@example.com",
		Params:    map[string]string{"otp": "000417"},
	})
	require.NoError(t, err)

	assert.Equal(t, "Password Reset Request - Nexus E-commerce", msg.Subject)
	assert.Contains(t, msg.TextBody, "Your password reset code is: 000417")
}

func TestEmailService_RenderSecurityAlert(t *testing.T) {
	svc := newTestEmailService(t, &MockMailTransport{})

	msg, err := svc.Render(models.Notification{
		Template:  models.TemplateSecurityAlert,
		Recipient: "kofi@example.com",
		Params: map[string]string{
			"alert_type": "Login from New Location",
			"details":    "We detected a login from Lagos, Nigeria (IP: 198.51.100.4)",
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "Security Alert - Unusual Activity Detected", msg.Subject)
	assert.Contains(t, msg.TextBody, "Hello Customer,", "missing first name falls back")
	assert.Contains(t, msg.TextBody, "Alert Type: Login from New Location")
	assert.Contains(t, msg.TextBody, "Time: 2026-03-01 09:30:00 UTC")
	assert.Contains(t, msg.HTMLBody, "Lagos, Nigeria")
}

func TestEmailService_HTMLIsEscaped(t *testing.T) {
	svc := newTestEmailService(t, &MockMailTransport{})

	msg, err := svc.Render(models.Notification{
		Template: models.TemplateVerification,
		Params:   map[string]string{"first_name": "<script>x</script>", "otp": "1"},
	})
	require.NoError(t, err)
	assert.NotContains(t, msg.HTMLBody, "<script>")
}

func TestEmailService_UnknownTemplate(t *testing.T) {
	svc := newTestEmailService(t, &MockMailTransport{})

	err := svc.Send(context.Background(), models.Notification{Template: "newsletter"})
	assert.ErrorIs(t, err, ErrUnknownTemplate)
}

func TestEmailService_SendDelivers(t *testing.T) {
	transport := &MockMailTransport{}
	svc := newTestEmailService(t, transport)

	err := svc.Send(context.Background(), verificationNotification(&models.User{Email: "kofi@example.com"}, "123456"))
	require.NoError(t, err)
	require.Len(t, transport.Delivered, 1)
	assert.Contains(t, transport.Delivered[0].TextBody, "Hello Customer,")
}

func TestEmailService_SendTransportError(t *testing.T) {
	transport := &MockMailTransport{DeliverFunc: func(ctx context.Context, msg EmailMessage) error {
		return errors.New("smtp: 421 service not available")
	}}
	svc := newTestEmailService(t, transport)

	err := svc.Send(context.Background(), passwordResetNotification("kofi@example.com", "123456"))
	assert.ErrorContains(t, err, "421")
}

type fakeSES struct {
	input *ses.SendEmailInput
}

func (f *fakeSES) SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
	f.input = params
	id := "msg-1"
	return &ses.SendEmailOutput{MessageId: &id}, nil
}

func TestSESTransport_Deliver(t *testing.T) {
	client := &fakeSES{}
	transport := &SESTransport{client: client, fromAddress: "noreply@nexus.example", logger: testLogger()}

	err := transport.Deliver(context.Background(), EmailMessage{
		To: "kofi@example.com", Subject: "Hi", TextBody: "text", HTMLBody: "<p>html</p>",
	})
	require.NoError(t, err)

	require.NotNil(t, client.input)
	assert.Equal(t, "noreply@nexus.example", *client.input.Source)
	assert.Equal(t, []string{"kofi@example.com"}, client.input.Destination.ToAddresses)
	assert.Equal(t, "Hi", *client.input.Message.Subject.Data)
	assert.Equal(t, "text", *client.input.Message.Body.Text.Data)
}

func TestSMTPTransport_CancelledContext(t *testing.T) {
	transport := NewSMTPTransport("localhost", 2525, "user", "pass", "noreply@nexus.example")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := transport.Deliver(ctx, EmailMessage{To: "kofi@example.com"})
	assert.ErrorIs(t, err, context.Canceled)
}
