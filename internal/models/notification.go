package models

import "time"

type NotificationTemplate string

const (
	TemplateVerification  NotificationTemplate = "verification"
	TemplatePasswordReset NotificationTemplate = "password_reset"
	TemplateSecurityAlert NotificationTemplate = "security_alert"
)

// Notification is a queued email job. Params carries template values such as
// "otp", "first_name", "alert_type" and "details".
type Notification struct {
	ID         string
	Template   NotificationTemplate
	Recipient  string
	Params     map[string]string
	EnqueuedAt time.Time
}
