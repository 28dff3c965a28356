package services

import (
	"time"

	"github.com/bright-dela/alx-project-nexus/internal/models"
	"github.com/google/uuid"
)

// Notifier queues notifications for asynchronous delivery. Enqueue must not
// block; it reports false when the job was dropped.
type Notifier interface {
	Enqueue(n models.Notification) bool
}

func newNotification(template models.NotificationTemplate, recipient string, params map[string]string) models.Notification {
	return models.Notification{
		ID:         uuid.New().String(),
		Template:   template,
		Recipient:  recipient,
		Params:     params,
		EnqueuedAt: time.Now().UTC(),
	}
}

func verificationNotification(user *models.User, otp string) models.Notification {
	return newNotification(models.TemplateVerification, user.Email, map[string]string{
		"first_name": user.Greeting(),
		"otp":        otp,
	})
}

func passwordResetNotification(email, otp string) models.Notification {
	return newNotification(models.TemplatePasswordReset, email, map[string]string{
		"otp": otp,
	})
}

func securityAlertNotification(user *models.User, alertType, details string) models.Notification {
	return newNotification(models.TemplateSecurityAlert, user.Email, map[string]string{
		"first_name": user.Greeting(),
		"alert_type": alertType,
		"details":    details,
	})
}
