package logger

import (
	"context"
	"log/slog"
	"time"
)

// AuditEvent represents a security audit event
type AuditEvent struct {
	EventType     string
	UserID        string
	Email         string
	IPAddress     string
	UserAgent     string
	Success       bool
	FailureReason string
	Metadata      map[string]string
}

// AuditLogger writes security-relevant events as structured log lines
// tagged with audit_type so they can be routed separately.
type AuditLogger struct {
	logger *slog.Logger
}

func NewAuditLogger(logger *slog.Logger) *AuditLogger {
	return &AuditLogger{logger: logger}
}

func (al *AuditLogger) log(ctx context.Context, level slog.Level, auditType, eventType string, attrs ...slog.Attr) {
	base := []slog.Attr{
		slog.String("audit_type", auditType),
		slog.String("event_type", eventType),
		slog.String("timestamp", time.Now().UTC().Format(time.RFC3339)),
	}
	al.logger.LogAttrs(ctx, level, "audit", append(base, attrs...)...)
}

// LogAuthAttempt logs login, logout and token events
func (al *AuditLogger) LogAuthAttempt(ctx context.Context, event AuditEvent) {
	attrs := []slog.Attr{slog.Bool("success", event.Success)}

	if event.UserID != "" {
		attrs = append(attrs, slog.String("user_id", event.UserID))
	}
	if event.Email != "" {
		attrs = append(attrs, slog.String("email", SanitizedEmail(event.Email)))
	}
	if event.IPAddress != "" {
		attrs = append(attrs, slog.String("ip_address", event.IPAddress))
	}
	if event.UserAgent != "" {
		attrs = append(attrs, slog.String("user_agent", event.UserAgent))
	}
	if event.FailureReason != "" {
		attrs = append(attrs, slog.String("failure_reason", event.FailureReason))
	}
	for key, val := range event.Metadata {
		attrs = append(attrs, slog.String(key, val))
	}

	level := slog.LevelInfo
	if !event.Success {
		level = slog.LevelWarn
	}
	al.log(ctx, level, "auth", event.EventType, attrs...)
}

// LogAccountAction logs changes to an account such as verification or password reset
func (al *AuditLogger) LogAccountAction(ctx context.Context, eventType, userID, ipAddress string, metadata map[string]string) {
	attrs := []slog.Attr{slog.String("user_id", userID)}

	if ipAddress != "" {
		attrs = append(attrs, slog.String("ip_address", ipAddress))
	}
	for key, val := range metadata {
		attrs = append(attrs, slog.String(key, val))
	}

	al.log(ctx, slog.LevelInfo, "account", eventType, attrs...)
}

// LogSecurityClaim logs a raised security claim
func (al *AuditLogger) LogSecurityClaim(ctx context.Context, claimType, userID, ipAddress, description string) {
	al.log(ctx, slog.LevelWarn, "security", claimType,
		slog.String("user_id", userID),
		slog.String("ip_address", ipAddress),
		slog.String("description", description),
	)
}
