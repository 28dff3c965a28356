package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizedEmail(t *testing.T) {
	tests := map[string]string{
		"user@example.com":   "u***@*******.com",
		"a@mail.example.org": "a@****.*******.org",
		"not-an-email":       "[invalid-email]",
		"two@at@example.com": "[invalid-email]",
		"kofi@localhost":     "k***@localhost",
	}
	for in, want := range tests {
		assert.Equal(t, want, SanitizedEmail(in), in)
	}
}

func TestRedactedAttr(t *testing.T) {
	assert.Equal(t, "[REDACTED]", RedactedAttr("otp", "123456", "production").Value.String())
	assert.Equal(t, "123456", RedactedAttr("otp", "123456", "development").Value.String())
}

func TestSanitizeQueryString(t *testing.T) {
	assert.True(t, SanitizeQueryString("email=a@example.com"))
	assert.True(t, SanitizeQueryString("OTP=123456"))
	assert.False(t, SanitizeQueryString("page=2&sort=desc"))
	assert.False(t, SanitizeQueryString(""))
}

func TestAuditLogger_LogAuthAttempt(t *testing.T) {
	var buf bytes.Buffer
	al := NewAuditLogger(slog.New(slog.NewJSONHandler(&buf, nil)))

	al.LogAuthAttempt(context.Background(), AuditEvent{
		EventType:     "login_failed",
		UserID:        "user-1",
		Email:         "user@example.com",
		IPAddress:     "203.0.113.9",
		FailureReason: "invalid_credentials",
	})

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "WARN", entry["level"])
	assert.Equal(t, "auth", entry["audit_type"])
	assert.Equal(t, "login_failed", entry["event_type"])
	assert.Equal(t, "u***@*******.com", entry["email"])
	assert.Equal(t, false, entry["success"])
}

func TestAuditLogger_LogSecurityClaim(t *testing.T) {
	var buf bytes.Buffer
	al := NewAuditLogger(slog.New(slog.NewJSONHandler(&buf, nil)))

	al.LogSecurityClaim(context.Background(), "unusual_location", "user-1", "203.0.113.9", "Login from new location: Lagos, Nigeria")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "security", entry["audit_type"])
	assert.Equal(t, "unusual_location", entry["event_type"])
	assert.Equal(t, "Login from new location: Lagos, Nigeria", entry["description"])
}
