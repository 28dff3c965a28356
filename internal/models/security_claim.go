package models

import "time"

type ClaimType string

const (
	ClaimMultipleFailedAttempts ClaimType = "multiple_failed_attempts"
	ClaimUnusualLocation        ClaimType = "unusual_location"
	ClaimSuspiciousLogin        ClaimType = "suspicious_login"
	ClaimAccountLocked          ClaimType = "account_locked"
)

// SecurityClaim records a detected security event for an account. Claims are
// created unresolved; only operator tooling flips Resolved.
type SecurityClaim struct {
	ID          string
	UserID      string
	ClaimType   ClaimType
	Description string
	IPAddress   string
	Resolved    bool
	CreatedAt   time.Time
}
