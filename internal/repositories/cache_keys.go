package repositories

import (
	"fmt"

	"github.com/bright-dela/alx-project-nexus/internal/models"
)

const (
	failedLoginPrefix   = "failed_login:"
	accountLockedPrefix = "account_locked:"
	blacklistPrefix     = "blacklist:"
)

func otpKey(purpose models.OTPPurpose, email string) string {
	return "otp:" + string(purpose) + ":" + email
}

func failedLoginKey(email string) string {
	return failedLoginPrefix + email
}

func accountLockedKey(email string) string {
	return accountLockedPrefix + email
}

func blacklistKey(jti string) string {
	return blacklistPrefix + jti
}

// unavailable marks a cache failure so callers can match ErrDependencyUnavailable.
func unavailable(err error) error {
	return fmt.Errorf("%w: %v", models.ErrDependencyUnavailable, err)
}
