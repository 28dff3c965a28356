package models

import (
	"github.com/golang-jwt/jwt/v5"
)

const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

type TokenClaims struct {
	Type   string `json:"type"`
	UserID string `json:"user_id"`
	Email  string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// OTPPurpose namespaces one-time codes so a code issued for one flow can
// never be redeemed in another.
type OTPPurpose string

const (
	OTPPurposeVerification  OTPPurpose = "verification"
	OTPPurposePasswordReset OTPPurpose = "password_reset"
)

func (p OTPPurpose) Valid() bool {
	return p == OTPPurposeVerification || p == OTPPurposePasswordReset
}

// ExternalIdentity is what an identity provider asserts about a user after
// verifying their token.
type ExternalIdentity struct {
	Provider      string
	SubjectID     string
	Email         string
	EmailVerified bool
	GivenName     string
	FamilyName    string
}
