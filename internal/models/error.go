package models

import "errors"

// Sentinel errors for common failure conditions
var (
	ErrNotFound       = errors.New("resource not found")
	ErrConflict       = errors.New("resource already exists")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrForbidden      = errors.New("forbidden")
	ErrBadRequest     = errors.New("bad request")
	ErrInternalServer = errors.New("internal server error")

	// Account state errors
	ErrAccountDisabled  = errors.New("account is disabled")
	ErrAccountLocked    = errors.New("account is temporarily locked")
	ErrEmailNotVerified = errors.New("email address not verified")
	ErrAlreadyVerified  = errors.New("email address already verified")

	// Credential and code errors
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidOTP         = errors.New("invalid or expired code")
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrPasswordMismatch   = errors.New("passwords do not match")
	ErrWeakPassword       = errors.New("password does not meet requirements")

	// Identity provider errors
	ErrUnsupportedProvider     = errors.New("unsupported identity provider")
	ErrProviderToken           = errors.New("identity provider token rejected")
	ErrProviderEmailUnverified = errors.New("identity provider email not verified")

	// ErrDependencyUnavailable wraps failures of the cache or other backing services.
	ErrDependencyUnavailable = errors.New("dependency unavailable")
)
