package models

import (
	"strings"
	"time"
)

type User struct {
	ID           string
	Email        string
	PasswordHash string // empty for social-only accounts
	FirstName    string
	LastName     string
	IsVerified   bool
	IsActive     bool
	IsStaff      bool
	Provider     string // "google" for accounts linked to Google sign-in
	ProviderID   string
	DateJoined   time.Time
	LastLoginAt  *time.Time
	UpdatedAt    time.Time
}

// HasUsablePassword reports whether the account can log in with a password.
func (u *User) HasUsablePassword() bool {
	return u.PasswordHash != ""
}

// Greeting returns the name used to address the user in notifications.
func (u *User) Greeting() string {
	if name := strings.TrimSpace(u.FirstName); name != "" {
		return name
	}
	return "Customer"
}

// NormalizeEmail lowercases and trims an email address. Every cache key and
// lookup is keyed on the normalized form.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
