package handlers

import (
	"time"

	"github.com/bright-dela/alx-project-nexus/internal/auth"
	"github.com/bright-dela/alx-project-nexus/internal/models"
)

// UserResponse represents a user in the HTTP response
type UserResponse struct {
	ID          string     `json:"id"`
	Email       string     `json:"email"`
	FirstName   string     `json:"first_name"`
	LastName    string     `json:"last_name"`
	IsVerified  bool       `json:"is_verified"`
	DateJoined  time.Time  `json:"date_joined"`
	LastLoginAt *time.Time `json:"last_login_at"`
}

func toUserResponse(u *models.User) *UserResponse {
	return &UserResponse{
		ID:          u.ID,
		Email:       u.Email,
		FirstName:   u.FirstName,
		LastName:    u.LastName,
		IsVerified:  u.IsVerified,
		DateJoined:  u.DateJoined,
		LastLoginAt: u.LastLoginAt,
	}
}

// LoginResponse is returned by password and social sign-in
type LoginResponse struct {
	Tokens    *auth.TokenPair `json:"tokens"`
	User      *UserResponse   `json:"user"`
	IsNewUser *bool           `json:"is_new_user,omitempty"`
}

// LoginHistoryResponse represents one login attempt
type LoginHistoryResponse struct {
	ID              string    `json:"id"`
	IPAddress       string    `json:"ip_address"`
	UserAgent       string    `json:"user_agent"`
	Country         string    `json:"country"`
	CountryCode     string    `json:"country_code"`
	City            string    `json:"city"`
	Region          string    `json:"region"`
	Latitude        *float64  `json:"latitude"`
	Longitude       *float64  `json:"longitude"`
	LoginSuccessful bool      `json:"login_successful"`
	FailureReason   string    `json:"failure_reason"`
	CreatedAt       time.Time `json:"created_at"`
}

func toLoginHistoryResponse(h *models.LoginHistory) LoginHistoryResponse {
	return LoginHistoryResponse{
		ID:              h.ID,
		IPAddress:       h.IPAddress,
		UserAgent:       h.UserAgent,
		Country:         h.Location.Country,
		CountryCode:     h.Location.CountryCode,
		City:            h.Location.City,
		Region:          h.Location.Region,
		Latitude:        h.Location.Latitude,
		Longitude:       h.Location.Longitude,
		LoginSuccessful: h.LoginSuccessful,
		FailureReason:   h.FailureReason,
		CreatedAt:       h.CreatedAt,
	}
}

// SecurityClaimResponse represents a security claim
type SecurityClaimResponse struct {
	ID          string    `json:"id"`
	ClaimType   string    `json:"claim_type"`
	Description string    `json:"description"`
	IPAddress   string    `json:"ip_address"`
	Resolved    bool      `json:"resolved"`
	CreatedAt   time.Time `json:"created_at"`
}

func toSecurityClaimResponse(c *models.SecurityClaim) SecurityClaimResponse {
	return SecurityClaimResponse{
		ID:          c.ID,
		ClaimType:   string(c.ClaimType),
		Description: c.Description,
		IPAddress:   c.IPAddress,
		Resolved:    c.Resolved,
		CreatedAt:   c.CreatedAt,
	}
}
