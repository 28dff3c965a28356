package models

import "time"

// Location is the result of a geolocation lookup. A zero Location means the
// lookup failed or was skipped.
type Location struct {
	Country     string   `json:"country"`
	CountryCode string   `json:"country_code"`
	City        string   `json:"city"`
	Region      string   `json:"region"`
	Latitude    *float64 `json:"latitude"`
	Longitude   *float64 `json:"longitude"`
}

// Place identifies a location for anomaly comparison.
type Place struct {
	Country string
	City    string
}

func (l Location) Place() Place {
	return Place{Country: l.Country, City: l.City}
}

// LoginHistory is an append-only record of a login attempt for a known account.
type LoginHistory struct {
	ID              string    `db:"id"`
	UserID          string    `db:"user_id"`
	IPAddress       string    `db:"ip_address"`
	UserAgent       string    `db:"user_agent"`
	Location        Location
	LoginSuccessful bool      `db:"login_successful"`
	FailureReason   string    `db:"failure_reason"`
	CreatedAt       time.Time `db:"created_at"`
}

// LoginContext carries request attributes recorded with each attempt.
type LoginContext struct {
	IPAddress string
	UserAgent string
}
