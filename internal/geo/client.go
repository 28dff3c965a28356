// Package geo resolves client IP addresses to approximate locations using
// the ip-api.com JSON endpoint.
package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/bright-dela/alx-project-nexus/internal/models"
)

const requestedFields = "status,message,country,countryCode,city,regionName,lat,lon"

// LocalLocation is returned for loopback addresses without a network call.
var LocalLocation = models.Location{
	Country:     "Local",
	CountryCode: "LC",
	City:        "Development",
	Region:      "Local",
}

type Client struct {
	httpClient *http.Client
	baseURL    string
	logger     *slog.Logger
}

func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
		logger:     logger,
	}
}

type lookupResponse struct {
	Status      string   `json:"status"`
	Message     string   `json:"message"`
	Country     string   `json:"country"`
	CountryCode string   `json:"countryCode"`
	City        string   `json:"city"`
	RegionName  string   `json:"regionName"`
	Lat         *float64 `json:"lat"`
	Lon         *float64 `json:"lon"`
}

func isLocal(ip string) bool {
	switch ip {
	case "127.0.0.1", "localhost", "::1":
		return true
	}
	return false
}

// Lookup never fails: any transport, status or decoding problem yields an
// empty Location and a log line.
func (c *Client) Lookup(ctx context.Context, ip string) models.Location {
	if isLocal(ip) {
		return LocalLocation
	}
	if ip == "" {
		return models.Location{}
	}

	loc, err := c.lookup(ctx, ip)
	if err != nil {
		c.logger.Warn("geolocation lookup failed",
			slog.String("ip_address", ip),
			slog.Any("error", err))
		return models.Location{}
	}
	return loc
}

func (c *Client) lookup(ctx context.Context, ip string) (models.Location, error) {
	endpoint := c.baseURL + "/" + url.PathEscape(ip) + "?fields=" + requestedFields

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return models.Location{}, fmt.Errorf("build request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return models.Location{}, fmt.Errorf("request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return models.Location{}, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var body lookupResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return models.Location{}, fmt.Errorf("decode: %w", err)
	}

	if body.Status != "success" {
		return models.Location{}, fmt.Errorf("lookup status %q: %s", body.Status, body.Message)
	}

	return models.Location{
		Country:     body.Country,
		CountryCode: body.CountryCode,
		City:        body.City,
		Region:      body.RegionName,
		Latitude:    body.Lat,
		Longitude:   body.Lon,
	}, nil
}
