package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/bright-dela/alx-project-nexus/internal/models"
	pkglogger "github.com/bright-dela/alx-project-nexus/pkg/logger"
)

// PlaceHistory lists where an account has successfully logged in from
type PlaceHistory interface {
	DistinctPlacesSince(ctx context.Context, userID string, since time.Time, excludeID string) ([]models.Place, error)
}

// ClaimRecorder persists security claims
type ClaimRecorder interface {
	Create(ctx context.Context, c *models.SecurityClaim) (*models.SecurityClaim, error)
}

// AnomalyDetector flags successful logins from a (country, city) pair the
// account has not used within the lookback window.
type AnomalyDetector struct {
	history     PlaceHistory
	claims      ClaimRecorder
	notifier    Notifier
	window      time.Duration
	now         func() time.Time
	logger      *slog.Logger
	auditLogger *pkglogger.AuditLogger
}

func NewAnomalyDetector(history PlaceHistory, claims ClaimRecorder, notifier Notifier, window time.Duration, logger *slog.Logger, auditLogger *pkglogger.AuditLogger) *AnomalyDetector {
	return &AnomalyDetector{
		history:     history,
		claims:      claims,
		notifier:    notifier,
		window:      window,
		now:         time.Now,
		logger:      logger,
		auditLogger: auditLogger,
	}
}

// CheckUnusualLocation compares loc against the account's recent places and
// raises an unusual_location claim on a miss. An account with no recent
// located logins is never flagged. currentRecordID excludes the history row
// written for the login being checked.
//
// Failures are logged and reported as false; they never fail the login.
func (d *AnomalyDetector) CheckUnusualLocation(ctx context.Context, user *models.User, loc models.Location, ip, currentRecordID string) bool {
	current := loc.Place()
	if current == (models.Place{}) {
		return false
	}

	places, err := d.history.DistinctPlacesSince(ctx, user.ID, d.now().Add(-d.window), currentRecordID)
	if err != nil {
		d.logger.Error("failed to load recent login places",
			slog.String("user_id", user.ID),
			slog.Any("error", err))
		return false
	}

	if len(places) == 0 {
		return false
	}
	for _, p := range places {
		if p == current {
			return false
		}
	}

	description := fmt.Sprintf("Login from new location: %s, %s", current.City, current.Country)
	if _, err := d.claims.Create(ctx, &models.SecurityClaim{
		UserID:      user.ID,
		ClaimType:   models.ClaimUnusualLocation,
		Description: description,
		IPAddress:   ip,
	}); err != nil {
		d.logger.Error("failed to create unusual location claim",
			slog.String("user_id", user.ID),
			slog.Any("error", err))
		return false
	}
	d.auditLogger.LogSecurityClaim(ctx, string(models.ClaimUnusualLocation), user.ID, ip, description)

	alert := securityAlertNotification(user, "Login from New Location",
		fmt.Sprintf("We detected a login from %s, %s (IP: %s)", current.City, current.Country, ip))
	if !d.notifier.Enqueue(alert) {
		d.logger.Warn("security alert dropped", slog.String("user_id", user.ID))
	}

	return true
}
