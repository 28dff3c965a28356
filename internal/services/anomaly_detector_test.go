package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bright-dela/alx-project-nexus/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	accra = models.Location{Country: "Ghana", CountryCode: "GH", City: "Accra"}
	lagos = models.Location{Country: "Nigeria", CountryCode: "NG", City: "Lagos"}
)

func TestAnomalyDetector_ColdStartIsExempt(t *testing.T) {
	user := NewTestUser(t, "buyer@example.com", "Str0ng-Passphrase!")
	env := newTestEnv(t, user)

	flagged := env.Detector.CheckUnusualLocation(context.Background(), user, lagos, "198.51.100.4", "current")

	assert.False(t, flagged)
	assert.Empty(t, env.CreatedClaims())
	assert.Empty(t, env.Notifier.Sent())
}

func TestAnomalyDetector_KnownPlaceIsNotFlagged(t *testing.T) {
	user := NewTestUser(t, "buyer@example.com", "Str0ng-Passphrase!")
	env := newTestEnv(t, user)
	env.History.DistinctPlacesSinceFunc = func(ctx context.Context, userID string, since time.Time, excludeID string) ([]models.Place, error) {
		return []models.Place{accra.Place(), {Country: "Ghana", City: "Kumasi"}}, nil
	}

	flagged := env.Detector.CheckUnusualLocation(context.Background(), user, accra, "198.51.100.4", "current")

	assert.False(t, flagged)
	assert.Empty(t, env.CreatedClaims())
}

func TestAnomalyDetector_NewPlaceRaisesClaimAndAlert(t *testing.T) {
	user := NewTestUser(t, "buyer@example.com", "Str0ng-Passphrase!")
	env := newTestEnv(t, user)

	var gotSince time.Time
	var gotExclude string
	env.History.DistinctPlacesSinceFunc = func(ctx context.Context, userID string, since time.Time, excludeID string) ([]models.Place, error) {
		gotSince, gotExclude = since, excludeID
		return []models.Place{accra.Place()}, nil
	}

	flagged := env.Detector.CheckUnusualLocation(context.Background(), user, lagos, "198.51.100.4", "current")
	require.True(t, flagged)

	assert.Equal(t, "current", gotExclude)
	assert.WithinDuration(t, time.Now().Add(-30*24*time.Hour), gotSince, time.Minute)

	claims := env.CreatedClaims()
	require.Len(t, claims, 1)
	assert.Equal(t, models.ClaimUnusualLocation, claims[0].ClaimType)
	assert.Equal(t, "Login from new location: Lagos, Nigeria", claims[0].Description)
	assert.Equal(t, "198.51.100.4", claims[0].IPAddress)

	jobs := env.Notifier.Sent()
	require.Len(t, jobs, 1)
	assert.Equal(t, "Login from New Location", jobs[0].Params["alert_type"])
	assert.Equal(t, "We detected a login from Lagos, Nigeria (IP: 198.51.100.4)", jobs[0].Params["details"])
}

func TestAnomalyDetector_SameCountryDifferentCityIsFlagged(t *testing.T) {
	user := NewTestUser(t, "buyer@example.com", "Str0ng-Passphrase!")
	env := newTestEnv(t, user)
	env.History.DistinctPlacesSinceFunc = func(ctx context.Context, userID string, since time.Time, excludeID string) ([]models.Place, error) {
		return []models.Place{accra.Place()}, nil
	}

	kumasi := models.Location{Country: "Ghana", City: "Kumasi"}
	assert.True(t, env.Detector.CheckUnusualLocation(context.Background(), user, kumasi, "198.51.100.4", "current"))
}

func TestAnomalyDetector_UnknownLocationIsSkipped(t *testing.T) {
	user := NewTestUser(t, "buyer@example.com", "Str0ng-Passphrase!")
	env := newTestEnv(t, user)
	called := false
	env.History.DistinctPlacesSinceFunc = func(ctx context.Context, userID string, since time.Time, excludeID string) ([]models.Place, error) {
		called = true
		return []models.Place{accra.Place()}, nil
	}

	assert.False(t, env.Detector.CheckUnusualLocation(context.Background(), user, models.Location{}, "198.51.100.4", "current"))
	assert.False(t, called)
}

func TestAnomalyDetector_HistoryErrorDegrades(t *testing.T) {
	user := NewTestUser(t, "buyer@example.com", "Str0ng-Passphrase!")
	env := newTestEnv(t, user)
	env.History.DistinctPlacesSinceFunc = func(ctx context.Context, userID string, since time.Time, excludeID string) ([]models.Place, error) {
		return nil, errors.New("db down")
	}

	assert.False(t, env.Detector.CheckUnusualLocation(context.Background(), user, lagos, "198.51.100.4", "current"))
	assert.Empty(t, env.CreatedClaims())
}

func TestAnomalyDetector_DroppedAlertStillRecordsClaim(t *testing.T) {
	user := NewTestUser(t, "buyer@example.com", "Str0ng-Passphrase!")
	env := newTestEnv(t, user)
	env.Notifier.Reject = true
	env.History.DistinctPlacesSinceFunc = func(ctx context.Context, userID string, since time.Time, excludeID string) ([]models.Place, error) {
		return []models.Place{accra.Place()}, nil
	}

	assert.True(t, env.Detector.CheckUnusualLocation(context.Background(), user, lagos, "198.51.100.4", "current"))
	assert.Len(t, env.CreatedClaims(), 1)
}

func TestLoginTracker_SuccessfulLoginRunsAnomalyCheckExcludingItself(t *testing.T) {
	user := NewTestUser(t, "buyer@example.com", "Str0ng-Passphrase!")
	env := newTestEnv(t, user)
	env.Geo.LookupFunc = func(ctx context.Context, ip string) models.Location { return lagos }
	env.History.CreateFunc = func(ctx context.Context, h *models.LoginHistory) (*models.LoginHistory, error) {
		h.ID = "history-42"
		return h, nil
	}
	env.History.DistinctPlacesSinceFunc = func(ctx context.Context, userID string, since time.Time, excludeID string) ([]models.Place, error) {
		assert.Equal(t, "history-42", excludeID)
		return []models.Place{accra.Place()}, nil
	}

	_, err := env.Tracker.RecordLoginAttempt(context.Background(), user, testLoginContext, true, "")
	require.NoError(t, err)

	claims := env.CreatedClaims()
	require.Len(t, claims, 1)
	assert.Equal(t, models.ClaimUnusualLocation, claims[0].ClaimType)
}
