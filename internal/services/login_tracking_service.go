package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/bright-dela/alx-project-nexus/internal/models"
	pkglogger "github.com/bright-dela/alx-project-nexus/pkg/logger"
)

// LoginHistoryRepository defines the interface for login history persistence
type LoginHistoryRepository interface {
	PlaceHistory
	Create(ctx context.Context, h *models.LoginHistory) (*models.LoginHistory, error)
	ListByUser(ctx context.Context, userID string, limit int) ([]*models.LoginHistory, error)
}

// SecurityClaimRepository defines the interface for security claim persistence
type SecurityClaimRepository interface {
	ClaimRecorder
	ListUnresolvedByUser(ctx context.Context, userID string) ([]*models.SecurityClaim, error)
}

// AttemptCounter counts consecutive failed logins per email
type AttemptCounter interface {
	Increment(ctx context.Context, email string) (int, error)
	Count(ctx context.Context, email string) (int, error)
	Reset(ctx context.Context, email string) error
}

// AccountLocker stores temporary account locks
type AccountLocker interface {
	Lock(ctx context.Context, email string) error
	IsLocked(ctx context.Context, email string) (bool, error)
	Unlock(ctx context.Context, email string) error
}

// GeoLocator resolves an IP address to a location. It never fails; an
// unknown address yields a zero Location.
type GeoLocator interface {
	Lookup(ctx context.Context, ip string) models.Location
}

// LoginTrackerConfig holds lockout policy
type LoginTrackerConfig struct {
	MaxFailedAttempts int
}

// LoginTrackingService records login attempts, enforces temporary lockout
// after repeated failures and runs the location anomaly check.
type LoginTrackingService struct {
	history     LoginHistoryRepository
	claims      ClaimRecorder
	users       UserRepository
	counter     AttemptCounter
	locks       AccountLocker
	geo         GeoLocator
	detector    *AnomalyDetector
	notifier    Notifier
	cfg         LoginTrackerConfig
	now         func() time.Time
	logger      *slog.Logger
	auditLogger *pkglogger.AuditLogger
}

func NewLoginTrackingService(
	history LoginHistoryRepository,
	claims ClaimRecorder,
	users UserRepository,
	counter AttemptCounter,
	locks AccountLocker,
	geo GeoLocator,
	detector *AnomalyDetector,
	notifier Notifier,
	cfg LoginTrackerConfig,
	logger *slog.Logger,
	auditLogger *pkglogger.AuditLogger,
) *LoginTrackingService {
	return &LoginTrackingService{
		history:     history,
		claims:      claims,
		users:       users,
		counter:     counter,
		locks:       locks,
		geo:         geo,
		detector:    detector,
		notifier:    notifier,
		cfg:         cfg,
		now:         time.Now,
		logger:      logger,
		auditLogger: auditLogger,
	}
}

// RecordLoginAttempt writes a history record for user and applies the
// follow-up for the outcome: a success clears failures, stamps
// last_login_at and runs the anomaly check; a failure feeds the lockout
// counter.
//
// Only the history insert can fail the call, and the lockout follow-up still
// runs when it does. The anomaly check needs the stored record and is
// skipped without one. Follow-up errors are logged.
func (s *LoginTrackingService) RecordLoginAttempt(ctx context.Context, user *models.User, lc models.LoginContext, success bool, failureReason string) (*models.LoginHistory, error) {
	loc := s.geo.Lookup(ctx, lc.IPAddress)

	record, err := s.history.Create(ctx, &models.LoginHistory{
		UserID:          user.ID,
		IPAddress:       lc.IPAddress,
		UserAgent:       lc.UserAgent,
		Location:        loc,
		LoginSuccessful: success,
		FailureReason:   failureReason,
	})
	if err != nil {
		s.logger.Error("failed to record login attempt",
			slog.String("user_id", user.ID),
			slog.Any("error", err))
		err = fmt.Errorf("failed to record login attempt: %w", err)
	}

	if !success {
		s.TrackFailedAttempt(ctx, user.Email, lc.IPAddress)
		return record, err
	}

	now := s.now().UTC()
	if uerr := s.users.UpdateLastLogin(ctx, user.ID, now); uerr != nil {
		s.logger.Error("failed to update last login",
			slog.String("user_id", user.ID),
			slog.Any("error", uerr))
	} else {
		user.LastLoginAt = &now
	}

	s.ResetFailedAttempts(ctx, user.Email)

	if record != nil {
		s.detector.CheckUnusualLocation(ctx, user, loc, lc.IPAddress, record.ID)
	}

	return record, err
}

// IsLocked reports whether email is currently locked out. A cache failure
// is logged and treated as unlocked.
func (s *LoginTrackingService) IsLocked(ctx context.Context, email string) bool {
	email = models.NormalizeEmail(email)

	locked, err := s.locks.IsLocked(ctx, email)
	if err != nil {
		s.logger.Error("lock check failed, allowing login",
			slog.String("email", pkglogger.SanitizedEmail(email)),
			slog.Any("error", err))
		return false
	}
	return locked
}

// TrackFailedAttempt counts a failure for email and, once the count reaches
// the configured maximum, locks the account, raises a
// multiple_failed_attempts claim and queues a security alert. It returns the
// updated count.
func (s *LoginTrackingService) TrackFailedAttempt(ctx context.Context, email, ip string) int {
	email = models.NormalizeEmail(email)

	count, err := s.counter.Increment(ctx, email)
	if err != nil {
		s.logger.Error("failed to count failed login",
			slog.String("email", pkglogger.SanitizedEmail(email)),
			slog.Any("error", err))
		return 0
	}

	if count < s.cfg.MaxFailedAttempts {
		return count
	}

	if err := s.locks.Lock(ctx, email); err != nil {
		s.logger.Error("failed to lock account",
			slog.String("email", pkglogger.SanitizedEmail(email)),
			slog.Any("error", err))
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, models.ErrNotFound) {
			s.logger.Error("failed to load locked account",
				slog.String("email", pkglogger.SanitizedEmail(email)),
				slog.Any("error", err))
		}
		return count
	}

	description := fmt.Sprintf("Account locked due to %d failed login attempts", count)
	if _, err := s.claims.Create(ctx, &models.SecurityClaim{
		UserID:      user.ID,
		ClaimType:   models.ClaimMultipleFailedAttempts,
		Description: description,
		IPAddress:   ip,
	}); err != nil {
		s.logger.Error("failed to create lockout claim",
			slog.String("user_id", user.ID),
			slog.Any("error", err))
	}

	s.auditLogger.LogSecurityClaim(ctx, string(models.ClaimMultipleFailedAttempts), user.ID, ip, description)
	s.auditLogger.LogAuthAttempt(ctx, pkglogger.AuditEvent{
		EventType:     "account_locked",
		UserID:        user.ID,
		IPAddress:     ip,
		FailureReason: "too_many_failed_attempts",
	})

	alert := securityAlertNotification(user, "Account Locked",
		fmt.Sprintf("Your account has been temporarily locked due to %d failed login attempts from IP: %s", count, ip))
	if !s.notifier.Enqueue(alert) {
		s.logger.Warn("security alert dropped", slog.String("user_id", user.ID))
	}

	return count
}

// ResetFailedAttempts clears the failure counter and any lock for email.
func (s *LoginTrackingService) ResetFailedAttempts(ctx context.Context, email string) {
	email = models.NormalizeEmail(email)

	if err := s.counter.Reset(ctx, email); err != nil {
		s.logger.Error("failed to reset failed login counter",
			slog.String("email", pkglogger.SanitizedEmail(email)),
			slog.Any("error", err))
	}
	if err := s.locks.Unlock(ctx, email); err != nil {
		s.logger.Error("failed to clear account lock",
			slog.String("email", pkglogger.SanitizedEmail(email)),
			slog.Any("error", err))
	}
}
