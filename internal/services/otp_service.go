package services

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"fmt"
	"log/slog"
	"math/big"

	"github.com/bright-dela/alx-project-nexus/internal/models"
	pkglogger "github.com/bright-dela/alx-project-nexus/pkg/logger"
)

const otpDigits = 6

// OTPRepository defines the interface for one-time code storage
type OTPRepository interface {
	Save(ctx context.Context, purpose models.OTPPurpose, email, code string) error
	Get(ctx context.Context, purpose models.OTPPurpose, email string) (string, bool, error)
	Delete(ctx context.Context, purpose models.OTPPurpose, email string) error
}

// OTPService issues and redeems single-use email codes
type OTPService struct {
	repo   OTPRepository
	logger *slog.Logger
}

func NewOTPService(repo OTPRepository, logger *slog.Logger) *OTPService {
	return &OTPService{repo: repo, logger: logger}
}

// CreateOTP generates a fresh code for (email, purpose), replacing any
// previous one.
func (s *OTPService) CreateOTP(ctx context.Context, email string, purpose models.OTPPurpose) (string, error) {
	if !purpose.Valid() {
		return "", fmt.Errorf("%w: unknown otp purpose %q", models.ErrBadRequest, purpose)
	}

	code, err := generateOTP()
	if err != nil {
		return "", fmt.Errorf("generate otp: %w", err)
	}

	email = models.NormalizeEmail(email)
	if err := s.repo.Save(ctx, purpose, email, code); err != nil {
		s.logger.Error("failed to store otp",
			slog.String("email", pkglogger.SanitizedEmail(email)),
			slog.String("purpose", string(purpose)),
			slog.Any("error", err))
		return "", err
	}

	return code, nil
}

// VerifyOTP redeems a code. A match consumes it; a mismatch leaves the stored
// code in place.
func (s *OTPService) VerifyOTP(ctx context.Context, email string, purpose models.OTPPurpose, candidate string) (bool, error) {
	email = models.NormalizeEmail(email)

	stored, found, err := s.repo.Get(ctx, purpose, email)
	if err != nil {
		return false, err
	}
	if !found || len(stored) != len(candidate) {
		return false, nil
	}
	if subtle.ConstantTimeCompare([]byte(stored), []byte(candidate)) != 1 {
		return false, nil
	}

	if err := s.repo.Delete(ctx, purpose, email); err != nil {
		return false, err
	}
	return true, nil
}

func (s *OTPService) DeleteOTP(ctx context.Context, email string, purpose models.OTPPurpose) error {
	return s.repo.Delete(ctx, purpose, models.NormalizeEmail(email))
}

// generateOTP returns a uniformly random zero-padded numeric code.
func generateOTP() (string, error) {
	limit := big.NewInt(1_000_000)
	n, err := rand.Int(rand.Reader, limit)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", otpDigits, n.Int64()), nil
}
