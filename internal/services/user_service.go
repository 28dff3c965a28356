package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/bright-dela/alx-project-nexus/internal/models"
)

// LoginHistoryLimit caps the login history returned to an account holder
const LoginHistoryLimit = 50

// ProfileUpdate lists the editable profile fields. Nil fields are unchanged.
type ProfileUpdate struct {
	FirstName *string
	LastName  *string
}

// UserService serves an authenticated account's own data
type UserService struct {
	repo    UserRepository
	history LoginHistoryRepository
	claims  SecurityClaimRepository
	logger  *slog.Logger
}

// NewUserService creates a new UserService
func NewUserService(repo UserRepository, history LoginHistoryRepository, claims SecurityClaimRepository, logger *slog.Logger) *UserService {
	return &UserService{
		repo:    repo,
		history: history,
		claims:  claims,
		logger:  logger,
	}
}

// GetProfile retrieves a user by ID
func (s *UserService) GetProfile(ctx context.Context, id string) (*models.User, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			s.logger.Info("user not found", slog.String("user_id", id))
			return nil, models.ErrNotFound
		}
		s.logger.Error("failed to get user", slog.String("user_id", id), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	return user, nil
}

// UpdateProfile changes the user's first and last name
func (s *UserService) UpdateProfile(ctx context.Context, id string, update ProfileUpdate) (*models.User, error) {
	user, err := s.GetProfile(ctx, id)
	if err != nil {
		return nil, err
	}

	if update.FirstName == nil && update.LastName == nil {
		return user, nil
	}
	if update.FirstName != nil {
		user.FirstName = strings.TrimSpace(*update.FirstName)
	}
	if update.LastName != nil {
		user.LastName = strings.TrimSpace(*update.LastName)
	}

	updated, err := s.repo.Update(ctx, id, user)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		s.logger.Error("failed to update user", slog.String("user_id", id), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	s.logger.Info("profile updated", slog.String("user_id", id))
	return updated, nil
}

// LoginHistory returns the most recent login attempts, newest first
func (s *UserService) LoginHistory(ctx context.Context, userID string) ([]*models.LoginHistory, error) {
	records, err := s.history.ListByUser(ctx, userID, LoginHistoryLimit)
	if err != nil {
		s.logger.Error("failed to list login history", slog.String("user_id", userID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	return records, nil
}

// SecurityClaims returns the user's unresolved security claims
func (s *UserService) SecurityClaims(ctx context.Context, userID string) ([]*models.SecurityClaim, error) {
	claims, err := s.claims.ListUnresolvedByUser(ctx, userID)
	if err != nil {
		s.logger.Error("failed to list security claims", slog.String("user_id", userID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	return claims, nil
}
