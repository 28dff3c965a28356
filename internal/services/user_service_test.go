package services

import (
	"context"
	"errors"
	"testing"

	"github.com/bright-dela/alx-project-nexus/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserService_GetProfile(t *testing.T) {
	user := NewTestUser(t, "buyer@example.com", testPassword)
	svc := NewUserService(NewInMemoryUserRepo(user), &MockLoginHistoryRepository{}, &MockSecurityClaimRepository{}, testLogger())

	got, err := svc.GetProfile(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, user.Email, got.Email)

	_, err = svc.GetProfile(context.Background(), "missing")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestUserService_GetProfile_RepositoryError(t *testing.T) {
	repo := &MockUserRepository{
		GetByIDFunc: func(ctx context.Context, id string) (*models.User, error) {
			return nil, errors.New("connection reset")
		},
	}
	svc := NewUserService(repo, &MockLoginHistoryRepository{}, &MockSecurityClaimRepository{}, testLogger())

	_, err := svc.GetProfile(context.Background(), "user-1")
	assert.ErrorIs(t, err, models.ErrInternalServer)
}

func TestUserService_UpdateProfile(t *testing.T) {
	user := NewTestUser(t, "buyer@example.com", testPassword)
	svc := NewUserService(NewInMemoryUserRepo(user), &MockLoginHistoryRepository{}, &MockSecurityClaimRepository{}, testLogger())

	first := "  Abena "
	updated, err := svc.UpdateProfile(context.Background(), user.ID, ProfileUpdate{FirstName: &first})
	require.NoError(t, err)

	assert.Equal(t, "Abena", updated.FirstName)
	assert.Equal(t, user.LastName, updated.LastName, "omitted fields are unchanged")
	assert.Equal(t, user.Email, updated.Email)
}

func TestUserService_UpdateProfile_NoChanges(t *testing.T) {
	user := NewTestUser(t, "buyer@example.com", testPassword)
	repo := NewInMemoryUserRepo(user)
	repo.UpdateFunc = func(ctx context.Context, id string, u *models.User) (*models.User, error) {
		t.Fatal("update should not be called")
		return nil, nil
	}
	svc := NewUserService(repo, &MockLoginHistoryRepository{}, &MockSecurityClaimRepository{}, testLogger())

	got, err := svc.UpdateProfile(context.Background(), user.ID, ProfileUpdate{})
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)
}

func TestUserService_LoginHistoryIsCapped(t *testing.T) {
	var gotLimit int
	history := &MockLoginHistoryRepository{
		ListByUserFunc: func(ctx context.Context, userID string, limit int) ([]*models.LoginHistory, error) {
			gotLimit = limit
			return []*models.LoginHistory{{ID: "h1", UserID: userID}}, nil
		},
	}
	svc := NewUserService(&MockUserRepository{}, history, &MockSecurityClaimRepository{}, testLogger())

	records, err := svc.LoginHistory(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Len(t, records, 1)
	assert.Equal(t, 50, gotLimit)
}

func TestUserService_SecurityClaims(t *testing.T) {
	claims := &MockSecurityClaimRepository{
		ListUnresolvedByUserFunc: func(ctx context.Context, userID string) ([]*models.SecurityClaim, error) {
			return nil, errors.New("db down")
		},
	}
	svc := NewUserService(&MockUserRepository{}, &MockLoginHistoryRepository{}, claims, testLogger())

	_, err := svc.SecurityClaims(context.Background(), "user-1")
	assert.ErrorIs(t, err, models.ErrInternalServer)
}
