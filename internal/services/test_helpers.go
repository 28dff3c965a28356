package services

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/bright-dela/alx-project-nexus/internal/auth"
	"github.com/bright-dela/alx-project-nexus/internal/cache"
	"github.com/bright-dela/alx-project-nexus/internal/models"
	"github.com/bright-dela/alx-project-nexus/internal/repositories"
	pkgauth "github.com/bright-dela/alx-project-nexus/pkg/auth"
	pkglogger "github.com/bright-dela/alx-project-nexus/pkg/logger"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// MockUserRepository implements UserRepository for testing
type MockUserRepository struct {
	GetByIDFunc         func(ctx context.Context, id string) (*models.User, error)
	GetByEmailFunc      func(ctx context.Context, email string) (*models.User, error)
	CreateFunc          func(ctx context.Context, user *models.User) (*models.User, error)
	UpdateFunc          func(ctx context.Context, id string, user *models.User) (*models.User, error)
	UpdatePasswordFunc  func(ctx context.Context, id, passwordHash string) error
	UpdateLastLoginFunc func(ctx context.Context, id string, at time.Time) error
}

func (m *MockUserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, models.ErrNotFound
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	if m.GetByEmailFunc != nil {
		return m.GetByEmailFunc(ctx, email)
	}
	return nil, models.ErrNotFound
}

func (m *MockUserRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, user)
	}
	return nil, models.ErrInternalServer
}

func (m *MockUserRepository) Update(ctx context.Context, id string, user *models.User) (*models.User, error) {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, id, user)
	}
	return user, nil
}

func (m *MockUserRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	if m.UpdatePasswordFunc != nil {
		return m.UpdatePasswordFunc(ctx, id, passwordHash)
	}
	return nil
}

func (m *MockUserRepository) UpdateLastLogin(ctx context.Context, id string, at time.Time) error {
	if m.UpdateLastLoginFunc != nil {
		return m.UpdateLastLoginFunc(ctx, id, at)
	}
	return nil
}

// MockLoginHistoryRepository implements LoginHistoryRepository for testing
type MockLoginHistoryRepository struct {
	CreateFunc              func(ctx context.Context, h *models.LoginHistory) (*models.LoginHistory, error)
	ListByUserFunc          func(ctx context.Context, userID string, limit int) ([]*models.LoginHistory, error)
	DistinctPlacesSinceFunc func(ctx context.Context, userID string, since time.Time, excludeID string) ([]models.Place, error)
}

func (m *MockLoginHistoryRepository) Create(ctx context.Context, h *models.LoginHistory) (*models.LoginHistory, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, h)
	}
	h.ID = uuid.New().String()
	h.CreatedAt = time.Now()
	return h, nil
}

func (m *MockLoginHistoryRepository) ListByUser(ctx context.Context, userID string, limit int) ([]*models.LoginHistory, error) {
	if m.ListByUserFunc != nil {
		return m.ListByUserFunc(ctx, userID, limit)
	}
	return []*models.LoginHistory{}, nil
}

func (m *MockLoginHistoryRepository) DistinctPlacesSince(ctx context.Context, userID string, since time.Time, excludeID string) ([]models.Place, error) {
	if m.DistinctPlacesSinceFunc != nil {
		return m.DistinctPlacesSinceFunc(ctx, userID, since, excludeID)
	}
	return nil, nil
}

// MockSecurityClaimRepository implements SecurityClaimRepository for testing
type MockSecurityClaimRepository struct {
	CreateFunc               func(ctx context.Context, c *models.SecurityClaim) (*models.SecurityClaim, error)
	ListUnresolvedByUserFunc func(ctx context.Context, userID string) ([]*models.SecurityClaim, error)
}

func (m *MockSecurityClaimRepository) Create(ctx context.Context, c *models.SecurityClaim) (*models.SecurityClaim, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, c)
	}
	c.ID = uuid.New().String()
	c.CreatedAt = time.Now()
	return c, nil
}

func (m *MockSecurityClaimRepository) ListUnresolvedByUser(ctx context.Context, userID string) ([]*models.SecurityClaim, error) {
	if m.ListUnresolvedByUserFunc != nil {
		return m.ListUnresolvedByUserFunc(ctx, userID)
	}
	return []*models.SecurityClaim{}, nil
}

// MockGeoLocator implements GeoLocator for testing
type MockGeoLocator struct {
	LookupFunc func(ctx context.Context, ip string) models.Location
}

func (m *MockGeoLocator) Lookup(ctx context.Context, ip string) models.Location {
	if m.LookupFunc != nil {
		return m.LookupFunc(ctx, ip)
	}
	return models.Location{}
}

// MockNotifier records enqueued notifications
type MockNotifier struct {
	mu     sync.Mutex
	Jobs   []models.Notification
	Reject bool
}

func (m *MockNotifier) Enqueue(n models.Notification) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Reject {
		return false
	}
	m.Jobs = append(m.Jobs, n)
	return true
}

func (m *MockNotifier) Sent() []models.Notification {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.Notification(nil), m.Jobs...)
}

// MockMailTransport implements MailTransport for testing
type MockMailTransport struct {
	DeliverFunc func(ctx context.Context, msg EmailMessage) error
	Delivered   []EmailMessage
}

func (m *MockMailTransport) Deliver(ctx context.Context, msg EmailMessage) error {
	if m.DeliverFunc != nil {
		if err := m.DeliverFunc(ctx, msg); err != nil {
			return err
		}
	}
	m.Delivered = append(m.Delivered, msg)
	return nil
}

// MockIdentityVerifier implements auth.IdentityVerifier for testing
type MockIdentityVerifier struct {
	ProviderName string
	VerifyFunc   func(ctx context.Context, token string) (*models.ExternalIdentity, error)
}

func (m *MockIdentityVerifier) Provider() string {
	return m.ProviderName
}

func (m *MockIdentityVerifier) Verify(ctx context.Context, token string) (*models.ExternalIdentity, error) {
	if m.VerifyFunc != nil {
		return m.VerifyFunc(ctx, token)
	}
	return nil, models.ErrProviderToken
}

// NewInMemoryUserRepo returns a MockUserRepository backed by a map keyed by email
func NewInMemoryUserRepo(users ...*models.User) *MockUserRepository {
	var mu sync.Mutex
	byEmail := make(map[string]*models.User)
	for _, u := range users {
		byEmail[u.Email] = u
	}

	find := func(match func(*models.User) bool) (*models.User, error) {
		mu.Lock()
		defer mu.Unlock()
		for _, u := range byEmail {
			if match(u) {
				cp := *u
				return &cp, nil
			}
		}
		return nil, models.ErrNotFound
	}

	return &MockUserRepository{
		GetByIDFunc: func(ctx context.Context, id string) (*models.User, error) {
			return find(func(u *models.User) bool { return u.ID == id })
		},
		GetByEmailFunc: func(ctx context.Context, email string) (*models.User, error) {
			email = models.NormalizeEmail(email)
			return find(func(u *models.User) bool { return u.Email == email })
		},
		CreateFunc: func(ctx context.Context, user *models.User) (*models.User, error) {
			mu.Lock()
			defer mu.Unlock()
			if _, ok := byEmail[user.Email]; ok {
				return nil, models.ErrConflict
			}
			user.ID = uuid.New().String()
			user.DateJoined = time.Now()
			cp := *user
			byEmail[user.Email] = &cp
			return user, nil
		},
		UpdateFunc: func(ctx context.Context, id string, user *models.User) (*models.User, error) {
			mu.Lock()
			defer mu.Unlock()
			for email, u := range byEmail {
				if u.ID == id {
					cp := *user
					byEmail[email] = &cp
					return user, nil
				}
			}
			return nil, models.ErrNotFound
		},
		UpdatePasswordFunc: func(ctx context.Context, id, passwordHash string) error {
			mu.Lock()
			defer mu.Unlock()
			for _, u := range byEmail {
				if u.ID == id {
					u.PasswordHash = passwordHash
					return nil
				}
			}
			return models.ErrNotFound
		},
		UpdateLastLoginFunc: func(ctx context.Context, id string, at time.Time) error {
			mu.Lock()
			defer mu.Unlock()
			for _, u := range byEmail {
				if u.ID == id {
					u.LastLoginAt = &at
					return nil
				}
			}
			return models.ErrNotFound
		},
	}
}

// NewTestUser creates a verified, active user with the given password
func NewTestUser(t *testing.T, email, password string) *models.User {
	t.Helper()
	hash, err := pkgauth.HashPassword(password)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	return &models.User{
		ID:           uuid.New().String(),
		Email:        models.NormalizeEmail(email),
		PasswordHash: hash,
		FirstName:    "Ama",
		LastName:     "Owusu",
		IsVerified:   true,
		IsActive:     true,
		DateJoined:   time.Now(),
	}
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// testEnv wires the services against an in-memory cache and mock repositories
type testEnv struct {
	Store    *cache.MemoryStore
	Users    *MockUserRepository
	History  *MockLoginHistoryRepository
	Claims   *MockSecurityClaimRepository
	Geo      *MockGeoLocator
	Notifier *MockNotifier
	Denylist *repositories.DenylistStore
	Tokens   *auth.TokenManager
	OTP      *OTPService
	Tracker  *LoginTrackingService
	Detector *AnomalyDetector
	Auth     *AuthService
	Google   *MockIdentityVerifier

	claimsMu sync.Mutex
	created  []*models.SecurityClaim
}

func (e *testEnv) CreatedClaims() []*models.SecurityClaim {
	e.claimsMu.Lock()
	defer e.claimsMu.Unlock()
	return append([]*models.SecurityClaim(nil), e.created...)
}

func newTestEnv(t *testing.T, users ...*models.User) *testEnv {
	t.Helper()

	prev := pkgauth.BcryptCost
	pkgauth.BcryptCost = bcrypt.MinCost
	t.Cleanup(func() { pkgauth.BcryptCost = prev })

	logger := testLogger()
	audit := pkglogger.NewAuditLogger(logger)

	env := &testEnv{
		Store:    cache.NewMemoryStore("auth"),
		Users:    NewInMemoryUserRepo(users...),
		History:  &MockLoginHistoryRepository{},
		Geo:      &MockGeoLocator{},
		Notifier: &MockNotifier{},
		Tokens:   auth.NewTokenManager("test-secret-32-characters-long!", time.Hour, 7*24*time.Hour),
		Google:   &MockIdentityVerifier{ProviderName: auth.ProviderGoogle},
	}
	env.Claims = &MockSecurityClaimRepository{
		CreateFunc: func(ctx context.Context, c *models.SecurityClaim) (*models.SecurityClaim, error) {
			c.ID = uuid.New().String()
			c.CreatedAt = time.Now()
			env.claimsMu.Lock()
			env.created = append(env.created, c)
			env.claimsMu.Unlock()
			return c, nil
		},
	}

	env.Denylist = repositories.NewDenylistStore(env.Store)
	env.OTP = NewOTPService(repositories.NewOTPStore(env.Store, 10*time.Minute), logger)
	env.Detector = NewAnomalyDetector(env.History, env.Claims, env.Notifier, 30*24*time.Hour, logger, audit)
	env.Tracker = NewLoginTrackingService(
		env.History,
		env.Claims,
		env.Users,
		repositories.NewCacheAttemptCounter(env.Store, 30*time.Minute),
		repositories.NewLockStore(env.Store, 30*time.Minute),
		env.Geo,
		env.Detector,
		env.Notifier,
		LoginTrackerConfig{MaxFailedAttempts: 5},
		logger,
		audit,
	)
	env.Auth = NewAuthService(
		env.Users,
		env.OTP,
		env.Tracker,
		env.Tokens,
		env.Denylist,
		env.Notifier,
		[]auth.IdentityVerifier{env.Google},
		logger,
		audit,
	)

	return env
}

// lastOTP returns the code carried by the most recent notification with template
func lastOTP(t *testing.T, n *MockNotifier, template models.NotificationTemplate) string {
	t.Helper()
	jobs := n.Sent()
	for i := len(jobs) - 1; i >= 0; i-- {
		if jobs[i].Template == template {
			return jobs[i].Params["otp"]
		}
	}
	t.Fatalf("no %s notification queued", template)
	return ""
}
