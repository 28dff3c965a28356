package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/bright-dela/alx-project-nexus/internal/auth"
	"github.com/bright-dela/alx-project-nexus/internal/models"
	"github.com/bright-dela/alx-project-nexus/internal/services"
	pkghttp "github.com/bright-dela/alx-project-nexus/pkg/http"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// NewTestRequest creates an HTTP request with JSON body for testing
func NewTestRequest(t *testing.T, method, url string, body interface{}) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("failed to encode request body: %v", err)
		}
	}
	req := httptest.NewRequest(method, url, &buf)
	req.Header.Set("Content-Type", "application/json")
	return req
}

// WithAuthContext adds access token claims to the request context for
// testing authenticated endpoints
func WithAuthContext(req *http.Request, userID, email string) *http.Request {
	claims := &models.TokenClaims{
		UserID: userID,
		Email:  email,
		Type:   models.TokenTypeAccess,
	}
	return req.WithContext(auth.WithClaims(req.Context(), claims))
}

// SuccessEnvelope decodes a success response with a typed data field
type SuccessEnvelope[T any] struct {
	Message string `json:"message"`
	Data    T      `json:"data"`
}

// AssertSuccessResponse checks the status and message and decodes the data field into target
func AssertSuccessResponse[T any](t *testing.T, w *httptest.ResponseRecorder, expectedStatus int, expectedMessage string) T {
	t.Helper()
	assert.Equal(t, expectedStatus, w.Code, "Response status mismatch")
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var resp SuccessEnvelope[T]
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), "Failed to decode response JSON")
	assert.Equal(t, expectedMessage, resp.Message)
	return resp.Data
}

// AssertErrorResponse checks that response is a valid error response and returns it
func AssertErrorResponse(t *testing.T, w *httptest.ResponseRecorder, expectedStatus int, expectedError string) pkghttp.ErrorResponse {
	t.Helper()
	assert.Equal(t, expectedStatus, w.Code, "Response status mismatch")

	var resp pkghttp.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), "Failed to decode error response")
	assert.Equal(t, expectedError, resp.Error, "Error code mismatch")
	assert.NotEmpty(t, resp.Message, "Error message should not be empty")
	return resp
}

// MockAuthService implements AuthServiceInterface for testing
type MockAuthService struct {
	RegisterFunc             func(ctx context.Context, in services.RegisterInput) (*models.User, error)
	VerifyEmailFunc          func(ctx context.Context, email, code string) (*models.User, error)
	ResendOTPFunc            func(ctx context.Context, email string) error
	LoginFunc                func(ctx context.Context, email, password string, lc models.LoginContext) (*services.LoginResult, error)
	LogoutFunc               func(ctx context.Context, claims *models.TokenClaims, refreshToken string) error
	RefreshFunc              func(ctx context.Context, refreshToken string) (*auth.TokenPair, error)
	RequestPasswordResetFunc func(ctx context.Context, email string)
	ConfirmPasswordResetFunc func(ctx context.Context, in services.PasswordResetInput) error
	SocialLoginFunc          func(ctx context.Context, provider, token string, lc models.LoginContext) (*services.SocialLoginResult, error)
}

func (m *MockAuthService) Register(ctx context.Context, in services.RegisterInput) (*models.User, error) {
	if m.RegisterFunc == nil {
		return nil, models.ErrConflict
	}
	return m.RegisterFunc(ctx, in)
}

func (m *MockAuthService) VerifyEmail(ctx context.Context, email, code string) (*models.User, error) {
	if m.VerifyEmailFunc == nil {
		return nil, models.ErrInvalidOTP
	}
	return m.VerifyEmailFunc(ctx, email, code)
}

func (m *MockAuthService) ResendOTP(ctx context.Context, email string) error {
	if m.ResendOTPFunc == nil {
		return nil
	}
	return m.ResendOTPFunc(ctx, email)
}

func (m *MockAuthService) Login(ctx context.Context, email, password string, lc models.LoginContext) (*services.LoginResult, error) {
	if m.LoginFunc == nil {
		return nil, models.ErrInvalidCredentials
	}
	return m.LoginFunc(ctx, email, password, lc)
}

func (m *MockAuthService) Logout(ctx context.Context, claims *models.TokenClaims, refreshToken string) error {
	if m.LogoutFunc == nil {
		return nil
	}
	return m.LogoutFunc(ctx, claims, refreshToken)
}

func (m *MockAuthService) Refresh(ctx context.Context, refreshToken string) (*auth.TokenPair, error) {
	if m.RefreshFunc == nil {
		return nil, models.ErrInvalidToken
	}
	return m.RefreshFunc(ctx, refreshToken)
}

func (m *MockAuthService) RequestPasswordReset(ctx context.Context, email string) {
	if m.RequestPasswordResetFunc != nil {
		m.RequestPasswordResetFunc(ctx, email)
	}
}

func (m *MockAuthService) ConfirmPasswordReset(ctx context.Context, in services.PasswordResetInput) error {
	if m.ConfirmPasswordResetFunc == nil {
		return nil
	}
	return m.ConfirmPasswordResetFunc(ctx, in)
}

func (m *MockAuthService) SocialLogin(ctx context.Context, provider, token string, lc models.LoginContext) (*services.SocialLoginResult, error) {
	if m.SocialLoginFunc == nil {
		return nil, models.ErrProviderToken
	}
	return m.SocialLoginFunc(ctx, provider, token, lc)
}

// MockUserService implements UserService for testing
type MockUserService struct {
	GetProfileFunc     func(ctx context.Context, id string) (*models.User, error)
	UpdateProfileFunc  func(ctx context.Context, id string, update services.ProfileUpdate) (*models.User, error)
	LoginHistoryFunc   func(ctx context.Context, userID string) ([]*models.LoginHistory, error)
	SecurityClaimsFunc func(ctx context.Context, userID string) ([]*models.SecurityClaim, error)
}

func (m *MockUserService) GetProfile(ctx context.Context, id string) (*models.User, error) {
	if m.GetProfileFunc == nil {
		return nil, models.ErrNotFound
	}
	return m.GetProfileFunc(ctx, id)
}

func (m *MockUserService) UpdateProfile(ctx context.Context, id string, update services.ProfileUpdate) (*models.User, error) {
	if m.UpdateProfileFunc == nil {
		return nil, models.ErrNotFound
	}
	return m.UpdateProfileFunc(ctx, id, update)
}

func (m *MockUserService) LoginHistory(ctx context.Context, userID string) ([]*models.LoginHistory, error) {
	if m.LoginHistoryFunc == nil {
		return nil, nil
	}
	return m.LoginHistoryFunc(ctx, userID)
}

func (m *MockUserService) SecurityClaims(ctx context.Context, userID string) ([]*models.SecurityClaim, error) {
	if m.SecurityClaimsFunc == nil {
		return nil, nil
	}
	return m.SecurityClaimsFunc(ctx, userID)
}
