package auth

import (
	"context"
	"fmt"
	"strings"

	"github.com/bright-dela/alx-project-nexus/internal/models"
	"google.golang.org/api/idtoken"
)

const ProviderGoogle = "google"

// IdentityVerifier validates a token issued by an external identity provider
// and returns the identity it asserts.
type IdentityVerifier interface {
	Provider() string
	Verify(ctx context.Context, token string) (*models.ExternalIdentity, error)
}

type googleValidateFunc func(ctx context.Context, idToken, audience string) (*idtoken.Payload, error)

// GoogleVerifier checks Google ID tokens against the configured OAuth client ID.
type GoogleVerifier struct {
	clientID string
	validate googleValidateFunc
}

func NewGoogleVerifier(clientID string) *GoogleVerifier {
	return &GoogleVerifier{clientID: clientID, validate: idtoken.Validate}
}

func (v *GoogleVerifier) Provider() string {
	return ProviderGoogle
}

func (v *GoogleVerifier) Verify(ctx context.Context, token string) (*models.ExternalIdentity, error) {
	if v.clientID == "" {
		return nil, fmt.Errorf("%w: google client id not configured", models.ErrProviderToken)
	}
	if strings.TrimSpace(token) == "" {
		return nil, fmt.Errorf("%w: empty token", models.ErrProviderToken)
	}

	payload, err := v.validate(ctx, token, v.clientID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrProviderToken, err)
	}

	identity := &models.ExternalIdentity{
		Provider:      ProviderGoogle,
		SubjectID:     payload.Subject,
		Email:         models.NormalizeEmail(claimString(payload.Claims, "email")),
		EmailVerified: claimBool(payload.Claims, "email_verified"),
		GivenName:     claimString(payload.Claims, "given_name"),
		FamilyName:    claimString(payload.Claims, "family_name"),
	}

	if identity.Email == "" {
		return nil, fmt.Errorf("%w: token has no email claim", models.ErrProviderToken)
	}

	return identity, nil
}

func claimString(claims map[string]interface{}, key string) string {
	if v, ok := claims[key].(string); ok {
		return v
	}
	return ""
}

// claimBool accepts both JSON booleans and the "true" strings some issuers emit.
func claimBool(claims map[string]interface{}, key string) bool {
	switch v := claims[key].(type) {
	case bool:
		return v
	case string:
		return strings.EqualFold(v, "true")
	}
	return false
}
