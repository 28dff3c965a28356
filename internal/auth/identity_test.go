package auth

import (
	"context"
	"errors"
	"testing"

	"github.com/bright-dela/alx-project-nexus/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/idtoken"
)

func stubGoogle(payload *idtoken.Payload, err error) *GoogleVerifier {
	v := NewGoogleVerifier("client-123.apps.googleusercontent.com")
	v.validate = func(_ context.Context, _, audience string) (*idtoken.Payload, error) {
		if audience != "client-123.apps.googleusercontent.com" {
			return nil, errors.New("audience mismatch")
		}
		return payload, err
	}
	return v
}

func TestGoogleVerifier_Verify(t *testing.T) {
	v := stubGoogle(&idtoken.Payload{
		Subject: "google-sub-1",
		Claims: map[string]interface{}{
			"email":          "Kofi@Gmail.com",
			"email_verified": true,
			"given_name":     "Kofi",
			"family_name":    "Boateng",
		},
	}, nil)

	identity, err := v.Verify(context.Background(), "id-token")
	require.NoError(t, err)
	assert.Equal(t, ProviderGoogle, identity.Provider)
	assert.Equal(t, "google-sub-1", identity.SubjectID)
	assert.Equal(t, "kofi@gmail.com", identity.Email)
	assert.True(t, identity.EmailVerified)
	assert.Equal(t, "Kofi", identity.GivenName)
	assert.Equal(t, "Boateng", identity.FamilyName)
}

func TestGoogleVerifier_EmailVerifiedAsString(t *testing.T) {
	v := stubGoogle(&idtoken.Payload{
		Subject: "sub",
		Claims:  map[string]interface{}{"email": "a@example.com", "email_verified": "false"},
	}, nil)

	identity, err := v.Verify(context.Background(), "id-token")
	require.NoError(t, err)
	assert.False(t, identity.EmailVerified)
}

func TestGoogleVerifier_Errors(t *testing.T) {
	t.Run("validation failure", func(t *testing.T) {
		v := stubGoogle(nil, errors.New("token expired"))
		_, err := v.Verify(context.Background(), "id-token")
		assert.ErrorIs(t, err, models.ErrProviderToken)
	})

	t.Run("empty token", func(t *testing.T) {
		v := stubGoogle(nil, nil)
		_, err := v.Verify(context.Background(), "  ")
		assert.ErrorIs(t, err, models.ErrProviderToken)
	})

	t.Run("missing email", func(t *testing.T) {
		v := stubGoogle(&idtoken.Payload{Subject: "sub", Claims: map[string]interface{}{}}, nil)
		_, err := v.Verify(context.Background(), "id-token")
		assert.ErrorIs(t, err, models.ErrProviderToken)
	})

	t.Run("unconfigured client", func(t *testing.T) {
		v := NewGoogleVerifier("")
		_, err := v.Verify(context.Background(), "id-token")
		assert.ErrorIs(t, err, models.ErrProviderToken)
	})
}
