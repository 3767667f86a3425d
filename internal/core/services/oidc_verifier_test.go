package services

import (
	"context"
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"testing"
	"time"

	"github.com/SscSPs/storefront_auth/internal/apperrors"
	"github.com/SscSPs/storefront_auth/internal/core/domain"
	"github.com/SscSPs/storefront_auth/internal/platform/config"
	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/idtoken"
)

const testIssuer = "https://login.example.com/v2.0"

func newStaticOIDCVerifier(t *testing.T, key *rsa.PrivateKey) *oidcVerifier {
	t.Helper()
	keySet := &oidc.StaticKeySet{PublicKeys: []crypto.PublicKey{&key.PublicKey}}
	return &oidcVerifier{
		provider: domain.ProviderMicrosoft,
		verifier: oidc.NewVerifier(testIssuer, keySet, &oidc.Config{ClientID: "client-1"}),
	}
}

func signIDToken(t *testing.T, key *rsa.PrivateKey, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(key)
	require.NoError(t, err)
	return token
}

func TestOIDCVerifier_VerifyAssertion(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	v := newStaticOIDCVerifier(t, key)
	now := time.Now()

	token := signIDToken(t, key, jwt.MapClaims{
		"iss":                testIssuer,
		"aud":                "client-1",
		"sub":                "ms-sub-1",
		"iat":                now.Unix(),
		"exp":                now.Add(time.Hour).Unix(),
		"preferred_username": "jane@contoso.com",
		"given_name":         "Jane",
		"email_verified":     true,
	})

	assertion, err := v.VerifyAssertion(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, domain.ProviderMicrosoft, v.Provider())
	assert.Equal(t, &domain.VerifiedAssertion{
		Provider:      domain.ProviderMicrosoft,
		Subject:       "ms-sub-1",
		Email:         "jane@contoso.com",
		EmailVerified: true,
		GivenName:     "Jane",
	}, assertion)
}

func TestOIDCVerifier_RejectsWrongAudienceAndExpired(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	v := newStaticOIDCVerifier(t, key)
	now := time.Now()

	wrongAud := signIDToken(t, key, jwt.MapClaims{
		"iss": testIssuer, "aud": "someone-else", "sub": "x",
		"iat": now.Unix(), "exp": now.Add(time.Hour).Unix(),
	})
	_, err = v.VerifyAssertion(context.Background(), wrongAud)
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)

	expired := signIDToken(t, key, jwt.MapClaims{
		"iss": testIssuer, "aud": "client-1", "sub": "x",
		"iat": now.Add(-2 * time.Hour).Unix(), "exp": now.Add(-time.Hour).Unix(),
	})
	_, err = v.VerifyAssertion(context.Background(), expired)
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)

	otherKey, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	forged := signIDToken(t, otherKey, jwt.MapClaims{
		"iss": testIssuer, "aud": "client-1", "sub": "x",
		"iat": now.Unix(), "exp": now.Add(time.Hour).Unix(),
	})
	_, err = v.VerifyAssertion(context.Background(), forged)
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
}

func TestGoogleVerifier_MapsPayload(t *testing.T) {
	var gotAudience string
	svc := newGoogleOAuthHandlerService(&config.Config{GoogleClientID: "google-client", GoogleRedirectURL: "http://localhost:3000/callback"}, func(_ context.Context, token, audience string) (*idtoken.Payload, error) {
		gotAudience = audience
		if token != "good" {
			return nil, assert.AnError
		}
		return &idtoken.Payload{
			Subject: "g-sub",
			Claims: map[string]interface{}{
				"email":          "bob@gmail.com",
				"email_verified": true,
				"given_name":     "Bob",
				"family_name":    "Builder",
				"picture":        "https://img.example/bob.png",
			},
		}, nil
	})

	assertion, err := svc.VerifyAssertion(context.Background(), "good")
	require.NoError(t, err)
	assert.Equal(t, "google-client", gotAudience)
	assert.Equal(t, domain.ProviderGoogle, assertion.Provider)
	assert.Equal(t, "g-sub", assertion.Subject)
	assert.Equal(t, "bob@gmail.com", assertion.Email)
	assert.True(t, assertion.EmailVerified)
	assert.Equal(t, "Builder", assertion.FamilyName)

	_, err = svc.VerifyAssertion(context.Background(), "bad")
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)

	url := svc.GetGoogleLoginURL(context.Background(), "state-123")
	assert.Contains(t, url, "state=state-123")
	assert.Contains(t, url, "client_id=google-client")
}
