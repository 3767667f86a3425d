package services

import (
	"context"
	"fmt"

	"github.com/SscSPs/storefront_auth/internal/apperrors"
	"github.com/SscSPs/storefront_auth/internal/core/domain"
	portssvc "github.com/SscSPs/storefront_auth/internal/core/ports/services"
	"github.com/coreos/go-oidc/v3/oidc"
)

// oidcVerifier accepts ID tokens from any OpenID Connect provider that
// publishes a discovery document.
type oidcVerifier struct {
	provider domain.AuthProvider
	verifier *oidc.IDTokenVerifier
}

// NewOIDCVerifier discovers the issuer's keys and returns a verifier bound
// to clientID as audience.
func NewOIDCVerifier(ctx context.Context, provider domain.AuthProvider, issuerURL, clientID string) (portssvc.AssertionVerifier, error) {
	if !provider.IsOAuth() {
		return nil, fmt.Errorf("provider %q is not an oauth provider", provider)
	}
	p, err := oidc.NewProvider(ctx, issuerURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create OIDC provider for %s: %w", provider, err)
	}
	return &oidcVerifier{
		provider: provider,
		verifier: p.Verifier(&oidc.Config{ClientID: clientID}),
	}, nil
}

var _ portssvc.AssertionVerifier = (*oidcVerifier)(nil)

func (v *oidcVerifier) Provider() domain.AuthProvider { return v.provider }

func (v *oidcVerifier) VerifyAssertion(ctx context.Context, token string) (*domain.VerifiedAssertion, error) {
	idToken, err := v.verifier.Verify(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("%s ID token verification failed: %w: %w", v.provider, apperrors.ErrUnauthorized, err)
	}

	var claims struct {
		Email             string `json:"email"`
		EmailVerified     *bool  `json:"email_verified"`
		GivenName         string `json:"given_name"`
		FamilyName        string `json:"family_name"`
		Picture           string `json:"picture"`
		PreferredUsername string `json:"preferred_username"`
	}
	if err := idToken.Claims(&claims); err != nil {
		return nil, fmt.Errorf("failed to extract %s claims: %w", v.provider, err)
	}

	email := claims.Email
	if email == "" {
		// Microsoft work accounts carry the address here
		email = claims.PreferredUsername
	}
	return &domain.VerifiedAssertion{
		Provider:      v.provider,
		Subject:       idToken.Subject,
		Email:         email,
		EmailVerified: claims.EmailVerified != nil && *claims.EmailVerified,
		GivenName:     claims.GivenName,
		FamilyName:    claims.FamilyName,
		Picture:       claims.Picture,
	}, nil
}
