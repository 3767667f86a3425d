package services

import (
	"context"
	"time"

	"github.com/SscSPs/storefront_auth/internal/core/domain"
	"github.com/SscSPs/storefront_auth/internal/dto"
	"golang.org/x/oauth2"
	"google.golang.org/api/idtoken"
)

// TokenSvcFacade issues and parses access tokens.
type TokenSvcFacade interface {
	// GenerateAccessToken signs a short-lived token for the user and returns it with its expiry.
	GenerateAccessToken(ctx context.Context, user *domain.User) (string, time.Time, error)
	// ParseAccessToken validates signature, algorithm, issuer and expiry and returns the caller identity.
	ParseAccessToken(tokenString string) (*domain.Identity, error)
	// ExpiresIn is the access token lifetime in seconds.
	ExpiresIn() int64
}

// GoogleOAuthHandlerSvcFacade defines the interface for Google OAuth operations.
type GoogleOAuthHandlerSvcFacade interface {
	AssertionVerifier
	// GenerateStateString creates a secure random string to be used as a CSRF token for OAuth flow.
	GenerateStateString(ctx context.Context) (string, error)
	// GetGoogleLoginURL returns the URL to redirect the user to for Google login.
	GetGoogleLoginURL(ctx context.Context, state string) string
	// ExchangeCodeForToken exchanges an OAuth authorization code for a token.
	ExchangeCodeForToken(ctx context.Context, code string) (*oauth2.Token, error)
	// GetUserInfo uses the access token to get user information from Google.
	GetUserInfo(ctx context.Context, token *oauth2.Token) (*domain.GoogleUserInfo, error)
	// ValidateGoogleIDToken validates an ID token string from Google and returns its payload.
	ValidateGoogleIDToken(ctx context.Context, idTokenString string) (*idtoken.Payload, error)
}

// AssertionVerifier checks a provider-issued token (signature, audience, expiry)
// and extracts the identity it asserts.
type AssertionVerifier interface {
	Provider() domain.AuthProvider
	VerifyAssertion(ctx context.Context, token string) (*domain.VerifiedAssertion, error)
}

// AuthSvcFacade orchestrates the login flows on top of the user directory,
// the OAuth resolver and the session manager.
type AuthSvcFacade interface {
	Register(ctx context.Context, req dto.RegisterRequest) (*domain.AuthResult, error)
	Login(ctx context.Context, usernameOrEmail, password string) (*domain.AuthResult, error)
	OAuthLogin(ctx context.Context, input domain.OAuthLoginInput, providerToken string) (*domain.AuthResult, error)
	// GoogleCodeLogin completes the authorization code flow started by the Google consent screen.
	GoogleCodeLogin(ctx context.Context, code string) (*domain.AuthResult, error)
	Refresh(ctx context.Context, rawRefreshToken string) (*domain.AuthResult, error)
	Logout(ctx context.Context, rawRefreshToken string) error
	LogoutAll(ctx context.Context, userID string) (int64, error)
}

// OAuthResolverSvc maps a verified external identity to a local user.
type OAuthResolverSvc interface {
	Resolve(ctx context.Context, input domain.OAuthLoginInput, assertion domain.VerifiedAssertion) (*domain.User, error)
}
