package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/SscSPs/storefront_auth/internal/apperrors"
	"github.com/SscSPs/storefront_auth/internal/core/domain"
	portssvc "github.com/SscSPs/storefront_auth/internal/core/ports/services"
	"github.com/SscSPs/storefront_auth/internal/dto"
	"github.com/SscSPs/storefront_auth/internal/platform/metrics"
)

// authService ties the user directory, the OAuth resolver and the session
// manager together into the login flows exposed over HTTP.
type authService struct {
	BaseService
	users     portssvc.UserSvcFacade
	tokens    portssvc.TokenSvcFacade
	sessions  portssvc.SessionSvcFacade
	resolver  portssvc.OAuthResolverSvc
	google    portssvc.GoogleOAuthHandlerSvcFacade
	verifiers map[domain.AuthProvider]portssvc.AssertionVerifier
	metrics   *metrics.AuthMetrics
}

// AuthServiceDeps lists the collaborators of the auth service.
type AuthServiceDeps struct {
	Users     portssvc.UserSvcFacade
	Tokens    portssvc.TokenSvcFacade
	Sessions  portssvc.SessionSvcFacade
	Resolver  portssvc.OAuthResolverSvc
	Google    portssvc.GoogleOAuthHandlerSvcFacade
	Verifiers []portssvc.AssertionVerifier
	Metrics   *metrics.AuthMetrics
}

func NewAuthService(deps AuthServiceDeps) portssvc.AuthSvcFacade {
	verifiers := make(map[domain.AuthProvider]portssvc.AssertionVerifier, len(deps.Verifiers))
	for _, v := range deps.Verifiers {
		if v != nil {
			verifiers[v.Provider()] = v
		}
	}
	return &authService{
		users:     deps.Users,
		tokens:    deps.Tokens,
		sessions:  deps.Sessions,
		resolver:  deps.Resolver,
		google:    deps.Google,
		verifiers: verifiers,
		metrics:   deps.Metrics,
	}
}

var _ portssvc.AuthSvcFacade = (*authService)(nil)

func (s *authService) Register(ctx context.Context, req dto.RegisterRequest) (*domain.AuthResult, error) {
	user, err := s.users.CreateUser(ctx, req)
	if err != nil {
		return nil, err
	}
	return s.issue(ctx, user)
}

func (s *authService) Login(ctx context.Context, usernameOrEmail, password string) (*domain.AuthResult, error) {
	user, err := s.users.AuthenticateUser(ctx, usernameOrEmail, password)
	s.metrics.Login("password", err == nil)
	if err != nil {
		return nil, err
	}
	return s.issue(ctx, user)
}

// OAuthLogin verifies the provider token before the claimed identity is
// handed to the resolver.
func (s *authService) OAuthLogin(ctx context.Context, input domain.OAuthLoginInput, providerToken string) (*domain.AuthResult, error) {
	result, err := s.oauthLogin(ctx, input, providerToken)
	s.metrics.Login("oauth", err == nil)
	return result, err
}

func (s *authService) oauthLogin(ctx context.Context, input domain.OAuthLoginInput, providerToken string) (*domain.AuthResult, error) {
	if !input.Provider.IsOAuth() {
		return nil, fmt.Errorf("provider %q cannot be used for oauth login: %w", input.Provider, apperrors.ErrValidation)
	}
	verifier, ok := s.verifiers[input.Provider]
	if !ok {
		return nil, fmt.Errorf("oauth provider %s is not configured: %w", input.Provider, apperrors.ErrValidation)
	}
	assertion, err := verifier.VerifyAssertion(ctx, providerToken)
	if err != nil {
		s.LogWarn(ctx, "OAuth token verification failed",
			slog.String("provider", string(input.Provider)), slog.String("error", err.Error()))
		if !errors.Is(err, apperrors.ErrUnauthorized) {
			err = fmt.Errorf("%w: %w", apperrors.ErrUnauthorized, err)
		}
		return nil, err
	}

	user, err := s.resolver.Resolve(ctx, input, *assertion)
	if err != nil {
		return nil, err
	}
	if !user.CanAuthenticate() {
		return nil, apperrors.ErrAccountDisabled
	}
	return s.issue(ctx, user)
}

// GoogleCodeLogin exchanges the authorization code, verifies the returned ID
// token and resolves the user from its claims.
func (s *authService) GoogleCodeLogin(ctx context.Context, code string) (*domain.AuthResult, error) {
	result, err := s.googleCodeLogin(ctx, code)
	s.metrics.Login("google_code", err == nil)
	return result, err
}

func (s *authService) googleCodeLogin(ctx context.Context, code string) (*domain.AuthResult, error) {
	if s.google == nil {
		return nil, fmt.Errorf("google login is not configured: %w", apperrors.ErrValidation)
	}
	token, err := s.google.ExchangeCodeForToken(ctx, code)
	if err != nil {
		return nil, err
	}
	rawIDToken, ok := token.Extra("id_token").(string)
	if !ok || rawIDToken == "" {
		return nil, fmt.Errorf("google token response carried no id_token: %w", apperrors.ErrUnauthorized)
	}
	assertion, err := s.google.VerifyAssertion(ctx, rawIDToken)
	if err != nil {
		return nil, err
	}

	input := domain.OAuthLoginInput{
		Provider:        domain.ProviderGoogle,
		ProviderUserID:  assertion.Subject,
		Email:           assertion.Email,
		FirstName:       assertion.GivenName,
		LastName:        assertion.FamilyName,
		ProfileImageURL: assertion.Picture,
	}
	if input.Email == "" {
		info, err := s.google.GetUserInfo(ctx, token)
		if err != nil {
			return nil, err
		}
		input.Email = info.Email
		assertion.Email = info.Email
	}

	user, err := s.resolver.Resolve(ctx, input, *assertion)
	if err != nil {
		return nil, err
	}
	if !user.CanAuthenticate() {
		return nil, apperrors.ErrAccountDisabled
	}
	return s.issue(ctx, user)
}

// Refresh rotates the refresh token and signs a new access token for its owner.
func (s *authService) Refresh(ctx context.Context, rawRefreshToken string) (*domain.AuthResult, error) {
	newRaw, token, err := s.sessions.Rotate(ctx, rawRefreshToken)
	if err != nil {
		return nil, err
	}

	user, err := s.users.GetUserByID(ctx, token.UserID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.ErrInvalidToken
		}
		return nil, err
	}
	if !user.CanAuthenticate() {
		// the successor was already issued; do not leave it usable
		if revokeErr := s.sessions.Revoke(ctx, newRaw); revokeErr != nil {
			s.LogError(ctx, revokeErr, "Failed to revoke token of disabled user", slog.String("user_id", user.UserID))
		}
		return nil, apperrors.ErrAccountDisabled
	}

	access, accessExp, err := s.tokens.GenerateAccessToken(ctx, user)
	if err != nil {
		return nil, err
	}
	return &domain.AuthResult{
		User:                  user,
		AccessToken:           access,
		AccessTokenExpiresAt:  accessExp,
		RefreshToken:          newRaw,
		RefreshTokenExpiresAt: token.ExpiresAt,
	}, nil
}

func (s *authService) Logout(ctx context.Context, rawRefreshToken string) error {
	return s.sessions.Revoke(ctx, rawRefreshToken)
}

func (s *authService) LogoutAll(ctx context.Context, userID string) (int64, error) {
	return s.sessions.RevokeAll(ctx, userID)
}

func (s *authService) issue(ctx context.Context, user *domain.User) (*domain.AuthResult, error) {
	access, accessExp, err := s.tokens.GenerateAccessToken(ctx, user)
	if err != nil {
		return nil, err
	}
	raw, token, err := s.sessions.CreateSession(ctx, user.UserID)
	if err != nil {
		return nil, err
	}
	return &domain.AuthResult{
		User:                  user,
		AccessToken:           access,
		AccessTokenExpiresAt:  accessExp,
		RefreshToken:          raw,
		RefreshTokenExpiresAt: token.ExpiresAt,
	}, nil
}
