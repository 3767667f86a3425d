package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/SscSPs/storefront_auth/internal/apperrors"
	"github.com/SscSPs/storefront_auth/internal/core/domain"
	portssvc "github.com/SscSPs/storefront_auth/internal/core/ports/services"
	"github.com/SscSPs/storefront_auth/internal/platform/config"
	"github.com/SscSPs/storefront_auth/internal/utils"
)

// tokenService issues and parses HS256 access tokens.
type tokenService struct {
	BaseService
	secret string
	issuer string
	expiry time.Duration
}

// TokenServiceOption configures the token service.
type TokenServiceOption func(*tokenService)

// WithTokenClock overrides the clock used for iat/nbf/exp.
func WithTokenClock(now func() time.Time) TokenServiceOption {
	return func(s *tokenService) { s.setClock(now) }
}

// NewTokenService fails when the signing secret is too short to be safe for HS256.
func NewTokenService(cfg *config.Config, opts ...TokenServiceOption) (portssvc.TokenSvcFacade, error) {
	if len(cfg.JWTSecret) < utils.MinJWTSecretLength {
		return nil, fmt.Errorf("JWT secret must be at least %d bytes, got %d", utils.MinJWTSecretLength, len(cfg.JWTSecret))
	}
	if cfg.JWTExpiryDuration <= 0 {
		return nil, fmt.Errorf("JWT expiry must be positive, got %s", cfg.JWTExpiryDuration)
	}
	svc := &tokenService{
		secret: cfg.JWTSecret,
		issuer: cfg.JWTIssuer,
		expiry: cfg.JWTExpiryDuration,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

var _ portssvc.TokenSvcFacade = (*tokenService)(nil)

// GenerateAccessToken creates a new JWT access token for the given user.
func (s *tokenService) GenerateAccessToken(ctx context.Context, user *domain.User) (string, time.Time, error) {
	if user == nil || user.UserID == "" {
		return "", time.Time{}, fmt.Errorf("cannot issue access token without a user: %w", apperrors.ErrValidation)
	}
	now := s.Now()
	token, err := utils.GenerateJWT(user.UserID, string(user.Role), user.Username, s.secret, s.issuer, now, s.expiry)
	if err != nil {
		s.LogError(ctx, err, "Failed to sign access token", slog.String("user_id", user.UserID))
		return "", time.Time{}, fmt.Errorf("failed to sign access token: %w", err)
	}
	return token, now.Add(s.expiry), nil
}

// ParseAccessToken validates the token and returns the identity it carries.
// The underlying jwt error stays in the chain so callers can tell expiry apart.
func (s *tokenService) ParseAccessToken(tokenString string) (*domain.Identity, error) {
	claims, err := utils.ParseAndValidateJWT(tokenString, s.secret, s.issuer)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", apperrors.ErrUnauthorized, err)
	}
	role := domain.Role(claims.Role)
	if role == "" {
		role = domain.RoleUser
	}
	return &domain.Identity{
		UserID:   claims.Subject,
		Username: claims.Username,
		Role:     role,
	}, nil
}

func (s *tokenService) ExpiresIn() int64 {
	return int64(s.expiry / time.Second)
}
