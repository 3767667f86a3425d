package services

import (
	"fmt"
	"log/slog"
	"time"

	portsrepo "github.com/SscSPs/storefront_auth/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/storefront_auth/internal/core/ports/services"
	"github.com/SscSPs/storefront_auth/internal/platform/config"
	"github.com/SscSPs/storefront_auth/internal/platform/metrics"
)

type containerOptions struct {
	metrics   *metrics.AuthMetrics
	verifiers []portssvc.AssertionVerifier
	now       func() time.Time
	logger    *slog.Logger
}

// ContainerOption configures NewServiceContainer.
type ContainerOption func(*containerOptions)

func WithMetrics(m *metrics.AuthMetrics) ContainerOption {
	return func(o *containerOptions) { o.metrics = m }
}

// WithAssertionVerifiers registers extra OAuth providers (e.g. OIDC issuers).
func WithAssertionVerifiers(verifiers ...portssvc.AssertionVerifier) ContainerOption {
	return func(o *containerOptions) { o.verifiers = append(o.verifiers, verifiers...) }
}

func WithClock(now func() time.Time) ContainerOption {
	return func(o *containerOptions) { o.now = now }
}

// WithLogger sets the logger of background components such as the janitor.
func WithLogger(logger *slog.Logger) ContainerOption {
	return func(o *containerOptions) { o.logger = logger }
}

// NewServiceContainer creates a new service container with properly initialized dependencies
func NewServiceContainer(cfg *config.Config, repos portsrepo.RepositoryProvider, opts ...ContainerOption) (*portssvc.ServiceContainer, error) {
	o := &containerOptions{}
	for _, opt := range opts {
		opt(o)
	}

	container := &portssvc.ServiceContainer{}

	tokenSvc, err := NewTokenService(cfg, WithTokenClock(o.now))
	if err != nil {
		return nil, fmt.Errorf("failed to create token service: %w", err)
	}
	container.TokenService = tokenSvc

	container.User = NewUserService(repos.UserRepo,
		WithUserClock(o.now),
		WithRefreshTokenCleaner(repos.RefreshTokenRepo),
	)

	container.Session = NewSessionService(repos.RefreshTokenRepo, SessionConfig{
		TTL:             cfg.RefreshTokenExpiryDuration,
		MaxActive:       cfg.RefreshTokenMaxActive,
		RotationEnabled: cfg.RefreshTokenRotation,
		ReuseDetection:  cfg.RefreshTokenReuseDetection,
	}, WithSessionClock(o.now), WithSessionMetrics(o.metrics))

	container.OAuthResolver = NewOAuthResolver(repos.UserRepo, WithResolverClock(o.now))

	container.GoogleOAuthHandler = NewGoogleOAuthHandlerService(cfg)

	verifiers := make([]portssvc.AssertionVerifier, 0, len(o.verifiers)+1)
	if cfg.GoogleClientID != "" {
		verifiers = append(verifiers, container.GoogleOAuthHandler)
	}
	verifiers = append(verifiers, o.verifiers...)

	container.Auth = NewAuthService(AuthServiceDeps{
		Users:     container.User,
		Tokens:    container.TokenService,
		Sessions:  container.Session,
		Resolver:  container.OAuthResolver,
		Google:    container.GoogleOAuthHandler,
		Verifiers: verifiers,
		Metrics:   o.metrics,
	})

	container.Janitor = NewSessionJanitor(repos.RefreshTokenRepo, JanitorConfig{
		Interval:         cfg.TokenCleanupInterval,
		RevokedRetention: cfg.RevokedTokenRetention,
		RunOnStart:       cfg.TokenCleanupOnStart,
	}, WithJanitorClock(o.now), WithJanitorLogger(o.logger), WithJanitorMetrics(o.metrics))

	return container, nil
}
