package services

import (
	"context"

	"github.com/SscSPs/storefront_auth/internal/core/domain"
)

// SessionSvcFacade manages refresh-token backed sessions.
type SessionSvcFacade interface {
	// CreateSession enforces the per-user cap and issues a new refresh token.
	// The raw secret is returned once and never stored.
	CreateSession(ctx context.Context, userID string) (string, *domain.RefreshToken, error)

	// Verify resolves a raw secret to its active token or fails with
	// ErrInvalidToken, ErrTokenRevoked or ErrTokenExpired.
	Verify(ctx context.Context, rawToken string) (*domain.RefreshToken, error)

	// Rotate exchanges an active token for a successor. Losing a concurrent
	// rotation of the same token yields ErrConcurrentRotation.
	Rotate(ctx context.Context, rawToken string) (string, *domain.RefreshToken, error)

	// Revoke invalidates a token. Unknown or already revoked tokens are ignored.
	Revoke(ctx context.Context, rawToken string) error

	// RevokeAll invalidates every active token of the user.
	RevokeAll(ctx context.Context, userID string) (int64, error)

	// ListActiveSessions returns the user's active tokens, oldest first.
	ListActiveSessions(ctx context.Context, userID string) ([]domain.RefreshToken, error)
}

// SessionJanitorSvc garbage-collects terminal refresh tokens.
type SessionJanitorSvc interface {
	RunOnce(ctx context.Context) (domain.CleanupResult, error)
	// Run blocks, sweeping on every tick until ctx is cancelled.
	Run(ctx context.Context)
}
