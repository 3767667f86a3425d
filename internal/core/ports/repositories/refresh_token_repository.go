package repositories

import (
	"context"
	"time"

	"github.com/SscSPs/storefront_auth/internal/core/domain"
)

// RefreshTokenReader defines lookups over refresh token records.
type RefreshTokenReader interface {
	// FindByTokenHash returns the token with the given hash in any state,
	// or apperrors.ErrNotFound.
	FindByTokenHash(ctx context.Context, tokenHash string) (*domain.RefreshToken, error)

	// ListActiveByUser returns the user's non-revoked, non-expired tokens, oldest first.
	ListActiveByUser(ctx context.Context, userID string, now time.Time) ([]domain.RefreshToken, error)

	// CountActiveByUser counts the user's non-revoked, non-expired tokens.
	CountActiveByUser(ctx context.Context, userID string, now time.Time) (int, error)
}

// RefreshTokenWriter defines the state transitions of refresh tokens.
// Revoke and MarkRotated are conditional on the token not being revoked yet;
// the bool result reports whether this call performed the transition.
type RefreshTokenWriter interface {
	// Create persists a new active token.
	Create(ctx context.Context, token *domain.RefreshToken) error

	// Revoke flips revoked=true and sets revokedAt, only if still unrevoked.
	Revoke(ctx context.Context, tokenID string, now time.Time) (bool, error)

	// MarkRotated revokes the token and links it to its successor, only if still unrevoked.
	MarkRotated(ctx context.Context, tokenID string, replacedByHash string, now time.Time) (bool, error)

	// RevokeAllForUser revokes every unrevoked token of the user.
	RevokeAllForUser(ctx context.Context, userID string, now time.Time) (int64, error)
}

// RefreshTokenCleaner defines the bulk deletes used by the janitor and by account deletion.
type RefreshTokenCleaner interface {
	// DeleteExpiredBefore removes tokens whose expiresAt is not after now.
	DeleteExpiredBefore(ctx context.Context, now time.Time) (int64, error)

	// DeleteRevokedOlderThan removes revoked tokens whose revokedAt is before cutoff.
	DeleteRevokedOlderThan(ctx context.Context, cutoff time.Time) (int64, error)

	// DeleteAllForUser removes every token of the user.
	DeleteAllForUser(ctx context.Context, userID string) (int64, error)
}

// RefreshTokenRepositoryFacade combines all refresh token repository interfaces.
type RefreshTokenRepositoryFacade interface {
	RefreshTokenReader
	RefreshTokenWriter
	RefreshTokenCleaner
}
