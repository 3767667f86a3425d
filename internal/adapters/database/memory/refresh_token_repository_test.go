package memory

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/SscSPs/storefront_auth/internal/apperrors"
	"github.com/SscSPs/storefront_auth/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var baseTime = time.Date(2025, 1, 10, 8, 0, 0, 0, time.UTC)

func newToken(id, hash, userID string, createdAt time.Time, ttl time.Duration) *domain.RefreshToken {
	return &domain.RefreshToken{
		ID:        id,
		TokenHash: hash,
		UserID:    userID,
		CreatedAt: createdAt,
		ExpiresAt: createdAt.Add(ttl),
	}
}

func TestRefreshTokenRepository_CreateAndFind(t *testing.T) {
	ctx := context.Background()
	repo := NewRefreshTokenRepository()

	require.NoError(t, repo.Create(ctx, newToken("01A", "h1", "u1", baseTime, time.Hour)))
	assert.ErrorIs(t, repo.Create(ctx, newToken("01B", "h1", "u1", baseTime, time.Hour)), apperrors.ErrDuplicate)

	found, err := repo.FindByTokenHash(ctx, "h1")
	require.NoError(t, err)
	assert.Equal(t, "01A", found.ID)

	_, err = repo.FindByTokenHash(ctx, "missing")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	// returned values are copies
	found.Revoked = true
	again, _ := repo.FindByTokenHash(ctx, "h1")
	assert.False(t, again.Revoked)
}

func TestRefreshTokenRepository_ConditionalTransitions(t *testing.T) {
	ctx := context.Background()
	repo := NewRefreshTokenRepository()
	require.NoError(t, repo.Create(ctx, newToken("01A", "h1", "u1", baseTime, time.Hour)))

	ok, err := repo.Revoke(ctx, "01A", baseTime.Add(time.Minute))
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.Revoke(ctx, "01A", baseTime.Add(2*time.Minute))
	require.NoError(t, err)
	assert.False(t, ok, "second revoke must not win")

	ok, err = repo.MarkRotated(ctx, "01A", "h2", baseTime.Add(3*time.Minute))
	require.NoError(t, err)
	assert.False(t, ok, "revoked token cannot be rotated")

	tok, _ := repo.FindByTokenHash(ctx, "h1")
	require.NotNil(t, tok.RevokedAt)
	assert.Equal(t, baseTime.Add(time.Minute), *tok.RevokedAt, "revokedAt must be preserved")
	assert.Nil(t, tok.ReplacedByTokenHash)
}

func TestRefreshTokenRepository_ConcurrentRevokeHasOneWinner(t *testing.T) {
	ctx := context.Background()
	repo := NewRefreshTokenRepository()
	require.NoError(t, repo.Create(ctx, newToken("01A", "h1", "u1", baseTime, time.Hour)))

	var wins int32
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := repo.MarkRotated(ctx, "01A", "next", baseTime)
			if err == nil && ok {
				atomic.AddInt32(&wins, 1)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), wins)
}

func TestRefreshTokenRepository_ActiveListingAndBulkOps(t *testing.T) {
	ctx := context.Background()
	repo := NewRefreshTokenRepository()
	now := baseTime.Add(2 * time.Hour)

	require.NoError(t, repo.Create(ctx, newToken("03", "h3", "u1", baseTime.Add(30*time.Minute), 24*time.Hour)))
	require.NoError(t, repo.Create(ctx, newToken("01", "h1", "u1", baseTime, 24*time.Hour)))
	require.NoError(t, repo.Create(ctx, newToken("02", "h2", "u1", baseTime, time.Hour))) // expired at now
	require.NoError(t, repo.Create(ctx, newToken("04", "h4", "u2", baseTime, 24*time.Hour)))

	active, err := repo.ListActiveByUser(ctx, "u1", now)
	require.NoError(t, err)
	require.Len(t, active, 2)
	assert.Equal(t, "01", active[0].ID, "oldest first")
	assert.Equal(t, "03", active[1].ID)

	count, err := repo.CountActiveByUser(ctx, "u1", now)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	n, err := repo.RevokeAllForUser(ctx, "u1", now)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n, "expired but unrevoked rows are revoked too")

	n, err = repo.DeleteExpiredBefore(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = repo.DeleteRevokedOlderThan(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, int64(0), n, "revokedAt == cutoff is kept")

	n, err = repo.DeleteRevokedOlderThan(ctx, now.Add(time.Second))
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	n, err = repo.DeleteAllForUser(ctx, "u2")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.Equal(t, 0, repo.Len())
}

func TestUserRepository_Uniqueness(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository()
	sub := "google-sub"

	require.NoError(t, repo.SaveUser(ctx, domain.User{UserID: "1", Username: "alice", Email: "alice@example.com"}))
	assert.ErrorIs(t, repo.SaveUser(ctx, domain.User{UserID: "2", Username: "alice", Email: "other@example.com"}), apperrors.ErrDuplicate)
	assert.ErrorIs(t, repo.SaveUser(ctx, domain.User{UserID: "2", Username: "alice2", Email: "ALICE@example.com"}), apperrors.ErrDuplicate)

	require.NoError(t, repo.SaveUser(ctx, domain.User{UserID: "3", Username: "bob", Email: "bob@example.com",
		AuthProvider: domain.ProviderGoogle, ProviderUserID: &sub}))
	assert.ErrorIs(t, repo.SaveUser(ctx, domain.User{UserID: "4", Username: "bob2", Email: "bob2@example.com",
		AuthProvider: domain.ProviderGoogle, ProviderUserID: &sub}), apperrors.ErrDuplicate)

	u, err := repo.FindUserByEmail(ctx, "Alice@Example.com")
	require.NoError(t, err)
	assert.Equal(t, "1", u.UserID)

	u, err = repo.FindUserByProviderDetails(ctx, domain.ProviderGoogle, sub)
	require.NoError(t, err)
	assert.Equal(t, "3", u.UserID)

	require.NoError(t, repo.DeleteUser(ctx, "1"))
	_, err = repo.FindUserByID(ctx, "1")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.ErrorIs(t, repo.DeleteUser(ctx, "1"), apperrors.ErrNotFound)
}
