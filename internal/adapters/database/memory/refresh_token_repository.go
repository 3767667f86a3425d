// Package memory holds process-local repositories used by tests and by
// STORE_DRIVER=memory. Data does not survive a restart.
package memory

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/SscSPs/storefront_auth/internal/apperrors"
	"github.com/SscSPs/storefront_auth/internal/core/domain"
	portsrepo "github.com/SscSPs/storefront_auth/internal/core/ports/repositories"
)

var _ portsrepo.RefreshTokenRepositoryFacade = (*RefreshTokenRepository)(nil)

// RefreshTokenRepository keeps tokens in a map guarded by one mutex. The
// revoked=false guard on transitions mirrors the SQL adapter.
type RefreshTokenRepository struct {
	mu     sync.Mutex
	byID   map[string]*domain.RefreshToken
	byHash map[string]string // token hash to id
}

func NewRefreshTokenRepository() *RefreshTokenRepository {
	return &RefreshTokenRepository{
		byID:   make(map[string]*domain.RefreshToken),
		byHash: make(map[string]string),
	}
}

func (r *RefreshTokenRepository) Create(_ context.Context, token *domain.RefreshToken) error {
	if token == nil {
		return errors.New("token cannot be nil")
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[token.ID]; ok {
		return fmt.Errorf("refresh token id %s: %w", token.ID, apperrors.ErrDuplicate)
	}
	if _, ok := r.byHash[token.TokenHash]; ok {
		return fmt.Errorf("refresh token hash: %w", apperrors.ErrDuplicate)
	}
	stored := copyToken(*token)
	r.byID[token.ID] = &stored
	r.byHash[token.TokenHash] = token.ID
	return nil
}

func (r *RefreshTokenRepository) FindByTokenHash(_ context.Context, tokenHash string) (*domain.RefreshToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id, ok := r.byHash[tokenHash]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	t := copyToken(*r.byID[id])
	return &t, nil
}

func (r *RefreshTokenRepository) ListActiveByUser(_ context.Context, userID string, now time.Time) ([]domain.RefreshToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	tokens := r.activeLocked(userID, now)
	sort.Slice(tokens, func(i, j int) bool {
		if tokens[i].CreatedAt.Equal(tokens[j].CreatedAt) {
			return tokens[i].ID < tokens[j].ID
		}
		return tokens[i].CreatedAt.Before(tokens[j].CreatedAt)
	})
	return tokens, nil
}

func (r *RefreshTokenRepository) CountActiveByUser(_ context.Context, userID string, now time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.activeLocked(userID, now)), nil
}

func (r *RefreshTokenRepository) Revoke(_ context.Context, tokenID string, now time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.byID[tokenID]
	if !ok || t.Revoked {
		return false, nil
	}
	revokedAt := now
	t.Revoked = true
	t.RevokedAt = &revokedAt
	return true, nil
}

func (r *RefreshTokenRepository) MarkRotated(_ context.Context, tokenID string, replacedByHash string, now time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.byID[tokenID]
	if !ok || t.Revoked {
		return false, nil
	}
	revokedAt := now
	replacedBy := replacedByHash
	t.Revoked = true
	t.RevokedAt = &revokedAt
	t.ReplacedByTokenHash = &replacedBy
	return true, nil
}

func (r *RefreshTokenRepository) RevokeAllForUser(_ context.Context, userID string, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var n int64
	for _, t := range r.byID {
		if t.UserID == userID && !t.Revoked {
			revokedAt := now
			t.Revoked = true
			t.RevokedAt = &revokedAt
			n++
		}
	}
	return n, nil
}

func (r *RefreshTokenRepository) DeleteExpiredBefore(_ context.Context, now time.Time) (int64, error) {
	return r.deleteWhere(func(t *domain.RefreshToken) bool {
		return !t.ExpiresAt.After(now)
	}), nil
}

func (r *RefreshTokenRepository) DeleteRevokedOlderThan(_ context.Context, cutoff time.Time) (int64, error) {
	return r.deleteWhere(func(t *domain.RefreshToken) bool {
		return t.Revoked && t.RevokedAt != nil && t.RevokedAt.Before(cutoff)
	}), nil
}

func (r *RefreshTokenRepository) DeleteAllForUser(_ context.Context, userID string) (int64, error) {
	return r.deleteWhere(func(t *domain.RefreshToken) bool {
		return t.UserID == userID
	}), nil
}

// Len reports the number of stored tokens in any state.
func (r *RefreshTokenRepository) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byID)
}

func (r *RefreshTokenRepository) deleteWhere(match func(*domain.RefreshToken) bool) int64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	var n int64
	for id, t := range r.byID {
		if match(t) {
			delete(r.byHash, t.TokenHash)
			delete(r.byID, id)
			n++
		}
	}
	return n
}

func (r *RefreshTokenRepository) activeLocked(userID string, now time.Time) []domain.RefreshToken {
	var out []domain.RefreshToken
	for _, t := range r.byID {
		if t.UserID == userID && t.IsActive(now) {
			out = append(out, copyToken(*t))
		}
	}
	return out
}

func copyToken(t domain.RefreshToken) domain.RefreshToken {
	if t.RevokedAt != nil {
		v := *t.RevokedAt
		t.RevokedAt = &v
	}
	if t.ReplacedByTokenHash != nil {
		v := *t.ReplacedByTokenHash
		t.ReplacedByTokenHash = &v
	}
	return t
}
