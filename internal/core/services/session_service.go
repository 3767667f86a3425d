package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/SscSPs/storefront_auth/internal/apperrors"
	"github.com/SscSPs/storefront_auth/internal/core/domain"
	portsrepo "github.com/SscSPs/storefront_auth/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/storefront_auth/internal/core/ports/services"
	"github.com/SscSPs/storefront_auth/internal/platform/metrics"
	"github.com/SscSPs/storefront_auth/internal/utils"
	"github.com/oklog/ulid/v2"
)

// SessionConfig holds the refresh token policy.
type SessionConfig struct {
	TTL             time.Duration
	MaxActive       int
	RotationEnabled bool
	// ReuseDetection revokes every session of a user when one of their
	// rotated or revoked tokens is presented again.
	ReuseDetection bool
}

type sessionService struct {
	BaseService
	repo    portsrepo.RefreshTokenRepositoryFacade
	cfg     SessionConfig
	metrics *metrics.AuthMetrics
}

// SessionServiceOption configures the session service.
type SessionServiceOption func(*sessionService)

func WithSessionClock(now func() time.Time) SessionServiceOption {
	return func(s *sessionService) { s.setClock(now) }
}

func WithSessionMetrics(m *metrics.AuthMetrics) SessionServiceOption {
	return func(s *sessionService) { s.metrics = m }
}

// NewSessionService creates the refresh token session manager.
func NewSessionService(repo portsrepo.RefreshTokenRepositoryFacade, cfg SessionConfig, opts ...SessionServiceOption) portssvc.SessionSvcFacade {
	if cfg.MaxActive <= 0 {
		cfg.MaxActive = 1
	}
	svc := &sessionService{repo: repo, cfg: cfg}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

var _ portssvc.SessionSvcFacade = (*sessionService)(nil)

func (s *sessionService) CreateSession(ctx context.Context, userID string) (string, *domain.RefreshToken, error) {
	if userID == "" {
		return "", nil, fmt.Errorf("user id is required: %w", apperrors.ErrValidation)
	}
	now := s.Now()
	if err := s.enforceCap(ctx, userID, now); err != nil {
		return "", nil, err
	}
	return s.createAt(ctx, userID, now)
}

// createAt persists a new token without touching the cap. Rotation swaps one
// token for another, so only CreateSession evicts.
func (s *sessionService) createAt(ctx context.Context, userID string, now time.Time) (string, *domain.RefreshToken, error) {
	raw, err := utils.GenerateRefreshSecret()
	if err != nil {
		s.LogError(ctx, err, "Failed to generate refresh token secret", slog.String("user_id", userID))
		return "", nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}

	token := &domain.RefreshToken{
		ID:        ulid.MustNew(ulid.Timestamp(now), ulid.DefaultEntropy()).String(),
		TokenHash: utils.HashRefreshToken(raw),
		UserID:    userID,
		CreatedAt: now,
		ExpiresAt: now.Add(s.cfg.TTL),
	}
	if err := s.repo.Create(ctx, token); err != nil {
		s.LogError(ctx, err, "Failed to persist refresh token", slog.String("user_id", userID))
		return "", nil, fmt.Errorf("failed to persist refresh token: %w", err)
	}

	s.metrics.SessionCreated()
	s.LogDebug(ctx, "Refresh token issued", slog.String("user_id", userID), slog.String("token_id", token.ID))
	return raw, token, nil
}

// enforceCap revokes the oldest active tokens until one slot is free.
func (s *sessionService) enforceCap(ctx context.Context, userID string, now time.Time) error {
	active, err := s.repo.ListActiveByUser(ctx, userID, now)
	if err != nil {
		return fmt.Errorf("failed to list active sessions: %w", err)
	}

	excess := len(active) - s.cfg.MaxActive + 1
	evicted := 0
	for i := 0; i < excess; i++ {
		ok, err := s.repo.Revoke(ctx, active[i].ID, now)
		if err != nil {
			return fmt.Errorf("failed to revoke session %s: %w", active[i].ID, err)
		}
		if ok {
			evicted++
		}
	}
	if evicted > 0 {
		s.metrics.SessionsEvicted(evicted)
		s.LogInfo(ctx, "Evicted oldest sessions to honour the session cap",
			slog.String("user_id", userID), slog.Int("evicted", evicted), slog.Int("max_active", s.cfg.MaxActive))
	}
	return nil
}

func (s *sessionService) Verify(ctx context.Context, rawToken string) (*domain.RefreshToken, error) {
	return s.verifyAt(ctx, rawToken, s.Now())
}

// verifyAt looks the token up by hash and classifies it. For revoked and
// rotated tokens the record is returned alongside the error so that callers
// can react to replays.
func (s *sessionService) verifyAt(ctx context.Context, rawToken string, now time.Time) (*domain.RefreshToken, error) {
	if rawToken == "" {
		return nil, apperrors.ErrInvalidToken
	}
	token, err := s.repo.FindByTokenHash(ctx, utils.HashRefreshToken(rawToken))
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.ErrInvalidToken
		}
		return nil, fmt.Errorf("failed to look up refresh token: %w", err)
	}
	if !utils.CompareRefreshTokenHash(rawToken, token.TokenHash) {
		return nil, apperrors.ErrInvalidToken
	}

	switch token.State(now) {
	case domain.TokenRotated, domain.TokenRevoked:
		return token, apperrors.ErrTokenRevoked
	case domain.TokenExpired:
		return nil, apperrors.ErrTokenExpired
	}
	return token, nil
}

func (s *sessionService) Rotate(ctx context.Context, rawToken string) (string, *domain.RefreshToken, error) {
	now := s.Now()

	current, err := s.verifyAt(ctx, rawToken, now)
	if err != nil {
		if errors.Is(err, apperrors.ErrTokenRevoked) && current != nil {
			s.handleReplay(ctx, current, now)
		}
		return "", nil, err
	}

	if !s.cfg.RotationEnabled {
		return rawToken, current, nil
	}

	newRaw, successor, err := s.createAt(ctx, current.UserID, now)
	if err != nil {
		return "", nil, err
	}

	won, err := s.repo.MarkRotated(ctx, current.ID, successor.TokenHash, now)
	if err != nil || !won {
		// the successor must not outlive a failed rotation
		if _, revokeErr := s.repo.Revoke(ctx, successor.ID, now); revokeErr != nil {
			s.LogError(ctx, revokeErr, "Failed to revoke orphaned successor token", slog.String("token_id", successor.ID))
		}
		if err != nil {
			return "", nil, fmt.Errorf("failed to mark refresh token rotated: %w", err)
		}
		s.metrics.RotationConflict()
		s.LogWarn(ctx, "Concurrent rotation lost", slog.String("user_id", current.UserID), slog.String("token_id", current.ID))
		return "", nil, apperrors.ErrConcurrentRotation
	}

	s.metrics.Rotated()
	s.LogDebug(ctx, "Refresh token rotated",
		slog.String("user_id", current.UserID), slog.String("old_token_id", current.ID), slog.String("new_token_id", successor.ID))
	return newRaw, successor, nil
}

func (s *sessionService) handleReplay(ctx context.Context, token *domain.RefreshToken, now time.Time) {
	s.metrics.Replay()
	s.LogWarn(ctx, "Revoked refresh token presented again",
		slog.String("user_id", token.UserID),
		slog.String("token_id", token.ID),
		slog.String("state", string(token.State(now))))

	if !s.cfg.ReuseDetection {
		return
	}
	n, err := s.repo.RevokeAllForUser(ctx, token.UserID, now)
	if err != nil {
		s.LogError(ctx, err, "Failed to revoke sessions after token reuse", slog.String("user_id", token.UserID))
		return
	}
	s.metrics.Revoked("reuse", n)
	s.LogWarn(ctx, "Revoked all sessions after token reuse", slog.String("user_id", token.UserID), slog.Int64("revoked", n))
}

func (s *sessionService) Revoke(ctx context.Context, rawToken string) error {
	if rawToken == "" {
		return nil
	}
	now := s.Now()
	token, err := s.repo.FindByTokenHash(ctx, utils.HashRefreshToken(rawToken))
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("failed to look up refresh token: %w", err)
	}
	if token.Revoked {
		return nil
	}
	ok, err := s.repo.Revoke(ctx, token.ID, now)
	if err != nil {
		s.LogError(ctx, err, "Failed to revoke refresh token", slog.String("token_id", token.ID))
		return fmt.Errorf("failed to revoke refresh token: %w", err)
	}
	if ok {
		s.metrics.Revoked("logout", 1)
		s.LogInfo(ctx, "Refresh token revoked", slog.String("user_id", token.UserID), slog.String("token_id", token.ID))
	}
	return nil
}

func (s *sessionService) RevokeAll(ctx context.Context, userID string) (int64, error) {
	n, err := s.repo.RevokeAllForUser(ctx, userID, s.Now())
	if err != nil {
		s.LogError(ctx, err, "Failed to revoke all refresh tokens", slog.String("user_id", userID))
		return 0, fmt.Errorf("failed to revoke sessions: %w", err)
	}
	s.metrics.Revoked("logout_all", n)
	s.LogInfo(ctx, "All refresh tokens revoked", slog.String("user_id", userID), slog.Int64("revoked", n))
	return n, nil
}

func (s *sessionService) ListActiveSessions(ctx context.Context, userID string) ([]domain.RefreshToken, error) {
	tokens, err := s.repo.ListActiveByUser(ctx, userID, s.Now())
	if err != nil {
		return nil, fmt.Errorf("failed to list active sessions: %w", err)
	}
	return tokens, nil
}
