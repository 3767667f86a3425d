package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/SscSPs/storefront_auth/internal/core/domain"
	portsrepo "github.com/SscSPs/storefront_auth/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/storefront_auth/internal/core/ports/services"
	"github.com/SscSPs/storefront_auth/internal/middleware"
	"github.com/SscSPs/storefront_auth/internal/platform/metrics"
)

// JanitorConfig controls the cleanup schedule.
type JanitorConfig struct {
	Interval         time.Duration
	RevokedRetention time.Duration
	RunOnStart       bool
}

type sessionJanitor struct {
	BaseService
	repo    portsrepo.RefreshTokenCleaner
	cfg     JanitorConfig
	logger  *slog.Logger
	metrics *metrics.AuthMetrics
}

// JanitorOption configures the session janitor.
type JanitorOption func(*sessionJanitor)

func WithJanitorClock(now func() time.Time) JanitorOption {
	return func(j *sessionJanitor) { j.setClock(now) }
}

func WithJanitorLogger(logger *slog.Logger) JanitorOption {
	return func(j *sessionJanitor) {
		if logger != nil {
			j.logger = logger
		}
	}
}

func WithJanitorMetrics(m *metrics.AuthMetrics) JanitorOption {
	return func(j *sessionJanitor) { j.metrics = m }
}

// NewSessionJanitor creates the background cleaner of terminal refresh tokens.
func NewSessionJanitor(repo portsrepo.RefreshTokenCleaner, cfg JanitorConfig, opts ...JanitorOption) portssvc.SessionJanitorSvc {
	if cfg.Interval <= 0 {
		cfg.Interval = 24 * time.Hour
	}
	if cfg.RevokedRetention < 0 {
		cfg.RevokedRetention = 0
	}
	j := &sessionJanitor{repo: repo, cfg: cfg, logger: slog.Default()}
	for _, opt := range opts {
		opt(j)
	}
	return j
}

var _ portssvc.SessionJanitorSvc = (*sessionJanitor)(nil)

// RunOnce deletes expired tokens, then revoked tokens older than the retention window.
func (j *sessionJanitor) RunOnce(ctx context.Context) (domain.CleanupResult, error) {
	now := j.Now()
	var result domain.CleanupResult

	expired, err := j.repo.DeleteExpiredBefore(ctx, now)
	if err != nil {
		return result, fmt.Errorf("failed to delete expired refresh tokens: %w", err)
	}
	result.ExpiredDeleted = expired

	revoked, err := j.repo.DeleteRevokedOlderThan(ctx, now.Add(-j.cfg.RevokedRetention))
	if err != nil {
		return result, fmt.Errorf("failed to delete revoked refresh tokens: %w", err)
	}
	result.RevokedDeleted = revoked

	j.metrics.JanitorDeleted(expired, revoked)
	return result, nil
}

// Run sweeps on every tick until ctx is cancelled. A failed pass is logged
// and retried on the next tick.
func (j *sessionJanitor) Run(ctx context.Context) {
	logger := j.logger.With(slog.String("component", "session_janitor"))
	ctx = middleware.WithLogger(ctx, logger)
	logger.Info("Session janitor started",
		slog.Duration("interval", j.cfg.Interval),
		slog.Duration("revoked_retention", j.cfg.RevokedRetention))

	if j.cfg.RunOnStart {
		j.sweep(ctx, logger)
	}

	ticker := time.NewTicker(j.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("Session janitor stopped")
			return
		case <-ticker.C:
			j.sweep(ctx, logger)
		}
	}
}

func (j *sessionJanitor) sweep(ctx context.Context, logger *slog.Logger) {
	result, err := j.RunOnce(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		j.metrics.JanitorFailed()
		logger.Error("Refresh token cleanup failed", slog.String("error", err.Error()))
		return
	}
	logger.Info("Refresh token cleanup finished",
		slog.Int64("expired_deleted", result.ExpiredDeleted),
		slog.Int64("revoked_deleted", result.RevokedDeleted))
}
