package pgsql

import (
	"context"
	"errors"
	"time"

	"github.com/SscSPs/storefront_auth/internal/core/domain"
	portsrepo "github.com/SscSPs/storefront_auth/internal/core/ports/repositories"
	"github.com/SscSPs/storefront_auth/internal/models"
	"github.com/SscSPs/storefront_auth/internal/utils/mapping"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgxRefreshTokenRepository struct {
	BaseRepository
}

// newPgxRefreshTokenRepository creates a new instance of PgxRefreshTokenRepository
func newPgxRefreshTokenRepository(db *pgxpool.Pool) *PgxRefreshTokenRepository {
	return &PgxRefreshTokenRepository{BaseRepository: BaseRepository{Pool: db}}
}

var _ portsrepo.RefreshTokenRepositoryFacade = (*PgxRefreshTokenRepository)(nil)

// Every transition is a single conditional UPDATE guarded by revoked = false,
// so concurrent callers serialize on the row lock and RowsAffected tells the
// winner apart.
const (
	refreshTokensTable = "refresh_tokens"

	selectRefreshTokenFields = `
		id, token_hash, user_id, expires_at, created_at,
		revoked, revoked_at, replaced_by_token_hash
	`

	insertRefreshTokenQuery = `
		INSERT INTO ` + refreshTokensTable + ` (
			id, token_hash, user_id, expires_at, created_at, revoked
		) VALUES ($1, $2, $3, $4, $5, false)
	`

	findRefreshTokenByHashQuery = `
		SELECT ` + selectRefreshTokenFields + `
		FROM ` + refreshTokensTable + `
		WHERE token_hash = $1
	`

	listActiveRefreshTokensQuery = `
		SELECT ` + selectRefreshTokenFields + `
		FROM ` + refreshTokensTable + `
		WHERE user_id = $1 AND revoked = false AND expires_at > $2
		ORDER BY created_at ASC, id ASC
	`

	countActiveRefreshTokensQuery = `
		SELECT count(*)
		FROM ` + refreshTokensTable + `
		WHERE user_id = $1 AND revoked = false AND expires_at > $2
	`

	revokeRefreshTokenQuery = `
		UPDATE ` + refreshTokensTable + `
		SET revoked = true, revoked_at = $2
		WHERE id = $1 AND revoked = false
	`

	markRefreshTokenRotatedQuery = `
		UPDATE ` + refreshTokensTable + `
		SET revoked = true, revoked_at = $3, replaced_by_token_hash = $2
		WHERE id = $1 AND revoked = false
	`

	revokeAllRefreshTokensForUserQuery = `
		UPDATE ` + refreshTokensTable + `
		SET revoked = true, revoked_at = $2
		WHERE user_id = $1 AND revoked = false
	`

	deleteExpiredRefreshTokensQuery = `
		DELETE FROM ` + refreshTokensTable + `
		WHERE expires_at <= $1
	`

	deleteRevokedRefreshTokensQuery = `
		DELETE FROM ` + refreshTokensTable + `
		WHERE revoked = true AND revoked_at < $1
	`

	deleteRefreshTokensForUserQuery = `
		DELETE FROM ` + refreshTokensTable + `
		WHERE user_id = $1
	`
)

// Create persists a new refresh token
func (r *PgxRefreshTokenRepository) Create(ctx context.Context, token *domain.RefreshToken) error {
	if token == nil {
		return errors.New("token cannot be nil")
	}
	m := mapping.ToModelRefreshToken(*token)
	_, err := r.exec(ctx, insertRefreshTokenQuery, m.ID, m.TokenHash, m.UserID, m.ExpiresAt, m.CreatedAt)
	return mapError(err, "failed to insert refresh token")
}

// FindByTokenHash retrieves a token by its hash regardless of state
func (r *PgxRefreshTokenRepository) FindByTokenHash(ctx context.Context, tokenHash string) (*domain.RefreshToken, error) {
	m, err := scanRefreshToken(r.queryRow(ctx, findRefreshTokenByHashQuery, tokenHash))
	if err != nil {
		return nil, mapError(err, "failed to find refresh token")
	}
	t := mapping.ToDomainRefreshToken(*m)
	return &t, nil
}

func (r *PgxRefreshTokenRepository) ListActiveByUser(ctx context.Context, userID string, now time.Time) ([]domain.RefreshToken, error) {
	rows, err := r.query(ctx, listActiveRefreshTokensQuery, userID, now)
	if err != nil {
		return nil, mapError(err, "failed to list active refresh tokens")
	}
	defer rows.Close()

	var tokens []models.RefreshToken
	for rows.Next() {
		m, err := scanRefreshToken(rows)
		if err != nil {
			return nil, mapError(err, "failed to scan refresh token row")
		}
		tokens = append(tokens, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err, "error iterating refresh token rows")
	}
	return mapping.ToDomainRefreshTokenSlice(tokens), nil
}

func (r *PgxRefreshTokenRepository) CountActiveByUser(ctx context.Context, userID string, now time.Time) (int, error) {
	var count int
	if err := r.queryRow(ctx, countActiveRefreshTokensQuery, userID, now).Scan(&count); err != nil {
		return 0, mapError(err, "failed to count active refresh tokens")
	}
	return count, nil
}

func (r *PgxRefreshTokenRepository) Revoke(ctx context.Context, tokenID string, now time.Time) (bool, error) {
	cmdTag, err := r.exec(ctx, revokeRefreshTokenQuery, tokenID, now)
	if err != nil {
		return false, mapError(err, "failed to revoke refresh token")
	}
	return cmdTag.RowsAffected() == 1, nil
}

func (r *PgxRefreshTokenRepository) MarkRotated(ctx context.Context, tokenID string, replacedByHash string, now time.Time) (bool, error) {
	cmdTag, err := r.exec(ctx, markRefreshTokenRotatedQuery, tokenID, replacedByHash, now)
	if err != nil {
		return false, mapError(err, "failed to mark refresh token rotated")
	}
	return cmdTag.RowsAffected() == 1, nil
}

func (r *PgxRefreshTokenRepository) RevokeAllForUser(ctx context.Context, userID string, now time.Time) (int64, error) {
	cmdTag, err := r.exec(ctx, revokeAllRefreshTokensForUserQuery, userID, now)
	if err != nil {
		return 0, mapError(err, "failed to revoke refresh tokens for user")
	}
	return cmdTag.RowsAffected(), nil
}

func (r *PgxRefreshTokenRepository) DeleteExpiredBefore(ctx context.Context, now time.Time) (int64, error) {
	cmdTag, err := r.exec(ctx, deleteExpiredRefreshTokensQuery, now)
	if err != nil {
		return 0, mapError(err, "failed to delete expired refresh tokens")
	}
	return cmdTag.RowsAffected(), nil
}

func (r *PgxRefreshTokenRepository) DeleteRevokedOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	cmdTag, err := r.exec(ctx, deleteRevokedRefreshTokensQuery, cutoff)
	if err != nil {
		return 0, mapError(err, "failed to delete revoked refresh tokens")
	}
	return cmdTag.RowsAffected(), nil
}

func (r *PgxRefreshTokenRepository) DeleteAllForUser(ctx context.Context, userID string) (int64, error) {
	cmdTag, err := r.exec(ctx, deleteRefreshTokensForUserQuery, userID)
	if err != nil {
		return 0, mapError(err, "failed to delete refresh tokens for user")
	}
	return cmdTag.RowsAffected(), nil
}

// scanRefreshToken scans a refresh token from a row
func scanRefreshToken(row pgx.Row) (*models.RefreshToken, error) {
	var m models.RefreshToken
	err := row.Scan(
		&m.ID,
		&m.TokenHash,
		&m.UserID,
		&m.ExpiresAt,
		&m.CreatedAt,
		&m.Revoked,
		&m.RevokedAt,
		&m.ReplacedByTokenHash,
	)
	if err != nil {
		return nil, err
	}
	return &m, nil
}
