package pgsql

import (
	"context"
	"fmt"
	"time"

	"github.com/SscSPs/storefront_auth/internal/apperrors"
	"github.com/SscSPs/storefront_auth/internal/core/domain"
	portsrepo "github.com/SscSPs/storefront_auth/internal/core/ports/repositories"
	"github.com/SscSPs/storefront_auth/internal/models"
	"github.com/SscSPs/storefront_auth/internal/utils/mapping"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgxUserRepository struct {
	BaseRepository
}

func newPgxUserRepository(db *pgxpool.Pool) *PgxUserRepository {
	return &PgxUserRepository{BaseRepository: BaseRepository{Pool: db}}
}

// Ensure PgxUserRepository implements portsrepo.UserRepositoryFacade
var _ portsrepo.UserRepositoryFacade = (*PgxUserRepository)(nil)

const (
	selectUserFields = `
		user_id, username, email, password_hash, first_name, last_name,
		phone_number, profile_image_url, role, auth_provider, provider_user_id,
		email_verified, enabled, account_non_locked, account_non_expired,
		credentials_non_expired, created_at, updated_at, last_login
	`

	insertUserQuery = `
		INSERT INTO users (
			user_id, username, email, password_hash, first_name, last_name,
			phone_number, profile_image_url, role, auth_provider, provider_user_id,
			email_verified, enabled, account_non_locked, account_non_expired,
			credentials_non_expired, created_at, updated_at, last_login
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
	`

	findUserByIDQuery = `SELECT ` + selectUserFields + ` FROM users WHERE user_id = $1`

	findUserByUsernameQuery = `SELECT ` + selectUserFields + ` FROM users WHERE username = $1`

	findUserByEmailQuery = `SELECT ` + selectUserFields + ` FROM users WHERE lower(email) = lower($1)`

	findUserByProviderQuery = `
		SELECT ` + selectUserFields + `
		FROM users
		WHERE auth_provider = $1 AND provider_user_id = $2
	`

	updateUserQuery = `
		UPDATE users
		SET first_name = $2, last_name = $3, phone_number = $4, profile_image_url = $5,
			role = $6, email_verified = $7, enabled = $8, account_non_locked = $9,
			account_non_expired = $10, credentials_non_expired = $11,
			updated_at = $12, last_login = $13
		WHERE user_id = $1
	`

	updateLastLoginQuery = `UPDATE users SET last_login = $2, updated_at = $2 WHERE user_id = $1`

	deleteUserQuery = `DELETE FROM users WHERE user_id = $1`
)

func (r *PgxUserRepository) SaveUser(ctx context.Context, user domain.User) error {
	m := mapping.ToModelUser(user)
	_, err := r.exec(ctx, insertUserQuery,
		m.UserID, m.Username, m.Email, m.PasswordHash, m.FirstName, m.LastName,
		m.PhoneNumber, m.ProfileImageURL, m.Role, m.AuthProvider, m.ProviderUserID,
		m.EmailVerified, m.Enabled, m.AccountNonLocked, m.AccountNonExpired,
		m.CredentialsNonExpired, m.CreatedAt, m.UpdatedAt, m.LastLogin,
	)
	return mapError(err, "failed to save user")
}

func (r *PgxUserRepository) FindUserByID(ctx context.Context, userID string) (*domain.User, error) {
	return r.findOne(ctx, findUserByIDQuery, userID)
}

func (r *PgxUserRepository) FindUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	return r.findOne(ctx, findUserByUsernameQuery, username)
}

func (r *PgxUserRepository) FindUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.findOne(ctx, findUserByEmailQuery, domain.NormalizeEmail(email))
}

func (r *PgxUserRepository) FindUserByProviderDetails(ctx context.Context, provider domain.AuthProvider, providerUserID string) (*domain.User, error) {
	return r.findOne(ctx, findUserByProviderQuery, string(provider), providerUserID)
}

func (r *PgxUserRepository) UpdateUser(ctx context.Context, user domain.User) error {
	m := mapping.ToModelUser(user)
	cmdTag, err := r.exec(ctx, updateUserQuery,
		m.UserID, m.FirstName, m.LastName, m.PhoneNumber, m.ProfileImageURL,
		m.Role, m.EmailVerified, m.Enabled, m.AccountNonLocked,
		m.AccountNonExpired, m.CredentialsNonExpired, m.UpdatedAt, m.LastLogin,
	)
	if err != nil {
		return mapError(err, "failed to execute update user query")
	}
	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("user %s not found: %w", user.UserID, apperrors.ErrNotFound)
	}
	return nil
}

func (r *PgxUserRepository) UpdateLastLogin(ctx context.Context, userID string, at time.Time) error {
	cmdTag, err := r.exec(ctx, updateLastLoginQuery, userID, at)
	if err != nil {
		return mapError(err, "failed to update last login")
	}
	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("user %s not found: %w", userID, apperrors.ErrNotFound)
	}
	return nil
}

func (r *PgxUserRepository) DeleteUser(ctx context.Context, userID string) error {
	cmdTag, err := r.exec(ctx, deleteUserQuery, userID)
	if err != nil {
		return mapError(err, "failed to delete user")
	}
	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("user %s not found: %w", userID, apperrors.ErrNotFound)
	}
	return nil
}

func (r *PgxUserRepository) findOne(ctx context.Context, sql string, args ...any) (*domain.User, error) {
	m, err := scanUser(r.queryRow(ctx, sql, args...))
	if err != nil {
		return nil, mapError(err, "failed to find user")
	}
	u := mapping.ToDomainUser(*m)
	return &u, nil
}

// scanUser scans a user from a row
func scanUser(row pgx.Row) (*models.User, error) {
	var m models.User
	err := row.Scan(
		&m.UserID, &m.Username, &m.Email, &m.PasswordHash, &m.FirstName, &m.LastName,
		&m.PhoneNumber, &m.ProfileImageURL, &m.Role, &m.AuthProvider, &m.ProviderUserID,
		&m.EmailVerified, &m.Enabled, &m.AccountNonLocked, &m.AccountNonExpired,
		&m.CredentialsNonExpired, &m.CreatedAt, &m.UpdatedAt, &m.LastLogin,
	)
	if err != nil {
		return nil, err
	}
	return &m, nil
}
