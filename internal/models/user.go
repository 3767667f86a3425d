package models

import (
	"database/sql"
	"time"
)

// User is the database row of a user.
// Nullable columns use sql.Null* so rows scan without pointer juggling.
type User struct {
	UserID          string         `db:"user_id"`
	Username        string         `db:"username"`
	Email           string         `db:"email"`
	PasswordHash    sql.NullString `db:"password_hash"`
	FirstName       string         `db:"first_name"`
	LastName        string         `db:"last_name"`
	PhoneNumber     sql.NullString `db:"phone_number"`
	ProfileImageURL sql.NullString `db:"profile_image_url"`
	Role            string         `db:"role"`
	AuthProvider    string         `db:"auth_provider"`
	ProviderUserID  sql.NullString `db:"provider_user_id"`

	EmailVerified         bool `db:"email_verified"`
	Enabled               bool `db:"enabled"`
	AccountNonLocked      bool `db:"account_non_locked"`
	AccountNonExpired     bool `db:"account_non_expired"`
	CredentialsNonExpired bool `db:"credentials_non_expired"`

	CreatedAt time.Time    `db:"created_at"`
	UpdatedAt time.Time    `db:"updated_at"`
	LastLogin sql.NullTime `db:"last_login"`
}
