package models

import "time"

// RefreshToken is the database row of a refresh token.
type RefreshToken struct {
	ID                  string     `db:"id"`
	TokenHash           string     `db:"token_hash"`
	UserID              string     `db:"user_id"`
	ExpiresAt           time.Time  `db:"expires_at"`
	CreatedAt           time.Time  `db:"created_at"`
	Revoked             bool       `db:"revoked"`
	RevokedAt           *time.Time `db:"revoked_at"`
	ReplacedByTokenHash *string    `db:"replaced_by_token_hash"`
}
