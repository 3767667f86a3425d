package domain

import "time"

// TokenState is the lifecycle state of a refresh token, derived from its fields.
type TokenState string

const (
	TokenActive  TokenState = "ACTIVE"
	TokenRotated TokenState = "ROTATED"
	TokenRevoked TokenState = "REVOKED"
	TokenExpired TokenState = "EXPIRED"
)

// RefreshToken is a persisted session credential. Only the hash of the
// secret is ever stored.
type RefreshToken struct {
	ID                  string     `json:"id"` // ULID
	TokenHash           string     `json:"-"`
	UserID              string     `json:"userID"`
	ExpiresAt           time.Time  `json:"expiresAt"`
	CreatedAt           time.Time  `json:"createdAt"`
	Revoked             bool       `json:"revoked"`
	RevokedAt           *time.Time `json:"revokedAt,omitempty"`
	ReplacedByTokenHash *string    `json:"-"`
}

// State classifies the token at the given instant. Revocation wins over
// expiry so a replayed token reports why it was invalidated.
func (t *RefreshToken) State(now time.Time) TokenState {
	switch {
	case t.Revoked && t.ReplacedByTokenHash != nil:
		return TokenRotated
	case t.Revoked:
		return TokenRevoked
	case !now.Before(t.ExpiresAt):
		return TokenExpired
	default:
		return TokenActive
	}
}

func (t *RefreshToken) IsActive(now time.Time) bool {
	return t.State(now) == TokenActive
}

// CleanupResult reports what a janitor pass removed.
type CleanupResult struct {
	ExpiredDeleted int64 `json:"expiredDeleted"`
	RevokedDeleted int64 `json:"revokedDeleted"`
}

func (r CleanupResult) Total() int64 {
	return r.ExpiredDeleted + r.RevokedDeleted
}
