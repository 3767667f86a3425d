package domain

import "time"

// AuthResult is what a successful login, registration or refresh hands back
// to the transport layer. RefreshToken is the raw secret and must only be
// delivered to the client, never logged.
type AuthResult struct {
	User                  *User
	AccessToken           string
	AccessTokenExpiresAt  time.Time
	RefreshToken          string
	RefreshTokenExpiresAt time.Time
}
