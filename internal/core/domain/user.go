package domain

import (
	"fmt"
	"strings"
	"time"
)

// Role is the coarse authorization level of a user.
type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

// AuthProvider identifies where a user's credentials live.
type AuthProvider string

const (
	ProviderLocal     AuthProvider = "LOCAL"
	ProviderGoogle    AuthProvider = "GOOGLE"
	ProviderFacebook  AuthProvider = "FACEBOOK"
	ProviderGithub    AuthProvider = "GITHUB"
	ProviderMicrosoft AuthProvider = "MICROSOFT"
)

// ParseAuthProvider normalizes a provider name received from a client.
func ParseAuthProvider(s string) (AuthProvider, error) {
	p := AuthProvider(strings.ToUpper(strings.TrimSpace(s)))
	switch p {
	case ProviderLocal, ProviderGoogle, ProviderFacebook, ProviderGithub, ProviderMicrosoft:
		return p, nil
	default:
		return "", fmt.Errorf("unknown auth provider %q", s)
	}
}

// IsOAuth reports whether the provider is an external identity provider.
func (p AuthProvider) IsOAuth() bool {
	return p != "" && p != ProviderLocal
}

// User represents a user of the application in the domain.
type User struct {
	UserID          string       `json:"userID"` // UUID
	Username        string       `json:"username"`
	Email           string       `json:"email"` // stored lower-cased
	PasswordHash    *string      `json:"-"`     // nil for OAuth-only accounts
	FirstName       string       `json:"firstName"`
	LastName        string       `json:"lastName"`
	PhoneNumber     string       `json:"phoneNumber,omitempty"`
	ProfileImageURL string       `json:"profileImageUrl,omitempty"`
	Role            Role         `json:"role"`
	AuthProvider    AuthProvider `json:"authProvider"`
	ProviderUserID  *string      `json:"-"`

	EmailVerified         bool `json:"emailVerified"`
	Enabled               bool `json:"enabled"`
	AccountNonLocked      bool `json:"-"`
	AccountNonExpired     bool `json:"-"`
	CredentialsNonExpired bool `json:"-"`

	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
	LastLogin *time.Time `json:"lastLogin,omitempty"`
}

// NormalizeEmail is the canonical form emails are stored and compared in.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// CanAuthenticate reports whether the account flags allow a login.
func (u *User) CanAuthenticate() bool {
	return u.Enabled && u.AccountNonLocked && u.AccountNonExpired && u.CredentialsNonExpired
}

// HasPassword is false for accounts created through an OAuth provider.
func (u *User) HasPassword() bool {
	return u.PasswordHash != nil && *u.PasswordHash != ""
}
