package mapping

import (
	"database/sql"
	"time"

	"github.com/SscSPs/storefront_auth/internal/core/domain"
	"github.com/SscSPs/storefront_auth/internal/models"
)

// ToModelUser converts a domain User to a model User
func ToModelUser(d domain.User) models.User {
	m := models.User{
		UserID:                d.UserID,
		Username:              d.Username,
		Email:                 d.Email,
		PasswordHash:          nullString(d.PasswordHash),
		FirstName:             d.FirstName,
		LastName:              d.LastName,
		PhoneNumber:           sql.NullString{String: d.PhoneNumber, Valid: d.PhoneNumber != ""},
		ProfileImageURL:       sql.NullString{String: d.ProfileImageURL, Valid: d.ProfileImageURL != ""},
		Role:                  string(d.Role),
		AuthProvider:          string(d.AuthProvider),
		ProviderUserID:        nullString(d.ProviderUserID),
		EmailVerified:         d.EmailVerified,
		Enabled:               d.Enabled,
		AccountNonLocked:      d.AccountNonLocked,
		AccountNonExpired:     d.AccountNonExpired,
		CredentialsNonExpired: d.CredentialsNonExpired,
		CreatedAt:             d.CreatedAt,
		UpdatedAt:             d.UpdatedAt,
	}
	if d.LastLogin != nil {
		m.LastLogin = sql.NullTime{Time: *d.LastLogin, Valid: true}
	}
	return m
}

// ToDomainUser converts a model User to a domain User
func ToDomainUser(m models.User) domain.User {
	d := domain.User{
		UserID:                m.UserID,
		Username:              m.Username,
		Email:                 m.Email,
		PasswordHash:          stringPtr(m.PasswordHash),
		FirstName:             m.FirstName,
		LastName:              m.LastName,
		PhoneNumber:           m.PhoneNumber.String,
		ProfileImageURL:       m.ProfileImageURL.String,
		Role:                  domain.Role(m.Role),
		AuthProvider:          domain.AuthProvider(m.AuthProvider),
		ProviderUserID:        stringPtr(m.ProviderUserID),
		EmailVerified:         m.EmailVerified,
		Enabled:               m.Enabled,
		AccountNonLocked:      m.AccountNonLocked,
		AccountNonExpired:     m.AccountNonExpired,
		CredentialsNonExpired: m.CredentialsNonExpired,
		CreatedAt:             m.CreatedAt.UTC(),
		UpdatedAt:             m.UpdatedAt.UTC(),
	}
	if m.LastLogin.Valid {
		t := m.LastLogin.Time.UTC()
		d.LastLogin = &t
	}
	return d
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
