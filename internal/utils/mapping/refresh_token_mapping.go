package mapping

import (
	"github.com/SscSPs/storefront_auth/internal/core/domain"
	"github.com/SscSPs/storefront_auth/internal/models"
)

// ToModelRefreshToken converts a domain RefreshToken to a model RefreshToken
func ToModelRefreshToken(d domain.RefreshToken) models.RefreshToken {
	return models.RefreshToken{
		ID:                  d.ID,
		TokenHash:           d.TokenHash,
		UserID:              d.UserID,
		ExpiresAt:           d.ExpiresAt,
		CreatedAt:           d.CreatedAt,
		Revoked:             d.Revoked,
		RevokedAt:           d.RevokedAt,
		ReplacedByTokenHash: d.ReplacedByTokenHash,
	}
}

// ToDomainRefreshToken converts a model RefreshToken to a domain RefreshToken
func ToDomainRefreshToken(m models.RefreshToken) domain.RefreshToken {
	return domain.RefreshToken{
		ID:                  m.ID,
		TokenHash:           m.TokenHash,
		UserID:              m.UserID,
		ExpiresAt:           m.ExpiresAt.UTC(),
		CreatedAt:           m.CreatedAt.UTC(),
		Revoked:             m.Revoked,
		RevokedAt:           utcPtr(m.RevokedAt),
		ReplacedByTokenHash: m.ReplacedByTokenHash,
	}
}

// ToDomainRefreshTokenSlice converts a slice of model RefreshTokens to a slice of domain RefreshTokens
func ToDomainRefreshTokenSlice(ms []models.RefreshToken) []domain.RefreshToken {
	ds := make([]domain.RefreshToken, len(ms))
	for i, m := range ms {
		ds[i] = ToDomainRefreshToken(m)
	}
	return ds
}
