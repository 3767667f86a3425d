package dto

import (
	"time"

	"github.com/SscSPs/storefront_auth/internal/core/domain"
)

type UserResponse struct {
	UserID          string              `json:"userID"`
	Username        string              `json:"username"`
	Email           string              `json:"email"`
	FirstName       string              `json:"firstName"`
	LastName        string              `json:"lastName"`
	ProfileImageURL string              `json:"profileImageUrl,omitempty"`
	Role            domain.Role         `json:"role"`
	AuthProvider    domain.AuthProvider `json:"authProvider"`
	EmailVerified   bool                `json:"emailVerified"`
	Permissions     []domain.Permission `json:"permissions"`
	LastLogin       *time.Time          `json:"lastLogin,omitempty"`
}

func ToUserResponse(user *domain.User) UserResponse {
	return UserResponse{
		UserID:          user.UserID,
		Username:        user.Username,
		Email:           user.Email,
		FirstName:       user.FirstName,
		LastName:        user.LastName,
		ProfileImageURL: user.ProfileImageURL,
		Role:            user.Role,
		AuthProvider:    user.AuthProvider,
		EmailVerified:   user.EmailVerified,
		Permissions:     domain.PermissionsFor(user.Role),
		LastLogin:       user.LastLogin,
	}
}

// SessionResponse describes one active refresh token without exposing its hash.
type SessionResponse struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// ListSessionsResponse wraps the list of sessions.
type ListSessionsResponse struct {
	Sessions []SessionResponse `json:"sessions"`
}

// ToListSessionsResponse converts a slice of domain.RefreshToken to ListSessionsResponse DTO
func ToListSessionsResponse(tokens []domain.RefreshToken) ListSessionsResponse {
	sessions := make([]SessionResponse, len(tokens))
	for i, t := range tokens {
		sessions[i] = SessionResponse{ID: t.ID, CreatedAt: t.CreatedAt, ExpiresAt: t.ExpiresAt}
	}
	return ListSessionsResponse{Sessions: sessions}
}
