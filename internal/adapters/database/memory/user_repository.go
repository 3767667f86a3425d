package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/SscSPs/storefront_auth/internal/apperrors"
	"github.com/SscSPs/storefront_auth/internal/core/domain"
	portsrepo "github.com/SscSPs/storefront_auth/internal/core/ports/repositories"
)

var _ portsrepo.UserRepositoryFacade = (*UserRepository)(nil)

// UserRepository enforces the same uniqueness rules as the users table:
// username, lower-cased email, and (provider, provider user id) when set.
type UserRepository struct {
	mu    sync.RWMutex
	users map[string]*domain.User
}

func NewUserRepository() *UserRepository {
	return &UserRepository{users: make(map[string]*domain.User)}
}

func (r *UserRepository) SaveUser(_ context.Context, user domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[user.UserID]; ok {
		return fmt.Errorf("user id %s: %w", user.UserID, apperrors.ErrDuplicate)
	}
	for _, u := range r.users {
		switch {
		case u.Username == user.Username:
			return fmt.Errorf("username %s: %w", user.Username, apperrors.ErrDuplicate)
		case domain.NormalizeEmail(u.Email) == domain.NormalizeEmail(user.Email):
			return fmt.Errorf("email %s: %w", user.Email, apperrors.ErrDuplicate)
		case user.ProviderUserID != nil && u.ProviderUserID != nil &&
			u.AuthProvider == user.AuthProvider && *u.ProviderUserID == *user.ProviderUserID:
			return fmt.Errorf("provider identity: %w", apperrors.ErrDuplicate)
		}
	}
	stored := copyUser(user)
	r.users[user.UserID] = &stored
	return nil
}

func (r *UserRepository) FindUserByID(_ context.Context, userID string) (*domain.User, error) {
	return r.findFirst(func(u *domain.User) bool { return u.UserID == userID })
}

func (r *UserRepository) FindUserByUsername(_ context.Context, username string) (*domain.User, error) {
	return r.findFirst(func(u *domain.User) bool { return u.Username == username })
}

func (r *UserRepository) FindUserByEmail(_ context.Context, email string) (*domain.User, error) {
	want := domain.NormalizeEmail(email)
	return r.findFirst(func(u *domain.User) bool { return domain.NormalizeEmail(u.Email) == want })
}

func (r *UserRepository) FindUserByProviderDetails(_ context.Context, provider domain.AuthProvider, providerUserID string) (*domain.User, error) {
	return r.findFirst(func(u *domain.User) bool {
		return u.AuthProvider == provider && u.ProviderUserID != nil && *u.ProviderUserID == providerUserID
	})
}

func (r *UserRepository) UpdateUser(_ context.Context, user domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.users[user.UserID]
	if !ok {
		return fmt.Errorf("user %s not found: %w", user.UserID, apperrors.ErrNotFound)
	}
	updated := copyUser(user)
	// identity columns are immutable through UpdateUser
	updated.Username = existing.Username
	updated.Email = existing.Email
	updated.PasswordHash = existing.PasswordHash
	updated.AuthProvider = existing.AuthProvider
	updated.ProviderUserID = existing.ProviderUserID
	updated.CreatedAt = existing.CreatedAt
	r.users[user.UserID] = &updated
	return nil
}

func (r *UserRepository) UpdateLastLogin(_ context.Context, userID string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[userID]
	if !ok {
		return fmt.Errorf("user %s not found: %w", userID, apperrors.ErrNotFound)
	}
	t := at
	u.LastLogin = &t
	u.UpdatedAt = at
	return nil
}

func (r *UserRepository) DeleteUser(_ context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[userID]; !ok {
		return fmt.Errorf("user %s not found: %w", userID, apperrors.ErrNotFound)
	}
	delete(r.users, userID)
	return nil
}

func (r *UserRepository) findFirst(match func(*domain.User) bool) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, u := range r.users {
		if match(u) {
			c := copyUser(*u)
			return &c, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func copyUser(u domain.User) domain.User {
	if u.PasswordHash != nil {
		v := *u.PasswordHash
		u.PasswordHash = &v
	}
	if u.ProviderUserID != nil {
		v := *u.ProviderUserID
		u.ProviderUserID = &v
	}
	if u.LastLogin != nil {
		v := *u.LastLogin
		u.LastLogin = &v
	}
	return u
}
