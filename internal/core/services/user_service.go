package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/SscSPs/storefront_auth/internal/apperrors"
	"github.com/SscSPs/storefront_auth/internal/core/domain"
	portsrepo "github.com/SscSPs/storefront_auth/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/storefront_auth/internal/core/ports/services"
	"github.com/SscSPs/storefront_auth/internal/dto"
	"github.com/SscSPs/storefront_auth/internal/utils"
	"github.com/google/uuid"
)

// UserService owns the user directory and the account lifecycle.
type UserService struct {
	BaseService
	userRepo  portsrepo.UserRepositoryFacade
	tokenRepo portsrepo.RefreshTokenCleaner
}

// UserServiceOption configures the user service.
type UserServiceOption func(*UserService)

func WithUserClock(now func() time.Time) UserServiceOption {
	return func(s *UserService) { s.setClock(now) }
}

// WithRefreshTokenCleaner lets DeleteUser remove the user's refresh tokens first.
func WithRefreshTokenCleaner(repo portsrepo.RefreshTokenCleaner) UserServiceOption {
	return func(s *UserService) { s.tokenRepo = repo }
}

func NewUserService(userRepo portsrepo.UserRepositoryFacade, opts ...UserServiceOption) *UserService {
	s := &UserService{userRepo: userRepo}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var _ portssvc.UserSvcFacade = (*UserService)(nil)

// CreateUser registers a local account with a bcrypt password hash.
func (s *UserService) CreateUser(ctx context.Context, req dto.RegisterRequest) (*domain.User, error) {
	if req.Password == "" {
		return nil, fmt.Errorf("password is required: %w", apperrors.ErrValidation)
	}
	if req.ConfirmPassword != "" && req.ConfirmPassword != req.Password {
		return nil, fmt.Errorf("passwords do not match: %w", apperrors.ErrValidation)
	}
	username := strings.TrimSpace(req.Username)
	email := domain.NormalizeEmail(req.Email)

	if err := s.ensureAvailable(ctx, username, email); err != nil {
		return nil, err
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		s.LogError(ctx, err, "Failed to hash password")
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := s.Now()
	user := domain.User{
		UserID:                uuid.NewString(),
		Username:              username,
		Email:                 email,
		PasswordHash:          &hash,
		FirstName:             strings.TrimSpace(req.FirstName),
		LastName:              strings.TrimSpace(req.LastName),
		PhoneNumber:           strings.TrimSpace(req.PhoneNumber),
		Role:                  domain.RoleUser,
		AuthProvider:          domain.ProviderLocal,
		Enabled:               true,
		AccountNonLocked:      true,
		AccountNonExpired:     true,
		CredentialsNonExpired: true,
		CreatedAt:             now,
		UpdatedAt:             now,
	}

	if err := s.userRepo.SaveUser(ctx, user); err != nil {
		if !errors.Is(err, apperrors.ErrDuplicate) {
			s.LogError(ctx, err, "Failed to save user", slog.String("username", username))
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.LogInfo(ctx, "User registered", slog.String("user_id", user.UserID))
	return &user, nil
}

func (s *UserService) ensureAvailable(ctx context.Context, username, email string) error {
	if _, err := s.userRepo.FindUserByUsername(ctx, username); err == nil {
		return fmt.Errorf("username %s is already taken: %w", username, apperrors.ErrDuplicate)
	} else if !errors.Is(err, apperrors.ErrNotFound) {
		return fmt.Errorf("failed to check username: %w", err)
	}
	if _, err := s.userRepo.FindUserByEmail(ctx, email); err == nil {
		return fmt.Errorf("email %s is already registered: %w", email, apperrors.ErrDuplicate)
	} else if !errors.Is(err, apperrors.ErrNotFound) {
		return fmt.Errorf("failed to check email: %w", err)
	}
	return nil
}

func (s *UserService) GetUserByID(ctx context.Context, userID string) (*domain.User, error) {
	user, err := s.userRepo.FindUserByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user by ID in service: %w", err)
	}
	return user, nil
}

// AuthenticateUser verifies the password before looking at account flags so
// that a wrong password never reveals whether an account is disabled.
func (s *UserService) AuthenticateUser(ctx context.Context, usernameOrEmail, password string) (*domain.User, error) {
	user, err := s.findByLogin(ctx, strings.TrimSpace(usernameOrEmail))
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	if !user.HasPassword() || !utils.CheckPasswordHash(password, *user.PasswordHash) {
		s.LogWarn(ctx, "Password login failed", slog.String("user_id", user.UserID))
		return nil, apperrors.ErrInvalidCredentials
	}
	if !user.CanAuthenticate() {
		s.LogWarn(ctx, "Login attempt on disabled account", slog.String("user_id", user.UserID))
		return nil, apperrors.ErrAccountDisabled
	}

	now := s.Now()
	if err := s.userRepo.UpdateLastLogin(ctx, user.UserID, now); err != nil {
		s.LogError(ctx, err, "Failed to stamp last login", slog.String("user_id", user.UserID))
		return nil, fmt.Errorf("failed to update last login: %w", err)
	}
	user.LastLogin = &now
	user.UpdatedAt = now
	return user, nil
}

func (s *UserService) findByLogin(ctx context.Context, usernameOrEmail string) (*domain.User, error) {
	if usernameOrEmail == "" {
		return nil, apperrors.ErrNotFound
	}
	user, err := s.userRepo.FindUserByUsername(ctx, usernameOrEmail)
	if err == nil || !errors.Is(err, apperrors.ErrNotFound) || !strings.Contains(usernameOrEmail, "@") {
		return user, err
	}
	return s.userRepo.FindUserByEmail(ctx, usernameOrEmail)
}

// DeleteUser removes the account. Users may only delete themselves unless
// the requester is an admin.
func (s *UserService) DeleteUser(ctx context.Context, userID string, requestingUserID string) error {
	if userID != requestingUserID {
		requester, err := s.userRepo.FindUserByID(ctx, requestingUserID)
		if err != nil || requester.Role != domain.RoleAdmin {
			return fmt.Errorf("cannot delete another user's account: %w", apperrors.ErrUnauthorized)
		}
	}
	if _, err := s.userRepo.FindUserByID(ctx, userID); err != nil {
		return fmt.Errorf("failed to find user to delete: %w", err)
	}

	if s.tokenRepo != nil {
		n, err := s.tokenRepo.DeleteAllForUser(ctx, userID)
		if err != nil {
			s.LogError(ctx, err, "Failed to delete refresh tokens of user", slog.String("user_id", userID))
			return fmt.Errorf("failed to delete refresh tokens: %w", err)
		}
		s.LogDebug(ctx, "Deleted refresh tokens of user", slog.String("user_id", userID), slog.Int64("deleted", n))
	}

	if err := s.userRepo.DeleteUser(ctx, userID); err != nil {
		s.LogError(ctx, err, "Failed to delete user", slog.String("user_id", userID))
		return fmt.Errorf("failed to delete user: %w", err)
	}
	s.LogInfo(ctx, "User deleted", slog.String("user_id", userID), slog.String("deleted_by", requestingUserID))
	return nil
}
