package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/SscSPs/storefront_auth/internal/apperrors"
	"github.com/SscSPs/storefront_auth/internal/core/domain"
	portsrepo "github.com/SscSPs/storefront_auth/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/storefront_auth/internal/core/ports/services"
	"github.com/google/uuid"
)

const (
	maxResolveAttempts   = 3
	maxUsernameAttempts  = 1000
	fallbackUsernameBase = "user"
)

type oauthResolver struct {
	BaseService
	userRepo portsrepo.UserRepositoryFacade
	newID    func() string
}

// OAuthResolverOption configures the resolver.
type OAuthResolverOption func(*oauthResolver)

func WithResolverClock(now func() time.Time) OAuthResolverOption {
	return func(r *oauthResolver) { r.setClock(now) }
}

// NewOAuthResolver creates the resolver that links verified provider
// identities to local users.
func NewOAuthResolver(userRepo portsrepo.UserRepositoryFacade, opts ...OAuthResolverOption) portssvc.OAuthResolverSvc {
	r := &oauthResolver{userRepo: userRepo, newID: uuid.NewString}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

var _ portssvc.OAuthResolverSvc = (*oauthResolver)(nil)

func (r *oauthResolver) Resolve(ctx context.Context, input domain.OAuthLoginInput, assertion domain.VerifiedAssertion) (*domain.User, error) {
	if err := checkAssertion(input, assertion); err != nil {
		r.LogWarn(ctx, "OAuth assertion rejected",
			slog.String("provider", string(input.Provider)), slog.String("error", err.Error()))
		return nil, err
	}

	now := r.Now()
	for attempt := 1; ; attempt++ {
		user, err := r.resolveOnce(ctx, input, assertion, now)
		if err == nil {
			return user, nil
		}
		// a concurrent first login for the same identity won the insert
		if !errors.Is(err, errCreateRace) || attempt >= maxResolveAttempts {
			return nil, err
		}
		r.LogDebug(ctx, "Retrying OAuth resolution after insert race", slog.Int("attempt", attempt))
	}
}

var errCreateRace = fmt.Errorf("concurrent oauth account creation: %w", apperrors.ErrDuplicate)

func checkAssertion(input domain.OAuthLoginInput, assertion domain.VerifiedAssertion) error {
	switch {
	case !input.Provider.IsOAuth():
		return fmt.Errorf("provider %q cannot be used for oauth login: %w", input.Provider, apperrors.ErrValidation)
	case input.ProviderUserID == "" || input.Email == "":
		return fmt.Errorf("provider id and email are required: %w", apperrors.ErrValidation)
	case assertion.Provider != input.Provider:
		return fmt.Errorf("token issued by %s, claimed %s: %w", assertion.Provider, input.Provider, apperrors.ErrAssertionMismatch)
	case assertion.Subject != input.ProviderUserID:
		return fmt.Errorf("subject mismatch: %w", apperrors.ErrAssertionMismatch)
	case strings.TrimSpace(assertion.Email) == "":
		return fmt.Errorf("verified token carries no email: %w", apperrors.ErrAssertionMismatch)
	case !strings.EqualFold(strings.TrimSpace(assertion.Email), strings.TrimSpace(input.Email)):
		return fmt.Errorf("email mismatch: %w", apperrors.ErrAssertionMismatch)
	}
	return nil
}

func (r *oauthResolver) resolveOnce(ctx context.Context, input domain.OAuthLoginInput, assertion domain.VerifiedAssertion, now time.Time) (*domain.User, error) {
	user, err := r.userRepo.FindUserByProviderDetails(ctx, input.Provider, input.ProviderUserID)
	switch {
	case err == nil:
		return r.refreshLinkedUser(ctx, user, input, assertion, now)
	case !errors.Is(err, apperrors.ErrNotFound):
		return nil, fmt.Errorf("failed to look up provider identity: %w", err)
	}

	existing, err := r.userRepo.FindUserByEmail(ctx, input.Email)
	switch {
	case err == nil:
		return nil, emailConflict(existing, input)
	case !errors.Is(err, apperrors.ErrNotFound):
		return nil, fmt.Errorf("failed to look up user by email: %w", err)
	}

	return r.createLinkedUser(ctx, input, assertion, now)
}

// emailConflict explains why an email owned by another identity cannot be
// taken over by this login.
func emailConflict(existing *domain.User, input domain.OAuthLoginInput) error {
	switch {
	case existing.AuthProvider == domain.ProviderLocal || existing.AuthProvider == "":
		return fmt.Errorf("email %s is registered with a password, use password login: %w", input.Email, apperrors.ErrDuplicate)
	case existing.AuthProvider != input.Provider:
		return fmt.Errorf("email %s is already registered with %s: %w", input.Email, existing.AuthProvider, apperrors.ErrDuplicate)
	default:
		return fmt.Errorf("email %s is linked to a different %s account: %w", input.Email, input.Provider, apperrors.ErrDuplicate)
	}
}

func (r *oauthResolver) refreshLinkedUser(ctx context.Context, user *domain.User, input domain.OAuthLoginInput, assertion domain.VerifiedAssertion, now time.Time) (*domain.User, error) {
	if v := firstNonEmpty(input.FirstName, assertion.GivenName); v != "" {
		user.FirstName = v
	}
	if v := firstNonEmpty(input.LastName, assertion.FamilyName); v != "" {
		user.LastName = v
	}
	if v := firstNonEmpty(input.ProfileImageURL, assertion.Picture); v != "" {
		user.ProfileImageURL = v
	}
	// the provider vouched for the address
	user.EmailVerified = true
	user.LastLogin = &now
	user.UpdatedAt = now

	if err := r.userRepo.UpdateUser(ctx, *user); err != nil {
		r.LogError(ctx, err, "Failed to update oauth user", slog.String("user_id", user.UserID))
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	r.LogInfo(ctx, "OAuth login for linked user", slog.String("user_id", user.UserID), slog.String("provider", string(input.Provider)))
	return user, nil
}

func (r *oauthResolver) createLinkedUser(ctx context.Context, input domain.OAuthLoginInput, assertion domain.VerifiedAssertion, now time.Time) (*domain.User, error) {
	username, err := r.uniqueUsername(ctx, input.Email)
	if err != nil {
		return nil, err
	}

	providerUserID := input.ProviderUserID
	user := domain.User{
		UserID:                r.newID(),
		Username:              username,
		Email:                 domain.NormalizeEmail(input.Email),
		FirstName:             firstNonEmpty(input.FirstName, assertion.GivenName),
		LastName:              firstNonEmpty(input.LastName, assertion.FamilyName),
		ProfileImageURL:       firstNonEmpty(input.ProfileImageURL, assertion.Picture),
		Role:                  domain.RoleUser,
		AuthProvider:          input.Provider,
		ProviderUserID:        &providerUserID,
		EmailVerified:         true,
		Enabled:               true,
		AccountNonLocked:      true,
		AccountNonExpired:     true,
		CredentialsNonExpired: true,
		CreatedAt:             now,
		UpdatedAt:             now,
		LastLogin:             &now,
	}

	if err := r.userRepo.SaveUser(ctx, user); err != nil {
		if errors.Is(err, apperrors.ErrDuplicate) {
			return nil, errCreateRace
		}
		r.LogError(ctx, err, "Failed to create oauth user", slog.String("provider", string(input.Provider)))
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	r.LogInfo(ctx, "Created user from oauth login", slog.String("user_id", user.UserID), slog.String("provider", string(input.Provider)))
	return &user, nil
}

// uniqueUsername derives a username from the email local part and appends
// the first free numeric suffix.
func (r *oauthResolver) uniqueUsername(ctx context.Context, email string) (string, error) {
	base := UsernameBase(email)
	candidate := base
	for i := 1; i <= maxUsernameAttempts; i++ {
		_, err := r.userRepo.FindUserByUsername(ctx, candidate)
		if errors.Is(err, apperrors.ErrNotFound) {
			return candidate, nil
		}
		if err != nil {
			return "", fmt.Errorf("failed to check username availability: %w", err)
		}
		candidate = base + strconv.Itoa(i)
	}
	return "", fmt.Errorf("no free username for %s: %w", base, apperrors.ErrDuplicate)
}

// UsernameBase keeps the ASCII letters and digits of the email local part.
func UsernameBase(email string) string {
	local, _, _ := strings.Cut(email, "@")
	var b strings.Builder
	for _, c := range local {
		if (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') {
			b.WriteRune(c)
		}
	}
	if b.Len() == 0 {
		return fallbackUsernameBase
	}
	return b.String()
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
