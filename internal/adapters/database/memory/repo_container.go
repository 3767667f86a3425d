package memory

import (
	portsrepo "github.com/SscSPs/storefront_auth/internal/core/ports/repositories"
)

func NewRepositoryProvider() portsrepo.RepositoryProvider {
	return portsrepo.RepositoryProvider{
		UserRepo:         NewUserRepository(),
		RefreshTokenRepo: NewRefreshTokenRepository(),
	}
}
