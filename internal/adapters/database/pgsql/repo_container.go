package pgsql

import (
	portsrepo "github.com/SscSPs/storefront_auth/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5/pgxpool"
)

func NewRepositoryProvider(dbPool *pgxpool.Pool) portsrepo.RepositoryProvider {
	userRepo := newPgxUserRepository(dbPool)
	refreshTokenRepo := newPgxRefreshTokenRepository(dbPool)

	return portsrepo.RepositoryProvider{
		UserRepo:         userRepo,
		RefreshTokenRepo: refreshTokenRepo,
		Pinger:           &userRepo.BaseRepository,
	}
}
