package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/SscSPs/storefront_auth/internal/adapters/database/memory"
	"github.com/SscSPs/storefront_auth/internal/adapters/database/pgsql"
	"github.com/SscSPs/storefront_auth/internal/core/domain"
	portsrepo "github.com/SscSPs/storefront_auth/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/storefront_auth/internal/core/ports/services"
	"github.com/SscSPs/storefront_auth/internal/core/services"
	"github.com/SscSPs/storefront_auth/internal/handlers"
	"github.com/SscSPs/storefront_auth/internal/middleware"
	"github.com/SscSPs/storefront_auth/internal/platform/config"
	"github.com/SscSPs/storefront_auth/internal/platform/metrics"
	"github.com/SscSPs/storefront_auth/internal/utils"
	"github.com/SscSPs/storefront_auth/pkg/database"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	migrate "github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/jackc/pgx/v5/stdlib"
)

const shutdownTimeout = 10 * time.Second

// @title Storefront Auth API
// @version 1.0
// @description Authentication and session service for the storefront.

// @host localhost:8080
// @BasePath /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	// Initialize structured logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("Failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	repos, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		logger.Error("Failed to initialize store", slog.String("error", err.Error()), slog.String("driver", cfg.StoreDriver))
		os.Exit(1)
	}
	defer closeStore()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	authMetrics := metrics.NewAuthMetrics(registry)

	posthogClient := utils.InitializePosthogClient(cfg.PosthogAPIKey, logger)
	defer posthogClient.Close()

	serviceContainer, err := services.NewServiceContainer(cfg, repos,
		services.WithMetrics(authMetrics),
		services.WithAssertionVerifiers(oidcVerifiers(ctx, cfg, logger)...),
		services.WithLogger(logger),
	)
	if err != nil {
		logger.Error("Failed to initialize services", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if cfg.IsProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(
		gin.Recovery(),
		middleware.StructuredLoggingMiddleware(logger),
		middleware.CORS(cfg.CORSAllowedOrigins),
		middleware.PosthogMiddleware(posthogClient),
	)
	if err := r.SetTrustedProxies(nil); err != nil {
		logger.Error("Failed to set trusted proxies", slog.String("error", err.Error()))
		os.Exit(1)
	}

	err = handlers.RegisterRoutes(r, cfg, serviceContainer, handlers.RouterDeps{
		Pinger:   repos.Pinger,
		Gatherer: registry,
		Posthog:  posthogClient,
	})
	if err != nil {
		logger.Error("Failed to register routes", slog.String("error", err.Error()))
		os.Exit(1)
	}

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	var background sync.WaitGroup
	background.Add(1)
	go func() {
		defer background.Done()
		serviceContainer.Janitor.Run(ctx)
	}()

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("Server starting", slog.String("port", cfg.Port))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case <-ctx.Done():
		logger.Info("Shutdown signal received")
	case err := <-serverErr:
		if err != nil {
			logger.Error("Server failed to run", slog.String("error", err.Error()))
		}
	}
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Graceful shutdown failed", slog.String("error", err.Error()))
	}
	background.Wait()
	logger.Info("Server stopped")
}

// openStore builds the repositories for the configured driver. The returned
// func releases the underlying connections.
func openStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (portsrepo.RepositoryProvider, func(), error) {
	if cfg.StoreDriver == config.StoreDriverMemory {
		logger.Warn("Using in-memory store, data is lost on restart")
		return memory.NewRepositoryProvider(), func() {}, nil
	}

	if cfg.RunMigrations {
		if err := runMigrations(cfg, logger); err != nil {
			return portsrepo.RepositoryProvider{}, nil, err
		}
	}

	dbPool, err := database.NewPgxPool(ctx, cfg.DatabaseURL, database.PoolOptions{})
	if err != nil {
		return portsrepo.RepositoryProvider{}, nil, err
	}
	logger.Info("Database connection pool established.")
	return pgsql.NewRepositoryProvider(dbPool), func() { database.ClosePgxPool(dbPool) }, nil
}

// runMigrations applies every pending "up" migration using a temporary
// database/sql connection on the pgx stdlib driver.
func runMigrations(cfg *config.Config, logger *slog.Logger) error {
	logger.Info("Running database migrations...", slog.String("path", cfg.MigrationsPath))

	migrationDB, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := migrationDB.Close(); cerr != nil {
			logger.Error("Error closing migration DB connection", slog.String("error", cerr.Error()))
		}
	}()
	if err := migrationDB.Ping(); err != nil {
		return err
	}

	driver, err := postgres.WithInstance(migrationDB, &postgres.Config{})
	if err != nil {
		return err
	}
	m, err := migrate.NewWithDatabaseInstance(cfg.MigrationsPath, "postgres", driver)
	if err != nil {
		return err
	}

	upErr := m.Up()
	if upErr != nil && !errors.Is(upErr, migrate.ErrNoChange) {
		return upErr
	}
	if sourceErr, dbErr := m.Close(); sourceErr != nil || dbErr != nil {
		return errors.Join(sourceErr, dbErr)
	}

	if errors.Is(upErr, migrate.ErrNoChange) {
		logger.Info("No new migrations to apply.")
	} else {
		logger.Info("Database migrations applied successfully.")
	}
	return nil
}

// oidcVerifiers discovers every configured OIDC issuer. Providers that fail
// discovery are skipped so one broken issuer does not block the others.
func oidcVerifiers(ctx context.Context, cfg *config.Config, logger *slog.Logger) []portssvc.AssertionVerifier {
	var verifiers []portssvc.AssertionVerifier
	for _, p := range cfg.OIDCProviders {
		provider, err := domain.ParseAuthProvider(p.Name)
		if err != nil {
			logger.Error("Skipping OIDC provider", slog.String("provider", p.Name), slog.String("error", err.Error()))
			continue
		}
		v, err := services.NewOIDCVerifier(ctx, provider, p.IssuerURL, p.ClientID)
		if err != nil {
			logger.Error("Skipping OIDC provider", slog.String("provider", p.Name), slog.String("error", err.Error()))
			continue
		}
		logger.Info("OIDC provider configured", slog.String("provider", string(provider)), slog.String("issuer", p.IssuerURL))
		verifiers = append(verifiers, v)
	}
	return verifiers
}
