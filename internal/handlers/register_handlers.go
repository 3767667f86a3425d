package handlers

import (
	"fmt"

	"github.com/SscSPs/storefront_auth/cmd/docs"
	portsrepo "github.com/SscSPs/storefront_auth/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/storefront_auth/internal/core/ports/services"
	"github.com/SscSPs/storefront_auth/internal/dto"
	"github.com/SscSPs/storefront_auth/internal/middleware"
	"github.com/SscSPs/storefront_auth/internal/platform/config"
	"github.com/SscSPs/storefront_auth/internal/utils"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// RouterDeps carries the infrastructure the routes need besides the services.
type RouterDeps struct {
	// Pinger backs /health when ENABLE_DB_CHECK is set.
	Pinger portsrepo.Pinger
	// Gatherer is served at /metrics. Nil disables the endpoint.
	Gatherer prometheus.Gatherer
	Posthog  *utils.PosthogClientWrapper
}

// RegisterRoutes sets up all application routes, injecting dependencies using interfaces
func RegisterRoutes(
	r *gin.Engine,
	cfg *config.Config,
	services *portssvc.ServiceContainer,
	deps RouterDeps,
) error {
	if err := dto.RegisterValidators(); err != nil {
		return fmt.Errorf("failed to register validators: %w", err)
	}

	var pinger portsrepo.Pinger
	if cfg.EnableDBCheck {
		pinger = deps.Pinger
	}
	r.GET("/health", getHealth(pinger))

	if deps.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{})))
	}

	if err := setupAPIV1Routes(r, cfg, services, deps); err != nil {
		return err
	}

	// Swagger routes (typically public or conditionally available)
	setupSwaggerRoutes(r, cfg)
	return nil
}

// setupAPIV1Routes configures the /api/v1 group and delegates to specific entity route registrations
func setupAPIV1Routes(
	r *gin.Engine,
	cfg *config.Config,
	services *portssvc.ServiceContainer,
	deps RouterDeps,
) error {
	var limit gin.HandlerFunc
	if cfg.AuthRateLimit != "" {
		authLimiter, err := middleware.NewRateLimiter(cfg.AuthRateLimit)
		if err != nil {
			return err
		}
		limit = middleware.RateLimit(authLimiter)
	}
	requireAuth := middleware.AuthMiddleware(services.TokenService)

	v1 := r.Group("/api/v1")

	authHandler := NewAuthHandler(services, cfg, deps.Posthog)
	registerAuthRoutes(v1, authHandler, requireAuth, limit)
	registerGoogleOAuthRoutes(v1, NewGoogleOAuthHandler(services.GoogleOAuthHandler, authHandler), limit)

	protected := v1.Group("", requireAuth)
	registerUserRoutes(protected, newUserHandler(services.User, authHandler.cookie))
	return nil
}

// setupSwaggerRoutes configures the swagger documentation routes
func setupSwaggerRoutes(r *gin.Engine, cfg *config.Config) {
	if cfg.IsProduction {
		//no swagger in prod
		return
	}
	docs.SwaggerInfo.BasePath = "/api/v1"
	swagger := r.Group("/swagger")
	swagger.GET("/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
}
