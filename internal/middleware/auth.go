package middleware

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/SscSPs/storefront_auth/internal/core/domain"
	"github.com/SscSPs/storefront_auth/internal/dto"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// AccessTokenParser is the part of the token service the middleware needs.
type AccessTokenParser interface {
	ParseAccessToken(tokenString string) (*domain.Identity, error)
}

// AuthMiddleware creates a Gin middleware handler that validates bearer access tokens
// and stores the caller identity in the request context.
func AuthMiddleware(parser AccessTokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		logger := GetLoggerFromCtx(c.Request.Context())

		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			logger.Warn("Authorization header missing")
			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.Failure("Authorization header required"))
			return
		}

		scheme, tokenString, found := strings.Cut(authHeader, " ")
		if !found || !strings.EqualFold(scheme, "bearer") || strings.TrimSpace(tokenString) == "" {
			logger.Warn("Authorization header format invalid")
			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.Failure("Authorization header format must be Bearer {token}"))
			return
		}

		identity, err := parser.ParseAccessToken(strings.TrimSpace(tokenString))
		if err != nil {
			logger.Warn("Invalid token", slog.String("error", err.Error()))
			msg := "Invalid token"
			if errors.Is(err, jwt.ErrTokenExpired) {
				msg = "Token has expired"
			} else if errors.Is(err, jwt.ErrTokenNotValidYet) {
				msg = "Token not valid yet"
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.Failure(msg))
			return
		}

		ctx := WithIdentity(c.Request.Context(), identity)
		ctx = WithLogger(ctx, logger.With(slog.String("user_id", identity.UserID)))
		c.Request = c.Request.WithContext(ctx)
		c.Set(string(userIDKey), identity.UserID)

		c.Next()
	}
}

// RequirePermission aborts with 403 unless the caller's role grants p.
// It must run after AuthMiddleware.
func RequirePermission(p domain.Permission) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, ok := GetIdentityFromContext(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.Failure("Unauthorized"))
			return
		}
		if !identity.Can(p) {
			GetLoggerFromCtx(c.Request.Context()).Warn("Permission denied", slog.String("permission", string(p)))
			c.AbortWithStatusJSON(http.StatusForbidden, dto.Failure("Forbidden"))
			return
		}
		c.Next()
	}
}
