package handlers

import (
	"log/slog"
	"net/http"

	"github.com/SscSPs/storefront_auth/internal/apperrors"
	"github.com/SscSPs/storefront_auth/internal/dto"
	"github.com/SscSPs/storefront_auth/internal/middleware"
	"github.com/gin-gonic/gin"
)

// respondError maps err to its HTTP status and writes the failure envelope.
// Server side failures are logged with the underlying error; the client only
// sees the generic message.
func respondError(c *gin.Context, err error) {
	appErr := apperrors.FromError(err)
	logger := middleware.GetLoggerFromContext(c)
	if appErr.Code >= http.StatusInternalServerError {
		logger.Error("Request failed", slog.Int("status", appErr.Code), slog.String("error", err.Error()))
	} else {
		logger.Warn("Request rejected", slog.Int("status", appErr.Code), slog.String("error", err.Error()))
	}
	c.AbortWithStatusJSON(appErr.Code, dto.Failure(appErr.Message))
}

// respondBindError reports a request body that failed binding or validation.
func respondBindError(c *gin.Context, err error) {
	middleware.GetLoggerFromContext(c).Warn("Invalid request body", slog.String("error", err.Error()))
	c.AbortWithStatusJSON(http.StatusBadRequest, dto.Failure(dto.ValidationMessage(err)))
}
