package handlers

import (
	"crypto/subtle"
	"log/slog"
	"net/http"

	"github.com/SscSPs/storefront_auth/internal/apperrors"
	portssvc "github.com/SscSPs/storefront_auth/internal/core/ports/services"
	"github.com/SscSPs/storefront_auth/internal/dto"
	"github.com/SscSPs/storefront_auth/internal/middleware"
	"github.com/gin-gonic/gin"
)

const oauthStateMaxAge = 10 * 60

// GoogleOAuthHandler handles the Google authorization code flow.
// The consent URL is built here; the frontend receives the code and posts it back.
type GoogleOAuthHandler struct {
	googleOAuthService portssvc.GoogleOAuthHandlerSvcFacade
	auth               *AuthHandler
}

// NewGoogleOAuthHandler creates a new instance of GoogleOAuthHandler.
// Sessions are issued through the auth handler so the cookie settings stay in one place.
func NewGoogleOAuthHandler(googleOAuthService portssvc.GoogleOAuthHandlerSvcFacade, auth *AuthHandler) *GoogleOAuthHandler {
	return &GoogleOAuthHandler{
		googleOAuthService: googleOAuthService,
		auth:               auth,
	}
}

// registerGoogleOAuthRoutes registers the Google OAuth routes.
func registerGoogleOAuthRoutes(rg *gin.RouterGroup, h *GoogleOAuthHandler, limit gin.HandlerFunc) {
	googleRoutes := rg.Group("/auth/google")
	if limit != nil {
		googleRoutes.Use(limit)
	}
	{
		googleRoutes.GET("/login", h.LoginURL)
		googleRoutes.POST("/exchange-code", h.ExchangeCodeGoogle)
	}
}

// LoginURL godoc
// @Summary Google consent URL
// @Description Returns the Google consent screen URL and sets a short-lived state cookie.
// @Tags oauth
// @Produce json
// @Success 200 {object} dto.APIResponse{data=dto.GoogleLoginURLResponse}
// @Failure 500 {object} dto.APIResponse
// @Router /auth/google/login [get]
func (h *GoogleOAuthHandler) LoginURL(c *gin.Context) {
	ctx := c.Request.Context()
	state, err := h.googleOAuthService.GenerateStateString(ctx)
	if err != nil {
		respondError(c, err)
		return
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(oauthStateCookie, state, oauthStateMaxAge, h.auth.cookie.path, h.auth.cookie.domain, h.auth.cookie.secure, true)
	c.JSON(http.StatusOK, dto.Success("", dto.GoogleLoginURLResponse{URL: h.googleOAuthService.GetGoogleLoginURL(ctx, state)}))
}

// ExchangeCodeGoogle handles the POST request from the frontend containing the authorization code from Google.
// It exchanges the code, validates the ID token, links or creates the user and starts a session.
// @Summary Exchange authorization code for a session
// @Description Exchange a Google authorization code for an access token and refresh cookie
// @Tags oauth
// @Accept  json
// @Produce  json
// @Param   code body dto.ExchangeCodeRequest true "Authorization code"
// @Success 200 {object} dto.APIResponse{data=dto.AuthenticationResponse}
// @Failure 400 {object} dto.APIResponse "Invalid authorization code or state"
// @Failure 401 {object} dto.APIResponse "Google rejected the code or ID token"
// @Failure 409 {object} dto.APIResponse "Email registered with another method"
// @Router /auth/google/exchange-code [post]
func (h *GoogleOAuthHandler) ExchangeCodeGoogle(c *gin.Context) {
	logger := middleware.GetLoggerFromContext(c)

	var req dto.ExchangeCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	// The state cookie is only present when the flow started at /google/login.
	if expected, err := c.Cookie(oauthStateCookie); err == nil && expected != "" {
		if subtle.ConstantTimeCompare([]byte(expected), []byte(req.State)) != 1 {
			respondError(c, apperrors.NewBadRequestError("OAuth state mismatch"))
			return
		}
		c.SetCookie(oauthStateCookie, "", -1, h.auth.cookie.path, h.auth.cookie.domain, h.auth.cookie.secure, true)
	}

	result, err := h.auth.authService.GoogleCodeLogin(c.Request.Context(), req.Code)
	if err != nil {
		respondError(c, err)
		return
	}

	logger.Info("User processed successfully via Google OAuth", slog.String("user_id", result.User.UserID))
	middleware.PosthogEvent(c, h.auth.posthogClient, result.User.UserID, "auth_oauth_login", map[string]any{"provider": "GOOGLE"})
	h.auth.respondWithTokens(c, http.StatusOK, "Login successful", result)
}
