package handlers

import (
	"log/slog"
	"net/http"

	"github.com/SscSPs/storefront_auth/internal/apperrors"
	"github.com/SscSPs/storefront_auth/internal/core/domain"
	portssvc "github.com/SscSPs/storefront_auth/internal/core/ports/services"
	"github.com/SscSPs/storefront_auth/internal/dto"
	"github.com/SscSPs/storefront_auth/internal/middleware"
	"github.com/SscSPs/storefront_auth/internal/platform/config"
	"github.com/SscSPs/storefront_auth/internal/utils"
	"github.com/gin-gonic/gin"
)

// AuthHandler handles authentication related requests.
type AuthHandler struct {
	authService    portssvc.AuthSvcFacade
	sessionService portssvc.SessionSvcFacade
	tokenService   portssvc.TokenSvcFacade
	cookie         refreshCookie
	posthogClient  *utils.PosthogClientWrapper
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(services *portssvc.ServiceContainer, cfg *config.Config, posthogClient *utils.PosthogClientWrapper) *AuthHandler {
	return &AuthHandler{
		authService:    services.Auth,
		sessionService: services.Session,
		tokenService:   services.TokenService,
		cookie:         newRefreshCookie(cfg),
		posthogClient:  posthogClient,
	}
}

// registerAuthRoutes sets up the routes for authentication.
// Every route of the group shares the same per-IP rate limit.
func registerAuthRoutes(rg *gin.RouterGroup, h *AuthHandler, authMiddleware gin.HandlerFunc, limit gin.HandlerFunc) {
	auth := rg.Group("/auth")
	if limit != nil {
		auth.Use(limit)
	}
	{
		auth.POST("/register", h.Register)
		auth.POST("/login", h.Login)
		auth.POST("/oauth/login", h.OAuthLogin)
		auth.POST("/refresh", h.Refresh)
		auth.POST("/logout", h.Logout)
		auth.POST("/logout-all", authMiddleware, h.LogoutAll)
		auth.GET("/sessions", authMiddleware, middleware.RequirePermission(domain.PermSessionsManage), h.ListSessions)
	}
}

// respondWithTokens sets the refresh cookie and writes the access token body.
func (h *AuthHandler) respondWithTokens(c *gin.Context, status int, message string, result *domain.AuthResult) {
	h.cookie.set(c, result.RefreshToken, result.RefreshTokenExpiresAt)
	c.JSON(status, dto.Success(message, dto.AuthenticationResponse{
		AccessToken: result.AccessToken,
		TokenType:   "Bearer",
		ExpiresIn:   h.tokenService.ExpiresIn(),
		User:        dto.ToUserResponse(result.User),
	}))
}

// Register godoc
// @Summary Register new user
// @Description Creates a local account and starts a session. The refresh token is set as an HttpOnly cookie.
// @Tags auth
// @Accept json
// @Produce json
// @Param register body dto.RegisterRequest true "User Registration Info"
// @Success 201 {object} dto.APIResponse{data=dto.AuthenticationResponse}
// @Failure 400 {object} dto.APIResponse
// @Failure 409 {object} dto.APIResponse "Conflict (e.g., username exists)"
// @Failure 500 {object} dto.APIResponse
// @Router /auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req dto.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	result, err := h.authService.Register(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}

	middleware.GetLoggerFromContext(c).Info("User registered", slog.String("user_id", result.User.UserID))
	middleware.PosthogEvent(c, h.posthogClient, result.User.UserID, "auth_register", nil)
	h.respondWithTokens(c, http.StatusCreated, "User registered successfully", result)
}

// Login godoc
// @Summary User login
// @Description Authenticates with username or email and password.
// @Tags auth
// @Accept json
// @Produce json
// @Param login body dto.LoginRequest true "Login Credentials"
// @Success 200 {object} dto.APIResponse{data=dto.AuthenticationResponse}
// @Failure 400 {object} dto.APIResponse
// @Failure 401 {object} dto.APIResponse
// @Failure 403 {object} dto.APIResponse "Account disabled"
// @Failure 500 {object} dto.APIResponse
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	result, err := h.authService.Login(c.Request.Context(), req.UsernameOrEmail, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}

	middleware.GetLoggerFromContext(c).Info("User logged in", slog.String("user_id", result.User.UserID))
	middleware.PosthogEvent(c, h.posthogClient, result.User.UserID, "auth_login", map[string]any{"method": "password"})
	h.respondWithTokens(c, http.StatusOK, "Login successful", result)
}

// OAuthLogin godoc
// @Summary OAuth login
// @Description Verifies a provider ID token, links or creates the matching user and starts a session.
// @Tags auth
// @Accept json
// @Produce json
// @Param login body dto.OAuthLoginRequest true "Provider token and claimed identity"
// @Success 200 {object} dto.APIResponse{data=dto.AuthenticationResponse}
// @Failure 400 {object} dto.APIResponse
// @Failure 401 {object} dto.APIResponse
// @Failure 409 {object} dto.APIResponse "Email registered with another method"
// @Router /auth/oauth/login [post]
func (h *AuthHandler) OAuthLogin(c *gin.Context) {
	var req dto.OAuthLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	provider, err := domain.ParseAuthProvider(req.Provider)
	if err != nil {
		respondError(c, apperrors.NewBadRequestError("Unsupported provider: "+req.Provider))
		return
	}

	input := domain.OAuthLoginInput{
		Provider:        provider,
		ProviderUserID:  req.ProviderID,
		Email:           req.Email,
		FirstName:       req.FirstName,
		LastName:        req.LastName,
		ProfileImageURL: req.ProfileImageURL,
	}
	result, err := h.authService.OAuthLogin(c.Request.Context(), input, req.Token)
	if err != nil {
		respondError(c, err)
		return
	}

	middleware.GetLoggerFromContext(c).Info("User logged in via OAuth",
		slog.String("user_id", result.User.UserID), slog.String("provider", string(provider)))
	middleware.PosthogEvent(c, h.posthogClient, result.User.UserID, "auth_oauth_login", map[string]any{"provider": string(provider)})
	h.respondWithTokens(c, http.StatusOK, "Login successful", result)
}

// Refresh godoc
// @Summary Refresh access token
// @Description Rotates the refresh token cookie and issues a new access token. A 409 means the token was rotated concurrently; retry once.
// @Tags auth
// @Produce json
// @Success 200 {object} dto.APIResponse{data=dto.AuthenticationResponse}
// @Failure 401 {object} dto.APIResponse
// @Failure 409 {object} dto.APIResponse
// @Router /auth/refresh [post]
func (h *AuthHandler) Refresh(c *gin.Context) {
	raw := h.cookie.read(c)
	if raw == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, dto.Failure("Refresh token is missing"))
		return
	}

	result, err := h.authService.Refresh(c.Request.Context(), raw)
	if err != nil {
		if status := apperrors.FromError(err).Code; status == http.StatusUnauthorized || status == http.StatusForbidden {
			h.cookie.clear(c)
		}
		respondError(c, err)
		return
	}

	h.respondWithTokens(c, http.StatusOK, "Token refreshed", result)
}

// Logout godoc
// @Summary Logout
// @Description Revokes the presented refresh token and clears the cookie. Always succeeds.
// @Tags auth
// @Produce json
// @Success 200 {object} dto.APIResponse
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	if raw := h.cookie.read(c); raw != "" {
		if err := h.authService.Logout(c.Request.Context(), raw); err != nil {
			respondError(c, err)
			return
		}
	}
	h.cookie.clear(c)
	c.JSON(http.StatusOK, dto.Success("Logged out", nil))
}

// LogoutAll godoc
// @Summary Logout everywhere
// @Description Revokes every active session of the authenticated user.
// @Tags auth
// @Produce json
// @Success 200 {object} dto.APIResponse{data=dto.LogoutAllResponse}
// @Failure 401 {object} dto.APIResponse
// @Security BearerAuth
// @Router /auth/logout-all [post]
func (h *AuthHandler) LogoutAll(c *gin.Context) {
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		respondError(c, apperrors.NewUnauthorizedError("Unauthorized"))
		return
	}

	n, err := h.authService.LogoutAll(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	h.cookie.clear(c)
	middleware.PosthogEvent(c, h.posthogClient, userID, "auth_logout_all", map[string]any{"revoked": n})
	c.JSON(http.StatusOK, dto.Success("Logged out from all sessions", dto.LogoutAllResponse{RevokedSessions: n}))
}

// ListSessions godoc
// @Summary List active sessions
// @Description Lists the caller's active refresh tokens, oldest first.
// @Tags auth
// @Produce json
// @Success 200 {object} dto.APIResponse{data=dto.ListSessionsResponse}
// @Failure 401 {object} dto.APIResponse
// @Security BearerAuth
// @Router /auth/sessions [get]
func (h *AuthHandler) ListSessions(c *gin.Context) {
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		respondError(c, apperrors.NewUnauthorizedError("Unauthorized"))
		return
	}

	tokens, err := h.sessionService.ListActiveSessions(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.Success("", dto.ToListSessionsResponse(tokens)))
}
