package handlers

import (
	"log/slog"
	"net/http"

	"github.com/SscSPs/storefront_auth/internal/apperrors"
	"github.com/SscSPs/storefront_auth/internal/core/domain"
	portssvc "github.com/SscSPs/storefront_auth/internal/core/ports/services"
	"github.com/SscSPs/storefront_auth/internal/dto"
	"github.com/SscSPs/storefront_auth/internal/middleware"
	"github.com/gin-gonic/gin"
)

// userHandler handles HTTP requests related to users.
type userHandler struct {
	userService portssvc.UserSvcFacade
	cookie      refreshCookie
}

// newUserHandler creates a new userHandler.
func newUserHandler(us portssvc.UserSvcFacade, cookie refreshCookie) *userHandler {
	return &userHandler{
		userService: us,
		cookie:      cookie,
	}
}

// registerUserRoutes registers all user-related routes. The group is expected
// to run the auth middleware already.
func registerUserRoutes(rg *gin.RouterGroup, h *userHandler) {
	users := rg.Group("/users")
	{
		users.GET("/me", middleware.RequirePermission(domain.PermProfileRead), h.getMe)
		users.DELETE("/me", middleware.RequirePermission(domain.PermProfileWrite), h.deleteMe)
	}
}

// getMe godoc
// @Summary Current user
// @Description Returns the authenticated user's profile and permissions
// @Tags users
// @Produce  json
// @Success 200 {object} dto.APIResponse{data=dto.UserResponse}
// @Failure 401 {object} dto.APIResponse "Unauthorized"
// @Failure 404 {object} dto.APIResponse "User not found"
// @Security BearerAuth
// @Router /users/me [get]
func (h *userHandler) getMe(c *gin.Context) {
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		respondError(c, apperrors.NewUnauthorizedError("Unauthorized"))
		return
	}

	user, err := h.userService.GetUserByID(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.Success("", dto.ToUserResponse(user)))
}

// deleteMe godoc
// @Summary Delete account
// @Description Deletes the authenticated user together with every session
// @Tags users
// @Produce  json
// @Success 200 {object} dto.APIResponse
// @Failure 401 {object} dto.APIResponse "Unauthorized"
// @Failure 404 {object} dto.APIResponse "User not found"
// @Security BearerAuth
// @Router /users/me [delete]
func (h *userHandler) deleteMe(c *gin.Context) {
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		respondError(c, apperrors.NewUnauthorizedError("Unauthorized"))
		return
	}

	if err := h.userService.DeleteUser(c.Request.Context(), userID, userID); err != nil {
		respondError(c, err)
		return
	}

	middleware.GetLoggerFromContext(c).Info("User deleted", slog.String("user_id", userID))
	h.cookie.clear(c)
	c.JSON(http.StatusOK, dto.Success("Account deleted", nil))
}
