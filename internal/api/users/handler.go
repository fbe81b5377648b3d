package users

import (
	"log/slog"
	"net/http"

	"reflectio/internal/api/respond"
	"reflectio/internal/app/http/middleware"
	"reflectio/internal/service/permission"
	"reflectio/internal/store"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	profiles    store.ProfileStore
	permissions *permission.Service
	log         *slog.Logger
}

func NewHandler(profiles store.ProfileStore, permissions *permission.Service, log *slog.Logger) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{profiles: profiles, permissions: permissions, log: log}
}

// GetCurrentUser returns the profile with its premium status. Reading the
// status reconciles an expired premium flag.
func (h *Handler) GetCurrentUser(c *gin.Context) {
	ctx := c.Request.Context()
	userID := middleware.UserID(c)

	status, err := h.permissions.GetUserPremiumStatus(ctx, userID)
	if err != nil {
		respond.Error(c, h.log, err)
		return
	}
	user, err := h.profiles.FetchProfile(ctx, userID)
	if err != nil {
		respond.Error(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, MeResponse{
		User: UserDTO{
			ID:           user.ID,
			Email:        user.Email,
			DisplayName:  user.DisplayName,
			Role:         user.Role,
			AuthProvider: user.AuthProvider,
			Level:        user.Level(),
			CreatedAt:    user.CreatedAt,
		},
		Premium:     status,
		Permissions: h.permissions.GetUserPermissions(ctx, userID),
	})
}

func (h *Handler) GetPermissions(c *gin.Context) {
	c.JSON(http.StatusOK, h.permissions.GetUserPermissions(c.Request.Context(), middleware.UserID(c)))
}
