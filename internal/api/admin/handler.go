package admin

import (
	"log/slog"
	"net/http"
	"time"

	"reflectio/internal/api/respond"
	"reflectio/internal/domain/entitlement"
	"reflectio/internal/domain/users"
	"reflectio/internal/service/expiration"
	"reflectio/internal/service/permission"
	"reflectio/internal/store"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	profiles    store.ProfileStore
	permissions *permission.Service
	sweeper     *expiration.Sweeper
	log         *slog.Logger
}

func NewHandler(profiles store.ProfileStore, permissions *permission.Service, sweeper *expiration.Sweeper, log *slog.Logger) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{profiles: profiles, permissions: permissions, sweeper: sweeper, log: log}
}

// SweepExpired runs one expiration sweep outside the schedule.
func (h *Handler) SweepExpired(c *gin.Context) {
	report, err := h.sweeper.SweepOnce(c.Request.Context(), time.Now())
	if err != nil {
		respond.Error(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

type UserDetails struct {
	User        users.User                  `json:"user"`
	Entitlement entitlement.Entitlement     `json:"entitlement"`
	Permissions entitlement.UserPermissions `json:"permissions"`
}

// GetUserDetails shows the stored profile next to its resolved view, which
// differ while an expired premium flag awaits reconciliation.
func (h *Handler) GetUserDetails(c *gin.Context) {
	ctx := c.Request.Context()
	id := c.Param("id")

	user, err := h.profiles.FetchProfile(ctx, id)
	if err != nil {
		respond.Error(c, h.log, err)
		return
	}
	ent, err := h.permissions.Entitlement(ctx, id)
	if err != nil {
		respond.Error(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, UserDetails{
		User:        user,
		Entitlement: ent,
		Permissions: h.permissions.GetUserPermissions(ctx, id),
	})
}
