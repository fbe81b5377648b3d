package connections

import (
	"log/slog"
	"net/http"

	"reflectio/internal/api/respond"
	"reflectio/internal/app/http/middleware"
	"reflectio/internal/service/connection"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	svc *connection.Service
	log *slog.Logger
}

func NewHandler(svc *connection.Service, log *slog.Logger) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{svc: svc, log: log}
}

// POST /connections
func (h *Handler) Request(c *gin.Context) {
	var input struct {
		AddresseeID string `json:"addressee_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		respond.BadRequest(c, "addressee_id is required")
		return
	}

	conn, err := h.svc.Request(c.Request.Context(), middleware.UserID(c), input.AddresseeID)
	if err != nil {
		respond.Error(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, conn)
}

func (h *Handler) Accept(c *gin.Context) {
	conn, err := h.svc.Accept(c.Request.Context(), middleware.UserID(c), c.Param("id"))
	if err != nil {
		respond.Error(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, conn)
}

func (h *Handler) Decline(c *gin.Context) {
	conn, err := h.svc.Decline(c.Request.Context(), middleware.UserID(c), c.Param("id"))
	if err != nil {
		respond.Error(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, conn)
}

func (h *Handler) Cancel(c *gin.Context) {
	conn, err := h.svc.Cancel(c.Request.Context(), middleware.UserID(c), c.Param("id"))
	if err != nil {
		respond.Error(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, conn)
}

// DELETE /connections/:id
func (h *Handler) Remove(c *gin.Context) {
	if err := h.svc.Remove(c.Request.Context(), middleware.UserID(c), c.Param("id")); err != nil {
		respond.Error(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GET /connections/with/:userId/actions
func (h *Handler) Actions(c *gin.Context) {
	rel, actions, err := h.svc.Actions(c.Request.Context(), middleware.UserID(c), c.Param("userId"))
	if err != nil {
		respond.Error(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": rel.Status, "actions": actions})
}

// GET /connections/limitations
func (h *Handler) Limitations(c *gin.Context) {
	c.JSON(http.StatusOK, h.svc.Manager().GetConnectionLimitations(c.Request.Context(), middleware.UserID(c)))
}
