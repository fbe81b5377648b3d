package respond

import (
	"errors"
	"log/slog"
	"net/http"

	"reflectio/internal/apperr"
	"reflectio/internal/service/permission"

	"github.com/gin-gonic/gin"
)

// Error writes err in the shared error shape. Untyped errors are logged and
// replaced by a generic message.
func Error(c *gin.Context, log *slog.Logger, err error) {
	msg := "Internal error"
	var ae *apperr.Error
	if errors.As(err, &ae) && ae.Message != "" {
		msg = ae.Message
	}
	if apperr.KindOf(err) == apperr.KindUpstream {
		log.ErrorContext(c.Request.Context(), "request failed", "path", c.FullPath(), "error", err)
	}
	c.JSON(apperr.HTTPStatus(err), gin.H{"error": msg, "upgrade_prompt": apperr.UpgradePrompt(err)})
}

// Denied writes a permission decision that was not allowed.
func Denied(c *gin.Context, d permission.Decision) {
	c.JSON(apperr.HTTPStatus(d.Err()), gin.H{"error": d.Reason, "upgrade_prompt": d.UpgradePrompt})
}

func BadRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": msg})
}
