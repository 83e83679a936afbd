package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"shule_transport/internal/models"
	"shule_transport/internal/notify"
)

// Notifier is the process-wide notification dispatcher, set once at
// startup. A nil dispatcher silently drops notifications.
var Notifier *notify.Dispatcher

// respondOK writes the success envelope around the payload.
func respondOK(c *gin.Context, payload gin.H) {
	if payload == nil {
		payload = gin.H{}
	}
	payload["status"] = "success"
	c.JSON(http.StatusOK, payload)
}

// respondError writes the error envelope. Business-rule rejections use
// http.StatusOK so clients distinguish them from transport failures by
// the status field, not the HTTP code.
func respondError(c *gin.Context, code int, message string) {
	c.JSON(code, gin.H{"status": "error", "message": message})
}

// authedUserID pulls the caller's user id out of the JWT claims.
func authedUserID(c *gin.Context) uint {
	return uint(c.MustGet("user_id").(float64))
}

// parseDate reads a "2006-01-02" override, defaulting to today.
func parseDate(s string) (time.Time, error) {
	if s == "" {
		return models.DateOnly(time.Now()), nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, err
	}
	return models.DateOnly(t), nil
}
