package handlers

import (
	"net/http"

	"go-pos-checkout/internal/database"
	"go-pos-checkout/internal/models"
	"go-pos-checkout/internal/utils"

	"github.com/gin-gonic/gin"
)

// GetSystemStatus reports whether this instance can serve checkouts: the
// database answers, and how many events still wait for the relay.
func GetSystemStatus(c *gin.Context) {
	status := gin.H{
		"instance_id":   utils.InstanceID(),
		"relay_enabled": settings.RelayEnabled,
	}

	sqlDB, err := database.DB.DB()
	if err == nil {
		err = sqlDB.PingContext(c.Request.Context())
	}
	if err != nil {
		status["database"] = "unreachable"
		c.JSON(http.StatusServiceUnavailable, status)
		return
	}
	status["database"] = "ok"

	var pending int64
	if err := database.DB.WithContext(c.Request.Context()).Model(&models.OutboxEvent{}).Where("sent_at IS NULL").Count(&pending).Error; err != nil {
		respondError(c, database.Classify(err))
		return
	}
	status["outbox_pending"] = pending
	c.JSON(http.StatusOK, status)
}
