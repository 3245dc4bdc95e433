package api

import (
	"net/http"
	"time"

	"wati-proxy/internal/database"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type HealthHandler struct {
	db      *gorm.DB
	started time.Time
}

func NewHealthHandler(db *gorm.DB) *HealthHandler {
	return &HealthHandler{db: db, started: time.Now()}
}

func (h *HealthHandler) Health(c *gin.Context) {
	count, err := database.Ping(c.Request.Context(), h.db)
	now := time.Now().UTC()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"status":    "error",
			"timestamp": now,
			"database":  "disconnected",
			"error":     err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":         "ok",
		"timestamp":      now,
		"uptime":         time.Since(h.started).Seconds(),
		"database":       "connected",
		"contacts_count": count,
	})
}

func (h *HealthHandler) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"name":    "WATI Proxy Server",
		"version": "1.0.0",
		"endpoints": gin.H{
			"health":     "/health",
			"watiProxy":  "/api/wati-proxy (POST)",
			"contacts":   "/api/contacts",
			"messages":   "/api/messages",
			"campaigns":  "/api/campaigns",
			"templates":  "/api/templates",
			"settings":   "/api/settings/:key",
			"activities": "/api/activity-logs",
			"activityWs": "/ws/activity",
		},
	})
}
