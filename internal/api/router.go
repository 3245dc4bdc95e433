package api

import (
	"fmt"
	"net/http"

	"wati-proxy/internal/database"
	"wati-proxy/internal/proxy"
	"wati-proxy/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// Deps is everything the HTTP surface needs. Hub may be nil, in which case the
// websocket route is not mounted.
type Deps struct {
	DB           *gorm.DB
	Contacts     *database.ContactStore
	Messages     *database.MessageStore
	Campaigns    *database.CampaignStore
	Templates    *database.TemplateStore
	Settings     *database.SettingsStore
	Activity     *database.ActivityStore
	Dispatcher   *proxy.Dispatcher
	Hub          *ws.Hub
	MaxBodyBytes int64
}

// NewRouter mounts every route on a fresh gin engine.
func NewRouter(deps Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger())
	r.Use(gin.CustomRecovery(func(c *gin.Context, recovered any) {
		log.Error().Interface("panic", recovered).Str("path", c.Request.URL.Path).Msg("Server error")
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error":   "Server error",
			"message": fmt.Sprint(recovered),
		})
	}))
	if deps.MaxBodyBytes > 0 {
		r.Use(limitBody(deps.MaxBodyBytes))
	}

	healthHandler := NewHealthHandler(deps.DB)
	proxyHandler := NewProxyHandler(deps.Dispatcher)
	contactHandler := NewContactHandler(deps.Contacts)
	messageHandler := NewMessageHandler(deps.Messages)
	campaignHandler := NewCampaignHandler(deps.Campaigns)
	templateHandler := NewTemplateHandler(deps.Templates)
	settingsHandler := NewSettingsHandler(deps.Settings)
	activityHandler := NewActivityHandler(deps.Activity)

	r.GET("/", healthHandler.Root)
	r.GET("/health", healthHandler.Health)
	if deps.Hub != nil {
		r.GET("/ws/activity", deps.Hub.ServeWs)
	}

	apiGroup := r.Group("/api")
	{
		apiGroup.POST("/wati-proxy", proxyHandler.Forward)

		apiGroup.GET("/contacts", contactHandler.GetContacts)
		apiGroup.POST("/contacts", contactHandler.CreateContact)
		apiGroup.POST("/contacts/bulk", contactHandler.BulkUpsertContacts)
		apiGroup.GET("/contacts/search", contactHandler.SearchContacts)
		apiGroup.PUT("/contacts/:id", contactHandler.UpdateContact)
		apiGroup.DELETE("/contacts/:id", contactHandler.DeleteContact)

		apiGroup.GET("/messages", messageHandler.GetMessages)
		apiGroup.POST("/messages", messageHandler.CreateMessage)
		apiGroup.PUT("/messages/:id/status", messageHandler.UpdateMessageStatus)

		apiGroup.GET("/campaigns", campaignHandler.GetCampaigns)
		apiGroup.POST("/campaigns", campaignHandler.CreateCampaign)
		apiGroup.PUT("/campaigns/:id", campaignHandler.UpdateCampaign)

		apiGroup.GET("/templates", templateHandler.GetTemplates)
		apiGroup.POST("/templates", templateHandler.CreateTemplate)
		apiGroup.PUT("/templates/:id", templateHandler.UpdateTemplate)
		apiGroup.DELETE("/templates/:id", templateHandler.DeleteTemplate)

		apiGroup.GET("/settings/:key", settingsHandler.GetSetting)
		apiGroup.PUT("/settings/:key", settingsHandler.PutSetting)

		apiGroup.GET("/activity-logs", activityHandler.GetActivityLogs)
		apiGroup.POST("/activity-logs", activityHandler.CreateActivityLog)
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Endpoint not found"})
	})

	return r
}

func limitBody(max int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, max)
		}
		c.Next()
	}
}
