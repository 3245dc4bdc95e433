package api

import (
	"encoding/json"
	"net/http"
	"time"

	"wati-proxy/internal/database"
	"wati-proxy/internal/models"

	"github.com/gin-gonic/gin"
	"gorm.io/datatypes"
)

type CampaignHandler struct {
	store *database.CampaignStore
}

func NewCampaignHandler(store *database.CampaignStore) *CampaignHandler {
	return &CampaignHandler{store: store}
}

type CreateCampaignRequest struct {
	Name         string          `json:"name" binding:"required"`
	TemplateName string          `json:"template_name"`
	Status       string          `json:"status"`
	Recipients   json.RawMessage `json:"recipients"`
	ScheduledAt  *time.Time      `json:"scheduled_at"`
}

type UpdateCampaignRequest struct {
	Name         *string         `json:"name"`
	TemplateName *string         `json:"template_name"`
	Status       *string         `json:"status"`
	Recipients   json.RawMessage `json:"recipients"`
	ScheduledAt  *time.Time      `json:"scheduled_at"`
	SentCount    *int            `json:"sent_count"`
	FailedCount  *int            `json:"failed_count"`
}

func (r UpdateCampaignRequest) fields() map[string]interface{} {
	fields := map[string]interface{}{}
	if r.Name != nil {
		fields["name"] = *r.Name
	}
	if r.TemplateName != nil {
		fields["template_name"] = *r.TemplateName
	}
	if r.Status != nil {
		fields["status"] = *r.Status
	}
	if len(r.Recipients) > 0 {
		fields["recipients"] = datatypes.JSON(r.Recipients)
	}
	if r.ScheduledAt != nil {
		fields["scheduled_at"] = *r.ScheduledAt
	}
	if r.SentCount != nil {
		fields["sent_count"] = *r.SentCount
	}
	if r.FailedCount != nil {
		fields["failed_count"] = *r.FailedCount
	}
	return fields
}

func (h *CampaignHandler) GetCampaigns(c *gin.Context) {
	campaigns, err := h.store.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, campaigns)
}

func (h *CampaignHandler) CreateCampaign(c *gin.Context) {
	var req CreateCampaignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, bindError(err))
		return
	}

	campaign := models.Campaign{
		Name:         req.Name,
		TemplateName: req.TemplateName,
		Status:       req.Status,
		Recipients:   jsonOr(req.Recipients, "[]"),
		ScheduledAt:  req.ScheduledAt,
	}
	if campaign.Status == "" {
		campaign.Status = "draft"
	}

	if err := h.store.Create(c.Request.Context(), &campaign); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, campaign)
}

func (h *CampaignHandler) UpdateCampaign(c *gin.Context) {
	id, err := uuidParam(c)
	if err != nil {
		respondError(c, err)
		return
	}
	var req UpdateCampaignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, bindError(err))
		return
	}

	campaign, err := h.store.Update(c.Request.Context(), id, req.fields())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, campaign)
}

// jsonOr returns raw as a JSON column value, or fallback when raw is absent or null.
func jsonOr(raw json.RawMessage, fallback string) datatypes.JSON {
	if len(raw) == 0 || string(raw) == "null" {
		return datatypes.JSON(fallback)
	}
	return datatypes.JSON(raw)
}
