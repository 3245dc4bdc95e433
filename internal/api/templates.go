package api

import (
	"encoding/json"
	"net/http"

	"wati-proxy/internal/database"
	"wati-proxy/internal/models"

	"github.com/gin-gonic/gin"
	"gorm.io/datatypes"
)

type TemplateHandler struct {
	store *database.TemplateStore
}

func NewTemplateHandler(store *database.TemplateStore) *TemplateHandler {
	return &TemplateHandler{store: store}
}

type CreateTemplateRequest struct {
	Name       string          `json:"name" binding:"required"`
	Language   string          `json:"language"`
	Category   string          `json:"category"`
	Status     string          `json:"status"`
	Body       string          `json:"body"`
	Components json.RawMessage `json:"components"`
}

type UpdateTemplateRequest struct {
	Name       *string         `json:"name"`
	Language   *string         `json:"language"`
	Category   *string         `json:"category"`
	Status     *string         `json:"status"`
	Body       *string         `json:"body"`
	Components json.RawMessage `json:"components"`
}

func (r UpdateTemplateRequest) fields() map[string]interface{} {
	fields := map[string]interface{}{}
	if r.Name != nil {
		fields["name"] = *r.Name
	}
	if r.Language != nil {
		fields["language"] = *r.Language
	}
	if r.Category != nil {
		fields["category"] = *r.Category
	}
	if r.Status != nil {
		fields["status"] = *r.Status
	}
	if r.Body != nil {
		fields["body"] = *r.Body
	}
	if len(r.Components) > 0 {
		fields["components"] = datatypes.JSON(r.Components)
	}
	return fields
}

func (h *TemplateHandler) GetTemplates(c *gin.Context) {
	templates, err := h.store.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, templates)
}

func (h *TemplateHandler) CreateTemplate(c *gin.Context) {
	var req CreateTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, bindError(err))
		return
	}

	tmpl := models.Template{
		Name:       req.Name,
		Language:   req.Language,
		Category:   req.Category,
		Status:     req.Status,
		Body:       req.Body,
		Components: jsonOr(req.Components, "[]"),
	}
	if err := h.store.Create(c.Request.Context(), &tmpl); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, tmpl)
}

func (h *TemplateHandler) UpdateTemplate(c *gin.Context) {
	id, err := uuidParam(c)
	if err != nil {
		respondError(c, err)
		return
	}
	var req UpdateTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, bindError(err))
		return
	}

	tmpl, err := h.store.Update(c.Request.Context(), id, req.fields())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, tmpl)
}

func (h *TemplateHandler) DeleteTemplate(c *gin.Context) {
	id, err := uuidParam(c)
	if err != nil {
		respondError(c, err)
		return
	}
	if err := h.store.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
