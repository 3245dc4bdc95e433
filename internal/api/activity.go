package api

import (
	"encoding/json"
	"net/http"

	"wati-proxy/internal/database"

	"github.com/gin-gonic/gin"
)

type ActivityHandler struct {
	store *database.ActivityStore
}

func NewActivityHandler(store *database.ActivityStore) *ActivityHandler {
	return &ActivityHandler{store: store}
}

type CreateActivityRequest struct {
	Action  string          `json:"action" binding:"required"`
	Details json.RawMessage `json:"details"`
}

func (h *ActivityHandler) CreateActivityLog(c *gin.Context) {
	var req CreateActivityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, bindError(err))
		return
	}

	entry, err := h.store.Append(c.Request.Context(), req.Action, req.Details)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, entry)
}

func (h *ActivityHandler) GetActivityLogs(c *gin.Context) {
	logs, err := h.store.Recent(c.Request.Context(), queryInt(c, "limit", defaultActivityLimit))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, logs)
}
