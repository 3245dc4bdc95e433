package api

import (
	"encoding/json"
	"net/http"

	"wati-proxy/internal/database"

	"github.com/gin-gonic/gin"
)

type SettingsHandler struct {
	store *database.SettingsStore
}

func NewSettingsHandler(store *database.SettingsStore) *SettingsHandler {
	return &SettingsHandler{store: store}
}

// PutSettingRequest accepts any JSON value, including null.
type PutSettingRequest struct {
	Value json.RawMessage `json:"value"`
}

func (h *SettingsHandler) GetSetting(c *gin.Context) {
	setting, err := h.store.Get(c.Request.Context(), c.Param("key"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, setting)
}

func (h *SettingsHandler) PutSetting(c *gin.Context) {
	var req PutSettingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, bindError(err))
		return
	}
	value := req.Value
	if len(value) == 0 {
		value = json.RawMessage("null")
	}

	setting, err := h.store.Put(c.Request.Context(), c.Param("key"), value)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, setting)
}
