package api

import (
	"encoding/json"

	"wati-proxy/internal/proxy"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

type ProxyHandler struct {
	dispatcher *proxy.Dispatcher
}

func NewProxyHandler(dispatcher *proxy.Dispatcher) *ProxyHandler {
	return &ProxyHandler{dispatcher: dispatcher}
}

type ProxyRequest struct {
	Action string          `json:"action" binding:"required"`
	Data   json.RawMessage `json:"data"`
}

// Forward relays one action to WATI and answers with the provider's status
// and body unchanged.
func (h *ProxyHandler) Forward(c *gin.Context) {
	var req ProxyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, bindError(err))
		return
	}

	log.Info().Str("action", req.Action).Msg("WATI proxy request")
	resp, err := h.dispatcher.Dispatch(c.Request.Context(), req.Action, req.Data)
	if err != nil {
		respondError(c, err)
		return
	}

	log.Info().Str("action", req.Action).Int("status", resp.StatusCode).Msg("WATI proxy response")
	c.Data(resp.StatusCode, "application/json; charset=utf-8", resp.Body)
}
