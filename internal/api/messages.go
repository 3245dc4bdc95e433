package api

import (
	"net/http"

	"wati-proxy/internal/database"
	"wati-proxy/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type MessageHandler struct {
	store *database.MessageStore
}

func NewMessageHandler(store *database.MessageStore) *MessageHandler {
	return &MessageHandler{store: store}
}

type CreateMessageRequest struct {
	ContactID    *uuid.UUID `json:"contact_id"`
	Phone        string     `json:"phone" binding:"required"`
	MessageText  string     `json:"message_text"`
	TemplateName string     `json:"template_name"`
	Status       string     `json:"status" binding:"omitempty,oneof=pending sent delivered read failed received"`
}

type UpdateMessageStatusRequest struct {
	Status       string `json:"status" binding:"required,oneof=pending sent delivered read failed received"`
	ErrorMessage string `json:"errorMessage"`
}

func (h *MessageHandler) CreateMessage(c *gin.Context) {
	var req CreateMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, bindError(err))
		return
	}

	msg := models.Message{
		Phone:        req.Phone,
		MessageText:  req.MessageText,
		TemplateName: optional(req.TemplateName),
		Status:       req.Status,
	}
	if req.ContactID != nil && *req.ContactID != uuid.Nil {
		msg.ContactID = req.ContactID
	}
	if msg.Status == "" {
		msg.Status = models.StatusPending
	}

	if err := h.store.Create(c.Request.Context(), &msg); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, msg)
}

func (h *MessageHandler) UpdateMessageStatus(c *gin.Context) {
	id, err := uintParam(c)
	if err != nil {
		respondError(c, err)
		return
	}
	var req UpdateMessageStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, bindError(err))
		return
	}

	msg, err := h.store.UpdateStatus(c.Request.Context(), id, req.Status, optional(req.ErrorMessage))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, msg)
}

func (h *MessageHandler) GetMessages(c *gin.Context) {
	messages, err := h.store.Recent(c.Request.Context(), queryInt(c, "limit", defaultMessageLimit))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, messages)
}
