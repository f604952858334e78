package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"chatroom-service/internal/chat"
	"chatroom-service/internal/middleware"
	"chatroom-service/internal/models"
)

// MessageService is the message log surface used by HTTP handlers.
type MessageService interface {
	Post(ctx context.Context, from, to, text, msgType string) (models.Message, error)
	List(ctx context.Context, requester string, limit int) ([]models.Message, error)
}

type MessageHandler struct {
	messages MessageService
}

func NewMessageHandler(messages MessageService) *MessageHandler {
	return &MessageHandler{messages: messages}
}

// Post handles POST /messages. The author is the User header, never the body.
func (h *MessageHandler) Post(c *gin.Context) {
	var req struct {
		To   string `json:"to"`
		Text string `json:"text"`
		Type string `json:"type"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "invalid request body"})
		return
	}

	msg, err := h.messages.Post(c.Request.Context(), middleware.Caller(c), req.To, req.Text, req.Type)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, msg)
}

// List handles GET /messages?limit=N.
func (h *MessageHandler) List(c *gin.Context) {
	limit := 0
	if raw, ok := c.GetQuery("limit"); ok {
		n, err := chat.ParseLimit(raw)
		if err != nil {
			respondError(c, err)
			return
		}
		limit = n
	}

	msgs, err := h.messages.List(c.Request.Context(), middleware.Caller(c), limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, msgs)
}
