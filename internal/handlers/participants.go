package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"chatroom-service/internal/middleware"
	"chatroom-service/internal/models"
)

// ParticipantService is the registry surface used by HTTP handlers.
type ParticipantService interface {
	Register(ctx context.Context, name string) (models.Participant, error)
	List(ctx context.Context) ([]models.Participant, error)
	Heartbeat(ctx context.Context, name string) error
}

// ParticipantHandler serves registration, listing and heartbeats.
type ParticipantHandler struct {
	participants ParticipantService
}

// NewParticipantHandler constructs a ParticipantHandler.
func NewParticipantHandler(participants ParticipantService) *ParticipantHandler {
	return &ParticipantHandler{participants: participants}
}

// Register handles POST /participants.
func (h *ParticipantHandler) Register(c *gin.Context) {
	var req struct {
		Name string `json:"name"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "invalid request body"})
		return
	}

	p, err := h.participants.Register(c.Request.Context(), req.Name)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

// List handles GET /participants.
func (h *ParticipantHandler) List(c *gin.Context) {
	participants, err := h.participants.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, participants)
}

// Heartbeat handles POST /status.
func (h *ParticipantHandler) Heartbeat(c *gin.Context) {
	if err := h.participants.Heartbeat(c.Request.Context(), middleware.Caller(c)); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
