package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"chatroom-service/internal/chat"
	"chatroom-service/internal/validation"
)

func statusFor(err error) int {
	var verr *validation.ValidationError
	switch {
	case errors.As(err, &verr):
		return http.StatusUnprocessableEntity
	case errors.Is(err, chat.ErrParticipantExists):
		return http.StatusConflict
	case errors.Is(err, chat.ErrParticipantNotFound):
		return http.StatusNotFound
	case errors.Is(err, chat.ErrUnknownSender), errors.Is(err, chat.ErrInvalidLimit):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c *gin.Context, err error) {
	status := statusFor(err)

	var verr *validation.ValidationError
	if errors.As(err, &verr) {
		c.JSON(status, gin.H{"error": "validation failed", "details": verr.Fields})
		return
	}

	msg := err.Error()
	if status == http.StatusInternalServerError {
		// Storage details stay in the access log.
		_ = c.Error(err)
		msg = "internal server error"
	}
	c.JSON(status, gin.H{"error": msg})
}
