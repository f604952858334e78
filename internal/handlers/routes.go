package handlers

import "github.com/gin-gonic/gin"

// RegisterRoutes mounts the room API on r.
func RegisterRoutes(r gin.IRoutes, participants *ParticipantHandler, messages *MessageHandler, health *HealthHandler) {
	r.POST("/participants", participants.Register)
	r.GET("/participants", participants.List)
	r.POST("/status", participants.Heartbeat)
	r.POST("/messages", messages.Post)
	r.GET("/messages", messages.List)
	r.GET("/healthz", health.Health)
}
