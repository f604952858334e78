package ws

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"chatroom-service/internal/chat"
	"chatroom-service/internal/middleware"
	"chatroom-service/internal/observability"
)

const heartbeatTimeout = 5 * time.Second

// Heartbeater refreshes a participant's presence.
type Heartbeater interface {
	Heartbeat(ctx context.Context, name string) error
}

// Handler upgrades GET /ws to a live message stream.
type Handler struct {
	hub      *Hub
	presence Heartbeater
	log      *zap.Logger
}

func NewHandler(hub *Hub, presence Heartbeater, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{hub: hub, presence: presence, log: log}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Handle registers a stream for ?user=NAME (or the User header). Only
// registered participants may subscribe; every inbound frame is a heartbeat.
func (h *Handler) Handle(c *gin.Context) {
	name := c.Query("user")
	if name == "" {
		name = middleware.Caller(c)
	}

	ctx, span := otel.Tracer("chatroom-service/ws").Start(c.Request.Context(), "ws.handshake")
	defer span.End()

	if err := h.presence.Heartbeat(ctx, name); err != nil {
		if errors.Is(err, chat.ErrParticipantNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}
	info := ConnInfo{
		ConnID:      newConnID(),
		Name:        name,
		IP:          observability.IPFromRequest(c.Request),
		RequestID:   middleware.RequestIDFrom(c),
		TraceID:     span.SpanContext().TraceID().String(),
		ConnectedAt: time.Now(),
	}
	h.hub.AddClient(conn, info)
	h.log.Info("ws connect", zap.String("conn_id", info.ConnID), zap.String("participant", name))

	go h.readLoop(conn, info)
}

func (h *Handler) readLoop(conn *websocket.Conn, info ConnInfo) {
	var closeReason string
	defer func() {
		h.hub.RemoveClient(conn)
		conn.Close()
		h.log.Info("ws disconnect",
			zap.String("conn_id", info.ConnID),
			zap.String("participant", info.Name),
			zap.Duration("duration", time.Since(info.ConnectedAt)),
			zap.String("reason", closeReason))
	}()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			closeReason = err.Error()
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.log.Debug("ws read error", zap.String("conn_id", info.ConnID), zap.Error(err))
			}
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), heartbeatTimeout)
		err := h.presence.Heartbeat(ctx, info.Name)
		cancel()
		if errors.Is(err, chat.ErrParticipantNotFound) {
			closeReason = "participant evicted"
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.ClosePolicyViolation, closeReason),
				time.Now().Add(writeWait))
			return
		}
		if err != nil {
			h.log.Warn("ws heartbeat failed", zap.String("participant", info.Name), zap.Error(err))
		}
	}
}
