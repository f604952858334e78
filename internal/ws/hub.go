package ws

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"chatroom-service/internal/models"
	"chatroom-service/internal/observability"
)

const (
	writeWait = 5 * time.Second
	// Frames queued per connection before the subscriber is dropped as too slow.
	sendBuffer = 32
)

type client struct {
	conn *websocket.Conn
	info ConnInfo
	send chan []byte
}

// Hub tracks live subscribers of the room. Each connection has its own
// writer goroutine so a stalled subscriber never blocks Broadcast.
type Hub struct {
	clients map[*websocket.Conn]*client
	mu      sync.RWMutex
	log     *zap.Logger
}

// NewHub creates an empty hub.
func NewHub(log *zap.Logger) *Hub {
	if log == nil {
		log = zap.NewNop()
	}
	return &Hub{
		clients: make(map[*websocket.Conn]*client),
		log:     log,
	}
}

// AddClient registers a websocket connection and starts its writer.
func (h *Hub) AddClient(conn *websocket.Conn, info ConnInfo) {
	cl := &client{conn: conn, info: info, send: make(chan []byte, sendBuffer)}
	h.mu.Lock()
	h.clients[conn] = cl
	h.mu.Unlock()
	observability.IncWSActive()

	go h.writePump(cl)
}

// RemoveClient forgets a connection and stops its writer. It reports whether
// conn was registered.
func (h *Hub) RemoveClient(conn *websocket.Conn) bool {
	h.mu.Lock()
	cl, ok := h.clients[conn]
	if ok {
		delete(h.clients, conn)
		close(cl.send)
	}
	h.mu.Unlock()

	if ok {
		observability.DecWSActive()
	}
	return ok
}

// Len returns the number of live connections.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Broadcast queues each message for every subscriber allowed to read it.
// Subscribers whose queue is full are disconnected.
func (h *Hub) Broadcast(msgs ...models.Message) {
	if h.Len() == 0 {
		return
	}

	var slow []*client
	for i := range msgs {
		msg := msgs[i]
		payload, err := json.Marshal(models.StreamEvent{Type: "message", Message: &msg})
		if err != nil {
			h.log.Error("encode stream event", zap.Error(err))
			continue
		}

		// send is only closed under the write lock, so queuing under the read lock is safe.
		h.mu.RLock()
		for _, cl := range h.clients {
			if !msg.VisibleTo(cl.info.Name) {
				continue
			}
			select {
			case cl.send <- payload:
			default:
				slow = append(slow, cl)
			}
		}
		h.mu.RUnlock()
	}

	for _, cl := range slow {
		if h.RemoveClient(cl.conn) {
			h.log.Warn("websocket subscriber too slow, dropping",
				zap.String("conn_id", cl.info.ConnID),
				zap.String("participant", cl.info.Name))
			if cl.conn != nil {
				cl.conn.Close()
			}
		}
	}
}

func (h *Hub) writePump(cl *client) {
	defer func() {
		if cl.conn != nil {
			cl.conn.Close()
		}
	}()

	for payload := range cl.send {
		err := cl.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err == nil {
			err = cl.conn.WriteMessage(websocket.TextMessage, payload)
		}
		if err != nil {
			h.log.Warn("websocket write error",
				zap.String("conn_id", cl.info.ConnID),
				zap.String("participant", cl.info.Name),
				zap.Error(err))
			h.RemoveClient(cl.conn)
			return
		}
	}
}
