package chat

import (
	"context"
	"time"

	"chatroom-service/internal/models"
)

const (
	EntranceText  = "has entered the room..."
	DepartureText = "has left the room..."
)

// Broadcaster pushes freshly stored messages to live subscribers.
type Broadcaster interface {
	Broadcast(msgs ...models.Message)
}

// PresenceRecorder is told about joins and departures.
type PresenceRecorder interface {
	Joined(ctx context.Context, name string)
	Left(ctx context.Context, names ...string)
}

// Hooks carries the optional side effects shared by the registry, the message
// log and the reaper. Zero values are valid.
type Hooks struct {
	Broadcaster Broadcaster
	Presence    PresenceRecorder
	Now         func() time.Time
}

// Time returns the current server time.
func (h Hooks) Time() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now()
}

// Delivered fans stored messages out to subscribers.
func (h Hooks) Delivered(msgs ...models.Message) {
	if h.Broadcaster == nil || len(msgs) == 0 {
		return
	}
	h.Broadcaster.Broadcast(msgs...)
}

func (h Hooks) Joined(ctx context.Context, name string) {
	if h.Presence != nil {
		h.Presence.Joined(ctx, name)
	}
}

func (h Hooks) Left(ctx context.Context, names ...string) {
	if h.Presence != nil && len(names) > 0 {
		h.Presence.Left(ctx, names...)
	}
}
