package models

import "time"

// BroadcastTarget is the recipient that addresses every participant in the room.
const BroadcastTarget = "Todos"

// TimeLayout is the wall-clock format stamped on every stored message.
const TimeLayout = "15:04:05"

// MessageType classifies a message for visibility.
type MessageType string

const (
	TypeMessage        MessageType = "message"
	TypePrivateMessage MessageType = "private_message"
	TypeStatus         MessageType = "status"
)

// Message represents a room message. ID orders messages by insertion and is not exposed.
type Message struct {
	ID   int64       `db:"id" json:"-"`
	From string      `db:"sender" json:"from"`
	To   string      `db:"recipient" json:"to"`
	Text string      `db:"text" json:"text"`
	Type MessageType `db:"kind" json:"type"`
	Time string      `db:"sent_at" json:"time"`
}

// NewMessage builds a message stamped with the server clock.
func NewMessage(from, to, text string, kind MessageType, at time.Time) Message {
	return Message{
		From: from,
		To:   to,
		Text: text,
		Type: kind,
		Time: at.Format(TimeLayout),
	}
}

// NewStatusMessage builds a join/leave notice addressed to the whole room.
func NewStatusMessage(name, text string, at time.Time) Message {
	return NewMessage(name, BroadcastTarget, text, TypeStatus, at)
}

// VisibleTo reports whether requester may read the message: public messages,
// broadcasts, and anything the requester sent or received.
func (m Message) VisibleTo(requester string) bool {
	return m.Type == TypeMessage ||
		m.To == BroadcastTarget ||
		m.To == requester ||
		m.From == requester
}

// StreamEvent is pushed to live websocket subscribers.
type StreamEvent struct {
	Type    string   `json:"type"`
	Message *Message `json:"message,omitempty"`
}
