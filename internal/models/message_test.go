package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMessageVisibleTo(t *testing.T) {
	cases := []struct {
		name      string
		msg       Message
		requester string
		visible   bool
	}{
		{"public message", Message{From: "alice", To: "carol", Type: TypeMessage}, "bob", true},
		{"broadcast status", Message{From: "alice", To: BroadcastTarget, Type: TypeStatus}, "bob", true},
		{"private to requester", Message{From: "alice", To: "bob", Type: TypePrivateMessage}, "bob", true},
		{"private from requester", Message{From: "bob", To: "alice", Type: TypePrivateMessage}, "bob", true},
		{"private between others", Message{From: "alice", To: "carol", Type: TypePrivateMessage}, "bob", false},
		{"anonymous reader", Message{From: "alice", To: "carol", Type: TypePrivateMessage}, "", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.visible, tc.msg.VisibleTo(tc.requester))
		})
	}
}

func TestNewStatusMessage(t *testing.T) {
	at := time.Date(2024, 5, 1, 9, 3, 7, 0, time.Local)
	msg := NewStatusMessage("alice", "has entered the room...", at)

	assert.Equal(t, "alice", msg.From)
	assert.Equal(t, BroadcastTarget, msg.To)
	assert.Equal(t, TypeStatus, msg.Type)
	assert.Equal(t, "09:03:07", msg.Time)
}

func TestParticipantInactiveSince(t *testing.T) {
	p := Participant{Name: "alice", LastSeen: 1000}
	assert.True(t, p.InactiveSince(1001))
	assert.False(t, p.InactiveSince(1000))
}
