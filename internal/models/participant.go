package models

import "time"

// Participant is a registered room identity with its last heartbeat in epoch milliseconds.
type Participant struct {
	Name     string `db:"name" json:"name"`
	LastSeen int64  `db:"last_seen" json:"lastSeen"`
}

// NewParticipant stamps a participant as seen at the given instant.
func NewParticipant(name string, at time.Time) Participant {
	return Participant{Name: name, LastSeen: at.UnixMilli()}
}

// InactiveSince reports whether the participant was last seen strictly before cutoff.
func (p Participant) InactiveSince(cutoff int64) bool {
	return p.LastSeen < cutoff
}
