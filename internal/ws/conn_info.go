package ws

import "time"

type ConnInfo struct {
	ConnID      string
	Name        string
	IP          string
	RequestID   string
	TraceID     string
	ConnectedAt time.Time
}
