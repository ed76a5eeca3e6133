package events

import (
	"encoding/json"
	"time"
)

// Event types published on the hub.
const (
	TypeJobNotified = "job_notified"
	TypePollStarted = "poll_started"
	TypePollDone    = "poll_done"
)

type Event struct {
	Type      string          `json:"type"`
	Version   int             `json:"v"`
	At        time.Time       `json:"at"`
	UserID    int64           `json:"user_id,omitempty"`
	RequestID string          `json:"request_id,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
}

// MakeEvent encodes an event envelope. A zero userID addresses every subscriber.
func MakeEvent(reqID, typ string, userID int64, data any) string {
	var raw json.RawMessage
	if data != nil {
		b, _ := json.Marshal(data)
		raw = b
	}
	e := Event{
		Type:      typ,
		Version:   1,
		At:        time.Now().UTC(),
		UserID:    userID,
		RequestID: reqID,
		Data:      raw,
	}
	b, _ := json.Marshal(e)
	return string(b)
}
