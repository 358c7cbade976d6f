package events

import (
	"encoding/json"
	"time"
)

const (
	TypeApplicationCreated       = "application_created"
	TypeApplicationStatusChanged = "application_status_changed"
	TypeNotificationCreated      = "notification_created"
	TypeIngestFinished           = "ingest_finished"
	TypeConfigUpdated            = "config_updated"
)

// Publisher is the write side of a Hub.
type Publisher interface {
	Publish(evt string)
}

type Event struct {
	Type      string          `json:"type"`
	Version   int             `json:"v"`
	At        time.Time       `json:"at"`
	RequestID string          `json:"request_id,omitempty"`
	UserID    string          `json:"user_id,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
}

func MakeEvent(reqID, typ string, v int, data any) string {
	return MakeUserEvent(reqID, "", typ, v, data)
}

// MakeUserEvent is MakeEvent scoped to one user, so SSE subscribers can filter.
func MakeUserEvent(reqID, userID, typ string, v int, data any) string {
	var raw json.RawMessage
	if data != nil {
		b, _ := json.Marshal(data)
		raw = b
	}
	e := Event{
		Type:      typ,
		Version:   v,
		At:        time.Now().UTC(),
		RequestID: reqID,
		UserID:    userID,
		Data:      raw,
	}
	b, _ := json.Marshal(e)
	return string(b)
}
