package models

import (
	"time"
)

// FixPayload carries the coordinates of a FixReceived event.
type FixPayload struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Altitude  float64 `json:"altitude"`
	Format    string  `json:"format"`
}

// Event is the envelope for everything an ingestion session reports.
type Event struct {
	Type      string      `json:"type"`
	SessionID string      `json:"session_id"`
	Listener  string      `json:"listener,omitempty"`
	Port      uint16      `json:"port"`
	Timestamp time.Time   `json:"timestamp"`
	Fix       *FixPayload `json:"fix,omitempty"`
	Connected *bool       `json:"connected,omitempty"`
	Message   string      `json:"message,omitempty"`
	Reason    string      `json:"reason,omitempty"`
}
