// Package events contains the message contracts pushed to dashboard clients
// over the WebSocket connection.
package events

import (
	"time"

	"github.com/google/uuid"

	"fertpulse/pkg/contracts/domain"
)

// MessageType defines the type of WebSocket message
type MessageType string

const (
	// MessageTypeConnect is sent once to each new client with the current
	// load states.
	MessageTypeConnect MessageType = "connect"

	// MessageTypeLoadState announces that the dataset or the boundaries
	// finished loading. Clients refetch their views when the dataset is ready.
	MessageTypeLoadState MessageType = "load:state"
)

// BaseMessage represents the base structure for all WebSocket messages
type BaseMessage struct {
	ID        string      `json:"id,omitempty"`
	Type      MessageType `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	TraceID   string      `json:"trace_id,omitempty"`
}

// WebSocketMessage represents a complete WebSocket message
type WebSocketMessage struct {
	BaseMessage
	Data interface{} `json:"data,omitempty"`
}

// NewMessage stamps data with a fresh id and the current time.
func NewMessage(t MessageType, data interface{}) WebSocketMessage {
	return WebSocketMessage{
		BaseMessage: BaseMessage{
			ID:        uuid.New().String(),
			Type:      t,
			Timestamp: time.Now().UTC(),
		},
		Data: data,
	}
}

// ConnectData is the payload of MessageTypeConnect.
type ConnectData struct {
	ClientID string             `json:"client_id"`
	Status   string             `json:"status"`
	Loads    []domain.LoadState `json:"loads"`
}
