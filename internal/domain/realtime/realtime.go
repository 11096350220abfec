package realtime

//go:generate go run go.uber.org/mock/mockgen -destination=mocks/mock_hub.go -package=mocks . Hub

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrClientNotFound = errors.New("client not found")
	ErrChannelFull    = errors.New("client message channel full")
)

// Client represents one live connection. Send is buffered; a full buffer
// means the message is dropped, delivery is best-effort.
type Client struct {
	ConnectionID string
	UserID       uuid.UUID
	ConnectedAt  time.Time
	Send         chan *Message
}

// NewClient creates a client with a buffered send channel.
func NewClient(connectionID string, userID uuid.UUID) *Client {
	return &Client{
		ConnectionID: connectionID,
		UserID:       userID,
		ConnectedAt:  time.Now().UTC(),
		Send:         make(chan *Message, 100),
	}
}

// Close closes the client's send channel.
func (c *Client) Close() {
	close(c.Send)
}

// Message is one server-to-client notification.
type Message struct {
	ID        string          `json:"id"`
	Event     string          `json:"event"`
	Data      json.RawMessage `json:"data"`
	Timestamp time.Time       `json:"timestamp"`
}

// NewMessage builds a message for the named event.
func NewMessage(event string, data json.RawMessage) *Message {
	return &Message{
		ID:        uuid.New().String(),
		Event:     event,
		Data:      data,
		Timestamp: time.Now().UTC(),
	}
}

// Hub is the process-local connection group registry: it associates
// connections with session groups and delivers messages to group members.
// Delivery is fire-and-forget; failures to reach a sluggish or disconnected
// peer are swallowed. Cross-process delivery is handled above the hub by the
// coordination store's pub/sub.
type Hub interface {
	Register(client *Client)
	Unregister(connectionID string)

	// Join adds the connection to the session group. Idempotent.
	Join(connectionID, sessionID string)
	// Leave removes the connection from the group. No-op when absent.
	Leave(connectionID, sessionID string)

	// Broadcast delivers to every member of the session group except
	// excludeConnectionID (empty string excludes nobody).
	Broadcast(sessionID string, message *Message, excludeConnectionID string)
	SendToConnection(connectionID string, message *Message) error

	ClientCount() int
	Stop()
}
