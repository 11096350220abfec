package sse

import (
	"sync"

	"github.com/puzzlehive/puzzlehive/internal/domain/realtime"
)

// Hub is the process-local realtime.Hub backed by SSE clients. Groups are
// keyed by session id and hold connection ids.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*realtime.Client
	groups  map[string]map[string]struct{}
}

func NewHub() *Hub {
	return &Hub{
		clients: make(map[string]*realtime.Client),
		groups:  make(map[string]map[string]struct{}),
	}
}

func (h *Hub) Register(client *realtime.Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[client.ConnectionID] = client
}

func (h *Hub) Unregister(connectionID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if c, ok := h.clients[connectionID]; ok {
		c.Close()
		delete(h.clients, connectionID)
	}
	for sessionID, members := range h.groups {
		delete(members, connectionID)
		if len(members) == 0 {
			delete(h.groups, sessionID)
		}
	}
}

func (h *Hub) Join(connectionID, sessionID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	members, ok := h.groups[sessionID]
	if !ok {
		members = make(map[string]struct{})
		h.groups[sessionID] = members
	}
	members[connectionID] = struct{}{}
}

func (h *Hub) Leave(connectionID, sessionID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	members, ok := h.groups[sessionID]
	if !ok {
		return
	}
	delete(members, connectionID)
	if len(members) == 0 {
		delete(h.groups, sessionID)
	}
}

func (h *Hub) Broadcast(sessionID string, message *realtime.Message, excludeConnectionID string) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for connectionID := range h.groups[sessionID] {
		if connectionID == excludeConnectionID {
			continue
		}
		if c, ok := h.clients[connectionID]; ok {
			trySend(c, message)
		}
	}
}

func (h *Hub) SendToConnection(connectionID string, message *realtime.Message) error {
	h.mu.RLock()
	c := h.clients[connectionID]
	h.mu.RUnlock()
	if c == nil {
		return realtime.ErrClientNotFound
	}
	if !trySend(c, message) {
		return realtime.ErrChannelFull
	}
	return nil
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) Stop() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, c := range h.clients {
		c.Close()
		delete(h.clients, id)
	}
	h.groups = make(map[string]map[string]struct{})
}

func trySend(c *realtime.Client, msg *realtime.Message) bool {
	select {
	case c.Send <- msg:
		return true
	default:
		return false
	}
}
