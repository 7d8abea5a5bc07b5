package ws

import (
	"encoding/json"
	"sync"
)

// Client represents a single WebSocket connection of an agent.
type Client struct {
	AgentID string
	Send    chan []byte
	Hub     *Hub // set so Close() can unregister
	mu      sync.Mutex
	closed  bool
}

func NewClient(agentID string) *Client {
	return &Client{AgentID: agentID, Send: make(chan []byte, 256)}
}

func (c *Client) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.Send)
	hub := c.Hub
	c.mu.Unlock()
	if hub != nil {
		hub.unregister(c)
	}
}

// deliver queues data without blocking; slow clients drop messages.
func (c *Client) deliver(data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	select {
	case c.Send <- data:
	default:
	}
}

// Hub maintains the set of connected agents.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}
	byAgent map[string]map[*Client]struct{}
}

func NewHub() *Hub {
	return &Hub{
		clients: make(map[*Client]struct{}),
		byAgent: make(map[string]map[*Client]struct{}),
	}
}

func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	c.mu.Lock()
	c.Hub = h
	c.mu.Unlock()
	h.clients[c] = struct{}{}
	if h.byAgent[c.AgentID] == nil {
		h.byAgent[c.AgentID] = make(map[*Client]struct{})
	}
	h.byAgent[c.AgentID][c] = struct{}{}
}

func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients, c)
	if m := h.byAgent[c.AgentID]; m != nil {
		delete(m, c)
		if len(m) == 0 {
			delete(h.byAgent, c.AgentID)
		}
	}
}

func (h *Hub) BroadcastToAgent(agentID string, payload interface{}) {
	data, _ := json.Marshal(payload)
	h.mu.RLock()
	clients := make([]*Client, 0, len(h.byAgent[agentID]))
	for c := range h.byAgent[agentID] {
		clients = append(clients, c)
	}
	h.mu.RUnlock()
	for _, c := range clients {
		c.deliver(data)
	}
}

func (h *Hub) BroadcastAll(payload interface{}) {
	data, _ := json.Marshal(payload)
	h.mu.RLock()
	clients := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.RUnlock()
	for _, c := range clients {
		c.deliver(data)
	}
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
