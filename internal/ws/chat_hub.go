package ws

import (
	"encoding/json"
	"sort"
	"sync"
)

// Room is the set of connections watching one chat room.
type Room struct {
	ID      uint
	clients map[*Client]struct{}
}

// ChatHub tracks every connected agent and the chat room each is watching.
type ChatHub struct {
	*Hub
	mu    sync.RWMutex
	rooms map[uint]*Room
}

func NewChatHub() *ChatHub {
	return &ChatHub{Hub: NewHub(), rooms: make(map[uint]*Room)}
}

func (h *ChatHub) Join(roomID uint, c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	r, ok := h.rooms[roomID]
	if !ok {
		r = &Room{ID: roomID, clients: make(map[*Client]struct{})}
		h.rooms[roomID] = r
	}
	r.clients[c] = struct{}{}
}

// Leave removes c from the room, dropping the room once empty.
func (h *ChatHub) Leave(roomID uint, c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	r, ok := h.rooms[roomID]
	if !ok {
		return
	}
	delete(r.clients, c)
	if len(r.clients) == 0 {
		delete(h.rooms, roomID)
	}
}

func (h *ChatHub) RoomClientCount(roomID uint) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if r, ok := h.rooms[roomID]; ok {
		return len(r.clients)
	}
	return 0
}

// WatchedRooms lists the rooms with at least one connection, ascending.
func (h *ChatHub) WatchedRooms() []uint {
	h.mu.RLock()
	ids := make([]uint, 0, len(h.rooms))
	for id := range h.rooms {
		ids = append(ids, id)
	}
	h.mu.RUnlock()
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func (h *ChatHub) BroadcastToRoom(roomID uint, payload interface{}) {
	data, _ := json.Marshal(payload)
	h.mu.RLock()
	var clients []*Client
	if r, ok := h.rooms[roomID]; ok {
		clients = make([]*Client, 0, len(r.clients))
		for c := range r.clients {
			clients = append(clients, c)
		}
	}
	h.mu.RUnlock()
	for _, c := range clients {
		c.deliver(data)
	}
}
