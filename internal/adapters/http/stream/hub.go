// Package stream pushes post changes to websocket clients grouped into one
// room per event.
package stream

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/campuslink/beacon/pkg/logger"
	"github.com/campuslink/beacon/pkg/metrics"
)

const sendBuffer = 256

// Hub tracks connected clients per room and fans messages out to them.
type Hub struct {
	register   chan *Client
	unregister chan *Client
	done       chan struct{}

	mu      sync.RWMutex
	rooms   map[string]map[*Client]struct{}
	clients int

	log logger.Logger
}

// NewHub creates a hub. Call Run before registering clients.
func NewHub(l logger.Logger) *Hub {
	if l == nil {
		l = logger.Get().Named("stream")
	}
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		rooms:      make(map[string]map[*Client]struct{}),
		log:        l,
	}
}

// Run processes registrations until ctx is cancelled, then disconnects
// every client.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return
		case c := <-h.register:
			h.add(c)
		case c := <-h.unregister:
			h.remove(c)
		}
	}
}

// Register adds c to its room. It reports false once the hub has stopped.
func (h *Hub) Register(c *Client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.done:
		return false
	}
}

// Unregister removes c and closes its send channel.
func (h *Hub) Unregister(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

func (h *Hub) add(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	room, ok := h.rooms[c.room]
	if !ok {
		room = make(map[*Client]struct{})
		h.rooms[c.room] = room
	}
	room[c] = struct{}{}
	h.clients++
	metrics.UpdateStreamClients(h.clients)
	h.log.Debug(context.Background(), "client joined",
		logger.String("room", c.room), logger.Int("room_clients", len(room)))
}

func (h *Hub) remove(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	room, ok := h.rooms[c.room]
	if !ok {
		return
	}
	if _, ok := room[c]; !ok {
		return
	}
	delete(room, c)
	close(c.send)
	h.clients--
	if len(room) == 0 {
		delete(h.rooms, c.room)
	}
	metrics.UpdateStreamClients(h.clients)
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, room := range h.rooms {
		for c := range room {
			close(c.send)
		}
		delete(h.rooms, id)
	}
	h.clients = 0
	metrics.UpdateStreamClients(0)
}

// BroadcastToRoom sends message as JSON to every client in room. Clients
// whose buffer is full miss the message.
func (h *Hub) BroadcastToRoom(room string, message any) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	clients, ok := h.rooms[room]
	if !ok {
		return
	}
	data, err := json.Marshal(message)
	if err != nil {
		h.log.Error(context.Background(), "failed to marshal stream message",
			logger.String("room", room), logger.Error(err))
		return
	}
	for c := range clients {
		select {
		case c.send <- data:
		default:
			h.log.Warn(context.Background(), "stream client too slow, message skipped",
				logger.String("room", room))
		}
	}
}

// RoomSize returns the number of clients in room.
func (h *Hub) RoomSize(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[room])
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.clients
}
