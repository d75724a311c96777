package stream

import (
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/campuslink/beacon/pkg/logger"
)

var upgrader = websocket.Upgrader{ //nolint:gochecknoglobals // shared upgrader
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(*http.Request) bool { return true },
}

// RoomForEvent names the room of an event's posts.
func RoomForEvent(eventID string) string {
	return "event:" + eventID
}

// Handler upgrades GET /ws/events/{eventId} and joins the event's room.
type Handler struct {
	hub *Hub
}

// NewHandler creates a websocket handler on hub.
func NewHandler(hub *Hub) *Handler {
	return &Handler{hub: hub}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("eventId")
	if eventID == "" {
		http.Error(w, "missing eventId", http.StatusBadRequest)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already replied to the client.
		h.hub.log.Warn(r.Context(), "websocket upgrade failed",
			logger.String("event_id", eventID), logger.Error(err))
		return
	}

	client := NewClient(h.hub, conn, RoomForEvent(eventID))
	if !h.hub.Register(client) {
		_ = conn.Close()
		return
	}
	go client.writePump()
	go client.readPump()
}
