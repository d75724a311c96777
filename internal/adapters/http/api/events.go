package api

import (
	"net/http"

	"github.com/campuslink/beacon/internal/domain/types"
)

// EventsHandler serves the event catalog.
type EventsHandler struct {
	svc EventService
}

// NewEventsHandler creates a new events handler.
func NewEventsHandler(svc EventService) *EventsHandler {
	return &EventsHandler{svc: svc}
}

// HandleList handles GET /api/events?category=.
func (h *EventsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	events, err := h.svc.ListEvents(r.Context(), r.URL.Query().Get("category"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, events)
}

// HandleCreate handles POST /api/events.
func (h *EventsHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req types.CreateEventRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeServiceError(w, err)
		return
	}
	event, err := h.svc.CreateEvent(r.Context(), currentUser(r), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, event)
}
