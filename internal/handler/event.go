package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/protanvir/runners-bd/internal/model"
	"github.com/protanvir/runners-bd/internal/service"
)

// EventHandler serves the events page.
type EventHandler struct {
	events *service.EventService
	logger *slog.Logger
}

// NewEventHandler creates an EventHandler.
func NewEventHandler(events *service.EventService, logger *slog.Logger) *EventHandler {
	return &EventHandler{events: events, logger: logger}
}

// HandleList returns every event, soonest first.
//
// HTTP: GET /api/events
func (h *EventHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	events, err := h.events.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, events)
}

// HandleCreate adds an event organized by the caller.
//
// HTTP: POST /api/events
func (h *EventHandler) HandleCreate(w http.ResponseWriter, r *http.Request, sess model.Session) {
	var in model.NewEvent
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, err)
		return
	}
	event, err := h.events.Create(r.Context(), sess, in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, event)
}

// HandleRSVP records the caller as going. A repeat RSVP answers 409 with
// error "already_joined".
//
// HTTP: POST /api/events/{id}/rsvp
func (h *EventHandler) HandleRSVP(w http.ResponseWriter, r *http.Request, sess model.Session) {
	a, err := h.events.RSVP(r.Context(), sess, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, a)
}

// HandleAttendees lists who is going.
//
// HTTP: GET /api/events/{id}/attendees
func (h *EventHandler) HandleAttendees(w http.ResponseWriter, r *http.Request) {
	attendees, err := h.events.Attendees(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, attendees)
}
