package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/tsimlabs/egs/internal/core/domain"
	"github.com/tsimlabs/egs/internal/core/ports"
)

// EventHandler serves the emergency event journal.
type EventHandler struct {
	Events ports.EventStore
}

// NewEventHandler creates a new EventHandler
func NewEventHandler(events ports.EventStore) *EventHandler {
	return &EventHandler{Events: events}
}

// HandleList returns events newest first, up to ?limit (default 100).
func (h *EventHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	limit := 100
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	events, err := h.Events.ListEvents(limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"events": events, "count": len(events)})
}

type createEventRequest struct {
	ZoneName      string `json:"zone_name"`
	WindDirection string `json:"wind_direction"`
}

// HandleCreate inserts an event record directly, without driving the
// gateway. Used to journal incidents handled outside the system.
func (h *EventHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req createEventRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.ZoneName == "" {
		writeError(w, http.StatusBadRequest, "zone_name is required")
		return
	}
	wind, err := domain.ParseWind(req.WindDirection)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	ev, err := h.Events.OpenEvent(req.ZoneName, wind, time.Now())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, ev)
}

// HandleClear stamps one active event cleared.
func (h *EventHandler) HandleClear(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid event id")
		return
	}

	ev, err := h.Events.ClearEvent(uint(id), time.Now())
	if errors.Is(err, domain.ErrEventNotFound) {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, ev)
}

// HandleActive returns events that have not been cleared yet.
func (h *EventHandler) HandleActive(w http.ResponseWriter, r *http.Request) {
	events, err := h.Events.ActiveEvents()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"events": events, "count": len(events)})
}
