package handlers

import (
	"net/http"

	"github.com/tsimlabs/egs/internal/core/services/zone"
	"github.com/tsimlabs/egs/internal/core/zonemap"
)

// ZoneHandler exposes the zone lifecycle: activation with changeover,
// deactivation, and the sync state the field clients mirror.
type ZoneHandler struct {
	Orchestrator *zone.Orchestrator
	Tracker      *zone.StateTracker
}

// NewZoneHandler creates a new ZoneHandler
func NewZoneHandler(orchestrator *zone.Orchestrator, tracker *zone.StateTracker) *ZoneHandler {
	return &ZoneHandler{Orchestrator: orchestrator, Tracker: tracker}
}

type zoneRequest struct {
	ZoneName      string `json:"zone_name"`
	WindDirection string `json:"wind_direction"`
}

// HandleActivate lights a zone, darkening any previously active one
// first.
func (h *ZoneHandler) HandleActivate(w http.ResponseWriter, r *http.Request) {
	var req zoneRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.ZoneName == "" {
		writeError(w, http.StatusBadRequest, "zone_name is required")
		return
	}

	res, err := h.Orchestrator.Activate(r.Context(), req.ZoneName, req.WindDirection)
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// HandleDeactivate darkens a named zone, or the whole field when no
// zone is given.
func (h *ZoneHandler) HandleDeactivate(w http.ResponseWriter, r *http.Request) {
	var req zoneRequest
	if !decodeBody(w, r, &req) {
		return
	}

	res, err := h.Orchestrator.Deactivate(r.Context(), req.ZoneName, req.WindDirection)
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// HandleSync returns the activation state field clients poll between
// websocket pushes.
func (h *ZoneHandler) HandleSync(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Tracker.Snapshot())
}

// HandleZones lists the known zones and their lamp plans.
func (h *ZoneHandler) HandleZones(w http.ResponseWriter, r *http.Request) {
	type zoneInfo struct {
		Zone        string `json:"zone"`
		DisplayName string `json:"display_name"`
	}
	zones := zonemap.Zones()
	out := make([]zoneInfo, 0, len(zones))
	for _, z := range zones {
		out = append(out, zoneInfo{Zone: z, DisplayName: zonemap.DisplayName(z)})
	}
	writeJSON(w, http.StatusOK, map[string]any{"zones": out})
}
