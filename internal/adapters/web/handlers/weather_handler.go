package handlers

import (
	"net/http"
	"strconv"

	"github.com/tsimlabs/egs/internal/core/ports"
	"github.com/tsimlabs/egs/internal/core/services/weather"
)

// WeatherHandler serves the datalogger telemetry.
type WeatherHandler struct {
	Poller *weather.Poller
	Store  ports.WeatherStore
}

// NewWeatherHandler creates a new WeatherHandler
func NewWeatherHandler(poller *weather.Poller, store ports.WeatherStore) *WeatherHandler {
	return &WeatherHandler{Poller: poller, Store: store}
}

// HandleLatest returns the newest stored observation.
func (h *WeatherHandler) HandleLatest(w http.ResponseWriter, r *http.Request) {
	obs, err := h.Store.LatestObservation()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if obs == nil {
		writeError(w, http.StatusNotFound, "no weather observations yet")
		return
	}
	writeJSON(w, http.StatusOK, obs)
}

// HandleHealth returns the ingest health and the cached reading. The
// cache survives link loss, so a stale reading comes stamped with its
// record time.
func (h *WeatherHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Poller.Snapshot())
}

// HandleRecent returns the retained observations newest first.
func (h *WeatherHandler) HandleRecent(w http.ResponseWriter, r *http.Request) {
	limit := 10
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	obs, err := h.Store.RecentObservations(limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"observations": obs, "count": len(obs)})
}

// HandlePollNow forces an immediate read from the logger.
func (h *WeatherHandler) HandlePollNow(w http.ResponseWriter, r *http.Request) {
	obs, err := h.Poller.PollNow(r.Context())
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, obs)
}
