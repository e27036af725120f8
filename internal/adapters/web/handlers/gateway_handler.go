package handlers

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/tsimlabs/egs/internal/core/domain"
	"github.com/tsimlabs/egs/internal/core/ports"
)

// GatewayHandler exposes the raw frame operations for maintenance and
// commissioning. Zone activations go through the zone endpoints; these
// talk to single devices and lamps directly.
type GatewayHandler struct {
	Gateway ports.Gateway
	Lamps   ports.LampStateStore
}

// NewGatewayHandler creates a new GatewayHandler
func NewGatewayHandler(gateway ports.Gateway, lamps ports.LampStateStore) *GatewayHandler {
	return &GatewayHandler{Gateway: gateway, Lamps: lamps}
}

type lampRequest struct {
	Device string `json:"device"`
	Lamp   int    `json:"lamp"`
	State  string `json:"state"`
	Flash  bool   `json:"flash"`
}

type allRequest struct {
	Device string `json:"device"`
	State  string `json:"state"`
}

type routeRequest struct {
	Device string `json:"device"`
	Route  int    `json:"route"`
}

type maskRequest struct {
	Device string `json:"device"`
	Mask   string `json:"mask"`
}

type lampControlRequest struct {
	LampID int  `json:"lamp_id"`
	State  bool `json:"state"`
}

// HandleLamp drives one lamp addressed by device letter and position.
func (h *GatewayHandler) HandleLamp(w http.ResponseWriter, r *http.Request) {
	var req lampRequest
	if !decodeBody(w, r, &req) {
		return
	}
	device, ok := parseDevice(req.Device)
	if !ok {
		writeError(w, http.StatusBadRequest, domain.ErrInvalidDevice.Error())
		return
	}
	if req.Lamp < 1 || req.Lamp > domain.LampsPerDevice {
		writeError(w, http.StatusBadRequest, "lamp position must be between 1 and 9")
		return
	}
	on, err := domain.ParseState(req.State)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	lampID := int(device-domain.FirstDevice)*domain.LampsPerDevice + req.Lamp
	out := h.Gateway.SendLamp(r.Context(), lampID, on, req.Flash)
	if out.OK {
		h.Lamps.SetLamp(lampID, on)
	}
	writeJSON(w, http.StatusOK, out)
}

// HandleAll switches all nine lamps of a device.
func (h *GatewayHandler) HandleAll(w http.ResponseWriter, r *http.Request) {
	var req allRequest
	if !decodeBody(w, r, &req) {
		return
	}
	device, ok := parseDevice(req.Device)
	if !ok {
		writeError(w, http.StatusBadRequest, domain.ErrInvalidDevice.Error())
		return
	}
	on, err := domain.ParseState(req.State)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	out := h.Gateway.SendDeviceAll(r.Context(), device, on)
	if out.OK {
		h.storeDevice(device, on)
	}
	writeJSON(w, http.StatusOK, out)
}

// HandleRoute recalls a stored route preset on a device.
func (h *GatewayHandler) HandleRoute(w http.ResponseWriter, r *http.Request) {
	var req routeRequest
	if !decodeBody(w, r, &req) {
		return
	}
	device, ok := parseDevice(req.Device)
	if !ok {
		writeError(w, http.StatusBadRequest, domain.ErrInvalidDevice.Error())
		return
	}
	if req.Route < 0 || req.Route > domain.MaxRoute {
		writeError(w, http.StatusBadRequest, domain.ErrInvalidRoute.Error())
		return
	}
	writeJSON(w, http.StatusOK, h.Gateway.SendDeviceRoute(r.Context(), device, req.Route))
}

// HandleMask drives a device with a nine-bit lamp bitmap.
func (h *GatewayHandler) HandleMask(w http.ResponseWriter, r *http.Request) {
	var req maskRequest
	if !decodeBody(w, r, &req) {
		return
	}
	device, ok := parseDevice(req.Device)
	if !ok {
		writeError(w, http.StatusBadRequest, domain.ErrInvalidDevice.Error())
		return
	}
	if _, err := domain.MaskFrame(device, req.Mask); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, h.Gateway.SendDeviceMask(r.Context(), device, req.Mask))
}

// HandleLampControl drives one lamp addressed by flat id.
func (h *GatewayHandler) HandleLampControl(w http.ResponseWriter, r *http.Request) {
	var req lampControlRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if _, _, err := domain.SplitLampID(req.LampID); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	out := h.Gateway.SendLamp(r.Context(), req.LampID, req.State, false)
	if out.OK {
		h.Lamps.SetLamp(req.LampID, req.State)
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": out.OK,
		"lamp_id": req.LampID,
		"state":   req.State,
		"retries": out.Retries,
		"t_ms":    out.TimeMS,
		"error":   out.Error,
	})
}

// HandleHealth returns the gateway connection state and per-device
// delivery counters.
func (h *GatewayHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Gateway.Health())
}

// HandleLampByID returns the recorded state of one lamp.
func (h *GatewayHandler) HandleLampByID(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid lamp id")
		return
	}
	device, position, err := domain.SplitLampID(id)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	on, err := h.Lamps.GetLamp(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"id":       id,
		"device":   string(device),
		"position": position,
		"is_on":    on,
	})
}

// HandleLamps returns the recorded state of every lamp.
func (h *GatewayHandler) HandleLamps(w http.ResponseWriter, r *http.Request) {
	lamps, err := h.Lamps.AllLamps()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	type lampState struct {
		ID   int  `json:"id"`
		IsOn bool `json:"is_on"`
	}
	out := make([]lampState, 0, domain.MaxLampID)
	for id := domain.MinLampID; id <= domain.MaxLampID; id++ {
		out = append(out, lampState{ID: id, IsOn: lamps[id]})
	}
	writeJSON(w, http.StatusOK, map[string]any{"lamps": out})
}

func (h *GatewayHandler) storeDevice(device byte, on bool) {
	base := int(device-domain.FirstDevice) * domain.LampsPerDevice
	for pos := 1; pos <= domain.LampsPerDevice; pos++ {
		h.Lamps.SetLamp(base+pos, on)
	}
}

func parseDevice(s string) (byte, bool) {
	if len(s) != 1 {
		return 0, false
	}
	d := s[0]
	if d >= 'a' && d <= 'n' {
		d -= 'a' - 'A'
	}
	if !domain.ValidDevice(d) {
		return 0, false
	}
	return d, true
}
